package script

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/game/world"
	"github.com/kasuganosora/actorai/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const animWalk = 7

// newJSWorld puts a JS script on actor 0 and a template on actor 1 (the player).
func newJSWorld(t *testing.T, src string) (*JSScript, *world.World) {
	t.Helper()
	s, err := NewJSScript(0, "test.js", src, 50*time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	res := resource.NewLoader("")
	res.Animations[animWalk] = &resource.AnimationDef{ID: animWalk, Frames: 4}
	res.Waypoints[1] = &resource.WaypointDef{ID: 1, Set: 10}

	reg := ai.NewRegistry(2, map[ai.ActorID]ai.Script{0: s, 1: ai.NewTemplate(1)}, zap.NewNop())
	w := world.New(reg, nil, res, world.Options{Player: 1, Seed: 3}, zap.NewNop())
	return s, w
}

func TestJSScript_UpdateUsesWorld(t *testing.T) {
	_, w := newJSWorld(t, `function update() { world.flagSet(5); return true }`)
	assert.True(t, w.Registry().Update(0))
	assert.True(t, w.FlagQuery(5))
}

func TestJSScript_MissingHandlersUseDefaults(t *testing.T) {
	s, w := newJSWorld(t, `var unused = 1`)
	reg := w.Registry()
	assert.False(t, reg.Update(0))
	assert.False(t, reg.ShotAtAndHit(0))
	assert.Equal(t, 0, reg.GetFriendlinessModifierIfGetsClue(0, 1, 3))
	assert.True(t, reg.ReachedMovementTrackWaypoint(0, 1))
	_, _, ok := reg.UpdateAnimation(0)
	assert.False(t, ok)
	assert.False(t, s.Handles("update"))
}

func TestJSScript_GoalChangedSeesOldAndNew(t *testing.T) {
	_, w := newJSWorld(t, `
function goalChanged(oldGoal, newGoal) {
	world.variableSet(1, oldGoal * 100 + newGoal)
	return true
}`)
	w.SetGoal(0, 5)
	assert.Equal(t, 5, w.VariableQuery(1))
	w.SetGoal(0, 7)
	assert.Equal(t, 507, w.VariableQuery(1))
	assert.Equal(t, 7, w.Goal(0))
}

func TestJSScript_NestedHandlerOnSameScript(t *testing.T) {
	_, w := newJSWorld(t, `
var seen = -1
function goalChanged(oldGoal, newGoal) { seen = newGoal; return true }
function update() {
	world.setGoal(self.id, 3)
	world.variableSet(2, seen)
	return world.goal(self.id) === 3
}`)
	assert.True(t, w.Registry().Update(0))
	assert.Equal(t, 3, w.VariableQuery(2))
	assert.Equal(t, 0, w.Registry().Depth())
}

func TestJSScript_PrivateStatePersists(t *testing.T) {
	_, w := newJSWorld(t, `
var clicks = 0
function clickedByPlayer() { clicks++; world.variableSet(4, clicks) }`)
	w.Registry().ClickedByPlayer(0)
	w.Registry().ClickedByPlayer(0)
	assert.Equal(t, 2, w.VariableQuery(4))
}

func TestJSScript_WorldOutsideHandler(t *testing.T) {
	_, err := NewJSScript(0, "bad.js", `world.flagSet(1)`, 50*time.Millisecond, zap.NewNop())
	assert.Error(t, err)
}

func TestJSScript_CompileError(t *testing.T) {
	_, err := NewJSScript(0, "broken.js", `function (`, 50*time.Millisecond, zap.NewNop())
	assert.Error(t, err)
}

func TestJSScript_LoadTimeout(t *testing.T) {
	_, err := NewJSScript(0, "spin.js", `while (true) {}`, 20*time.Millisecond, zap.NewNop())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestJSScript_HandlerTimeoutRecovers(t *testing.T) {
	_, w := newJSWorld(t, `
function update() {
	if (world.flagQuery(9)) { while (true) {} }
	return true
}`)
	w.FlagSet(9)
	assert.False(t, w.Registry().Update(0))

	w.FlagReset(9)
	assert.True(t, w.Registry().Update(0))
}

func TestJSScript_ThrowingHandlersFallBack(t *testing.T) {
	_, w := newJSWorld(t, `
function shotAtAndHit() { throw new Error("boom") }
function getFriendlinessModifierIfGetsClue(other, clue) { throw "no" }
function reachedMovementTrackWaypoint(wp) { return undefinedThing.x }
function updateAnimation() { throw new Error("bad frame") }`)
	reg := w.Registry()
	assert.False(t, reg.ShotAtAndHit(0))
	assert.Equal(t, 0, reg.GetFriendlinessModifierIfGetsClue(0, 1, 2))
	assert.False(t, reg.ReachedMovementTrackWaypoint(0, 1))
	_, _, ok := reg.UpdateAnimation(0)
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Depth())
}

func TestJSScript_FriendlinessModifier(t *testing.T) {
	_, w := newJSWorld(t, `
function getFriendlinessModifierIfGetsClue(other, clue) { return clue === 3 ? -4 : 2 }`)
	assert.Equal(t, -4, w.Registry().GetFriendlinessModifierIfGetsClue(0, 1, 3))
	assert.Equal(t, 2, w.Registry().GetFriendlinessModifierIfGetsClue(0, 1, 8))
}

func TestJSScript_UpdateAnimationAdvancesCursor(t *testing.T) {
	s, w := newJSWorld(t, `
function updateAnimation() {
	self.advance(world.frameCount(7))
	return [7, self.frame()]
}`)
	var frames []int
	for i := 0; i < 5; i++ {
		anim, frame, ok := w.Registry().UpdateAnimation(0)
		require.True(t, ok)
		assert.Equal(t, animWalk, anim)
		frames = append(frames, frame)
	}
	assert.Equal(t, []int{1, 2, 3, 0, 1}, frames)
	assert.Equal(t, 1, s.QueryAnimationState().Frame)
}

func TestJSScript_NullAnimation(t *testing.T) {
	_, w := newJSWorld(t, `function updateAnimation() { return null }`)
	_, _, ok := w.Registry().UpdateAnimation(0)
	assert.False(t, ok)
}

func TestJSScript_DeferredTransition(t *testing.T) {
	s, w := newJSWorld(t, `
function changeAnimationMode(mode) {
	if (mode !== 3) return false
	self.set(2, 1)
	self.defer(5, 9)
	return true
}
function updateAnimation() {
	var next = self.takePending()
	if (next !== null) return [next, self.frame()]
	return [1, self.frame()]
}`)
	reg := w.Registry()
	assert.False(t, reg.ChangeAnimationMode(0, ai.ModeWalk))
	require.True(t, reg.ChangeAnimationMode(0, ai.ModeTalk))
	assert.Equal(t, ai.AnimationState{State: 2, Frame: 1, StateNext: 5, AnimationNext: 9}, s.QueryAnimationState())

	anim, frame, ok := reg.UpdateAnimation(0)
	require.True(t, ok)
	assert.Equal(t, 9, anim)
	assert.Equal(t, 0, frame)
	assert.Equal(t, ai.AnimationState{State: 5, Frame: 0, StateNext: ai.NoTransition, AnimationNext: ai.NoTransition}, s.QueryAnimationState())
}

func TestJSScript_AnimationStateRoundTrip(t *testing.T) {
	s, w := newJSWorld(t, `function initialize() { world.variableSet(6, self.state()) }`)
	st := ai.AnimationState{State: 4, Frame: 2, StateNext: 1, AnimationNext: 12}
	s.SetAnimationState(st)
	assert.Equal(t, st, s.QueryAnimationState())

	w.Registry().Initialize(0)
	assert.Equal(t, 0, s.QueryAnimationState().State)
	assert.Equal(t, ai.NoTransition, s.QueryAnimationState().AnimationNext)
	assert.Equal(t, 0, w.VariableQuery(6))
}

func TestJSScript_TrackAppendOptionalArgs(t *testing.T) {
	_, w := newJSWorld(t, `
function enteredSet(set) {
	world.trackFlush(self.id)
	world.trackAppend(self.id, 1, 500)
	world.trackAppend(self.id, 1, 250, true, 256)
}`)
	w.Registry().EnteredSet(0, 10)
	a, ok := w.Actor(0)
	require.True(t, ok)
	require.Len(t, a.Track.Entries, 2)
	assert.Equal(t, ai.Waypoint(1, 500*time.Millisecond), a.Track.Entries[0])
	assert.Equal(t, ai.TrackWaypoint{Waypoint: 1, Delay: 250 * time.Millisecond, Run: true, Facing: 256}, a.Track.Entries[1])
}

func TestJSScript_TimerThroughEngine(t *testing.T) {
	_, w := newJSWorld(t, `
function initialize() { world.timerStart(self.id, 0, 100) }
function timerExpired(timer) { world.variableIncrement(3, timer + 1) }`)
	eng := world.NewEngine(w, zap.NewNop())
	eng.NewGame()
	eng.Tick(150 * time.Millisecond)
	eng.Tick(150 * time.Millisecond)
	assert.Equal(t, 1, w.VariableQuery(3))
}

func TestJSBuilder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guard.js"),
		[]byte(`function update() { return world.playerActor() === 1 }`), 0o644))
	res := resource.NewLoader(dir)
	build := JSBuilder(res, 50*time.Millisecond, zap.NewNop())

	s, err := build(&resource.CastMember{ID: 0, Kind: resource.KindJS, Script: "guard.js"})
	require.NoError(t, err)
	assert.True(t, s.(*JSScript).Handles("update"))

	_, err = build(&resource.CastMember{ID: 0, Kind: resource.KindJS, Script: "missing.js"})
	assert.Error(t, err)
}

func TestShippedBartender(t *testing.T) {
	res := resource.NewLoader(filepath.Join("..", "..", "data", "game"))
	require.NoError(t, res.Load())

	build := JSBuilder(res, 50*time.Millisecond, zap.NewNop())
	scripts := map[ai.ActorID]ai.Script{}
	for _, m := range res.Cast {
		if m.Kind != resource.KindJS {
			continue
		}
		s, err := build(m)
		require.NoError(t, err, m.Script)
		scripts[ai.ActorID(m.ID)] = s
	}
	require.Contains(t, scripts, ai.ActorID(4))

	reg := ai.NewRegistry(res.MaxActorID()+1, scripts, zap.NewNop())
	w := world.New(reg, nil, res, world.Options{Player: 0, Seed: 9}, zap.NewNop())
	eng := world.NewEngine(w, zap.NewNop())
	eng.NewGame()
	eng.Tick(66 * time.Millisecond)

	eng.Do(func(w *world.World) { w.Registry().ClickedByPlayer(4) })
	a, _ := w.Actor(4)
	assert.Equal(t, 4000, a.LastLine)
	eng.Do(func(w *world.World) { w.Registry().ClickedByPlayer(4) })
	a, _ = w.Actor(4)
	assert.Equal(t, 4010, a.LastLine)

	anim, ok := reg.QueryAnimationState(4)
	require.True(t, ok)
	assert.Equal(t, 80, anim.State, "idle until the wipe timer fires")

	eng.Do(func(w *world.World) { w.FlagSet(101) })
	eng.Tick(66 * time.Millisecond)
	assert.Equal(t, 1, w.Goal(4))
}
