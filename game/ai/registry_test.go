package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- Helpers ----

// fakeWorld implements the parts of World the registry tests touch. Calling any
// other method panics through the nil embedded interface.
type fakeWorld struct {
	World
	reg        *Registry
	goals      map[ActorID]int
	combat     map[ActorID]bool
	targetable map[ActorID]bool
	flags      map[int]bool
}

func newFakeWorld(reg *Registry) *fakeWorld {
	w := &fakeWorld{
		reg:        reg,
		goals:      make(map[ActorID]int),
		combat:     make(map[ActorID]bool),
		targetable: make(map[ActorID]bool),
		flags:      make(map[int]bool),
	}
	reg.Bind(w)
	return w
}

func (w *fakeWorld) Goal(id ActorID) int              { return w.goals[id] }
func (w *fakeWorld) InCombat(id ActorID) bool         { return w.combat[id] }
func (w *fakeWorld) Targetable(id ActorID) bool       { return w.targetable[id] }
func (w *fakeWorld) SetTargetable(id ActorID, b bool) { w.targetable[id] = b }
func (w *fakeWorld) FlagQuery(f int) bool             { return w.flags[f] }
func (w *fakeWorld) FlagSet(f int)                    { w.flags[f] = true }

func (w *fakeWorld) SetGoal(id ActorID, goal int) {
	old := w.goals[id]
	if old == goal {
		return
	}
	w.reg.GoalChanged(id, old, goal)
	w.goals[id] = goal
}

// probe records calls and lets a test plug behaviour into selected handlers.
type probe struct {
	Template
	calls        map[string]int
	onUpdate     func(w World) bool
	onGoal       func(w World, oldGoal, newGoal int) bool
	onShotAndHit func(w World) bool
	onWaypoint   func(w World, waypoint int) bool
	onFriendly   func(w World, other ActorID, clue int) int
}

func newProbe(id ActorID) *probe {
	return &probe{Template: Template{Actor: id}, calls: make(map[string]int)}
}

func (p *probe) Update(w World) bool {
	p.calls["update"]++
	if p.onUpdate != nil {
		return p.onUpdate(w)
	}
	return false
}

func (p *probe) GoalChanged(w World, oldGoal, newGoal int) bool {
	p.calls["goal"]++
	if p.onGoal != nil {
		return p.onGoal(w, oldGoal, newGoal)
	}
	return true
}

func (p *probe) ShotAtAndHit(w World) bool {
	p.calls["hit"]++
	if p.onShotAndHit != nil {
		return p.onShotAndHit(w)
	}
	return true
}

func (p *probe) ReachedMovementTrackWaypoint(w World, waypoint int) bool {
	p.calls["waypoint"]++
	if p.onWaypoint != nil {
		return p.onWaypoint(w, waypoint)
	}
	return true
}

func (p *probe) GetFriendlinessModifierIfGetsClue(w World, other ActorID, clue int) int {
	p.calls["friendly"]++
	if p.onFriendly != nil {
		return p.onFriendly(w, other, clue)
	}
	return 0
}

func (p *probe) CompletedMovementTrack(World) { p.calls["completed"]++ }
func (p *probe) ClickedByPlayer(World)        { p.calls["clicked"]++ }
func (p *probe) TimerExpired(World, int)      { p.calls["timer"]++ }
func (p *probe) Retired(World, ActorID)       { p.calls["retired"]++ }

func newTestRegistry(t *testing.T, count int, scripts map[ActorID]Script) (*Registry, *fakeWorld) {
	t.Helper()
	reg := NewRegistry(count, scripts, zap.NewNop())
	return reg, newFakeWorld(reg)
}

// ---- Construction ----

func TestNewRegistry_FillsTemplates(t *testing.T) {
	p := newProbe(1)
	reg, _ := newTestRegistry(t, 3, map[ActorID]Script{1: p})

	require.Equal(t, 3, reg.Count())
	assert.Same(t, p, reg.Script(1))
	for _, id := range []ActorID{0, 2} {
		_, ok := reg.Script(id).(*Template)
		assert.True(t, ok, "actor %d should get the template script", id)
	}
	assert.Nil(t, reg.Script(3))
	assert.Nil(t, reg.Script(-1))
}

func TestNewRegistry_DropsOutOfRangeBindings(t *testing.T) {
	reg, _ := newTestRegistry(t, 2, map[ActorID]Script{5: newProbe(5)})
	assert.Equal(t, 2, reg.Count())
	assert.Nil(t, reg.Script(5))
}

// ---- Bounds safety ----

func TestDispatch_OutOfRangeIsNoOp(t *testing.T) {
	reg, _ := newTestRegistry(t, 2, nil)

	for _, id := range []ActorID{2, 3, 100, -1} {
		assert.NotPanics(t, func() {
			reg.Initialize(id)
			assert.False(t, reg.Update(id))
			reg.TimerExpired(id, 0)
			reg.CompletedMovementTrack(id)
			reg.ReceivedClue(id, 1, 0)
			reg.ClickedByPlayer(id)
			reg.EnteredSet(id, 1)
			reg.OtherAgentEnteredThisSet(id, 0)
			reg.OtherAgentExitedThisSet(id, 0)
			reg.OtherAgentEnteredCombatMode(id, 0, true)
			reg.ShotAtAndMissed(id)
			assert.False(t, reg.ShotAtAndHit(id))
			reg.Retired(id, 0)
			assert.Zero(t, reg.GetFriendlinessModifierIfGetsClue(id, 0, 1))
			assert.False(t, reg.GoalChanged(id, 0, 1))
			_, _, ok := reg.UpdateAnimation(id)
			assert.False(t, ok)
			assert.False(t, reg.ChangeAnimationMode(id, ModeWalk))
			_, ok = reg.QueryAnimationState(id)
			assert.False(t, ok)
			reg.SetAnimationState(id, AnimationState{State: 9})
			assert.False(t, reg.ReachedMovementTrackWaypoint(id, 7))
			reg.FledCombat(id)
			assert.False(t, reg.Updating(id))
		})
		assert.Equal(t, 0, reg.Depth())
		assert.False(t, reg.IsInsideScript())
	}
}

// ---- Update and reentrancy ----

func TestUpdate_ReturnsChanged(t *testing.T) {
	p := newProbe(1)
	p.onUpdate = func(w World) bool {
		w.FlagSet(42)
		return true
	}
	reg, w := newTestRegistry(t, 3, map[ActorID]Script{1: p})

	assert.True(t, reg.Update(1))
	assert.True(t, w.flags[42])
	assert.Equal(t, 1, p.calls["update"])
	assert.False(t, reg.Updating(1))
	assert.Equal(t, 0, reg.Depth())
}

func TestUpdate_ReentrantCallSuppressed(t *testing.T) {
	p := newProbe(1)
	r, _ := newTestRegistry(t, 3, map[ActorID]Script{1: p})
	p.onUpdate = func(World) bool {
		assert.True(t, r.Updating(1))
		assert.False(t, r.Update(1), "re-entering the same actor must be refused")
		return true
	}

	assert.True(t, r.Update(1))
	assert.Equal(t, 1, p.calls["update"], "Update must not run twice on the stack")
	assert.False(t, r.Updating(1))
	assert.True(t, r.Update(1), "flag is cleared once the outer call returns")
	assert.Equal(t, 2, p.calls["update"])
}

func TestUpdate_OtherActorMayUpdateWhileFirstIsUpdating(t *testing.T) {
	a, b := newProbe(0), newProbe(1)
	r, _ := newTestRegistry(t, 2, map[ActorID]Script{0: a, 1: b})
	a.onUpdate = func(World) bool {
		assert.True(t, r.Updating(0))
		return r.Update(1)
	}
	b.onUpdate = func(World) bool {
		assert.Equal(t, 2, r.Depth())
		return true
	}

	assert.True(t, r.Update(0))
	assert.Equal(t, 1, b.calls["update"])
	assert.Equal(t, 0, r.Depth())
}

func TestUpdate_PanicRestoresGuards(t *testing.T) {
	p := newProbe(0)
	p.onUpdate = func(World) bool { panic("broken script") }
	r, _ := newTestRegistry(t, 1, map[ActorID]Script{0: p})

	assert.Panics(t, func() { r.Update(0) })
	assert.Equal(t, 0, r.Depth())
	assert.False(t, r.Updating(0))
	assert.False(t, r.IsInsideScript())
}

// ---- Nesting depth ----

func TestGoalChanged_NestedDispatchDepth(t *testing.T) {
	a, b := newProbe(0), newProbe(1)
	r, w := newTestRegistry(t, 2, map[ActorID]Script{0: a, 1: b})

	var seenOld, seenNew, depthInB int
	a.onGoal = func(w World, _, newGoal int) bool {
		assert.Equal(t, 1, r.Depth())
		w.SetGoal(1, newGoal*10)
		return true
	}
	b.onGoal = func(w World, oldGoal, newGoal int) bool {
		seenOld, seenNew = oldGoal, newGoal
		depthInB = r.Depth()
		assert.True(t, r.IsInsideScript())
		return true
	}
	w.goals[1] = 7

	w.SetGoal(0, 3)

	assert.Equal(t, 7, seenOld)
	assert.Equal(t, 30, seenNew)
	assert.GreaterOrEqual(t, depthInB, 2)
	assert.Equal(t, 0, r.Depth())
	assert.Equal(t, 3, w.goals[0])
	assert.Equal(t, 30, w.goals[1])
}

func TestGoalChanged_OldGoalVisibleDuringHook(t *testing.T) {
	p := newProbe(0)
	r, w := newTestRegistry(t, 1, map[ActorID]Script{0: p})
	w.goals[0] = 100
	p.onGoal = func(w World, oldGoal, newGoal int) bool {
		assert.Equal(t, 100, oldGoal)
		assert.Equal(t, 200, newGoal)
		assert.Equal(t, 100, w.Goal(0), "new goal must not be visible yet")
		return true
	}

	w.SetGoal(0, 200)
	assert.Equal(t, 200, w.Goal(0))
	assert.Equal(t, 1, p.calls["goal"])
	assert.Equal(t, 0, r.Depth())
}

func TestDepth_BalancedAcrossSequence(t *testing.T) {
	p := newProbe(0)
	r, _ := newTestRegistry(t, 1, map[ActorID]Script{0: p})
	for n := 0; n < 25; n++ {
		r.Update(0)
		r.TimerExpired(0, n%TimerCount)
		r.ShotAtAndHit(0)
		r.UpdateAnimation(0)
		assert.Equal(t, 0, r.Depth())
	}
}

// ---- Combat gating ----

func TestCombatGating(t *testing.T) {
	p := newProbe(0)
	r, w := newTestRegistry(t, 1, map[ActorID]Script{0: p})
	w.combat[0] = true

	assert.False(t, r.ReachedMovementTrackWaypoint(0, 7))
	r.CompletedMovementTrack(0)
	r.ClickedByPlayer(0)
	assert.Zero(t, p.calls["waypoint"])
	assert.Zero(t, p.calls["completed"])
	assert.Zero(t, p.calls["clicked"])
	assert.Equal(t, 0, r.Depth())

	// Other events still get through.
	r.TimerExpired(0, 1)
	assert.Equal(t, 1, p.calls["timer"])

	w.combat[0] = false
	var got int
	p.onWaypoint = func(_ World, waypoint int) bool {
		got = waypoint
		return true
	}
	assert.True(t, r.ReachedMovementTrackWaypoint(0, 7))
	r.CompletedMovementTrack(0)
	r.ClickedByPlayer(0)
	assert.Equal(t, 7, got)
	assert.Equal(t, 1, p.calls["completed"])
	assert.Equal(t, 1, p.calls["clicked"])
}

// ---- Combat hit and pure queries ----

func TestShotAtAndHit_NoRetaliationAndUntargetable(t *testing.T) {
	p := newProbe(0)
	r, w := newTestRegistry(t, 1, map[ActorID]Script{0: p})
	w.targetable[0] = true
	p.onShotAndHit = func(w World) bool {
		w.SetTargetable(0, false)
		return false
	}

	assert.False(t, r.ShotAtAndHit(0))
	assert.False(t, w.Targetable(0))
}

func TestGetFriendlinessModifier_IsPure(t *testing.T) {
	p := newProbe(0)
	p.onFriendly = func(_ World, other ActorID, clue int) int {
		if clue == 12 {
			return -3 - int(other)
		}
		return 0
	}
	r, w := newTestRegistry(t, 2, map[ActorID]Script{0: p})

	first := r.GetFriendlinessModifierIfGetsClue(0, 1, 12)
	second := r.GetFriendlinessModifierIfGetsClue(0, 1, 12)
	assert.Equal(t, -4, first)
	assert.Equal(t, first, second)
	assert.Empty(t, w.flags)
	assert.Empty(t, w.goals)
}

// ---- Animation cursor ----

func TestInitialize_Idempotent(t *testing.T) {
	r, _ := newTestRegistry(t, 1, nil)
	r.SetAnimationState(0, AnimationState{State: 4, Frame: 9, StateNext: 2, AnimationNext: 55})

	r.Initialize(0)
	once, _ := r.QueryAnimationState(0)
	r.Initialize(0)
	twice, _ := r.QueryAnimationState(0)

	assert.Equal(t, once, twice)
	assert.Equal(t, AnimationState{StateNext: NoTransition, AnimationNext: NoTransition}, once)
}

func TestCopyAnimationState(t *testing.T) {
	r, _ := newTestRegistry(t, 2, nil)
	st := AnimationState{State: 3, Frame: 11, StateNext: 1, AnimationNext: 77}
	r.SetAnimationState(0, st)

	require.True(t, r.CopyAnimationState(0, 1))
	got, ok := r.QueryAnimationState(1)
	require.True(t, ok)
	assert.Equal(t, st, got)
	assert.False(t, r.CopyAnimationState(0, 9))
}
