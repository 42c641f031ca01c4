// Package world holds the runtime state every actor script reads and changes,
// and the Engine that drives scripts frame by frame.
package world

import (
	"maps"
	"math/rand/v2"
	"time"

	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/plugin/hook"
	"github.com/kasuganosora/actorai/resource"
	"go.uber.org/zap"
)

// World implements ai.World on top of the actor table, the game state and the
// content catalog. It is not safe for concurrent use: scripts reach it only
// from inside Engine, which holds the engine lock for the whole frame.
type World struct {
	reg    *ai.Registry
	state  *GameState
	res    *resource.ResourceLoader // nil = no catalog (tests)
	hooks  *hook.HookCenter
	logger *zap.Logger
	rng    *rand.Rand

	actors []*Actor
	cast   map[ai.ActorID]*resource.CastMember
	player ai.ActorID
	scene  int
	tick   uint64

	// pendingScene is a scene change requested from inside a script. It is
	// applied once the frame's dispatching is done.
	pendingScene *SceneChange
}

var _ ai.World = (*World)(nil)

// Options configures a World.
type Options struct {
	Player ai.ActorID
	Seed   uint64
	Hooks  *hook.HookCenter
}

// New creates a world with one actor record per registry slot and binds itself
// to reg. state and res may be nil in tests.
func New(reg *ai.Registry, state *GameState, res *resource.ResourceLoader, opts Options, logger *zap.Logger) *World {
	if state == nil {
		state = NewGameState(nil, logger)
	}
	w := &World{
		reg:    reg,
		state:  state,
		res:    res,
		hooks:  opts.Hooks,
		logger: logger,
		rng:    rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		actors: make([]*Actor, reg.Count()),
		cast:   make(map[ai.ActorID]*resource.CastMember),
		player: opts.Player,
	}
	for i := range w.actors {
		w.actors[i] = newActor(ai.ActorID(i))
	}
	if res != nil {
		for _, m := range res.Cast {
			if w.valid(ai.ActorID(m.ID)) {
				w.cast[ai.ActorID(m.ID)] = m
			}
		}
	}
	reg.Bind(w)
	return w
}

func (w *World) valid(id ai.ActorID) bool {
	return id >= 0 && int(id) < len(w.actors)
}

// actor returns the record for id or nil. Every outbound call goes through it,
// so a bad id from a script is ignored the same way the registry ignores it.
func (w *World) actor(id ai.ActorID) *Actor {
	if !w.valid(id) {
		return nil
	}
	return w.actors[id]
}

func (w *World) trace(op string, id ai.ActorID, fields ...zap.Field) {
	if ce := w.logger.Check(zap.DebugLevel, "script call"); ce != nil {
		ce.Write(append([]zap.Field{zap.String("op", op), zap.Int("actor", int(id))}, fields...)...)
	}
}

// Registry returns the dispatcher bound to this world.
func (w *World) Registry() *ai.Registry { return w.reg }

// State returns the flags and variables store.
func (w *World) State() *GameState { return w.state }

// Tick returns the number of frames run since the last new game or load.
func (w *World) Tick() uint64 { return w.tick }

// Scene returns the current scene id.
func (w *World) Scene() int { return w.scene }

// Count returns the size of the actor table.
func (w *World) Count() int { return len(w.actors) }

// Actor returns a copy of id's record for inspection.
func (w *World) Actor(id ai.ActorID) (Actor, bool) {
	a := w.actor(id)
	if a == nil {
		return Actor{}, false
	}
	cp := *a
	cp.Friendliness = cloneMap(a.Friendliness)
	cp.Clues = cloneMap(a.Clues)
	cp.Track.Entries = append([]ai.TrackWaypoint(nil), a.Track.Entries...)
	return cp, true
}

// ---- Game lifecycle ----

// NewGame resets every actor to its cast entry and re-runs every script's
// Initialize. Flags and variables are left alone.
func (w *World) NewGame() {
	w.tick = 0
	w.scene = 0
	w.pendingScene = nil
	for i := range w.actors {
		id := ai.ActorID(i)
		a := newActor(id)
		if m, ok := w.cast[id]; ok {
			w.applyCast(a, m)
		}
		w.actors[i] = a
	}
	w.reg.InitializeAll()
	w.logger.Info("new game", zap.Int("actors", len(w.actors)), zap.Int("cast", len(w.cast)))
}

// applyCast places a fresh record according to its cast entry without any
// notifications; nothing has been initialized yet.
func (w *World) applyCast(a *Actor, m *resource.CastMember) {
	a.Name = m.Name
	a.Goal = m.Goal
	a.Set = m.Set
	a.X, a.Y, a.Z = m.X, m.Y, m.Z
	a.Facing = m.Facing
	a.Health, a.MaxHealth = m.Health, m.Health
	a.Targetable = m.Targetable
	if m.Waypoint != nil && w.res != nil {
		if wp, ok := w.res.Waypoint(*m.Waypoint); ok {
			a.Set = wp.Set
			a.X, a.Y, a.Z = wp.X, wp.Y, wp.Z
		}
	}
}

// ---- Flags and variables ----

func (w *World) FlagQuery(flag int) bool { return w.state.Flag(flag) }

func (w *World) FlagSet(flag int) {
	w.trace("flag_set", ai.NoActor, zap.Int("flag", flag))
	w.state.SetFlag(flag, true)
}

func (w *World) FlagReset(flag int) {
	w.trace("flag_reset", ai.NoActor, zap.Int("flag", flag))
	w.state.SetFlag(flag, false)
}

func (w *World) VariableQuery(variable int) int { return w.state.Variable(variable) }

func (w *World) VariableSet(variable, value int) {
	w.trace("variable_set", ai.NoActor, zap.Int("variable", variable), zap.Int("value", value))
	w.state.SetVariable(variable, value)
}

func (w *World) VariableIncrement(variable, by int) {
	w.state.AddVariable(variable, by)
}

func (w *World) VariableDecrement(variable, by int) {
	w.state.AddVariable(variable, -by)
}

// ---- Goals ----

func (w *World) Goal(id ai.ActorID) int {
	if a := w.actor(id); a != nil {
		return a.Goal
	}
	return 0
}

// SetGoal changes id's goal. The script sees GoalChanged while the old goal is
// still current; the new goal is stored afterwards. Setting the same goal
// again does nothing.
//
// A GoalChanged handler may chain the same actor on to another goal. The
// nested change sees the in-flight goal as its old goal, and the outer call
// does not overwrite it when it returns.
func (w *World) SetGoal(id ai.ActorID, goal int) {
	a := w.actor(id)
	if a == nil {
		return
	}
	old := a.Goal
	if a.goalDepth > 0 {
		old = a.goalNext
	}
	if old == goal {
		return
	}
	w.trace("set_goal", id, zap.Int("old", old), zap.Int("new", goal))

	a.goalSeq++
	seq := a.goalSeq
	a.goalNext = goal
	a.goalDepth++
	accepted := w.reg.GoalChanged(id, old, goal)
	a.goalDepth--
	if a.goalSeq == seq {
		a.Goal = goal
	}
	w.emit(hook.AfterGoalChanged, func() interface{} {
		return GoalChange{Actor: id, Old: old, New: goal, Accepted: accepted, Tick: w.tick}
	})
}

// ---- Simple actor state ----

func (w *World) InCombat(id ai.ActorID) bool {
	a := w.actor(id)
	return a != nil && a.InCombat
}

func (w *World) Targetable(id ai.ActorID) bool {
	a := w.actor(id)
	return a != nil && a.Targetable
}

func (w *World) SetTargetable(id ai.ActorID, on bool) {
	if a := w.actor(id); a != nil {
		w.trace("set_targetable", id, zap.Bool("on", on))
		a.Targetable = on
	}
}

func (w *World) Health(id ai.ActorID) int {
	if a := w.actor(id); a != nil {
		return a.Health
	}
	return 0
}

// SetHealth sets current and maximum health; current is clamped to 0..max.
func (w *World) SetHealth(id ai.ActorID, current, maxHealth int) {
	a := w.actor(id)
	if a == nil {
		return
	}
	maxHealth = max(maxHealth, 0)
	a.MaxHealth = maxHealth
	a.Health = min(max(current, 0), maxHealth)
	w.trace("set_health", id, zap.Int("health", a.Health), zap.Int("max", maxHealth))
}

func (w *World) SetInvisible(id ai.ActorID, on bool) {
	if a := w.actor(id); a != nil {
		a.Invisible = on
	}
}

func (w *World) AnimationMode(id ai.ActorID) ai.AnimationMode {
	if a := w.actor(id); a != nil {
		return a.Mode
	}
	return ai.ModeIdle
}

// ChangeAnimationMode records the requested mode and lets the script map it
// onto its own animation states.
func (w *World) ChangeAnimationMode(id ai.ActorID, mode ai.AnimationMode) {
	a := w.actor(id)
	if a == nil {
		return
	}
	a.Mode = mode
	w.trace("change_animation_mode", id, zap.Int("mode", int(mode)))
	w.reg.ChangeAnimationMode(id, mode)
}

// FrameCount returns the frame count of an animation from the catalog.
func (w *World) FrameCount(animation int) int {
	if w.res == nil {
		return 0
	}
	return w.res.FrameCount(animation)
}

// ---- Dialogue and sound ----

func (w *World) Say(id ai.ActorID, line int, mode ai.AnimationMode) {
	w.SayWithPause(id, line, 0, mode)
}

// SayWithPause records a spoken line and holds mode for the line plus pause.
// The previous mode comes back at the end of the frame in which the hold runs
// out. A negative mode keeps the current animation.
func (w *World) SayWithPause(id ai.ActorID, line int, pause time.Duration, mode ai.AnimationMode) {
	a := w.actor(id)
	if a == nil {
		return
	}
	w.trace("say", id, zap.Int("line", line), zap.Int("mode", int(mode)), zap.Duration("pause", pause))
	a.LastLine = line
	if mode >= 0 {
		if !a.talking {
			a.preTalk = a.Mode
		}
		a.talking = true
		a.talkLeft = pause
		if a.Mode != mode {
			w.ChangeAnimationMode(id, mode)
		}
	}
	w.emit(hook.ActorSpeech, func() interface{} {
		return Speech{Actor: id, Line: line, Mode: mode, Pause: pause, Tick: w.tick}
	})
}

func (w *World) PlaySound(sound, volume int) {
	w.trace("play_sound", ai.NoActor, zap.Int("sound", sound), zap.Int("volume", volume))
}

// ---- Scene ----

func (w *World) PlayerActor() ai.ActorID { return w.player }

func (w *World) PlayerSet() int {
	if a := w.actor(w.player); a != nil {
		return a.Set
	}
	return NoSet
}

// SetEnter moves the player to set and switches scene. Requested from inside
// a script it is deferred until the frame's dispatching is done; the last
// request wins.
func (w *World) SetEnter(set, scene int) {
	if w.reg.IsInsideScript() {
		w.trace("set_enter_deferred", w.player, zap.Int("set", set), zap.Int("scene", scene))
		w.pendingScene = &SceneChange{Set: set, Scene: scene}
		return
	}
	w.enterScene(set, scene)
}

func (w *World) enterScene(set, scene int) {
	w.trace("set_enter", w.player, zap.Int("set", set), zap.Int("scene", scene))
	w.scene = scene
	w.PutInSet(w.player, set)
	w.emit(hook.SceneChanged, func() interface{} {
		return SceneChange{Set: set, Scene: scene, Tick: w.tick}
	})
}

// PendingScene reports the deferred scene change, if any.
func (w *World) PendingScene() (SceneChange, bool) {
	if w.pendingScene == nil {
		return SceneChange{}, false
	}
	return *w.pendingScene, true
}

// Random returns a value in [lo, hi], inclusive.
func (w *World) Random(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + w.rng.IntN(hi-lo+1)
}

// cloneMap copies m and never returns nil, so restored actors always have
// writable maps.
func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return make(map[K]V)
	}
	return maps.Clone(m)
}
