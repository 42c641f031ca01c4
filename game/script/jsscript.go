package script

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/resource"
	"go.uber.org/zap"
)

// Handler names looked up as global functions after the script body runs.
// Any of them may be missing.
const (
	hInitialize                  = "initialize"
	hUpdate                      = "update"
	hTimerExpired                = "timerExpired"
	hCompletedMovementTrack      = "completedMovementTrack"
	hReceivedClue                = "receivedClue"
	hClickedByPlayer             = "clickedByPlayer"
	hEnteredSet                  = "enteredSet"
	hOtherAgentEnteredThisSet    = "otherAgentEnteredThisSet"
	hOtherAgentExitedThisSet     = "otherAgentExitedThisSet"
	hOtherAgentEnteredCombatMode = "otherAgentEnteredCombatMode"
	hShotAtAndMissed             = "shotAtAndMissed"
	hShotAtAndHit                = "shotAtAndHit"
	hRetired                     = "retired"
	hFriendlinessModifier        = "getFriendlinessModifierIfGetsClue"
	hGoalChanged                 = "goalChanged"
	hUpdateAnimation             = "updateAnimation"
	hChangeAnimationMode         = "changeAnimationMode"
	hReachedWaypoint             = "reachedMovementTrackWaypoint"
	hFledCombat                  = "fledCombat"
)

var handlerNames = []string{
	hInitialize, hUpdate, hTimerExpired, hCompletedMovementTrack, hReceivedClue,
	hClickedByPlayer, hEnteredSet, hOtherAgentEnteredThisSet, hOtherAgentExitedThisSet,
	hOtherAgentEnteredCombatMode, hShotAtAndMissed, hShotAtAndHit, hRetired,
	hFriendlinessModifier, hGoalChanged, hUpdateAnimation, hChangeAnimationMode,
	hReachedWaypoint, hFledCombat,
}

// JSScript is an actor script written in JavaScript. Each script owns its own
// runtime, so private state kept in JS globals survives between handlers.
//
// Handlers see two globals: world, the outbound engine API, valid only while a
// handler runs, and self, the actor's animation cursor. A handler that throws or
// overruns the timeout is logged and treated as if it returned its default.
type JSScript struct {
	id       ai.ActorID
	name     string
	vm       *goja.Runtime
	timeout  time.Duration
	logger   *zap.Logger
	anim     ai.Cursor
	handlers map[string]goja.Callable

	// worlds is a stack: a handler may trigger another handler on this same
	// script through the world, e.g. setGoal on itself.
	worlds []ai.World
}

// NewJSScript compiles and runs src once to collect its handlers.
func NewJSScript(id ai.ActorID, name, src string, timeout time.Duration, logger *zap.Logger) (*JSScript, error) {
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	s := &JSScript{
		id:       id,
		name:     name,
		vm:       newSafeVM(),
		timeout:  timeout,
		logger:   logger.With(zap.Int("actor", int(id)), zap.String("script", name)),
		handlers: make(map[string]goja.Callable),
	}
	s.bindWorldAPI()
	s.bindSelf()

	prog, err := goja.Compile(name, src, true)
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	timer := time.AfterFunc(timeout, func() { s.vm.Interrupt(ErrTimeout) })
	_, err = s.runProgram(prog)
	timer.Stop()
	s.vm.ClearInterrupt()
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return nil, fmt.Errorf("script: load %s: %w", name, ErrTimeout)
		}
		return nil, fmt.Errorf("script: load %s: %w", name, err)
	}

	for _, h := range handlerNames {
		if fn, ok := goja.AssertFunction(s.vm.Get(h)); ok {
			s.handlers[h] = fn
		}
	}
	return s, nil
}

func (s *JSScript) runProgram(prog *goja.Program) (v goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return s.vm.RunProgram(prog)
}

// Handles reports whether the script defines the named handler.
func (s *JSScript) Handles(handler string) bool {
	_, ok := s.handlers[handler]
	return ok
}

// call runs a handler with w as the current world. ok is false when the
// handler is missing or failed.
func (s *JSScript) call(w ai.World, handler string, args ...interface{}) (goja.Value, bool) {
	fn, ok := s.handlers[handler]
	if !ok {
		return nil, false
	}

	s.worlds = append(s.worlds, w)
	defer func() { s.worlds = s.worlds[:len(s.worlds)-1] }()

	// Only the outermost call arms the watchdog.
	if len(s.worlds) == 1 {
		timer := time.AfterFunc(s.timeout, func() { s.vm.Interrupt(ErrTimeout) })
		defer func() {
			timer.Stop()
			s.vm.ClearInterrupt()
		}()
	}

	vals := make([]goja.Value, len(args))
	for i, a := range args {
		vals[i] = s.vm.ToValue(a)
	}

	var res goja.Value
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		res, err = fn(goja.Undefined(), vals...)
	}()
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			err = ErrTimeout
		}
		s.logger.Warn("actor script handler failed",
			zap.String("handler", handler),
			zap.Error(err))
		return nil, false
	}
	return res, true
}

func (s *JSScript) callBool(w ai.World, handler string, args ...interface{}) bool {
	v, ok := s.call(w, handler, args...)
	return ok && v != nil && v.ToBoolean()
}

func (s *JSScript) Initialize(w ai.World) {
	s.anim.Reset()
	s.call(w, hInitialize)
}

func (s *JSScript) Update(w ai.World) bool { return s.callBool(w, hUpdate) }

func (s *JSScript) TimerExpired(w ai.World, timer int) { s.call(w, hTimerExpired, timer) }

func (s *JSScript) CompletedMovementTrack(w ai.World) { s.call(w, hCompletedMovementTrack) }

func (s *JSScript) ReceivedClue(w ai.World, clue int, from ai.ActorID) {
	s.call(w, hReceivedClue, clue, int(from))
}

func (s *JSScript) ClickedByPlayer(w ai.World) { s.call(w, hClickedByPlayer) }

func (s *JSScript) EnteredSet(w ai.World, set int) { s.call(w, hEnteredSet, set) }

func (s *JSScript) OtherAgentEnteredThisSet(w ai.World, other ai.ActorID) {
	s.call(w, hOtherAgentEnteredThisSet, int(other))
}

func (s *JSScript) OtherAgentExitedThisSet(w ai.World, other ai.ActorID) {
	s.call(w, hOtherAgentExitedThisSet, int(other))
}

func (s *JSScript) OtherAgentEnteredCombatMode(w ai.World, other ai.ActorID, combat bool) {
	s.call(w, hOtherAgentEnteredCombatMode, int(other), combat)
}

func (s *JSScript) ShotAtAndMissed(w ai.World) { s.call(w, hShotAtAndMissed) }

func (s *JSScript) ShotAtAndHit(w ai.World) bool { return s.callBool(w, hShotAtAndHit) }

func (s *JSScript) Retired(w ai.World, by ai.ActorID) { s.call(w, hRetired, int(by)) }

func (s *JSScript) GetFriendlinessModifierIfGetsClue(w ai.World, other ai.ActorID, clue int) int {
	v, ok := s.call(w, hFriendlinessModifier, int(other), clue)
	if !ok || v == nil {
		return 0
	}
	return int(v.ToInteger())
}

func (s *JSScript) GoalChanged(w ai.World, oldGoal, newGoal int) bool {
	return s.callBool(w, hGoalChanged, oldGoal, newGoal)
}

// UpdateAnimation expects [animation, frame] back, or null for nothing to render.
func (s *JSScript) UpdateAnimation(w ai.World) (int, int, bool) {
	v, ok := s.call(w, hUpdateAnimation)
	if !ok || v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0, s.anim.Frame, false
	}
	obj := v.ToObject(s.vm)
	return int(obj.Get("0").ToInteger()), int(obj.Get("1").ToInteger()), true
}

func (s *JSScript) ChangeAnimationMode(w ai.World, mode ai.AnimationMode) bool {
	return s.callBool(w, hChangeAnimationMode, int(mode))
}

func (s *JSScript) QueryAnimationState() ai.AnimationState { return s.anim.Snapshot() }

func (s *JSScript) SetAnimationState(st ai.AnimationState) { s.anim.Restore(st) }

// ReachedMovementTrackWaypoint continues the track when no handler is defined
// and stops it when the handler fails.
func (s *JSScript) ReachedMovementTrackWaypoint(w ai.World, waypoint int) bool {
	if !s.Handles(hReachedWaypoint) {
		return true
	}
	return s.callBool(w, hReachedWaypoint, waypoint)
}

func (s *JSScript) FledCombat(w ai.World) { s.call(w, hFledCombat) }

var _ ai.Script = (*JSScript)(nil)

// ---- globals ----

// current returns the world of the running handler and throws in JS otherwise.
func (s *JSScript) current() ai.World {
	if len(s.worlds) == 0 {
		panic(s.vm.NewTypeError("world is only available inside a handler"))
	}
	return s.worlds[len(s.worlds)-1]
}

func ms(v goja.Value) time.Duration {
	return time.Duration(v.ToInteger()) * time.Millisecond
}

func (s *JSScript) bindWorldAPI() {
	w := s.current
	api := map[string]interface{}{
		"flagQuery":         func(f int) bool { return w().FlagQuery(f) },
		"flagSet":           func(f int) { w().FlagSet(f) },
		"flagReset":         func(f int) { w().FlagReset(f) },
		"variableQuery":     func(v int) int { return w().VariableQuery(v) },
		"variableSet":       func(v, n int) { w().VariableSet(v, n) },
		"variableIncrement": func(v, n int) { w().VariableIncrement(v, n) },
		"variableDecrement": func(v, n int) { w().VariableDecrement(v, n) },

		"goal":          func(id int) int { return w().Goal(ai.ActorID(id)) },
		"setGoal":       func(id, g int) { w().SetGoal(ai.ActorID(id), g) },
		"inCombat":      func(id int) bool { return w().InCombat(ai.ActorID(id)) },
		"targetable":    func(id int) bool { return w().Targetable(ai.ActorID(id)) },
		"setTargetable": func(id int, on bool) { w().SetTargetable(ai.ActorID(id), on) },
		"health":        func(id int) int { return w().Health(ai.ActorID(id)) },
		"setHealth":     func(id, cur, hi int) { w().SetHealth(ai.ActorID(id), cur, hi) },
		"setOf":         func(id int) int { return w().SetOf(ai.ActorID(id)) },
		"putInSet":      func(id, set int) { w().PutInSet(ai.ActorID(id), set) },
		"setAtXYZ": func(id int, x, y, z float64, facing int) {
			w().SetAtXYZ(ai.ActorID(id), x, y, z, facing)
		},
		"setAtWaypoint":       func(id, wp, facing int) { w().SetAtWaypoint(ai.ActorID(id), wp, facing) },
		"setInvisible":        func(id int, on bool) { w().SetInvisible(ai.ActorID(id), on) },
		"animationMode":       func(id int) int { return int(w().AnimationMode(ai.ActorID(id))) },
		"changeAnimationMode": func(id, mode int) { w().ChangeAnimationMode(ai.ActorID(id), ai.AnimationMode(mode)) },
		"frameCount":          func(anim int) int { return w().FrameCount(anim) },

		"friendliness":       func(id, other int) int { return w().Friendliness(ai.ActorID(id), ai.ActorID(other)) },
		"modifyFriendliness": func(id, other, d int) { w().ModifyFriendliness(ai.ActorID(id), ai.ActorID(other), d) },
		"clueQuery":          func(id, clue int) bool { return w().ClueQuery(ai.ActorID(id), clue) },
		"clueAcquire":        func(id, clue, from int) { w().ClueAcquire(ai.ActorID(id), clue, ai.ActorID(from)) },

		"trackFlush": func(id int) { w().TrackFlush(ai.ActorID(id)) },
		// trackAppend(id, waypoint, delayMs[, run[, facing]])
		"trackAppend": func(call goja.FunctionCall) goja.Value {
			wp := ai.Waypoint(int(call.Argument(1).ToInteger()), ms(call.Argument(2)))
			if len(call.Arguments) > 3 {
				wp.Run = call.Argument(3).ToBoolean()
			}
			if len(call.Arguments) > 4 {
				wp.Facing = int(call.Argument(4).ToInteger())
			}
			w().TrackAppend(ai.ActorID(call.Argument(0).ToInteger()), wp)
			return goja.Undefined()
		},
		"trackRepeat":    func(id int) { w().TrackRepeat(ai.ActorID(id)) },
		"trackPause":     func(id int) { w().TrackPause(ai.ActorID(id)) },
		"trackUnpause":   func(id int) { w().TrackUnpause(ai.ActorID(id)) },
		"walkToWaypoint": func(id, wp int, run bool) { w().WalkToWaypoint(ai.ActorID(id), wp, run) },
		"walkToActor":    func(id, other int) { w().WalkToActor(ai.ActorID(id), ai.ActorID(other)) },

		"timerStart": func(id, timer int, after goja.Value) { w().TimerStart(ai.ActorID(id), timer, ms(after)) },
		"timerReset": func(id, timer int) { w().TimerReset(ai.ActorID(id), timer) },

		"combatModeOn":  func(id, target int) { w().CombatModeOn(ai.ActorID(id), ai.ActorID(target)) },
		"combatModeOff": func(id int) { w().CombatModeOff(ai.ActorID(id)) },

		"say": func(id, line, mode int) { w().Say(ai.ActorID(id), line, ai.AnimationMode(mode)) },
		"sayWithPause": func(id, line int, pause goja.Value, mode int) {
			w().SayWithPause(ai.ActorID(id), line, ms(pause), ai.AnimationMode(mode))
		},
		"playSound": func(sound, volume int) { w().PlaySound(sound, volume) },

		"playerActor": func() int { return int(w().PlayerActor()) },
		"playerSet":   func() int { return w().PlayerSet() },
		"setEnter":    func(set, scene int) { w().SetEnter(set, scene) },
		"random":      func(lo, hi int) int { return w().Random(lo, hi) },
	}
	obj := s.vm.NewObject()
	for name, fn := range api {
		_ = obj.Set(name, fn)
	}
	s.vm.Set("world", obj)
}

func (s *JSScript) bindSelf() {
	c := &s.anim
	self := s.vm.NewObject()
	_ = self.Set("id", int(s.id))
	_ = self.Set("state", func() int { return c.State })
	_ = self.Set("frame", func() int { return c.Frame })
	_ = self.Set("set", func(state, frame int) { c.Set(state, frame) })
	_ = self.Set("reset", func() { c.Reset() })
	_ = self.Set("advance", func(count int) bool { return c.Advance(count) })
	_ = self.Set("rewind", func(count int) bool { return c.Rewind(count) })
	_ = self.Set("rescale", func(from, to int) { c.Rescale(from, to) })
	_ = self.Set("defer", func(state, anim int) { c.Defer(state, anim) })
	// takePending jumps to the staged state and returns its animation, or null.
	_ = self.Set("takePending", func() goja.Value {
		t, ok := c.TakePending()
		if !ok {
			return goja.Null()
		}
		c.Set(t.State, 0)
		return s.vm.ToValue(t.Animation)
	})
	s.vm.Set("self", self)
}

// JSBuilder returns the builder for cast entries of kind "js". Sources are
// read through res relative to its data directory.
func JSBuilder(res *resource.ResourceLoader, timeout time.Duration, logger *zap.Logger) func(*resource.CastMember) (ai.Script, error) {
	return func(m *resource.CastMember) (ai.Script, error) {
		src, err := res.ScriptSource(m)
		if err != nil {
			return nil, err
		}
		return NewJSScript(ai.ActorID(m.ID), m.Script, src, timeout, logger)
	}
}
