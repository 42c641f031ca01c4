package ai

import "go.uber.org/zap"

// entry pairs a script with its reentrancy flag so the two cannot drift apart.
type entry struct {
	script   Script
	updating bool
}

// Registry owns exactly one Script per actor id and routes engine events to it.
//
// The table is fixed at construction. Every dispatch bounds-checks the actor id
// (out of range is a silent no-op), applies the combat gate where the event has
// one, and counts itself in the nesting depth for the duration of the call.
// Registry is not safe for concurrent use; the engine serializes callers.
type Registry struct {
	entries []entry
	world   World
	depth   int
	logger  *zap.Logger
}

// NewRegistry builds a table of count actors. Ids missing from scripts get a
// Template so dispatch never has to special-case an empty slot. Scripts bound to
// ids outside the table are dropped.
func NewRegistry(count int, scripts map[ActorID]Script, logger *zap.Logger) *Registry {
	if count < 0 {
		count = 0
	}
	r := &Registry{
		entries: make([]entry, count),
		logger:  logger,
	}
	for i := range r.entries {
		id := ActorID(i)
		if s, ok := scripts[id]; ok && s != nil {
			r.entries[i].script = s
		} else {
			r.entries[i].script = NewTemplate(id)
		}
	}
	for id := range scripts {
		if !r.valid(id) {
			logger.Warn("script bound outside actor table", zap.Int("actor", int(id)), zap.Int("count", count))
		}
	}
	return r
}

// Bind attaches the world passed to every handler. Call once before dispatching.
func (r *Registry) Bind(w World) {
	r.world = w
}

// Count returns the size of the actor table.
func (r *Registry) Count() int { return len(r.entries) }

// Script returns the script bound to id, or nil when id is out of range.
func (r *Registry) Script(id ActorID) Script {
	if !r.valid(id) {
		return nil
	}
	return r.entries[id].script
}

// IsInsideScript reports whether control is currently inside any actor handler.
func (r *Registry) IsInsideScript() bool { return r.depth > 0 }

// Depth returns how many dispatches are currently nested.
func (r *Registry) Depth() int { return r.depth }

// Updating reports whether id is currently inside its own Update.
func (r *Registry) Updating(id ActorID) bool {
	return r.valid(id) && r.entries[id].updating
}

func (r *Registry) valid(id ActorID) bool {
	return id >= 0 && int(id) < len(r.entries)
}

func (r *Registry) inCombat(id ActorID) bool {
	return r.world != nil && r.world.InCombat(id)
}

// call runs fn against id's script inside one level of nesting. It reports
// whether fn ran. The depth is restored on every exit path, panics included.
func (r *Registry) call(id ActorID, fn func(Script)) bool {
	if !r.valid(id) {
		return false
	}
	r.depth++
	defer func() { r.depth-- }()
	s := r.entries[id].script
	if s == nil {
		return false
	}
	fn(s)
	return true
}

func (r *Registry) Initialize(id ActorID) {
	r.call(id, func(s Script) { s.Initialize(r.world) })
}

// InitializeAll resets every script in table order.
func (r *Registry) InitializeAll() {
	for i := range r.entries {
		r.Initialize(ActorID(i))
	}
}

// Update polls id's script. A call for an actor that is already inside its own
// Update is suppressed and returns false.
func (r *Registry) Update(id ActorID) bool {
	if !r.valid(id) {
		return false
	}
	e := &r.entries[id]
	if e.updating {
		r.logger.Debug("reentrant update suppressed", zap.Int("actor", int(id)))
		return false
	}
	e.updating = true
	defer func() { e.updating = false }()

	var changed bool
	r.call(id, func(s Script) { changed = s.Update(r.world) })
	if changed {
		r.logger.Debug("actor update changed state", zap.Int("actor", int(id)))
	}
	return changed
}

func (r *Registry) TimerExpired(id ActorID, timer int) {
	r.call(id, func(s Script) { s.TimerExpired(r.world, timer) })
}

// CompletedMovementTrack is not delivered while id is in combat.
func (r *Registry) CompletedMovementTrack(id ActorID) {
	if !r.valid(id) || r.inCombat(id) {
		return
	}
	r.call(id, func(s Script) { s.CompletedMovementTrack(r.world) })
}

func (r *Registry) ReceivedClue(id ActorID, clue int, from ActorID) {
	r.call(id, func(s Script) { s.ReceivedClue(r.world, clue, from) })
}

// ClickedByPlayer is not delivered while id is in combat.
func (r *Registry) ClickedByPlayer(id ActorID) {
	if !r.valid(id) || r.inCombat(id) {
		return
	}
	r.call(id, func(s Script) { s.ClickedByPlayer(r.world) })
}

func (r *Registry) EnteredSet(id ActorID, set int) {
	r.call(id, func(s Script) { s.EnteredSet(r.world, set) })
}

func (r *Registry) OtherAgentEnteredThisSet(id, other ActorID) {
	r.call(id, func(s Script) { s.OtherAgentEnteredThisSet(r.world, other) })
}

func (r *Registry) OtherAgentExitedThisSet(id, other ActorID) {
	r.call(id, func(s Script) { s.OtherAgentExitedThisSet(r.world, other) })
}

func (r *Registry) OtherAgentEnteredCombatMode(id, other ActorID, combat bool) {
	r.call(id, func(s Script) { s.OtherAgentEnteredCombatMode(r.world, other, combat) })
}

func (r *Registry) ShotAtAndMissed(id ActorID) {
	r.call(id, func(s Script) { s.ShotAtAndMissed(r.world) })
}

// ShotAtAndHit reports whether id retaliates. Out of range means no retaliation.
func (r *Registry) ShotAtAndHit(id ActorID) bool {
	var retaliate bool
	r.call(id, func(s Script) { retaliate = s.ShotAtAndHit(r.world) })
	return retaliate
}

func (r *Registry) Retired(id, by ActorID) {
	r.call(id, func(s Script) { s.Retired(r.world, by) })
}

func (r *Registry) GetFriendlinessModifierIfGetsClue(id, other ActorID, clue int) int {
	var delta int
	r.call(id, func(s Script) { delta = s.GetFriendlinessModifierIfGetsClue(r.world, other, clue) })
	return delta
}

func (r *Registry) GoalChanged(id ActorID, oldGoal, newGoal int) bool {
	var accepted bool
	r.call(id, func(s Script) { accepted = s.GoalChanged(r.world, oldGoal, newGoal) })
	return accepted
}

func (r *Registry) UpdateAnimation(id ActorID) (animation, frame int, ok bool) {
	r.call(id, func(s Script) { animation, frame, ok = s.UpdateAnimation(r.world) })
	return animation, frame, ok
}

func (r *Registry) ChangeAnimationMode(id ActorID, mode AnimationMode) bool {
	var ok bool
	r.call(id, func(s Script) { ok = s.ChangeAnimationMode(r.world, mode) })
	return ok
}

// QueryAnimationState reads id's cursor for persistence.
func (r *Registry) QueryAnimationState(id ActorID) (AnimationState, bool) {
	var st AnimationState
	ran := r.call(id, func(s Script) { st = s.QueryAnimationState() })
	return st, ran
}

// SetAnimationState restores id's cursor from persistence.
func (r *Registry) SetAnimationState(id ActorID, st AnimationState) {
	r.call(id, func(s Script) { s.SetAnimationState(st) })
}

// CopyAnimationState copies the cursor of from onto to, used when one actor
// takes over another's on-screen role.
func (r *Registry) CopyAnimationState(from, to ActorID) bool {
	st, ok := r.QueryAnimationState(from)
	if !ok || !r.valid(to) {
		return false
	}
	r.SetAnimationState(to, st)
	return true
}

// ReachedMovementTrackWaypoint reports whether the track continues. It returns
// false without calling the script while id is in combat.
func (r *Registry) ReachedMovementTrackWaypoint(id ActorID, waypoint int) bool {
	if !r.valid(id) || r.inCombat(id) {
		return false
	}
	var cont bool
	r.call(id, func(s Script) { cont = s.ReachedMovementTrackWaypoint(r.world, waypoint) })
	return cont
}

func (r *Registry) FledCombat(id ActorID) {
	r.call(id, func(s Script) { s.FledCombat(r.world) })
}
