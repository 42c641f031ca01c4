package ai

// Script is the behaviour of one actor. The Registry is its only caller.
//
// Handlers that have nothing to do for an event simply return; an unhandled event
// is not an error. Goal numbers live in the World, not in the script: GoalChanged
// runs while the old goal is still the visible one.
type Script interface {
	// Initialize resets the animation cursor and private counters to their
	// start-of-game values. Calling it twice is the same as calling it once.
	Initialize(w World)
	// Update is polled once per frame. It is the only handler that starts goal
	// changes from polling rather than from a discrete event. The result reports
	// whether anything changed and is only used for diagnostics.
	Update(w World) bool
	// TimerExpired fires when a countdown armed with World.TimerStart elapses.
	// Timers do not repeat on their own.
	TimerExpired(w World, timer int)
	// CompletedMovementTrack fires when the movement track is exhausted.
	CompletedMovementTrack(w World)
	ReceivedClue(w World, clue int, from ActorID)
	ClickedByPlayer(w World)
	EnteredSet(w World, set int)
	OtherAgentEnteredThisSet(w World, other ActorID)
	OtherAgentExitedThisSet(w World, other ActorID)
	OtherAgentEnteredCombatMode(w World, other ActorID, combat bool)
	ShotAtAndMissed(w World)
	// ShotAtAndHit reports whether the actor retaliates this tick.
	ShotAtAndHit(w World) bool
	// Retired fires once, when the actor is permanently removed from play.
	Retired(w World, by ActorID)
	// GetFriendlinessModifierIfGetsClue is a pure query: how much this actor's
	// friendliness toward other would change if other acquired clue.
	GetFriendlinessModifierIfGetsClue(w World, other ActorID, clue int) int
	// GoalChanged runs before newGoal becomes visible. The result is informational.
	GoalChanged(w World, oldGoal, newGoal int) bool
	// UpdateAnimation returns the animation and frame to render this frame and
	// advances the cursor. ok is false when the actor has nothing to render.
	UpdateAnimation(w World) (animation, frame int, ok bool)
	ChangeAnimationMode(w World, mode AnimationMode) bool
	QueryAnimationState() AnimationState
	SetAnimationState(st AnimationState)
	// ReachedMovementTrackWaypoint reports whether the track should continue.
	ReachedMovementTrackWaypoint(w World, waypoint int) bool
	FledCombat(w World)
}
