package ai

import "time"

// World is everything a script may read or change outside its own animation cursor.
// It is passed explicitly to every handler; scripts never hold on to it between calls
// and never call another actor's script directly. Cross-actor effects go through this
// shared state and are observed on the next dispatch.
//
// Implemented by *world.World; declared here so scripts depend only on this package.
type World interface {
	// Game flags and global variables.
	FlagQuery(flag int) bool
	FlagSet(flag int)
	FlagReset(flag int)
	VariableQuery(variable int) int
	VariableSet(variable, value int)
	VariableIncrement(variable, by int)
	VariableDecrement(variable, by int)

	// Actor placement and state.
	Goal(id ActorID) int
	SetGoal(id ActorID, goal int)
	InCombat(id ActorID) bool
	Targetable(id ActorID) bool
	SetTargetable(id ActorID, on bool)
	Health(id ActorID) int
	SetHealth(id ActorID, current, max int)
	SetOf(id ActorID) int
	PutInSet(id ActorID, set int)
	SetAtXYZ(id ActorID, x, y, z float64, facing int)
	SetAtWaypoint(id ActorID, waypoint, facing int)
	SetInvisible(id ActorID, on bool)
	AnimationMode(id ActorID) AnimationMode
	ChangeAnimationMode(id ActorID, mode AnimationMode)
	FrameCount(animation int) int

	// Friendliness and clues.
	Friendliness(id, other ActorID) int
	ModifyFriendliness(id, other ActorID, delta int)
	ClueQuery(id ActorID, clue int) bool
	ClueAcquire(id ActorID, clue int, from ActorID)

	// Movement tracks. Contents are opaque to the registry.
	TrackFlush(id ActorID)
	TrackAppend(id ActorID, wp TrackWaypoint)
	TrackRepeat(id ActorID)
	TrackPause(id ActorID)
	TrackUnpause(id ActorID)
	WalkToWaypoint(id ActorID, waypoint int, run bool)
	WalkToActor(id, other ActorID)

	// Countdown timers; slots are 0..TimerCount-1.
	TimerStart(id ActorID, timer int, after time.Duration)
	TimerReset(id ActorID, timer int)

	// Combat.
	CombatModeOn(id, target ActorID)
	CombatModeOff(id ActorID)

	// Dialogue and sound.
	Say(id ActorID, line int, mode AnimationMode)
	SayWithPause(id ActorID, line int, pause time.Duration, mode AnimationMode)
	PlaySound(sound, volume int)

	// Scene.
	PlayerActor() ActorID
	PlayerSet() int
	SetEnter(set, scene int)
	Random(min, max int) int
}
