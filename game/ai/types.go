// Package ai is the actor behaviour layer: the per-actor Script contract and the
// Registry that routes engine events to exactly one Script per actor.
package ai

import "time"

// ActorID identifies an actor (player or NPC) for the lifetime of the engine.
type ActorID int

// NoActor is used where an event has no originating actor.
const NoActor ActorID = -1

// AnimationMode is the engine-level animation request passed to ChangeAnimationMode.
// Scripts map a mode to their own private animation states.
type AnimationMode int

const (
	ModeIdle          AnimationMode = 0
	ModeWalk          AnimationMode = 1
	ModeRun           AnimationMode = 2
	ModeTalk          AnimationMode = 3
	ModeCombatIdle    AnimationMode = 4
	ModeCombatAim     AnimationMode = 5
	ModeCombatAttack  AnimationMode = 6
	ModeCombatWalk    AnimationMode = 7
	ModeCombatRun     AnimationMode = 8
	ModeDodge         AnimationMode = 20
	ModeHit           AnimationMode = 21
	ModeCombatHit     AnimationMode = 22
	ModeDie           AnimationMode = 48
	ModeCombatDie     AnimationMode = 49
	ModeSit           AnimationMode = 53
	ModeTalkVariantLo AnimationMode = 12 // talk variants occupy 12..19
	ModeTalkVariantHi AnimationMode = 19
)

// IsTalk reports whether m is the plain talk mode or one of its variants.
func (m AnimationMode) IsTalk() bool {
	return m == ModeTalk || (m >= ModeTalkVariantLo && m <= ModeTalkVariantHi)
}

// NoFacing marks a track waypoint that keeps the heading the actor arrives with.
const NoFacing = -1

// TrackWaypoint is one entry appended to an actor's movement track.
type TrackWaypoint struct {
	Waypoint int
	Delay    time.Duration // wait at the waypoint before moving on
	Run      bool
	Facing   int // heading 0..1023, or NoFacing
}

// Waypoint builds a walking track entry without a forced facing.
func Waypoint(id int, delay time.Duration) TrackWaypoint {
	return TrackWaypoint{Waypoint: id, Delay: delay, Facing: NoFacing}
}

// TimerCount is the number of countdown timers each actor owns.
const TimerCount = 3
