package world

import (
	"time"

	"github.com/kasuganosora/actorai/game/ai"
)

// NoSet means the actor is not placed in any set.
const NoSet = -1

const (
	defaultFriendliness = 50
	minFriendliness     = 0
	maxFriendliness     = 100
)

// Timer is one countdown slot.
type Timer struct {
	Active bool          `json:"active"`
	Left   time.Duration `json:"left"`
}

// Track is an actor's movement track: a list of waypoints walked in order.
// Path finding is external; arriving at a waypoint is instantaneous and the
// per-entry delay is the only time a leg takes.
type Track struct {
	Entries []ai.TrackWaypoint `json:"entries"`
	Index   int                `json:"index"`
	Wait    time.Duration      `json:"wait"`
	Running bool               `json:"running"`
	Paused  bool               `json:"paused"`

	// gen changes whenever the track is flushed or restarted, so the engine
	// can tell a handler rebuilt the track under it.
	gen uint64
}

func (t *Track) restart() {
	t.Index = 0
	t.Wait = 0
	t.Paused = false
	t.Running = len(t.Entries) > 0
	t.gen++
}

func (t *Track) flush() {
	t.Entries = nil
	t.Index = 0
	t.Wait = 0
	t.Running = false
	t.Paused = false
	t.gen++
}

// Actor is the runtime record of one actor. Only the world mutates it.
type Actor struct {
	ID   ai.ActorID
	Name string

	Goal         int
	Set          int
	X, Y, Z      float64
	Facing       int
	Health       int
	MaxHealth    int
	Targetable   bool
	Invisible    bool
	Retired      bool
	InCombat     bool
	CombatTarget ai.ActorID
	Mode         ai.AnimationMode

	Friendliness map[ai.ActorID]int
	Clues        map[int]ai.ActorID // clue → actor it came from
	Timers       [ai.TimerCount]Timer
	Track        Track

	LastLine int // last dialogue line spoken, -1 when none

	// talking holds the mode to return to once the current line is over.
	talking  bool
	talkLeft time.Duration
	preTalk  ai.AnimationMode

	// goalNext is the latest goal requested while a GoalChanged dispatch for
	// this actor is running; goalDepth counts those dispatches.
	goalNext  int
	goalDepth int
	goalSeq   uint64
}

func newActor(id ai.ActorID) *Actor {
	return &Actor{
		ID:           id,
		Set:          NoSet,
		CombatTarget: ai.NoActor,
		Friendliness: make(map[ai.ActorID]int),
		Clues:        make(map[int]ai.ActorID),
		LastLine:     -1,
	}
}

func (a *Actor) friendliness(other ai.ActorID) int {
	if v, ok := a.Friendliness[other]; ok {
		return v
	}
	return defaultFriendliness
}

func clampFriendliness(v int) int {
	return min(max(v, minFriendliness), maxFriendliness)
}
