package actors

import (
	"time"

	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/game/world"
)

// ReplicantGoal is the goal number space of a hunted replicant.
type ReplicantGoal int

const (
	ReplicantHidden   ReplicantGoal = 0
	ReplicantPatrol   ReplicantGoal = 1
	ReplicantFlee     ReplicantGoal = 2
	ReplicantCornered ReplicantGoal = 3
	ReplicantGone     ReplicantGoal = 599
)

// Waypoints the replicant wanders between, and the one it escapes to.
var replicantRoute = []int{60, 61, 62, 63}

const WaypointReplicantEscape = 64

type replicantState int

const (
	repIdle replicantState = iota
	repWalk
	repRun
	repCombatIdle
	repHit
	repDie
)

const (
	replicantPatrolSlot   = 0
	replicantPatrolPeriod = 4 * time.Second
	replicantWaypointStop = 500 * time.Millisecond
	// replicantWary is the friendliness toward the player under which the
	// replicant runs as soon as it sees them.
	replicantWary = 30
)

// Replicant wanders between random waypoints on a timer, runs from an
// unfriendly player and goes down for good when retired.
type Replicant struct {
	ai.Template

	tree Tree
}

func NewReplicant(id ai.ActorID) *Replicant {
	r := &Replicant{Template: *ai.NewTemplate(id)}
	r.tree = Tree{Root: &Selector{Children: []Node{
		&Sequence{Children: []Node{
			goalIs(int(ReplicantHidden)),
			flagIs(FlagReplicantsActive),
			setGoal(int(ReplicantPatrol)),
		}},
		&Sequence{Children: []Node{
			goalIs(int(ReplicantPatrol)),
			Condition(func(ctx *TickContext) bool {
				w := ctx.World
				player := w.PlayerActor()
				return w.SetOf(ctx.Self) != world.NoSet &&
					w.SetOf(ctx.Self) == w.PlayerSet() &&
					w.Friendliness(ctx.Self, player) < replicantWary
			}),
			setGoal(int(ReplicantFlee)),
		}},
	}}}
	return r
}

func (r *Replicant) goal(w ai.World) ReplicantGoal { return ReplicantGoal(w.Goal(r.Actor)) }

func (r *Replicant) setGoal(w ai.World, g ReplicantGoal) { w.SetGoal(r.Actor, int(g)) }

func (r *Replicant) Update(w ai.World) bool {
	return r.tree.Run(w, r.Actor)
}

// wander sends the replicant to a random waypoint of its route.
func (r *Replicant) wander(w ai.World) {
	next := replicantRoute[w.Random(0, len(replicantRoute)-1)]
	w.TrackFlush(r.Actor)
	w.TrackAppend(r.Actor, ai.Waypoint(next, replicantWaypointStop))
	w.TrackRepeat(r.Actor)
}

func (r *Replicant) TimerExpired(w ai.World, timer int) {
	if timer != replicantPatrolSlot || r.goal(w) != ReplicantPatrol {
		return
	}
	r.wander(w)
	w.TimerStart(r.Actor, replicantPatrolSlot, replicantPatrolPeriod)
}

func (r *Replicant) CompletedMovementTrack(w ai.World) {
	if r.goal(w) == ReplicantFlee {
		r.setGoal(w, ReplicantHidden)
	}
}

func (r *Replicant) ShotAtAndMissed(w ai.World) {
	if r.goal(w) == ReplicantPatrol {
		r.setGoal(w, ReplicantCornered)
	}
}

// ShotAtAndHit never fights back: the replicant drops out of reach and runs.
func (r *Replicant) ShotAtAndHit(w ai.World) bool {
	w.SetTargetable(r.Actor, false)
	if g := r.goal(w); g != ReplicantGone && g != ReplicantFlee {
		r.setGoal(w, ReplicantFlee)
	}
	return false
}

func (r *Replicant) Retired(w ai.World, _ ai.ActorID) {
	w.VariableDecrement(VarReplicantsRemaining, 1)
	r.setGoal(w, ReplicantGone)
}

func (r *Replicant) FledCombat(w ai.World) {
	r.setGoal(w, ReplicantFlee)
}

func (r *Replicant) GetFriendlinessModifierIfGetsClue(w ai.World, other ai.ActorID, clue int) int {
	if other != w.PlayerActor() {
		return 0
	}
	switch clue {
	case ClueRetiredSuspect:
		return -10
	case ClueHelpedSuspect, ClueLetSuspectEscape:
		return 8
	default:
		return 0
	}
}

func (r *Replicant) GoalChanged(w ai.World, _, newGoal int) bool {
	id := r.Actor
	switch ReplicantGoal(newGoal) {
	case ReplicantHidden:
		w.TimerReset(id, replicantPatrolSlot)
		w.TrackFlush(id)
		w.ChangeAnimationMode(id, ai.ModeIdle)
	case ReplicantPatrol:
		r.wander(w)
		w.TimerStart(id, replicantPatrolSlot, replicantPatrolPeriod)
		w.ChangeAnimationMode(id, ai.ModeWalk)
	case ReplicantFlee:
		w.TimerReset(id, replicantPatrolSlot)
		w.CombatModeOff(id)
		w.TrackFlush(id)
		w.TrackAppend(id, ai.TrackWaypoint{Waypoint: WaypointReplicantEscape, Run: true, Facing: ai.NoFacing})
		w.TrackRepeat(id)
		w.ChangeAnimationMode(id, ai.ModeRun)
	case ReplicantCornered:
		w.TimerReset(id, replicantPatrolSlot)
		w.TrackFlush(id)
		w.CombatModeOn(id, w.PlayerActor())
	case ReplicantGone:
		w.TimerReset(id, replicantPatrolSlot)
		w.TrackFlush(id)
		w.PutInSet(id, world.NoSet)
	default:
		return false
	}
	return true
}

func (r *Replicant) UpdateAnimation(w ai.World) (int, int, bool) {
	switch replicantState(r.Anim.State) {
	case repIdle:
		return loop(&r.Anim, w, AnimReplicantIdle)
	case repWalk:
		return loop(&r.Anim, w, AnimReplicantWalk)
	case repRun:
		return loop(&r.Anim, w, AnimReplicantRun)
	case repCombatIdle:
		return loop(&r.Anim, w, AnimReplicantCombatIdle)
	case repHit:
		if once(&r.Anim, w, AnimReplicantHit) {
			r.Anim.Set(int(repRun), 0)
			return AnimReplicantRun, 0, true
		}
		return AnimReplicantHit, r.Anim.Frame, true
	case repDie:
		return hold(&r.Anim, w, AnimReplicantDie)
	default:
		return 0, r.Anim.Frame, false
	}
}

func (r *Replicant) ChangeAnimationMode(_ ai.World, mode ai.AnimationMode) bool {
	switch mode {
	case ai.ModeIdle:
		r.Anim.Set(int(repIdle), 0)
	case ai.ModeWalk, ai.ModeCombatWalk:
		r.Anim.Set(int(repWalk), 0)
	case ai.ModeRun, ai.ModeCombatRun:
		r.Anim.Set(int(repRun), 0)
	case ai.ModeCombatIdle, ai.ModeCombatAim:
		r.Anim.Set(int(repCombatIdle), 0)
	case ai.ModeHit, ai.ModeCombatHit:
		r.Anim.Set(int(repHit), 0)
	case ai.ModeDie, ai.ModeCombatDie:
		r.Anim.Set(int(repDie), 0)
	default:
		return false
	}
	return true
}

var _ ai.Script = (*Replicant)(nil)
