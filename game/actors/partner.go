package actors

import (
	"time"

	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/game/world"
)

// PartnerGoal is the goal number space of the detective's partner.
type PartnerGoal int

const (
	PartnerIdle       PartnerGoal = 0
	PartnerPatrol     PartnerGoal = 1
	PartnerPatrolBack PartnerGoal = 2
	PartnerReport     PartnerGoal = 3
	PartnerCombat     PartnerGoal = 4
	PartnerGone       PartnerGoal = 599
)

// Waypoints of the partner's patrol.
const (
	WaypointPartnerHome       = 50
	WaypointPartnerCorner     = 51
	WaypointPartnerCheckpoint = 52
	WaypointPartnerAlley      = 53
)

type partnerState int

const (
	parIdle partnerState = iota
	parWalk
	parRun
	parTalk
	parCombatIdle
	parCombatWalk
	parHit
	parDie
)

const (
	// partnerIdleFrames is how many Update polls the partner idles before
	// heading out once the patrol is enabled.
	partnerIdleFrames = 30
	partnerReportTime = 3 * time.Second
	partnerReportSlot = 1
)

// Partner patrols a fixed route, reports back to the player and joins any
// fight the player starts.
type Partner struct {
	ai.Template

	idlePolls int
	tree      Tree
}

func NewPartner(id ai.ActorID) *Partner {
	p := &Partner{Template: *ai.NewTemplate(id)}
	p.tree = Tree{Root: &Selector{Children: []Node{
		&Sequence{Children: []Node{
			Condition(func(ctx *TickContext) bool {
				return ctx.World.VariableQuery(VarEvidenceMissed) > 5 &&
					!ctx.World.ClueQuery(ctx.Self, ClueDetectiveStupid)
			}),
			Action(func(ctx *TickContext) {
				ctx.World.ClueAcquire(ctx.Self, ClueDetectiveStupid, ai.NoActor)
			}),
		}},
		&Sequence{Children: []Node{
			goalIs(int(PartnerIdle)),
			flagIs(FlagPatrolStart),
			Condition(func(*TickContext) bool {
				p.idlePolls++
				return p.idlePolls >= partnerIdleFrames
			}),
			setGoal(int(PartnerPatrol)),
		}},
	}}}
	return p
}

func (p *Partner) goal(w ai.World) PartnerGoal { return PartnerGoal(w.Goal(p.Actor)) }

func (p *Partner) setGoal(w ai.World, g PartnerGoal) { w.SetGoal(p.Actor, int(g)) }

func (p *Partner) Initialize(w ai.World) {
	p.Anim.Reset()
	p.idlePolls = 0
	w.ClueAcquire(p.Actor, ClueCrimeSceneNotes, ai.NoActor)
}

func (p *Partner) Update(w ai.World) bool {
	return p.tree.Run(w, p.Actor)
}

func (p *Partner) TimerExpired(w ai.World, timer int) {
	if timer != partnerReportSlot {
		return
	}
	w.TimerReset(p.Actor, partnerReportSlot)
	if p.goal(w) == PartnerReport {
		p.setGoal(w, PartnerIdle)
	}
}

func (p *Partner) CompletedMovementTrack(w ai.World) {
	switch p.goal(w) {
	case PartnerPatrol:
		p.setGoal(w, PartnerPatrolBack)
	case PartnerPatrolBack:
		if w.Random(1, 3) == 1 && w.ClueQuery(p.Actor, ClueCrimeSceneNotes) {
			w.ClueAcquire(w.PlayerActor(), ClueCrimeSceneNotes, p.Actor)
		}
		p.setGoal(w, PartnerReport)
	default:
	}
}

// ReachedMovementTrackWaypoint stops the patrol at the checkpoint when the
// alarm is up and switches to combat.
func (p *Partner) ReachedMovementTrackWaypoint(w ai.World, waypoint int) bool {
	if waypoint != WaypointPartnerCheckpoint {
		return true
	}
	if w.FlagQuery(FlagAlarm) {
		p.setGoal(w, PartnerCombat)
		return false
	}
	w.Say(p.Actor, LinePartnerCheckpoint, -1)
	return true
}

func (p *Partner) OtherAgentEnteredCombatMode(w ai.World, other ai.ActorID, combat bool) {
	if other != w.PlayerActor() {
		return
	}
	switch g := p.goal(w); {
	case combat && (g == PartnerIdle || g == PartnerPatrol || g == PartnerPatrolBack):
		p.setGoal(w, PartnerCombat)
	case !combat && g == PartnerCombat:
		p.setGoal(w, PartnerIdle)
	}
}

func (p *Partner) ShotAtAndHit(w ai.World) bool {
	if p.goal(w) != PartnerCombat {
		p.setGoal(w, PartnerCombat)
	}
	return true
}

func (p *Partner) Retired(w ai.World, _ ai.ActorID) {
	w.FlagSet(FlagPartnerRetired)
	if p.goal(w) != PartnerGone {
		w.ChangeAnimationMode(p.Actor, ai.ModeCombatDie)
		p.setGoal(w, PartnerGone)
	}
}

func (p *Partner) FledCombat(w ai.World) {
	p.setGoal(w, PartnerIdle)
}

func (p *Partner) GetFriendlinessModifierIfGetsClue(w ai.World, other ai.ActorID, clue int) int {
	if other != w.PlayerActor() {
		return 0
	}
	switch clue {
	case ClueRetiredSuspect, ClueDetectiveKind:
		return 5
	case ClueLetSuspectEscape:
		return -4
	case ClueHelpedSuspect:
		return -5
	case ClueDetectiveStupid:
		return -3
	case ClueDetectiveAnnoys:
		return -2
	default:
		return 0
	}
}

func (p *Partner) GoalChanged(w ai.World, _, newGoal int) bool {
	id := p.Actor
	switch PartnerGoal(newGoal) {
	case PartnerIdle:
		p.idlePolls = 0
		w.TrackFlush(id)
		w.CombatModeOff(id)
		w.ChangeAnimationMode(id, ai.ModeIdle)
	case PartnerPatrol:
		w.TrackFlush(id)
		w.TrackAppend(id, ai.Waypoint(WaypointPartnerHome, 0))
		w.TrackAppend(id, ai.Waypoint(WaypointPartnerCorner, time.Second))
		w.TrackAppend(id, ai.Waypoint(WaypointPartnerCheckpoint, 2*time.Second))
		w.TrackRepeat(id)
		w.ChangeAnimationMode(id, ai.ModeWalk)
	case PartnerPatrolBack:
		w.TrackFlush(id)
		w.TrackAppend(id, ai.Waypoint(WaypointPartnerAlley, time.Second))
		w.TrackAppend(id, ai.Waypoint(WaypointPartnerHome, 0))
		w.TrackRepeat(id)
		w.ChangeAnimationMode(id, ai.ModeWalk)
	case PartnerReport:
		w.TrackFlush(id)
		w.WalkToActor(id, w.PlayerActor())
		w.Say(id, LinePartnerReport, ai.ModeTalk)
		w.TimerStart(id, partnerReportSlot, partnerReportTime)
	case PartnerCombat:
		w.TrackFlush(id)
		w.CombatModeOn(id, ai.NoActor)
	case PartnerGone:
		w.TrackFlush(id)
		w.PutInSet(id, world.NoSet)
	default:
		return false
	}
	return true
}

func (p *Partner) UpdateAnimation(w ai.World) (int, int, bool) {
	switch partnerState(p.Anim.State) {
	case parIdle:
		return loop(&p.Anim, w, AnimPartnerIdle)
	case parWalk:
		return loop(&p.Anim, w, AnimPartnerWalk)
	case parRun:
		return loop(&p.Anim, w, AnimPartnerRun)
	case parTalk:
		return loop(&p.Anim, w, AnimPartnerTalk)
	case parCombatIdle:
		return loop(&p.Anim, w, AnimPartnerCombatIdle)
	case parCombatWalk:
		return loop(&p.Anim, w, AnimPartnerCombatWalk)
	case parHit:
		if once(&p.Anim, w, AnimPartnerHit) {
			if w.InCombat(p.Actor) {
				p.Anim.Set(int(parCombatIdle), 0)
				return AnimPartnerCombatIdle, 0, true
			}
			p.Anim.Set(int(parIdle), 0)
			return AnimPartnerIdle, 0, true
		}
		return AnimPartnerHit, p.Anim.Frame, true
	case parDie:
		return hold(&p.Anim, w, AnimPartnerDie)
	default:
		return 0, p.Anim.Frame, false
	}
}

// ChangeAnimationMode keeps the relative frame position when switching
// between idle and combat idle so the stance does not jump.
func (p *Partner) ChangeAnimationMode(w ai.World, mode ai.AnimationMode) bool {
	st := partnerState(p.Anim.State)
	if st == parDie {
		return true
	}
	switch {
	case mode == ai.ModeIdle:
		switch st {
		case parIdle:
		case parCombatIdle:
			p.Anim.Rescale(w.FrameCount(AnimPartnerCombatIdle), w.FrameCount(AnimPartnerIdle))
			p.Anim.State = int(parIdle)
		default:
			p.Anim.Set(int(parIdle), 0)
		}
	case mode == ai.ModeCombatIdle:
		switch st {
		case parCombatIdle:
		case parIdle:
			p.Anim.Rescale(w.FrameCount(AnimPartnerIdle), w.FrameCount(AnimPartnerCombatIdle))
			p.Anim.State = int(parCombatIdle)
		default:
			p.Anim.Set(int(parCombatIdle), 0)
		}
	case mode == ai.ModeWalk:
		if w.InCombat(p.Actor) {
			p.Anim.Set(int(parCombatWalk), 0)
		} else {
			p.Anim.Set(int(parWalk), 0)
		}
	case mode == ai.ModeCombatWalk:
		p.Anim.Set(int(parCombatWalk), 0)
	case mode == ai.ModeRun, mode == ai.ModeCombatRun:
		p.Anim.Set(int(parRun), 0)
	case mode.IsTalk():
		p.Anim.Set(int(parTalk), 0)
	case mode == ai.ModeHit, mode == ai.ModeCombatHit:
		p.Anim.Set(int(parHit), 0)
	case mode == ai.ModeDie, mode == ai.ModeCombatDie:
		p.Anim.Set(int(parDie), 0)
	default:
		return false
	}
	return true
}

var _ ai.Script = (*Partner)(nil)
