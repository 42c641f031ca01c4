package actors

import (
	"time"

	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/game/world"
)

// InformantGoal is the goal number space of a street informant.
type InformantGoal int

const (
	InformantIdle     InformantGoal = 0
	InformantTalking  InformantGoal = 1
	InformantCowering InformantGoal = 2
	InformantGone     InformantGoal = 599
)

type informantState int

const (
	infIdle informantState = iota
	infTalk
	infCower
)

const (
	informantTalkSlot = 0
	informantTalkTime = 2 * time.Second
	// friendliness thresholds toward the player
	informantTrusts   = 60
	informantDistrust = 40
)

// Informant hands the player a tip once it trusts them. Its trust moves with
// the clues the player collects in front of it.
type Informant struct {
	ai.Template
}

func NewInformant(id ai.ActorID) *Informant {
	return &Informant{Template: *ai.NewTemplate(id)}
}

func (n *Informant) goal(w ai.World) InformantGoal { return InformantGoal(w.Goal(n.Actor)) }

func (n *Informant) setGoal(w ai.World, g InformantGoal) { w.SetGoal(n.Actor, int(g)) }

func (n *Informant) ClickedByPlayer(w ai.World) {
	if n.goal(w) != InformantIdle {
		return
	}
	player := w.PlayerActor()
	w.VariableIncrement(VarInformantTalks, 1)

	switch f := w.Friendliness(n.Actor, player); {
	case f >= informantTrusts:
		w.Say(n.Actor, LineInformantFriendly, ai.ModeTalk)
		if !w.ClueQuery(player, ClueInformantTip) {
			w.ClueAcquire(player, ClueInformantTip, n.Actor)
			w.FlagSet(FlagInformantTipGiven)
		}
	case f < informantDistrust:
		w.Say(n.Actor, LineInformantHostile, ai.ModeTalk)
	default:
		w.Say(n.Actor, LineInformantNeutral, ai.ModeTalk)
	}
	n.setGoal(w, InformantTalking)
}

func (n *Informant) ReceivedClue(w ai.World, clue int, from ai.ActorID) {
	if clue == ClueDetectiveKind && from == w.PlayerActor() {
		w.ModifyFriendliness(n.Actor, from, 10)
	}
}

func (n *Informant) OtherAgentEnteredThisSet(w ai.World, other ai.ActorID) {
	if other != w.PlayerActor() || w.FlagQuery(FlagInformantGreeted) {
		return
	}
	w.FlagSet(FlagInformantGreeted)
	w.Say(n.Actor, LineInformantGreeting, ai.ModeTalk)
}

func (n *Informant) OtherAgentEnteredCombatMode(w ai.World, _ ai.ActorID, combat bool) {
	switch g := n.goal(w); {
	case combat && g != InformantGone && g != InformantCowering:
		n.setGoal(w, InformantCowering)
	case !combat && g == InformantCowering:
		n.setGoal(w, InformantIdle)
	}
}

func (n *Informant) TimerExpired(w ai.World, timer int) {
	if timer == informantTalkSlot && n.goal(w) == InformantTalking {
		n.setGoal(w, InformantIdle)
	}
}

func (n *Informant) Retired(w ai.World, _ ai.ActorID) {
	n.setGoal(w, InformantGone)
}

// GetFriendlinessModifierIfGetsClue depends only on the clue.
func (n *Informant) GetFriendlinessModifierIfGetsClue(w ai.World, other ai.ActorID, clue int) int {
	if other != w.PlayerActor() {
		return 0
	}
	switch clue {
	case ClueDetectiveKind, ClueHelpedSuspect:
		return 5
	case ClueRetiredSuspect:
		return -5
	case ClueDetectiveAnnoys:
		return -3
	default:
		return 0
	}
}

func (n *Informant) GoalChanged(w ai.World, _, newGoal int) bool {
	id := n.Actor
	switch InformantGoal(newGoal) {
	case InformantIdle:
		w.TimerReset(id, informantTalkSlot)
		w.ChangeAnimationMode(id, ai.ModeIdle)
	case InformantTalking:
		w.TimerStart(id, informantTalkSlot, informantTalkTime)
	case InformantCowering:
		w.TimerReset(id, informantTalkSlot)
		w.ChangeAnimationMode(id, ai.ModeSit)
	case InformantGone:
		w.TimerReset(id, informantTalkSlot)
		w.PutInSet(id, world.NoSet)
	default:
		return false
	}
	return true
}

func (n *Informant) UpdateAnimation(w ai.World) (int, int, bool) {
	switch informantState(n.Anim.State) {
	case infIdle:
		return loop(&n.Anim, w, AnimInformantIdle)
	case infTalk:
		return loop(&n.Anim, w, AnimInformantTalk)
	case infCower:
		return loop(&n.Anim, w, AnimInformantCower)
	default:
		return 0, n.Anim.Frame, false
	}
}

func (n *Informant) ChangeAnimationMode(_ ai.World, mode ai.AnimationMode) bool {
	switch {
	case mode == ai.ModeIdle:
		n.Anim.Set(int(infIdle), 0)
	case mode.IsTalk():
		n.Anim.Set(int(infTalk), 0)
	case mode == ai.ModeSit:
		n.Anim.Set(int(infCower), 0)
	default:
		return false
	}
	return true
}

var _ ai.Script = (*Informant)(nil)
