package actors

import "github.com/kasuganosora/actorai/game/ai"

// DetectiveGoal is the goal number space of the player character.
type DetectiveGoal int

const (
	DetectiveDefault    DetectiveGoal = 0
	DetectiveDodge      DetectiveGoal = 1
	DetectiveLayDrugged DetectiveGoal = 2
	DetectiveStandUp    DetectiveGoal = 3
	DetectiveGone       DetectiveGoal = 599
)

type detectiveState int

const (
	detIdle   detectiveState = iota
	detTalkIn                // waits one frame, then takes the staged talk animation
	detTalk
	detTalkScratch
	detWalk
	detRun
	detDodge
	detHit
	detDie
	detCombatIdle
	detLay
)

// getUpCounter is where the drugged countdown starts.
const getUpCounter = 12

// Detective drives the player character. Its idle animation ping-pongs over a
// small frame range for a while before playing the whole loop.
type Detective struct {
	ai.Template

	loopCounter int
	loopLength  int
	loopDir     int
	loopMin     int
	loopMax     int
	nextSound   int
}

func NewDetective(id ai.ActorID) *Detective {
	d := &Detective{Template: *ai.NewTemplate(id)}
	d.reset()
	return d
}

func (d *Detective) reset() {
	d.Anim.Reset()
	d.resetLoop(30)
	d.nextSound = -1
}

func (d *Detective) resetLoop(length int) {
	d.loopCounter = 0
	d.loopLength = length
	d.loopDir = 1
	d.loopMin = 0
	d.loopMax = 3
}

func (d *Detective) goal(w ai.World) DetectiveGoal { return DetectiveGoal(w.Goal(d.Actor)) }

func (d *Detective) setGoal(w ai.World, g DetectiveGoal) { w.SetGoal(d.Actor, int(g)) }

func (d *Detective) Initialize(w ai.World) {
	d.reset()
	d.setGoal(w, DetectiveDefault)
}

func (d *Detective) Update(w ai.World) bool {
	if d.nextSound != -1 {
		w.PlaySound(d.nextSound, 100)
		d.nextSound = -1
	}

	switch d.goal(w) {
	case DetectiveLayDrugged:
		n := w.VariableQuery(VarGetUpCounter)
		if n > 0 && w.Random(1, 2) == 1 {
			w.VariableDecrement(VarGetUpCounter, 1)
			n--
		}
		if n <= 0 {
			d.setGoal(w, DetectiveStandUp)
			return true
		}
	case DetectiveStandUp:
		d.setGoal(w, DetectiveDefault)
		w.ChangeAnimationMode(d.Actor, ai.ModeIdle)
		return true
	default:
	}
	return false
}

func (d *Detective) ReceivedClue(w ai.World, _ int, _ ai.ActorID) {
	w.VariableIncrement(VarEvidenceFound, 1)
}

func (d *Detective) ShotAtAndMissed(w ai.World) {
	if d.goal(w) == DetectiveDefault {
		d.setGoal(w, DetectiveDodge)
	}
}

func (d *Detective) ShotAtAndHit(w ai.World) bool {
	mode := ai.ModeHit
	if w.InCombat(d.Actor) {
		mode = ai.ModeCombatHit
	}
	w.ChangeAnimationMode(d.Actor, mode)
	return false
}

func (d *Detective) Retired(w ai.World, _ ai.ActorID) {
	d.setGoal(w, DetectiveGone)
}

func (d *Detective) GoalChanged(w ai.World, _, newGoal int) bool {
	switch DetectiveGoal(newGoal) {
	case DetectiveDefault:
		return true
	case DetectiveDodge:
		d.Anim.Set(int(detDodge), 0)
		return true
	case DetectiveLayDrugged:
		w.VariableSet(VarGetUpCounter, getUpCounter)
		d.Anim.Set(int(detLay), 0)
		return true
	case DetectiveStandUp:
		d.nextSound = SoundGetUp
		return true
	case DetectiveGone:
		w.TrackFlush(d.Actor)
		w.SetInvisible(d.Actor, true)
		return true
	default:
		return false
	}
}

func (d *Detective) UpdateAnimation(w ai.World) (int, int, bool) {
	switch st := detectiveState(d.Anim.State); st {
	case detIdle:
		return d.idleFrame(w)

	case detTalkIn:
		if anim, ok := takePending(&d.Anim); ok {
			return anim, 0, true
		}
		d.Anim.Set(int(detTalk), 0)
		return AnimDetectiveTalk, 0, true

	case detTalk, detTalkScratch:
		if w.FlagQuery(FlagDetectiveEndTalk) && d.Anim.Frame <= 4 {
			w.FlagReset(FlagDetectiveEndTalk)
			d.Anim.Set(int(detIdle), 0)
			return AnimDetectiveIdle, 0, true
		}
		anim := AnimDetectiveTalk
		if st == detTalkScratch {
			anim = AnimDetectiveTalkScratch
		}
		if once(&d.Anim, w, anim) && st == detTalkScratch {
			d.Anim.Set(int(detTalk), 0)
			return AnimDetectiveTalk, 0, true
		}
		return anim, d.Anim.Frame, true

	case detWalk:
		return loop(&d.Anim, w, AnimDetectiveWalk)
	case detRun:
		return loop(&d.Anim, w, AnimDetectiveRun)
	case detCombatIdle:
		return loop(&d.Anim, w, AnimDetectiveCombatIdle)

	case detDodge:
		if once(&d.Anim, w, AnimDetectiveDodge) {
			d.Anim.Set(int(detIdle), 0)
			if d.goal(w) == DetectiveDodge {
				d.setGoal(w, DetectiveDefault)
			}
			return AnimDetectiveIdle, 0, true
		}
		return AnimDetectiveDodge, d.Anim.Frame, true

	case detHit:
		if once(&d.Anim, w, AnimDetectiveHit) {
			if w.InCombat(d.Actor) {
				d.Anim.Set(int(detCombatIdle), 0)
				return AnimDetectiveCombatIdle, 0, true
			}
			d.Anim.Set(int(detIdle), 0)
			return AnimDetectiveIdle, 0, true
		}
		return AnimDetectiveHit, d.Anim.Frame, true

	case detDie:
		return hold(&d.Anim, w, AnimDetectiveDie)
	case detLay:
		return hold(&d.Anim, w, AnimDetectiveLay)

	default:
		return 0, d.Anim.Frame, false
	}
}

// idleFrame ping-pongs between loopMin and loopMax for loopLength frames, then
// plays the idle loop through. At the end of the loop it sometimes starts a
// new ping-pong of random length.
func (d *Detective) idleFrame(w ai.World) (int, int, bool) {
	count := w.FrameCount(AnimDetectiveIdle)
	f := &d.Anim.Frame
	if d.loopCounter < d.loopLength {
		*f += d.loopDir
		if *f > d.loopMax {
			*f = d.loopMax
			d.loopDir = -1
		} else if *f < d.loopMin {
			*f = d.loopMin
			d.loopDir = 1
		}
		d.loopCounter++
	} else {
		*f++
		if *f >= count {
			*f = 0
			if w.Random(0, 2) != 0 {
				d.resetLoop(w.Random(0, 45))
			}
		}
	}
	if count > 0 && *f >= count {
		*f = count - 1
	}
	return AnimDetectiveIdle, max(*f, 0), true
}

func (d *Detective) ChangeAnimationMode(w ai.World, mode ai.AnimationMode) bool {
	st := detectiveState(d.Anim.State)
	switch {
	case mode == ai.ModeIdle:
		switch st {
		case detIdle, detDie:
		case detTalkIn, detTalk, detTalkScratch:
			w.FlagSet(FlagDetectiveEndTalk)
			d.resetLoop(30)
		case detCombatIdle:
			d.Anim.Rescale(w.FrameCount(AnimDetectiveCombatIdle), w.FrameCount(AnimDetectiveIdle))
			d.Anim.State = int(detIdle)
			d.loopLength = 0
		default:
			d.Anim.Set(int(detIdle), 0)
			d.loopLength = 0
		}

	case mode.IsTalk():
		next, anim := detTalk, AnimDetectiveTalk
		if mode != ai.ModeTalk {
			next, anim = detTalkScratch, AnimDetectiveTalkScratch
		}
		w.FlagReset(FlagDetectiveEndTalk)
		if st == detIdle {
			d.Anim.Set(int(detTalkIn), d.Anim.Frame)
			d.Anim.Defer(int(next), anim)
		} else {
			d.Anim.Set(int(next), 0)
		}

	case mode == ai.ModeWalk:
		d.Anim.Set(int(detWalk), 0)
	case mode == ai.ModeRun:
		d.Anim.Set(int(detRun), 0)
	case mode == ai.ModeCombatIdle:
		if st == detIdle {
			d.Anim.Rescale(w.FrameCount(AnimDetectiveIdle), w.FrameCount(AnimDetectiveCombatIdle))
			d.Anim.State = int(detCombatIdle)
		} else {
			d.Anim.Set(int(detCombatIdle), 0)
		}
	case mode == ai.ModeDodge:
		d.Anim.Set(int(detDodge), 0)
	case mode == ai.ModeHit, mode == ai.ModeCombatHit:
		d.Anim.Set(int(detHit), 0)
	case mode == ai.ModeDie, mode == ai.ModeCombatDie:
		d.Anim.Set(int(detDie), 0)
	default:
		return false
	}
	return true
}

var _ ai.Script = (*Detective)(nil)
