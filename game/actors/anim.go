package actors

import "github.com/kasuganosora/actorai/game/ai"

// Animation ids of the built-in scripts. Frame counts come from the catalog.
const (
	AnimDetectiveIdle        = 10
	AnimDetectiveWalk        = 11
	AnimDetectiveRun         = 12
	AnimDetectiveTalk        = 13
	AnimDetectiveTalkScratch = 14
	AnimDetectiveDodge       = 15
	AnimDetectiveHit         = 16
	AnimDetectiveDie         = 17
	AnimDetectiveCombatIdle  = 18
	AnimDetectiveLay         = 19

	AnimPartnerIdle       = 20
	AnimPartnerWalk       = 21
	AnimPartnerRun        = 22
	AnimPartnerTalk       = 23
	AnimPartnerCombatIdle = 24
	AnimPartnerCombatWalk = 25
	AnimPartnerHit        = 26
	AnimPartnerDie        = 27

	AnimReplicantIdle       = 30
	AnimReplicantWalk       = 31
	AnimReplicantRun        = 32
	AnimReplicantCombatIdle = 33
	AnimReplicantHit        = 34
	AnimReplicantDie        = 35

	AnimInformantIdle  = 40
	AnimInformantTalk  = 41
	AnimInformantCower = 42
)

// loop plays anim forward and wraps.
func loop(c *ai.Cursor, w ai.World, anim int) (int, int, bool) {
	c.Advance(w.FrameCount(anim))
	return anim, c.Frame, true
}

// once plays anim forward and reports whether it has just finished. The cursor
// is left on frame 0 when it wraps.
func once(c *ai.Cursor, w ai.World, anim int) bool {
	return c.Advance(w.FrameCount(anim))
}

// hold plays anim up to its last frame and stays there.
func hold(c *ai.Cursor, w ai.World, anim int) (int, int, bool) {
	last := w.FrameCount(anim) - 1
	if c.Frame < last {
		c.Frame++
	}
	return anim, max(c.Frame, 0), true
}

// takePending jumps to the staged transition, if any, and returns its animation.
func takePending(c *ai.Cursor) (int, bool) {
	t, ok := c.TakePending()
	if !ok {
		return 0, false
	}
	c.Set(t.State, 0)
	return t.Animation, true
}
