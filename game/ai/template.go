package ai

// Template is the script of an actor without bespoke behaviour. Every handler is a
// no-op; concrete scripts embed it and override what they need.
type Template struct {
	Actor ActorID
	Anim  Cursor
}

// NewTemplate returns the no-op script for id.
func NewTemplate(id ActorID) *Template {
	return &Template{Actor: id}
}

func (t *Template) Initialize(World)                                 { t.Anim.Reset() }
func (t *Template) Update(World) bool                                { return false }
func (t *Template) TimerExpired(World, int)                          {}
func (t *Template) CompletedMovementTrack(World)                     {}
func (t *Template) ReceivedClue(World, int, ActorID)                 {}
func (t *Template) ClickedByPlayer(World)                            {}
func (t *Template) EnteredSet(World, int)                            {}
func (t *Template) OtherAgentEnteredThisSet(World, ActorID)          {}
func (t *Template) OtherAgentExitedThisSet(World, ActorID)           {}
func (t *Template) OtherAgentEnteredCombatMode(World, ActorID, bool) {}
func (t *Template) ShotAtAndMissed(World)                            {}
func (t *Template) ShotAtAndHit(World) bool                          { return false }
func (t *Template) Retired(World, ActorID)                           {}
func (t *Template) GoalChanged(World, int, int) bool                 { return false }
func (t *Template) ChangeAnimationMode(World, AnimationMode) bool    { return false }
func (t *Template) ReachedMovementTrackWaypoint(World, int) bool     { return true }
func (t *Template) FledCombat(World)                                 {}

func (t *Template) GetFriendlinessModifierIfGetsClue(World, ActorID, int) int { return 0 }

func (t *Template) UpdateAnimation(World) (int, int, bool) {
	return 0, t.Anim.Frame, false
}

func (t *Template) QueryAnimationState() AnimationState {
	return t.Anim.Snapshot()
}

func (t *Template) SetAnimationState(st AnimationState) {
	t.Anim.Restore(st)
}

var _ Script = (*Template)(nil)
