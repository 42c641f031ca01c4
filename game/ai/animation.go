package ai

// NoTransition fills StateNext and AnimationNext when no deferred transition is pending.
const NoTransition = -1

// AnimationState is the persisted layout of an animation cursor.
type AnimationState struct {
	State         int `json:"state"`
	Frame         int `json:"frame"`
	StateNext     int `json:"state_next"`
	AnimationNext int `json:"animation_next"`
}

// Transition is a deferred switch: once the current frameset finishes, jump to
// State and render Animation.
type Transition struct {
	State     int
	Animation int
}

// Cursor is a script's private animation position.
type Cursor struct {
	State   int
	Frame   int
	Pending *Transition
}

// Reset puts the cursor at state 0, frame 0 with nothing pending.
func (c *Cursor) Reset() {
	*c = Cursor{}
}

// Set jumps to state at frame and keeps any pending transition.
func (c *Cursor) Set(state, frame int) {
	c.State = state
	c.Frame = frame
}

// Defer stages a transition to be taken when the current frameset completes.
func (c *Cursor) Defer(state, animation int) {
	c.Pending = &Transition{State: state, Animation: animation}
}

// TakePending clears and returns the staged transition.
func (c *Cursor) TakePending() (Transition, bool) {
	if c.Pending == nil {
		return Transition{}, false
	}
	t := *c.Pending
	c.Pending = nil
	return t, true
}

// Advance moves one frame forward and wraps to 0 at count.
// It returns true when the frameset wrapped.
func (c *Cursor) Advance(count int) bool {
	c.Frame++
	if count <= 0 || c.Frame >= count {
		c.Frame = 0
		return true
	}
	return false
}

// Rewind moves one frame backward and wraps to count-1 below 0.
// It returns true when the frameset wrapped.
func (c *Cursor) Rewind(count int) bool {
	c.Frame--
	if c.Frame < 0 {
		c.Frame = max(count-1, 0)
		return true
	}
	return false
}

// Rescale maps the current frame from a frameset of length from onto one of
// length to, keeping the relative position (idle <-> combat idle).
func (c *Cursor) Rescale(from, to int) {
	if from <= 0 || to <= 0 {
		c.Frame = 0
		return
	}
	c.Frame = c.Frame * to / from
	if c.Frame >= to {
		c.Frame = to - 1
	}
}

// Snapshot flattens the cursor into its persisted layout.
func (c *Cursor) Snapshot() AnimationState {
	st := AnimationState{
		State:         c.State,
		Frame:         c.Frame,
		StateNext:     NoTransition,
		AnimationNext: NoTransition,
	}
	if c.Pending != nil {
		st.StateNext = c.Pending.State
		st.AnimationNext = c.Pending.Animation
	}
	return st
}

// Restore loads a persisted layout. A negative AnimationNext means nothing pending.
func (c *Cursor) Restore(st AnimationState) {
	c.State = st.State
	c.Frame = st.Frame
	c.Pending = nil
	if st.AnimationNext >= 0 {
		c.Pending = &Transition{State: st.StateNext, Animation: st.AnimationNext}
	}
}
