package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor_AdvanceWraps(t *testing.T) {
	var c Cursor
	c.Set(2, 0)
	assert.False(t, c.Advance(3))
	assert.False(t, c.Advance(3))
	assert.Equal(t, 2, c.Frame)
	assert.True(t, c.Advance(3))
	assert.Equal(t, 0, c.Frame)
	assert.Equal(t, 2, c.State)
}

func TestCursor_AdvanceEmptyFrameset(t *testing.T) {
	c := Cursor{Frame: 5}
	assert.True(t, c.Advance(0))
	assert.Equal(t, 0, c.Frame)
}

func TestCursor_RewindWraps(t *testing.T) {
	var c Cursor
	assert.True(t, c.Rewind(8))
	assert.Equal(t, 7, c.Frame)
	assert.False(t, c.Rewind(8))
	assert.Equal(t, 6, c.Frame)

	var empty Cursor
	assert.True(t, empty.Rewind(0))
	assert.Equal(t, 0, empty.Frame)
}

func TestCursor_Rescale(t *testing.T) {
	c := Cursor{Frame: 5}
	c.Rescale(10, 20)
	assert.Equal(t, 10, c.Frame)

	c = Cursor{Frame: 19}
	c.Rescale(20, 4)
	assert.Equal(t, 3, c.Frame)

	c = Cursor{Frame: 3}
	c.Rescale(0, 4)
	assert.Equal(t, 0, c.Frame)
}

func TestCursor_PendingTransition(t *testing.T) {
	var c Cursor
	_, ok := c.TakePending()
	assert.False(t, ok)

	c.Defer(7, 309)
	st := c.Snapshot()
	assert.Equal(t, 7, st.StateNext)
	assert.Equal(t, 309, st.AnimationNext)

	tr, ok := c.TakePending()
	assert.True(t, ok)
	assert.Equal(t, Transition{State: 7, Animation: 309}, tr)
	_, ok = c.TakePending()
	assert.False(t, ok)
}

func TestCursor_SnapshotRestore(t *testing.T) {
	var c Cursor
	c.Set(4, 12)
	c.Defer(1, 20)
	st := c.Snapshot()

	var other Cursor
	other.Restore(st)
	assert.Equal(t, c.State, other.State)
	assert.Equal(t, c.Frame, other.Frame)
	assert.Equal(t, *c.Pending, *other.Pending)

	other.Restore(AnimationState{State: 1, Frame: 2, StateNext: 9, AnimationNext: NoTransition})
	assert.Nil(t, other.Pending)
	assert.Equal(t, NoTransition, other.Snapshot().StateNext)
}

func TestAnimationMode_IsTalk(t *testing.T) {
	assert.True(t, ModeTalk.IsTalk())
	assert.True(t, ModeTalkVariantLo.IsTalk())
	assert.True(t, AnimationMode(15).IsTalk())
	assert.True(t, ModeTalkVariantHi.IsTalk())
	assert.False(t, ModeIdle.IsTalk())
	assert.False(t, ModeCombatIdle.IsTalk())
	assert.False(t, AnimationMode(20).IsTalk())
}
