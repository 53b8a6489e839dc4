package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRedo(t *testing.T) {
	t.Parallel()

	h := New(0, 0)
	h.Commit(1, "one")
	h.Commit(2, "two")
	h.Commit(3, "three")
	assert.Equal(t, []string{"one", "two", "three"}, h.PastLabels())
	assert.Empty(t, h.FutureLabels())

	require.Equal(t, 1, h.Undo(1))
	assert.Equal(t, 2, h.Present())
	assert.Equal(t, []string{"one", "two"}, h.PastLabels())
	assert.Equal(t, []string{"three"}, h.FutureLabels())

	require.Equal(t, 2, h.Undo(5))
	assert.Equal(t, 0, h.Present())
	assert.Equal(t, []string{"one", "two", "three"}, h.FutureLabels())
	assert.Equal(t, 0, h.Undo(1), "nothing left to undo")

	require.Equal(t, 2, h.Redo(2))
	assert.Equal(t, 2, h.Present())
	assert.Equal(t, []string{"three"}, h.FutureLabels())

	future := h.Future()
	require.Len(t, future, 1)
	assert.Equal(t, Entry[int]{Snapshot: 3, Label: "three"}, future[0])
}

func TestCommitDropsRedoBranch(t *testing.T) {
	t.Parallel()

	h := New("a", 0)
	h.Commit("b", "to b")
	h.Undo(1)
	h.Commit("c", "to c")

	assert.Empty(t, h.FutureLabels())
	assert.Equal(t, []string{"to c"}, h.PastLabels())
	assert.Equal(t, 0, h.Redo(1))
	assert.Equal(t, "c", h.Present())
}

func TestLimit(t *testing.T) {
	t.Parallel()

	h := New(0, 2)
	for i := 1; i <= 5; i++ {
		h.Commit(i, "step")
	}
	assert.Len(t, h.PastLabels(), 2)
	assert.Equal(t, 2, h.Undo(10))
	assert.Equal(t, 3, h.Present())
}

func TestReset(t *testing.T) {
	t.Parallel()

	h := New(0, 0)
	h.Commit(1, "one")
	h.Undo(1)
	h.Reset(9)
	assert.Equal(t, 9, h.Present())
	assert.Empty(t, h.PastLabels())
	assert.Empty(t, h.FutureLabels())
}

func TestPastEntriesHoldPriorSnapshot(t *testing.T) {
	t.Parallel()

	h := New(10, 0)
	h.Commit(20, "add ten")
	past := h.Past()
	require.Len(t, past, 1)
	assert.Equal(t, 10, past[0].Snapshot)
	assert.Equal(t, "add ten", past[0].Label)
}
