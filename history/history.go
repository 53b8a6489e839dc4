// Package history keeps a linear undo/redo stack of immutable snapshots.
package history

// DefaultLimit is how many undo steps are kept when no limit is given.
const DefaultLimit = 100

// Entry is an undoable (or redoable) action: the snapshot to restore and the label of
// the action it reverts.
type Entry[T any] struct {
	Snapshot T
	Label    string
}

// History is a linear undo/redo stack. Committing after an undo drops the redo branch.
// It is not safe for concurrent use; owners serialise access.
type History[T any] struct {
	present T
	past    []Entry[T]
	future  []Entry[T]
	limit   int
}

// New starts a history at initial. A limit below 1 means DefaultLimit.
func New[T any](initial T, limit int) *History[T] {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &History[T]{present: initial, limit: limit}
}

// Present returns the current snapshot.
func (h *History[T]) Present() T {
	return h.present
}

// Commit makes snapshot the present, recording label as the action that produced it.
func (h *History[T]) Commit(snapshot T, label string) {
	h.past = append(h.past, Entry[T]{Snapshot: h.present, Label: label})
	if over := len(h.past) - h.limit; over > 0 {
		h.past = append(h.past[:0:0], h.past[over:]...)
	}
	h.present = snapshot
	h.future = nil
}

// Reset replaces the present and forgets all history, e.g. when a project is loaded.
func (h *History[T]) Reset(snapshot T) {
	h.present = snapshot
	h.past = nil
	h.future = nil
}

// Undo steps back up to steps actions and returns how many were undone.
func (h *History[T]) Undo(steps int) int {
	if steps < 1 {
		steps = 1
	}
	n := 0
	for ; n < steps && len(h.past) > 0; n++ {
		last := h.past[len(h.past)-1]
		h.past = h.past[:len(h.past)-1]
		h.future = append(h.future, Entry[T]{Snapshot: h.present, Label: last.Label})
		h.present = last.Snapshot
	}
	return n
}

// Redo re-applies up to steps undone actions and returns how many were redone.
func (h *History[T]) Redo(steps int) int {
	if steps < 1 {
		steps = 1
	}
	n := 0
	for ; n < steps && len(h.future) > 0; n++ {
		next := h.future[len(h.future)-1]
		h.future = h.future[:len(h.future)-1]
		h.past = append(h.past, Entry[T]{Snapshot: h.present, Label: next.Label})
		h.present = next.Snapshot
	}
	return n
}

// PastLabels lists the undoable actions, oldest first.
func (h *History[T]) PastLabels() []string {
	return labels(h.past, false)
}

// FutureLabels lists the redoable actions, next redo first.
func (h *History[T]) FutureLabels() []string {
	return labels(h.future, true)
}

// Past returns the undoable entries, oldest first.
func (h *History[T]) Past() []Entry[T] {
	out := make([]Entry[T], len(h.past))
	copy(out, h.past)
	return out
}

// Future returns the redoable entries, next redo first.
func (h *History[T]) Future() []Entry[T] {
	out := make([]Entry[T], len(h.future))
	for i := range h.future {
		out[i] = h.future[len(h.future)-1-i]
	}
	return out
}

func labels[T any](entries []Entry[T], reverse bool) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		if reverse {
			out[len(entries)-1-i] = e.Label
		} else {
			out[i] = e.Label
		}
	}
	return out
}
