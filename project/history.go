package project

import (
	"github.com/robmorgan/beatwarp/history"
	"github.com/robmorgan/beatwarp/score"
)

// HistoryItem describes one entry of the undo history.
type HistoryItem struct {
	Label    string  `json:"label"`
	Steps    int     `json:"steps"`
	Measures int     `json:"measures"`
	Markers  int     `json:"markers"`
	OffsetMs float64 `json:"offsetMs"`
}

// HistoryView is the undo history in display order: Past oldest first, then the
// present, then Future in redo order. Each item carries the label of the action that
// produced its snapshot; the oldest past item has none. Steps is how many undos (or
// redos) reach an item.
type HistoryView struct {
	Past    []HistoryItem `json:"past"`
	Present HistoryItem   `json:"present"`
	Future  []HistoryItem `json:"future"`
}

func summarize(label string, steps int, s score.Score) HistoryItem {
	return HistoryItem{
		Label:    label,
		Steps:    steps,
		Measures: len(s.Measures),
		Markers:  len(s.WarpMarkers),
		OffsetMs: s.OffsetMs,
	}
}

// History returns the undo history of the session.
func (s *Session) History() HistoryView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return buildHistoryView(s.history)
}

func buildHistoryView(h *history.History[score.Score]) HistoryView {
	past := h.Past()
	future := h.Future()

	view := HistoryView{
		Past:   make([]HistoryItem, len(past)),
		Future: make([]HistoryItem, len(future)),
	}
	// A past entry holds the snapshot from before its action, so the label of the
	// action that produced a snapshot sits on the previous entry. The oldest snapshot
	// has no producing action left in the history.
	for i, e := range past {
		label := ""
		if i > 0 {
			label = past[i-1].Label
		}
		view.Past[i] = summarize(label, len(past)-i, e.Snapshot)
	}
	presentLabel := ""
	if n := len(past); n > 0 {
		presentLabel = past[n-1].Label
	}
	view.Present = summarize(presentLabel, 0, h.Present())
	for i, e := range future {
		view.Future[i] = summarize(e.Label, i+1, e.Snapshot)
	}
	return view
}

// PastLabels lists the undoable actions, oldest first.
func (s *Session) PastLabels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.PastLabels()
}

// FutureLabels lists the redoable actions, next redo first.
func (s *Session) FutureLabels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.FutureLabels()
}
