package score

import "fmt"

// InvalidTimeSignature is returned when a measure's meter cannot be timed.
type InvalidTimeSignature struct {
	Index         int
	TimeSignature TimeSignature
}

func (err InvalidTimeSignature) Error() string {
	return fmt.Sprintf("measure %d has an invalid time signature %d/%d", err.Index, err.TimeSignature.Num, err.TimeSignature.Den)
}

// InvalidTempo is returned when a measure sets a tempo that is not positive.
type InvalidTempo struct {
	Index int
	BPM   float64
}

func (err InvalidTempo) Error() string {
	return fmt.Sprintf("measure %d has an invalid tempo of %v bpm", err.Index, err.BPM)
}

// Validate checks the fields a loaded score must get right for the time map to be
// meaningful. It does not check structural invariants; Normalize repairs those.
func Validate(s Score) error {
	for i, m := range s.Measures {
		if !m.TimeSignature.Valid() {
			return InvalidTimeSignature{Index: i, TimeSignature: m.TimeSignature}
		}
		if m.Tempo != nil && !m.Tempo.Valid() {
			return InvalidTempo{Index: i, BPM: m.Tempo.BPM}
		}
	}
	return nil
}

// Normalize restores the structural invariants of a score read from outside: indexes
// match positions, there is at least one measure, every measure has an id and no marker
// points past the end of the score. A score that already holds them is returned
// unchanged.
func Normalize(s Score) Score {
	next := s.Clone()
	if len(next.Measures) == 0 {
		next.Measures = Default(1, DefaultBPM).Measures
	}
	for i := range next.Measures {
		if next.Measures[i].ID == "" {
			next.Measures[i].ID = NewMeasureID()
		}
	}
	renumber(next.Measures)

	markers := next.WarpMarkers[:0]
	for _, w := range next.WarpMarkers {
		if w.MeasureIndex < 0 || w.MeasureIndex > len(next.Measures) {
			continue
		}
		if w.ID == "" {
			w.ID = NewMarkerID()
		}
		markers = append(markers, w)
	}
	next.WarpMarkers = markers
	if next.OffsetMs < 0 {
		next.OffsetMs = 0
	}
	return next
}
