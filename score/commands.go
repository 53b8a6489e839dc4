package score

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Action labels recorded in the edit history.
const (
	LabelInsertMeasure       = "Insert measure"
	LabelRemoveMeasure       = "Remove measure"
	LabelRemoveMeasuresAfter = "Remove all following measures"
	LabelTimeSignature       = "Change time signature"
	LabelEditMeasure         = "Edit measure"
	LabelOffset              = "Change offset"
	LabelAddMarker           = "Add warp marker"
	LabelMoveMarker          = "Move warp marker"
	LabelRemoveMarker        = "Remove warp marker"
)

// Command is an edit of the score. Apply never modifies s; it returns the edited copy
// together with the label to record in the history. When the edit would break an
// invariant (removing the last measure, an out of range index, ...) Apply returns s
// unchanged and applied is false.
type Command interface {
	Apply(s Score) (next Score, label string, applied bool)
}

// InsertMeasure inserts a measure before position At, inheriting the time signature of
// the measure before it. Markers at or after At move one measure later.
type InsertMeasure struct {
	At int
}

func (c InsertMeasure) Apply(s Score) (Score, string, bool) {
	if c.At < 0 || c.At > len(s.Measures) {
		return s, LabelInsertMeasure, false
	}

	next := s.Clone()
	sig := CommonTime
	if c.At > 0 {
		sig = next.Measures[c.At-1].TimeSignature
	}
	next.Measures = slices.Insert(next.Measures, c.At, Measure{ID: NewMeasureID(), TimeSignature: sig})
	renumber(next.Measures)

	for i := range next.WarpMarkers {
		if next.WarpMarkers[i].MeasureIndex >= c.At {
			next.WarpMarkers[i].MeasureIndex++
		}
	}
	return next, LabelInsertMeasure, true
}

// AppendMeasures adds Count measures at the end of the score with the time signature
// of the current last measure.
type AppendMeasures struct {
	Count int
}

func (c AppendMeasures) Apply(s Score) (Score, string, bool) {
	label := fmt.Sprintf("Add %d measures", c.Count)
	if c.Count < 1 {
		return s, label, false
	}

	next := s.Clone()
	sig := CommonTime
	if n := len(next.Measures); n > 0 {
		sig = next.Measures[n-1].TimeSignature
	}
	for i := 0; i < c.Count; i++ {
		next.Measures = append(next.Measures, Measure{ID: NewMeasureID(), TimeSignature: sig})
	}
	renumber(next.Measures)
	return next, label, true
}

// RemoveMeasure deletes the measure at At together with the markers pinned to it.
type RemoveMeasure struct {
	At int
}

func (c RemoveMeasure) Apply(s Score) (Score, string, bool) {
	if len(s.Measures) <= 1 || c.At < 0 || c.At >= len(s.Measures) {
		return s, LabelRemoveMeasure, false
	}

	next := s.Clone()
	next.Measures = slices.Delete(next.Measures, c.At, c.At+1)
	renumber(next.Measures)

	markers := next.WarpMarkers[:0]
	for _, w := range next.WarpMarkers {
		if w.MeasureIndex == c.At {
			continue
		}
		if w.MeasureIndex > c.At {
			w.MeasureIndex--
		}
		markers = append(markers, w)
	}
	next.WarpMarkers = markers
	return next, LabelRemoveMeasure, true
}

// RemoveMeasuresAfter truncates the score to measures [0, At].
type RemoveMeasuresAfter struct {
	At int
}

func (c RemoveMeasuresAfter) Apply(s Score) (Score, string, bool) {
	if c.At < 0 || c.At >= len(s.Measures)-1 {
		return s, LabelRemoveMeasuresAfter, false
	}

	next := s.Clone()
	next.Measures = next.Measures[:c.At+1]

	markers := next.WarpMarkers[:0]
	for _, w := range next.WarpMarkers {
		if w.MeasureIndex <= c.At {
			markers = append(markers, w)
		}
	}
	next.WarpMarkers = markers
	return next, LabelRemoveMeasuresAfter, true
}

// UpdateTimeSignature sets the signature of measure From and of every following
// measure that shares From's previous signature, stopping at the first one that
// differs.
type UpdateTimeSignature struct {
	From          int
	TimeSignature TimeSignature
}

func (c UpdateTimeSignature) Apply(s Score) (Score, string, bool) {
	if c.From < 0 || c.From >= len(s.Measures) || !c.TimeSignature.Valid() {
		return s, LabelTimeSignature, false
	}
	old := s.Measures[c.From].TimeSignature
	if old == c.TimeSignature {
		return s, LabelTimeSignature, false
	}

	next := s.Clone()
	for i := c.From; i < len(next.Measures) && next.Measures[i].TimeSignature == old; i++ {
		next.Measures[i].TimeSignature = c.TimeSignature
	}
	return next, LabelTimeSignature, true
}

// MeasurePatch is a partial update of a measure. A nil pointer leaves the field as it
// is; the Remove flags delete optional fields, whose absence is meaningful (inherit the
// running tempo, no fermata).
type MeasurePatch struct {
	TimeSignature *TimeSignature

	Tempo       *TempoInfo
	RemoveTempo bool

	TempoChange       *TempoChange
	RemoveTempoChange bool

	FermataMs     *float64
	RemoveFermata bool

	Section     *string
	Annotations *[]string
}

func (p MeasurePatch) valid() bool {
	if p.TimeSignature != nil && !p.TimeSignature.Valid() {
		return false
	}
	if p.Tempo != nil && !p.Tempo.Valid() {
		return false
	}
	if p.FermataMs != nil && *p.FermataMs < 0 {
		return false
	}
	return true
}

func (p MeasurePatch) applyTo(m *Measure) {
	if p.TimeSignature != nil {
		m.TimeSignature = *p.TimeSignature
	}
	switch {
	case p.RemoveTempo:
		m.Tempo = nil
	case p.Tempo != nil:
		t := *p.Tempo
		m.Tempo = &t
	}
	switch {
	case p.RemoveTempoChange:
		m.TempoChange = nil
	case p.TempoChange != nil:
		tc := *p.TempoChange
		m.TempoChange = &tc
	}
	switch {
	case p.RemoveFermata:
		m.FermataMs = nil
	case p.FermataMs != nil:
		f := *p.FermataMs
		m.FermataMs = &f
	}
	if p.Section != nil {
		m.Section = *p.Section
	}
	if p.Annotations != nil {
		m.Annotations = slices.Clone(*p.Annotations)
	}
}

// UpdateMeasure merges Patch into the measure at At.
type UpdateMeasure struct {
	At    int
	Patch MeasurePatch
}

func (c UpdateMeasure) Apply(s Score) (Score, string, bool) {
	if c.At < 0 || c.At >= len(s.Measures) || !c.Patch.valid() {
		return s, LabelEditMeasure, false
	}

	next := s.Clone()
	c.Patch.applyTo(&next.Measures[c.At])
	return next, LabelEditMeasure, true
}

// SetOffset moves the downbeat of measure 0.
type SetOffset struct {
	OffsetMs float64
}

func (c SetOffset) Apply(s Score) (Score, string, bool) {
	if c.OffsetMs < 0 || c.OffsetMs == s.OffsetMs {
		return s, LabelOffset, false
	}
	next := s.Clone()
	next.OffsetMs = c.OffsetMs
	return next, LabelOffset, true
}

// AddWarpMarker attaches a marker. Marker.ID is generated when empty.
type AddWarpMarker struct {
	Marker WarpMarker
}

func (c AddWarpMarker) Apply(s Score) (Score, string, bool) {
	w := c.Marker
	if w.MeasureIndex < 0 || w.MeasureIndex > len(s.Measures) || w.BeatOffset < 0 || w.AudioTimeMs < 0 {
		return s, LabelAddMarker, false
	}
	if w.ID == "" {
		w.ID = NewMarkerID()
	}

	next := s.Clone()
	next.WarpMarkers = append(next.WarpMarkers, w)
	return next, LabelAddMarker, true
}

// MoveWarpMarker changes the audio time of the marker with the given id.
type MoveWarpMarker struct {
	ID          string
	AudioTimeMs float64
}

func (c MoveWarpMarker) Apply(s Score) (Score, string, bool) {
	i := s.MarkerByID(c.ID)
	if i < 0 || c.AudioTimeMs < 0 {
		return s, LabelMoveMarker, false
	}

	next := s.Clone()
	next.WarpMarkers[i].AudioTimeMs = c.AudioTimeMs
	return next, LabelMoveMarker, true
}

// RemoveWarpMarker deletes the marker with the given id.
type RemoveWarpMarker struct {
	ID string
}

func (c RemoveWarpMarker) Apply(s Score) (Score, string, bool) {
	i := s.MarkerByID(c.ID)
	if i < 0 {
		return s, LabelRemoveMarker, false
	}

	next := s.Clone()
	next.WarpMarkers = slices.Delete(next.WarpMarkers, i, i+1)
	return next, LabelRemoveMarker, true
}

// PinDownbeat anchors the downbeat of a measure at an audio time: measure 0 moves the
// offset, any other measure moves its existing downbeat marker or gets a new one.
type PinDownbeat struct {
	MeasureIndex int
	AudioTimeMs  float64
}

func (c PinDownbeat) Apply(s Score) (Score, string, bool) {
	if c.MeasureIndex == 0 {
		return SetOffset{OffsetMs: c.AudioTimeMs}.Apply(s)
	}
	if existing, ok := s.DownbeatMarkers()[c.MeasureIndex]; ok {
		return MoveWarpMarker{ID: existing.ID, AudioTimeMs: c.AudioTimeMs}.Apply(s)
	}
	return AddWarpMarker{Marker: WarpMarker{MeasureIndex: c.MeasureIndex, AudioTimeMs: c.AudioTimeMs}}.Apply(s)
}
