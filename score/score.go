package score

import (
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// ATempo is the annotation that returns playback to the last explicitly set tempo.
const ATempo = "a tempo"

// TimeSignature is the meter of a measure, e.g. 6/8.
type TimeSignature struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

// CommonTime is 4/4, used whenever a measure has no neighbour to inherit from.
var CommonTime = TimeSignature{Num: 4, Den: 4}

// QuarterNotes returns the length of the measure in quarter notes.
func (ts TimeSignature) QuarterNotes() float64 {
	if ts.Den <= 0 {
		return float64(ts.Num)
	}
	return float64(ts.Num) * (4.0 / float64(ts.Den))
}

// Valid reports whether the numerator is positive and the denominator is 2, 4, 8 or 16.
func (ts TimeSignature) Valid() bool {
	if ts.Num < 1 {
		return false
	}
	switch ts.Den {
	case 2, 4, 8, 16:
		return true
	}
	return false
}

// TempoChange describes a ritardando or accelerando over a measure. It is stored and
// round-tripped but does not take part in duration computation.
type TempoChange struct {
	Type      RampType `json:"type"`
	TargetBPM float64  `json:"targetBpm"`
}

type RampType string

const (
	Ritardando  RampType = "rit."
	Accelerando RampType = "accel."
)

// Measure is one bar of the score.
type Measure struct {
	ID            string        `json:"id"`
	Index         int           `json:"index"`
	TimeSignature TimeSignature `json:"timeSignature"`

	// Tempo is only set on the measure where a tempo change starts.
	Tempo       *TempoInfo   `json:"tempo,omitempty"`
	TempoChange *TempoChange `json:"tempoChange,omitempty"`

	// FermataMs is extra time added to the measure's natural length.
	FermataMs *float64 `json:"fermataDurationMs,omitempty"`

	Section     string   `json:"section,omitempty"`
	Annotations []string `json:"annotations,omitempty"`
}

// HasAnnotation reports whether the measure carries the given tag.
func (m Measure) HasAnnotation(tag string) bool {
	return slices.Contains(m.Annotations, tag)
}

// Fermata returns the fermata extension in ms, or 0 when there is none.
func (m Measure) Fermata() float64 {
	if m.FermataMs == nil || *m.FermataMs < 0 {
		return 0
	}
	return *m.FermataMs
}

func (m Measure) clone() Measure {
	out := m
	if m.Tempo != nil {
		t := *m.Tempo
		out.Tempo = &t
	}
	if m.TempoChange != nil {
		tc := *m.TempoChange
		out.TempoChange = &tc
	}
	if m.FermataMs != nil {
		f := *m.FermataMs
		out.FermataMs = &f
	}
	out.Annotations = slices.Clone(m.Annotations)
	return out
}

// WarpMarker pins a beat of a measure to an audio timestamp. Only downbeat markers
// (BeatOffset 0) affect the time map.
type WarpMarker struct {
	ID           string  `json:"id"`
	MeasureIndex int     `json:"measureIndex"`
	BeatOffset   int     `json:"beatOffset"`
	AudioTimeMs  float64 `json:"audioTimeMs"`
}

// IsDownbeat reports whether the marker anchors a measure's first beat.
func (w WarpMarker) IsDownbeat() bool {
	return w.BeatOffset == 0
}

// Score is one immutable version of the score model. Commands never modify a Score in
// place; they return a new one.
type Score struct {
	OffsetMs    float64
	Measures    []Measure
	WarpMarkers []WarpMarker
}

// Clone returns a deep copy of the score.
func (s Score) Clone() Score {
	out := Score{
		OffsetMs:    s.OffsetMs,
		Measures:    make([]Measure, len(s.Measures)),
		WarpMarkers: slices.Clone(s.WarpMarkers),
	}
	for i, m := range s.Measures {
		out.Measures[i] = m.clone()
	}
	return out
}

// DownbeatMarkers maps measure index to its downbeat marker. When several downbeat
// markers share an index the last one wins.
func (s Score) DownbeatMarkers() map[int]WarpMarker {
	out := make(map[int]WarpMarker, len(s.WarpMarkers))
	for _, w := range s.WarpMarkers {
		if w.IsDownbeat() {
			out[w.MeasureIndex] = w
		}
	}
	return out
}

// MarkerByID returns the position of the marker with the given id, or -1.
func (s Score) MarkerByID(id string) int {
	return slices.IndexFunc(s.WarpMarkers, func(w WarpMarker) bool { return w.ID == id })
}

// NewMeasureID generates an id for a freshly created measure.
func NewMeasureID() string {
	return "m_" + uuid.NewString()
}

// NewMarkerID generates an id for a freshly created warp marker.
func NewMarkerID() string {
	return "warp_" + uuid.NewString()
}

// Default builds the score a new project starts with: count measures of 4/4 with a
// quarter = bpm tempo on the first measure.
func Default(count int, bpm float64) Score {
	if count < 1 {
		count = 1
	}
	s := Score{Measures: make([]Measure, count)}
	for i := range s.Measures {
		s.Measures[i] = Measure{
			ID:            NewMeasureID(),
			Index:         i,
			TimeSignature: CommonTime,
		}
	}
	s.Measures[0].Tempo = &TempoInfo{BaseNote: Quarter, BPM: bpm}
	return s
}

func renumber(measures []Measure) {
	for i := range measures {
		measures[i].Index = i
	}
}
