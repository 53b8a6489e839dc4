// Package timemap converts a score into audio time and back.
//
// Build folds the measures of a score left to right into a Map: one Span per measure
// with its resolved start and end in audio milliseconds. Every consumer of audio
// timing (timeline layout, cursor, metronome scheduling, MIDI export) reads the same
// Map, so they always agree on where a beat falls.
package timemap

import (
	"math"

	"github.com/robmorgan/beatwarp/score"
)

// defaultMeasureMs is used when a measure's tempo-derived length cannot be computed,
// which only happens for scores that were not validated. It is one bar of 4/4 at the
// default tempo.
const defaultMeasureMs = 2000.0

// Span is the resolved timing of one measure.
type Span struct {
	Index         int
	StartMs       float64
	EndMs         float64
	BPM           float64
	BaseNote      score.BaseNote
	TimeSignature score.TimeSignature

	// AutoDurationMs is the length derived from tempo and meter alone, without
	// fermata or warp markers.
	AutoDurationMs float64

	// Warped is set when the end of the span was fixed by the downbeat marker of the
	// following measure.
	Warped bool
}

// DurationMs returns the resolved length of the span.
func (s Span) DurationMs() float64 {
	return s.EndMs - s.StartMs
}

// BeatCount is the number of clicks in the measure.
func (s Span) BeatCount() int {
	if s.TimeSignature.Num < 1 {
		return 1
	}
	return s.TimeSignature.Num
}

// BeatMs is the distance between two clicks. Beats are spread evenly over the
// resolved span, so a warped measure has stretched or squeezed beats.
func (s Span) BeatMs() float64 {
	return s.DurationMs() / float64(s.BeatCount())
}

// BeatTimeMs returns the audio time of beat k of the measure.
func (s Span) BeatTimeMs(k int) float64 {
	if k == 0 {
		return s.StartMs
	}
	return s.StartMs + float64(k)*s.DurationMs()/float64(s.BeatCount())
}

// Map is the result of folding a score. It is immutable once built and safe to share
// between goroutines.
type Map struct {
	offsetMs float64
	spans    []Span
}

// accumulator is the running state threaded through the fold.
type accumulator struct {
	bpm             float64
	baseNote        score.BaseNote
	lastAbsoluteBPM float64
	cursorMs        float64
}

func newAccumulator(offsetMs float64) accumulator {
	return accumulator{
		bpm:             score.DefaultBPM,
		baseNote:        score.Quarter,
		lastAbsoluteBPM: score.DefaultBPM,
		cursorMs:        offsetMs,
	}
}

// enter applies the tempo state of a measure. "a tempo" is evaluated after an explicit
// tempo on the same measure, so the explicit tempo is what it returns to.
func (a accumulator) enter(m score.Measure) accumulator {
	if m.Tempo != nil && m.Tempo.Valid() {
		a.bpm = m.Tempo.BPM
		a.baseNote = m.Tempo.BaseNote
		a.lastAbsoluteBPM = m.Tempo.BPM
	}
	if m.HasAnnotation(score.ATempo) {
		a.bpm = a.lastAbsoluteBPM
	}
	return a
}

func (a accumulator) autoDurationMs(sig score.TimeSignature) float64 {
	d := sig.QuarterNotes() * score.MsPerQuarterNote(a.bpm, a.baseNote)
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return defaultMeasureMs
	}
	return d
}

// Build folds the score into a Map.
//
// Measure 0 starts at the score offset. A measure followed by a downbeat marker ends
// exactly at that marker; when the marker is at or before the measure's start the
// tempo-derived length is used instead. Other measures last their tempo-derived
// length plus any fermata.
func Build(s score.Score) *Map {
	markers := s.DownbeatMarkers()
	acc := newAccumulator(s.OffsetMs)

	spans := make([]Span, 0, len(s.Measures))
	for i, m := range s.Measures {
		acc = acc.enter(m)
		auto := acc.autoDurationMs(m.TimeSignature)

		span := Span{
			Index:          i,
			StartMs:        acc.cursorMs,
			BPM:            acc.bpm,
			BaseNote:       acc.baseNote,
			TimeSignature:  m.TimeSignature,
			AutoDurationMs: auto,
		}

		next, anchored := markers[i+1]
		switch {
		case anchored && next.AudioTimeMs-acc.cursorMs > 0:
			span.EndMs = next.AudioTimeMs
			span.Warped = true
		case anchored:
			span.EndMs = acc.cursorMs + auto
		default:
			span.EndMs = acc.cursorMs + auto + m.Fermata()
		}

		spans = append(spans, span)
		acc.cursorMs = span.EndMs
	}

	return &Map{offsetMs: s.OffsetMs, spans: spans}
}

// OffsetMs is the audio time of the first downbeat.
func (m *Map) OffsetMs() float64 {
	return m.offsetMs
}

// Len returns the number of measures.
func (m *Map) Len() int {
	return len(m.spans)
}

// Span returns the timing of measure i.
func (m *Map) Span(i int) (Span, bool) {
	if i < 0 || i >= len(m.spans) {
		return Span{}, false
	}
	return m.spans[i], true
}

// Spans returns a copy of every span in order.
func (m *Map) Spans() []Span {
	out := make([]Span, len(m.spans))
	copy(out, m.spans)
	return out
}

// EndMs is the audio time at which the last measure ends.
func (m *Map) EndMs() float64 {
	if len(m.spans) == 0 {
		return m.offsetMs
	}
	return m.spans[len(m.spans)-1].EndMs
}
