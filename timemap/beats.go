package timemap

import (
	"math"
	"sort"
)

// Beat is one metronome click of the score.
type Beat struct {
	MeasureIndex int     `json:"measureIndex"`
	Index        int     `json:"beat"`
	TimeMs       float64 `json:"timeMs"`
}

// IsDownbeat checks whether the beat is the first of its measure.
func (b Beat) IsDownbeat() bool {
	return b.Index == 0
}

// NextBeat returns the first beat at or after t. ok is false once the score has no
// further beats.
func (m *Map) NextBeat(t float64) (Beat, bool) {
	return m.walk(t, false)
}

// BeatAfter returns the first beat strictly after t.
func (m *Map) BeatAfter(t float64) (Beat, bool) {
	return m.walk(t, true)
}

func (m *Map) walk(t float64, strict bool) (Beat, bool) {
	i := sort.Search(len(m.spans), func(i int) bool {
		return m.spans[i].EndMs > t
	})

	for ; i < len(m.spans); i++ {
		s := m.spans[i]
		k := 0
		if t > s.StartMs {
			// start one beat early so rounding never skips a beat landing on t
			k = int(math.Ceil((t-s.StartMs)/s.BeatMs())) - 1
			if k < 0 {
				k = 0
			}
		}
		for ; k < s.BeatCount(); k++ {
			at := s.BeatTimeMs(k)
			if at > t || (at == t && !strict) {
				return Beat{MeasureIndex: i, Index: k, TimeMs: at}, true
			}
		}
	}
	return Beat{}, false
}

// Beats lists the beats in [fromMs, toMs).
func (m *Map) Beats(fromMs, toMs float64) []Beat {
	var out []Beat
	b, ok := m.NextBeat(fromMs)
	for ok && b.TimeMs < toMs {
		out = append(out, b)
		b, ok = m.BeatAfter(b.TimeMs)
	}
	return out
}

// AllBeats lists every beat of the score.
func (m *Map) AllBeats() []Beat {
	return m.Beats(math.Inf(-1), math.Inf(1))
}
