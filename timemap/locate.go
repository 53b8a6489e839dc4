package timemap

import (
	"fmt"
	"math"
	"sort"
)

// Position is the score position of an audio timestamp.
type Position struct {
	AudioMs float64 `json:"audioMs"`

	// PreRoll is set before the first downbeat. PreRollMs is then the (negative)
	// distance to it and the measure fields are zero.
	PreRoll   bool    `json:"preRoll"`
	PreRollMs float64 `json:"preRollMs,omitempty"`

	MeasureIndex int `json:"measureIndex"`

	// Beat is the fractional beat within the measure, 0 at the downbeat.
	Beat float64 `json:"beat"`

	// Beyond is set past the end of the last measure, where MeasureIndex counts
	// virtual measures at the last measure's tempo.
	Beyond bool `json:"beyond"`
}

// BeatIndex returns the whole beat the position falls in.
func (p Position) BeatIndex() int {
	return int(math.Floor(p.Beat))
}

// IsDownbeat checks whether the position is within the first beat of its measure.
func (p Position) IsDownbeat() bool {
	return !p.PreRoll && p.BeatIndex() == 0
}

// Marker returns the position as "measure.beat", both counted from 1.
func (p Position) Marker() string {
	if p.PreRoll {
		return fmt.Sprintf("-%.3fs", -p.PreRollMs/1000)
	}
	return fmt.Sprintf("%d.%d", p.MeasureIndex+1, p.BeatIndex()+1)
}

// Locate finds the measure and beat playing at audioMs.
func (m *Map) Locate(audioMs float64) Position {
	if audioMs < m.offsetMs {
		return Position{AudioMs: audioMs, PreRoll: true, PreRollMs: audioMs - m.offsetMs}
	}
	if i := m.spanAt(audioMs); i >= 0 {
		s := m.spans[i]
		return Position{
			AudioMs:      audioMs,
			MeasureIndex: i,
			Beat:         (audioMs - s.StartMs) / s.BeatMs(),
		}
	}
	return m.extrapolate(audioMs)
}

// spanAt returns the index of the span containing audioMs, or -1.
func (m *Map) spanAt(audioMs float64) int {
	i := sort.Search(len(m.spans), func(i int) bool {
		return m.spans[i].EndMs > audioMs
	})
	if i == len(m.spans) || audioMs < m.spans[i].StartMs {
		return -1
	}
	return i
}

// extrapolate continues the last measure's meter and tempo past the end of the score.
func (m *Map) extrapolate(audioMs float64) Position {
	last := Span{
		Index:          -1,
		StartMs:        m.offsetMs,
		EndMs:          m.offsetMs,
		AutoDurationMs: defaultMeasureMs,
	}
	if n := len(m.spans); n > 0 {
		last = m.spans[n-1]
	}

	measures := (audioMs - last.EndMs) / last.AutoDurationMs
	whole := math.Floor(measures)
	return Position{
		AudioMs:      audioMs,
		MeasureIndex: last.Index + 1 + int(whole),
		Beat:         (measures - whole) * float64(last.BeatCount()),
		Beyond:       true,
	}
}
