package timemap

import "github.com/robmorgan/beatwarp/score"

// Zoom limits, in pixels per second of audio.
const (
	DefaultZoom = 100.0
	MinZoom     = 20.0
	MaxZoom     = 300.0
	ZoomStep    = 20.0
)

// MeasureLayout is a measure placed on a horizontal timeline where zoom is the number
// of pixels per second of audio.
type MeasureLayout struct {
	Index         int                 `json:"index"`
	StartMs       float64             `json:"startMs"`
	EndMs         float64             `json:"endMs"`
	BPM           float64             `json:"effectiveBpm"`
	BaseNote      score.BaseNote      `json:"effectiveBaseNote"`
	TimeSignature score.TimeSignature `json:"timeSignature"`
	Warped        bool                `json:"warped"`
	X             float64             `json:"x"`
	Width         float64             `json:"width"`
}

// ClampZoom keeps zoom inside [MinZoom, MaxZoom]. A zero zoom means DefaultZoom.
func ClampZoom(zoom float64) float64 {
	switch {
	case zoom == 0:
		return DefaultZoom
	case zoom < MinZoom:
		return MinZoom
	case zoom > MaxZoom:
		return MaxZoom
	}
	return zoom
}

// StepZoom moves zoom by steps of ZoomStep, staying inside [MinZoom, MaxZoom].
func StepZoom(zoom float64, steps int) float64 {
	z := ClampZoom(zoom) + float64(steps)*ZoomStep
	if z < MinZoom {
		return MinZoom
	}
	return ClampZoom(z)
}

// MsToPx converts an audio time to a timeline position.
func MsToPx(ms, zoom float64) float64 {
	return ms / 1000 * zoom
}

// PxToMs converts a timeline distance back to milliseconds.
func PxToMs(px, zoom float64) float64 {
	return px / zoom * 1000
}

// Layout places every measure on the timeline.
func (m *Map) Layout(zoom float64) []MeasureLayout {
	zoom = ClampZoom(zoom)
	out := make([]MeasureLayout, len(m.spans))
	for i, s := range m.spans {
		out[i] = MeasureLayout{
			Index:         s.Index,
			StartMs:       s.StartMs,
			EndMs:         s.EndMs,
			BPM:           s.BPM,
			BaseNote:      s.BaseNote,
			TimeSignature: s.TimeSignature,
			Warped:        s.Warped,
			X:             MsToPx(s.StartMs, zoom),
			Width:         MsToPx(s.DurationMs(), zoom),
		}
	}
	return out
}
