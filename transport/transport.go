// Package transport plays (or simulates) the audio the score is laid over and reports
// the playback position the metronome follows.
package transport

import (
	"math"
	"time"
)

// Transport is an audio playback engine.
type Transport interface {
	CurrentTimeMs() float64
	IsPlaying() bool
	Play()
	Pause()
	Seek(ms float64)

	// DurationMs is the length of the audio, or 0 when it is unknown.
	DurationMs() float64
}

func durationToMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}
