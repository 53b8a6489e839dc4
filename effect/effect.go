// Package effect shapes the loudness of a click over time.
package effect

import (
	"time"

	"github.com/fogleman/ease"
)

// Envelope is an attack/decay gain curve: a linear rise to full gain over Attack, then
// an exponential fall over Decay that ends at about -60dB.
type Envelope struct {
	Attack time.Duration
	Decay  time.Duration
}

// DefaultEnvelope is a short percussive click.
func DefaultEnvelope() Envelope {
	return Envelope{
		Attack: 5 * time.Millisecond,
		Decay:  100 * time.Millisecond,
	}
}

// Length is how long the envelope sounds.
func (e Envelope) Length() time.Duration {
	return e.Attack + e.Decay
}

// Gain returns the envelope value, in [0, 1], at elapsed time since the click started.
func (e Envelope) Gain(elapsed time.Duration) float64 {
	switch {
	case elapsed < 0 || elapsed >= e.Length():
		return 0
	case elapsed < e.Attack:
		return ease.Linear(progress(elapsed, e.Attack))
	}
	// 1 - OutExpo(t) is 2^(-10t), which reaches 0.001 at t=1.
	return 1 - ease.OutExpo(progress(elapsed-e.Attack, e.Decay))
}

func progress(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 1
	}
	return float64(elapsed) / float64(total)
}
