// Package click holds the outputs metronome clicks are rendered on.
package click

import (
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"

	"github.com/robmorgan/beatwarp/effect"
)

// voice is one scheduled click, positioned in samples of the synth's output.
type voice struct {
	start  int
	freq   float64
	volume float64
}

// Synth is a beep.Streamer that renders sine clicks at sample-accurate positions. Its
// output clock is the number of samples streamed so far, so it must be played
// continuously (it streams silence between clicks).
type Synth struct {
	mu sync.Mutex

	rate       beep.SampleRate
	env        effect.Envelope
	downbeatHz float64
	beatHz     float64

	pos    int
	voices []voice
}

// NewSynth creates a synth with the given pitches for downbeats and other beats.
func NewSynth(rate beep.SampleRate, env effect.Envelope, downbeatHz, beatHz float64) *Synth {
	return &Synth{
		rate:       rate,
		env:        env,
		downbeatHz: downbeatHz,
		beatHz:     beatHz,
	}
}

// OutputTime is how much audio the synth has produced.
func (s *Synth) OutputTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate.D(s.pos)
}

// ScheduleClick queues a click at an output time. Clicks in the past start at once.
func (s *Synth) ScheduleClick(at time.Duration, downbeat bool, volume float64) {
	freq := s.beatHz
	if downbeat {
		freq = s.downbeatHz
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.rate.N(at)
	if start < s.pos {
		start = s.pos
	}
	s.voices = append(s.voices, voice{start: start, freq: freq, volume: volume})
}

// Pending returns the number of clicks that have not finished sounding.
func (s *Synth) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.voices)
}

func (s *Synth) Stream(samples [][2]float64) (n int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	length := s.rate.N(s.env.Length())
	for i := range samples {
		t := s.pos + i
		var v float64
		for _, vc := range s.voices {
			offset := t - vc.start
			if offset < 0 || offset >= length {
				continue
			}
			phase := 2 * math.Pi * vc.freq * float64(offset) / float64(s.rate)
			v += math.Sin(phase) * s.env.Gain(s.rate.D(offset)) * vc.volume
		}
		samples[i][0], samples[i][1] = v, v
	}
	s.pos += len(samples)

	live := s.voices[:0]
	for _, vc := range s.voices {
		if vc.start+length > s.pos {
			live = append(live, vc)
		}
	}
	s.voices = live
	return len(samples), true
}

func (s *Synth) Err() error {
	return nil
}
