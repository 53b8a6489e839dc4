package transport

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Clocked is a transport without audio: the position advances with the clock while
// playing. It drives the metronome when no audio file is loaded, and in tests.
type Clocked struct {
	mu sync.Mutex

	clock    clock.PassiveClock
	length   time.Duration
	position time.Duration
	started  time.Time
	playing  bool
}

// NewClocked creates a stopped transport at 0. A length of 0 plays forever.
func NewClocked(cl clock.PassiveClock, length time.Duration) *Clocked {
	return &Clocked{clock: cl, length: length}
}

// now must be called with the lock held. It stops the transport at the end.
func (c *Clocked) now() time.Duration {
	if !c.playing {
		return c.position
	}
	pos := c.position + c.clock.Since(c.started)
	if c.length > 0 && pos >= c.length {
		c.position = c.length
		c.playing = false
		return c.length
	}
	return pos
}

func (c *Clocked) CurrentTimeMs() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return durationToMs(c.now())
}

func (c *Clocked) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now()
	return c.playing
}

func (c *Clocked) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing || (c.length > 0 && c.position >= c.length) {
		return
	}
	c.started = c.clock.Now()
	c.playing = true
}

func (c *Clocked) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = c.now()
	c.playing = false
}

// Seek moves to ms, clamped to the length of the transport.
func (c *Clocked) Seek(ms float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos := msToDuration(ms)
	if pos < 0 {
		pos = 0
	}
	if c.length > 0 && pos > c.length {
		pos = c.length
	}
	c.now()
	c.position = pos
	c.started = c.clock.Now()
}

func (c *Clocked) DurationMs() float64 {
	return durationToMs(c.length)
}
