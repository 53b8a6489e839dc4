package fixture

import (
	"sort"
	"sync"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
	"k8s.io/utils/clock"

	"github.com/robmorgan/beatwarp/logger"
	"github.com/robmorgan/beatwarp/utils"
)

type flash struct {
	at       time.Duration
	downbeat bool
	volume   float64
}

// BeatLight is a click sink that flashes fixtures: a bright flash on every beat,
// fading out over the flash length, in the downbeat colour on the first beat of a
// measure. Flashes are rendered into its DMX state each time the state is read.
type BeatLight struct {
	mu sync.Mutex

	clock    clock.PassiveClock
	epoch    time.Time
	fixtures []Fixture

	downbeat colorful.Color
	beat     colorful.Color
	length   time.Duration
	frame    time.Duration

	pending []flash
	state   *DMXState
}

// NewBeatLight creates a beat light whose output clock starts now. frame is the DMX
// tick the fade is stepped by. Fixtures that do not fit in a universe are skipped.
func NewBeatLight(cl clock.PassiveClock, fixtures []Fixture, downbeat, beat colorful.Color, length, frame time.Duration) *BeatLight {
	if frame <= 0 {
		frame = length
	}
	log := logger.ForComponent("dmx")
	valid := make([]Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		if err := f.Validate(); err != nil {
			log.WithError(err).Warn("Skipping beat light")
			continue
		}
		valid = append(valid, f)
	}
	return &BeatLight{
		clock:    cl,
		epoch:    cl.Now(),
		fixtures: valid,
		downbeat: downbeat,
		beat:     beat,
		length:   length,
		frame:    frame,
		state:    NewDMXState(),
	}
}

func (b *BeatLight) OutputTime() time.Duration {
	return b.clock.Since(b.epoch)
}

func (b *BeatLight) ScheduleClick(at time.Duration, downbeat bool, volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f := flash{at: at, downbeat: downbeat, volume: volume}
	i := sort.Search(len(b.pending), func(i int) bool { return b.pending[i].at > at })
	b.pending = append(b.pending, flash{})
	copy(b.pending[i+1:], b.pending[i:])
	b.pending[i] = f
}

// GetDMXState renders the flash sounding at the current output time and returns the
// state.
func (b *BeatLight) GetDMXState() *DMXState {
	b.Render(b.OutputTime())
	return b.state
}

// Render writes the fixtures' values at output time now.
func (b *BeatLight) Render(now time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// the latest flash that has started wins
	current := -1
	for i, f := range b.pending {
		if f.at > now {
			break
		}
		current = i
	}

	color, level := b.beat, 0.0
	if current >= 0 {
		f := b.pending[current]
		b.pending = b.pending[current:]
		if elapsed := now - f.at; elapsed < b.length {
			steps := int(b.length/b.frame) + 1
			target := int(utils.ToDMX(f.volume))
			level = float64(utils.GetDimmerFadeValue(target, int(elapsed/b.frame), steps)) / 255
		} else {
			b.pending = b.pending[1:]
		}
		if f.downbeat {
			color = b.downbeat
		}
	}

	for _, fix := range b.fixtures {
		// fixtures were validated on construction
		_ = b.state.set(fix.operations(color, level)...)
	}
}

// Pending returns the number of flashes that have not finished.
func (b *BeatLight) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
