package rhythm

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/robmorgan/beatwarp/logger"
	"github.com/robmorgan/beatwarp/timemap"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Transport is the audio engine the metronome follows.
type Transport interface {
	CurrentTimeMs() float64
	IsPlaying() bool
}

// ClickSink renders clicks at absolute times on its own output clock. Accent and
// pitch for downbeats are up to the sink.
type ClickSink interface {
	OutputTime() time.Duration
	ScheduleClick(at time.Duration, downbeat bool, volume float64)
}

// MapSource hands out the time map of the current score version. A different pointer
// means the score changed.
type MapSource interface {
	TimeMap() *timemap.Map
}

// Config holds the scheduling cadence. All durations except Interval are in audio ms.
type Config struct {
	Interval        time.Duration
	HorizonMs       float64
	SeekThresholdMs float64
	StartupGuardMs  float64
	PastToleranceMs float64
	Volume          float64
	DownbeatGain    float64
}

// DefaultConfig polls every 25ms and schedules 100ms ahead.
func DefaultConfig() Config {
	return Config{
		Interval:        25 * time.Millisecond,
		HorizonMs:       100,
		SeekThresholdMs: 300,
		StartupGuardMs:  50,
		PastToleranceMs: 150,
		Volume:          0.5,
		DownbeatGain:    1.5,
	}
}

// Metronome schedules a click for every beat of the score while the transport plays.
// Each Tick is a complete pass under the metronome's lock, so a tick never overlaps
// another and SetEnabled(false) takes effect before it returns.
type Metronome struct {
	mu sync.Mutex

	cfg       Config
	clock     clock.Clock
	transport Transport
	sink      ClickSink
	maps      MapSource

	enabled bool
	volume  float64
	state   State

	tm            *timemap.Map
	next          timemap.Beat
	hasNext       bool
	lastScheduled timemap.Beat
	hasScheduled  bool
	lastPolledMs  float64
	startMs       float64
	advanced      bool
	clicks        int64
}

// NewMetronome creates a disabled metronome.
func NewMetronome(cl clock.Clock, transport Transport, sink ClickSink, maps MapSource, cfg Config) *Metronome {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.DownbeatGain <= 0 {
		cfg.DownbeatGain = DefaultConfig().DownbeatGain
	}
	return &Metronome{
		cfg:       cfg,
		clock:     cl,
		transport: transport,
		sink:      sink,
		maps:      maps,
		volume:    clampVolume(cfg.Volume),
	}
}

func clampVolume(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}

// SetEnabled turns the metronome on or off. Once it returns false no further click is
// scheduled; clicks already handed to the sink may still sound.
func (m *Metronome) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled = enabled
	if !enabled {
		m.disarm("disabled")
	}
}

// Enabled reports whether the metronome is switched on.
func (m *Metronome) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// SetVolume sets the base click volume, clamped to [0, 1].
func (m *Metronome) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clampVolume(v)
}

// Volume returns the base click volume.
func (m *Metronome) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// State returns the scheduler state.
func (m *Metronome) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Run polls the transport every Interval until ctx is cancelled.
func (m *Metronome) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	log := logger.GetProjectLogger()
	log.WithFields(logrus.Fields{"interval": m.cfg.Interval, "horizon_ms": m.cfg.HorizonMs}).Info("Metronome started")

	t := m.clock.NewTimer(m.cfg.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Metronome shutdown")
			return
		case <-t.C():
			m.Tick()
			t.Reset(m.cfg.Interval)
		}
	}
}

// Tick runs one scheduling pass and returns the number of clicks scheduled.
func (m *Metronome) Tick() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled || !m.transport.IsPlaying() {
		m.disarm("transport stopped")
		return 0
	}
	tm := m.maps.TimeMap()
	if tm == nil {
		m.disarm("no score")
		return 0
	}

	now := m.transport.CurrentTimeMs()
	switch {
	case m.state == Idle:
		m.arm(now, tm)
		m.state = Armed
	case math.Abs(now-m.lastPolledMs) > m.cfg.SeekThresholdMs:
		logger.GetProjectLogger().WithFields(logrus.Fields{"from_ms": m.lastPolledMs, "to_ms": now}).Debug("Metronome detected a seek")
		m.arm(now, tm)
	case tm != m.tm:
		m.resync(now, tm)
	}
	m.lastPolledMs = now

	if !m.advanced && now != m.startMs {
		m.advanced = true
	}
	return m.schedule(now)
}

// arm resolves the first beat from a fresh position, forgetting what was scheduled.
func (m *Metronome) arm(now float64, tm *timemap.Map) {
	m.tm = tm
	m.next, m.hasNext = tm.NextBeat(now)
	m.hasScheduled = false
	m.startMs = now
	m.advanced = false
}

// resync picks up a new score version without clicking a beat twice.
func (m *Metronome) resync(now float64, tm *timemap.Map) {
	m.tm = tm
	if m.hasScheduled && m.lastScheduled.TimeMs >= now {
		m.next, m.hasNext = tm.BeatAfter(m.lastScheduled.TimeMs)
		return
	}
	m.next, m.hasNext = tm.NextBeat(now)
}

func (m *Metronome) disarm(reason string) {
	if m.state == Idle {
		return
	}
	logger.GetProjectLogger().WithField("reason", reason).Debug("Metronome idle")
	m.state = Idle
	m.tm = nil
	m.hasNext = false
	m.hasScheduled = false
}

func (m *Metronome) schedule(now float64) int {
	scheduled := 0
	for m.hasNext && m.next.TimeMs < now+m.cfg.HorizonMs {
		if !m.advanced && math.Abs(m.next.TimeMs-m.startMs) < m.cfg.StartupGuardMs {
			break
		}

		delta := m.next.TimeMs - now
		if delta > -m.cfg.PastToleranceMs {
			at := m.sink.OutputTime() + msToDuration(math.Max(0, delta))
			m.sink.ScheduleClick(at, m.next.IsDownbeat(), m.clickVolume(m.next))
			m.lastScheduled, m.hasScheduled = m.next, true
			m.clicks++
			scheduled++
		}
		m.next, m.hasNext = m.tm.BeatAfter(m.next.TimeMs)
	}

	if scheduled > 0 {
		m.state = Running
	}
	return scheduled
}

func (m *Metronome) clickVolume(b timemap.Beat) float64 {
	if b.IsDownbeat() {
		return math.Min(m.volume*m.cfg.DownbeatGain, 1)
	}
	return m.volume
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}
