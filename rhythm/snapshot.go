package rhythm

import "github.com/robmorgan/beatwarp/timemap"

// State is where the metronome is in its lifecycle.
type State int

const (
	// Idle means disabled or the transport is not playing.
	Idle State = iota
	// Armed means the next beat is resolved but nothing was scheduled yet.
	Armed
	// Running means clicks are being scheduled.
	Running
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Running:
		return "running"
	}
	return "idle"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a consistent view of the metronome for display.
type Snapshot struct {
	Enabled bool    `json:"enabled"`
	Volume  float64 `json:"volume"`
	State   State   `json:"state"`

	// NextBeat is the beat the metronome will click next, nil when none is pending.
	NextBeat *timemap.Beat `json:"nextBeat"`

	// LastBeat is the most recently scheduled beat since the last seek.
	LastBeat *timemap.Beat `json:"lastBeat"`

	// Clicks counts every click handed to the sink.
	Clicks int64 `json:"clicks"`
}

// IsDownBeat checks whether the most recent click was the first beat in its measure.
func (s Snapshot) IsDownBeat() bool {
	return s.LastBeat != nil && s.LastBeat.IsDownbeat()
}

// GetSnapshot captures the current state of the metronome.
func (m *Metronome) GetSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Enabled: m.enabled,
		Volume:  m.volume,
		State:   m.state,
		Clicks:  m.clicks,
	}
	if m.hasNext {
		b := m.next
		snap.NextBeat = &b
	}
	if m.hasScheduled {
		b := m.lastScheduled
		snap.LastBeat = &b
	}
	return snap
}
