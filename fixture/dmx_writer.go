package fixture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/robmorgan/beatwarp/logger"
)

// UniverseChannels is the number of channels in a DMX universe.
const UniverseChannels = 512

// DMXState holds the DMX512 values for each channel
type DMXState struct {
	universes map[int][]byte
	lock      sync.Mutex
}

type dmxOperation struct {
	universe, channel, value int
}

// NewDMXState creates an empty state.
func NewDMXState() *DMXState {
	return &DMXState{universes: make(map[int][]byte)}
}

// Get returns the value of a channel, counted from 1.
func (s *DMXState) Get(universe, channel int) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.universes[universe] == nil || channel < 1 || channel > UniverseChannels {
		return 0
	}
	return int(s.universes[universe][channel-1])
}

func (s *DMXState) set(ops ...dmxOperation) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, op := range ops {
		channel := op.channel
		universe := op.universe
		value := op.value
		if channel < 1 || channel > UniverseChannels {
			return fmt.Errorf("dmx channel (%d) not in range, op=%v", channel, op)
		}

		s.initializeUniverse(universe)
		s.universes[universe][channel-1] = byte(value)
	}

	return nil
}

func (s *DMXState) initializeUniverse(universe int) {
	if s.universes[universe] == nil {
		s.universes[universe] = make([]byte, UniverseChannels)
	}
}

// Universes returns a copy of every universe that has been written to.
func (s *DMXState) Universes() map[int][]byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make(map[int][]byte, len(s.universes))
	for k, v := range s.universes {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// Manager produces the DMX frame to send on each tick.
type Manager interface {
	GetDMXState() *DMXState
}

// OLAClient is the interface for communicating with OLA
type OLAClient interface {
	SendDmx(universe int, values []byte) (status bool, err error)
	Close()
}

// SendDMXWorker sends OLA the current dmxState across all universes
func SendDMXWorker(ctx context.Context, cl clock.Clock, client OLAClient, tick time.Duration, manager Manager, wg *sync.WaitGroup) error {
	defer wg.Done()
	defer client.Close()

	log := logger.ForComponent("dmx")
	t := cl.NewTimer(tick)
	defer t.Stop()
	log.WithField("tick", tick).Info("DMX worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("DMX worker shutdown")
			return ctx.Err()
		case <-t.C():
			for k, v := range manager.GetDMXState().Universes() {
				if _, err := client.SendDmx(k, v); err != nil {
					log.WithFields(logrus.Fields{"universe": k}).WithError(err).Warn("Failed to send DMX")
				}
			}
			t.Reset(tick)
		}
	}
}
