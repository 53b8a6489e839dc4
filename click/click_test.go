package click

import (
	"sync"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/robmorgan/beatwarp/effect"
)

func stream(s *Synth, n int) [][2]float64 {
	buf := make([][2]float64, n)
	got, ok := s.Stream(buf)
	if !ok || got != n {
		panic("synth stopped streaming")
	}
	return buf
}

func peak(buf [][2]float64) float64 {
	p := 0.0
	for _, s := range buf {
		if s[0] > p {
			p = s[0]
		}
		if -s[0] > p {
			p = -s[0]
		}
	}
	return p
}

func TestSynthRendersAtScheduledTime(t *testing.T) {
	t.Parallel()

	synth := NewSynth(1000, effect.DefaultEnvelope(), 250, 125)
	assert.Equal(t, time.Duration(0), synth.OutputTime())

	synth.ScheduleClick(50*time.Millisecond, true, 1)
	require.Equal(t, 1, synth.Pending())

	assert.Equal(t, 0.0, peak(stream(synth, 50)), "silence before the click")
	assert.Equal(t, 50*time.Millisecond, synth.OutputTime())

	assert.Greater(t, peak(stream(synth, 50)), 0.5)
	stream(synth, 60)
	assert.Equal(t, 0, synth.Pending(), "finished clicks are dropped")
	assert.Equal(t, 0.0, peak(stream(synth, 20)))
}

func TestSynthStartsLateClicksImmediately(t *testing.T) {
	t.Parallel()

	synth := NewSynth(1000, effect.DefaultEnvelope(), 250, 125)
	stream(synth, 100)
	synth.ScheduleClick(20*time.Millisecond, false, 0.5)

	buf := stream(synth, 40)
	assert.Greater(t, peak(buf), 0.0)
	assert.LessOrEqual(t, peak(buf), 0.5)
}

type fakeSender struct {
	mu      sync.Mutex
	packets []osc.Packet
}

func (f *fakeSender) Send(p osc.Packet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packets = append(f.packets, p)
	return nil
}

func TestOSCSink(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clocktesting.NewFakeClock(start)
	sender := &fakeSender{}
	sink := NewOSCSink(sender, "/beatwarp/click", clk)

	clk.Step(2 * time.Second)
	assert.Equal(t, 2*time.Second, sink.OutputTime())

	sink.ScheduleClick(2050*time.Millisecond, true, 0.75)
	require.Equal(t, 1, sink.Sent())
	require.Len(t, sender.packets, 1)

	bundle, ok := sender.packets[0].(*osc.Bundle)
	require.True(t, ok)
	assert.WithinDuration(t, start.Add(2050*time.Millisecond), bundle.Timetag.Time(), time.Millisecond)
	require.Len(t, bundle.Messages, 1)
	assert.Equal(t, "/beatwarp/click", bundle.Messages[0].Address)
	assert.Equal(t, []interface{}{int32(1), float32(0.75)}, bundle.Messages[0].Arguments)
}

type recordingSink struct {
	out time.Duration
	at  []time.Duration
}

func (r *recordingSink) OutputTime() time.Duration { return r.out }

func (r *recordingSink) ScheduleClick(at time.Duration, _ bool, _ float64) {
	r.at = append(r.at, at)
}

func TestFanout(t *testing.T) {
	t.Parallel()

	primary := &recordingSink{out: 10 * time.Second}
	other := &recordingSink{out: 3 * time.Second}
	f := NewFanout(primary, other)

	assert.Equal(t, 10*time.Second, f.OutputTime())
	f.ScheduleClick(10*time.Second+80*time.Millisecond, false, 0.5)

	assert.Equal(t, []time.Duration{10*time.Second + 80*time.Millisecond}, primary.at)
	assert.Equal(t, []time.Duration{3*time.Second + 80*time.Millisecond}, other.at)
}
