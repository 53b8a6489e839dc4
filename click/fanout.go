package click

import (
	"time"

	"github.com/robmorgan/beatwarp/rhythm"
)

// Fanout repeats every click on several sinks. Each sink has its own output clock, so
// a click is forwarded at the same distance from "now" on every one of them. The
// first sink's clock is the one the metronome sees.
type Fanout struct {
	sinks []rhythm.ClickSink
}

// NewFanout combines sinks. It needs at least one.
func NewFanout(primary rhythm.ClickSink, others ...rhythm.ClickSink) *Fanout {
	return &Fanout{sinks: append([]rhythm.ClickSink{primary}, others...)}
}

func (f *Fanout) OutputTime() time.Duration {
	return f.sinks[0].OutputTime()
}

func (f *Fanout) ScheduleClick(at time.Duration, downbeat bool, volume float64) {
	ahead := at - f.sinks[0].OutputTime()
	f.sinks[0].ScheduleClick(at, downbeat, volume)
	for _, s := range f.sinks[1:] {
		s.ScheduleClick(s.OutputTime()+ahead, downbeat, volume)
	}
}
