package click

import (
	"sync"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/robmorgan/beatwarp/logger"
)

// Sender delivers OSC packets. *osc.Client satisfies it.
type Sender interface {
	Send(packet osc.Packet) error
}

// OSCSink sends every click as an OSC bundle timetagged with the wall clock time it
// should sound at, so the receiver can play it without network jitter. The message
// carries 1 for a downbeat (0 otherwise) and the volume.
type OSCSink struct {
	mu sync.Mutex

	sender  Sender
	address string
	clock   clock.PassiveClock
	epoch   time.Time
	sent    int
	log     *logrus.Entry
}

// NewOSCSink creates a sink whose output clock starts now.
func NewOSCSink(sender Sender, address string, cl clock.PassiveClock) *OSCSink {
	return &OSCSink{
		sender:  sender,
		address: address,
		clock:   cl,
		epoch:   cl.Now(),
		log:     logger.ForComponent("osc").WithField("address", address),
	}
}

// NewOSCClientSink sends to host:port over UDP.
func NewOSCClientSink(host string, port int, address string) *OSCSink {
	return NewOSCSink(osc.NewClient(host, port), address, clock.RealClock{})
}

func (o *OSCSink) OutputTime() time.Duration {
	return o.clock.Since(o.epoch)
}

func (o *OSCSink) ScheduleClick(at time.Duration, downbeat bool, volume float64) {
	accent := int32(0)
	if downbeat {
		accent = 1
	}
	msg := osc.NewMessage(o.address, accent, float32(volume))
	bundle := osc.NewBundle(o.epoch.Add(at))
	if err := bundle.Append(msg); err != nil {
		o.log.WithError(err).Error("Failed to build click bundle")
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.sender.Send(bundle); err != nil {
		o.log.WithError(err).Warn("Failed to send click")
		return
	}
	o.sent++
}

// Sent returns the number of clicks delivered.
func (o *OSCSink) Sent() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent
}
