// Package gpio counts wheel pulses on a GPIO line.
package gpio

import (
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// PulseCounter counts rising edges of the wheel sensor.
type PulseCounter struct {
	line  *gpiocdev.Line
	count atomic.Uint64
}

// Open requests the line and starts counting.
func Open(chip string, offset int) (*PulseCounter, error) {
	c := &PulseCounter{}
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithConsumer("evdash-wheel"),
		gpiocdev.WithEventHandler(c.handleEvent))
	if err != nil {
		return nil, errors.Wrapf(err, "request wheel sensor %s:%d", chip, offset)
	}
	c.line = line
	glog.Infof("wheel sensor on %s:%d", chip, offset)
	return c, nil
}

func (c *PulseCounter) handleEvent(evt gpiocdev.LineEvent) {
	if evt.Type == gpiocdev.LineEventRisingEdge {
		c.count.Add(1)
	}
}

// Pulses implements kinematics.PulseSource.
func (c *PulseCounter) Pulses() (uint64, error) {
	return c.count.Load(), nil
}

// Close releases the line.
func (c *PulseCounter) Close() error {
	return c.line.Close()
}
