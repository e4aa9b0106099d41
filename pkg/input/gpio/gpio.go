// Package gpio feeds a PressDetector from a GPIO line.
package gpio

import (
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"

	"github.com/robotalks/evdash/pkg/input"
	"github.com/robotalks/evdash/pkg/ticks"
)

// Button is a push button wired active low with a pull-up.
type Button struct {
	*input.PressDetector

	line  *gpiocdev.Line
	clock ticks.Clock
}

// Open requests the line and starts edge detection.
func Open(chip string, offset int, clock ticks.Clock) (*Button, error) {
	b := &Button{PressDetector: input.NewPressDetector(), clock: clock}
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.AsActiveLow,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(5*time.Millisecond),
		gpiocdev.WithConsumer("evdash-button"),
		gpiocdev.WithEventHandler(b.handleEvent))
	if err != nil {
		return nil, errors.Wrapf(err, "request button %s:%d", chip, offset)
	}
	b.line = line
	glog.Infof("button on %s:%d", chip, offset)
	return b, nil
}

func (b *Button) handleEvent(evt gpiocdev.LineEvent) {
	b.Edge(evt.Type == gpiocdev.LineEventRisingEdge, b.clock.Millis())
}

// Close releases the line.
func (b *Button) Close() error {
	return b.line.Close()
}
