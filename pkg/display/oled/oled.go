// Package oled opens SSD1306 panels on I2C buses as display surfaces.
package oled

import (
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/robotalks/evdash/pkg/display/fb"
)

var (
	hostOnce sync.Once
	hostErr  error
)

// InitHost loads the periph host drivers once per process.
func InitHost() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostErr = errors.Wrap(err, "periph host init")
		}
	})
	return hostErr
}

// Display is an SSD1306 panel with its framebuffer.
type Display struct {
	*fb.Framebuffer

	bus i2c.BusCloser
	dev *ssd1306.Dev
}

// Open opens the panel of size w x h on the named I2C bus.
func Open(busName string, w, h int) (*Display, error) {
	if err := InitHost(); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, errors.Wrapf(err, "open i2c bus %q", busName)
	}
	opts := ssd1306.DefaultOpts
	opts.W, opts.H = w, h
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, errors.Wrapf(err, "ssd1306 on %q", busName)
	}
	glog.Infof("display %dx%d opened on i2c %s", w, h, busName)
	return &Display{
		Framebuffer: fb.New(w, h, dev),
		bus:         bus,
		dev:         dev,
	}, nil
}

// Close turns off the panel and releases the bus.
func (d *Display) Close() error {
	err := d.dev.Halt()
	if e := d.bus.Close(); err == nil {
		err = e
	}
	return err
}
