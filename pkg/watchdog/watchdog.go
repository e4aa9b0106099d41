// Package watchdog keeps the hardware watchdog fed.
package watchdog

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/evdash/pkg/framework"
)

// Defaults
const (
	DefaultDevice  = "/dev/watchdog"
	DefaultTimeout = 5000 * time.Millisecond
)

// Watchdog is a hardware watchdog.
type Watchdog interface {
	Feed() error
}

// Keeper feeds the watchdog from the loop. If the loop stalls the
// watchdog expires and resets the device.
type Keeper struct {
	Watchdog Watchdog

	failures int
}

// Control implements Controller.
func (k *Keeper) Control(fx.ControlContext) error {
	if err := k.Watchdog.Feed(); err != nil {
		k.failures++
		return fx.NewFault(fx.FaultHardwareIO, "watchdog.feed", err)
	}
	if k.failures > 0 {
		glog.Infof("watchdog feed recovered after %d failures", k.failures)
		k.failures = 0
	}
	return nil
}

// Nop is a Watchdog which does nothing, used on the bench.
type Nop struct{}

// Feed implements Watchdog.
func (Nop) Feed() error { return nil }

// Counter counts feeds, used in tests and on the bench.
type Counter struct {
	Feeds int
	Err   error
}

// Feed implements Watchdog.
func (c *Counter) Feed() error {
	if c.Err != nil {
		return c.Err
	}
	c.Feeds++
	return nil
}
