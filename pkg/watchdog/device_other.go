//go:build !linux

package watchdog

import (
	"time"

	"github.com/pkg/errors"
)

// ErrUnsupported is returned on platforms without a watchdog device.
var ErrUnsupported = errors.New("watchdog not supported on this platform")

// Device is unavailable on this platform.
type Device struct{}

// Open always fails on this platform.
func Open(path string, timeout time.Duration) (*Device, error) {
	return nil, ErrUnsupported
}

// Feed implements Watchdog.
func (d *Device) Feed() error { return ErrUnsupported }

// Close releases the device.
func (d *Device) Close() error { return nil }

// Reset is not supported on this platform.
func Reset() error { return ErrUnsupported }
