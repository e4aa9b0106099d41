package watchdog

import (
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Device is the Linux watchdog character device.
type Device struct {
	fd int
}

// Open opens the watchdog device and arms it with the timeout.
func Open(path string, timeout time.Duration) (*Device, error) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	secs := int(timeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	if err := unix.IoctlSetPointerInt(fd, unix.WDIOC_SETTIMEOUT, secs); err != nil {
		// not all drivers support changing the timeout.
		glog.Warningf("watchdog %s: set timeout %ds: %v", path, secs, err)
	}
	glog.Infof("watchdog %s armed, timeout %ds", path, secs)
	return &Device{fd: fd}, nil
}

// Feed implements Watchdog.
func (d *Device) Feed() error {
	return unix.IoctlWatchdogKeepalive(d.fd)
}

// Close disarms the watchdog with the magic close and releases the
// device.
func (d *Device) Close() error {
	if _, err := unix.Write(d.fd, []byte{'V'}); err != nil {
		glog.Warningf("watchdog magic close: %v", err)
	}
	return unix.Close(d.fd)
}

// Reset restarts the system immediately.
func Reset() error {
	unix.Sync()
	return errors.Wrap(unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART), "reboot")
}
