//go:build !linux

package rs485

import (
	"io"

	"github.com/pkg/errors"
)

// OpenPort is only supported on Linux.
func OpenPort(path string, baud int) (io.ReadWriteCloser, error) {
	return nil, errors.Errorf("serial port %s: unsupported platform", path)
}
