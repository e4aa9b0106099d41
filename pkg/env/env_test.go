package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeviceID(t *testing.T) {
	id := DeviceID()
	require.NotEmpty(t, id)
	require.LessOrEqual(t, len(id), 64)
	require.Equal(t, id, DeviceID())
}
