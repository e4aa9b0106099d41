package dash

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuiltinPeriods(t *testing.T) {
	p := builtinConfig().Periods
	testCases := []struct {
		name   string
		period time.Duration
		ms     int
	}{
		{"button", p.Button, 10},
		{"drain", p.Drain, 100},
		{"staleness", p.Staleness, 1000},
		{"status", p.Status, 200},
		{"rotation", p.Rotation, 1000},
		{"kinematics", p.Kinematics, 50},
		{"persist", p.Persist, 500},
		{"display", p.Display, 1000},
		{"temp gauge", p.TempGauge, 1000},
		{"memory", p.Memory, 10000},
		{"watchdog", p.Watchdog, 1000},
		{"state", p.State, 1000},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, time.Duration(tc.ms)*time.Millisecond, tc.period)
		})
	}
}

func TestResolvePrecedence(t *testing.T) {
	file := filepath.Join(t.TempDir(), "evdash.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
id = "from-file"
bus_url = "can://can1"
store_url = "mem://"
stale_timeout = "6s"

[displays]
central = "/dev/i2c-2"

[hardware]
pulse_line = 17
pulses_per_km = 2500.0

[periods]
drain = "50ms"
`), 0644))

	t.Setenv("DASH_BUS_URL", "tcp://bench:7000")
	t.Setenv("DASH_ID", "")
	t.Setenv("DASH_MQTT_URL", "")
	t.Setenv("DASH_STORE_URL", "")
	t.Setenv("DASH_PULSES_PER_KM", "")

	base := builtinConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	bindFlags(fs, &base)
	require.NoError(t, fs.Parse([]string{"-config", file, "-store", "file:///tmp/odo", "-stale-timeout", "3s"}))

	conf, err := base.Resolve(fs)
	require.NoError(t, err)
	require.Equal(t, "from-file", conf.ID)
	require.Equal(t, "tcp://bench:7000", conf.BusURL, "env overrides file")
	require.Equal(t, "file:///tmp/odo", conf.StoreURL, "flag overrides file")
	require.Equal(t, 3*time.Second, conf.StaleTimeout, "flag overrides file")
	require.Equal(t, "/dev/i2c-2", conf.Displays.Central)
	require.Equal(t, DisplayNone, conf.Displays.Gear)
	require.Equal(t, 17, conf.Hardware.PulseLine)
	require.Equal(t, -1, conf.Hardware.ButtonLine)
	require.Equal(t, 2500.0, conf.Hardware.PulsesPerKm)
	require.Equal(t, 50*time.Millisecond, conf.Periods.Drain)
	require.Equal(t, 10*time.Millisecond, conf.Periods.Button)
	require.Equal(t, file, conf.ConfigFile)
}

func TestResolveWithoutFile(t *testing.T) {
	base := builtinConfig()
	base.ID = "dash1"
	conf, err := base.Resolve(flag.NewFlagSet("test", flag.ContinueOnError))
	require.NoError(t, err)
	require.Equal(t, "dash1", conf.ID)
	conf.ID = "changed"
	require.Equal(t, "dash1", base.ID)
}

func TestResolveBadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(file, []byte("id = "), 0644))
	base := builtinConfig()
	base.ConfigFile = file
	_, err := base.Resolve(flag.NewFlagSet("test", flag.ContinueOnError))
	require.Error(t, err)
}
