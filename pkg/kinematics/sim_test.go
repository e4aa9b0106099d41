package kinematics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// distances are in km, scaled by 3600 so speeds in km/h over seconds
// read naturally.
func TestDriveStateEstimate(t *testing.T) {
	baseTime := time.Now()
	testCases := []struct {
		name     string
		current  float64
		speed    float64
		accel    float64
		after    time.Duration
		dist     float64
		speedNow float64
		stopped  bool
	}{
		{"constant speed", 0, 1, 0, time.Second, 1, 1, false},
		{"in accel", 0, 2, 1, time.Second, 0.5, 1, false},
		{"after accel", 0, 1, 1, 2 * time.Second, 1.5, 1, false},
		{"accel to end", 0, 2, 1, 2 * time.Second, 2, 2, false},
		{"accel more", 0, 2, 1, 3 * time.Second, 4, 2, false},
		{"reduce speed before accel ends", 2, 0, 1, time.Second, 1.5, 1, false},
		{"reduce speed at accel end", 2, 0, 1, 2 * time.Second, 2, 0, true},
		{"reduce speed after accel ends", 2, 0, 1, 3 * time.Second, 2, 0, true},
		{"negative speed clamped", 0, -5, 1, time.Second, 0, 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var old *driveState
			if tc.current != 0 {
				old = &driveState{currentSpeed: tc.current}
			}
			s := newDriveState(old, 0, baseTime, tc.speed, tc.accel)
			if s == nil {
				require.True(t, tc.stopped)
				return
			}
			dist, next := s.estimate(baseTime.Add(tc.after))
			require.InDelta(t, tc.dist, dist*3600, 1e-6)
			require.InDelta(t, tc.speedNow, s.currentSpeed, 1e-6)
			require.Equal(t, tc.stopped, next == nil)
		})
	}
}

func TestDriveStateRepeatedEstimates(t *testing.T) {
	baseTime := time.Now()
	s := newDriveState(nil, 0, baseTime, 2, 1)
	dist, s := s.estimate(baseTime.Add(time.Second))
	require.InDelta(t, 0.5, dist*3600, 1e-6)
	dist, s = s.estimate(baseTime.Add(2 * time.Second))
	require.InDelta(t, 2, dist*3600, 1e-6)
	dist, _ = s.estimate(baseTime.Add(4 * time.Second))
	require.InDelta(t, 6, dist*3600, 1e-6)
}

func TestSimPulses(t *testing.T) {
	now := time.Now()
	sim := NewSim(1000)
	sim.Now = func() time.Time { return now }

	n, err := sim.Pulses()
	require.NoError(t, err)
	require.Zero(t, n)

	sim.Drive(36, 1000)
	now = now.Add(100 * time.Second)
	require.InDelta(t, 36, sim.Speed(), 1e-6)
	require.InDelta(t, 1, sim.Distance(), 1e-3)
	n, err = sim.Pulses()
	require.NoError(t, err)
	require.InDelta(t, 1000, float64(n), 1)

	sim.Drive(0, 1000)
	now = now.Add(time.Second)
	require.Zero(t, sim.Speed())
	d := sim.Distance()
	now = now.Add(time.Minute)
	require.Equal(t, d, sim.Distance())
}
