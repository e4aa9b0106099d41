package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/ticks"
	"github.com/robotalks/evdash/pkg/vehicle"
)

func motorFrame(rpm, motorTemp, mcuTemp int) Frame {
	f := NewFrame()
	f.MotorValid = true
	f.MotorRPM = rpm
	f.MotorTemp = motorTemp
	f.MCUTemp = mcuTemp
	return f
}

func TestFrameValidate(t *testing.T) {
	testCases := []struct {
		name  string
		frame func() Frame
		valid bool
	}{
		{"motor ok", func() Frame { return motorFrame(3000, 45, 30) }, true},
		{"wrong type", func() Frame {
			f := motorFrame(3000, 45, 30)
			f.Type = "config"
			return f
		}, false},
		{"no source", func() Frame { return NewFrame() }, false},
		{"rpm upper bound", func() Frame { return motorFrame(vehicle.RPMMax, 45, 30) }, false},
		{"negative rpm", func() Frame { return motorFrame(-1, 45, 30) }, false},
		{"motor temp low", func() Frame { return motorFrame(0, -41, 30) }, false},
		{"mcu temp high", func() Frame { return motorFrame(0, 45, 151) }, false},
		{"temp bounds inclusive", func() Frame { return motorFrame(0, -40, 150) }, true},
		{"imd ok", func() Frame {
			f := NewFrame()
			f.IMDValid = true
			f.IsoR = 1200
			return f
		}, true},
		{"imd isoR default rejected", func() Frame {
			f := NewFrame()
			f.IMDValid = true
			return f
		}, false},
		{"motor only ignores isoR", func() Frame { return motorFrame(0, 20, 20) }, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.frame().Validate()
			if tc.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.True(t, fx.IsKind(err, fx.FaultValidation))
			}
		})
	}
}

func TestFrameTelemetryZeroesInvalidSources(t *testing.T) {
	f := motorFrame(3000, 45, 30)
	f.IMDRaw = 3
	f.VIFCRaw = 2
	tel := f.Telemetry()
	require.Equal(t, 3000, tel.MotorRPM)
	require.Equal(t, 0, tel.IsoR)
	require.Zero(t, tel.IMDRaw)
	require.Zero(t, tel.VIFCRaw)
	require.Equal(t, vehicle.StatusOK, tel.Status)

	f = NewFrame()
	f.IMDValid = true
	f.IsoR = 300
	f.MotorRPM = 100
	tel = f.Telemetry()
	require.Zero(t, tel.MotorRPM)
	require.Equal(t, 300, tel.IsoR)
	require.Equal(t, vehicle.StatusIsoError, tel.Status)
}

func TestIngestLatestValidWins(t *testing.T) {
	state := vehicle.New(0)
	q := NewQueue(0)
	q.Push(motorFrame(1000, 40, 30))
	q.Push(motorFrame(2000, 41, 31))
	bad := motorFrame(2000, 41, 31)
	bad.Type = "bogus"
	q.Push(bad)

	in := NewIngest(state, q)
	err := in.Drain(500)
	require.Error(t, err)
	require.True(t, fx.IsKind(err, fx.FaultValidation))
	require.Equal(t, 0, q.Len())

	tel := state.Telemetry()
	require.Equal(t, 2000, tel.MotorRPM)
	require.Equal(t, 41, tel.MotorTemp)
	require.Equal(t, vehicle.StatusOK, tel.Status)
	motor, imd, data := state.LastValid()
	require.Equal(t, ticks.Millis(500), motor)
	require.Equal(t, ticks.Millis(0), imd)
	require.Equal(t, ticks.Millis(500), data)
}

func TestIngestCapsFramesPerPass(t *testing.T) {
	state := vehicle.New(0)
	q := NewQueue(0)
	for n := 0; n < 15; n++ {
		q.Push(motorFrame(n, 20, 20))
	}
	in := NewIngest(state, q)
	require.NoError(t, in.Drain(100))
	require.Equal(t, 5, q.Len())
	require.Equal(t, 9, state.Telemetry().MotorRPM)
	require.NoError(t, in.Drain(200))
	require.Equal(t, 0, q.Len())
	require.Equal(t, 14, state.Telemetry().MotorRPM)
}

func TestIngestEmptyQueueKeepsState(t *testing.T) {
	state := vehicle.New(0)
	in := NewIngest(state, NewQueue(0))
	require.NoError(t, in.Drain(100))
	require.Equal(t, vehicle.StatusWaitingForData, state.Telemetry().Status)
}

func TestIngestLockTimeout(t *testing.T) {
	state := vehicle.New(0)
	q := NewQueue(0)
	q.Push(motorFrame(1000, 40, 30))
	require.NoError(t, q.Lock(time.Millisecond))
	defer q.Unlock()

	in := NewIngest(state, q)
	in.LockTimeout = 10 * time.Millisecond
	err := in.Drain(100)
	require.Error(t, err)
	require.True(t, fx.IsKind(err, fx.FaultLockTimeout))
	require.Equal(t, 1, q.Len())
	require.Equal(t, vehicle.StatusWaitingForData, state.Telemetry().Status)
}

func TestQueueDropsOldestWhenFull(t *testing.T) {
	q := NewQueue(2)
	for n := 1; n <= 3; n++ {
		q.Push(motorFrame(n, 20, 20))
	}
	require.Equal(t, 2, q.Len())
	require.Equal(t, uint64(1), q.Dropped())
	require.NoError(t, q.Lock(time.Millisecond))
	f, ok := q.PopLocked()
	q.Unlock()
	require.True(t, ok)
	require.Equal(t, 2, f.MotorRPM)
}

func TestStalenessPerSource(t *testing.T) {
	state := vehicle.New(0)
	f := motorFrame(1000, 40, 30)
	f.IMDValid = true
	f.IsoR = 1000
	state.MergeTelemetry(f.Telemetry(), 1000)

	imdOnly := NewFrame()
	imdOnly.IMDValid = true
	imdOnly.IsoR = 1000
	state.MergeTelemetry(imdOnly.Telemetry(), 3000)
	// merging an IMD-only frame already reports the motor invalid
	require.False(t, state.Telemetry().MotorValid)

	sweep := &Staleness{State: state}
	sweep.Sweep(5000)
	require.True(t, state.Telemetry().IMDValid)
	require.Equal(t, vehicle.StatusOK, state.Telemetry().Status)

	sweep.Sweep(7001)
	require.False(t, state.Telemetry().IMDValid)
	require.Equal(t, vehicle.StatusNoDataTimeout, state.Telemetry().Status)
}

func TestStalenessMotorExpiresIndependently(t *testing.T) {
	state := vehicle.New(0)
	tel := motorFrame(1000, 40, 30).Telemetry()
	state.MergeTelemetry(tel, 0)
	sweep := &Staleness{State: state, Timeout: 4000 * time.Millisecond}
	sweep.Sweep(4000)
	require.True(t, state.Telemetry().MotorValid)
	sweep.Sweep(4001)
	require.False(t, state.Telemetry().MotorValid)
	require.Equal(t, vehicle.StatusNoDataTimeout, state.Telemetry().Status)
}
