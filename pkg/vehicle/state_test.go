package vehicle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/evdash/pkg/ticks"
)

func TestNewState(t *testing.T) {
	s := New(100)
	tel := s.Telemetry()
	require.Equal(t, StatusWaitingForData, tel.Status)
	require.Equal(t, RIsoMax, tel.IsoR)
	require.False(t, tel.MotorValid)
	require.Equal(t, ModeSpeed, s.UI().Mode)
	require.Equal(t, TempMotor, s.UI().TempSource)
	require.Equal(t, ContrastHigh, s.UI().Contrast)
	require.True(t, s.CentralBoot().Active)
	require.Equal(t, ' ', s.Derived().Gear)
	motor, imd, data := s.LastValid()
	require.Equal(t, ticks.Millis(100), motor)
	require.Equal(t, ticks.Millis(100), imd)
	require.Equal(t, ticks.Millis(100), data)
}

func TestSetGear(t *testing.T) {
	s := New(0)
	require.True(t, s.SetGear('D'))
	require.True(t, s.Dirty(SurfaceGear))
	s.ClearDirty(SurfaceGear)
	require.False(t, s.SetGear('D'))
	require.False(t, s.Dirty(SurfaceGear))
	require.True(t, s.SetGear('R'))
	require.Equal(t, 'R', s.Derived().Gear)
	require.True(t, s.Dirty(SurfaceGear))
}

func TestApplyMotionTotalNeverDecreases(t *testing.T) {
	s := New(0)
	s.LoadOdometer(Odometer{Total: 120, Trip: 5})
	testCases := []struct {
		speed, incr float64
		digital     int
		total, trip float64
	}{
		{speed: 10.4, incr: 0.5, digital: 10, total: 120.5, trip: 5.5},
		{speed: 10.5, incr: -3, digital: 11, total: 120.5, trip: 5.5},
		{speed: 0, incr: 0, digital: 0, total: 120.5, trip: 5.5},
	}
	for _, tc := range testCases {
		s.ApplyMotion(tc.speed, tc.incr)
		kin := s.Kinematics()
		require.Equal(t, tc.digital, kin.DigitalSpeed)
		require.InDelta(t, tc.total, kin.Total, 1e-9)
		require.InDelta(t, tc.trip, kin.Trip, 1e-9)
	}
	s.ResetTrip()
	require.Equal(t, Odometer{Total: 120.5, Trip: 0}, s.Odometer())
}

func TestFaultStackAndRotation(t *testing.T) {
	s := New(0)
	require.False(t, s.SetFaultStack(nil))
	require.False(t, s.Dirty(SurfaceCentral))

	require.True(t, s.SetFaultStack([]string{"MCU OVERTEMP", "IMD ISO FAULT"}))
	require.True(t, s.Dirty(SurfaceCentral))
	s.ClearDirty(SurfaceCentral)

	s.SetRotationIndex(2)
	require.Equal(t, "IMD ISO FAULT", s.Derived().Entry())
	require.True(t, s.Dirty(SurfaceCentral))
	s.ClearDirty(SurfaceCentral)

	s.SetRotationIndex(2)
	require.False(t, s.Dirty(SurfaceCentral))

	s.SetRotationIndex(5)
	require.Equal(t, 0, s.Derived().Index)
	require.Equal(t, "", s.Derived().Entry())

	s.SetRotationIndex(1)
	require.False(t, s.SetFaultStack([]string{"MCU OVERTEMP", "IMD ISO FAULT"}))
	require.Equal(t, 1, s.Derived().Index)
	require.True(t, s.SetFaultStack([]string{"IMD ISO FAULT"}))
	require.Equal(t, 0, s.Derived().Index)

	d := s.Derived()
	d.Stack[0] = "mutated"
	require.Equal(t, "IMD ISO FAULT", s.Derived().Stack[0])
}

func TestUIToggles(t *testing.T) {
	s := New(0)
	modes := []DisplayMode{ModeTotal, ModeTrip, ModeTemp, ModeSpeed}
	for _, m := range modes {
		require.Equal(t, m, s.NextMode())
	}
	require.Equal(t, ContrastLow, s.ToggleContrast())
	require.Equal(t, ContrastHigh, s.ToggleContrast())
	require.Equal(t, TempMCU, s.ToggleTempSource())
	require.Equal(t, "MCU", s.UI().TempSource.Label())
	require.Equal(t, TempMotor, s.ToggleTempSource())
}

func TestMergeStampsSources(t *testing.T) {
	clock := ticks.NewManual(0)
	s := New(clock.Millis())
	clock.Advance(time.Second)
	tel := DefaultTelemetry()
	tel.MotorValid = true
	tel.Status = StatusOK
	s.MergeTelemetry(tel, clock.Millis())
	motor, imd, data := s.LastValid()
	require.Equal(t, ticks.Millis(1000), motor)
	require.Equal(t, ticks.Millis(0), imd)
	require.Equal(t, ticks.Millis(1000), data)

	s.InvalidateMotor()
	s.SetStatus(StatusNoDataTimeout)
	require.False(t, s.Telemetry().MotorValid)
	require.Equal(t, "NO_DATA_TIMEOUT", s.Telemetry().Status.String())
}
