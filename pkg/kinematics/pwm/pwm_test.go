package pwm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

type pin struct {
	duty  gpio.Duty
	freq  physic.Frequency
	level gpio.Level
	calls int
	err   error
}

func (p *pin) Out(l gpio.Level) error {
	p.calls++
	p.level, p.duty, p.freq = l, 0, 0
	return p.err
}

func (p *pin) PWM(d gpio.Duty, f physic.Frequency) error {
	p.calls++
	p.duty, p.freq = d, f
	return p.err
}

func TestGaugeClamp(t *testing.T) {
	testCases := []struct {
		value float64
		duty  gpio.Duty
	}{
		{-10, 0},
		{40, 0},
		{80, gpio.DutyHalf},
		{120, gpio.DutyMax},
		{500, gpio.DutyMax},
	}
	p := &pin{}
	g := NewTempGauge(p, 40, 120)
	for _, tc := range testCases {
		require.NoError(t, g.SetTemperature(int(tc.value)))
		require.Equal(t, tc.duty, p.duty)
		require.Equal(t, DefaultGaugeFreq, p.freq)
	}
}

func TestSpeedPointer(t *testing.T) {
	p := &pin{}
	sp := NewSpeedPointer(p, 0)
	require.NoError(t, sp.SetSpeed(100))
	require.Equal(t, gpio.DutyHalf, p.duty)
	require.NoError(t, sp.Zero())
	require.Equal(t, gpio.Duty(0), p.duty)
}

func TestTachometer(t *testing.T) {
	p := &pin{}
	tach := NewTachometer(p, 2)
	require.NoError(t, tach.SetRPM(3000))
	require.Equal(t, 100*physic.Hertz, p.freq)
	require.Equal(t, gpio.DutyHalf, p.duty)
	require.NoError(t, tach.SetRPM(3000))
	require.Equal(t, 1, p.calls)

	require.NoError(t, tach.SetRPM(0))
	require.Equal(t, gpio.Low, p.level)
	require.Equal(t, 2, p.calls)

	p.err = errors.New("busy")
	require.Error(t, tach.SetRPM(1200))
	p.err = nil
	require.NoError(t, tach.SetRPM(1200))
	require.Equal(t, 40*physic.Hertz, p.freq)
}
