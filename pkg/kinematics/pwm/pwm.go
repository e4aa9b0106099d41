// Package pwm drives the analog gauges with PWM outputs.
package pwm

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"github.com/robotalks/evdash/pkg/display/oled"
)

// Pin is the part of gpio.PinIO used by the gauges.
type Pin interface {
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// Defaults
const (
	DefaultGaugeFreq = 1 * physic.KiloHertz
	DefaultRPMPulses = 2
	DefaultSpeedMax  = 200
	DefaultTempMin   = 40
	DefaultTempMax   = 120
)

// OpenPin looks up a pin by name after initializing the host drivers.
func OpenPin(name string) (gpio.PinIO, error) {
	if err := oled.InitHost(); err != nil {
		return nil, err
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errors.Errorf("unknown pin %q", name)
	}
	return pin, nil
}

// Gauge maps a value within [Min, Max] to the duty cycle.
type Gauge struct {
	Pin      Pin
	Freq     physic.Frequency
	Min, Max float64
}

// Set moves the gauge, values out of range are clamped.
func (g *Gauge) Set(v float64) error {
	frac := 0.0
	if g.Max > g.Min {
		frac = (v - g.Min) / (g.Max - g.Min)
	}
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	freq := g.Freq
	if freq == 0 {
		freq = DefaultGaugeFreq
	}
	return g.Pin.PWM(gpio.Duty(frac*float64(gpio.DutyMax)), freq)
}

// SpeedPointer is the speed pointer.
type SpeedPointer struct {
	Gauge
}

// NewSpeedPointer creates a SpeedPointer with full scale at maxKmh.
func NewSpeedPointer(pin Pin, maxKmh float64) *SpeedPointer {
	if maxKmh <= 0 {
		maxKmh = DefaultSpeedMax
	}
	return &SpeedPointer{Gauge: Gauge{Pin: pin, Freq: DefaultGaugeFreq, Max: maxKmh}}
}

// SetSpeed implements kinematics.Pointer.
func (p *SpeedPointer) SetSpeed(kmh float64) error {
	return p.Set(kmh)
}

// Zero implements kinematics.Pointer.
func (p *SpeedPointer) Zero() error {
	return p.Set(p.Min)
}

// TempGauge is the temperature gauge.
type TempGauge struct {
	Gauge
}

// NewTempGauge creates a TempGauge.
func NewTempGauge(pin Pin, min, max float64) *TempGauge {
	if max <= min {
		min, max = DefaultTempMin, DefaultTempMax
	}
	return &TempGauge{Gauge: Gauge{Pin: pin, Freq: DefaultGaugeFreq, Min: min, Max: max}}
}

// SetTemperature implements kinematics.TempGauge.
func (g *TempGauge) SetTemperature(celsius int) error {
	return g.Set(float64(celsius))
}

// Tachometer emits a square wave at a frequency proportional to RPM.
type Tachometer struct {
	Pin          Pin
	PulsesPerRev int
	lastRPM      int
	driven       bool
}

// NewTachometer creates a Tachometer.
func NewTachometer(pin Pin, pulsesPerRev int) *Tachometer {
	if pulsesPerRev <= 0 {
		pulsesPerRev = DefaultRPMPulses
	}
	return &Tachometer{Pin: pin, PulsesPerRev: pulsesPerRev}
}

// SetRPM implements kinematics.RPMOutput. The pin is only touched
// when the RPM changes.
func (t *Tachometer) SetRPM(rpm int) error {
	if t.driven && rpm == t.lastRPM {
		return nil
	}
	var err error
	if rpm <= 0 {
		err = t.Pin.Out(gpio.Low)
	} else {
		freq := physic.Frequency(int64(rpm)*int64(t.PulsesPerRev)) * physic.Hertz / 60
		err = t.Pin.PWM(gpio.DutyHalf, freq)
	}
	if err != nil {
		t.driven = false
		return err
	}
	t.lastRPM, t.driven = rpm, true
	return nil
}
