// Package kinematics samples the wheel pulses into speed and distance
// and drives the gauges.
package kinematics

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/ticks"
	"github.com/robotalks/evdash/pkg/vehicle"
)

// PulseSource reports the accumulated number of wheel pulses.
type PulseSource interface {
	Pulses() (uint64, error)
}

// Pointer is the speed pointer actuator.
type Pointer interface {
	SetSpeed(kmh float64) error
	Zero() error
}

// RPMOutput drives the tachometer.
type RPMOutput interface {
	SetRPM(rpm int) error
}

// TempGauge drives the temperature gauge.
type TempGauge interface {
	SetTemperature(celsius int) error
}

// Sampler produces speed and distance increments.
type Sampler interface {
	Sample() (speed, increment float64, err error)
}

// Defaults
const (
	DefaultPulsesPerKm = 4000
	DefaultSpeedWindow = 250 * time.Millisecond
)

// Odometry converts a pulse count into speed and distance. Distance
// increments are reported on every sample, the speed is averaged over
// Window.
type Odometry struct {
	Source      PulseSource
	PulsesPerKm float64
	Window      time.Duration
	Clock       ticks.Clock

	primed   bool
	last     uint64
	winCount uint64
	winStart ticks.Micros
	speed    float64
}

// NewOdometry creates an Odometry with defaults.
func NewOdometry(src PulseSource, pulsesPerKm float64, clock ticks.Clock) *Odometry {
	if pulsesPerKm <= 0 {
		pulsesPerKm = DefaultPulsesPerKm
	}
	return &Odometry{
		Source:      src,
		PulsesPerKm: pulsesPerKm,
		Window:      DefaultSpeedWindow,
		Clock:       clock,
	}
}

// Sample implements Sampler.
func (o *Odometry) Sample() (float64, float64, error) {
	count, err := o.Source.Pulses()
	if err != nil {
		return o.speed, 0, err
	}
	now := o.Clock.Micros()
	if !o.primed || count < o.last {
		o.primed = true
		o.last, o.winCount, o.winStart = count, count, now
		return o.speed, 0, nil
	}
	incr := float64(count-o.last) / o.PulsesPerKm
	o.last = count
	if elapsed := now.Since(o.winStart); elapsed >= o.Window {
		km := float64(count-o.winCount) / o.PulsesPerKm
		o.speed = km / elapsed.Hours()
		o.winCount, o.winStart = count, now
	}
	return o.speed, incr, nil
}

// Task samples the motion and drives the speed pointer and the RPM
// output.
type Task struct {
	State   *vehicle.State
	Sampler Sampler
	Pointer Pointer
	RPM     RPMOutput
}

// Control implements Controller. Each step is isolated, the faults
// are aggregated.
func (t *Task) Control(fx.ControlContext) error {
	var errs fx.AggregatedError
	if speed, incr, err := t.Sampler.Sample(); err != nil {
		errs.Add(fx.NewFault(fx.FaultHardwareIO, "pulses", err))
	} else {
		t.State.ApplyMotion(speed, incr)
	}
	if err := t.Pointer.SetSpeed(t.State.Kinematics().Speed); err != nil {
		errs.Add(fx.NewFault(fx.FaultHardwareIO, "pointer", err))
	}
	if err := t.RPM.SetRPM(RPMFor(t.State.Telemetry())); err != nil {
		errs.Add(fx.NewFault(fx.FaultHardwareIO, "rpm", err))
	}
	return errs.Aggregate()
}

// RPMFor returns the RPM shown on the tachometer, zero unless the
// system is OK and the motor data is valid.
func RPMFor(tel vehicle.Telemetry) int {
	if tel.Status == vehicle.StatusOK && tel.MotorValid {
		return tel.MotorRPM
	}
	return 0
}

// TempTask drives the temperature gauge from the selected source.
type TempTask struct {
	State *vehicle.State
	Gauge TempGauge
}

// Control implements Controller.
func (t *TempTask) Control(fx.ControlContext) error {
	temp := t.State.Telemetry().Temperature(t.State.UI().TempSource)
	if err := t.Gauge.SetTemperature(temp); err != nil {
		return fx.NewFault(fx.FaultHardwareIO, "temp-gauge", err)
	}
	return nil
}

// Nop is an actuator doing nothing, used when hardware is missing.
type Nop struct {
	Name string
}

// SetSpeed implements Pointer.
func (n Nop) SetSpeed(float64) error { return nil }

// Zero implements Pointer.
func (n Nop) Zero() error {
	glog.V(2).Infof("%s: zero ignored", n.Name)
	return nil
}

// SetRPM implements RPMOutput.
func (n Nop) SetRPM(int) error { return nil }

// SetTemperature implements TempGauge.
func (n Nop) SetTemperature(int) error { return nil }

// Pulses implements PulseSource.
func (n Nop) Pulses() (uint64, error) { return 0, nil }
