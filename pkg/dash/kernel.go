// Package dash wires the dashboard kernel: the shared state, the
// tasks and their collaborators.
package dash

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/evdash/pkg/display"
	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/input"
	"github.com/robotalks/evdash/pkg/kinematics"
	"github.com/robotalks/evdash/pkg/persist"
	"github.com/robotalks/evdash/pkg/status"
	"github.com/robotalks/evdash/pkg/telemetry"
	"github.com/robotalks/evdash/pkg/ticks"
	"github.com/robotalks/evdash/pkg/vehicle"
	"github.com/robotalks/evdash/pkg/watchdog"
)

// Collaborators are the devices of the dashboard. Nil members are
// replaced by no-op implementations, nil surfaces are disabled.
type Collaborators struct {
	Button    input.Button
	Pulses    kinematics.PulseSource
	Pointer   kinematics.Pointer
	RPM       kinematics.RPMOutput
	TempGauge kinematics.TempGauge
	Watchdog  watchdog.Watchdog

	Odometer display.Surface
	Central  display.Surface
	Gear     display.Surface
}

func (c *Collaborators) fillDefaults() {
	if c.Button == nil {
		c.Button = input.Buttons{}
	}
	if c.Pulses == nil {
		c.Pulses = kinematics.Nop{Name: "pulses"}
	}
	if c.Pointer == nil {
		c.Pointer = kinematics.Nop{Name: "pointer"}
	}
	if c.RPM == nil {
		c.RPM = kinematics.Nop{Name: "rpm"}
	}
	if c.TempGauge == nil {
		c.TempGauge = kinematics.Nop{Name: "temp-gauge"}
	}
	if c.Watchdog == nil {
		c.Watchdog = watchdog.Nop{}
	}
}

// Kernel owns the vehicle state and every task.
type Kernel struct {
	Config   *Config
	Clock    ticks.Clock
	State    *vehicle.State
	Queue    *telemetry.Queue
	Store    persist.Store
	Displays *display.Set

	Input      *input.Controller
	Ingest     *telemetry.Ingest
	Staleness  *telemetry.Staleness
	Deriver    *status.Deriver
	Rotator    *status.Rotator
	Kinematics *kinematics.Task
	Trigger    *persist.Trigger
	TempGauge  *kinematics.TempTask
	Memory     *MemoryGuard
	Watchdog   *watchdog.Keeper

	// Publisher is the optional state publisher of the bench link.
	Publisher fx.Controller
}

// New creates the kernel.
func New(conf *Config, clock ticks.Clock, store persist.Store, hw Collaborators) *Kernel {
	hw.fillDefaults()
	state := vehicle.New(clock.Millis())
	q := telemetry.NewQueue(0)
	k := &Kernel{
		Config:   conf,
		Clock:    clock,
		State:    state,
		Queue:    q,
		Store:    store,
		Displays: display.NewSet(state, hw.Odometer, hw.Central, hw.Gear),
	}
	k.Displays.Central.BootDuration = conf.BootDuration

	k.Ingest = telemetry.NewIngest(state, q)
	k.Ingest.LockTimeout = conf.LockTimeout
	k.Ingest.MaxFrames = conf.MaxFrames
	k.Staleness = &telemetry.Staleness{State: state, Timeout: conf.StaleTimeout}
	k.Deriver = &status.Deriver{State: state}
	k.Rotator = &status.Rotator{State: state}
	k.Kinematics = &kinematics.Task{
		State:   state,
		Sampler: kinematics.NewOdometry(hw.Pulses, conf.Hardware.PulsesPerKm, clock),
		Pointer: hw.Pointer,
		RPM:     hw.RPM,
	}
	k.Trigger = persist.NewTrigger(state, store, clock)
	k.Trigger.StopDebounce = conf.StopDebounce
	k.TempGauge = &kinematics.TempTask{State: state, Gauge: hw.TempGauge}
	k.Memory = &MemoryGuard{Budget: conf.MemoryBudget, LowWater: conf.MemoryLowWater}
	k.Watchdog = &watchdog.Keeper{Watchdog: hw.Watchdog}
	k.Input = &input.Controller{
		State:    state,
		Button:   hw.Button,
		Pointer:  hw.Pointer,
		Saver:    k.Trigger,
		Odometer: k.Displays.Odometer,
	}
	return k
}

// Boot seeds the odometer from the store. A load failure is logged and
// the distances start from what the store returned.
func (k *Kernel) Boot(ctx context.Context) {
	odo, err := k.Store.Load(ctx)
	if err != nil {
		glog.Errorf("load odometer: %v", fx.NewFault(fx.FaultPersistence, "load", err))
	}
	k.State.LoadOdometer(odo)
	glog.Infof("odometer total=%.1fkm trip=%.1fkm", odo.Total, odo.Trip)
}

// AddToLoop implements LoopAdder. Tasks are registered in their fixed
// order.
func (k *Kernel) AddToLoop(loop *fx.Loop) {
	p := k.Config.Periods
	loop.AddTask(fx.PrLvSense, "button", p.Button, k.Input)
	loop.AddTask(fx.PrLvSense, "drain", p.Drain, k.Ingest)
	loop.AddTask(fx.PrLvSense, "staleness", p.Staleness, k.Staleness)
	loop.AddTask(fx.PrLvControl, "status", p.Status, k.Deriver)
	loop.AddTask(fx.PrLvControl, "rotation", p.Rotation, k.Rotator)
	loop.AddTask(fx.PrLvControl, "kinematics", p.Kinematics, k.Kinematics)
	loop.AddTask(fx.PrLvControl, "persist", p.Persist, k.Trigger)
	loop.AddTask(fx.PrLvAcuate, "display.odometer", p.Display, k.Displays.Odometer)
	loop.AddTask(fx.PrLvAcuate, "display.central", p.Display, k.Displays.Central)
	loop.AddTask(fx.PrLvAcuate, "display.gear", p.Display, k.Displays.Gear)
	loop.AddTask(fx.PrLvAcuate, "temp-gauge", p.TempGauge, k.TempGauge)
	loop.AddTask(fx.PrLvPostProc, "memory", p.Memory, k.Memory)
	loop.AddTask(fx.PrLvPostProc, "watchdog", p.Watchdog, k.Watchdog)
	if k.Publisher != nil {
		loop.AddTask(fx.PrLvIdle, "state", p.State, k.Publisher)
	}
}

// ShowCrash renders the crash indicator.
func (k *Kernel) ShowCrash() error {
	return k.Displays.ShowCrash()
}
