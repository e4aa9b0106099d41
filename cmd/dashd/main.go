package main

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/evdash/pkg/dash"
	"github.com/robotalks/evdash/pkg/display"
	"github.com/robotalks/evdash/pkg/display/fb"
	"github.com/robotalks/evdash/pkg/display/oled"
	"github.com/robotalks/evdash/pkg/env"
	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/input"
	inputgpio "github.com/robotalks/evdash/pkg/input/gpio"
	"github.com/robotalks/evdash/pkg/kinematics"
	kingpio "github.com/robotalks/evdash/pkg/kinematics/gpio"
	"github.com/robotalks/evdash/pkg/kinematics/pwm"
	"github.com/robotalks/evdash/pkg/link"
	"github.com/robotalks/evdash/pkg/link/bus"
	"github.com/robotalks/evdash/pkg/link/mqtt"
	"github.com/robotalks/evdash/pkg/persist"
	"github.com/robotalks/evdash/pkg/ticks"
	"github.com/robotalks/evdash/pkg/vehicle"
	"github.com/robotalks/evdash/pkg/watchdog"
)

var surfaceSizes = [...][2]int{
	vehicle.SurfaceOdometer: {128, 32},
	vehicle.SurfaceCentral:  {128, 32},
	vehicle.SurfaceGear:     {64, 32},
}

func init() {
	dash.SetupFlags()
}

// fatal logs err, resets the board when a hardware watchdog is in use
// and exits.
func fatal(conf *dash.Config, err error) {
	glog.Errorf("fatal: %v", err)
	if conf.Hardware.Watchdog != "" {
		if e := watchdog.Reset(); e != nil {
			glog.Errorf("reset: %v", e)
		}
	}
	glog.Flush()
	os.Exit(1)
}

func openSurface(backend string, s vehicle.Surface, conf *dash.Config, conn *mqtt.Conn) display.Surface {
	w, h := surfaceSizes[s][0], surfaceSizes[s][1]
	switch backend {
	case "", dash.DisplayNone:
		return nil
	case dash.DisplayMirror:
		if conn == nil {
			glog.Warningf("display %s: mirror requires -mqtt, disabled", s)
			return nil
		}
		return fb.New(w, h, mqtt.NewMirror(conn, conf.ID, s.String()))
	}
	d, err := oled.Open(backend, w, h)
	if err != nil {
		glog.Errorf("display %s disabled: %v", s, err)
		return nil
	}
	return d
}

func openPin(name, what string) pwm.Pin {
	if name == "" {
		return nil
	}
	pin, err := pwm.OpenPin(name)
	if err != nil {
		glog.Errorf("%s disabled: %v", what, err)
		return nil
	}
	return pin
}

func openHardware(conf *dash.Config, clock ticks.Clock, hw *dash.Collaborators) (*input.PressDetector, *kinematics.Sim) {
	hc := &conf.Hardware
	injected := input.NewPressDetector()
	buttons := input.Buttons{injected}
	if hc.ButtonLine >= 0 {
		if btn, err := inputgpio.Open(hc.Chip, hc.ButtonLine, clock); err != nil {
			glog.Errorf("button disabled: %v", err)
		} else {
			buttons = append(input.Buttons{btn}, buttons...)
		}
	}
	hw.Button = buttons

	var sim *kinematics.Sim
	if hc.PulseLine >= 0 {
		if pc, err := kingpio.Open(hc.Chip, hc.PulseLine); err != nil {
			glog.Errorf("wheel pulses disabled: %v", err)
		} else {
			hw.Pulses = pc
		}
	} else {
		sim = kinematics.NewSim(hc.PulsesPerKm)
		hw.Pulses = sim
		glog.Info("no pulse line, using simulated wheel")
	}

	if pin := openPin(hc.SpeedPin, "speed pointer"); pin != nil {
		hw.Pointer = pwm.NewSpeedPointer(pin, pwm.DefaultSpeedMax)
	}
	if pin := openPin(hc.RPMPin, "tachometer"); pin != nil {
		hw.RPM = pwm.NewTachometer(pin, pwm.DefaultRPMPulses)
	}
	if pin := openPin(hc.TempPin, "temperature gauge"); pin != nil {
		hw.TempGauge = pwm.NewTempGauge(pin, pwm.DefaultTempMin, pwm.DefaultTempMax)
	}
	if hc.Watchdog != "" {
		if wd, err := watchdog.Open(hc.Watchdog, conf.WatchdogTimeout); err != nil {
			glog.Errorf("watchdog disabled: %v", err)
		} else {
			hw.Watchdog = wd
		}
	}
	return injected, sim
}

func main() {
	flag.Parse()
	conf, err := dash.Default().Resolve(flag.CommandLine)
	if err != nil {
		glog.Exitf("config: %v", err)
	}
	if conf.ID == "" {
		conf.ID = env.DeviceID()
	}
	glog.Infof("dashboard %s starting", conf.ID)

	store, err := persist.Open(conf.StoreURL)
	if err != nil {
		fatal(conf, err)
	}

	var conn *mqtt.Conn
	if conf.MQTTURL != "" {
		if conn, err = mqtt.Dial(conf.MQTTURL, conf.ID); err != nil {
			glog.Errorf("bench link disabled: %v", err)
		} else {
			defer conn.Close()
		}
	}

	clock := ticks.System()
	var hw dash.Collaborators
	hw.Odometer = openSurface(conf.Displays.Odometer, vehicle.SurfaceOdometer, conf, conn)
	hw.Central = openSurface(conf.Displays.Central, vehicle.SurfaceCentral, conf, conn)
	hw.Gear = openSurface(conf.Displays.Gear, vehicle.SurfaceGear, conf, conn)
	injected, sim := openHardware(conf, clock, &hw)

	k := dash.New(conf, clock, store, hw)
	k.Boot(context.Background())

	loop := fx.NewLoop()
	loop.Clock = clock

	busAdder, err := bus.Open(conf.BusURL, conf.ID, k.Queue)
	if err != nil {
		glog.Errorf("telemetry bus disabled: %v", err)
	}

	var pipes []*link.Pipe
	if conn != nil {
		bench := &mqtt.Bench{
			Publisher: conn,
			ID:        conf.ID,
			State:     k.State,
			Queue:     k.Queue,
			Surfaces:  k.Displays.Enabled,
			Button:    injected,
		}
		if sim != nil {
			bench.Driver = sim
		}
		k.Publisher = bench
		// bench telemetry feeds the queue only without a bus
		q := k.Queue
		if busAdder != nil {
			q = nil
		}
		pipes = bench.Pipes(conn, q)
	}

	loop.Add(k)
	if busAdder != nil {
		loop.Add(busAdder)
	}
	for _, p := range pipes {
		loop.Add(p)
	}

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("loop", fx.RunFunc(loop.Run)))
	if err := runner.Wait(); err != nil {
		glog.Errorf("loop stopped: %v", err)
		if e := k.ShowCrash(); e != nil {
			glog.Errorf("crash indicator: %v", e)
		}
		fatal(conf, err)
	}
	glog.Info("stopped")
}
