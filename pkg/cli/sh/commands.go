package sh

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/evdash/pkg/link/msgs"
)

var (
	// FrameCmd injects a telemetry frame.
	FrameCmd = ishell.Cmd{
		Name:    "frame",
		Aliases: []string{"f"},
		Help:    "RPM MOTOR_TEMP MCU_TEMP [ISO_R [IMD_CODE [VIFC_CODE [MCU_FLAGS]]]]",
		Func: MustUse(func(c *ishell.Context) {
			f, err := ParseFrame(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			Send(c, f)
		}),
	}

	// PressCmd presses the mode button.
	PressCmd = ishell.Cmd{
		Name:    "press",
		Aliases: []string{"p"},
		Help:    "[long]",
		Func: MustUse(func(c *ishell.Context) {
			var long bool
			if len(c.Args) > 0 {
				if c.Args[0] != "long" {
					c.Err(fmt.Errorf("unknown press %q", c.Args[0]))
					return
				}
				long = true
			}
			Send(c, &msgs.ButtonPress{Long: long})
		}),
	}

	// DriveCmd sets the target of the simulated wheel.
	DriveCmd = ishell.Cmd{
		Name:    "drive",
		Aliases: []string{"d"},
		Help:    "SPEED [ACCEL]",
		Func: MustUse(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("speed required"))
				return
			}
			var vals [2]float64
			for n := 0; n < len(c.Args) && n < len(vals); n++ {
				v, err := strconv.ParseFloat(c.Args[n], 64)
				if err != nil {
					c.Err(err)
					return
				}
				vals[n] = v
			}
			Send(c, &msgs.Drive{Speed: vals[0], Accel: vals[1]})
		}),
	}

	// StateCmd waits for the next state report and prints it.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "",
		Func: MustUse(func(c *ishell.Context) {
			s := ShellFrom(c)
			st, err := s.Client.NextState(s.Timeout)
			if err != nil {
				c.Err(err)
				return
			}
			PrintState(c, st)
		}),
	}

	// WatchCmd prints state reports for a while.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[SECONDS]",
		Func: MustUse(func(c *ishell.Context) {
			s := ShellFrom(c)
			secs := 10
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				secs = n
			}
			deadline := time.Now().Add(time.Duration(secs) * time.Second)
			for time.Now().Before(deadline) {
				st, err := s.Client.NextState(time.Until(deadline))
				if err != nil {
					break
				}
				PrintState(c, st)
			}
		}),
	}

	// DisplayCmd prints the latest mirrored frame of a surface.
	DisplayCmd = ishell.Cmd{
		Name:    "display",
		Aliases: []string{"show"},
		Help:    "odometer|central|gear",
		Func: MustUse(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("surface required"))
				return
			}
			f := ShellFrom(c).Client.Display(c.Args[0])
			if f == nil {
				c.Err(fmt.Errorf("no frame mirrored for %s", c.Args[0]))
				return
			}
			c.Print(RenderASCII(f))
		}),
	}
)

func init() {
	AddCmds(&FrameCmd, &PressCmd, &DriveCmd, &StateCmd, &WatchCmd, &DisplayCmd)
}
