package input

import (
	"context"

	"github.com/golang/glog"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/ticks"
	"github.com/robotalks/evdash/pkg/vehicle"
)

// PointerZeroer re-references the speed pointer.
type PointerZeroer interface {
	Zero() error
}

// Saver saves the odometer immediately.
type Saver interface {
	SaveNow(ctx context.Context) error
}

// Renderer renders a surface out of schedule.
type Renderer interface {
	Render(now ticks.Millis) error
}

// Controller dispatches button actions.
type Controller struct {
	State    *vehicle.State
	Button   Button
	Pointer  PointerZeroer
	Saver    Saver
	Odometer Renderer
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	return c.Handle(cc.Context(), c.Button.ReadAndClear(), cc.Ticks())
}

// Handle performs an action. A short press cycles the display mode and
// renders the odometer immediately. A long press acts on the current
// mode and never changes it.
func (c *Controller) Handle(ctx context.Context, a Action, now ticks.Millis) error {
	switch a {
	case ActionShort:
		mode := c.State.NextMode()
		glog.V(1).Infof("display mode %s", mode)
		if c.Odometer != nil {
			return c.Odometer.Render(now)
		}
	case ActionLong:
		return c.long(ctx)
	}
	return nil
}

func (c *Controller) long(ctx context.Context) error {
	switch mode := c.State.UI().Mode; mode {
	case vehicle.ModeSpeed:
		if c.Pointer == nil {
			return nil
		}
		if err := c.Pointer.Zero(); err != nil {
			return fx.NewFault(fx.FaultHardwareIO, "pointer.zero", err)
		}
		glog.V(1).Info("speed pointer zeroed")
	case vehicle.ModeTrip:
		c.State.ResetTrip()
		glog.V(1).Info("trip reset")
		if c.Saver != nil {
			return c.Saver.SaveNow(ctx)
		}
	case vehicle.ModeTotal:
		glog.V(1).Infof("contrast %d", c.State.ToggleContrast())
	case vehicle.ModeTemp:
		glog.V(1).Infof("temperature source %s", c.State.ToggleTempSource().Label())
	}
	return nil
}
