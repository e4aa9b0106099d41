package display

import (
	"fmt"
	"image"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/ticks"
	"github.com/robotalks/evdash/pkg/vehicle"
)

// Central display layout.
const (
	DefaultBootDuration = 5000 * time.Millisecond
	BootBanner          = " BERTONE "
)

var (
	centralTopRow  = Rect(0, 0, 127, 15)
	centralSubtext = Rect(0, 16, 127, 31)
)

type centralView struct {
	motorTemp  int
	mcuTemp    int
	isoR       int
	motorValid bool
	imdValid   bool
	entry      string
}

// Central renders the boot banner, then temperatures and insulation
// resistance, or the rotated fault entry.
type Central struct {
	surfaceRenderer
	BootDuration time.Duration

	invertOff   bool
	subtextDone bool
	last        centralView
	hasLast     bool
}

// NewCentral creates the central renderer.
func NewCentral(surface Surface, state *vehicle.State) *Central {
	return &Central{
		surfaceRenderer: newSurfaceRenderer(vehicle.SurfaceCentral, surface, state),
		BootDuration:    DefaultBootDuration,
	}
}

// Control implements Controller.
func (r *Central) Control(cc fx.ControlContext) error {
	return r.Render(cc.Ticks())
}

// Render implements Renderer.
func (r *Central) Render(now ticks.Millis) error {
	if r.disabled {
		return nil
	}
	if err := r.applyContrast(); err != nil {
		return err
	}
	if boot := r.state.CentralBoot(); boot.Active {
		return r.bootStep(boot, now)
	}

	if !r.invertOff {
		if err := r.invert(false); err != nil {
			return err
		}
		r.invertOff = true
		r.state.MarkDirty(r.id)
	}
	if !r.subtextDone {
		if err := r.drawSubtext(); err != nil {
			return err
		}
		r.subtextDone = true
	}

	view := r.view()
	if r.hasLast && view == r.last && !r.state.Dirty(r.id) {
		return nil
	}
	if err := r.clear(centralTopRow); err != nil {
		return err
	}
	if view.entry != "" {
		if err := r.text(view.entry, image.Pt(0, 0), FontSmall); err != nil {
			return err
		}
	} else {
		for _, item := range view.values() {
			if err := r.text(item.text, image.Pt(item.x, 0), FontSmall); err != nil {
				return err
			}
		}
	}
	if err := r.flush(centralTopRow); err != nil {
		return err
	}
	r.last, r.hasLast = view, true
	return nil
}

func (r *Central) bootStep(boot vehicle.Boot, now ticks.Millis) error {
	if now.Since(boot.Start) > r.BootDuration {
		boot.Active, boot.Step = false, 0
		r.state.SetCentralBoot(boot)
		r.state.MarkDirty(r.id)
		glog.V(1).Info("central boot banner done")
		return nil
	}
	switch boot.Step {
	case 0:
		if err := r.clear(centralTopRow); err != nil {
			return err
		}
		boot.Step = 1
		r.state.MarkDirty(r.id)
	case 1:
		if err := r.text(BootBanner, image.Pt(0, 0), FontSmall); err != nil {
			return err
		}
		boot.Step = 2
		r.state.MarkDirty(r.id)
	default:
		if err := r.surface.Flush(r.surface.Bounds()); err != nil {
			return r.fail("flush", err)
		}
		boot.Step = 0
		r.state.ClearDirty(r.id)
	}
	r.state.SetCentralBoot(boot)
	return nil
}

func (r *Central) drawSubtext() error {
	if err := r.clear(centralSubtext); err != nil {
		return err
	}
	labels := []struct {
		text string
		x    int
	}{{"MOTOR", 0}, {"MCU", 58}, {"ISO-R", 90}}
	for _, l := range labels {
		if err := r.text(l.text, image.Pt(l.x, 18), FontBase); err != nil {
			return err
		}
	}
	if err := r.surface.Flush(centralSubtext); err != nil {
		return r.fail("flush", err)
	}
	return nil
}

func (r *Central) view() centralView {
	tel := r.state.Telemetry()
	return centralView{
		motorTemp:  tel.MotorTemp,
		mcuTemp:    tel.MCUTemp,
		isoR:       tel.IsoR,
		motorValid: tel.MotorValid,
		imdValid:   tel.IMDValid,
		entry:      r.state.Derived().Entry(),
	}
}

type centralItem struct {
	text string
	x    int
}

// values formats the nominal top row. The MCU temperature follows the
// motor validity as both come from the same frame source.
func (v centralView) values() []centralItem {
	motor, mcu, iso := "--C", "--C", "--M"
	if v.motorValid {
		motor = fmt.Sprintf("%2dC", v.motorTemp)
		mcu = fmt.Sprintf("%2dC", v.mcuTemp)
	}
	if v.imdValid {
		iso = fmt.Sprintf("%2dM", v.isoR/1000)
	}
	return []centralItem{{motor, 0}, {mcu, 44}, {iso, 93}}
}
