package display

import (
	"image"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/ticks"
	"github.com/robotalks/evdash/pkg/vehicle"
)

var (
	gearAt    = image.Pt(24, 5)
	gearField = Rect(24, 5, 39, 25)
)

// Gear renders the gear selector, inverted in reverse.
type Gear struct {
	surfaceRenderer

	lastChar   rune
	hasChar    bool
	lastInvert bool
	hasInvert  bool
}

// NewGear creates the gear renderer.
func NewGear(surface Surface, state *vehicle.State) *Gear {
	return &Gear{surfaceRenderer: newSurfaceRenderer(vehicle.SurfaceGear, surface, state)}
}

// Control implements Controller.
func (r *Gear) Control(cc fx.ControlContext) error {
	return r.Render(cc.Ticks())
}

// Render implements Renderer.
func (r *Gear) Render(ticks.Millis) error {
	if r.disabled {
		return nil
	}
	if err := r.applyContrast(); err != nil {
		return err
	}
	ch := ' '
	if r.state.Telemetry().MotorValid {
		ch = r.state.Derived().Gear
	}
	inv := ch == 'R'
	if !r.hasInvert || inv != r.lastInvert {
		if err := r.invert(inv); err != nil {
			return err
		}
		r.lastInvert, r.hasInvert = inv, true
		r.state.MarkDirty(r.id)
	}
	if r.hasChar && ch == r.lastChar && !r.state.Dirty(r.id) {
		return nil
	}
	if err := r.clear(gearField); err != nil {
		return err
	}
	if err := r.text(string(ch), gearAt, FontLarge); err != nil {
		return err
	}
	if err := r.flush(gearField); err != nil {
		return err
	}
	r.lastChar, r.hasChar = ch, true
	return nil
}
