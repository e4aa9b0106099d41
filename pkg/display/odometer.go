package display

import (
	"fmt"
	"image"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/ticks"
	"github.com/robotalks/evdash/pkg/vehicle"
)

var (
	odoUnitAt = image.Pt(97, 17)

	odoSpeedAt    = image.Pt(44, 5)
	odoSpeedField = Rect(44, 5, 127, 31)
	odoTotalAt    = image.Pt(0, 5)
	odoTotalField = Rect(0, 5, 127, 31)
	odoTripAt     = image.Pt(28, 5)
	odoTripField  = Rect(28, 5, 127, 31)
	odoTempAt     = image.Pt(40, 8)
	odoTempField  = Rect(40, 8, 100, 23)
)

// odoField is what one display mode puts on the odometer.
type odoField struct {
	text  string
	at    image.Point
	font  Font
	unit  string
	field image.Rectangle
}

// Odometer renders speed, total, trip or the temperature source.
type Odometer struct {
	surfaceRenderer

	lastMode vehicle.DisplayMode
	hasMode  bool
	cache    [vehicle.NumModes]string
}

// NewOdometer creates the odometer renderer.
func NewOdometer(surface Surface, state *vehicle.State) *Odometer {
	return &Odometer{surfaceRenderer: newSurfaceRenderer(vehicle.SurfaceOdometer, surface, state)}
}

// Control implements Controller.
func (r *Odometer) Control(cc fx.ControlContext) error {
	return r.Render(cc.Ticks())
}

// Render implements Renderer.
func (r *Odometer) Render(ticks.Millis) error {
	if r.disabled {
		return nil
	}
	if err := r.applyContrast(); err != nil {
		return err
	}
	mode := r.state.UI().Mode
	if !r.hasMode || mode != r.lastMode {
		r.state.MarkDirty(r.id)
		r.lastMode, r.hasMode = mode, true
	}
	f := r.field(mode)
	dirty := r.state.Dirty(r.id)
	if !dirty && f.text == r.cache[mode] {
		return nil
	}

	area := f.field
	if dirty {
		area = r.surface.Bounds()
		r.fullFlush = true
	}
	if err := r.clear(area); err != nil {
		return err
	}
	if err := r.text(f.text, f.at, f.font); err != nil {
		return err
	}
	if f.unit != "" {
		if err := r.text(f.unit, odoUnitAt, FontBase); err != nil {
			return err
		}
	}
	if err := r.flush(f.field); err != nil {
		return err
	}
	r.cache[mode] = f.text
	return nil
}

func (r *Odometer) field(mode vehicle.DisplayMode) odoField {
	kin := r.state.Kinematics()
	switch mode {
	case vehicle.ModeTotal:
		return odoField{
			text:  fmt.Sprintf("%06d", int(kin.Total)),
			at:    odoTotalAt,
			font:  FontLarge,
			unit:  "km",
			field: odoTotalField,
		}
	case vehicle.ModeTrip:
		return odoField{
			text:  FormatTrip(kin.Trip),
			at:    odoTripAt,
			font:  FontLarge,
			unit:  "km",
			field: odoTripField,
		}
	case vehicle.ModeTemp:
		return odoField{
			text:  r.state.UI().TempSource.Label(),
			at:    odoTempAt,
			font:  FontSmall,
			field: odoTempField,
		}
	}
	return odoField{
		text:  fmt.Sprintf("%3d", kin.DigitalSpeed),
		at:    odoSpeedAt,
		font:  FontLarge,
		unit:  "km/h",
		field: odoSpeedField,
	}
}

// FormatTrip formats the trip distance with one decimal, zero padded
// below 1000 km.
func FormatTrip(trip float64) string {
	if trip >= 1000 {
		return fmt.Sprintf("%.1f", trip)
	}
	return fmt.Sprintf("%05.1f", trip)
}
