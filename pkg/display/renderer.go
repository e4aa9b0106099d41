package display

import (
	"image"

	"github.com/golang/glog"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/ticks"
	"github.com/robotalks/evdash/pkg/vehicle"
)

// Renderer draws one surface from the vehicle state.
type Renderer interface {
	fx.Controller
	Render(now ticks.Millis) error
	Enabled() bool
}

// surfaceRenderer is the behavior shared by all renderers.
type surfaceRenderer struct {
	id      vehicle.Surface
	surface Surface
	state   *vehicle.State

	lastContrast int
	// fullFlush is set by a contrast change and consumed by the next
	// flush of the renderer.
	fullFlush bool
	disabled  bool
}

func newSurfaceRenderer(id vehicle.Surface, surface Surface, state *vehicle.State) surfaceRenderer {
	r := surfaceRenderer{
		id:           id,
		surface:      surface,
		state:        state,
		lastContrast: -1,
	}
	if surface == nil {
		glog.Warningf("display %s not available", id)
		r.disabled = true
	}
	return r
}

// Enabled reports whether the surface is still usable.
func (r *surfaceRenderer) Enabled() bool {
	return !r.disabled
}

// Surface returns the display surface, nil if not available.
func (r *surfaceRenderer) Surface() Surface {
	return r.surface
}

func (r *surfaceRenderer) fail(op string, err error) error {
	r.disabled = true
	glog.Errorf("display %s disabled, %s failed: %v", r.id, op, err)
	return fx.NewFault(fx.FaultHardwareIO, r.id.String()+"."+op, err)
}

// applyContrast pushes the requested contrast when it differs from the
// last applied level and forces a full redraw.
func (r *surfaceRenderer) applyContrast() error {
	level := r.state.UI().Contrast
	if level == r.lastContrast {
		return nil
	}
	if err := r.surface.SetContrast(level); err != nil {
		return r.fail("contrast", err)
	}
	r.lastContrast = level
	r.fullFlush = true
	r.state.MarkDirty(r.id)
	return nil
}

func (r *surfaceRenderer) clear(rc image.Rectangle) error {
	if err := r.surface.Clear(rc); err != nil {
		return r.fail("clear", err)
	}
	return nil
}

func (r *surfaceRenderer) text(s string, at image.Point, font Font) error {
	if err := r.surface.DrawText(s, at, font); err != nil {
		return r.fail("draw", err)
	}
	return nil
}

func (r *surfaceRenderer) invert(on bool) error {
	if err := r.surface.SetInvert(on); err != nil {
		return r.fail("invert", err)
	}
	return nil
}

// flush transfers rc, or the full surface when a full flush is
// pending, and clears the dirty flag.
func (r *surfaceRenderer) flush(rc image.Rectangle) error {
	if r.fullFlush {
		rc = r.surface.Bounds()
	}
	if err := r.surface.Flush(rc); err != nil {
		return r.fail("flush", err)
	}
	r.fullFlush = false
	r.state.ClearDirty(r.id)
	return nil
}

// ShowCrash replaces the content with the crash indicator.
func (r *surfaceRenderer) ShowCrash() error {
	if r.disabled {
		return nil
	}
	full := r.surface.Bounds()
	if err := r.clear(full); err != nil {
		return err
	}
	if err := r.invert(true); err != nil {
		return err
	}
	if err := r.text("CRASH", image.Pt(0, 8), FontBase); err != nil {
		return err
	}
	if err := r.surface.Flush(full); err != nil {
		return r.fail("flush", err)
	}
	return nil
}
