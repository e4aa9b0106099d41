package display

import (
	"github.com/pkg/errors"

	"github.com/robotalks/evdash/pkg/vehicle"
)

// Set groups the renderers of all surfaces.
type Set struct {
	Odometer *Odometer
	Central  *Central
	Gear     *Gear
}

// NewSet creates renderers for the given surfaces, nil surfaces are
// disabled.
func NewSet(state *vehicle.State, odometer, central, gear Surface) *Set {
	return &Set{
		Odometer: NewOdometer(odometer, state),
		Central:  NewCentral(central, state),
		Gear:     NewGear(gear, state),
	}
}

// Renderers returns the renderers in scheduling order.
func (s *Set) Renderers() []Renderer {
	return []Renderer{s.Odometer, s.Central, s.Gear}
}

// ShowCrash puts the crash indicator on the gear surface, or on the
// central surface when the gear surface is gone.
func (s *Set) ShowCrash() error {
	if s.Gear.Enabled() {
		return s.Gear.ShowCrash()
	}
	if s.Central.Enabled() {
		return s.Central.ShowCrash()
	}
	return errors.New("no display available for crash indicator")
}

// Enabled lists the names of the surfaces still in use.
func (s *Set) Enabled() []string {
	var names []string
	for i, r := range s.Renderers() {
		if r.Enabled() {
			names = append(names, vehicle.Surface(i).String())
		}
	}
	return names
}
