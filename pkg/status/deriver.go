// Package status derives the human readable status strings, the fault
// stack shown on the central display and the gear selector.
package status

import (
	"strings"

	"github.com/golang/glog"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/vehicle"
)

// Deriver maps the raw telemetry codes into the derived status.
type Deriver struct {
	State *vehicle.State
}

// Control implements Controller.
func (d *Deriver) Control(fx.ControlContext) error {
	d.Derive()
	return nil
}

// Derive recomputes the status strings and the gear. The fault stack
// is only rebuilt when one of the strings changed.
func (d *Deriver) Derive() {
	tel := d.State.Telemetry()
	if d.State.SetGear(GearChar(tel.MCUFlags)) {
		glog.V(1).Infof("gear: %c", d.State.Derived().Gear)
	}
	mcu := MCUState(tel.MCUFlags)
	imd := IMDState(tel.IMDRaw)
	vifc := VIFCState(tel.VIFCRaw)
	if !d.State.UpdateStatusStrings(mcu, imd, vifc) {
		return
	}
	stack := FaultStack(mcu, imd, vifc)
	if d.State.SetFaultStack(stack) {
		glog.Infof("fault stack changed: %v", stack)
	}
}

// FaultStack returns the statuses which are neither nominal nor
// undetermined, in the given order.
func FaultStack(statuses ...string) []string {
	var stack []string
	for _, s := range statuses {
		if IsFault(s) {
			stack = append(stack, s)
		}
	}
	return stack
}

// IsFault determines whether a status string reports a fault.
func IsFault(s string) bool {
	return !strings.Contains(s, "OK") && !strings.Contains(s, "NDT")
}

// Rotator cycles the central display through the fault stack.
type Rotator struct {
	State *vehicle.State
}

// Control implements Controller.
func (r *Rotator) Control(fx.ControlContext) error {
	r.Rotate()
	return nil
}

// Rotate advances the rotation index. Index 0 is the nominal view,
// 1..len(stack) select the stack entries.
func (r *Rotator) Rotate() {
	d := r.State.Derived()
	if n := len(d.Stack); n > 0 {
		r.State.SetRotationIndex((d.Index + 1) % (n + 1))
		return
	}
	r.State.SetRotationIndex(0)
}
