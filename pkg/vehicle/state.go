// Package vehicle holds the shared vehicle state of the dashboard.
//
// The State is owned by the scheduler and passed by reference to every
// task. It is not synchronized: tasks run one at a time on the loop.
// Each field group has a designated writer, and all writes go through
// the update operations below.
package vehicle

import (
	"math"

	"github.com/robotalks/evdash/pkg/ticks"
)

// Boot tracks the boot banner of the central surface.
type Boot struct {
	Active bool
	Start  ticks.Millis
	Step   int
}

// StopTracker is the persistence bookkeeping of stop episodes.
type StopTracker struct {
	LastSpeed float64
	// Stopping is set while a stop-start timestamp is recorded.
	Stopping  bool
	StopStart ticks.Micros
	// Saved is the one-shot flag of the current stop episode.
	Saved    bool
	LastSave ticks.Micros
}

// State is the shared vehicle state.
type State struct {
	kin Kinematics
	tel Telemetry

	lastValidMotor ticks.Millis
	lastValidIMD   ticks.Millis
	lastValidAny   ticks.Millis

	derived Derived
	ui      UI
	dirty   [NumSurfaces]bool
	boot    Boot
	stop    StopTracker
}

// New creates the State at boot time. The staleness windows start at
// now so sources are not expired before the first frame can arrive.
func New(now ticks.Millis) *State {
	return &State{
		tel:            DefaultTelemetry(),
		lastValidMotor: now,
		lastValidIMD:   now,
		lastValidAny:   now,
		derived: Derived{
			Gear: ' ',
		},
		ui: UI{
			Mode:       ModeSpeed,
			TempSource: TempMotor,
			Contrast:   ContrastHigh,
		},
		boot: Boot{Active: true, Start: now},
	}
}

// Kinematics returns the motion snapshot.
func (s *State) Kinematics() Kinematics {
	return s.kin
}

// Telemetry returns the telemetry snapshot.
func (s *State) Telemetry() Telemetry {
	return s.tel
}

// Derived returns the derived status. The stack is copied.
func (s *State) Derived() Derived {
	d := s.derived
	d.Stack = append([]string(nil), s.derived.Stack...)
	return d
}

// UI returns the presentation state.
func (s *State) UI() UI {
	return s.ui
}

// Odometer returns the distances to persist.
func (s *State) Odometer() Odometer {
	return Odometer{Total: s.kin.Total, Trip: s.kin.Trip}
}

// LoadOdometer seeds the distances from storage. This is the only
// operation allowed to lower the total.
func (s *State) LoadOdometer(o Odometer) {
	s.kin.Total, s.kin.Trip = o.Total, o.Trip
}

// ApplyMotion records a speed sample and accumulates the distance
// increment. Negative increments are ignored so the total never
// decreases.
func (s *State) ApplyMotion(speed, increment float64) {
	s.kin.Speed = speed
	s.kin.DigitalSpeed = int(math.Round(speed))
	if increment > 0 {
		s.kin.Total += increment
		s.kin.Trip += increment
	}
}

// ResetTrip zeroes the trip distance.
func (s *State) ResetTrip() {
	s.kin.Trip = 0
}

// MergeTelemetry replaces the telemetry snapshot with a merged frame
// and stamps the last-valid times of the sources it carried.
func (s *State) MergeTelemetry(t Telemetry, now ticks.Millis) {
	s.tel = t
	if t.MotorValid {
		s.lastValidMotor = now
	}
	if t.IMDValid {
		s.lastValidIMD = now
	}
	s.lastValidAny = now
}

// LastValid returns the last-valid times of motor, IMD and any data.
func (s *State) LastValid() (motor, imd, data ticks.Millis) {
	return s.lastValidMotor, s.lastValidIMD, s.lastValidAny
}

// InvalidateMotor forces the motor source invalid.
func (s *State) InvalidateMotor() {
	s.tel.MotorValid = false
}

// InvalidateIMD forces the IMD source invalid.
func (s *State) InvalidateIMD() {
	s.tel.IMDValid = false
}

// SetStatus overwrites the system status.
func (s *State) SetStatus(status SystemStatus) {
	s.tel.Status = status
}

// UpdateStatusStrings stores the derived status strings and reports
// whether any of them changed.
func (s *State) UpdateStatusStrings(mcu, imd, vifc string) bool {
	d := &s.derived
	if d.MCUStatus == mcu && d.IMDStatus == imd && d.VIFCStatus == vifc {
		return false
	}
	d.MCUStatus, d.IMDStatus, d.VIFCStatus = mcu, imd, vifc
	return true
}

// SetFaultStack replaces the fault stack. When the sequence differs
// the rotation index restarts at 0 and the central surface is marked
// dirty. It reports whether the stack changed.
func (s *State) SetFaultStack(stack []string) bool {
	if equalStrings(stack, s.derived.Stack) {
		return false
	}
	s.derived.Stack = append([]string(nil), stack...)
	s.derived.Index = 0
	s.dirty[SurfaceCentral] = true
	return true
}

// SetRotationIndex moves the rotation index, clamped to
// [0, len(stack)]. The central surface is marked dirty only when the
// index actually changes.
func (s *State) SetRotationIndex(index int) {
	if index < 0 || index > len(s.derived.Stack) {
		index = 0
	}
	if index != s.derived.Index {
		s.derived.Index = index
		s.dirty[SurfaceCentral] = true
	}
}

// SetGear stores the gear character. The gear surface is marked dirty
// when the character changed.
func (s *State) SetGear(gear rune) bool {
	if s.derived.Gear == gear {
		return false
	}
	s.derived.Gear = gear
	s.dirty[SurfaceGear] = true
	return true
}

// NextMode advances the display mode cyclically.
func (s *State) NextMode() DisplayMode {
	s.ui.Mode = s.ui.Mode.Next()
	return s.ui.Mode
}

// ToggleContrast switches between the two contrast levels.
func (s *State) ToggleContrast() int {
	if s.ui.Contrast == ContrastHigh {
		s.ui.Contrast = ContrastLow
	} else {
		s.ui.Contrast = ContrastHigh
	}
	return s.ui.Contrast
}

// ToggleTempSource switches the temperature source.
func (s *State) ToggleTempSource() TempSource {
	s.ui.TempSource = s.ui.TempSource.Toggle()
	return s.ui.TempSource
}

// MarkDirty requests a redraw of the surface.
func (s *State) MarkDirty(surface Surface) {
	s.dirty[surface] = true
}

// Dirty reports whether the surface has a pending forced redraw.
func (s *State) Dirty(surface Surface) bool {
	return s.dirty[surface]
}

// ClearDirty is called by the renderer of the surface after a
// successful flush.
func (s *State) ClearDirty(surface Surface) {
	s.dirty[surface] = false
}

// CentralBoot returns the boot banner progress.
func (s *State) CentralBoot() Boot {
	return s.boot
}

// SetCentralBoot stores the boot banner progress.
func (s *State) SetCentralBoot(b Boot) {
	s.boot = b
}

// Stop returns the stop-episode bookkeeping.
func (s *State) Stop() StopTracker {
	return s.stop
}

// SetStop stores the stop-episode bookkeeping.
func (s *State) SetStop(t StopTracker) {
	s.stop = t
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
