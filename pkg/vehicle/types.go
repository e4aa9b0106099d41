package vehicle

import "fmt"

// Telemetry limits and thresholds.
const (
	RIsoMin     = 0
	RIsoMax     = 50000
	RIsoWarning = 400
	RIsoError   = 250
	RPMMax      = 12000
	TempMin     = -40
	TempMax     = 150
)

// SystemStatus is the overall telemetry status.
type SystemStatus int

// System status values.
const (
	StatusWaitingForData SystemStatus = iota
	StatusOK
	StatusIsoError
	StatusNoDataTimeout
)

var statusNames = [...]string{
	StatusWaitingForData: "WAITING_FOR_DATA",
	StatusOK:             "OK",
	StatusIsoError:       "ISO_ERROR",
	StatusNoDataTimeout:  "NO_DATA_TIMEOUT",
}

// String implements fmt.Stringer.
func (s SystemStatus) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("STATUS(%d)", int(s))
}

// DisplayMode selects what the odometer surface shows.
type DisplayMode int

// Display modes in short-press order.
const (
	ModeSpeed DisplayMode = iota
	ModeTotal
	ModeTrip
	ModeTemp

	NumModes = 4
)

var modeNames = [...]string{"speed", "total", "trip", "temp"}

// Next returns the mode following m cyclically.
func (m DisplayMode) Next() DisplayMode {
	return (m + 1) % NumModes
}

// String implements fmt.Stringer.
func (m DisplayMode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// TempSource selects the temperature shown on the gauge.
type TempSource int

// Temperature sources.
const (
	TempMCU   TempSource = 0
	TempMotor TempSource = 1
)

// Label returns the display label of the source.
func (s TempSource) Label() string {
	if s == TempMotor {
		return "MOTOR"
	}
	return "MCU"
}

// Toggle returns the other source.
func (s TempSource) Toggle() TempSource {
	return 1 - s
}

// Contrast levels of the displays.
const (
	ContrastHigh = 255
	ContrastLow  = 42
)

// Surface identifies a physical display.
type Surface int

// Surfaces.
const (
	SurfaceOdometer Surface = iota
	SurfaceCentral
	SurfaceGear

	NumSurfaces = 3
)

var surfaceNames = [...]string{"odometer", "central", "gear"}

// String implements fmt.Stringer.
func (s Surface) String() string {
	if s >= 0 && int(s) < len(surfaceNames) {
		return surfaceNames[s]
	}
	return fmt.Sprintf("surface(%d)", int(s))
}

// Kinematics is the computed motion state.
type Kinematics struct {
	Speed        float64
	DigitalSpeed int
	Total        float64
	Trip         float64
}

// Telemetry is the latest merged telemetry snapshot.
type Telemetry struct {
	MotorRPM      int
	MotorTemp     int
	MCUTemp       int
	MCUFlags      uint32
	MCUFaultLevel int
	IsoR          int
	IMDRaw        uint32
	VIFCRaw       uint32
	MotorValid    bool
	IMDValid      bool
	Status        SystemStatus
}

// Temperature returns the temperature of the selected source.
func (t Telemetry) Temperature(src TempSource) int {
	if src == TempMotor {
		return t.MotorTemp
	}
	return t.MCUTemp
}

// DefaultTelemetry is the snapshot before any frame is merged.
func DefaultTelemetry() Telemetry {
	return Telemetry{IsoR: RIsoMax, Status: StatusWaitingForData}
}

// Derived is the status computed from raw fault codes.
type Derived struct {
	MCUStatus  string
	IMDStatus  string
	VIFCStatus string
	Stack      []string
	Index      int
	Gear       rune
}

// Entry returns the fault entry selected by the rotation index, or ""
// for the nominal view at index 0.
func (d Derived) Entry() string {
	if d.Index > 0 && d.Index <= len(d.Stack) {
		return d.Stack[d.Index-1]
	}
	return ""
}

// UI is the user-selected presentation state.
type UI struct {
	Mode       DisplayMode
	TempSource TempSource
	Contrast   int
}

// Odometer is the persisted distance pair in km.
type Odometer struct {
	Total float64
	Trip  float64
}
