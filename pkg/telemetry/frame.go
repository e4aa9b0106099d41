package telemetry

import (
	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/vehicle"
)

// TypeTelemetry is the type tag of telemetry frames.
const TypeTelemetry = "telemetry"

// Frame is a decoded telemetry frame from the bus.
type Frame struct {
	Type          string
	MotorRPM      int
	MotorTemp     int
	MCUTemp       int
	MCUFlags      uint32
	MCUFaultLevel int
	// IsoR is the insulation resistance in kΩ, R_ISO_MAX when absent.
	IsoR       int
	IMDRaw     uint32
	VIFCRaw    uint32
	MotorValid bool
	IMDValid   bool
}

// NewFrame creates a telemetry frame with defaults resolved.
func NewFrame() Frame {
	return Frame{Type: TypeTelemetry, IsoR: vehicle.RIsoMax}
}

// Validate rejects malformed or out-of-range frames.
func (f Frame) Validate() error {
	if f.Type != TypeTelemetry {
		return invalid("unexpected type %q", f.Type)
	}
	if !f.MotorValid && !f.IMDValid {
		return invalid("no valid source")
	}
	if f.MotorValid {
		if f.MotorRPM < 0 || f.MotorRPM >= vehicle.RPMMax {
			return invalid("motor rpm %d out of range", f.MotorRPM)
		}
		if !tempInRange(f.MotorTemp) {
			return invalid("motor temperature %d out of range", f.MotorTemp)
		}
		if !tempInRange(f.MCUTemp) {
			return invalid("mcu temperature %d out of range", f.MCUTemp)
		}
	}
	if f.IMDValid {
		if f.IsoR < vehicle.RIsoMin || f.IsoR >= vehicle.RIsoMax {
			return invalid("isoR %d out of range", f.IsoR)
		}
	}
	return nil
}

// Telemetry computes the merged snapshot. Values of an invalid source
// are written as zero rather than kept from earlier frames.
func (f Frame) Telemetry() vehicle.Telemetry {
	var t vehicle.Telemetry
	if f.MotorValid {
		t.MotorRPM = f.MotorRPM
		t.MotorTemp = f.MotorTemp
		t.MCUTemp = f.MCUTemp
		t.MCUFlags = f.MCUFlags
		t.MCUFaultLevel = f.MCUFaultLevel
	}
	if f.IMDValid {
		t.IsoR = f.IsoR
		t.IMDRaw = f.IMDRaw
		t.VIFCRaw = f.VIFCRaw
	}
	t.MotorValid, t.IMDValid = f.MotorValid, f.IMDValid
	t.Status = vehicle.StatusIsoError
	if (f.MotorValid || f.IMDValid) && f.IsoR >= vehicle.RIsoWarning {
		t.Status = vehicle.StatusOK
	}
	return t
}

func tempInRange(temp int) bool {
	return temp >= vehicle.TempMin && temp <= vehicle.TempMax
}

func invalid(format string, args ...interface{}) error {
	return fx.Faultf(fx.FaultValidation, "validate", format, args...)
}
