package link

import (
	"github.com/robotalks/evdash/pkg/link/msgs"
	"github.com/robotalks/evdash/pkg/telemetry"
	"github.com/robotalks/evdash/pkg/vehicle"
)

// FrameFromMsg converts a wire message into a telemetry frame. An
// absent insulation resistance defaults to R_ISO_MAX.
func FrameFromMsg(m *msgs.TelemetryFrame) telemetry.Frame {
	f := telemetry.Frame{
		Type:          m.Type,
		MotorRPM:      int(m.MotorRpm),
		MotorTemp:     int(m.MotorTemp),
		MCUTemp:       int(m.McuTemp),
		MCUFlags:      m.McuFlags,
		MCUFaultLevel: int(m.McuFaultLevel),
		IsoR:          vehicle.RIsoMax,
		IMDRaw:        m.ImdStatusRaw,
		VIFCRaw:       m.VifcStatusRaw,
		MotorValid:    m.MotorValid,
		IMDValid:      m.ImdValid,
	}
	if f.Type == "" {
		f.Type = telemetry.TypeTelemetry
	}
	if m.HasImdIsoR {
		f.IsoR = int(m.ImdIsoR)
	}
	return f
}

// FrameToMsg converts a telemetry frame into the wire message.
func FrameToMsg(f telemetry.Frame) *msgs.TelemetryFrame {
	return &msgs.TelemetryFrame{
		Type:          f.Type,
		MotorRpm:      int32(f.MotorRPM),
		MotorTemp:     int32(f.MotorTemp),
		McuTemp:       int32(f.MCUTemp),
		McuFlags:      f.MCUFlags,
		McuFaultLevel: int32(f.MCUFaultLevel),
		ImdIsoR:       int32(f.IsoR),
		HasImdIsoR:    f.IsoR != vehicle.RIsoMax,
		ImdStatusRaw:  f.IMDRaw,
		VifcStatusRaw: f.VIFCRaw,
		MotorValid:    f.MotorValid,
		ImdValid:      f.IMDValid,
	}
}

// StateMsg snapshots the vehicle state into a DashState report.
func StateMsg(id string, s *vehicle.State) *msgs.DashState {
	kin, tel, d, ui := s.Kinematics(), s.Telemetry(), s.Derived(), s.UI()
	return &msgs.DashState{
		Id:         id,
		Speed:      kin.Speed,
		Total:      kin.Total,
		Trip:       kin.Trip,
		Mode:       ui.Mode.String(),
		TempSource: ui.TempSource.Label(),
		Contrast:   int32(ui.Contrast),
		Status:     tel.Status.String(),
		MotorRpm:   int32(tel.MotorRPM),
		MotorTemp:  int32(tel.MotorTemp),
		McuTemp:    int32(tel.MCUTemp),
		IsoR:       int32(tel.IsoR),
		MotorValid: tel.MotorValid,
		ImdValid:   tel.IMDValid,
		Gear:       string(d.Gear),
		FaultStack: d.Stack,
		FaultIndex: int32(d.Index),
	}
}
