package sh

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/robotalks/evdash/pkg/link/msgs"
	"github.com/robotalks/evdash/pkg/telemetry"
)

// RenderASCII draws a mirrored display frame, two rows per line.
func RenderASCII(f *msgs.DisplayFrame) string {
	on, off := '#', ' '
	if f.Invert {
		on, off = off, on
	}
	var w bytes.Buffer
	border := "+" + strings.Repeat("-", int(f.Width)) + "+\n"
	w.WriteString(border)
	for y := 0; y < int(f.Height); y += 2 {
		w.WriteByte('|')
		for x := 0; x < int(f.Width); x++ {
			top, bottom := f.Pixel(x, y), f.Pixel(x, y+1)
			switch {
			case top && bottom:
				w.WriteRune(on)
			case top:
				if on == '#' {
					w.WriteRune('"')
				} else {
					w.WriteRune('.')
				}
			case bottom:
				if on == '#' {
					w.WriteRune('.')
				} else {
					w.WriteRune('"')
				}
			default:
				w.WriteRune(off)
			}
		}
		w.WriteString("|\n")
	}
	w.WriteString(border)
	return w.String()
}

// FormatState prints a state report on a few lines.
func FormatState(s *msgs.DashState) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s: %s gear=%s mode=%s temp=%s contrast=%d\n",
		s.Id, s.Status, s.Gear, s.Mode, s.TempSource, s.Contrast)
	fmt.Fprintf(&w, "  speed=%.1fkm/h total=%.1fkm trip=%.1fkm\n", s.Speed, s.Total, s.Trip)
	fmt.Fprintf(&w, "  rpm=%d motor=%dC mcu=%dC isoR=%dk motor_valid=%v imd_valid=%v\n",
		s.MotorRpm, s.MotorTemp, s.McuTemp, s.IsoR, s.MotorValid, s.ImdValid)
	if len(s.FaultStack) > 0 {
		fmt.Fprintf(&w, "  faults=%s (showing %d)\n", strings.Join(s.FaultStack, ", "), s.FaultIndex)
	}
	fmt.Fprintf(&w, "  surfaces=%s drops=%d", strings.Join(s.Surfaces, ","), s.QueueDrops)
	return w.String()
}

// ParseFrame builds a telemetry frame from shell arguments:
//
//	RPM MOTOR_TEMP MCU_TEMP [ISO_R [IMD_CODE [VIFC_CODE [MCU_FLAGS]]]]
//
// The motor source is always valid, the IMD source is valid when ISO_R
// is given.
func ParseFrame(args []string) (*msgs.TelemetryFrame, error) {
	if len(args) < 3 {
		return nil, errors.New("RPM MOTOR_TEMP MCU_TEMP required")
	}
	var vals [7]int64
	for n, arg := range args {
		if n >= len(vals) {
			return nil, errors.Errorf("too many arguments")
		}
		v, err := strconv.ParseInt(arg, 0, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", n+1)
		}
		vals[n] = v
	}
	f := &msgs.TelemetryFrame{
		Type:       telemetry.TypeTelemetry,
		MotorRpm:   int32(vals[0]),
		MotorTemp:  int32(vals[1]),
		McuTemp:    int32(vals[2]),
		MotorValid: true,
	}
	if len(args) > 3 {
		f.ImdIsoR, f.HasImdIsoR, f.ImdValid = int32(vals[3]), true, true
		f.ImdStatusRaw = uint32(vals[4])
		f.VifcStatusRaw = uint32(vals[5])
		f.McuFlags = uint32(vals[6])
	}
	return f, nil
}
