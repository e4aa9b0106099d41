package status

import "fmt"

// Severity orders the MCU faults when several bits are set.
type Severity int

// Severities.
const (
	SeverityWarning Severity = iota
	SeverityCritical
)

// MCUFault is a fault bit of the MCU flags word.
type MCUFault uint32

// MCU fault bits, carried in bits 8-15 of the flags.
const (
	MCUFaultOverTemp MCUFault = 1 << (8 + iota)
	MCUFaultOverVoltage
	MCUFaultUnderVoltage
	MCUFaultOverCurrent
	MCUFaultHallSensor
	MCUFaultMotorTemp
	MCUFaultThrottle
	MCUFaultInternal
)

// FaultConfig describes how a fault is shown.
type FaultConfig struct {
	Fault    MCUFault
	Name     string
	Severity Severity
}

// mcuFaults lists the faults in reporting priority.
var mcuFaults = []FaultConfig{
	{MCUFaultOverCurrent, "MCU OVERCURR", SeverityCritical},
	{MCUFaultHallSensor, "MCU HALL ERR", SeverityCritical},
	{MCUFaultInternal, "MCU INTERNAL", SeverityCritical},
	{MCUFaultOverTemp, "MCU OVERTEMP", SeverityCritical},
	{MCUFaultOverVoltage, "MCU OVERVOLT", SeverityCritical},
	{MCUFaultUnderVoltage, "MCU UNDERVOLT", SeverityCritical},
	{MCUFaultMotorTemp, "MCU MOTOR HOT", SeverityWarning},
	{MCUFaultThrottle, "MCU THROTTLE", SeverityWarning},
}

const (
	mcuGearMask  = 0x3
	mcuFaultMask = 0xff00
)

// MCUState maps the MCU flags to its status string.
func MCUState(flags uint32) string {
	if flags&mcuFaultMask == 0 {
		return "MCU OK"
	}
	for _, c := range mcuFaults {
		if flags&uint32(c.Fault) != 0 {
			return c.Name
		}
	}
	return "MCU FAULT"
}

// MCUFaults returns all the active faults in priority order.
func MCUFaults(flags uint32) []FaultConfig {
	var faults []FaultConfig
	for _, c := range mcuFaults {
		if flags&uint32(c.Fault) != 0 {
			faults = append(faults, c)
		}
	}
	return faults
}

var imdStates = map[uint32]string{
	0: "IMD NDT",
	1: "IMD OK",
	2: "IMD ISO WARN",
	3: "IMD ISO FAULT",
	4: "IMD DEVICE ERR",
	5: "IMD SELFTEST",
	6: "IMD CONN ERR",
}

// IMDState maps the raw IMD code.
func IMDState(raw uint32) string {
	if s, ok := imdStates[raw]; ok {
		return s
	}
	return fmt.Sprintf("IMD CODE %d", raw)
}

var vifcStates = map[uint32]string{
	0: "VI NDT",
	1: "VI OK",
	2: "VI OVERVOLT",
	3: "VI UNDERVOLT",
	4: "VI COMM ERR",
	5: "VI PRECHARGE",
}

// VIFCState maps the raw VIFC code.
func VIFCState(raw uint32) string {
	if s, ok := vifcStates[raw]; ok {
		return s
	}
	return fmt.Sprintf("VI CODE %d", raw)
}

var gearChars = [...]rune{'N', 'D', 'R', '?'}

// GearChar extracts the gear selector from bits 0-1 of the MCU flags.
func GearChar(flags uint32) rune {
	return gearChars[flags&mcuGearMask]
}
