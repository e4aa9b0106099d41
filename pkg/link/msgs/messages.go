package msgs

import "github.com/golang/protobuf/proto"

// Type IDs
const (
	TypeIDGroupDash uint32 = 0x00010000

	ButtonPressTypeID    = TypeIDKindCommand | TypeIDGroupDash | 0x0001
	DriveTypeID          = TypeIDKindCommand | TypeIDGroupDash | 0x0002
	TelemetryFrameTypeID = TypeIDKindEvent | TypeIDGroupDash | 0x0001
	DashStateTypeID      = TypeIDKindEvent | TypeIDGroupDash | 0x0002
	DisplayFrameTypeID   = TypeIDKindEvent | TypeIDGroupDash | 0x0003
)

// ButtonPress injects a press of the mode button.
type ButtonPress struct {
	Long bool `protobuf:"varint,1,opt,name=long,proto3" json:"long,omitempty"`
}

// NewMessage implements Message.
func (m *ButtonPress) NewMessage() Message { return &ButtonPress{} }

// TypeID implements Message.
func (m *ButtonPress) TypeID() uint32 { return ButtonPressTypeID }

// ProtoMessage implements proto.Message.
func (m *ButtonPress) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ButtonPress) Reset() { *m = ButtonPress{} }

// String implements proto.Message.
func (m *ButtonPress) String() string { return proto.CompactTextString(m) }

// Drive sets the target of the simulated wheel.
type Drive struct {
	// Speed is the desired speed in km/h.
	Speed float64 `protobuf:"fixed64,1,opt,name=speed,proto3" json:"speed,omitempty"`
	// Accel is the acceleration in km/h per second, 0 to use the default.
	Accel float64 `protobuf:"fixed64,2,opt,name=accel,proto3" json:"accel,omitempty"`
}

// NewMessage implements Message.
func (m *Drive) NewMessage() Message { return &Drive{} }

// TypeID implements Message.
func (m *Drive) TypeID() uint32 { return DriveTypeID }

// ProtoMessage implements proto.Message.
func (m *Drive) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Drive) Reset() { *m = Drive{} }

// String implements proto.Message.
func (m *Drive) String() string { return proto.CompactTextString(m) }

// TelemetryFrame is a telemetry frame on the bus.
type TelemetryFrame struct {
	Type          string `protobuf:"bytes,1,opt,name=type,proto3" json:"type,omitempty"`
	MotorRpm      int32  `protobuf:"varint,2,opt,name=motor_rpm,json=motorRpm,proto3" json:"motor_rpm,omitempty"`
	MotorTemp     int32  `protobuf:"zigzag32,3,opt,name=motor_temp,json=motorTemp,proto3" json:"motor_temp,omitempty"`
	McuTemp       int32  `protobuf:"zigzag32,4,opt,name=mcu_temp,json=mcuTemp,proto3" json:"mcu_temp,omitempty"`
	McuFlags      uint32 `protobuf:"varint,5,opt,name=mcu_flags,json=mcuFlags,proto3" json:"mcu_flags,omitempty"`
	McuFaultLevel int32  `protobuf:"varint,6,opt,name=mcu_fault_level,json=mcuFaultLevel,proto3" json:"mcu_fault_level,omitempty"`
	// ImdIsoR is sent only when present, zero means absent.
	ImdIsoR       int32  `protobuf:"varint,7,opt,name=imd_iso_r,json=imdIsoR,proto3" json:"imd_iso_r,omitempty"`
	HasImdIsoR    bool   `protobuf:"varint,8,opt,name=has_imd_iso_r,json=hasImdIsoR,proto3" json:"has_imd_iso_r,omitempty"`
	ImdStatusRaw  uint32 `protobuf:"varint,9,opt,name=imd_status_raw,json=imdStatusRaw,proto3" json:"imd_status_raw,omitempty"`
	VifcStatusRaw uint32 `protobuf:"varint,10,opt,name=vifc_status_raw,json=vifcStatusRaw,proto3" json:"vifc_status_raw,omitempty"`
	MotorValid    bool   `protobuf:"varint,11,opt,name=motor_valid,json=motorValid,proto3" json:"motor_valid,omitempty"`
	ImdValid      bool   `protobuf:"varint,12,opt,name=imd_valid,json=imdValid,proto3" json:"imd_valid,omitempty"`
}

// NewMessage implements Message.
func (m *TelemetryFrame) NewMessage() Message { return &TelemetryFrame{} }

// TypeID implements Message.
func (m *TelemetryFrame) TypeID() uint32 { return TelemetryFrameTypeID }

// ProtoMessage implements proto.Message.
func (m *TelemetryFrame) ProtoMessage() {}

// Reset implements proto.Message.
func (m *TelemetryFrame) Reset() { *m = TelemetryFrame{} }

// String implements proto.Message.
func (m *TelemetryFrame) String() string { return proto.CompactTextString(m) }

// DashState is the periodic state report.
type DashState struct {
	Id         string   `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Speed      float64  `protobuf:"fixed64,2,opt,name=speed,proto3" json:"speed,omitempty"`
	Total      float64  `protobuf:"fixed64,3,opt,name=total,proto3" json:"total,omitempty"`
	Trip       float64  `protobuf:"fixed64,4,opt,name=trip,proto3" json:"trip,omitempty"`
	Mode       string   `protobuf:"bytes,5,opt,name=mode,proto3" json:"mode,omitempty"`
	TempSource string   `protobuf:"bytes,6,opt,name=temp_source,json=tempSource,proto3" json:"temp_source,omitempty"`
	Contrast   int32    `protobuf:"varint,7,opt,name=contrast,proto3" json:"contrast,omitempty"`
	Status     string   `protobuf:"bytes,8,opt,name=status,proto3" json:"status,omitempty"`
	MotorRpm   int32    `protobuf:"varint,9,opt,name=motor_rpm,json=motorRpm,proto3" json:"motor_rpm,omitempty"`
	MotorTemp  int32    `protobuf:"zigzag32,10,opt,name=motor_temp,json=motorTemp,proto3" json:"motor_temp,omitempty"`
	McuTemp    int32    `protobuf:"zigzag32,11,opt,name=mcu_temp,json=mcuTemp,proto3" json:"mcu_temp,omitempty"`
	IsoR       int32    `protobuf:"varint,12,opt,name=iso_r,json=isoR,proto3" json:"iso_r,omitempty"`
	MotorValid bool     `protobuf:"varint,13,opt,name=motor_valid,json=motorValid,proto3" json:"motor_valid,omitempty"`
	ImdValid   bool     `protobuf:"varint,14,opt,name=imd_valid,json=imdValid,proto3" json:"imd_valid,omitempty"`
	Gear       string   `protobuf:"bytes,15,opt,name=gear,proto3" json:"gear,omitempty"`
	FaultStack []string `protobuf:"bytes,16,rep,name=fault_stack,json=faultStack,proto3" json:"fault_stack,omitempty"`
	FaultIndex int32    `protobuf:"varint,17,opt,name=fault_index,json=faultIndex,proto3" json:"fault_index,omitempty"`
	Surfaces   []string `protobuf:"bytes,18,rep,name=surfaces,proto3" json:"surfaces,omitempty"`
	QueueDrops uint64   `protobuf:"varint,19,opt,name=queue_drops,json=queueDrops,proto3" json:"queue_drops,omitempty"`
}

// NewMessage implements Message.
func (m *DashState) NewMessage() Message { return &DashState{} }

// TypeID implements Message.
func (m *DashState) TypeID() uint32 { return DashStateTypeID }

// ProtoMessage implements proto.Message.
func (m *DashState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DashState) Reset() { *m = DashState{} }

// String implements proto.Message.
func (m *DashState) String() string { return proto.CompactTextString(m) }

// DisplayFrame mirrors a flushed display region.
type DisplayFrame struct {
	Surface string `protobuf:"bytes,1,opt,name=surface,proto3" json:"surface,omitempty"`
	Width   int32  `protobuf:"varint,2,opt,name=width,proto3" json:"width,omitempty"`
	Height  int32  `protobuf:"varint,3,opt,name=height,proto3" json:"height,omitempty"`
	Invert  bool   `protobuf:"varint,4,opt,name=invert,proto3" json:"invert,omitempty"`
	// Pix is the whole surface in SSD1306 page layout.
	Pix []byte `protobuf:"bytes,5,opt,name=pix,proto3" json:"pix,omitempty"`
}

// NewMessage implements Message.
func (m *DisplayFrame) NewMessage() Message { return &DisplayFrame{} }

// TypeID implements Message.
func (m *DisplayFrame) TypeID() uint32 { return DisplayFrameTypeID }

// ProtoMessage implements proto.Message.
func (m *DisplayFrame) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DisplayFrame) Reset() { *m = DisplayFrame{} }

// String implements proto.Message.
func (m *DisplayFrame) String() string { return proto.CompactTextString(m) }

// Pixel reports whether the pixel at x, y is lit.
func (m *DisplayFrame) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= int(m.Width) || y >= int(m.Height) {
		return false
	}
	idx := (y/8)*int(m.Width) + x
	if idx >= len(m.Pix) {
		return false
	}
	return m.Pix[idx]&(1<<uint(y&7)) != 0
}
