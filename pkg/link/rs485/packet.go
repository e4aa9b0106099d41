// Package rs485 receives telemetry from an RS485 gateway. The gateway
// forwards the MOTOR and IMD messages as event packets over a
// sequence-synchronized byte stream:
//
//	sync:   0xff SEQ (request) | 0xfe SEQ (acknowledge)
//	packet: SEQ CODE [LEN] DATA...
//
// CODE carries the event flag (0x80) and the message kind in its low
// nibble. Bits 4-6 hold the data length, 7 means a LEN byte follows.
// Sequence numbers run from 1 to 0xef and wrap to 1.
package rs485

import "time"

// Seq is a packet sequence number.
type Seq byte

// NewSeq picks a random valid sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next returns the sequence number following s.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// Valid reports whether s can appear on the wire.
func (s Seq) Valid() bool {
	return s > 0 && s < 0xf0
}

// Packet codes.
const (
	CodeEvent byte = 0x80
	CodeMotor byte = 0x01
	CodeIMD   byte = 0x02

	codeMask   byte = 0x8f
	maxDataLen      = 0x7f
)

// Packet is a parsed packet.
type Packet struct {
	Seq  Seq
	Code byte
	Data []byte
}

// IsEvent reports whether the packet is unsolicited.
func (p *Packet) IsEvent() bool {
	return p.Code&CodeEvent != 0
}

// Kind is the message kind without the event flag.
func (p *Packet) Kind() byte {
	return p.Code &^ CodeEvent
}

// Bytes encodes the packet. Data beyond 127 bytes is dropped.
func (p *Packet) Bytes() []byte {
	data := p.Data
	if len(data) > maxDataLen {
		data = data[:maxDataLen]
	}
	code := p.Code & codeMask
	if len(data) < 7 {
		return append([]byte{byte(p.Seq), code | byte(len(data))<<4}, data...)
	}
	return append([]byte{byte(p.Seq), code | 0x70, byte(len(data))}, data...)
}
