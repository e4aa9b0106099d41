// Package canbus assembles telemetry frames from CAN messages.
package canbus

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/brutella/can"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/evdash/pkg/telemetry"
)

// CAN IDs of the telemetry messages.
const (
	IDMotor uint32 = 0x180
	IDIMD   uint32 = 0x280
)

// DefaultCarryOver is how long the last message of the other source
// stays valid when a frame is assembled.
const DefaultCarryOver = 500 * time.Millisecond

// Bus is the part of *can.Bus used by the receiver.
type Bus interface {
	SubscribeFunc(can.HandlerFunc)
	ConnectAndPublish() error
	Disconnect() error
}

// Assembler turns MOTOR and IMD messages into telemetry frames.
type Assembler struct {
	CarryOver time.Duration
	Now       func() time.Time

	motor   telemetry.Frame
	motorAt time.Time
	imd     telemetry.Frame
	imdAt   time.Time
}

// NewAssembler creates an Assembler.
func NewAssembler() *Assembler {
	return &Assembler{CarryOver: DefaultCarryOver, Now: time.Now}
}

// Assemble decodes a CAN frame. ok is false for unrelated IDs.
func (a *Assembler) Assemble(frame can.Frame) (f telemetry.Frame, ok bool, err error) {
	now := a.Now()
	switch frame.ID {
	case IDMotor:
		if frame.Length < 7 {
			return f, false, errors.Errorf("motor frame too short: %d", frame.Length)
		}
		d := frame.Data
		a.motor = telemetry.Frame{
			MotorRPM:      int(binary.LittleEndian.Uint16(d[0:2])),
			MotorTemp:     int(int8(d[2])),
			MCUTemp:       int(int8(d[3])),
			MCUFlags:      uint32(binary.LittleEndian.Uint16(d[4:6])),
			MCUFaultLevel: int(d[6]),
		}
		a.motorAt = now
	case IDIMD:
		if frame.Length < 4 {
			return f, false, errors.Errorf("IMD frame too short: %d", frame.Length)
		}
		d := frame.Data
		a.imd = telemetry.Frame{
			IsoR:    int(binary.LittleEndian.Uint16(d[0:2])),
			IMDRaw:  uint32(d[2]),
			VIFCRaw: uint32(d[3]),
		}
		a.imdAt = now
	default:
		return f, false, nil
	}
	f = telemetry.NewFrame()
	if frame.ID == IDMotor || a.fresh(a.motorAt, now) {
		f.MotorRPM, f.MotorTemp, f.MCUTemp = a.motor.MotorRPM, a.motor.MotorTemp, a.motor.MCUTemp
		f.MCUFlags, f.MCUFaultLevel = a.motor.MCUFlags, a.motor.MCUFaultLevel
		f.MotorValid = true
	}
	if frame.ID == IDIMD || a.fresh(a.imdAt, now) {
		f.IsoR, f.IMDRaw, f.VIFCRaw = a.imd.IsoR, a.imd.IMDRaw, a.imd.VIFCRaw
		f.IMDValid = true
	}
	return f, true, nil
}

func (a *Assembler) fresh(at, now time.Time) bool {
	return !at.IsZero() && now.Sub(at) <= a.CarryOver
}

// Receiver pushes assembled frames into the queue.
type Receiver struct {
	Bus       Bus
	Queue     *telemetry.Queue
	Assembler *Assembler
}

// Open opens the CAN interface.
func Open(ifname string, q *telemetry.Queue) (*Receiver, error) {
	bus, err := can.NewBusForInterfaceWithName(ifname)
	if err != nil {
		return nil, errors.Wrapf(err, "open CAN interface %s", ifname)
	}
	return &Receiver{Bus: bus, Queue: q, Assembler: NewAssembler()}, nil
}

// HandleFrame implements can.Handler.
func (r *Receiver) HandleFrame(frame can.Frame) {
	f, ok, err := r.Assembler.Assemble(frame)
	if err != nil {
		glog.Warningf("CAN 0x%03x: %v", frame.ID, err)
		return
	}
	if ok {
		r.Queue.Push(f)
	}
}

// Run implements Runnable.
func (r *Receiver) Run(ctx context.Context) error {
	r.Bus.SubscribeFunc(r.HandleFrame)
	glog.Info("CAN bus subscribed")
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Bus.ConnectAndPublish()
	}()
	select {
	case <-ctx.Done():
		if err := r.Bus.Disconnect(); err != nil {
			glog.Warningf("CAN disconnect: %v", err)
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		r.Bus.Disconnect()
		return errors.Wrap(err, "CAN bus")
	}
}
