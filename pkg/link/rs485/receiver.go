package rs485

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/brutella/can"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/evdash/pkg/link/canbus"
	"github.com/robotalks/evdash/pkg/telemetry"
)

// DefaultBaud is the line speed of the gateway.
const DefaultBaud = 115200

// CAN IDs by packet kind.
var kindIDs = map[byte]uint32{
	CodeMotor: canbus.IDMotor,
	CodeIMD:   canbus.IDIMD,
}

// Receiver assembles telemetry frames from gateway packets.
type Receiver struct {
	Link      *Link
	Queue     *telemetry.Queue
	Assembler *canbus.Assembler
}

// NewReceiver creates a Receiver on a byte stream.
func NewReceiver(port io.ReadWriter, q *telemetry.Queue) *Receiver {
	r := &Receiver{Queue: q, Assembler: canbus.NewAssembler()}
	r.Link = NewLink(port, r.HandlePacket)
	return r
}

// Open opens the serial device named by u, e.g.
// rs485:///dev/ttyS0?baud=115200.
func Open(u *url.URL, q *telemetry.Queue) (*Receiver, error) {
	baud := DefaultBaud
	if val := u.Query().Get("baud"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, errors.Wrapf(err, "baud %q", val)
		}
		baud = n
	}
	port, err := OpenPort(u.Path, baud)
	if err != nil {
		return nil, err
	}
	glog.Infof("rs485 gateway on %s at %d baud", u.Path, baud)
	return NewReceiver(port, q), nil
}

// HandlePacket decodes an event packet like the CAN message it wraps.
func (r *Receiver) HandlePacket(pkt *Packet) {
	id, ok := kindIDs[pkt.Kind()]
	if !pkt.IsEvent() || !ok {
		glog.V(2).Infof("rs485: ignored packet code 0x%02x", pkt.Code)
		return
	}
	frame := can.Frame{ID: id}
	frame.Length = uint8(copy(frame.Data[:], pkt.Data))
	f, ok, err := r.Assembler.Assemble(frame)
	if err != nil {
		glog.Warningf("rs485 kind %d: %v", pkt.Kind(), err)
		return
	}
	if ok {
		r.Queue.Push(f)
	}
}

// Run implements Runnable.
func (r *Receiver) Run(ctx context.Context) error {
	return r.Link.Run(ctx)
}
