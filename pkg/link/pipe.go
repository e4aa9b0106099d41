package link

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/link/msgs"
	"github.com/robotalks/evdash/pkg/telemetry"
)

// Pipe receives typed packets. Telemetry frames go into the Queue,
// everything else is passed to the Handler.
type Pipe struct {
	Reader  PacketReader
	Queue   *telemetry.Queue
	Handler msgs.TypedMsgHandler

	sendLock sync.Mutex
}

// NewPipe creates a Pipe feeding the queue.
func NewPipe(r PacketReader, q *telemetry.Queue) *Pipe {
	return &Pipe{Reader: r, Queue: q}
}

// SendMsg wraps and sends a message if the underlying transport is
// writable.
func (p *Pipe) SendMsg(msg msgs.Message) error {
	w, ok := p.Reader.(PacketWriter)
	if !ok {
		return errors.New("pipe is read-only")
	}
	pkt, err := msgs.EncodeMsg(msg)
	if err != nil {
		return err
	}
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	return w.WritePacket(pkt)
}

// Run implements Runnable. Malformed packets are dropped, a read
// error ends the pipe. The end of the stream is reported as io.EOF.
func (p *Pipe) Run(ctx context.Context) error {
	defer p.Close()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.Close()
		case <-done:
		}
	}()
	for {
		pkt, err := p.Reader.ReadPacket()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err == io.EOF {
				return err
			}
			return errors.Wrap(err, "read packet")
		}
		msg, typed, err := msgs.Decode(pkt)
		if err != nil {
			glog.Warningf("drop packet: %v", err)
			continue
		}
		if err := p.dispatch(ctx, msg, typed); err != nil {
			glog.Warningf("handle %T: %v", msg, err)
		}
	}
}

func (p *Pipe) dispatch(ctx context.Context, msg msgs.Message, typed *msgs.Typed) error {
	if m, ok := msg.(*msgs.TelemetryFrame); ok && p.Queue != nil {
		p.Queue.Push(FrameFromMsg(m))
		return nil
	}
	if h := p.Handler; h != nil {
		return h.HandleTypedMsg(ctx, msg, typed)
	}
	if typed.IsCommand() {
		return msgs.ErrUnsupportedCommand
	}
	return nil
}

// Close implements io.Closer.
func (p *Pipe) Close() error {
	if closer, ok := p.Reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (p *Pipe) AddToLoop(loop *fx.Loop) {
	if adder, ok := p.Reader.(fx.LoopAdder); ok {
		loop.Add(adder)
	} else if runnable, ok := p.Reader.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	loop.AddRunnable(p)
}
