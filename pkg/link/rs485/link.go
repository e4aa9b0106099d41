package rs485

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// DefaultSyncTimeout bounds a sync handshake or a partial packet.
const DefaultSyncTimeout = 100 * time.Millisecond

// Link runs the parser over a byte stream and answers sync requests.
type Link struct {
	Port        io.ReadWriter
	Handler     func(*Packet)
	SyncTimeout time.Duration

	seq    Seq
	parser Parser

	lock  sync.Mutex
	state LinkState
	timer <-chan time.Time
}

// NewLink creates a Link.
func NewLink(port io.ReadWriter, handler func(*Packet)) *Link {
	return &Link{
		Port:        port,
		Handler:     handler,
		SyncTimeout: DefaultSyncTimeout,
		seq:         NewSeq(),
	}
}

// State returns the current link state.
func (l *Link) State() LinkState {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.state
}

// Run implements Runnable. The port is closed when Run returns, if it
// is an io.Closer.
func (l *Link) Run(ctx context.Context) error {
	if err := l.apply(l.parser.Reset()); err != nil {
		return err
	}
	if closer, ok := l.Port.(io.Closer); ok {
		defer closer.Close()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	byteCh, errCh := make(chan byte), make(chan error, 1)
	go l.readLoop(ctx, byteCh, errCh)
	for {
		var err error
		select {
		case b := <-byteCh:
			err = l.apply(l.parser.Feed(b))
		case <-l.timer:
			err = l.apply(l.parser.Expire())
		case err = <-errCh:
			if err == io.EOF {
				return err
			}
			return errors.Wrap(err, "rs485 read")
		case <-ctx.Done():
			return ctx.Err()
		}
		if err != nil {
			return err
		}
	}
}

func (l *Link) readLoop(ctx context.Context, byteCh chan<- byte, errCh chan<- error) {
	buf := make([]byte, 1)
	for {
		if _, err := l.Port.Read(buf); err != nil {
			errCh <- err
			return
		}
		select {
		case byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}

func (l *Link) apply(st Step) error {
	l.lock.Lock()
	if l.state != st.State {
		glog.V(2).Infof("rs485 link state %d -> %d", l.state, st.State)
		l.state = st.State
	}
	l.lock.Unlock()
	if st.Reply != 0 {
		if _, err := l.Port.Write([]byte{st.Reply, byte(l.seq)}); err != nil {
			return errors.Wrap(err, "rs485 sync")
		}
	}
	switch {
	case st.RestartTimer():
		l.timer = time.After(l.SyncTimeout)
	case st.StopTimer():
		l.timer = nil
	}
	if st.Packet != nil && l.Handler != nil {
		l.Handler(st.Packet)
	}
	return nil
}
