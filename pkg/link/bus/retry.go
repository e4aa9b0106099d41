package bus

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/evdash/pkg/framework"
)

// Reconnect delays.
var (
	DefaultRetryDelay = time.Second
	MaxRetryDelay     = 30 * time.Second
)

// OpenFunc opens a receiver.
type OpenFunc func() (fx.Runnable, error)

// Retry keeps a receiver running. A receiver which stops before the
// context is done is reopened, waiting longer after every failed open.
type Retry struct {
	Name     string
	Open     OpenFunc
	Delay    time.Duration
	MaxDelay time.Duration

	receiver fx.Runnable
}

// NewRetry opens the receiver once, the error is returned immediately.
func NewRetry(name string, open OpenFunc) (*Retry, error) {
	r, err := open()
	if err != nil {
		return nil, err
	}
	return &Retry{
		Name:     name,
		Open:     open,
		Delay:    DefaultRetryDelay,
		MaxDelay: MaxRetryDelay,
		receiver: r,
	}, nil
}

// Run implements Runnable.
func (r *Retry) Run(ctx context.Context) error {
	delay := r.Delay
	for {
		if r.receiver != nil {
			err := r.receiver.Run(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			glog.Errorf("%s: receiver stopped: %v, reconnecting", r.Name, err)
			r.receiver = nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		rcv, err := r.Open()
		if err != nil {
			glog.Warningf("%s: reopen: %v", r.Name, err)
			if delay *= 2; r.MaxDelay > 0 && delay > r.MaxDelay {
				delay = r.MaxDelay
			}
			continue
		}
		glog.Infof("%s: receiver reopened", r.Name)
		r.receiver, delay = rcv, r.Delay
	}
}

// AddToLoop implements LoopAdder.
func (r *Retry) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun(r.Name, r))
}
