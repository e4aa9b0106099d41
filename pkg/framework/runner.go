package framework

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Runner runs background producers (bus receivers, GPIO watchers,
// links) next to the loop and collects their errors.
type Runner struct {
	Context context.Context

	started int
	errCh   chan error
	failCh  chan error
	forceCh chan struct{}
}

// NewRunner creates a runner with a background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner with a specified context.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		errCh:   make(chan error),
		failCh:  make(chan error, 1),
		forceCh: make(chan struct{}),
	}
}

// HandleSignals cancels the context on SIGINT or SIGTERM. A second
// signal makes Wait return immediately.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	r.Context = ctx
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("%v: stopping", sig)
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.forceCh)
	}()
	return r
}

// Go starts runnables with the runner's context.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		name := strconv.Itoa(r.started)
		if named, ok := runnable.(Named); ok {
			name = named.Name()
		}
		r.started++
		go r.run(name, runnable)
	}
	return r
}

func (r *Runner) run(name string, runnable Runnable) {
	glog.V(4).Infof("runner %s started", name)
	err := runnable.Run(r.Context)
	stopping := r.Context.Err() != nil
	if err != nil && errors.Cause(err) != context.Canceled {
		err = errors.Wrapf(err, "runner %s", name)
		if !stopping {
			glog.Error(err)
			select {
			case r.failCh <- err:
			default:
			}
		}
	} else {
		err = nil
		if !stopping {
			glog.Warningf("runner %s exited", name)
		}
	}
	glog.V(4).Infof("runner %s stopped: %v", name, err)
	select {
	case r.errCh <- err:
	case <-r.forceCh:
	}
}

// Failed receives the error of the first runnable which stopped with
// an error before the context was done.
func (r *Runner) Failed() <-chan error {
	return r.failCh
}

// Wait waits for all runnables and aggregates their errors.
// Cancellation is not an error.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for ; r.started > 0; r.started-- {
		select {
		case err := <-r.errCh:
			errs.Add(err)
		case <-r.forceCh:
			return errors.New("forced exit")
		}
	}
	return errs.Aggregate()
}
