package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/evdash/pkg/ticks"
)

type recorder struct {
	runs []string
}

func (r *recorder) task(name string, err error) Controller {
	return ControlFunc(func(cc ControlContext) error {
		r.runs = append(r.runs, name)
		return err
	})
}

func TestLoopOrderAndPeriods(t *testing.T) {
	clock := ticks.NewManual(0)
	loop := &Loop{Clock: clock}
	var rec recorder
	loop.AddTask(PrLvControl, "status", 200*time.Millisecond, rec.task("status", nil))
	loop.AddTask(PrLvSense, "button", 10*time.Millisecond, rec.task("button", nil))
	loop.AddTask(PrLvSense, "drain", 100*time.Millisecond, rec.task("drain", nil))
	loop.AddTask(PrLvAcuate, "display", time.Second, rec.task("display", nil))

	ctx := context.Background()
	require.NoError(t, loop.RunPass(ctx))
	require.Equal(t, []string{"button", "drain", "status", "display"}, rec.runs)

	testCases := []struct {
		name    string
		advance time.Duration
		expect  []string
	}{
		{name: "before any period", advance: 5 * time.Millisecond},
		{name: "button due", advance: 5 * time.Millisecond, expect: []string{"button"}},
		{name: "drain due", advance: 90 * time.Millisecond, expect: []string{"button", "drain"}},
		{name: "status due", advance: 100 * time.Millisecond, expect: []string{"button", "drain", "status"}},
		{name: "all due", advance: 800 * time.Millisecond, expect: []string{"button", "drain", "status", "display"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec.runs = nil
			clock.Advance(tc.advance)
			require.NoError(t, loop.RunPass(ctx))
			require.Equal(t, tc.expect, rec.runs)
		})
	}
}

func TestLoopIsolatesFaults(t *testing.T) {
	loop := &Loop{Clock: ticks.NewManual(0)}
	var rec recorder
	loop.AddTask(PrLvSense, "failing", 0, rec.task("failing", NewFault(FaultHardwareIO, "flush", errors.New("i2c nack"))))
	loop.AddTask(PrLvSense, "panicking", 0, ControlFunc(func(ControlContext) error {
		rec.runs = append(rec.runs, "panicking")
		var m map[string]int
		m["boom"]++
		return nil
	}))
	loop.AddTask(PrLvSense, "healthy", 0, rec.task("healthy", nil))

	require.NoError(t, loop.RunPass(context.Background()))
	require.NoError(t, loop.RunPass(context.Background()))
	require.Equal(t, []string{
		"failing", "panicking", "healthy",
		"failing", "panicking", "healthy",
	}, rec.runs)
}

func TestLoopFatalStopsRun(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Millisecond
	cause := errors.New("disk gone")
	loop.AddTask(PrLvIdle, "fatal", 0, ControlFunc(func(ControlContext) error {
		return Fatal(cause)
	}))
	err := loop.Run(context.Background())
	require.Error(t, err)
	fatal, ok := err.(*FatalError)
	require.True(t, ok)
	require.Equal(t, cause, fatal.Err)
}

func TestLoopPassContext(t *testing.T) {
	clock := ticks.NewManual(1000)
	loop := &Loop{Clock: clock}
	var names []string
	for _, name := range []string{"first", "second"} {
		loop.AddTask(PrLvControl, name, 0, ControlFunc(func(cc ControlContext) error {
			require.Equal(t, ticks.Millis(1000), cc.Ticks())
			names = append(names, cc.TaskName())
			clock.Advance(time.Millisecond)
			return nil
		}))
	}
	require.NoError(t, loop.RunPass(context.Background()))
	require.Equal(t, []string{"first", "second"}, names)
	require.Len(t, loop.Tasks(), 2)
}

func TestLoopStopsRunnables(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Millisecond
	started := make(chan struct{})
	loop.AddRunnable(RunFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	<-started
	cancel()
	require.Equal(t, context.Canceled, <-done)
}

func TestLoopFailsOnRunnableError(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Millisecond
	var rec recorder
	loop.AddTask(PrLvIdle, "idle", 0, rec.task("idle", nil))
	loop.AddRunnable(NamedRun("bus", RunFunc(func(context.Context) error {
		return errors.New("receiver died")
	})))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := loop.Run(ctx)
	require.Error(t, err)
	require.Equal(t, "runner bus: receiver died", err.Error())
	require.NoError(t, ctx.Err())
}

func TestRunnerFailed(t *testing.T) {
	r := NewRunner().Go(
		NamedRun("quiet", RunFunc(func(context.Context) error { return nil })),
		NamedRun("bus", RunFunc(func(context.Context) error { return errors.New("eof") })),
	)
	select {
	case err := <-r.Failed():
		require.Equal(t, "runner bus: eof", err.Error())
	case <-time.After(5 * time.Second):
		t.Fatal("runnable error not reported")
	}
	require.Error(t, r.Wait())
}

func TestRunnerAggregates(t *testing.T) {
	cause := errors.New("bus down")
	r := NewRunner().Go(
		NamedRun("ok", RunFunc(func(context.Context) error { return nil })),
		NamedRun("canceled", RunFunc(func(context.Context) error { return context.Canceled })),
		NamedRun("bus", RunFunc(func(context.Context) error { return cause })),
	)
	err := r.Wait()
	require.Error(t, err)
	require.Equal(t, "runner bus: bus down", err.Error())
	require.NoError(t, NewRunner().Wait())
}

func TestKindOf(t *testing.T) {
	fault := NewFault(FaultLockTimeout, "queue", errors.New("timeout"))
	require.Equal(t, FaultLockTimeout, KindOf(fault))
	require.True(t, IsKind(Fatal(fault), FaultLockTimeout))
	require.Equal(t, FaultUnknown, KindOf(errors.New("plain")))
	require.Equal(t, "[lock-timeout] queue: timeout", fault.Error())

	var errs AggregatedError
	require.NoError(t, errs.Aggregate())
	errs.Add(nil, fault)
	require.Equal(t, fault, errs.Aggregate())
	errs.Add(errors.New("other"))
	require.Len(t, errs.Aggregate().(*AggregatedError).Errors, 2)
}
