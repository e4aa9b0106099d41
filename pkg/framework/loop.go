package framework

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/evdash/pkg/ticks"
)

// DefaultInterval is the yield between two passes.
const DefaultInterval = 10 * time.Millisecond

// Loop is a single-threaded cooperative scheduler. Every pass walks
// the priority levels in order and runs each task whose period has
// elapsed, then yields for Interval. Runnables added to the loop run
// in their own goroutines for as long as the loop runs.
type Loop struct {
	Interval time.Duration
	Clock    ticks.Clock

	levels  [PriorityLevels][]*Task
	runners []Runnable
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

// Task is a periodic task registered in the loop.
type Task struct {
	Name       string
	Controller Controller

	periodic ticks.Periodic
}

// Period returns the period of the task. Zero means every pass.
func (t *Task) Period() time.Duration {
	return t.periodic.Period
}

type pass struct {
	ctx  context.Context
	now  ticks.Millis
	task *Task
}

func (p *pass) Context() context.Context { return p.ctx }

func (p *pass) Ticks() ticks.Millis { return p.now }

func (p *pass) TaskName() string {
	if p.task == nil {
		return ""
	}
	return p.task.Name
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval, Clock: ticks.System()}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddTask registers a periodic task at the priority level. Tasks in
// the same level run in registration order. A controller which is
// also a Runnable is started with the loop.
func (l *Loop) AddTask(priorityLevel int, name string, period time.Duration, ctl Controller) *Task {
	task := &Task{Name: name, Controller: ctl}
	task.periodic.Period = period
	l.levels[priorityLevel] = append(l.levels[priorityLevel], task)
	if runner, ok := ctl.(Runnable); ok {
		l.runners = append(l.runners, runner)
	}
	return task
}

// AddController registers controllers running on every pass.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	for _, ctl := range ctls {
		name := fmt.Sprintf("%T", ctl)
		if named, ok := ctl.(Named); ok {
			name = named.Name()
		}
		l.AddTask(priorityLevel, name, 0, ctl)
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Tasks lists registered tasks in execution order.
func (l *Loop) Tasks() []*Task {
	var tasks []*Task
	for _, lst := range l.levels {
		tasks = append(tasks, lst...)
	}
	return tasks
}

// Run implements Runnable. It returns when ctx is done, a task
// returns a FatalError or one of the runnables fails. The runnables
// are stopped before it returns.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	runner := NewRunnerWith(ctx).Go(l.runners...)
	defer func() {
		cancel()
		if err := runner.Wait(); err != nil {
			glog.Warningf("loop runners: %v", err)
		}
	}()

	interval := l.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-runner.Failed():
			return err
		case <-timer.C:
		}
		if err := l.RunPass(ctx); err != nil {
			return err
		}
		timer.Reset(interval)
	}
}

// RunPass runs a single pass over all due tasks. Only a FatalError
// returned by a task body stops the pass.
func (l *Loop) RunPass(ctx context.Context) error {
	if l.Clock == nil {
		l.Clock = ticks.System()
	}
	p := &pass{ctx: ctx, now: l.Clock.Millis()}
	for _, lst := range l.levels {
		for _, task := range lst {
			if !task.periodic.Due(p.now) {
				continue
			}
			p.task = task
			err := runGuarded(p, task)
			task.periodic.Mark(p.now)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// runGuarded is the fault boundary of a task body. Faults are logged
// here and never propagate, except FatalError.
func runGuarded(cc ControlContext, task *Task) (fatal error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = Faultf(FaultPanic, task.Name, "%v\n%s", r, debug.Stack())
			}
		}()
		return task.Controller.Control(cc)
	}()
	if err == nil {
		return nil
	}
	if f, ok := err.(*FatalError); ok {
		glog.Errorf("task %s: %v", task.Name, f)
		return f
	}
	LogFault(task.Name, err)
	return nil
}

// LogFault logs a task fault with the severity of its kind. Aggregated
// errors are logged one by one.
func LogFault(name string, err error) {
	if agg, ok := err.(*AggregatedError); ok {
		for _, e := range agg.Errors {
			LogFault(name, e)
		}
		return
	}
	switch KindOf(err) {
	case FaultValidation:
		glog.V(1).Infof("task %s: %v", name, err)
	case FaultLockTimeout:
		glog.Warningf("task %s: %v", name, err)
	default:
		glog.Errorf("task %s: %v", name, err)
	}
}
