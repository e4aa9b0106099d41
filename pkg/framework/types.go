package framework

import (
	"context"

	"github.com/robotalks/evdash/pkg/ticks"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Controller is the body of a task.
type Controller interface {
	Control(ControlContext) error
}

// ControlContext is what a task body sees of the running pass.
type ControlContext interface {
	// Context retrieves context.Context.
	Context() context.Context
	// Ticks returns the clock reading taken at the start of the pass.
	// All tasks of a pass see the same reading.
	Ticks() ticks.Millis
	// TaskName gets the name of the running task.
	TaskName() string
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Priority levels of the pass stages.
const (
	// PrLvSense is for tasks reading inputs.
	PrLvSense int = 4
	// PrLvControl is for tasks deriving state.
	PrLvControl int = 8
	// PrLvAcuate is for tasks driving outputs.
	PrLvAcuate int = 12
	// PrLvPostProc is for housekeeping after the outputs.
	PrLvPostProc int = PriorityLevels - 2
	// PrLvIdle runs last.
	PrLvIdle int = PriorityLevels - 1
)

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}
