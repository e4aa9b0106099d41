// Package input turns presses of the mode button into display mode
// changes and long-press actions.
package input

import (
	"sync/atomic"
	"time"

	"github.com/robotalks/evdash/pkg/ticks"
)

// Action is a classified button press.
type Action int32

// Actions.
const (
	ActionNone Action = iota
	ActionShort
	ActionLong
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case ActionShort:
		return "short"
	case ActionLong:
		return "long"
	}
	return "none"
}

// Button reports the pending action and clears it.
type Button interface {
	ReadAndClear() Action
}

// Press classification thresholds.
const (
	DefaultLongPress = 1000 * time.Millisecond
	DefaultDebounce  = 30 * time.Millisecond
)

// PressDetector classifies raw button edges. Edge may be called from
// an interrupt or event goroutine while ReadAndClear runs on the loop.
type PressDetector struct {
	LongPress time.Duration
	Debounce  time.Duration

	down    atomic.Bool
	downAt  atomic.Uint32
	pending atomic.Int32
}

// NewPressDetector creates a PressDetector with default thresholds.
func NewPressDetector() *PressDetector {
	return &PressDetector{LongPress: DefaultLongPress, Debounce: DefaultDebounce}
}

// Edge records a level change of the button at the given time.
func (d *PressDetector) Edge(pressed bool, at ticks.Millis) {
	if pressed {
		if !d.down.Swap(true) {
			d.downAt.Store(uint32(at))
		}
		return
	}
	if !d.down.Swap(false) {
		return
	}
	held := at.Since(ticks.Millis(d.downAt.Load()))
	switch {
	case held >= d.LongPress:
		d.pending.Store(int32(ActionLong))
	case held >= d.Debounce:
		d.pending.Store(int32(ActionShort))
	}
}

// Inject sets the pending action directly.
func (d *PressDetector) Inject(a Action) {
	d.pending.Store(int32(a))
}

// ReadAndClear implements Button.
func (d *PressDetector) ReadAndClear() Action {
	return Action(d.pending.Swap(int32(ActionNone)))
}

// Buttons merges several sources. The first pending action wins, the
// others stay pending for the next read.
type Buttons []Button

// ReadAndClear implements Button.
func (b Buttons) ReadAndClear() Action {
	for _, btn := range b {
		if btn == nil {
			continue
		}
		if a := btn.ReadAndClear(); a != ActionNone {
			return a
		}
	}
	return ActionNone
}
