package persist

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/ticks"
	"github.com/robotalks/evdash/pkg/vehicle"
)

// Trigger defaults.
const (
	DefaultStopDebounce = 2 * time.Second
	DefaultSaveTimeout  = 2 * time.Second
)

// Trigger saves the odometer once per stop, after the vehicle has
// been standing still for StopDebounce.
type Trigger struct {
	State        *vehicle.State
	Store        Store
	Clock        ticks.Clock
	StopDebounce time.Duration
	SaveTimeout  time.Duration
}

// NewTrigger creates a Trigger with defaults.
func NewTrigger(state *vehicle.State, store Store, clock ticks.Clock) *Trigger {
	return &Trigger{
		State:        state,
		Store:        store,
		Clock:        clock,
		StopDebounce: DefaultStopDebounce,
		SaveTimeout:  DefaultSaveTimeout,
	}
}

// Control implements Controller.
func (t *Trigger) Control(cc fx.ControlContext) error {
	return t.Check(cc.Context(), t.Clock.Micros())
}

// Check runs one step of the stop detection at now. A failed save
// still closes the stop episode, the next stop tries again.
func (t *Trigger) Check(ctx context.Context, now ticks.Micros) error {
	st := t.State.Stop()
	speed := t.State.Kinematics().Speed
	var err error
	switch {
	case speed == 0 && st.LastSpeed != 0:
		st.Stopping, st.StopStart, st.Saved = true, now, false
		glog.V(2).Info("vehicle stopped, save timer started")
	case speed == 0:
		if st.Stopping && !st.Saved && now.Since(st.StopStart) > t.StopDebounce {
			st.Saved = true
			if err = t.SaveNow(ctx); err == nil {
				st.Stopping = false
				st.LastSave = now
				glog.V(1).Info("odometer saved during stop")
			}
		}
	default:
		st.Stopping, st.Saved = false, false
	}
	st.LastSpeed = speed
	t.State.SetStop(st)
	return err
}

// SaveNow saves the current distances.
func (t *Trigger) SaveNow(ctx context.Context) error {
	timeout := t.SaveTimeout
	if timeout == 0 {
		timeout = DefaultSaveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	o := t.State.Odometer()
	if err := t.Store.Save(ctx, o); err != nil {
		return fx.NewFault(fx.FaultPersistence, "save", err)
	}
	glog.V(1).Infof("odometer saved: total=%.1f trip=%.1f", o.Total, o.Trip)
	return nil
}
