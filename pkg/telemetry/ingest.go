// Package telemetry validates inbound bus frames, merges them into
// the vehicle state and expires stale sources.
package telemetry

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/ticks"
	"github.com/robotalks/evdash/pkg/vehicle"
)

// Defaults of the ingest and staleness tasks.
const (
	DefaultLockTimeout  = 5000 * time.Millisecond
	DefaultMaxFrames    = 10
	DefaultStaleTimeout = 4000 * time.Millisecond
)

// Ingest drains the frame queue and merges the latest valid frame.
type Ingest struct {
	State       *vehicle.State
	Queue       *Queue
	LockTimeout time.Duration
	MaxFrames   int
}

// NewIngest creates an Ingest with defaults.
func NewIngest(state *vehicle.State, q *Queue) *Ingest {
	return &Ingest{
		State:       state,
		Queue:       q,
		LockTimeout: DefaultLockTimeout,
		MaxFrames:   DefaultMaxFrames,
	}
}

// Control implements Controller.
func (i *Ingest) Control(cc fx.ControlContext) error {
	return i.Drain(cc.Ticks())
}

// Drain processes at most MaxFrames queued frames. Rejected frames are
// returned as aggregated validation faults, a lock timeout fails the
// pass.
func (i *Ingest) Drain(now ticks.Millis) error {
	if i.Queue.Len() == 0 {
		return nil
	}
	if err := i.Queue.Lock(i.LockTimeout); err != nil {
		return err
	}
	defer i.Queue.Unlock()

	var (
		errs   fx.AggregatedError
		latest *Frame
	)
	for n := 0; n < i.MaxFrames; n++ {
		f, ok := i.Queue.PopLocked()
		if !ok {
			break
		}
		if err := f.Validate(); err != nil {
			errs.Add(err)
			continue
		}
		latest = &f
	}
	if latest != nil {
		t := latest.Telemetry()
		i.State.MergeTelemetry(t, now)
		if glog.V(3) {
			glog.Infof("telemetry merged: rpm=%d motor=%dC mcu=%dC isoR=%d status=%s",
				t.MotorRPM, t.MotorTemp, t.MCUTemp, t.IsoR, t.Status)
		}
	}
	return errs.Aggregate()
}

// Staleness expires sources which have not delivered a valid frame
// within Timeout. Each source is judged independently.
type Staleness struct {
	State   *vehicle.State
	Timeout time.Duration
}

// Control implements Controller.
func (s *Staleness) Control(cc fx.ControlContext) error {
	s.Sweep(cc.Ticks())
	return nil
}

// Sweep applies the staleness rules at now.
func (s *Staleness) Sweep(now ticks.Millis) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultStaleTimeout
	}
	motor, imd, data := s.State.LastValid()
	tel := s.State.Telemetry()
	if now.Since(motor) > timeout && tel.MotorValid {
		glog.V(1).Info("motor data stale")
		s.State.InvalidateMotor()
	}
	if now.Since(imd) > timeout && tel.IMDValid {
		glog.V(1).Info("IMD data stale")
		s.State.InvalidateIMD()
	}
	if now.Since(data) > timeout {
		if tel.Status != vehicle.StatusNoDataTimeout {
			glog.Warningf("no valid telemetry within %v", timeout)
		}
		s.State.SetStatus(vehicle.StatusNoDataTimeout)
	}
}
