package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/evdash/pkg/framework"
)

// DefaultQueueLimit bounds the frames buffered between two drains.
const DefaultQueueLimit = 64

// Queue is the inbound frame FIFO shared between bus receivers and
// the ingest task. The lock can be acquired with a bounded wait.
type Queue struct {
	Limit int

	sem     chan struct{}
	frames  []Frame
	length  atomic.Int32
	dropped atomic.Uint64
}

// NewQueue creates a Queue.
func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	return &Queue{Limit: limit, sem: make(chan struct{}, 1)}
}

// Push appends a frame. When the queue is full the oldest frame is
// dropped.
func (q *Queue) Push(f Frame) {
	q.sem <- struct{}{}
	if len(q.frames) >= q.Limit {
		q.frames = q.frames[1:]
		if n := q.dropped.Add(1); n%100 == 1 {
			glog.Warningf("telemetry queue overflow, %d frames dropped", n)
		}
	}
	q.frames = append(q.frames, f)
	q.length.Store(int32(len(q.frames)))
	<-q.sem
}

// Len returns the number of queued frames without locking.
func (q *Queue) Len() int {
	return int(q.length.Load())
}

// Dropped returns the number of frames dropped on overflow.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Lock acquires the queue lock, waiting at most timeout.
func (q *Queue) Lock(timeout time.Duration) error {
	select {
	case q.sem <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case q.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return fx.Faultf(fx.FaultLockTimeout, "queue", "lock not acquired within %v", timeout)
	}
}

// Unlock releases the queue lock.
func (q *Queue) Unlock() {
	<-q.sem
}

// PopLocked removes the oldest frame. The lock must be held.
func (q *Queue) PopLocked() (Frame, bool) {
	if len(q.frames) == 0 {
		return Frame{}, false
	}
	f := q.frames[0]
	q.frames[0] = Frame{}
	q.frames = q.frames[1:]
	q.length.Store(int32(len(q.frames)))
	return f, true
}
