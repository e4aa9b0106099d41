// Package ticks provides wrap-tolerant monotonic tick arithmetic.
//
// Tick counters are 32-bit and wrap around. Differences are computed
// in modular arithmetic and interpreted as signed values, so two
// readings taken less than half the counter range apart always
// compare correctly, even across the wrap.
package ticks

import (
	"sync"
	"time"
)

// Millis is a wrapping millisecond tick counter.
type Millis uint32

// Micros is a wrapping microsecond tick counter.
type Micros uint32

// Diff returns a - b in milliseconds, tolerating wraparound.
func Diff(a, b Millis) int32 {
	return int32(a - b)
}

// DiffMicros returns a - b in microseconds, tolerating wraparound.
func DiffMicros(a, b Micros) int32 {
	return int32(a - b)
}

// Since returns the elapsed duration from then to now.
func (now Millis) Since(then Millis) time.Duration {
	return time.Duration(Diff(now, then)) * time.Millisecond
}

// Add advances the counter by d.
func (now Millis) Add(d time.Duration) Millis {
	return now + Millis(d/time.Millisecond)
}

// Since returns the elapsed duration from then to now.
func (now Micros) Since(then Micros) time.Duration {
	return time.Duration(DiffMicros(now, then)) * time.Microsecond
}

// Clock supplies monotonic tick readings.
type Clock interface {
	Millis() Millis
	Micros() Micros
}

type systemClock struct {
	start time.Time
}

// System returns a Clock backed by the Go monotonic clock.
func System() Clock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) Millis() Millis {
	return Millis(time.Since(c.start) / time.Millisecond)
}

func (c *systemClock) Micros() Micros {
	return Micros(time.Since(c.start) / time.Microsecond)
}

// Manual is a Clock advanced explicitly, used in tests and simulations.
type Manual struct {
	lock sync.Mutex
	us   uint64
}

// NewManual creates a Manual clock starting at the given millisecond tick.
func NewManual(ms Millis) *Manual {
	return &Manual{us: uint64(ms) * 1000}
}

// Millis implements Clock.
func (c *Manual) Millis() Millis {
	c.lock.Lock()
	defer c.lock.Unlock()
	return Millis(c.us / 1000)
}

// Micros implements Clock.
func (c *Manual) Micros() Micros {
	c.lock.Lock()
	defer c.lock.Unlock()
	return Micros(c.us)
}

// Advance moves the clock forward.
func (c *Manual) Advance(d time.Duration) {
	c.lock.Lock()
	c.us += uint64(d / time.Microsecond)
	c.lock.Unlock()
}

// Periodic tracks the period and last run of a periodic task.
type Periodic struct {
	Period time.Duration

	last    Millis
	started bool
}

// NewPeriodic creates a Periodic which becomes due one period after now.
func NewPeriodic(period time.Duration, now Millis) *Periodic {
	return &Periodic{Period: period, last: now, started: true}
}

// Due determines whether the period has elapsed since the last run.
// A Periodic never marked is due immediately.
func (p *Periodic) Due(now Millis) bool {
	if !p.started {
		return true
	}
	return now.Since(p.last) >= p.Period
}

// Mark records a run at now.
func (p *Periodic) Mark(now Millis) {
	p.last, p.started = now, true
}

// Last returns the tick of the last run.
func (p *Periodic) Last() Millis {
	return p.last
}
