package kinematics

import (
	"math"
	"sync"
	"time"
)

// DefaultSimAccel is the acceleration of the simulated wheel in km/h
// per second.
const DefaultSimAccel = 10

type driveState struct {
	startDist        float64
	startTime        time.Time
	lastEstimateTime time.Time
	desiredSpeed     float64
	currentSpeed     float64

	accelStartSpeed float64
	accelEndTime    time.Time
	accel           float64
}

// newDriveState starts accelerating from the speed of old towards the
// desired speed. Speeds are in km/h, accel in km/h per second.
func newDriveState(old *driveState, dist float64, now time.Time, speed, accel float64) *driveState {
	s := &driveState{
		startDist:        dist,
		startTime:        now,
		lastEstimateTime: now,
		desiredSpeed:     math.Max(speed, 0),
		accel:            math.Abs(accel),
	}
	if old != nil {
		s.currentSpeed = old.currentSpeed
	}
	if s.accel != 0 {
		s.accelStartSpeed = s.currentSpeed
		speedDiff := math.Abs(s.desiredSpeed - s.currentSpeed)
		if speedDiff > 0 {
			s.accelEndTime = s.startTime.Add(time.Duration(speedDiff * float64(time.Second) / s.accel))
		}
		if s.currentSpeed > s.desiredSpeed {
			s.accel = -s.accel
		}
	} else {
		s.currentSpeed = s.desiredSpeed
	}
	if s.desiredSpeed == 0 && s.currentSpeed == s.desiredSpeed {
		return nil
	}
	return s
}

// estimate returns the distance in km at now and the state to keep,
// nil once the wheel stands still.
func (s *driveState) estimate(now time.Time) (float64, *driveState) {
	dist := s.startDist
	if s.lastEstimateTime.Before(s.accelEndTime) {
		nowAccel := now
		if now.After(s.accelEndTime) {
			nowAccel = s.accelEndTime
		}
		secs := nowAccel.Sub(s.startTime).Seconds()
		dist += (secs*s.accelStartSpeed + s.accel*secs*secs/2) / 3600
		s.currentSpeed = s.accelStartSpeed + secs*s.accel
		s.lastEstimateTime = nowAccel
		if s.accelEndTime.After(nowAccel) {
			return dist, s
		}
		// acceleration completed, continue at the desired speed.
		s.startDist, s.startTime, s.currentSpeed = dist, s.accelEndTime, s.desiredSpeed
		if !now.After(nowAccel) {
			if s.currentSpeed == 0 {
				return dist, nil
			}
			return dist, s
		}
	}
	var next *driveState
	if s.currentSpeed != 0 {
		dist += now.Sub(s.startTime).Seconds() * s.currentSpeed / 3600
		next = s
	}
	s.lastEstimateTime = now
	return dist, next
}

// Sim is a simulated wheel used as PulseSource on the bench.
type Sim struct {
	PulsesPerKm float64
	Now         func() time.Time

	lock  sync.Mutex
	state *driveState
	dist  float64
}

// NewSim creates a Sim.
func NewSim(pulsesPerKm float64) *Sim {
	if pulsesPerKm <= 0 {
		pulsesPerKm = DefaultPulsesPerKm
	}
	return &Sim{PulsesPerKm: pulsesPerKm, Now: time.Now}
}

func (s *Sim) advance(now time.Time) {
	if s.state != nil {
		s.dist, s.state = s.state.estimate(now)
	}
}

// Drive sets the desired speed. A zero accel applies the default.
func (s *Sim) Drive(speed, accel float64) {
	if accel == 0 {
		accel = DefaultSimAccel
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	now := s.Now()
	old := s.state
	s.advance(now)
	s.state = newDriveState(old, s.dist, now, speed, accel)
}

// Speed returns the current simulated speed.
func (s *Sim) Speed() float64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.advance(s.Now())
	if s.state == nil {
		return 0
	}
	return s.state.currentSpeed
}

// Distance returns the simulated distance in km.
func (s *Sim) Distance() float64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.advance(s.Now())
	return s.dist
}

// Pulses implements PulseSource.
func (s *Sim) Pulses() (uint64, error) {
	return uint64(s.Distance() * s.PulsesPerKm), nil
}
