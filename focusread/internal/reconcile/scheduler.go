package reconcile

import (
	"sync"
	"time"
)

// Scheduler holds one named timer per trigger. Arming a trigger cancels
// its pending timer first, so only the last event of a burst fires.
// Triggers never cancel each other.
type Scheduler struct {
	mu     sync.Mutex
	timers [numTriggers]*time.Timer
	gen    [numTriggers]uint64
	fired  chan Trigger
	closed bool
}

// NewScheduler creates a Scheduler. Fired triggers are delivered on Fired.
func NewScheduler() *Scheduler {
	return &Scheduler{fired: make(chan Trigger, numTriggers)}
}

// Fired returns the channel on which expired triggers are delivered.
func (s *Scheduler) Fired() <-chan Trigger {
	return s.fired
}

// Arm (re)starts the timer for t.
func (s *Scheduler) Arm(t Trigger, d time.Duration) {
	if t < 0 || t >= numTriggers {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if s.timers[t] != nil {
		s.timers[t].Stop()
	}
	s.gen[t]++
	gen := s.gen[t]
	s.timers[t] = time.AfterFunc(d, func() { s.fire(t, gen) })
}

// Stop cancels every timer. Later Arm calls are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for i, tm := range s.timers {
		if tm != nil {
			tm.Stop()
			s.timers[i] = nil
		}
		s.gen[i]++
	}
}

// fire delivers t unless it was re-armed or cancelled since gen was issued.
// When the channel is full a pass is already queued and the fire is dropped.
func (s *Scheduler) fire(t Trigger, gen uint64) {
	s.mu.Lock()
	if s.closed || s.gen[t] != gen {
		s.mu.Unlock()
		return
	}
	s.timers[t] = nil
	s.mu.Unlock()

	select {
	case s.fired <- t:
	default:
	}
}
