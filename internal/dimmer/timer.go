package dimmer

import (
	"sync"
	"time"
)

// FireTimer is the one-shot countdown capability the engine schedules triac
// firings on. Arm replaces any pending countdown; the callback provided at
// construction runs when the countdown elapses.
type FireTimer interface {
	Arm(d time.Duration)
	Disarm()
}

// SystemTimer implements FireTimer on the runtime timer heap.
type SystemTimer struct {
	mu   sync.Mutex
	t    *time.Timer
	fire func()
}

// NewSystemTimer creates a disarmed timer that invokes fire on expiry.
func NewSystemTimer(fire func()) *SystemTimer {
	return &SystemTimer{fire: fire}
}

// Arm starts a one-shot countdown, replacing any pending one.
func (s *SystemTimer) Arm(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.t != nil {
		s.t.Stop()
	}
	s.t = time.AfterFunc(d, s.fire)
}

// Disarm cancels the pending countdown, if any.
func (s *SystemTimer) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.t != nil {
		s.t.Stop()
		s.t = nil
	}
}
