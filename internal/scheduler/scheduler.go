package scheduler

import (
	"sync"
	"time"
)

// Scheduler manages single-shot named timers. Each pending alert owns exactly
// one timer keyed by its alert id; cancelling an unknown key is a no-op.
//
// Cancellation is best-effort: a callback that was already queued by the
// runtime may still run after Cancel returns, so callers must re-check their
// own state before acting inside the callback.
type Scheduler struct {
	// mu protects the timers map and the stopped flag.
	mu sync.Mutex
	// timers holds the live cancellation handles keyed by caller-chosen ids.
	timers map[string]*time.Timer
	// stopped rejects new arms after Stop.
	stopped bool
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
	}
}

// Arm starts a single-shot timer under the key, replacing any existing one.
// When the timer fires, the handle is discarded before fn runs so that the
// scheduler never holds a handle for a dead timer.
func (s *Scheduler) Arm(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if existing, ok := s.timers[key]; ok {
		existing.Stop()
	}

	s.timers[key] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()

		fn()
	})
}

// Cancel disarms the timer under the key. It reports whether a live timer was
// stopped before its callback started; false means the key was unknown or the
// callback already began, in which case the callback's own state check decides.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[key]
	if !ok {
		return false
	}

	delete(s.timers, key)

	return timer.Stop()
}

// Len returns the number of currently armed timers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.timers)
}

// Stop disarms every timer and rejects future arms. Callbacks already queued
// by the runtime may still run.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true

	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}
