package timer

import (
	"sync"
	"time"
)

// Handle represents a single-fire scheduled callback.
type Handle struct {
	mu        sync.Mutex
	timer     *time.Timer
	fired     bool
	cancelled bool
}

// Schedule runs fn once after d. The returned handle can be cancelled.
func Schedule(d time.Duration, fn func()) *Handle {
	h := &Handle{}
	h.timer = time.AfterFunc(d, func() {
		h.mu.Lock()
		if h.cancelled {
			h.mu.Unlock()
			return
		}
		h.fired = true
		h.mu.Unlock()
		fn()
	})
	return h
}

// Cancel stops the timer. Calling it on a nil, already-fired or
// already-cancelled handle is a no-op. Once Cancel returns, the
// callback will not run.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fired || h.cancelled {
		return
	}
	h.cancelled = true
	h.timer.Stop()
}

// Live reports whether the handle is still pending.
func (h *Handle) Live() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.fired && !h.cancelled
}

// Set tracks at most one live handle per named concern. Scheduling a
// concern that already has a pending handle cancels the old one first,
// so two timers for the same concern never coexist.
type Set struct {
	mu      sync.Mutex
	handles map[string]*Handle
}

// NewSet creates an empty timer set.
func NewSet() *Set {
	return &Set{handles: make(map[string]*Handle)}
}

// Schedule arms a single-fire timer for the concern, replacing any
// pending one.
func (s *Set) Schedule(concern string, d time.Duration, fn func()) {
	s.mu.Lock()
	prev := s.handles[concern]
	h := Schedule(d, fn)
	s.handles[concern] = h
	s.mu.Unlock()
	prev.Cancel()
}

// Cancel stops the pending timer for the concern, if any.
func (s *Set) Cancel(concern string) {
	s.mu.Lock()
	h := s.handles[concern]
	delete(s.handles, concern)
	s.mu.Unlock()
	h.Cancel()
}

// CancelAll stops every pending timer in the set.
func (s *Set) CancelAll() {
	s.mu.Lock()
	handles := s.handles
	s.handles = make(map[string]*Handle)
	s.mu.Unlock()
	for _, h := range handles {
		h.Cancel()
	}
}

// Live reports whether the concern has a pending timer.
func (s *Set) Live(concern string) bool {
	s.mu.Lock()
	h := s.handles[concern]
	s.mu.Unlock()
	return h.Live()
}
