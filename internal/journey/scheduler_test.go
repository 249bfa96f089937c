package journey

import (
	"sync"
	"time"
)

// manualScheduler queues callbacks and fires them only when the test asks,
// so phase transitions can be stepped deterministically.
type manualScheduler struct {
	mu         sync.Mutex
	queue      []*manualTimer
	cancelable bool
}

type manualTimer struct {
	fn      func()
	fired   bool
	stopped bool
}

// newManualScheduler returns a scheduler whose Cancel works normally.
func newManualScheduler() *manualScheduler {
	return &manualScheduler{cancelable: true}
}

// newLeakyScheduler returns a scheduler whose Cancel never stops a timer,
// modeling a real timer that already fired its goroutine when Stop ran.
func newLeakyScheduler() *manualScheduler {
	return &manualScheduler{cancelable: false}
}

func (s *manualScheduler) After(d time.Duration, fn func()) Cancel {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{fn: fn}
	s.queue = append(s.queue, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.cancelable || t.fired || t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

// fire runs the oldest pending callback. Returns false if none remain.
func (s *manualScheduler) fire() bool {
	s.mu.Lock()
	var next *manualTimer
	for _, t := range s.queue {
		if !t.fired && !t.stopped {
			next = t
			break
		}
	}
	if next == nil {
		s.mu.Unlock()
		return false
	}
	next.fired = true
	fn := next.fn
	s.mu.Unlock()

	fn()
	return true
}

// fireAll drains the queue, including callbacks scheduled while draining.
func (s *manualScheduler) fireAll() {
	for s.fire() {
	}
}

// pendingCount returns the number of callbacks not yet fired or stopped.
func (s *manualScheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.queue {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}
