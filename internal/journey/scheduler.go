package journey

import "time"

// Cancel stops a scheduled callback. It reports whether the callback was
// stopped before it ran.
type Cancel func() bool

// Scheduler schedules deferred callbacks. The engine treats every scheduled
// callback as a suspension point: callbacks re-enter the engine through its
// public surface and are validated against the current cycle generation.
type Scheduler interface {
	After(d time.Duration, fn func()) Cancel
}

// TimerScheduler runs callbacks on real timers.
type TimerScheduler struct{}

// NewTimerScheduler creates a scheduler backed by time.AfterFunc.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

func (s *TimerScheduler) After(d time.Duration, fn func()) Cancel {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
