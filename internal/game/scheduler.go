package game

import "time"

// Scheduler defers work. The production implementation wraps time.AfterFunc;
// tests substitute a manual queue so timer ticks and reveal delays fire
// deterministically.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

type wallScheduler struct{}

func (wallScheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// NewScheduler returns the wall-clock scheduler.
func NewScheduler() Scheduler { return wallScheduler{} }
