package status

import (
	"sync"
	"time"
)

// Scheduler arms a deferred dispatch.
type Scheduler interface {
	Schedule(fn func())
}

// TimerScheduler runs fn on its own goroutine after Window. Requests made
// within the window join the same batch.
type TimerScheduler struct {
	Window time.Duration
}

func (s TimerScheduler) Schedule(fn func()) {
	time.AfterFunc(s.Window, fn)
}

// ManualScheduler queues deferred work until Flush is called. Tests use it
// to decide exactly when a batch leaves.
type ManualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

func (m *ManualScheduler) Schedule(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, fn)
}

// Pending returns the number of queued functions.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Flush runs every queued function on the calling goroutine. Work scheduled
// while flushing waits for the next Flush.
func (m *ManualScheduler) Flush() {
	m.mu.Lock()
	queue := m.queue
	m.queue = nil
	m.mu.Unlock()

	for _, fn := range queue {
		fn()
	}
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

func (f SchedulerFunc) Schedule(fn func()) { f(fn) }

// Immediate runs the dispatch synchronously as soon as it is armed.
var Immediate Scheduler = SchedulerFunc(func(fn func()) { fn() })
