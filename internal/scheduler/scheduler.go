// Package scheduler provides the timer abstraction used for key rotation and
// backup scheduling. Tasks fire once; rescheduling after success or failure is
// an explicit decision of the caller, never automatic.
package scheduler

import (
	"log/slog"
	"sync"
	"time"
)

// Handle identifies a scheduled task for cancellation.
type Handle uint64

// Scheduler arms one-shot timers. Implementations must run the task outside
// the timer goroutine's critical path and must survive a panicking task.
type Scheduler interface {
	// ScheduleAfter arms a timer that runs task once after d. The name is
	// used for logging and diagnostics only.
	ScheduleAfter(d time.Duration, name string, task func()) Handle

	// Cancel stops a pending task. Cancelling an already-fired or unknown
	// handle is a no-op.
	Cancel(handle Handle)

	// Shutdown cancels all pending tasks.
	Shutdown()
}

// TimerScheduler implements Scheduler with time.AfterFunc.
type TimerScheduler struct {
	logger *slog.Logger

	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
}

// NewTimerScheduler creates a TimerScheduler.
func NewTimerScheduler(logger *slog.Logger) *TimerScheduler {
	return &TimerScheduler{
		logger: logger,
		timers: make(map[Handle]*time.Timer),
	}
}

// ScheduleAfter arms a one-shot timer for task.
func (s *TimerScheduler) ScheduleAfter(d time.Duration, name string, task func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	handle := s.next

	s.timers[handle] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, handle)
		s.mu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduled task panicked",
					slog.String("task", name),
					slog.Any("panic", r),
				)
			}
		}()
		task()
	})

	s.logger.Debug("scheduled task",
		slog.String("task", name),
		slog.Duration("after", d),
	)
	return handle
}

// Cancel stops a pending task.
func (s *TimerScheduler) Cancel(handle Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[handle]; ok {
		timer.Stop()
		delete(s.timers, handle)
	}
}

// Shutdown cancels all pending tasks.
func (s *TimerScheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for handle, timer := range s.timers {
		timer.Stop()
		delete(s.timers, handle)
	}
}

// Pending returns the number of armed timers.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
