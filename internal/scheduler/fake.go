package scheduler

import (
	"sort"
	"sync"
	"time"
)

type fakeTask struct {
	handle Handle
	due    time.Duration
	name   string
	task   func()
}

// Fake is a manual-clock Scheduler for tests. Tasks fire only when Advance
// moves the fake clock past their due time, on the caller's goroutine.
type Fake struct {
	mu    sync.Mutex
	now   time.Duration
	next  Handle
	tasks []fakeTask
}

// NewFake creates a Fake scheduler at clock zero.
func NewFake() *Fake {
	return &Fake{}
}

// ScheduleAfter records the task against the fake clock.
func (f *Fake) ScheduleAfter(d time.Duration, name string, task func()) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	f.tasks = append(f.tasks, fakeTask{
		handle: f.next,
		due:    f.now + d,
		name:   name,
		task:   task,
	})
	return f.next
}

// Cancel removes a pending task.
func (f *Fake) Cancel(handle Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, task := range f.tasks {
		if task.handle == handle {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return
		}
	}
}

// Shutdown drops all pending tasks.
func (f *Fake) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = nil
}

// Pending returns the number of pending tasks.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// Advance moves the fake clock forward and runs all tasks that became due,
// in due order. Tasks scheduled while running are honored if they fall inside
// the advanced window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now += d
	f.mu.Unlock()

	for {
		task, ok := f.popDue()
		if !ok {
			return
		}
		task.task()
	}
}

func (f *Fake) popDue() (fakeTask, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sort.SliceStable(f.tasks, func(i, j int) bool { return f.tasks[i].due < f.tasks[j].due })
	for i, task := range f.tasks {
		if task.due <= f.now {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return task, true
		}
	}
	return fakeTask{}, false
}
