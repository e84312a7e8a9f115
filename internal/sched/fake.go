package sched

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Fake is a deterministic Scheduler for tests. Time only moves when
// Advance is called; due callbacks fire synchronously inside Advance, in
// deadline order.
type Fake struct {
	mu          sync.Mutex
	now         time.Time
	nextID      int
	timers      []*fakeTimer
	autoAdvance bool
	sleeps      []time.Duration
}

type fakeTimer struct {
	fake     *Fake
	id       int
	deadline time.Time
	fn       func()
	stopped  bool
	fired    bool
}

// NewFake returns a Fake scheduler starting at an arbitrary fixed time.
func NewFake() *Fake {
	return &Fake{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	t := &fakeTimer{
		fake:     f,
		id:       f.nextID,
		deadline: f.now.Add(d),
		fn:       fn,
	}
	f.timers = append(f.timers, t)
	return t
}

func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.sleeps = append(f.sleeps, d)
	auto := f.autoAdvance
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if auto {
		f.Advance(d)
		return nil
	}
	if d <= 0 {
		return nil
	}
	done := make(chan struct{})
	t := f.AfterFunc(d, func() { close(done) })
	select {
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	case <-done:
		return nil
	}
}

// SetAutoAdvance makes Sleep advance the clock immediately instead of
// blocking, so retry sequences run synchronously in tests.
func (f *Fake) SetAutoAdvance(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoAdvance = on
}

// Sleeps returns every duration passed to Sleep, in order.
func (f *Fake) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.sleeps))
	copy(out, f.sleeps)
	return out
}

// Advance moves the clock forward by d, firing every timer whose deadline
// is reached, in order. Callbacks run without the scheduler lock held, so
// they may schedule further timers.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		t := f.nextDue(target)
		if t == nil {
			break
		}
		t.fn()
	}

	f.mu.Lock()
	if target.After(f.now) {
		f.now = target
	}
	f.mu.Unlock()
}

// nextDue pops the earliest unstopped timer with deadline <= target,
// advancing the clock to its deadline. Returns nil when none remain.
func (f *Fake) nextDue(target time.Time) *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()

	var due *fakeTimer
	for _, t := range f.timers {
		if t.stopped || t.fired || t.deadline.After(target) {
			continue
		}
		if due == nil || t.deadline.Before(due.deadline) || (t.deadline.Equal(due.deadline) && t.id < due.id) {
			due = t
		}
	}
	if due == nil {
		return nil
	}
	due.fired = true
	if due.deadline.After(f.now) {
		f.now = due.deadline
	}
	return due
}

// Pending returns the number of timers that have not fired or been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, t := range f.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// NextDeadlines returns the outstanding deadlines in order, for assertions.
func (f *Fake) NextDeadlines() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []time.Time
	for _, t := range f.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.deadline)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (t *fakeTimer) Stop() bool {
	t.fake.mu.Lock()
	defer t.fake.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
