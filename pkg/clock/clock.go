// Package clock abstracts the host wall clock so the send and receive loops
// can be driven by a fixed time source in tests.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time

	// After waits for d to elapse on the monotonic clock and then sends the
	// current time.
	After(d time.Duration) <-chan time.Time
}

type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Mock is a manually driven clock. Every call to Now returns the current
// value and then moves it forward by the configured step; After fires
// immediately and moves the clock forward by d.
type Mock struct {
	mu     sync.Mutex
	now    time.Time
	step   time.Duration
	sleeps []time.Duration
}

func NewMock(start time.Time, step time.Duration) *Mock {
	return &Mock{now: start, step: step}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := m.now
	m.now = m.now.Add(m.step)
	return res
}

func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

func (m *Mock) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	m.sleeps = append(m.sleeps, d)
	m.now = m.now.Add(d)
	now := m.now
	m.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Sleeps returns the durations passed to After, in call order.
func (m *Mock) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]time.Duration, len(m.sleeps))
	copy(res, m.sleeps)
	return res
}
