// Package timertest provides a hand-driven scheduler and clock for tests of
// code built on timer.Engine.
package timertest

import (
	"sync"
	"time"
)

// Scheduler keeps only the most recently armed callback and runs it when
// Fire is called.
type Scheduler struct {
	mu     sync.Mutex
	fn     func()
	active uint64
	seq    uint64
}

func (s *Scheduler) Every(_ time.Duration, fn func()) func() {
	s.mu.Lock()
	s.seq++
	id := s.seq
	s.fn = fn
	s.active = id
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.active == id {
			s.fn = nil
			s.active = 0
		}
	}
}

// Fire runs the armed callback once and reports whether one was armed.
func (s *Scheduler) Fire() bool {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fn != nil
}

// Arms counts how many callbacks were armed so far.
func (s *Scheduler) Arms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.seq)
}

type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Ticker couples a Scheduler and a Clock: each Tick advances the clock by one
// second and fires the armed callback.
type Ticker struct {
	Scheduler *Scheduler
	Clock     *Clock
}

func NewTicker() *Ticker {
	return &Ticker{
		Scheduler: &Scheduler{},
		Clock:     NewClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)),
	}
}

func (t *Ticker) Tick(n int) {
	for i := 0; i < n; i++ {
		t.Clock.Advance(time.Second)
		t.Scheduler.Fire()
	}
}
