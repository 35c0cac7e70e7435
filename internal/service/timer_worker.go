package service

import (
	"sync"

	"intervals/backend/internal/timer"
)

type progressJob struct {
	event     timer.Event
	sessionID *string
	ack       chan struct{}
}

// progressWorker runs phase completion side effects in order on its own
// goroutine so a slow store never holds up the engine's tick.
type progressWorker struct {
	handle func(progressJob)

	mu      sync.Mutex
	pending []progressJob
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newProgressWorker(handle func(progressJob)) *progressWorker {
	w := &progressWorker{
		handle:  handle,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *progressWorker) enqueue(job progressJob) {
	w.mu.Lock()
	w.pending = append(w.pending, job)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// flush waits until every job enqueued before it has been handled.
func (w *progressWorker) flush() {
	ack := make(chan struct{})
	w.enqueue(progressJob{ack: ack})
	select {
	case <-ack:
	case <-w.stopped:
	}
}

// stop lets the worker finish what is queued and exit.
func (w *progressWorker) stop() {
	w.once.Do(func() { close(w.done) })
}

func (w *progressWorker) wait() {
	<-w.stopped
}

func (w *progressWorker) loop() {
	defer close(w.stopped)
	for {
		w.drain()
		select {
		case <-w.wake:
		case <-w.done:
			w.drain()
			return
		}
	}
}

func (w *progressWorker) drain() {
	for {
		w.mu.Lock()
		jobs := w.pending
		w.pending = nil
		w.mu.Unlock()
		if len(jobs) == 0 {
			return
		}

		for _, job := range jobs {
			if job.ack != nil {
				close(job.ack)
				continue
			}
			w.handle(job)
		}
	}
}

// subscriberSet fans state views out to one user's listeners. It outlives
// individual runs so a client can listen before the first start.
type subscriberSet struct {
	mu     sync.Mutex
	subs   map[chan TimerStateView]struct{}
	closed bool
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{subs: make(map[chan TimerStateView]struct{})}
}

func (s *subscriberSet) add() chan TimerStateView {
	ch := make(chan TimerStateView, subscriberBuffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subs[ch] = struct{}{}
	return ch
}

func (s *subscriberSet) remove(ch chan TimerStateView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

func (s *subscriberSet) empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) == 0
}

// broadcast drops the view for subscribers whose buffer is full.
func (s *subscriberSet) broadcast(view TimerStateView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- view:
		default:
		}
	}
}

func (s *subscriberSet) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}
