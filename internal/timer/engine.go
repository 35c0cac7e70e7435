package timer

import (
	"sync"
	"time"

	"intervals/backend/internal/model"
)

// Options configures an Engine. Zero values fall back to a one second
// TickerScheduler and time.Now.
type Options struct {
	Interval  time.Duration
	Scheduler Scheduler
	Now       func() time.Time
	// Observer receives every event in order, outside the state lock. It must
	// not call mutating Engine methods.
	Observer func(Event)
}

// Engine is the phase state machine behind one timer run.
type Engine struct {
	mu     sync.Mutex
	emitMu sync.Mutex

	interval  time.Duration
	scheduler Scheduler
	now       func() time.Time
	observer  func(Event)

	plan      *Plan
	phase     Phase
	remaining int
	sets      int
	totalWork int
	totalRest int
	startedAt *time.Time
	paused    bool
	closed    bool

	// active time spent in the current phase, excluding pauses
	phaseElapsed time.Duration
	segmentStart time.Time

	gen      uint64
	revision uint64
	cancel   func()
}

func New(options Options) *Engine {
	if options.Interval <= 0 {
		options.Interval = time.Second
	}
	if options.Scheduler == nil {
		options.Scheduler = TickerScheduler{}
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	return &Engine{
		interval:  options.Interval,
		scheduler: options.Scheduler,
		now:       options.Now,
		observer:  options.Observer,
		phase:     PhaseIdle,
	}
}

// Load installs a plan and resets any run in progress.
func (e *Engine) Load(plan Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.resetLocked()
	e.plan = &plan
	e.mu.Unlock()
	return nil
}

// Start begins a fresh run: interval presets open with work, rest-only
// presets with rest. Starting while running discards the current counters.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.plan == nil {
		e.mu.Unlock()
		return ErrNoPreset
	}

	e.resetLocked()
	startedAt := e.now()
	e.startedAt = &startedAt
	if e.plan.Mode == model.WorkModeInterval {
		e.enterLocked(PhaseWork, e.plan.WorkSeconds)
	} else {
		e.enterLocked(PhaseRest, e.plan.RestSeconds)
	}
	return e.unlockAndEmit(e.eventLocked(EventStarted))
}

func (e *Engine) Pause() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.startedAt == nil || e.paused || !e.phase.active() {
		e.mu.Unlock()
		return ErrGuardViolation
	}

	e.phaseElapsed += e.now().Sub(e.segmentStart)
	e.segmentStart = time.Time{}
	e.paused = true
	e.cancelTickLocked()
	return e.unlockAndEmit(e.eventLocked(EventPaused))
}

func (e *Engine) Resume() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.startedAt == nil || !e.paused {
		e.mu.Unlock()
		return ErrGuardViolation
	}

	e.paused = false
	if e.phase.active() {
		e.armLocked()
	}
	return e.unlockAndEmit(e.eventLocked(EventResumed))
}

// SkipOrNext force-finishes the current phase, crediting only the elapsed
// time. In rest-only mode, when idle between sets, it starts the next rest.
func (e *Engine) SkipOrNext() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.startedAt == nil || e.plan == nil {
		e.mu.Unlock()
		return ErrGuardViolation
	}

	if e.phase.active() {
		return e.unlockAndEmit(e.finishPhaseLocked(true))
	}
	if e.plan.Mode != model.WorkModeRestOnly {
		e.mu.Unlock()
		return ErrGuardViolation
	}
	e.enterLocked(PhaseRest, e.plan.RestSeconds)
	return e.unlockAndEmit(e.eventLocked(EventRestStarted))
}

// StartRestManual opens a rest phase after a manually timed set.
func (e *Engine) StartRestManual() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.plan == nil || e.plan.Mode != model.WorkModeRestOnly || e.startedAt == nil || e.phase != PhaseIdle {
		e.mu.Unlock()
		return ErrGuardViolation
	}

	e.enterLocked(PhaseRest, e.plan.RestSeconds)
	return e.unlockAndEmit(e.eventLocked(EventRestStarted))
}

// Halt stops the countdown but keeps the totals and start time so the run
// can be persisted.
func (e *Engine) Halt() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.enterIdleLocked()
	_ = e.unlockAndEmit(e.eventLocked(EventHalted))
}

// Reset returns the engine to idle with every counter zeroed. The plan stays
// loaded.
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.resetLocked()
	_ = e.unlockAndEmit(e.eventLocked(EventReset))
}

// Close cancels the tick for good. Every later call is a no-op or ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTickLocked()
	e.closed = true
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.gen || e.paused || !e.phase.active() {
		e.mu.Unlock()
		return
	}

	if e.remaining <= 1 {
		e.remaining = 0
		_ = e.unlockAndEmit(e.finishPhaseLocked(false))
		return
	}
	e.remaining--
	_ = e.unlockAndEmit(e.eventLocked(EventTick))
}

func (e *Engine) finishPhaseLocked(forced bool) Event {
	previous := e.phase
	switch previous {
	case PhaseWork:
		credit := e.plan.WorkSeconds
		if forced {
			credit = e.elapsedLocked(e.plan.WorkSeconds)
		}
		e.totalWork += credit
		e.enterLocked(PhaseRest, e.plan.RestSeconds)
	case PhaseRest:
		credit := e.plan.RestSeconds
		if forced {
			credit = e.elapsedLocked(e.plan.RestSeconds)
		}
		e.totalRest += credit
		e.sets++
		if e.plan.Mode == model.WorkModeInterval {
			e.enterLocked(PhaseWork, e.plan.WorkSeconds)
		} else {
			e.enterIdleLocked()
		}
	}

	event := e.eventLocked(EventPhaseComplete)
	event.Previous = previous
	event.Forced = forced
	return event
}

// elapsedLocked returns whole seconds of active time in the current phase,
// clamped to [0, limit].
func (e *Engine) elapsedLocked(limit int) int {
	elapsed := e.phaseElapsed
	if !e.paused && !e.segmentStart.IsZero() {
		elapsed += e.now().Sub(e.segmentStart)
	}
	seconds := int(elapsed / time.Second)
	if seconds < 0 {
		return 0
	}
	if seconds > limit {
		return limit
	}
	return seconds
}

func (e *Engine) enterLocked(phase Phase, seconds int) {
	e.phase = phase
	e.remaining = seconds
	e.paused = false
	e.phaseElapsed = 0
	e.armLocked()
}

func (e *Engine) enterIdleLocked() {
	e.cancelTickLocked()
	e.phase = PhaseIdle
	e.remaining = 0
	e.paused = false
	e.phaseElapsed = 0
	e.segmentStart = time.Time{}
}

func (e *Engine) resetLocked() {
	e.enterIdleLocked()
	e.sets = 0
	e.totalWork = 0
	e.totalRest = 0
	e.startedAt = nil
}

func (e *Engine) armLocked() {
	e.cancelTickLocked()
	e.gen++
	gen := e.gen
	e.segmentStart = e.now()
	e.cancel = e.scheduler.Every(e.interval, func() { e.tick(gen) })
}

func (e *Engine) cancelTickLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	// stale callbacks already in flight see a different generation
	e.gen++
}

func (e *Engine) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Phase:            e.phase,
		RemainingSeconds: e.remaining,
		SetsCompleted:    e.sets,
		TotalWorkSeconds: e.totalWork,
		TotalRestSeconds: e.totalRest,
		Running:          e.startedAt != nil,
		Paused:           e.paused,
		Revision:         e.revision,
	}
	if e.startedAt != nil {
		startedAt := *e.startedAt
		snapshot.StartedAt = &startedAt
	}
	if e.plan != nil {
		plan := *e.plan
		snapshot.Plan = &plan
	}
	return snapshot
}

func (e *Engine) eventLocked(eventType EventType) Event {
	e.revision++
	return Event{Type: eventType, Snapshot: e.snapshotLocked()}
}

// unlockAndEmit releases the state lock and delivers event while holding
// emitMu, so observers see events in the order they were produced.
func (e *Engine) unlockAndEmit(event Event) error {
	e.emitMu.Lock()
	e.mu.Unlock()
	defer e.emitMu.Unlock()

	if e.observer != nil {
		e.observer(event)
	}
	return nil
}
