package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "intervals/backend/internal/errors"
	"intervals/backend/internal/model"
	"intervals/backend/internal/notify"
	"intervals/backend/internal/repository"
	"intervals/backend/internal/timer"
)

const (
	persistTimeout   = 5 * time.Second
	subscriberBuffer = 8
)

// PresetStore loads a preset owned by userID.
type PresetStore interface {
	Get(ctx context.Context, userID, id string) (*model.Preset, error)
}

// SessionRecorder mirrors a run into a durable session record.
type SessionRecorder interface {
	Start(ctx context.Context, userID, presetID string, startedAt time.Time) (string, error)
	Update(ctx context.Context, sessionID string, totals model.SessionTotals) error
	Finalize(ctx context.Context, sessionID string, endedAt time.Time, totals model.SessionTotals) error
}

type TimerOptions struct {
	Interval  time.Duration
	Scheduler timer.Scheduler
	Now       func() time.Time
}

type TimerStateView struct {
	timer.Snapshot
	PresetID   string    `json:"presetId,omitempty"`
	PresetName string    `json:"presetName,omitempty"`
	SessionID  *string   `json:"sessionId,omitempty"`
	Saved      bool      `json:"saved"`
	Message    string    `json:"message,omitempty"`
	ServerTime time.Time `json:"serverTime"`
}

// TimerService owns one run per user.
type TimerService struct {
	presets  PresetStore
	recorder SessionRecorder
	notifier notify.Notifier
	options  TimerOptions

	mu          sync.Mutex
	runs        map[string]*Run
	subscribers map[string]*subscriberSet
	closed      bool
}

func NewTimerService(presets PresetStore, recorder SessionRecorder, notifier notify.Notifier, options TimerOptions) *TimerService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	return &TimerService{
		presets:  presets,
		recorder: recorder,
		notifier: notifier,
		options:  options,
		runs:        make(map[string]*Run),
		subscribers: make(map[string]*subscriberSet),
	}
}

func (s *TimerService) Start(ctx context.Context, userID, presetID string) (*TimerStateView, *apperrors.APIError) {
	if presetID == "" {
		return nil, apperrors.BadRequest("invalid_preset_id", "presetId is required")
	}

	preset, err := s.presets.Get(ctx, userID, presetID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("preset_not_found", "preset not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load preset")
	}

	run, apiErr := s.runFor(userID, true)
	if apiErr != nil {
		return nil, apiErr
	}
	if apiErr := run.start(ctx, *preset); apiErr != nil {
		return nil, apiErr
	}
	view := run.view()
	return &view, nil
}

func (s *TimerService) Pause(ctx context.Context, userID string) (*TimerStateView, *apperrors.APIError) {
	return s.apply(userID, false, func(run *Run) error { return run.engine.Pause() })
}

func (s *TimerService) Resume(ctx context.Context, userID string) (*TimerStateView, *apperrors.APIError) {
	return s.apply(userID, false, func(run *Run) error { return run.engine.Resume() })
}

func (s *TimerService) SkipOrNext(ctx context.Context, userID string) (*TimerStateView, *apperrors.APIError) {
	return s.apply(userID, false, func(run *Run) error { return run.engine.SkipOrNext() })
}

func (s *TimerService) StartRestManual(ctx context.Context, userID string) (*TimerStateView, *apperrors.APIError) {
	return s.apply(userID, false, func(run *Run) error { return run.engine.StartRestManual() })
}

// Reset zeroes the run. The open session, if any, is abandoned unfinished.
func (s *TimerService) Reset(ctx context.Context, userID string) (*TimerStateView, *apperrors.APIError) {
	return s.apply(userID, true, func(run *Run) error {
		run.engine.Reset()
		run.mu.Lock()
		run.sessionID = nil
		run.saved = false
		run.message = ""
		run.mu.Unlock()
		return nil
	})
}

func (s *TimerService) SaveAndExit(ctx context.Context, userID string) (*TimerStateView, *apperrors.APIError) {
	run, apiErr := s.runFor(userID, false)
	if apiErr != nil {
		return nil, apiErr
	}
	if apiErr := run.saveAndExit(ctx); apiErr != nil {
		return nil, apiErr
	}
	view := run.view()
	return &view, nil
}

// State returns the current run, or an idle view when the user has none.
func (s *TimerService) State(ctx context.Context, userID string) (*TimerStateView, *apperrors.APIError) {
	s.mu.Lock()
	run := s.runs[userID]
	s.mu.Unlock()

	if run == nil {
		view := TimerStateView{
			Snapshot:   timer.Snapshot{Phase: timer.PhaseIdle},
			ServerTime: s.options.Now().UTC(),
		}
		return &view, nil
	}
	view := run.view()
	return &view, nil
}

// Discard tears the run down without finalizing its session and closes the
// user's subscriptions.
func (s *TimerService) Discard(ctx context.Context, userID string) {
	s.mu.Lock()
	run := s.runs[userID]
	delete(s.runs, userID)
	subscribers := s.subscribers[userID]
	delete(s.subscribers, userID)
	s.mu.Unlock()

	if run != nil {
		run.close()
	}
	if subscribers != nil {
		subscribers.close()
	}
}

// Subscribe streams state views for userID until cancel is called or the run
// is discarded, which closes the channel. It does not create a run.
func (s *TimerService) Subscribe(userID string) (<-chan TimerStateView, func(), *apperrors.APIError) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, apperrors.Unavailable("timer_shutdown", "timer service is shutting down", nil)
	}
	subscribers := s.subscribersLocked(userID)
	ch := subscribers.add()
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			subscribers.remove(ch)
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.subscribers[userID] == subscribers && s.runs[userID] == nil && subscribers.empty() {
				delete(s.subscribers, userID)
			}
		})
	}
	return ch, cancel, nil
}

// Close stops every run and waits for queued progress to be recorded.
// Sessions left open stay unfinished.
func (s *TimerService) Close() {
	s.mu.Lock()
	runs := s.runs
	subscribers := s.subscribers
	s.runs = make(map[string]*Run)
	s.subscribers = make(map[string]*subscriberSet)
	s.closed = true
	s.mu.Unlock()

	for _, run := range runs {
		run.close()
	}
	for _, run := range runs {
		run.worker.wait()
	}
	for _, set := range subscribers {
		set.close()
	}
}

func (s *TimerService) subscribersLocked(userID string) *subscriberSet {
	set, ok := s.subscribers[userID]
	if !ok {
		set = newSubscriberSet()
		s.subscribers[userID] = set
	}
	return set
}

// apply runs op against the user's run. Guard violations are not errors and
// a saved run only accepts operations flagged allowAfterSave.
func (s *TimerService) apply(userID string, allowAfterSave bool, op func(run *Run) error) (*TimerStateView, *apperrors.APIError) {
	run, apiErr := s.runFor(userID, false)
	if apiErr != nil {
		return nil, apiErr
	}
	if run.isSaved() && !allowAfterSave {
		view := run.view()
		return &view, nil
	}
	if err := op(run); err != nil && !errors.Is(err, timer.ErrGuardViolation) {
		if errors.Is(err, timer.ErrClosed) {
			return nil, apperrors.NotFound("timer_not_found", "no active timer")
		}
		return nil, apperrors.Internal("timer operation failed")
	}
	view := run.view()
	return &view, nil
}

func (s *TimerService) runFor(userID string, create bool) (*Run, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, apperrors.Unavailable("timer_shutdown", "timer service is shutting down", nil)
	}
	if run, ok := s.runs[userID]; ok {
		return run, nil
	}
	if !create {
		return nil, apperrors.NotFound("timer_not_found", "no active timer")
	}

	run := &Run{
		userID:      userID,
		recorder:    s.recorder,
		notifier:    s.notifier,
		now:         s.options.Now,
		subscribers: s.subscribersLocked(userID),
	}
	run.worker = newProgressWorker(run.mirrorProgress)
	run.engine = timer.New(timer.Options{
		Interval:  s.options.Interval,
		Scheduler: s.options.Scheduler,
		Now:       s.options.Now,
		Observer:  run.handleEvent,
	})
	s.runs[userID] = run
	return run, nil
}

// Run couples one engine with the user's session record. Its mutex is never
// held while calling into the engine.
type Run struct {
	userID      string
	engine      *timer.Engine
	recorder    SessionRecorder
	notifier    notify.Notifier
	now         func() time.Time
	worker      *progressWorker
	subscribers *subscriberSet

	mu        sync.Mutex
	preset    *model.Preset
	sessionID *string
	saved     bool
	message   string
}

func (r *Run) start(ctx context.Context, preset model.Preset) *apperrors.APIError {
	r.finishOpenSession(ctx)

	if err := r.engine.Load(timer.PlanFromPreset(preset)); err != nil {
		if errors.Is(err, timer.ErrInvalidPlan) {
			return apperrors.BadRequest("invalid_preset", err.Error())
		}
		return apperrors.NotFound("timer_not_found", "no active timer")
	}

	r.mu.Lock()
	r.preset = &preset
	r.sessionID = nil
	r.saved = false
	r.message = ""
	r.mu.Unlock()

	if err := r.engine.Start(); err != nil {
		return apperrors.Internal("failed to start timer")
	}

	snapshot := r.engine.Snapshot()
	sessionID, err := r.recorder.Start(ctx, r.userID, preset.ID, r.startedAt(snapshot))
	if err != nil {
		slog.WarnContext(ctx, "record session start failed", "userId", r.userID, "presetId", preset.ID, "error", err)
		r.setMessage("could not record the session yet; it will be saved when you finish")
		return nil
	}

	r.mu.Lock()
	r.sessionID = &sessionID
	r.mu.Unlock()
	return nil
}

// finishOpenSession closes a session left open by a previous start so
// history never holds an orphan that was still being recorded.
func (r *Run) finishOpenSession(ctx context.Context) {
	r.mu.Lock()
	sessionID := r.sessionID
	saved := r.saved
	r.mu.Unlock()
	if sessionID == nil || saved {
		return
	}

	r.engine.Halt()
	r.worker.flush()
	totals := r.engine.Snapshot().Totals()
	if err := r.recorder.Finalize(ctx, *sessionID, r.now().UTC(), totals); err != nil {
		slog.WarnContext(ctx, "finalize previous session failed", "userId", r.userID, "sessionId", *sessionID, "error", err)
	}
}

func (r *Run) saveAndExit(ctx context.Context) *apperrors.APIError {
	snapshot := r.engine.Snapshot()
	if !snapshot.Running {
		return nil
	}

	r.mu.Lock()
	saved := r.saved
	sessionID := r.sessionID
	var presetID string
	if r.preset != nil {
		presetID = r.preset.ID
	}
	r.mu.Unlock()
	if saved {
		return nil
	}

	r.engine.Halt()
	// pending updates must land before the final totals
	r.worker.flush()
	snapshot = r.engine.Snapshot()
	totals := snapshot.Totals()

	if sessionID == nil {
		id, err := r.recorder.Start(ctx, r.userID, presetID, r.startedAt(snapshot))
		if err != nil {
			return r.persistenceFailure(ctx, "record session start", err)
		}
		r.mu.Lock()
		r.sessionID = &id
		r.mu.Unlock()
		sessionID = &id
	}

	if err := r.recorder.Finalize(ctx, *sessionID, r.now().UTC(), totals); err != nil {
		return r.persistenceFailure(ctx, "finalize session", err)
	}

	r.mu.Lock()
	r.saved = true
	r.message = "session saved"
	r.mu.Unlock()
	r.broadcast(r.viewFrom(r.engine.Snapshot()))
	return nil
}

func (r *Run) startedAt(snapshot timer.Snapshot) time.Time {
	if snapshot.StartedAt == nil {
		return r.now().UTC()
	}
	return snapshot.StartedAt.UTC()
}

func (r *Run) persistenceFailure(ctx context.Context, op string, err error) *apperrors.APIError {
	slog.WarnContext(ctx, op+" failed", "userId", r.userID, "error", err)
	r.setMessage("could not save the session, please try again")
	view := r.view()
	return apperrors.Unavailable("persistence_failed", "could not save the session", map[string]interface{}{
		"state": view,
	})
}

// handleEvent runs on the engine's tick path. Anything that can block goes
// through the worker.
func (r *Run) handleEvent(event timer.Event) {
	if event.Type == timer.EventPhaseComplete {
		r.mu.Lock()
		var sessionID *string
		if r.sessionID != nil {
			id := *r.sessionID
			sessionID = &id
		}
		r.mu.Unlock()
		r.worker.enqueue(progressJob{event: event, sessionID: sessionID})
	}
	r.broadcast(r.viewFrom(event.Snapshot))
}

func (r *Run) mirrorProgress(job progressJob) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	event := job.event

	if job.sessionID != nil {
		if err := r.recorder.Update(ctx, *job.sessionID, event.Snapshot.Totals()); err != nil {
			slog.WarnContext(ctx, "update session totals failed", "userId", r.userID, "sessionId", *job.sessionID, "error", err)
			r.setMessage("could not update the session record")
			r.broadcast(r.view())
		}
	}

	if !event.Forced {
		r.notifier.NotifyPhaseComplete(ctx, notify.Completion{
			UserID:        r.userID,
			Finished:      string(event.Previous),
			Next:          string(event.Snapshot.Phase),
			SetsCompleted: event.Snapshot.SetsCompleted,
		})
	}
}

func (r *Run) isSaved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved
}

func (r *Run) setMessage(message string) {
	r.mu.Lock()
	r.message = message
	r.mu.Unlock()
}

func (r *Run) view() TimerStateView {
	return r.viewFrom(r.engine.Snapshot())
}

func (r *Run) viewFrom(snapshot timer.Snapshot) TimerStateView {
	r.mu.Lock()
	defer r.mu.Unlock()

	view := TimerStateView{
		Snapshot:   snapshot,
		Saved:      r.saved,
		Message:    r.message,
		ServerTime: r.now().UTC(),
	}
	if r.preset != nil {
		view.PresetID = r.preset.ID
		view.PresetName = r.preset.Name
	}
	if r.sessionID != nil {
		sessionID := *r.sessionID
		view.SessionID = &sessionID
	}
	return view
}

func (r *Run) broadcast(view TimerStateView) {
	r.subscribers.broadcast(view)
}

// close stops the engine. Queued progress still reaches the recorder.
func (r *Run) close() {
	r.engine.Close()
	r.worker.stop()
}

type sessionRecorder struct {
	repo *repository.SessionRepository
	now  func() time.Time
}

// NewSessionRecorder records runs into the sessions table.
func NewSessionRecorder(repo *repository.SessionRepository) SessionRecorder {
	return &sessionRecorder{repo: repo, now: time.Now}
}

func (r *sessionRecorder) Start(ctx context.Context, userID, presetID string, startedAt time.Time) (string, error) {
	now := r.now().UTC()
	session := model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartedAt: startedAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if presetID != "" {
		session.PresetID = &presetID
	}
	if err := r.repo.Insert(ctx, &session); err != nil {
		return "", err
	}
	return session.ID, nil
}

func (r *sessionRecorder) Update(ctx context.Context, sessionID string, totals model.SessionTotals) error {
	return r.repo.UpdateTotals(ctx, sessionID, totals, r.now().UTC())
}

func (r *sessionRecorder) Finalize(ctx context.Context, sessionID string, endedAt time.Time, totals model.SessionTotals) error {
	return r.repo.Finalize(ctx, sessionID, endedAt, totals)
}
