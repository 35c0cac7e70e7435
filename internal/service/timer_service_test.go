package service_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"intervals/backend/internal/model"
	"intervals/backend/internal/notify"
	"intervals/backend/internal/repository"
	"intervals/backend/internal/service"
	"intervals/backend/internal/timer"
	"intervals/backend/internal/timer/timertest"
)

type presetMap map[string]model.Preset

func (m presetMap) Get(_ context.Context, userID, id string) (*model.Preset, error) {
	preset, ok := m[id]
	if !ok || preset.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &preset, nil
}

type fakeRecorder struct {
	mu          sync.Mutex
	starts      int
	updates     []model.SessionTotals
	finalized   map[string]model.SessionTotals
	startErr    error
	updateErr   error
	finalizeErr error
	// updateGate, when set, holds every Update until it is closed
	updateGate chan struct{}
}

func (r *fakeRecorder) Start(_ context.Context, _, _ string, _ time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return "", r.startErr
	}
	r.starts++
	return "session-" + string(rune('0'+r.starts)), nil
}

func (r *fakeRecorder) Update(_ context.Context, _ string, totals model.SessionTotals) error {
	r.mu.Lock()
	gate := r.updateGate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updates = append(r.updates, totals)
	return nil
}

func (r *fakeRecorder) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func (r *fakeRecorder) Finalize(_ context.Context, sessionID string, _ time.Time, totals model.SessionTotals) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalizeErr != nil {
		return r.finalizeErr
	}
	if r.finalized == nil {
		r.finalized = make(map[string]model.SessionTotals)
	}
	r.finalized[sessionID] = totals
	return nil
}

func (r *fakeRecorder) finalizedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.finalized)
}

type countingNotifier struct {
	mu          sync.Mutex
	completions []notify.Completion
}

func (n *countingNotifier) NotifyPhaseComplete(_ context.Context, completion notify.Completion) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completions = append(n.completions, completion)
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.completions)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type timerFixture struct {
	svc      *service.TimerService
	ticker   *timertest.Ticker
	recorder *fakeRecorder
	notifier *countingNotifier
}

func newTimerFixture(t *testing.T) *timerFixture {
	t.Helper()

	work := 30
	presets := presetMap{
		"hiit": {ID: "hiit", UserID: "u1", Name: "HIIT", WorkMode: model.WorkModeInterval, WorkSeconds: &work, RestSeconds: 15},
		"lift": {ID: "lift", UserID: "u1", Name: "Lift", WorkMode: model.WorkModeRestOnly, RestSeconds: 20},
	}
	ticker := timertest.NewTicker()
	recorder := &fakeRecorder{}
	notifier := &countingNotifier{}
	svc := service.NewTimerService(presets, recorder, notifier, service.TimerOptions{
		Scheduler: ticker.Scheduler,
		Now:       ticker.Clock.Now,
	})
	t.Cleanup(svc.Close)

	return &timerFixture{svc: svc, ticker: ticker, recorder: recorder, notifier: notifier}
}

func TestTimerServiceIntervalRunIsMirrored(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	view, apiErr := f.svc.Start(ctx, "u1", "hiit")
	if apiErr != nil {
		t.Fatalf("start: %v", apiErr)
	}
	if view.Phase != timer.PhaseWork || view.RemainingSeconds != 30 || view.PresetName != "HIIT" {
		t.Fatalf("unexpected start view: %+v", view)
	}
	if view.SessionID == nil {
		t.Fatal("expected a session id after start")
	}

	f.ticker.Tick(45)

	view, _ = f.svc.State(ctx, "u1")
	if view.Phase != timer.PhaseWork || view.SetsCompleted != 1 || view.TotalWorkSeconds != 30 || view.TotalRestSeconds != 15 {
		t.Fatalf("unexpected state after one cycle: %+v", view)
	}
	waitFor(t, "2 session updates", func() bool { return f.recorder.updateCount() == 2 })
	waitFor(t, "2 notifications", func() bool { return f.notifier.count() == 2 })

	view, apiErr = f.svc.SaveAndExit(ctx, "u1")
	if apiErr != nil {
		t.Fatalf("save: %v", apiErr)
	}
	if !view.Saved || view.Phase != timer.PhaseIdle {
		t.Fatalf("expected saved idle view, got %+v", view)
	}
	totals := f.recorder.finalized[*view.SessionID]
	if totals.SetsCompleted != 1 || totals.TotalWorkSeconds != 30 || totals.TotalRestSeconds != 15 {
		t.Fatalf("unexpected finalized totals: %+v", totals)
	}
}

func TestTimerServiceForcedSkipDoesNotNotify(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	if _, apiErr := f.svc.Start(ctx, "u1", "lift"); apiErr != nil {
		t.Fatalf("start: %v", apiErr)
	}
	f.ticker.Tick(5)

	view, apiErr := f.svc.SkipOrNext(ctx, "u1")
	if apiErr != nil {
		t.Fatalf("skip: %v", apiErr)
	}
	if view.Phase != timer.PhaseIdle || view.SetsCompleted != 1 || view.TotalRestSeconds != 5 {
		t.Fatalf("unexpected view after skip: %+v", view)
	}
	waitFor(t, "the skip to update the session", func() bool { return f.recorder.updateCount() == 1 })
	f.svc.Close()
	if f.notifier.count() != 0 {
		t.Fatalf("expected no notification for a forced skip, got %d", f.notifier.count())
	}
}

func TestTimerServiceSlowRecorderDoesNotStallTicks(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	gate := make(chan struct{})
	f.recorder.updateGate = gate
	released := false
	release := func() {
		if !released {
			released = true
			close(gate)
		}
	}
	defer release()

	if _, apiErr := f.svc.Start(ctx, "u1", "hiit"); apiErr != nil {
		t.Fatalf("start: %v", apiErr)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.ticker.Tick(35)
		_, _ = f.svc.Pause(ctx, "u1")
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		release()
		t.Fatal("ticks and pause blocked behind a pending session update")
	}

	view, _ := f.svc.State(ctx, "u1")
	if view.Phase != timer.PhaseRest || view.RemainingSeconds != 10 || !view.Paused || view.TotalWorkSeconds != 30 {
		t.Fatalf("unexpected state while the update is pending: %+v", view)
	}
	if f.recorder.updateCount() != 0 {
		t.Fatalf("expected the update to still be pending, got %d", f.recorder.updateCount())
	}

	release()
	view, apiErr := f.svc.SaveAndExit(ctx, "u1")
	if apiErr != nil {
		t.Fatalf("save: %v", apiErr)
	}
	if f.recorder.updateCount() != 1 {
		t.Fatalf("save must wait for the pending update, got %d", f.recorder.updateCount())
	}
	if got := f.recorder.finalized[*view.SessionID]; got.TotalWorkSeconds != 30 {
		t.Fatalf("unexpected finalized totals: %+v", got)
	}
}

func TestTimerServiceUpdateFailureKeepsRunning(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()
	f.recorder.updateErr = errors.New("database is locked")

	if _, apiErr := f.svc.Start(ctx, "u1", "hiit"); apiErr != nil {
		t.Fatalf("start: %v", apiErr)
	}
	f.ticker.Tick(30)

	waitFor(t, "the update failure message", func() bool {
		view, _ := f.svc.State(ctx, "u1")
		return view.Message == "could not update the session record"
	})
	view, _ := f.svc.State(ctx, "u1")
	if view.Phase != timer.PhaseRest || view.RemainingSeconds != 15 || view.TotalWorkSeconds != 30 {
		t.Fatalf("unexpected state after a failed update: %+v", view)
	}

	f.ticker.Tick(15)
	view, _ = f.svc.State(ctx, "u1")
	if view.Phase != timer.PhaseWork || view.SetsCompleted != 1 || view.TotalRestSeconds != 15 {
		t.Fatalf("engine must keep advancing: %+v", view)
	}
	waitFor(t, "both notifications", func() bool { return f.notifier.count() == 2 })
}

func TestTimerServiceResetDoesNotFinalize(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	if _, apiErr := f.svc.Start(ctx, "u1", "hiit"); apiErr != nil {
		t.Fatalf("start: %v", apiErr)
	}
	view, apiErr := f.svc.Reset(ctx, "u1")
	if apiErr != nil {
		t.Fatalf("reset: %v", apiErr)
	}
	if view.Phase != timer.PhaseIdle || view.Running || view.SetsCompleted != 0 || view.SessionID != nil {
		t.Fatalf("unexpected view after reset: %+v", view)
	}
	if f.recorder.finalizedCount() != 0 {
		t.Fatalf("expected no finalize, got %d", f.recorder.finalizedCount())
	}
}

func TestTimerServiceUnknownPreset(t *testing.T) {
	f := newTimerFixture(t)

	_, apiErr := f.svc.Start(context.Background(), "u2", "hiit")
	if apiErr == nil || apiErr.Code != "preset_not_found" {
		t.Fatalf("expected preset_not_found, got %v", apiErr)
	}
}

func TestTimerServiceSaveFailureCanBeRetried(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	if _, apiErr := f.svc.Start(ctx, "u1", "lift"); apiErr != nil {
		t.Fatalf("start: %v", apiErr)
	}
	f.ticker.Tick(20)

	f.recorder.finalizeErr = errors.New("disk full")
	_, apiErr := f.svc.SaveAndExit(ctx, "u1")
	if apiErr == nil || apiErr.Status != http.StatusServiceUnavailable || apiErr.Code != "persistence_failed" {
		t.Fatalf("expected persistence_failed, got %v", apiErr)
	}

	view, _ := f.svc.State(ctx, "u1")
	if view.SetsCompleted != 1 || view.TotalRestSeconds != 20 || view.Saved {
		t.Fatalf("failed save must keep the totals: %+v", view)
	}

	f.recorder.finalizeErr = nil
	view, apiErr = f.svc.SaveAndExit(ctx, "u1")
	if apiErr != nil {
		t.Fatalf("retry save: %v", apiErr)
	}
	if !view.Saved || f.recorder.finalizedCount() != 1 {
		t.Fatalf("expected one finalized session, got %+v", view)
	}
}

func TestTimerServiceSavesWhenStartWasNotRecorded(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	f.recorder.startErr = errors.New("locked")
	view, apiErr := f.svc.Start(ctx, "u1", "hiit")
	if apiErr != nil {
		t.Fatalf("start must not fail on a recorder error: %v", apiErr)
	}
	if view.SessionID != nil || view.Message == "" {
		t.Fatalf("expected a warning and no session id, got %+v", view)
	}

	f.ticker.Tick(30)
	f.recorder.startErr = nil

	view, apiErr = f.svc.SaveAndExit(ctx, "u1")
	if apiErr != nil {
		t.Fatalf("save: %v", apiErr)
	}
	if view.SessionID == nil || f.recorder.finalized[*view.SessionID].TotalWorkSeconds != 30 {
		t.Fatalf("expected the session to be created on save, got %+v", view)
	}
}

func TestTimerServiceIgnoresGuardViolations(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	if _, apiErr := f.svc.Pause(ctx, "u1"); apiErr == nil || apiErr.Code != "timer_not_found" {
		t.Fatalf("expected timer_not_found without a run, got %v", apiErr)
	}

	if _, apiErr := f.svc.Start(ctx, "u1", "hiit"); apiErr != nil {
		t.Fatalf("start: %v", apiErr)
	}
	view, apiErr := f.svc.Resume(ctx, "u1")
	if apiErr != nil {
		t.Fatalf("resume while running should be ignored, got %v", apiErr)
	}
	if view.Paused || view.Phase != timer.PhaseWork {
		t.Fatalf("unexpected view: %+v", view)
	}
	if _, apiErr := f.svc.StartRestManual(ctx, "u1"); apiErr != nil {
		t.Fatalf("manual rest in interval mode should be ignored, got %v", apiErr)
	}
}

func TestTimerServiceRestartFinalizesPreviousSession(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	first, _ := f.svc.Start(ctx, "u1", "hiit")
	f.ticker.Tick(10)

	second, apiErr := f.svc.Start(ctx, "u1", "lift")
	if apiErr != nil {
		t.Fatalf("restart: %v", apiErr)
	}
	if *first.SessionID == *second.SessionID {
		t.Fatal("expected a new session on restart")
	}
	if f.recorder.finalizedCount() != 1 {
		t.Fatalf("expected the first session to be finalized, got %d", f.recorder.finalizedCount())
	}
	if second.Phase != timer.PhaseRest || second.SetsCompleted != 0 {
		t.Fatalf("unexpected view after restart: %+v", second)
	}
}

func TestTimerServiceSubscribe(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	events, cancel, apiErr := f.svc.Subscribe("u1")
	if apiErr != nil {
		t.Fatalf("subscribe: %v", apiErr)
	}
	defer cancel()

	if _, apiErr := f.svc.Start(ctx, "u1", "hiit"); apiErr != nil {
		t.Fatalf("start: %v", apiErr)
	}
	f.ticker.Tick(1)

	var last service.TimerStateView
	for i := 0; i < 2; i++ {
		select {
		case last = <-events:
		case <-time.After(time.Second):
			t.Fatalf("expected event %d", i+1)
		}
	}
	if last.RemainingSeconds != 29 {
		t.Fatalf("expected remaining 29, got %d", last.RemainingSeconds)
	}

	f.svc.Discard(ctx, "u1")
	for range events {
	}
	if view, _ := f.svc.State(ctx, "u1"); view.Running {
		t.Fatalf("expected idle after discard, got %+v", view)
	}
}

func TestTimerServiceSubscribeDoesNotCreateRun(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	_, cancel, apiErr := f.svc.Subscribe("u1")
	if apiErr != nil {
		t.Fatalf("subscribe: %v", apiErr)
	}
	cancel()
	if _, apiErr := f.svc.Pause(ctx, "u1"); apiErr == nil || apiErr.Code != "timer_not_found" {
		t.Fatalf("expected timer_not_found after a bare subscription, got %v", apiErr)
	}

	events, cancel, _ := f.svc.Subscribe("u1")
	defer cancel()
	f.svc.Discard(ctx, "u1")
	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected the channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("discard must close subscriptions without a run")
	}
}
