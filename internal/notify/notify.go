// Package notify delivers fire-and-forget cues when a timer phase completes.
package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

type Completion struct {
	UserID        string
	Finished      string
	Next          string
	SetsCompleted int
}

type Notifier interface {
	NotifyPhaseComplete(ctx context.Context, completion Completion)
}

type Func func(ctx context.Context, completion Completion)

func (f Func) NotifyPhaseComplete(ctx context.Context, completion Completion) {
	f(ctx, completion)
}

// Log writes each completion to a slog.Logger.
type Log struct {
	Logger *slog.Logger
}

func (n Log) NotifyPhaseComplete(ctx context.Context, completion Completion) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "phase complete",
		"userId", completion.UserID,
		"finished", completion.Finished,
		"next", completion.Next,
		"sets", completion.SetsCompleted,
	)
}

// Bell rings the terminal bell on W. Write errors are dropped.
type Bell struct {
	mu sync.Mutex
	W  io.Writer
}

func (b *Bell) NotifyPhaseComplete(context.Context, Completion) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = b.W.Write([]byte{'\a'})
}

// Multi calls every notifier in order. A panicking notifier is logged and
// skipped so the others still run.
type Multi []Notifier

func (m Multi) NotifyPhaseComplete(ctx context.Context, completion Completion) {
	for _, n := range m {
		safeNotify(ctx, n, completion)
	}
}

func safeNotify(ctx context.Context, n Notifier, completion Completion) {
	defer func() {
		if r := recover(); r != nil {
			slog.WarnContext(ctx, "notifier panicked", "panic", r)
		}
	}()
	n.NotifyPhaseComplete(ctx, completion)
}

// Nop discards every completion.
type Nop struct{}

func (Nop) NotifyPhaseComplete(context.Context, Completion) {}
