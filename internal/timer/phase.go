package timer

import (
	"errors"
	"fmt"
	"time"

	"intervals/backend/internal/model"
)

type Phase string

const (
	PhaseIdle Phase = "idle"
	PhaseWork Phase = "work"
	PhaseRest Phase = "rest"
)

func (p Phase) active() bool {
	return p == PhaseWork || p == PhaseRest
}

var (
	ErrNoPreset       = errors.New("no preset loaded")
	ErrInvalidPlan    = errors.New("invalid timer plan")
	ErrGuardViolation = errors.New("action not allowed in current timer state")
	ErrClosed         = errors.New("timer engine closed")
)

// Plan is the immutable part of a preset the engine runs on.
type Plan struct {
	Mode        model.WorkMode `json:"workMode"`
	WorkSeconds int            `json:"workSeconds"`
	RestSeconds int            `json:"restSeconds"`
}

func PlanFromPreset(preset model.Preset) Plan {
	return Plan{
		Mode:        preset.WorkMode,
		WorkSeconds: preset.WorkDuration(),
		RestSeconds: preset.RestSeconds,
	}
}

func (p Plan) Validate() error {
	if p.RestSeconds <= 0 {
		return fmt.Errorf("%w: rest seconds must be positive", ErrInvalidPlan)
	}
	switch p.Mode {
	case model.WorkModeInterval:
		if p.WorkSeconds <= 0 {
			return fmt.Errorf("%w: work seconds must be positive in interval mode", ErrInvalidPlan)
		}
	case model.WorkModeRestOnly:
	default:
		return fmt.Errorf("%w: unknown work mode %q", ErrInvalidPlan, p.Mode)
	}
	return nil
}

// Snapshot is the read-only view of an engine at one instant.
type Snapshot struct {
	Phase            Phase      `json:"phase"`
	RemainingSeconds int        `json:"remainingSeconds"`
	SetsCompleted    int        `json:"setsCompleted"`
	TotalWorkSeconds int        `json:"totalWorkSeconds"`
	TotalRestSeconds int        `json:"totalRestSeconds"`
	Running          bool       `json:"running"`
	Paused           bool       `json:"paused"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	Plan             *Plan      `json:"plan,omitempty"`
	// Revision counts the events emitted so far. Views with a lower revision
	// are older.
	Revision uint64 `json:"revision"`
}

func (s Snapshot) Totals() model.SessionTotals {
	return model.SessionTotals{
		SetsCompleted:    s.SetsCompleted,
		TotalWorkSeconds: s.TotalWorkSeconds,
		TotalRestSeconds: s.TotalRestSeconds,
	}
}

type EventType string

const (
	EventStarted       EventType = "started"
	EventTick          EventType = "tick"
	EventPhaseComplete EventType = "phase_complete"
	EventRestStarted   EventType = "rest_started"
	EventPaused        EventType = "paused"
	EventResumed       EventType = "resumed"
	EventHalted        EventType = "halted"
	EventReset         EventType = "reset"
)

// Event describes one state change. Previous is only set for phase_complete.
type Event struct {
	Type     EventType
	Previous Phase
	Forced   bool
	Snapshot Snapshot
}
