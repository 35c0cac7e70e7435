package model

import (
	"strings"
	"time"
)

type WorkMode string

const (
	WorkModeInterval WorkMode = "interval"
	WorkModeRestOnly WorkMode = "rest_only"
)

// ParseWorkMode accepts the canonical names plus the legacy "timed"/"manual"
// spellings used by older preset exports.
func ParseWorkMode(raw string) (WorkMode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "interval", "timed", "hiit":
		return WorkModeInterval, true
	case "rest_only", "restonly", "rest-only", "manual":
		return WorkModeRestOnly, true
	default:
		return "", false
	}
}

type Preset struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	WorkMode    WorkMode  `json:"workMode"`
	WorkSeconds *int      `json:"workSeconds"`
	RestSeconds int       `json:"restSeconds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p Preset) IsInterval() bool {
	return p.WorkMode == WorkModeInterval
}

// WorkDuration returns the configured work seconds, or 0 for rest-only presets.
func (p Preset) WorkDuration() int {
	if p.WorkSeconds == nil {
		return 0
	}
	return *p.WorkSeconds
}
