package model

import "time"

type Session struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	PresetID         *string    `json:"presetId"`
	PresetName       *string    `json:"presetName,omitempty"`
	StartedAt        time.Time  `json:"startedAt"`
	EndedAt          *time.Time `json:"endedAt,omitempty"`
	SetsCompleted    int        `json:"setsCompleted"`
	TotalWorkSeconds int        `json:"totalWorkSeconds"`
	TotalRestSeconds int        `json:"totalRestSeconds"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// SessionTotals is the progress mirrored into a session while a run is active.
type SessionTotals struct {
	SetsCompleted    int `json:"setsCompleted"`
	TotalWorkSeconds int `json:"totalWorkSeconds"`
	TotalRestSeconds int `json:"totalRestSeconds"`
}
