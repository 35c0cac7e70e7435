package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"intervals/backend/internal/model"
)

const presetColumns = `id, user_id, name, work_mode, work_seconds, rest_seconds, created_at, updated_at`

type PresetRepository struct {
	db *sql.DB
}

func NewPresetRepository(db *sql.DB) *PresetRepository {
	return &PresetRepository{db: db}
}

func (r *PresetRepository) Create(ctx context.Context, preset *model.Preset) error {
	var workSeconds interface{}
	if preset.WorkSeconds != nil {
		workSeconds = *preset.WorkSeconds
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO presets (`+presetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		preset.ID,
		preset.UserID,
		preset.Name,
		string(preset.WorkMode),
		workSeconds,
		preset.RestSeconds,
		formatTime(preset.CreatedAt),
		formatTime(preset.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create preset: %w", err)
	}
	return nil
}

// Get returns the preset only when it belongs to userID.
func (r *PresetRepository) Get(ctx context.Context, userID, id string) (*model.Preset, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+presetColumns+` FROM presets WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	preset, err := scanPreset(row)
	if err != nil {
		return nil, fmt.Errorf("get preset: %w", err)
	}
	return preset, nil
}

func (r *PresetRepository) List(ctx context.Context, userID string) ([]model.Preset, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+presetColumns+`
		 FROM presets
		 WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	presets := make([]model.Preset, 0)
	for rows.Next() {
		preset, scanErr := scanPreset(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		presets = append(presets, *preset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presets: %w", err)
	}
	return presets, nil
}

func (r *PresetRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM presets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete preset rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPreset(s scanner) (*model.Preset, error) {
	preset := model.Preset{}
	var workMode string
	var workSeconds sql.NullInt64
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&preset.ID,
		&preset.UserID,
		&preset.Name,
		&workMode,
		&workSeconds,
		&preset.RestSeconds,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan preset: %w", err)
	}

	preset.WorkMode = model.WorkMode(workMode)
	if workSeconds.Valid {
		value := int(workSeconds.Int64)
		preset.WorkSeconds = &value
	}

	if preset.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse preset created_at: %w", err)
	}
	if preset.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse preset updated_at: %w", err)
	}
	return &preset, nil
}
