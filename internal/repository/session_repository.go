package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"intervals/backend/internal/model"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Insert(ctx context.Context, session *model.Session) error {
	var presetID interface{}
	if session.PresetID != nil {
		presetID = *session.PresetID
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
			id, user_id, preset_id, started_at, ended_at, sets_completed,
			total_work_seconds, total_rest_seconds, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		presetID,
		formatTime(session.StartedAt),
		nullableTime(session.EndedAt),
		session.SetsCompleted,
		session.TotalWorkSeconds,
		session.TotalRestSeconds,
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// UpdateTotals mirrors run progress into an open session.
func (r *SessionRepository) UpdateTotals(ctx context.Context, id string, totals model.SessionTotals, now time.Time) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE sessions
		 SET sets_completed = ?,
		     total_work_seconds = ?,
		     total_rest_seconds = ?,
		     updated_at = ?
		 WHERE id = ?`,
		totals.SetsCompleted,
		totals.TotalWorkSeconds,
		totals.TotalRestSeconds,
		formatTime(now),
		id,
	)
	if err != nil {
		return fmt.Errorf("update session totals: %w", err)
	}
	return expectOneRow(result, "update session totals")
}

func (r *SessionRepository) Finalize(ctx context.Context, id string, endedAt time.Time, totals model.SessionTotals) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE sessions
		 SET ended_at = ?,
		     sets_completed = ?,
		     total_work_seconds = ?,
		     total_rest_seconds = ?,
		     updated_at = ?
		 WHERE id = ?`,
		formatTime(endedAt),
		totals.SetsCompleted,
		totals.TotalWorkSeconds,
		totals.TotalRestSeconds,
		formatTime(endedAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}
	return expectOneRow(result, "finalize session")
}

func (r *SessionRepository) Get(ctx context.Context, userID, id string) (*model.Session, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT s.id, s.user_id, s.preset_id, p.name, s.started_at, s.ended_at,
		        s.sets_completed, s.total_work_seconds, s.total_rest_seconds,
		        s.created_at, s.updated_at
		 FROM sessions s
		 LEFT JOIN presets p ON p.id = s.preset_id
		 WHERE s.id = ? AND s.user_id = ?`,
		id,
		userID,
	)
	session, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Session, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT s.id, s.user_id, s.preset_id, p.name, s.started_at, s.ended_at,
		        s.sets_completed, s.total_work_seconds, s.total_rest_seconds,
		        s.created_at, s.updated_at
		 FROM sessions s
		 LEFT JOIN presets p ON p.id = s.preset_id
		 WHERE s.user_id = ?
		 ORDER BY s.started_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0, limit)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return expectOneRow(result, "delete session")
}

func expectOneRow(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSession(s scanner) (*model.Session, error) {
	session := model.Session{}
	var presetID sql.NullString
	var presetName sql.NullString
	var startedAt string
	var endedAt sql.NullString
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&session.ID,
		&session.UserID,
		&presetID,
		&presetName,
		&startedAt,
		&endedAt,
		&session.SetsCompleted,
		&session.TotalWorkSeconds,
		&session.TotalRestSeconds,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if presetID.Valid {
		value := presetID.String
		session.PresetID = &value
	}
	if presetName.Valid {
		value := presetName.String
		session.PresetName = &value
	}

	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	if endedAt.Valid {
		parsedEndedAt, parseErr := parseTime(endedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse session ended_at: %w", parseErr)
		}
		session.EndedAt = &parsedEndedAt
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}
	return &session, nil
}
