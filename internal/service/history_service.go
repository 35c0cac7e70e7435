package service

import (
	"context"
	"errors"

	apperrors "intervals/backend/internal/errors"
	"intervals/backend/internal/model"
	"intervals/backend/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type HistoryService struct {
	repo *repository.SessionRepository
}

func NewHistoryService(repo *repository.SessionRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

func (s *HistoryService) List(ctx context.Context, userID string, limit int) ([]model.Session, *apperrors.APIError) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	sessions, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get history")
	}
	return sessions, nil
}

func (s *HistoryService) Delete(ctx context.Context, userID, id string) *apperrors.APIError {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("session_not_found", "session not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete session")
	}
	return nil
}
