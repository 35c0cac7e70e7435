package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "intervals/backend/internal/errors"
	"intervals/backend/internal/model"
	"intervals/backend/internal/repository"
)

const maxPresetNameLength = 80

type PresetService struct {
	repo *repository.PresetRepository
}

type CreatePresetInput struct {
	Name        string
	WorkMode    string
	WorkSeconds int
	RestSeconds int
}

func NewPresetService(repo *repository.PresetRepository) *PresetService {
	return &PresetService{repo: repo}
}

func (s *PresetService) Create(ctx context.Context, userID string, input CreatePresetInput) (*model.Preset, *apperrors.APIError) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.BadRequest("invalid_name", "preset name is required")
	}
	if len(name) > maxPresetNameLength {
		return nil, apperrors.BadRequest("invalid_name", "preset name must be at most 80 characters")
	}

	mode, ok := model.ParseWorkMode(input.WorkMode)
	if !ok {
		return nil, apperrors.BadRequest("invalid_work_mode", "workMode must be one of interval, rest_only")
	}
	if input.RestSeconds <= 0 {
		return nil, apperrors.BadRequest("invalid_duration", "restSeconds must be at least 1")
	}

	var workSeconds *int
	if mode == model.WorkModeInterval {
		if input.WorkSeconds <= 0 {
			return nil, apperrors.BadRequest("invalid_duration", "workSeconds must be at least 1 in interval mode")
		}
		value := input.WorkSeconds
		workSeconds = &value
	}

	now := time.Now().UTC()
	preset := model.Preset{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		WorkMode:    mode,
		WorkSeconds: workSeconds,
		RestSeconds: input.RestSeconds,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, &preset); err != nil {
		return nil, apperrors.Internal("failed to create preset")
	}
	return &preset, nil
}

func (s *PresetService) List(ctx context.Context, userID string) ([]model.Preset, *apperrors.APIError) {
	presets, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list presets")
	}
	return presets, nil
}

func (s *PresetService) Get(ctx context.Context, userID, id string) (*model.Preset, *apperrors.APIError) {
	preset, err := s.repo.Get(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("preset_not_found", "preset not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get preset")
	}
	return preset, nil
}

func (s *PresetService) Delete(ctx context.Context, userID, id string) *apperrors.APIError {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("preset_not_found", "preset not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete preset")
	}
	return nil
}
