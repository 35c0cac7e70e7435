package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"intervals/backend/internal/model"
	"intervals/backend/internal/service"
)

// RunTimerTUI drives preset on svc until the user quits. The run is
// discarded on exit; only a save persists it.
func RunTimerTUI(ctx context.Context, svc *service.TimerService, userID string, preset model.Preset) (service.TimerStateView, error) {
	events, cancel, apiErr := svc.Subscribe(userID)
	if apiErr != nil {
		return service.TimerStateView{}, apiErr
	}
	defer cancel()
	defer svc.Discard(ctx, userID)

	m := NewTimerModel(ctx, svc, events, userID, preset)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return service.TimerStateView{}, fmt.Errorf("run timer ui: %w", err)
	}

	finalModel, ok := final.(TimerModel)
	if !ok {
		return service.TimerStateView{}, nil
	}
	return finalModel.State(), nil
}
