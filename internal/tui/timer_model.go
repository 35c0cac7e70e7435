package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "intervals/backend/internal/errors"
	"intervals/backend/internal/model"
	"intervals/backend/internal/service"
	"intervals/backend/internal/timer"
)

// Controller is the part of service.TimerService the timer screen drives.
type Controller interface {
	Start(ctx context.Context, userID, presetID string) (*service.TimerStateView, *apperrors.APIError)
	Pause(ctx context.Context, userID string) (*service.TimerStateView, *apperrors.APIError)
	Resume(ctx context.Context, userID string) (*service.TimerStateView, *apperrors.APIError)
	SkipOrNext(ctx context.Context, userID string) (*service.TimerStateView, *apperrors.APIError)
	StartRestManual(ctx context.Context, userID string) (*service.TimerStateView, *apperrors.APIError)
	Reset(ctx context.Context, userID string) (*service.TimerStateView, *apperrors.APIError)
	SaveAndExit(ctx context.Context, userID string) (*service.TimerStateView, *apperrors.APIError)
}

// stateMsg carries a view pushed by the run's subscription.
type stateMsg service.TimerStateView

// closedMsg means the subscription ended.
type closedMsg struct{}

type TimerModel struct {
	ctx        context.Context
	controller Controller
	events     <-chan service.TimerStateView
	userID     string
	preset     model.Preset

	state   service.TimerStateView
	errText string
	saved   bool

	keys     keyMap
	help     help.Model
	progress progress.Model
	width    int
	height   int
}

func NewTimerModel(
	ctx context.Context,
	controller Controller,
	events <-chan service.TimerStateView,
	userID string,
	preset model.Preset,
) TimerModel {
	return TimerModel{
		ctx:        ctx,
		controller: controller,
		events:     events,
		userID:     userID,
		preset:     preset,
		state:      service.TimerStateView{Snapshot: timer.Snapshot{Phase: timer.PhaseIdle}},
		keys:       defaultKeys(),
		help:       help.New(),
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m TimerModel) Init() tea.Cmd {
	return waitForState(m.events)
}

func waitForState(events <-chan service.TimerStateView) tea.Cmd {
	return func() tea.Msg {
		view, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return stateMsg(view)
	}
}

func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		// views queued before a key press may arrive after its result
		if msg.Revision >= m.state.Revision {
			m.state = service.TimerStateView(msg)
		}
		return m, waitForState(m.events)

	case closedMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = min(msg.Width-8, 60)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m TimerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Start):
		m.apply(m.controller.Start(m.ctx, m.userID, m.preset.ID))
	case key.Matches(msg, m.keys.Pause):
		if m.state.Paused {
			m.apply(m.controller.Resume(m.ctx, m.userID))
		} else {
			m.apply(m.controller.Pause(m.ctx, m.userID))
		}
	case key.Matches(msg, m.keys.Skip):
		m.apply(m.controller.SkipOrNext(m.ctx, m.userID))
	case key.Matches(msg, m.keys.Rest):
		m.apply(m.controller.StartRestManual(m.ctx, m.userID))
	case key.Matches(msg, m.keys.Reset):
		m.apply(m.controller.Reset(m.ctx, m.userID))
	case key.Matches(msg, m.keys.Save):
		if !m.state.Running {
			return m, tea.Quit
		}
		m.apply(m.controller.SaveAndExit(m.ctx, m.userID))
		if m.errText == "" {
			m.saved = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *TimerModel) apply(view *service.TimerStateView, apiErr *apperrors.APIError) {
	if apiErr != nil {
		m.errText = apiErr.Message
		return
	}
	m.errText = ""
	if view != nil {
		m.state = *view
	}
}

// Saved reports whether the run was persisted before the program exited.
func (m TimerModel) Saved() bool {
	return m.saved
}

func (m TimerModel) State() service.TimerStateView {
	return m.state
}

func (m TimerModel) View() string {
	width := m.width
	if width == 0 {
		width = 60
	}

	var sections []string

	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Render(m.preset.Name)
	sections = append(sections, title, m.renderPhase())

	clock := lipgloss.NewStyle().
		Foreground(lipgloss.Color(phaseColor(m.state))).
		Bold(true).
		Render(formatClock(m.state.RemainingSeconds))
	sections = append(sections, clock, m.progress.ViewAs(phaseProgress(m.state)))

	stats := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Render(fmt.Sprintf("sets %d   work %s   rest %s",
			m.state.SetsCompleted,
			formatClock(m.state.TotalWorkSeconds),
			formatClock(m.state.TotalRestSeconds),
		))
	sections = append(sections, stats)

	if m.errText != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render(m.errText))
	} else if m.state.Message != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPaused)).Render(m.state.Message))
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(1, 3).
		Align(lipgloss.Center).
		Render(strings.Join(sections, "\n\n"))

	content := lipgloss.JoinVertical(lipgloss.Center, card, m.help.View(m.keys))
	if m.height == 0 {
		return content
	}
	return lipgloss.Place(width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m TimerModel) renderPhase() string {
	label := strings.ToUpper(string(m.state.Phase))
	switch {
	case m.state.Paused:
		label += " (paused)"
	case m.state.Phase == timer.PhaseIdle && m.state.Running && m.preset.WorkMode == model.WorkModeRestOnly:
		label = "WORK SET (press r to rest)"
	case m.state.Phase == timer.PhaseIdle && !m.state.Running:
		label = "READY (press s to start)"
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(phaseColor(m.state))).
		Render(label)
}

func phaseColor(state service.TimerStateView) string {
	if state.Paused {
		return ColorPaused
	}
	switch state.Phase {
	case timer.PhaseWork:
		return ColorWork
	case timer.PhaseRest:
		return ColorRest
	default:
		return ColorIdle
	}
}

// phaseProgress is the elapsed fraction of the current phase.
func phaseProgress(state service.TimerStateView) float64 {
	if state.Plan == nil {
		return 0
	}
	var total int
	switch state.Phase {
	case timer.PhaseWork:
		total = state.Plan.WorkSeconds
	case timer.PhaseRest:
		total = state.Plan.RestSeconds
	}
	if total <= 0 {
		return 0
	}
	return float64(total-state.RemainingSeconds) / float64(total)
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
