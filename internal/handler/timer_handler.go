package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "intervals/backend/internal/errors"
	"intervals/backend/internal/service"
)

type TimerHandler struct {
	timerService *service.TimerService
}

type startTimerRequest struct {
	PresetID string `json:"presetId"`
}

func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

func (h *TimerHandler) GetState(c *gin.Context) {
	h.respond(c, h.timerService.State)
}

func (h *TimerHandler) Start(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req startTimerRequest
	if !bindJSON(c, &req) {
		return
	}

	state, apiErr := h.timerService.Start(c.Request.Context(), userID, req.PresetID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) Pause(c *gin.Context) {
	h.respond(c, h.timerService.Pause)
}

func (h *TimerHandler) Resume(c *gin.Context) {
	h.respond(c, h.timerService.Resume)
}

func (h *TimerHandler) Reset(c *gin.Context) {
	h.respond(c, h.timerService.Reset)
}

func (h *TimerHandler) Skip(c *gin.Context) {
	h.respond(c, h.timerService.SkipOrNext)
}

func (h *TimerHandler) StartRest(c *gin.Context) {
	h.respond(c, h.timerService.StartRestManual)
}

func (h *TimerHandler) Save(c *gin.Context) {
	h.respond(c, h.timerService.SaveAndExit)
}

func (h *TimerHandler) Discard(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	h.timerService.Discard(c.Request.Context(), userID)
	c.Status(http.StatusNoContent)
}

// Events streams the run as server-sent "state" events until the client
// goes away or the run is discarded.
func (h *TimerHandler) Events(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	events, cancel, apiErr := h.timerService.Subscribe(userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	defer cancel()

	initial, apiErr := h.timerService.State(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("state", initial)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case view, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent("state", view)
			c.Writer.Flush()
		}
	}
}

func (h *TimerHandler) respond(
	c *gin.Context,
	op func(ctx context.Context, userID string) (*service.TimerStateView, *apperrors.APIError),
) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	state, apiErr := op(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}
