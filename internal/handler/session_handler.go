package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"intervals/backend/internal/service"
)

type SessionHandler struct {
	historyService *service.HistoryService
}

func NewSessionHandler(historyService *service.HistoryService) *SessionHandler {
	return &SessionHandler{historyService: historyService}
}

func (h *SessionHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.historyService.List(c.Request.Context(), userID, limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *SessionHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if apiErr := h.historyService.Delete(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
