package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"intervals/backend/internal/service"
)

type PresetHandler struct {
	presetService *service.PresetService
}

type createPresetRequest struct {
	Name        string `json:"name"`
	WorkMode    string `json:"workMode"`
	WorkSeconds int    `json:"workSeconds"`
	RestSeconds int    `json:"restSeconds"`
}

func NewPresetHandler(presetService *service.PresetService) *PresetHandler {
	return &PresetHandler{presetService: presetService}
}

func (h *PresetHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	presets, apiErr := h.presetService.List(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

func (h *PresetHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req createPresetRequest
	if !bindJSON(c, &req) {
		return
	}

	preset, apiErr := h.presetService.Create(c.Request.Context(), userID, service.CreatePresetInput{
		Name:        req.Name,
		WorkMode:    req.WorkMode,
		WorkSeconds: req.WorkSeconds,
		RestSeconds: req.RestSeconds,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"preset": preset})
}

func (h *PresetHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	preset, apiErr := h.presetService.Get(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preset": preset})
}

func (h *PresetHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if apiErr := h.presetService.Delete(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
