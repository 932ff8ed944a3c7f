// internal/api/settings_handlers.go
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/satireworks/greenroom/internal/services"
)

// GetSettings returns the masked LLM settings view.
func (h *Handler) GetSettings(c *gin.Context) {
	h.Response.Success(c, h.ConfigService.GetSettings())
}

// UpdateSettings validates and applies an LLM settings change.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req services.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	view, err := h.ConfigService.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, view, "settings updated")
}

// ListModels returns the active provider's model list, live when reachable.
func (h *Handler) ListModels(c *gin.Context) {
	models, err := h.ConfigService.ListModels(c.Request.Context())
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, models)
}

// Status reports service health for the renderer's status bar.
func (h *Handler) Status(c *gin.Context) {
	settings := h.ConfigService.GetSettings()
	h.Response.Success(c, gin.H{
		"llm_ready":   settings.Ready,
		"ready_state": settings.ReadyState,
		"last_saved":  h.Store.LastSaved(),
		"orphans":     h.Store.CountOrphans(),
		"websocket":   wsManager.GetStatus(),
		"time":        time.Now(),
	})
}

// ------------------------------------------------
// Auth

func (h *Handler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	user, err := h.UserService.Register(req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Created(c, user, "user registered")
}

func (h *Handler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	result, err := h.UserService.Login(req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, result, "logged in")
}

func (h *Handler) CurrentUser(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		h.Response.Unauthorized(c, "not authenticated")
		return
	}

	user, err := h.UserService.GetUser(userID)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, user)
}
