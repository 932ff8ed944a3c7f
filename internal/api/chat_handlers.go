// internal/api/chat_handlers.go
package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/satireworks/greenroom/internal/services"
)

// SendChatMessage runs one blocking persona turn.
func (h *Handler) SendChatMessage(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	req.ProjectID = c.Param("id")

	result, err := h.ChatService.SendMessage(c.Request.Context(), req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, result)
}

// GetTranscript returns the message history with one persona.
func (h *Handler) GetTranscript(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.Response.BadRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	if _, err := h.ProjectService.GetProject(c.Param("id")); err != nil {
		h.Response.ServiceError(c, err)
		return
	}

	transcript, err := h.ChatService.GetTranscript(c.Param("id"), c.Param("persona"), limit)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, transcript)
}

// ListConversations returns a project's conversations.
func (h *Handler) ListConversations(c *gin.Context) {
	if _, err := h.ProjectService.GetProject(c.Param("id")); err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, h.ChatService.ListConversations(c.Param("id")))
}

// TransferContext produces a handoff summary between two personas.
func (h *Handler) TransferContext(c *gin.Context) {
	var req struct {
		FromPersona string `json:"from_persona"`
		ToPersona   string `json:"to_persona"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	summary, err := h.ChatService.TransferContext(c.Param("id"), req.FromPersona, req.ToPersona)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"summary": summary})
}

// GetContextSnapshots exposes the tracker's snapshots for debugging the
// continuity view.
func (h *Handler) GetContextSnapshots(c *gin.Context) {
	if _, err := h.ProjectService.GetProject(c.Param("id")); err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, gin.H{
		"snapshots":  h.ContextService.GetSnapshots(c.Param("id")),
		"characters": h.ContextService.GetCharacterProfiles(c.Param("id")),
	})
}
