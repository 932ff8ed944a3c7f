// internal/api/script_handlers.go
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/satireworks/greenroom/internal/services"
)

// shotResult wraps a shot with any advisory warnings so the renderer can
// surface the soft-cap flag without a second request.
type shotResult struct {
	Shot     interface{} `json:"shot"`
	Warnings []string    `json:"warnings,omitempty"`
}

func (h *Handler) CreateScript(c *gin.Context) {
	var req services.ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	script, err := h.ScriptService.CreateScript(c.Param("id"), req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Created(c, script, "script created")
}

func (h *Handler) ListScripts(c *gin.Context) {
	if _, err := h.ProjectService.GetProject(c.Param("id")); err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, h.ScriptService.ListScripts(c.Param("id")))
}

func (h *Handler) GetScript(c *gin.Context) {
	pkg, err := h.ScriptService.GetScriptPackage(c.Param("scriptId"))
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, pkg)
}

func (h *Handler) UpdateScript(c *gin.Context) {
	var req services.ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	script, err := h.ScriptService.UpdateScript(c.Param("scriptId"), req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, script, "script updated")
}

func (h *Handler) AddShot(c *gin.Context) {
	var req services.ShotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	shot, warnings, err := h.ScriptService.AddShot(c.Param("scriptId"), req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}

	message := "shot added"
	if len(warnings) > 0 {
		message = "shot added with warnings"
	}
	h.Response.Created(c, shotResult{Shot: shot, Warnings: warnings}, message)
}

func (h *Handler) UpdateShot(c *gin.Context) {
	var req services.ShotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	shot, warnings, err := h.ScriptService.UpdateShot(c.Param("shotId"), req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}

	message := "shot updated"
	if len(warnings) > 0 {
		message = "shot updated with warnings"
	}
	h.Response.Success(c, shotResult{Shot: shot, Warnings: warnings}, message)
}

func (h *Handler) ListShots(c *gin.Context) {
	if _, err := h.ScriptService.GetScript(c.Param("scriptId")); err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, h.ScriptService.ListShots(c.Param("scriptId")))
}

func (h *Handler) DeleteShot(c *gin.Context) {
	if err := h.ScriptService.DeleteShot(c.Param("shotId")); err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, nil, "shot deleted")
}

func (h *Handler) SetSoundNotes(c *gin.Context) {
	var req services.SoundNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	notes, err := h.ScriptService.SetSoundNotes(c.Param("shotId"), req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, notes, "sound notes saved")
}

// ------------------------------------------------
// Director

func (h *Handler) GetProjectHealth(c *gin.Context) {
	health, err := h.DirectorService.AssessProject(c.Param("id"))
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, health)
}

func (h *Handler) AddDirectorNote(c *gin.Context) {
	var req struct {
		Stage   string `json:"stage"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	note, err := h.DirectorService.AddNote(c.Param("id"), req.Stage, req.Content)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Created(c, note, "note recorded")
}

func (h *Handler) ListDirectorNotes(c *gin.Context) {
	if _, err := h.ProjectService.GetProject(c.Param("id")); err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, h.DirectorService.ListNotes(c.Param("id")))
}

// ------------------------------------------------
// Export

func (h *Handler) ExportProject(c *gin.Context) {
	projectID := c.Param("id")
	format := c.DefaultQuery("format", "json")

	switch format {
	case "json":
		content, err := h.ExportService.ExportJSON(projectID)
		if err != nil {
			h.Response.ServiceError(c, err)
			return
		}
		h.Response.FileResponse(c, content,
			fmt.Sprintf("project-%s.json", projectID), "application/json")
	case "markdown", "md":
		content, err := h.ExportService.ExportMarkdown(projectID)
		if err != nil {
			h.Response.ServiceError(c, err)
			return
		}
		h.Response.FileResponse(c, content,
			fmt.Sprintf("project-%s.md", projectID), "text/markdown")
	default:
		h.Response.Error(c, 400, ErrorExportFormatInvalid, "unsupported export format: "+format)
	}
}
