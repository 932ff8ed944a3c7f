// internal/api/handlers.go
package api

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/services"
	"github.com/satireworks/greenroom/internal/store"
)

// Handler holds every service the API layer forwards to.
type Handler struct {
	ProjectService   *services.ProjectService
	ArticleService   *services.ArticleService
	StrategyService  *services.StrategyService
	ScriptService    *services.ScriptService
	DirectorService  *services.DirectorService
	ChatService      *services.ChatService
	ContextService   *services.ContextService
	ConfigService    *services.ConfigService
	UserService      *services.UserService
	ExportService    *services.ExportService
	Store            *store.Store
	WebSocketHandler *WebSocketHandler
	Response         *ResponseHelper
}

// NewHandler assembles the API layer from already-initialized services.
func NewHandler(
	projectService *services.ProjectService,
	articleService *services.ArticleService,
	strategyService *services.StrategyService,
	scriptService *services.ScriptService,
	directorService *services.DirectorService,
	chatService *services.ChatService,
	contextService *services.ContextService,
	configService *services.ConfigService,
	userService *services.UserService,
	exportService *services.ExportService,
	dataStore *store.Store,
) *Handler {
	return &Handler{
		ProjectService:   projectService,
		ArticleService:   articleService,
		StrategyService:  strategyService,
		ScriptService:    scriptService,
		DirectorService:  directorService,
		ChatService:      chatService,
		ContextService:   contextService,
		ConfigService:    configService,
		UserService:      userService,
		ExportService:    exportService,
		Store:            dataStore,
		WebSocketHandler: NewWebSocketHandler(),
		Response:         NewResponseHelper(),
	}
}

// APIResponse is the standard response envelope.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError is the standard error payload.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// PaginationMeta carries list paging info.
type PaginationMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PaginatedResponse is an envelope with paging metadata.
type PaginatedResponse struct {
	*APIResponse
	Meta *PaginationMeta `json:"meta,omitempty"`
}

// ------------------------------------------------
// Projects

func (h *Handler) CreateProject(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	if userID := c.GetString("user_id"); userID != "" {
		req.OwnerID = userID
	}

	project, err := h.ProjectService.CreateProject(req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Created(c, project, "project created")
}

func (h *Handler) ListProjects(c *gin.Context) {
	h.Response.Success(c, h.ProjectService.ListProjects())
}

func (h *Handler) GetProject(c *gin.Context) {
	project, err := h.ProjectService.GetProject(c.Param("id"))
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, project)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	project, err := h.ProjectService.UpdateProject(c.Param("id"), req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, project, "project updated")
}

func (h *Handler) SetProjectStatus(c *gin.Context) {
	var req struct {
		Status models.ProjectStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	project, err := h.ProjectService.SetStatus(c.Param("id"), req.Status)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, project, "status updated")
}

func (h *Handler) DeleteProject(c *gin.Context) {
	if err := h.ProjectService.DeleteProject(c.Param("id")); err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, nil, "project and all related records deleted")
}

// ------------------------------------------------
// Articles

func (h *Handler) AddArticle(c *gin.Context) {
	var req services.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	article, err := h.ArticleService.AddArticle(c.Param("id"), req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Created(c, article, "article added")
}

// UploadArticle accepts a text file upload and stores it as an article.
func (h *Handler) UploadArticle(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.Response.BadRequest(c, "file is required", err.Error())
		return
	}
	if file.Size > 2<<20 {
		h.Response.BadRequest(c, "file too large (2MB max)")
		return
	}

	reader, err := file.Open()
	if err != nil {
		h.Response.InternalError(c, "failed to read upload", err.Error())
		return
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		h.Response.InternalError(c, "failed to read upload", err.Error())
		return
	}

	article, err := h.ArticleService.AddArticle(c.Param("id"), services.CreateArticleRequest{
		Title:    c.PostForm("title"),
		Content:  string(content),
		Source:   c.PostForm("source"),
		FileName: file.Filename,
	})
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Created(c, article, "article uploaded")
}

func (h *Handler) ListArticles(c *gin.Context) {
	if _, err := h.ProjectService.GetProject(c.Param("id")); err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, h.ArticleService.ListArticles(c.Param("id")))
}

func (h *Handler) GetArticle(c *gin.Context) {
	article, err := h.ArticleService.GetArticle(c.Param("articleId"))
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, article)
}

func (h *Handler) DeleteArticle(c *gin.Context) {
	if err := h.ArticleService.DeleteArticle(c.Param("articleId")); err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, nil, "article deleted")
}

// ------------------------------------------------
// Strategies

func (h *Handler) CreateStrategy(c *gin.Context) {
	var req services.StrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	strategy, err := h.StrategyService.CreateStrategy(c.Param("id"), req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Created(c, strategy, "strategy created")
}

func (h *Handler) ListStrategies(c *gin.Context) {
	if _, err := h.ProjectService.GetProject(c.Param("id")); err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, h.StrategyService.ListStrategies(c.Param("id")))
}

func (h *Handler) GetStrategy(c *gin.Context) {
	strategy, err := h.StrategyService.GetStrategy(c.Param("strategyId"))
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, strategy)
}

func (h *Handler) UpdateStrategy(c *gin.Context) {
	var req services.StrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	strategy, err := h.StrategyService.UpdateStrategy(c.Param("strategyId"), req)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, strategy, "strategy updated")
}

func (h *Handler) SetStrategyStatus(c *gin.Context) {
	var req struct {
		Status models.StrategyStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	strategy, err := h.StrategyService.SetStatus(c.Param("strategyId"), req.Status)
	if err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, strategy, "strategy status updated")
}

func (h *Handler) DeleteStrategy(c *gin.Context) {
	if err := h.StrategyService.DeleteStrategy(c.Param("strategyId")); err != nil {
		h.Response.ServiceError(c, err)
		return
	}
	h.Response.Success(c, nil, "strategy deleted")
}

// ------------------------------------------------
// Personas

func (h *Handler) ListPersonas(c *gin.Context) {
	h.Response.Success(c, services.ListPersonas())
}
