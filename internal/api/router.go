// internal/api/router.go
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/satireworks/greenroom/internal/config"
	"github.com/satireworks/greenroom/internal/di"
	"github.com/satireworks/greenroom/internal/services"
	"github.com/satireworks/greenroom/internal/store"
)

// SetupRouter builds the gin engine from services already registered in the
// DI container. Services are never constructed here.
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()

	container := di.GetContainer()

	projectService, ok := container.Get("project").(*services.ProjectService)
	if !ok {
		return nil, fmt.Errorf("project service not initialized")
	}

	articleService, ok := container.Get("article").(*services.ArticleService)
	if !ok {
		return nil, fmt.Errorf("article service not initialized")
	}

	strategyService, ok := container.Get("strategy").(*services.StrategyService)
	if !ok {
		return nil, fmt.Errorf("strategy service not initialized")
	}

	scriptService, ok := container.Get("script").(*services.ScriptService)
	if !ok {
		return nil, fmt.Errorf("script service not initialized")
	}

	directorService, ok := container.Get("director").(*services.DirectorService)
	if !ok {
		return nil, fmt.Errorf("director service not initialized")
	}

	chatService, ok := container.Get("chat").(*services.ChatService)
	if !ok {
		return nil, fmt.Errorf("chat service not initialized")
	}

	contextService, ok := container.Get("context").(*services.ContextService)
	if !ok {
		return nil, fmt.Errorf("context service not initialized")
	}

	configService, ok := container.Get("config").(*services.ConfigService)
	if !ok {
		return nil, fmt.Errorf("config service not initialized")
	}

	userService, ok := container.Get("user").(*services.UserService)
	if !ok {
		return nil, fmt.Errorf("user service not initialized")
	}

	exportService, ok := container.Get("export").(*services.ExportService)
	if !ok {
		return nil, fmt.Errorf("export service not initialized")
	}

	dataStore, ok := container.Get("store").(*store.Store)
	if !ok {
		return nil, fmt.Errorf("datastore not initialized")
	}

	handler := NewHandler(
		projectService,
		articleService,
		strategyService,
		scriptService,
		directorService,
		chatService,
		contextService,
		configService,
		userService,
		exportService,
		dataStore,
	)

	// Connected clients learn about provider/model switches immediately.
	configService.Subscribe(func(change services.ConfigChange) {
		wsManager.BroadcastAll(map[string]interface{}{
			"type":      "settings:changed",
			"provider":  change.Provider,
			"model":     change.Model,
			"timestamp": change.ChangedAt.Format(time.RFC3339),
		})
	})

	r := gin.Default()

	r.Use(corsMiddleware())
	r.Use(requestIDMiddleware())

	// HTTPS redirect behind a proxy in production.
	if !cfg.DebugMode {
		r.Use(func(c *gin.Context) {
			if c.Request.Header.Get("X-Forwarded-Proto") != "https" {
				c.Redirect(http.StatusPermanentRedirect,
					"https://"+c.Request.Host+c.Request.URL.Path)
				return
			}
			c.Next()
		})
	}

	// WebSocket chat channel. Auth runs first so user_id is available;
	// browsers pass the token as ?token= on the upgrade request.
	r.GET("/ws/projects/:id/chat", AuthMiddleware(), handler.WebSocketHandler.ProjectChatWebSocket)

	api := r.Group("/api")
	api.Use(DefaultRateLimit())
	api.Use(AuthMiddleware())
	{
		api.GET("/status", handler.Status)
		api.GET("/personas", handler.ListPersonas)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
			authGroup.GET("/me", handler.CurrentUser)
		}

		settingsGroup := api.Group("/settings")
		{
			settingsGroup.GET("", handler.GetSettings)
			settingsGroup.PUT("", handler.UpdateSettings)
		}

		llmGroup := api.Group("/llm")
		{
			llmGroup.GET("/models", handler.ListModels)
		}

		projectsGroup := api.Group("/projects")
		{
			projectsGroup.POST("", handler.CreateProject)
			projectsGroup.GET("", handler.ListProjects)
			projectsGroup.GET("/:id", handler.GetProject)
			projectsGroup.PUT("/:id", handler.UpdateProject)
			projectsGroup.PUT("/:id/status", handler.SetProjectStatus)
			projectsGroup.DELETE("/:id", handler.DeleteProject)

			// Source material
			projectsGroup.POST("/:id/articles", handler.AddArticle)
			projectsGroup.POST("/:id/articles/upload", handler.UploadArticle)
			projectsGroup.GET("/:id/articles", handler.ListArticles)
			projectsGroup.GET("/:id/articles/:articleId", handler.GetArticle)
			projectsGroup.DELETE("/:id/articles/:articleId", handler.DeleteArticle)

			// Creative strategies
			projectsGroup.POST("/:id/strategies", handler.CreateStrategy)
			projectsGroup.GET("/:id/strategies", handler.ListStrategies)
			projectsGroup.GET("/:id/strategies/:strategyId", handler.GetStrategy)
			projectsGroup.PUT("/:id/strategies/:strategyId", handler.UpdateStrategy)
			projectsGroup.PUT("/:id/strategies/:strategyId/status", handler.SetStrategyStatus)
			projectsGroup.DELETE("/:id/strategies/:strategyId", handler.DeleteStrategy)

			// Scripts
			projectsGroup.POST("/:id/scripts", handler.CreateScript)
			projectsGroup.GET("/:id/scripts", handler.ListScripts)

			// Project director
			projectsGroup.GET("/:id/health", handler.GetProjectHealth)
			projectsGroup.POST("/:id/notes", handler.AddDirectorNote)
			projectsGroup.GET("/:id/notes", handler.ListDirectorNotes)
			projectsGroup.GET("/:id/export", handler.ExportProject)

			// Persona chat
			projectsGroup.POST("/:id/chat", ChatRateLimit(), handler.SendChatMessage)
			projectsGroup.GET("/:id/chat/:persona/transcript", handler.GetTranscript)
			projectsGroup.GET("/:id/conversations", handler.ListConversations)
			projectsGroup.GET("/:id/context", handler.GetContextSnapshots)
			projectsGroup.POST("/:id/context/transfer", handler.TransferContext)
		}

		scriptsGroup := api.Group("/scripts")
		{
			scriptsGroup.GET("/:scriptId", handler.GetScript)
			scriptsGroup.PUT("/:scriptId", handler.UpdateScript)
			scriptsGroup.POST("/:scriptId/shots", handler.AddShot)
			scriptsGroup.GET("/:scriptId/shots", handler.ListShots)
		}

		shotsGroup := api.Group("/shots")
		{
			shotsGroup.PUT("/:shotId", handler.UpdateShot)
			shotsGroup.DELETE("/:shotId", handler.DeleteShot)
			shotsGroup.PUT("/:shotId/sound", handler.SetSoundNotes)
		}
	}

	return r, nil
}
