// internal/app/app.go
package app

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/satireworks/greenroom/internal/api"
	"github.com/satireworks/greenroom/internal/config"
	"github.com/satireworks/greenroom/internal/di"
	"github.com/satireworks/greenroom/internal/services"
	"github.com/satireworks/greenroom/internal/store"
	"github.com/satireworks/greenroom/internal/utils"
)

// InitServices builds every service in dependency order and registers it in
// the DI container. config.InitConfig must have run first.
func InitServices() error {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not initialized")
	}

	if err := initLogger(cfg.LogDir); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	container := di.GetContainer()

	dataStore, err := store.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	container.Register("store", dataStore)

	if err := api.InitializeAuth(); err != nil {
		return fmt.Errorf("initializing auth: %w", err)
	}

	// LLM service tolerates missing provider config and starts not-ready.
	llmService, err := services.NewLLMService()
	if err != nil {
		utils.GetLogger().Warn("LLM service started without a provider", map[string]interface{}{
			"error": err.Error(),
		})
		llmService = services.NewEmptyLLMService()
	}
	container.Register("llm", llmService)

	contextService := services.NewContextService(dataStore)
	container.Register("context", contextService)

	container.Register("project", services.NewProjectService(dataStore, contextService))
	container.Register("article", services.NewArticleService(dataStore))
	container.Register("strategy", services.NewStrategyService(dataStore))

	scriptService := services.NewScriptService(dataStore)
	container.Register("script", scriptService)

	container.Register("director", services.NewDirectorService(dataStore))
	container.Register("chat", services.NewChatService(dataStore, llmService, contextService))
	container.Register("config", services.NewConfigService(llmService))
	container.Register("user", services.NewUserService(dataStore, api.TokenConfig()))
	container.Register("export", services.NewExportService(dataStore, scriptService))

	utils.GetLogger().Info("services initialized", map[string]interface{}{
		"count": len(container.GetNames()),
	})

	return nil
}

// initLogger points the shared logger at a dated file under logDir.
func initLogger(logDir string) error {
	logFile := filepath.Join(logDir, fmt.Sprintf("greenroom-%s.log", time.Now().Format("2006-01-02")))
	return utils.InitLogger(logFile)
}
