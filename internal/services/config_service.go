// internal/services/config_service.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/satireworks/greenroom/internal/config"
	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/llm"
	"github.com/satireworks/greenroom/internal/utils"
)

// configHistorySize bounds the kept change records.
const configHistorySize = 20

// ConfigChange records one settings update for the settings screen's
// history panel. API keys are never stored in it.
type ConfigChange struct {
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	ChangedAt time.Time `json:"changed_at"`
}

// ConfigService applies LLM settings changes: it validates the requested
// model against the provider's live model list (falling back to the static
// list when the backend is unreachable), persists the config and swaps the
// running provider.
type ConfigService struct {
	mu          sync.Mutex
	llm         *LLMService
	history     []ConfigChange
	subscribers []func(ConfigChange)
	logger      *utils.Logger
}

// SettingsRequest is the shape accepted from the settings screen.
type SettingsRequest struct {
	Provider     string   `json:"provider"`
	APIKey       string   `json:"api_key,omitempty"`
	DefaultModel string   `json:"default_model,omitempty"`
	BaseURL      string   `json:"base_url,omitempty"`
	CustomModels []string `json:"custom_models,omitempty"`
}

// SettingsView is what the settings screen sees. The API key is masked.
type SettingsView struct {
	Provider        string         `json:"provider"`
	DefaultModel    string         `json:"default_model"`
	APIKeySet       bool           `json:"api_key_set"`
	Ready           bool           `json:"ready"`
	ReadyState      string         `json:"ready_state"`
	Providers       []string       `json:"providers"`
	SupportedModels []string       `json:"supported_models"`
	History         []ConfigChange `json:"history,omitempty"`
}

func NewConfigService(llmService *LLMService) *ConfigService {
	return &ConfigService{
		llm:    llmService,
		logger: utils.GetLogger(),
	}
}

// GetSettings returns the masked settings view.
func (cs *ConfigService) GetSettings() *SettingsView {
	cfg := config.GetCurrentConfig()

	view := &SettingsView{
		Ready:      cs.llm.IsReady(),
		ReadyState: cs.llm.GetReadyState(),
		Providers:  llm.ListProviders(),
	}
	if cfg != nil {
		view.Provider = cfg.LLMProvider
		view.DefaultModel = cfg.LLMConfig["default_model"]
		view.APIKeySet = cfg.LLMConfig["api_key"] != ""
	}
	if provider := cs.llm.GetProvider(); provider != nil {
		view.SupportedModels = provider.GetSupportedModels()
	} else if view.Provider != "" {
		view.SupportedModels = llm.GetSupportedModelsForProvider(view.Provider)
	}

	cs.mu.Lock()
	view.History = append(view.History, cs.history...)
	cs.mu.Unlock()

	return view
}

// UpdateSettings validates and applies a settings change.
func (cs *ConfigService) UpdateSettings(ctx context.Context, req SettingsRequest) (*SettingsView, error) {
	if req.Provider == "" {
		return nil, apperrors.NewValidationError("provider is required", nil)
	}

	known := false
	for _, name := range llm.ListProviders() {
		if name == req.Provider {
			known = true
			break
		}
	}
	if !known {
		return nil, apperrors.NewValidationError("unknown provider: "+req.Provider, nil)
	}

	cfg := config.GetCurrentConfig()
	llmConfig := map[string]string{}
	if cfg != nil && cfg.LLMProvider == req.Provider {
		for k, v := range cfg.LLMConfig {
			llmConfig[k] = v
		}
	}
	if req.APIKey != "" {
		llmConfig["api_key"] = req.APIKey
	}
	if req.DefaultModel != "" {
		llmConfig["default_model"] = req.DefaultModel
	}
	if req.BaseURL != "" {
		llmConfig["base_url"] = req.BaseURL
	}

	if requiresAPIKey(req.Provider) && llmConfig["api_key"] == "" {
		return nil, apperrors.NewValidationError("api_key is required for provider "+req.Provider, nil)
	}

	if req.DefaultModel != "" {
		if err := cs.validateModel(ctx, req.Provider, req.DefaultModel, llmConfig, req.CustomModels); err != nil {
			return nil, err
		}
	}

	if err := cs.llm.UpdateProvider(req.Provider, llmConfig); err != nil {
		return nil, apperrors.NewProcessingError("failed to configure provider", err)
	}
	if len(req.CustomModels) > 0 {
		if provider := cs.llm.GetProvider(); provider != nil {
			provider.SetCustomModels(req.CustomModels)
		}
	}

	if err := config.UpdateLLMConfig(req.Provider, llmConfig); err != nil {
		return nil, apperrors.NewProcessingError("failed to persist configuration", err)
	}

	change := ConfigChange{
		Provider:  req.Provider,
		Model:     llmConfig["default_model"],
		ChangedAt: time.Now(),
	}

	cs.mu.Lock()
	cs.history = append(cs.history, change)
	if len(cs.history) > configHistorySize {
		cs.history = cs.history[len(cs.history)-configHistorySize:]
	}
	subscribers := append([]func(ConfigChange){}, cs.subscribers...)
	cs.mu.Unlock()

	for _, notify := range subscribers {
		notify(change)
	}

	cs.logger.Info("llm settings updated", map[string]interface{}{
		"provider": req.Provider,
		"model":    llmConfig["default_model"],
	})

	return cs.GetSettings(), nil
}

// Subscribe registers a callback invoked after every applied settings
// change. Callbacks run synchronously on the updating goroutine.
func (cs *ConfigService) Subscribe(fn func(ConfigChange)) {
	cs.mu.Lock()
	cs.subscribers = append(cs.subscribers, fn)
	cs.mu.Unlock()
}

// validateModel checks the requested model against the provider's live
// model list. An unreachable backend downgrades to the static list rather
// than blocking the change.
func (cs *ConfigService) validateModel(ctx context.Context, providerName, model string, llmConfig map[string]string, customModels []string) error {
	for _, m := range customModels {
		if m == model {
			return nil
		}
	}

	probe, err := llm.GetProvider(providerName, llmConfig)
	if err != nil {
		return apperrors.NewValidationError("provider rejected the configuration", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := probe.FetchAvailableModels(fetchCtx); err != nil {
		cs.logger.Warn("live model list unavailable, using static list", map[string]interface{}{
			"provider": providerName,
			"error":    err.Error(),
		})
	}

	for _, m := range probe.GetSupportedModels() {
		if m == model {
			return nil
		}
	}
	return apperrors.NewValidationError("model not available on provider "+providerName+": "+model, nil)
}

// ListModels returns the live model list for the active provider, falling
// back to the static list.
func (cs *ConfigService) ListModels(ctx context.Context) ([]string, error) {
	provider := cs.llm.GetProvider()
	if provider == nil {
		name := ""
		if cfg := config.GetCurrentConfig(); cfg != nil {
			name = cfg.LLMProvider
		}
		if name == "" {
			return nil, apperrors.NewProcessingError("no provider configured", nil)
		}
		return llm.GetSupportedModelsForProvider(name), nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := provider.FetchAvailableModels(fetchCtx); err != nil {
		cs.logger.Warn("live model list unavailable, using static list", map[string]interface{}{
			"provider": cs.llm.GetProviderName(),
			"error":    err.Error(),
		})
	}
	return provider.GetSupportedModels(), nil
}
