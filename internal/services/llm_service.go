// internal/services/llm_service.go
package services

import (
	"context"
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/satireworks/greenroom/internal/config"
	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/llm"
	"github.com/satireworks/greenroom/internal/models"

	// Provider factories self-register on import.
	_ "github.com/satireworks/greenroom/internal/llm/providers/anthropic"
	_ "github.com/satireworks/greenroom/internal/llm/providers/google"
	_ "github.com/satireworks/greenroom/internal/llm/providers/ollama"
	_ "github.com/satireworks/greenroom/internal/llm/providers/openai"
)

// LLMService is the single front door to the configured LLM provider. It
// owns the provider instance, its readiness state and a response cache.
type LLMService struct {
	providerMutex      sync.RWMutex
	provider           llm.Provider
	providerName       string
	cache              *LLMCache
	isReady            bool
	readyState         string
	activeDefaultModel string
}

// LLMCache memoizes deterministic completions (temperature 0 requests and
// repeated persona prompts) for a bounded window.
type LLMCache struct {
	cache      map[string]*CacheEntry
	mutex      sync.RWMutex
	expiration time.Duration
}

type CacheEntry struct {
	Response  *llm.CompletionResponse
	CreatedAt time.Time
}

// PersonaReplyRequest is everything needed to generate one persona turn.
type PersonaReplyRequest struct {
	Persona     Persona
	UserMessage string
	Context     *models.EnhancedContext
	History     []models.Message
	Model       string
	MaxTokens   int
}

// NewLLMService builds the service from the current configuration. A missing
// or broken provider configuration yields a not-ready service, never an
// error; the studio stays usable for non-chat work.
func NewLLMService() (*LLMService, error) {
	service := createBaseLLMService()

	cfg := config.GetCurrentConfig()
	if cfg == nil {
		service.readyState = "Failed to retrieve configuration"
		return service, nil
	}

	if cfg.LLMProvider == "" {
		service.readyState = "LLM provider not configured"
		return service, nil
	}
	if requiresAPIKey(cfg.LLMProvider) && (cfg.LLMConfig == nil || cfg.LLMConfig["api_key"] == "") {
		service.readyState = "API key not configured"
		return service, nil
	}

	provider, err := llm.GetProvider(cfg.LLMProvider, cfg.LLMConfig)
	if err != nil {
		service.readyState = fmt.Sprintf("Initialization failed: %v", err)
		return service, nil
	}

	service.provider = provider
	service.providerName = cfg.LLMProvider
	service.activeDefaultModel = cfg.LLMConfig["default_model"]
	service.isReady = true
	service.readyState = "Ready"

	return service, nil
}

// NewEmptyLLMService returns a standby instance used when configuration has
// not been loaded yet.
func NewEmptyLLMService() *LLMService {
	service := createBaseLLMService()
	service.providerName = "empty"
	service.readyState = "Standby mode - configure an LLM provider in settings"
	return service
}

func createBaseLLMService() *LLMService {
	return &LLMService{
		readyState: "Uninitialized",
		cache: &LLMCache{
			cache:      make(map[string]*CacheEntry),
			expiration: 30 * time.Minute,
		},
	}
}

// requiresAPIKey reports whether a provider needs a key. Local backends
// don't.
func requiresAPIKey(providerName string) bool {
	return providerName != "ollama"
}

// IsReady returns whether the service can serve completions.
func (s *LLMService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.provider != nil && s.isReady
}

// GetReadyState returns a human-readable readiness description.
func (s *LLMService) GetReadyState() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()

	if s.provider != nil && s.isReady {
		return "Ready"
	}
	return s.readyState
}

// GetProviderName returns the configured provider key, or "" if none.
func (s *LLMService) GetProviderName() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.providerName
}

// GetProvider exposes the underlying provider for model-list queries.
func (s *LLMService) GetProvider() llm.Provider {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.provider
}

// GetDefaultModel returns the active default model name.
func (s *LLMService) GetDefaultModel() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.activeDefaultModel
}

// UpdateProvider swaps the active provider at runtime and drops the cache.
func (s *LLMService) UpdateProvider(providerName string, providerConfig map[string]string) error {
	provider, err := llm.GetProvider(providerName, providerConfig)
	if err != nil {
		s.providerMutex.Lock()
		s.isReady = false
		s.readyState = fmt.Sprintf("Configuration failed: %v", err)
		s.providerMutex.Unlock()
		return err
	}

	s.providerMutex.Lock()
	defer s.providerMutex.Unlock()

	s.provider = provider
	s.providerName = providerName
	s.activeDefaultModel = providerConfig["default_model"]
	s.isReady = true
	s.readyState = "Ready"

	s.cache = &LLMCache{
		cache:      make(map[string]*CacheEntry),
		expiration: 30 * time.Minute,
	}

	return nil
}

func (s *LLMService) generateCacheKey(prompt, systemPrompt, model string) string {
	s.providerMutex.RLock()
	providerName := s.providerName
	s.providerMutex.RUnlock()

	hashInput := fmt.Sprintf("%s:::%s:::%s:::%s",
		prompt, systemPrompt, model, providerName)
	h := md5.New()
	h.Write([]byte(hashInput))
	return fmt.Sprintf("%x", h.Sum(nil))
}

func (c *LLMCache) getFromCache(key string) (*llm.CompletionResponse, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[key]
	if !exists {
		return nil, false
	}
	if time.Since(entry.CreatedAt) > c.expiration {
		return nil, false
	}
	return entry.Response, true
}

func (c *LLMCache) saveToCache(key string, response *llm.CompletionResponse) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[key] = &CacheEntry{
		Response:  response,
		CreatedAt: time.Now(),
	}

	if len(c.cache) > 1000 {
		c.cleanupOldest(100)
	}
}

func (c *LLMCache) cleanupOldest(count int) {
	type keyAge struct {
		key string
		age time.Time
	}

	entries := make([]keyAge, 0, len(c.cache))
	for k, v := range c.cache {
		entries = append(entries, keyAge{k, v.CreatedAt})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].age.Before(entries[j].age)
	})

	maxToDelete := count
	if maxToDelete > len(entries) {
		maxToDelete = len(entries)
	}
	for i := 0; i < maxToDelete; i++ {
		delete(c.cache, entries[i].key)
	}
}

// buildPersonaPrompt assembles the system prompt for a persona turn: the
// persona's fixed voice, then whatever enhanced context is available, then
// the continuity instruction.
func buildPersonaPrompt(req PersonaReplyRequest) (systemPrompt, userPrompt string) {
	var sb strings.Builder
	sb.WriteString(req.Persona.SystemPrompt)

	if req.Context != nil {
		if req.Context.BaseContext != "" {
			sb.WriteString("\n\n## Project context\n")
			sb.WriteString(req.Context.BaseContext)
		}
		if len(req.Context.FormatConstraints) > 0 {
			sb.WriteString("\n\n")
			sb.WriteString(strings.Join(req.Context.FormatConstraints, "\n"))
		}
		if len(req.Context.CharacterNotes) > 0 {
			sb.WriteString("\n\n## Recurring characters\n")
			sb.WriteString(strings.Join(req.Context.CharacterNotes, "\n"))
		}
		if len(req.Context.KeyDecisions) > 0 {
			sb.WriteString("\n\n## Decisions already made\n")
			sb.WriteString(strings.Join(req.Context.KeyDecisions, "\n"))
		}
		if req.Context.HistorySummary != "" {
			sb.WriteString("\n\n## Conversation so far\n")
			sb.WriteString(req.Context.HistorySummary)
		}
	}

	if req.Persona.ContinuityPrompt != "" {
		sb.WriteString("\n\n")
		sb.WriteString(req.Persona.ContinuityPrompt)
	}
	systemPrompt = sb.String()

	// Recent turns go into the user prompt verbatim so the model sees the
	// exchange shape even on providers without multi-message support.
	var ub strings.Builder
	for _, msg := range req.History {
		speaker := msg.Sender
		if speaker == models.SenderUser {
			speaker = "User"
		}
		ub.WriteString(fmt.Sprintf("%s: %s\n", speaker, msg.Content))
	}
	ub.WriteString("User: ")
	ub.WriteString(req.UserMessage)
	userPrompt = ub.String()

	return systemPrompt, userPrompt
}

// GeneratePersonaReply runs one blocking persona turn.
func (s *LLMService) GeneratePersonaReply(ctx context.Context, req PersonaReplyRequest) (*llm.CompletionResponse, error) {
	s.providerMutex.RLock()
	provider := s.provider
	defaultModel := s.activeDefaultModel
	ready := s.isReady
	s.providerMutex.RUnlock()

	if !ready || provider == nil {
		return nil, apperrors.NewProcessingError("LLM service is not ready: "+s.GetReadyState(), nil)
	}

	systemPrompt, userPrompt := buildPersonaPrompt(req)

	model := req.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	cacheKey := s.generateCacheKey(userPrompt, systemPrompt, model)
	if cached, hit := s.cache.getFromCache(cacheKey); hit {
		return cached, nil
	}

	response, err := provider.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       userPrompt,
		SystemPrompt: systemPrompt,
		Model:        model,
		MaxTokens:    maxTokens,
		Temperature:  req.Persona.DefaultTemperature,
	})
	if err != nil {
		return nil, apperrors.NewProcessingError("completion failed", err)
	}

	s.cache.saveToCache(cacheKey, response)
	return response, nil
}

// StreamPersonaReply runs one persona turn as a chunk stream. Streamed
// replies are never cached.
func (s *LLMService) StreamPersonaReply(ctx context.Context, req PersonaReplyRequest) (<-chan llm.StreamResponse, error) {
	s.providerMutex.RLock()
	provider := s.provider
	defaultModel := s.activeDefaultModel
	ready := s.isReady
	s.providerMutex.RUnlock()

	if !ready || provider == nil {
		return nil, apperrors.NewProcessingError("LLM service is not ready: "+s.GetReadyState(), nil)
	}

	systemPrompt, userPrompt := buildPersonaPrompt(req)

	model := req.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	return provider.StreamCompletion(ctx, llm.CompletionRequest{
		Prompt:       userPrompt,
		SystemPrompt: systemPrompt,
		Model:        model,
		MaxTokens:    maxTokens,
		Temperature:  req.Persona.DefaultTemperature,
		Stream:       true,
	})
}
