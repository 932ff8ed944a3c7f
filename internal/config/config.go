// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"github.com/satireworks/greenroom/internal/utils"
)

var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig holds every runtime setting, including the persisted LLM
// provider selection.
type AppConfig struct {
	Port      string `json:"port"`
	DataDir   string `json:"data_dir"`
	LogDir    string `json:"log_dir"`
	DebugMode bool   `json:"debug_mode"`

	// Token signing secret, base64; generated on first run when absent.
	AuthSecret string `json:"auth_secret,omitempty"`

	// LLM provider selection.
	LLMProvider string            `json:"llm_provider"`
	LLMConfig   map[string]string `json:"llm_config"`
}

// Config is the environment-derived bootstrap configuration.
type Config struct {
	Port      string
	APIKey    string
	DataDir   string
	LogDir    string
	DebugMode bool
	ConfigKey string // at-rest encryption key for stored API keys
}

// Load reads the bootstrap configuration from the environment.
func Load() (*Config, error) {
	// .env is optional
	godotenv.Load()

	config := &Config{
		Port:      getEnv("PORT", "8080"),
		APIKey:    getEnv("LLM_API_KEY", ""),
		DataDir:   getEnvPath("DATA_DIR", "data"),
		LogDir:    getEnvPath("LOG_DIR", "logs"),
		DebugMode: getEnvBool("DEBUG_MODE", true),
		ConfigKey: getEnv("GREENROOM_CONFIG_KEY", ""),
	}

	if config.APIKey == "" {
		log.Println("warning: LLM_API_KEY not set; configure a provider through the settings API before generating")
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			fmt.Printf("warning: failed to create directory %s: %v\n", path, err)
		}
	}

	return path
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// InitConfig loads the persisted configuration, merging it over the
// environment bootstrap, and writes the result back.
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	baseConfig, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	currentConfig = &AppConfig{
		Port:        baseConfig.Port,
		DataDir:     baseConfig.DataDir,
		LogDir:      baseConfig.LogDir,
		DebugMode:   baseConfig.DebugMode,
		LLMProvider: "openai",
		LLMConfig: map[string]string{
			"api_key":       baseConfig.APIKey,
			"default_model": "gpt-4o",
		},
	}

	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		data, err := os.ReadFile(configFile)
		if err == nil {
			var savedConfig AppConfig
			if json.Unmarshal(data, &savedConfig) == nil {
				// Keep the saved LLM settings but always refresh the
				// environment-derived fields.
				savedConfig.Port = baseConfig.Port
				savedConfig.DataDir = baseConfig.DataDir
				savedConfig.LogDir = baseConfig.LogDir
				savedConfig.DebugMode = baseConfig.DebugMode

				if savedConfig.LLMConfig != nil {
					decryptAPIKey(savedConfig.LLMConfig, baseConfig.ConfigKey)
					if savedConfig.LLMConfig["api_key"] == "" {
						savedConfig.LLMConfig["api_key"] = baseConfig.APIKey
					}
				}

				currentConfig = &savedConfig
			}
		}
	}

	return saveConfigLocked()
}

// GetCurrentConfig returns a copy of the current configuration.
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		baseConfig, _ := Load()
		return &AppConfig{
			Port:        baseConfig.Port,
			DataDir:     baseConfig.DataDir,
			LogDir:      baseConfig.LogDir,
			DebugMode:   baseConfig.DebugMode,
			LLMProvider: "openai",
			LLMConfig: map[string]string{
				"api_key": baseConfig.APIKey,
			},
		}
	}

	configCopy := *currentConfig
	configCopy.LLMConfig = make(map[string]string, len(currentConfig.LLMConfig))
	for k, v := range currentConfig.LLMConfig {
		configCopy.LLMConfig[k] = v
	}
	return &configCopy
}

// UpdateLLMConfig replaces the LLM provider selection and persists it.
func UpdateLLMConfig(provider string, llmConfig map[string]string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("configuration not initialized")
	}

	currentConfig.LLMProvider = provider
	currentConfig.LLMConfig = llmConfig

	return saveConfigLocked()
}

// SetAuthSecret stores the token signing secret.
func SetAuthSecret(secret string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("configuration not initialized")
	}

	currentConfig.AuthSecret = secret
	return saveConfigLocked()
}

// SaveConfig persists the current configuration to disk.
func SaveConfig() error {
	configMutex.Lock()
	defer configMutex.Unlock()
	return saveConfigLocked()
}

// saveConfigLocked writes the config file. API keys are encrypted at rest
// when GREENROOM_CONFIG_KEY is set. Caller must hold configMutex.
func saveConfigLocked() error {
	if currentConfig == nil {
		return fmt.Errorf("no configuration to save")
	}

	dir := filepath.Dir(configFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	persisted := *currentConfig
	persisted.LLMConfig = make(map[string]string, len(currentConfig.LLMConfig))
	for k, v := range currentConfig.LLMConfig {
		persisted.LLMConfig[k] = v
	}
	encryptAPIKey(persisted.LLMConfig, os.Getenv("GREENROOM_CONFIG_KEY"))

	data, err := json.MarshalIndent(&persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	return os.WriteFile(configFile, data, 0600)
}

const encryptedKeyPrefix = "enc:"

func encryptAPIKey(llmConfig map[string]string, key string) {
	if key == "" || llmConfig == nil {
		return
	}
	apiKey := llmConfig["api_key"]
	if apiKey == "" {
		return
	}
	encrypted, err := utils.Encrypt(apiKey, key)
	if err != nil {
		log.Printf("warning: failed to encrypt stored API key: %v", err)
		return
	}
	llmConfig["api_key"] = encryptedKeyPrefix + encrypted
}

func decryptAPIKey(llmConfig map[string]string, key string) {
	apiKey := llmConfig["api_key"]
	if len(apiKey) <= len(encryptedKeyPrefix) || apiKey[:len(encryptedKeyPrefix)] != encryptedKeyPrefix {
		return
	}
	if key == "" {
		log.Println("warning: stored API key is encrypted but GREENROOM_CONFIG_KEY is not set")
		llmConfig["api_key"] = ""
		return
	}
	decrypted, err := utils.Decrypt(apiKey[len(encryptedKeyPrefix):], key)
	if err != nil {
		log.Printf("warning: failed to decrypt stored API key: %v", err)
		llmConfig["api_key"] = ""
		return
	}
	llmConfig["api_key"] = decrypted
}
