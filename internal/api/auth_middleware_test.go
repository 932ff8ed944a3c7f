// internal/api/auth_middleware_test.go
package api

import (
	"bytes"
	"testing"

	"github.com/satireworks/greenroom/internal/auth"
	"github.com/satireworks/greenroom/internal/config"
)

func initAuthFixture(t *testing.T, dataDir string) {
	t.Helper()
	t.Setenv("DEBUG_MODE", "false")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("LOG_DIR", t.TempDir())
	t.Setenv("GREENROOM_AUTH_SECRET", "")

	if err := config.InitConfig(dataDir); err != nil {
		t.Fatalf("InitConfig: %v", err)
	}
	if err := InitializeAuth(); err != nil {
		t.Fatalf("InitializeAuth: %v", err)
	}
}

func TestAuthSecretPersistedOnFirstRun(t *testing.T) {
	initAuthFixture(t, t.TempDir())

	cfg := config.GetCurrentConfig()
	if cfg.AuthSecret == "" {
		t.Fatal("first run should persist a generated auth secret")
	}
	if len(TokenConfig().Secret) != 32 {
		t.Errorf("secret length = %d, want 32", len(TokenConfig().Secret))
	}
}

func TestAuthSecretSurvivesRestart(t *testing.T) {
	dataDir := t.TempDir()
	initAuthFixture(t, dataDir)

	first := append([]byte{}, TokenConfig().Secret...)
	token, err := auth.GenerateToken("user-1", TokenConfig())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	// Reload the config from disk and rebuild the token config, as a
	// process restart would.
	if err := config.InitConfig(dataDir); err != nil {
		t.Fatalf("InitConfig after restart: %v", err)
	}
	if err := InitializeAuth(); err != nil {
		t.Fatalf("InitializeAuth after restart: %v", err)
	}

	if !bytes.Equal(first, TokenConfig().Secret) {
		t.Fatal("restart should load the same signing secret")
	}
	if _, err := auth.ParseToken(token, TokenConfig()); err != nil {
		t.Errorf("session issued before the restart should still parse: %v", err)
	}
}

func TestEnvSecretOverridesPersisted(t *testing.T) {
	dataDir := t.TempDir()
	initAuthFixture(t, dataDir)

	t.Setenv("GREENROOM_AUTH_SECRET", "operator-supplied-secret-abcdef01")
	if err := InitializeAuth(); err != nil {
		t.Fatalf("InitializeAuth with env secret: %v", err)
	}

	want := []byte("operator-supplied-secret-abcdef01")[:32]
	if !bytes.Equal(TokenConfig().Secret, want) {
		t.Error("environment secret should take precedence over the persisted one")
	}
}
