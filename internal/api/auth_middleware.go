// internal/api/auth_middleware.go
package api

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/satireworks/greenroom/internal/auth"
	"github.com/satireworks/greenroom/internal/config"
	"github.com/satireworks/greenroom/internal/utils"
)

var tokenConfig *auth.TokenConfig

// InitializeAuth builds the token config. The signing secret comes from the
// environment when set, otherwise from the persisted configuration; on the
// first run without either, a fresh secret is generated and persisted so
// sessions survive restarts. In debug mode a fixed key is used instead.
func InitializeAuth() error {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	var secret []byte
	if envSecret := os.Getenv("GREENROOM_AUTH_SECRET"); envSecret != "" {
		secret = []byte(envSecret)
	} else if cfg.AuthSecret != "" {
		decoded, err := base64.StdEncoding.DecodeString(cfg.AuthSecret)
		if err != nil {
			return fmt.Errorf("stored auth secret is corrupt: %w", err)
		}
		secret = decoded
	} else if cfg.DebugMode {
		secret = []byte("dev_auth_key_for_local_sessions_only____")
		utils.GetLogger().Warn("using the fixed development auth key; set GREENROOM_AUTH_SECRET in production", nil)
	} else {
		generated, err := auth.GenerateSecureKey(32)
		if err != nil {
			return fmt.Errorf("failed to generate auth secret: %w", err)
		}
		if err := config.SetAuthSecret(base64.StdEncoding.EncodeToString(generated)); err != nil {
			return fmt.Errorf("failed to persist auth secret: %w", err)
		}
		secret = generated
	}

	if len(secret) < 32 {
		padded := make([]byte, 32)
		copy(padded, secret)
		secret = padded
	} else if len(secret) > 32 {
		secret = secret[:32]
	}

	tokenConfig = &auth.TokenConfig{
		Secret:     secret,
		Expiration: 24 * time.Hour,
	}
	return nil
}

// TokenConfig exposes the shared token config to service construction.
func TokenConfig() *auth.TokenConfig {
	return tokenConfig
}

// publicEndpoints can be reached without a session token.
var publicEndpoints = []string{
	"/api/auth/register",
	"/api/auth/login",
	"/api/status",
}

func isPublicEndpoint(c *gin.Context) bool {
	path := c.Request.URL.Path
	for _, public := range publicEndpoints {
		if path == public {
			return true
		}
	}
	return false
}

// AuthMiddleware validates the bearer token and stores the user ID in the
// request context.
func AuthMiddleware() gin.HandlerFunc {
	helper := NewResponseHelper()

	return func(c *gin.Context) {
		if isPublicEndpoint(c) {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			// Desktop shells pass the token as a query parameter for
			// websocket upgrades, which cannot set headers.
			if queryToken := c.Query("token"); queryToken != "" {
				header = "Bearer " + queryToken
			}
		}

		if !strings.HasPrefix(header, "Bearer ") {
			helper.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}

		token, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "), tokenConfig)
		if err != nil {
			helper.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", token.UserID)
		c.Next()
	}
}
