// internal/services/user_service.go
package services

import (
	"strings"
	"time"

	"github.com/satireworks/greenroom/internal/auth"
	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
)

// UserService handles registration and login. Passwords are bcrypt-hashed;
// sessions are signed HMAC tokens.
type UserService struct {
	store       *store.Store
	tokenConfig *auth.TokenConfig
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func NewUserService(s *store.Store, tokenConfig *auth.TokenConfig) *UserService {
	return &UserService{store: s, tokenConfig: tokenConfig}
}

func (us *UserService) Register(req RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, apperrors.NewValidationError("username is required", nil)
	}
	if len(req.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to hash password", err)
	}

	user := &models.User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
	}
	if err := us.store.CreateUser(user); err != nil {
		return nil, err
	}

	return user.PublicUser(), nil
}

func (us *UserService) Login(req LoginRequest) (*LoginResult, error) {
	user, err := us.store.GetUserByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		// Same response for unknown user and bad password.
		return nil, apperrors.NewUnauthorizedError("invalid credentials", nil)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.NewUnauthorizedError("invalid credentials", nil)
	}

	token, err := auth.GenerateToken(user.ID, us.tokenConfig)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to issue token", err)
	}

	user.LastLogin = time.Now()
	if err := us.store.UpdateUser(user); err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, User: user.PublicUser()}, nil
}

// GetUser returns the public view of a user.
func (us *UserService) GetUser(id string) (*models.User, error) {
	user, err := us.store.GetUser(id)
	if err != nil {
		return nil, err
	}
	return user.PublicUser(), nil
}

// ValidateToken parses a session token and confirms the user still exists.
func (us *UserService) ValidateToken(tokenString string) (*models.User, error) {
	token, err := auth.ParseToken(tokenString, us.tokenConfig)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid or expired token", err)
	}
	return us.store.GetUser(token.UserID)
}
