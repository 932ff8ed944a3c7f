// internal/services/user_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/satireworks/greenroom/internal/auth"
	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/store"
)

func newUserFixture(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(store.NewInMemory(), &auth.TokenConfig{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		Expiration: time.Hour,
	})
}

func TestRegisterStripsPasswordHash(t *testing.T) {
	us := newUserFixture(t)

	user, err := us.Register(RegisterRequest{
		Username: "lois",
		Email:    "lois@example.com",
		Password: "a long enough password",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.PasswordHash != "" {
		t.Error("registration response should not carry the password hash")
	}
	if user.ID == "" {
		t.Error("registered user should have an ID")
	}
}

func TestRegisterValidation(t *testing.T) {
	us := newUserFixture(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing username", RegisterRequest{Password: "a long enough password"}},
		{"short password", RegisterRequest{Username: "lois", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := us.Register(tt.req); !apperrors.IsValidationError(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	us := newUserFixture(t)

	if _, err := us.Register(RegisterRequest{Username: "clark", Password: "a long enough password"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	result, err := us.Login(LoginRequest{Username: "clark", Password: "a long enough password"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Token == "" {
		t.Fatal("login should issue a token")
	}
	if result.User.PasswordHash != "" {
		t.Error("login response should not carry the password hash")
	}

	user, err := us.ValidateToken(result.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if user.Username != "clark" {
		t.Errorf("token resolved to %q, want clark", user.Username)
	}
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	us := newUserFixture(t)

	if _, err := us.Register(RegisterRequest{Username: "clark", Password: "a long enough password"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, errUnknown := us.Login(LoginRequest{Username: "nobody", Password: "whatever password"})
	_, errWrongPass := us.Login(LoginRequest{Username: "clark", Password: "wrong password here"})

	if errUnknown == nil || errWrongPass == nil {
		t.Fatal("both login attempts should fail")
	}
	// The two failures must be indistinguishable to the caller.
	if errUnknown.Error() != errWrongPass.Error() {
		t.Errorf("unknown-user error %q differs from wrong-password error %q", errUnknown, errWrongPass)
	}
}
