// internal/models/user.go
package models

import (
	"time"
)

// User is a member of the creative team.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    time.Time `json:"last_login"`
}

// PublicUser strips credential fields for API responses.
func (u *User) PublicUser() *User {
	copied := *u
	copied.PasswordHash = ""
	return &copied
}
