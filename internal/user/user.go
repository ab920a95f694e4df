package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
)

// User is a registered identity. The credential never serializes; dashboard
// and signin responses build their own views from the exported fields.
type User struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Credential Credential `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NormalizeEmail lowercases and trims an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
