// Package user exposes the caller's identity as verified by the session
// token. Accounts themselves live in the hosted auth service.
package user

import (
	"time"

	"github.com/frahmantamala/budget-tracker/internal/auth"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"session_expires_at"`
}

func FromSession(s auth.Session) User {
	return User{
		ID:        s.UserID,
		Email:     s.Email,
		Role:      s.Role,
		ExpiresAt: s.ExpiresAt,
	}
}
