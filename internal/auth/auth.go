// Package auth verifies session tokens issued by the hosted auth service.
// It never issues tokens or stores credentials.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the verified identity of the caller. Everything downstream of
// the transport edge receives the user id explicitly.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Claims mirrors the hosted auth service's access token; sub is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Session() Session {
	s := Session{UserID: c.Subject, Email: c.Email, Role: c.Role}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}

type ctxKey struct{}

func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok && s.UserID != ""
}
