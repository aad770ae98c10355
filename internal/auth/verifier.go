package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/golang-jwt/jwt/v5"
)

type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

func NewVerifier(cfg internal.AuthConfig) *Verifier {
	return &Verifier{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
		now:      time.Now,
	}
}

// WithClock replaces the verification clock, for tests.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify validates an HS256 access token and returns the session it carries.
func (v *Verifier) Verify(tokenString string) (Session, error) {
	if tokenString == "" {
		return Session{}, internal.ErrMissingSession
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, internal.ErrTokenExpired.WithCause(err)
		}
		return Session{}, internal.ErrInvalidToken.WithCause(err)
	}

	if claims.Subject == "" {
		return Session{}, internal.ErrInvalidToken.WithCause(errors.New("token has no subject"))
	}
	return claims.Session(), nil
}
