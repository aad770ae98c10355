package auth

import (
	"net/http"

	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/transport"
	"github.com/frahmantamala/budget-tracker/pkg/logger"
)

type TokenVerifier interface {
	Verify(token string) (Session, error)
}

type Middleware struct {
	*transport.BaseHandler
	verifier TokenVerifier
}

func NewMiddleware(base *transport.BaseHandler, verifier TokenVerifier) *Middleware {
	return &Middleware{BaseHandler: base, verifier: verifier}
}

// RequireSession rejects requests without a valid bearer token and stores the
// session in the request context.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.ExtractTokenFromHeader(r)
		if token == "" {
			m.HandleServiceError(w, internal.ErrMissingSession)
			return
		}

		session, err := m.verifier.Verify(token)
		if err != nil {
			m.Log(r).Warn("session verification failed", "error", err)
			m.HandleServiceError(w, err)
			return
		}

		ctx := ContextWithSession(r.Context(), session)
		ctx = logger.WithUser(ctx, session.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID reads the session placed by RequireSession. Handlers call it once
// and pass the id into services.
func UserID(r *http.Request) (string, error) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		return "", internal.ErrMissingSession
	}
	return session.UserID, nil
}
