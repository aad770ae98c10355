package auth_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/auth"
	"github.com/frahmantamala/budget-tracker/internal/transport"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

const secret = "0123456789abcdef0123456789abcdef"

var now = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func sign(key string, method jwt.SigningMethod, claims auth.Claims) string {
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	Expect(err).NotTo(HaveOccurred())
	return token
}

func validClaims() auth.Claims {
	return auth.Claims{
		Email: "ana@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "3f1c2a9e-user",
			Issuer:    "https://auth.example.com",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		},
	}
}

var _ = Describe("Verifier", func() {
	var verifier *auth.Verifier

	BeforeEach(func() {
		verifier = auth.NewVerifier(internal.AuthConfig{
			JWTSecret: secret,
			Issuer:    "https://auth.example.com",
			Audience:  "authenticated",
		}).WithClock(func() time.Time { return now })
	})

	It("returns the session of a valid token", func() {
		session, err := verifier.Verify(sign(secret, jwt.SigningMethodHS256, validClaims()))
		Expect(err).NotTo(HaveOccurred())
		Expect(session.UserID).To(Equal("3f1c2a9e-user"))
		Expect(session.Email).To(Equal("ana@example.com"))
		Expect(session.ExpiresAt).To(BeTemporally("==", now.Add(time.Hour)))
	})

	It("rejects an empty token as a missing session", func() {
		_, err := verifier.Verify("")
		Expect(errors.Is(err, internal.ErrMissingSession)).To(BeTrue())
	})

	It("rejects an expired token", func() {
		claims := validClaims()
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
		_, err := verifier.Verify(sign(secret, jwt.SigningMethodHS256, claims))
		Expect(errors.Is(err, internal.ErrTokenExpired)).To(BeTrue())
	})

	It("rejects a token signed with another secret", func() {
		_, err := verifier.Verify(sign("another-secret-another-secret-000", jwt.SigningMethodHS256, validClaims()))
		Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
	})

	It("rejects a token for another audience", func() {
		claims := validClaims()
		claims.Audience = jwt.ClaimStrings{"service_role"}
		_, err := verifier.Verify(sign(secret, jwt.SigningMethodHS256, claims))
		Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
	})

	It("rejects a token without a subject", func() {
		claims := validClaims()
		claims.Subject = ""
		_, err := verifier.Verify(sign(secret, jwt.SigningMethodHS256, claims))
		Expect(errors.Is(err, internal.ErrInvalidToken)).To(BeTrue())
	})
})

var _ = Describe("Middleware", func() {
	var (
		handler http.Handler
		seen    string
	)

	BeforeEach(func() {
		seen = ""
		verifier := auth.NewVerifier(internal.AuthConfig{JWTSecret: secret}).WithClock(func() time.Time { return now })
		base := transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
		handler = auth.NewMiddleware(base, verifier).RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := auth.UserID(r)
			Expect(err).NotTo(HaveOccurred())
			seen = userID
			w.WriteHeader(http.StatusNoContent)
		}))
	})

	It("passes the session to the next handler", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
		req.Header.Set("Authorization", "Bearer "+sign(secret, jwt.SigningMethodHS256, validClaims()))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(seen).To(Equal("3f1c2a9e-user"))
	})

	It("answers 401 with a JSON error when the header is missing", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Error.Code).To(Equal(string(internal.ErrCodeMissingSession)))
		Expect(seen).To(BeEmpty())
	})

	It("reports missing sessions outside the middleware", func() {
		_, err := auth.UserID(httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(errors.Is(err, internal.ErrMissingSession)).To(BeTrue())
	})
})
