package user_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frahmantamala/budget-tracker/internal/auth"
	"github.com/frahmantamala/budget-tracker/internal/transport"
	"github.com/frahmantamala/budget-tracker/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

var _ = Describe("GetCurrentUser", func() {
	var handler *user.Handler

	BeforeEach(func() {
		handler = user.NewHandler(transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil))))
	})

	It("returns the session identity", func() {
		expires := time.Date(2024, time.March, 15, 11, 0, 0, 0, time.UTC)
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req = req.WithContext(auth.ContextWithSession(req.Context(), auth.Session{
			UserID: "user-1", Email: "ana@example.com", Role: "authenticated", ExpiresAt: expires,
		}))
		w := httptest.NewRecorder()

		handler.GetCurrentUser(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var got user.User
		Expect(json.NewDecoder(w.Body).Decode(&got)).To(Succeed())
		Expect(got.ID).To(Equal("user-1"))
		Expect(got.Email).To(Equal("ana@example.com"))
		Expect(got.ExpiresAt.Equal(expires)).To(BeTrue())
	})

	It("answers 401 without a session", func() {
		w := httptest.NewRecorder()
		handler.GetCurrentUser(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
