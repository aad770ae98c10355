package goal_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/frahmantamala/budget-tracker/internal/auth"
	"github.com/frahmantamala/budget-tracker/internal/goal"
	goalPostgres "github.com/frahmantamala/budget-tracker/internal/goal/postgres"
	"github.com/frahmantamala/budget-tracker/internal/storage"
	"github.com/frahmantamala/budget-tracker/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Goal Handler Integration", func() {
	var (
		db     *storage.DB
		router *chi.Mux
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
		db, err = storage.OpenSQLite("file::memory:", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate()).To(Succeed())

		service := goal.NewService(goalPostgres.NewGoalRepository(db.Gorm), nil, nil, slogger)
		handler := goal.NewHandler(transport.NewBaseHandler(slogger), service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := auth.ContextWithSession(r.Context(), auth.Session{UserID: "user-1"})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		router.Get("/goals", handler.GetGoals)
		router.Post("/goals", handler.CreateGoal)
		router.Get("/goals/progress", handler.GetGoalProgress)
		router.Post("/goals/{id}/adjust", handler.AdjustGoal)
		router.Delete("/goals/{id}", handler.DeleteGoal)
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
		return w
	}

	It("tracks progress and refuses an overdraw with 400", func() {
		w := do(http.MethodPost, "/goals", map[string]interface{}{"name": "Laptop", "target_amount": 1000})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created goal.Goal
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		adjust := "/goals/" + strconv.FormatInt(created.ID, 10) + "/adjust"

		w = do(http.MethodPost, adjust, map[string]interface{}{"action": "add", "amount": 250})
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, "/goals/progress", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var progress goal.ProgressResponse
		Expect(json.NewDecoder(w.Body).Decode(&progress)).To(Succeed())
		Expect(progress.Goals).To(HaveLen(1))
		Expect(progress.Goals[0].Percentage).To(Equal(25.0))

		w = do(http.MethodPost, adjust, map[string]interface{}{"action": "withdraw", "amount": 300})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("Cannot withdraw more than saved."))
	})

	It("deletes a goal", func() {
		w := do(http.MethodPost, "/goals", map[string]interface{}{"name": "Laptop", "target_amount": 1000})
		var created goal.Goal
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		w = do(http.MethodDelete, "/goals/"+strconv.FormatInt(created.ID, 10), nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = do(http.MethodGet, "/goals", nil)
		var list goal.GoalsResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Goals).To(BeEmpty())
	})
})
