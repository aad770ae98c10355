package category_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"time"

	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/auth"
	"github.com/frahmantamala/budget-tracker/internal/category"
	categoryPostgres "github.com/frahmantamala/budget-tracker/internal/category/postgres"
	transactionDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/transaction"
	"github.com/frahmantamala/budget-tracker/internal/storage"
	"github.com/frahmantamala/budget-tracker/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Category Handler Integration", func() {
	const userID = "user-1"

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

		service := category.NewService(categoryPostgres.NewCategoryRepository(db.Gorm), nil, nil, slogger)
		handler := category.NewHandler(transport.NewBaseHandler(slogger), service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := auth.ContextWithSession(r.Context(), auth.Session{UserID: userID})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		router.Get("/categories", handler.GetCategories)
		router.Post("/categories", handler.CreateCategory)
		router.Put("/categories/{id}", handler.RenameCategory)
		router.Delete("/categories/{id}", handler.DeleteCategory)
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("creates and lists categories", func() {
		w := do(http.MethodPost, "/categories", map[string]string{"name": "Food"})
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = do(http.MethodGet, "/categories", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response category.CategoriesResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Categories).To(HaveLen(1))
		Expect(response.Categories[0].Name).To(Equal("Food"))
	})

	It("answers 400 with field details for an empty name", func() {
		w := do(http.MethodPost, "/categories", map[string]string{"name": ""})
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var response struct {
			Error struct {
				Type    string `json:"type"`
				Details struct {
					Errors []internal.ValidationError `json:"errors"`
				} `json:"details"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Error.Type).To(Equal(string(internal.ErrorTypeValidation)))
		Expect(response.Error.Details.Errors[0].Field).To(Equal("name"))
	})

	It("answers 409 when deleting a category in use and keeps it", func() {
		w := do(http.MethodPost, "/categories", map[string]string{"name": "Food"})
		var created category.CategoryResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		Expect(db.Gorm.Create(&transactionDatamodel.Transaction{
			UserID: userID, Description: "Lunch", Amount: 10, Type: "expense",
			CategoryID: &created.ID, Date: time.Now(),
		}).Error).To(Succeed())

		w = do(http.MethodDelete, "/categories/"+strconv.FormatInt(created.ID, 10), nil)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("Cannot delete category with existing transactions."))

		w = do(http.MethodGet, "/categories", nil)
		var response category.CategoriesResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Categories).To(HaveLen(1))
	})

	It("deletes an unused category", func() {
		w := do(http.MethodPost, "/categories", map[string]string{"name": "Food"})
		var created category.CategoryResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		w = do(http.MethodDelete, "/categories/"+strconv.FormatInt(created.ID, 10), nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))
	})

	It("answers 400 for a malformed id", func() {
		w := do(http.MethodPut, "/categories/abc", map[string]string{"name": "x"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
