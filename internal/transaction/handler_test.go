package transaction_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"time"

	"github.com/frahmantamala/budget-tracker/internal/auth"
	categoryDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/category"
	"github.com/frahmantamala/budget-tracker/internal/storage"
	"github.com/frahmantamala/budget-tracker/internal/transaction"
	transactionPostgres "github.com/frahmantamala/budget-tracker/internal/transaction/postgres"
	"github.com/frahmantamala/budget-tracker/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Transaction Handler Integration", func() {
	const userID = "user-1"

	var (
		db     *storage.DB
		router *chi.Mux
		food   *categoryDatamodel.Category
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))

		db, err = storage.OpenSQLite("file::memory:", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate()).To(Succeed())

		food = &categoryDatamodel.Category{UserID: userID, Name: "Food"}
		Expect(db.Gorm.Create(food).Error).To(Succeed())

		service := transaction.NewService(transactionPostgres.NewTransactionRepository(db.Gorm), nil, nil, slogger)
		handler := transaction.NewHandler(transport.NewBaseHandler(slogger), service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := auth.ContextWithSession(r.Context(), auth.Session{UserID: userID})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		router.Get("/transactions", handler.GetTransactions)
		router.Post("/transactions", handler.CreateTransaction)
		router.Get("/transactions/{id}", handler.GetTransaction)
		router.Put("/transactions/{id}", handler.UpdateTransaction)
		router.Delete("/transactions/{id}", handler.DeleteTransaction)
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

	It("lists a created transaction with its category name", func() {
		w := do(http.MethodPost, "/transactions", map[string]interface{}{
			"description": "Groceries",
			"amount":      "42.50",
			"category_id": food.ID,
			"date":        "2024-03-10",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created transaction.Transaction
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Amount).To(Equal(42.5))
		Expect(created.Category).To(Equal("Food"))

		w = do(http.MethodGet, "/transactions", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var list transaction.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Total).To(Equal(1))
		Expect(list.Transactions[0].ID).To(Equal(created.ID))
		Expect(list.Transactions[0].Description).To(Equal("Groceries"))
		Expect(list.Transactions[0].Category).To(Equal("Food"))
		Expect(list.Transactions[0].Date.Equal(time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC))).To(BeTrue())
	})

	It("filters through query parameters", func() {
		for _, desc := range []string{"Coffee", "Rent", "Coffee again"} {
			w := do(http.MethodPost, "/transactions", map[string]interface{}{
				"description": desc, "amount": 5, "date": "2024-03-10",
			})
			Expect(w.Code).To(Equal(http.StatusCreated))
		}

		w := do(http.MethodGet, "/transactions?search=coffee&per_page=1", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var list transaction.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Total).To(Equal(2))
		Expect(list.TotalPages).To(Equal(2))
		Expect(list.Transactions).To(HaveLen(1))
	})

	It("answers 400 for a bad sort", func() {
		w := do(http.MethodGet, "/transactions?sort=sideways", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("answers 400 for a non-positive amount", func() {
		w := do(http.MethodPost, "/transactions", map[string]interface{}{
			"description": "Refund", "amount": -1, "date": "2024-03-10",
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_AMOUNT"))
	})

	It("updates, reads and deletes by id", func() {
		w := do(http.MethodPost, "/transactions", map[string]interface{}{
			"description": "Taxi", "amount": 20, "date": "2024-03-10",
		})
		var created transaction.Transaction
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		path := "/transactions/" + strconv.FormatInt(created.ID, 10)

		w = do(http.MethodPut, path, map[string]interface{}{
			"description": "Train", "amount": 12, "type": "expense", "date": "2024-03-11",
		})
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, path, nil)
		var fetched transaction.Transaction
		Expect(json.NewDecoder(w.Body).Decode(&fetched)).To(Succeed())
		Expect(fetched.Description).To(Equal("Train"))

		w = do(http.MethodDelete, path, nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = do(http.MethodGet, path, nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
