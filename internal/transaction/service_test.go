package transaction_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/frahmantamala/budget-tracker/internal"
	categoryDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/category"
	transactionDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/transaction"
	"github.com/frahmantamala/budget-tracker/internal/core/events"
	"github.com/frahmantamala/budget-tracker/internal/querycache"
	"github.com/frahmantamala/budget-tracker/internal/transaction"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTransactionService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transaction Service Suite")
}

// MockRepository implements transaction.RepositoryAPI for testing
type MockRepository struct {
	rows       map[int64]*transactionDatamodel.Transaction
	categories map[int64]*categoryDatamodel.Category
	nextID     int64
	listCalls  int
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		rows:       make(map[int64]*transactionDatamodel.Transaction),
		categories: make(map[int64]*categoryDatamodel.Category),
	}
}

func (m *MockRepository) withCategory(row *transactionDatamodel.Transaction) *transactionDatamodel.Transaction {
	cp := *row
	cp.Category = nil
	if cp.CategoryID != nil {
		if cat, ok := m.categories[*cp.CategoryID]; ok {
			c := *cat
			cp.Category = &c
		}
	}
	return &cp
}

func (m *MockRepository) List(_ context.Context, userID string) ([]*transactionDatamodel.Transaction, error) {
	m.listCalls++
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*transactionDatamodel.Transaction
	for _, row := range m.rows {
		if row.UserID == userID {
			result = append(result, m.withCategory(row))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].ID > result[j].ID
		}
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (m *MockRepository) GetByID(_ context.Context, userID string, id int64) (*transactionDatamodel.Transaction, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	row, ok := m.rows[id]
	if !ok || row.UserID != userID {
		return nil, nil
	}
	return m.withCategory(row), nil
}

func (m *MockRepository) Create(_ context.Context, row *transactionDatamodel.Transaction) error {
	if m.shouldFail {
		return m.failError
	}
	m.nextID++
	row.ID = m.nextID
	row.CreatedAt = time.Now()
	cp := *row
	m.rows[row.ID] = &cp
	return nil
}

func (m *MockRepository) Update(_ context.Context, row *transactionDatamodel.Transaction) error {
	if m.shouldFail {
		return m.failError
	}
	cp := *row
	m.rows[row.ID] = &cp
	return nil
}

func (m *MockRepository) Delete(_ context.Context, userID string, id int64) error {
	if m.shouldFail {
		return m.failError
	}
	row, ok := m.rows[id]
	if !ok || row.UserID != userID {
		return internal.ErrTransactionNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *MockRepository) CategoryExists(_ context.Context, userID string, categoryID int64) (bool, error) {
	if m.shouldFail {
		return false, m.failError
	}
	cat, ok := m.categories[categoryID]
	return ok && cat.UserID == userID, nil
}

func (m *MockRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

var _ = Describe("Transaction Service", func() {
	const userID = "user-1"

	var (
		ctx      context.Context
		mockRepo *MockRepository
		service  *transaction.Service
		bus      *events.EventBus
		cache    *querycache.Cache
		changes  []*events.DataChangedEvent
		foodID   int64
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		mockRepo = NewMockRepository()
		foodID = 7
		mockRepo.categories[foodID] = &categoryDatamodel.Category{ID: foodID, UserID: userID, Name: "Food"}

		bus = events.NewEventBus(logger)
		cache = querycache.New(64, time.Minute)
		querycache.NewInvalidator(cache, logger).Register(bus)
		changes = nil
		bus.Subscribe(events.EventTypeDataChanged, func(_ context.Context, e events.Event) error {
			changes = append(changes, e.(*events.DataChangedEvent))
			return nil
		})
		service = transaction.NewService(mockRepo, bus, cache, logger)
	})

	validDTO := func() transaction.TransactionDTO {
		return transaction.TransactionDTO{
			Description: "Groceries",
			Amount:      42.5,
			CategoryID:  &foodID,
			Date:        "2024-03-10",
		}
	}

	Describe("Create", func() {
		It("stores an expense with the joined category name", func() {
			created, err := service.Create(ctx, userID, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).To(BeNumerically(">", 0))
			Expect(created.Type).To(Equal(transaction.TypeExpense))
			Expect(created.Category).To(Equal("Food"))
			Expect(created.Date).To(Equal(time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)))

			Expect(changes).To(HaveLen(1))
			Expect(changes[0].Entity).To(Equal(events.EntityTransactions))
			Expect(changes[0].EntityID).To(Equal(created.ID))
		})

		It("accepts income without a category", func() {
			dto := validDTO()
			dto.Type = "Income"
			dto.CategoryID = nil
			created, err := service.Create(ctx, userID, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Type).To(Equal(transaction.TypeIncome))
			Expect(created.Category).To(BeEmpty())
			Expect(created.CategoryLabel()).To(Equal("Uncategorized"))
		})

		DescribeTable("rejects invalid input without writing",
			func(mutate func(*transaction.TransactionDTO), field string) {
				dto := validDTO()
				mutate(&dto)
				_, err := service.Create(ctx, userID, dto)

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
				Expect(appErr.Details).To(HaveField("Errors", ContainElement(HaveField("Field", field))))
				Expect(mockRepo.rows).To(BeEmpty())
				Expect(changes).To(BeEmpty())
			},
			Entry("blank description", func(d *transaction.TransactionDTO) { d.Description = "  " }, "description"),
			Entry("zero amount", func(d *transaction.TransactionDTO) { d.Amount = 0 }, "amount"),
			Entry("negative amount", func(d *transaction.TransactionDTO) { d.Amount = -5 }, "amount"),
			Entry("sub-cent amount", func(d *transaction.TransactionDTO) { d.Amount = 0.001 }, "amount"),
			Entry("amount beyond the column", func(d *transaction.TransactionDTO) { d.Amount = 1e13 }, "amount"),
			Entry("unknown type", func(d *transaction.TransactionDTO) { d.Type = "transfer" }, "type"),
			Entry("missing date", func(d *transaction.TransactionDTO) { d.Date = "" }, "date"),
			Entry("malformed date", func(d *transaction.TransactionDTO) { d.Date = "10/03/2024" }, "date"),
			Entry("unknown category", func(d *transaction.TransactionDTO) { id := int64(99); d.CategoryID = &id }, "category_id"),
		)
	})

	Describe("List", func() {
		It("returns a created transaction on the next read", func() {
			_, err := service.List(ctx, userID)
			Expect(err).NotTo(HaveOccurred())

			created, err := service.Create(ctx, userID, validDTO())
			Expect(err).NotTo(HaveOccurred())

			items, err := service.List(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].ID).To(Equal(created.ID))
			Expect(items[0].Category).To(Equal("Food"))
			Expect(mockRepo.listCalls).To(Equal(2))
		})

		It("hands out copies of the cached list", func() {
			_, _ = service.Create(ctx, userID, validDTO())
			first, _ := service.List(ctx, userID)
			first[0].Description = "mutated"

			second, _ := service.List(ctx, userID)
			Expect(second[0].Description).To(Equal("Groceries"))
			Expect(mockRepo.listCalls).To(Equal(1))
		})

		It("scopes rows to the user", func() {
			_, _ = service.Create(ctx, userID, validDTO())
			items, err := service.List(ctx, "user-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(BeEmpty())
		})

		It("wraps repository failures as backend errors", func() {
			mockRepo.SetShouldFail(true, errors.New("connection refused"))
			_, err := service.List(ctx, userID)
			Expect(errors.Is(err, internal.NewExternalError("", nil))).To(BeTrue())
		})
	})

	Describe("Query", func() {
		It("applies the list query to the cached list", func() {
			for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
				dto := validDTO()
				dto.Date = d
				_, err := service.Create(ctx, userID, dto)
				Expect(err).NotTo(HaveOccurred())
			}

			page, err := service.Query(ctx, userID, transaction.ListQuery{Sort: transaction.SortDateAsc, PerPage: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Total).To(Equal(3))
			Expect(page.TotalPages).To(Equal(2))
			Expect(page.Items[0].Date.Day()).To(Equal(1))
		})
	})

	Describe("Records", func() {
		It("carries amount, category, date and type", func() {
			_, _ = service.Create(ctx, userID, validDTO())
			records, err := service.Records(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].Amount).To(Equal(42.5))
			Expect(records[0].Category).To(Equal("Food"))
			Expect(records[0].Type).To(Equal(transaction.TypeExpense))
		})
	})

	Describe("Update", func() {
		It("replaces the editable fields and keeps created_at", func() {
			created, _ := service.Create(ctx, userID, validDTO())
			dto := validDTO()
			dto.Description = "Dinner"
			dto.Amount = 80
			dto.CategoryID = nil

			updated, err := service.Update(ctx, userID, created.ID, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Description).To(Equal("Dinner"))
			Expect(updated.Amount).To(Equal(80.0))
			Expect(updated.Category).To(BeEmpty())
			Expect(updated.CreatedAt).To(Equal(created.CreatedAt))
			Expect(changes[len(changes)-1].Action).To(Equal(events.ActionUpdated))
		})

		It("returns not found for another user's transaction", func() {
			created, _ := service.Create(ctx, userID, validDTO())
			_, err := service.Update(ctx, "user-2", created.ID, transaction.TransactionDTO{
				Description: "x", Amount: 1, Date: "2024-01-01",
			})
			Expect(errors.Is(err, internal.ErrTransactionNotFound)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("removes the transaction and publishes", func() {
			created, _ := service.Create(ctx, userID, validDTO())
			changes = nil

			Expect(service.Delete(ctx, userID, created.ID)).To(Succeed())
			Expect(mockRepo.rows).To(BeEmpty())
			Expect(changes).To(HaveLen(1))
			Expect(changes[0].Action).To(Equal(events.ActionDeleted))
		})

		It("returns not found for an unknown id", func() {
			err := service.Delete(ctx, userID, 404)
			Expect(errors.Is(err, internal.ErrTransactionNotFound)).To(BeTrue())
			Expect(changes).To(BeEmpty())
		})
	})
})
