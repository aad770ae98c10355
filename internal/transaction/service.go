package transaction

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/analytics"
	transactionDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/transaction"
	"github.com/frahmantamala/budget-tracker/internal/core/events"
	"github.com/frahmantamala/budget-tracker/internal/querycache"
)

// RepositoryAPI lookups return (nil, nil) when the row does not exist. Rows
// come back with their Category preloaded.
type RepositoryAPI interface {
	List(ctx context.Context, userID string) ([]*transactionDatamodel.Transaction, error)
	GetByID(ctx context.Context, userID string, id int64) (*transactionDatamodel.Transaction, error)
	Create(ctx context.Context, transaction *transactionDatamodel.Transaction) error
	Update(ctx context.Context, transaction *transactionDatamodel.Transaction) error
	Delete(ctx context.Context, userID string, id int64) error
	CategoryExists(ctx context.Context, userID string, categoryID int64) (bool, error)
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	cache     *querycache.Cache
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, cache *querycache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		logger:    logger,
	}
}

// List returns every transaction of the user, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Transaction, error) {
	key := querycache.Key{UserID: userID, Query: querycache.QueryTransactions}
	return querycache.FetchList(ctx, s.cache, key, func(ctx context.Context) ([]Transaction, error) {
		rows, err := s.repo.List(ctx, userID)
		if err != nil {
			s.logger.Error("failed to list transactions", "user_id", userID, "error", err)
			return nil, internal.NewExternalError("failed to load transactions", err)
		}
		items := make([]Transaction, 0, len(rows))
		for _, row := range rows {
			items = append(items, *FromDataModel(row))
		}
		return items, nil
	})
}

func (s *Service) Query(ctx context.Context, userID string, q ListQuery) (Page, error) {
	items, err := s.List(ctx, userID)
	if err != nil {
		return Page{}, err
	}
	return q.Apply(items), nil
}

// Records feeds the aggregation functions.
func (s *Service) Records(ctx context.Context, userID string) ([]analytics.Record, error) {
	items, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToRecords(items), nil
}

func (s *Service) Get(ctx context.Context, userID string, id int64) (*Transaction, error) {
	row, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, s.writeError("get", userID, id, err)
	}
	if row == nil {
		return nil, internal.ErrTransactionNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, userID string, dto TransactionDTO) (*Transaction, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, userID, dto.CategoryID); err != nil {
		return nil, err
	}

	row := ToDataModel(userID, dto.ToEntity())
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.writeError("create", userID, 0, err)
	}

	s.logger.Info("transaction created", "user_id", userID, "transaction_id", row.ID, "type", row.Type)
	s.notify(ctx, userID, events.ActionCreated, row.ID)
	return s.reload(ctx, userID, row)
}

// Update replaces every editable field of an existing transaction.
func (s *Service) Update(ctx context.Context, userID string, id int64, dto TransactionDTO) (*Transaction, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, s.writeError("update", userID, id, err)
	}
	if existing == nil {
		return nil, internal.ErrTransactionNotFound
	}
	if err := s.checkCategory(ctx, userID, dto.CategoryID); err != nil {
		return nil, err
	}

	row := ToDataModel(userID, dto.ToEntity())
	row.ID = id
	row.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, s.writeError("update", userID, id, err)
	}

	s.notify(ctx, userID, events.ActionUpdated, id)
	return s.reload(ctx, userID, row)
}

func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return s.writeError("delete", userID, id, err)
	}

	s.logger.Info("transaction deleted", "user_id", userID, "transaction_id", id)
	s.notify(ctx, userID, events.ActionDeleted, id)
	return nil
}

func (s *Service) checkCategory(ctx context.Context, userID string, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	ok, err := s.repo.CategoryExists(ctx, userID, *categoryID)
	if err != nil {
		return s.writeError("lookup category for", userID, 0, err)
	}
	if !ok {
		return internal.NewValidationFieldError("category_id", "category does not exist", internal.ErrCodeInvalidCategory)
	}
	return nil
}

// reload reads the row back so the response carries the joined category name.
func (s *Service) reload(ctx context.Context, userID string, row *transactionDatamodel.Transaction) (*Transaction, error) {
	fresh, err := s.repo.GetByID(ctx, userID, row.ID)
	if err != nil || fresh == nil {
		s.logger.Warn("failed to reload transaction", "user_id", userID, "transaction_id", row.ID, "error", err)
		return FromDataModel(row), nil
	}
	return FromDataModel(fresh), nil
}

func (s *Service) writeError(op, userID string, id int64, err error) error {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error("transaction "+op+" failed", "user_id", userID, "transaction_id", id, "error", err)
	return internal.NewExternalError("failed to "+op+" transaction", err)
}

func (s *Service) notify(ctx context.Context, userID string, action events.Action, id int64) {
	if s.publisher == nil {
		return
	}
	event := events.NewDataChangedEvent(userID, events.EntityTransactions, action, id)
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish transaction change", "user_id", userID, "transaction_id", id, "error", err)
	}
}
