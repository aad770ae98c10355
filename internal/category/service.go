package category

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/budget-tracker/internal"
	categoryDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/category"
	"github.com/frahmantamala/budget-tracker/internal/core/events"
	"github.com/frahmantamala/budget-tracker/internal/querycache"
)

// RepositoryAPI lookups return (nil, nil) when the row does not exist.
type RepositoryAPI interface {
	List(ctx context.Context, userID string) ([]*categoryDatamodel.Category, error)
	GetByID(ctx context.Context, userID string, id int64) (*categoryDatamodel.Category, error)
	GetByName(ctx context.Context, userID, name string) (*categoryDatamodel.Category, error)
	Create(ctx context.Context, category *categoryDatamodel.Category) error
	Update(ctx context.Context, category *categoryDatamodel.Category) error
	Delete(ctx context.Context, userID string, id int64) error
	CountTransactions(ctx context.Context, userID string, id int64) (int64, error)
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

func (s *Service) List(ctx context.Context, userID string) ([]Category, error) {
	key := querycache.Key{UserID: userID, Query: querycache.QueryCategories}
	return querycache.FetchList(ctx, s.cache, key, func(ctx context.Context) ([]Category, error) {
		rows, err := s.repo.List(ctx, userID)
		if err != nil {
			s.logger.Error("failed to list categories", "user_id", userID, "error", err)
			return nil, internal.NewExternalError("failed to load categories", err)
		}
		categories := make([]Category, 0, len(rows))
		for _, row := range rows {
			categories = append(categories, *FromDataModel(row))
		}
		return categories, nil
	})
}

func (s *Service) Get(ctx context.Context, userID string, id int64) (*Category, error) {
	row, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		s.logger.Error("failed to get category", "user_id", userID, "category_id", id, "error", err)
		return nil, internal.NewExternalError("failed to load category", err)
	}
	if row == nil {
		return nil, internal.ErrCategoryNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, userID string, dto CategoryDTO) (*Category, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, userID, dto.Name, 0); err != nil {
		return nil, err
	}

	row := &categoryDatamodel.Category{UserID: userID, Name: dto.Name}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.writeError("create", userID, 0, err)
	}

	s.logger.Info("category created", "user_id", userID, "category_id", row.ID)
	s.notify(ctx, userID, events.ActionCreated, row.ID)
	return FromDataModel(row), nil
}

// Rename changes a category's name. Transactions follow by reference and
// the budget tracking the old name is renamed with it.
func (s *Service) Rename(ctx context.Context, userID string, id int64, dto CategoryDTO) (*Category, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, s.writeError("rename", userID, id, err)
	}
	if row == nil {
		return nil, internal.ErrCategoryNotFound
	}
	if err := s.ensureUnique(ctx, userID, dto.Name, id); err != nil {
		return nil, err
	}

	row.Name = dto.Name
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, s.writeError("rename", userID, id, err)
	}

	s.notify(ctx, userID, events.ActionUpdated, id)
	return FromDataModel(row), nil
}

// Delete refuses to remove a category that transactions still reference.
// The check runs first; the foreign key covers the race with a concurrent insert.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	row, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return s.writeError("delete", userID, id, err)
	}
	if row == nil {
		return internal.ErrCategoryNotFound
	}

	linked, err := s.repo.CountTransactions(ctx, userID, id)
	if err != nil {
		return s.writeError("delete", userID, id, err)
	}
	if linked > 0 {
		s.logger.Warn("category delete refused", "user_id", userID, "category_id", id, "transactions", linked)
		return internal.ErrCategoryInUse
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return s.writeError("delete", userID, id, err)
	}

	s.logger.Info("category deleted", "user_id", userID, "category_id", id)
	s.notify(ctx, userID, events.ActionDeleted, id)
	return nil
}

func (s *Service) ensureUnique(ctx context.Context, userID, name string, selfID int64) error {
	existing, err := s.repo.GetByName(ctx, userID, name)
	if err != nil {
		return s.writeError("lookup", userID, selfID, err)
	}
	if existing != nil && existing.ID != selfID {
		return internal.ErrCategoryExists
	}
	return nil
}

func (s *Service) writeError(op, userID string, id int64, err error) error {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error("category "+op+" failed", "user_id", userID, "category_id", id, "error", err)
	return internal.NewExternalError("failed to "+op+" category", err)
}

func (s *Service) notify(ctx context.Context, userID string, action events.Action, id int64) {
	if s.publisher == nil {
		return
	}
	event := events.NewDataChangedEvent(userID, events.EntityCategories, action, id)
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish category change", "user_id", userID, "category_id", id, "error", err)
	}
}
