package budget

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/analytics"
	budgetDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/budget"
	"github.com/frahmantamala/budget-tracker/internal/core/events"
	"github.com/frahmantamala/budget-tracker/internal/querycache"
)

// RepositoryAPI lookups return (nil, nil) when the row does not exist.
type RepositoryAPI interface {
	List(ctx context.Context, userID string) ([]*budgetDatamodel.Budget, error)
	GetByCategory(ctx context.Context, userID, category string) (*budgetDatamodel.Budget, error)
	Upsert(ctx context.Context, budget *budgetDatamodel.Budget) error
	Delete(ctx context.Context, userID string, id int64) error
}

// RecordSource supplies the transactions that budgets are measured against.
type RecordSource interface {
	Records(ctx context.Context, userID string) ([]analytics.Record, error)
}

type Service struct {
	repo      RepositoryAPI
	records   RecordSource
	publisher events.Publisher
	cache     *querycache.Cache
	clock     internal.Clock
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, records RecordSource, publisher events.Publisher, cache *querycache.Cache, clock internal.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		records:   records,
		publisher: publisher,
		cache:     cache,
		clock:     clock,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context, userID string) ([]Budget, error) {
	key := querycache.Key{UserID: userID, Query: querycache.QueryBudgets}
	return querycache.FetchList(ctx, s.cache, key, func(ctx context.Context) ([]Budget, error) {
		rows, err := s.repo.List(ctx, userID)
		if err != nil {
			s.logger.Error("failed to list budgets", "user_id", userID, "error", err)
			return nil, internal.NewExternalError("failed to load budgets", err)
		}
		budgets := make([]Budget, 0, len(rows))
		for _, row := range rows {
			budgets = append(budgets, *FromDataModel(row))
		}
		return budgets, nil
	})
}

// Upsert sets the monthly limit for a category, replacing any earlier limit.
func (s *Service) Upsert(ctx context.Context, userID string, dto BudgetDTO) (*Budget, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &budgetDatamodel.Budget{
		UserID:       userID,
		Category:     dto.Category,
		MonthlyLimit: dto.MonthlyLimit.Float64(),
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, s.writeError("upsert", userID, 0, err)
	}

	saved, err := s.repo.GetByCategory(ctx, userID, dto.Category)
	if err != nil {
		return nil, s.writeError("upsert", userID, 0, err)
	}
	if saved == nil {
		saved = row
	}

	s.logger.Info("budget saved", "user_id", userID, "budget_id", saved.ID, "category", saved.Category)
	s.notify(ctx, userID, events.ActionUpdated, saved.ID)
	return FromDataModel(saved), nil
}

func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return s.writeError("delete", userID, id, err)
	}

	s.logger.Info("budget deleted", "user_id", userID, "budget_id", id)
	s.notify(ctx, userID, events.ActionDeleted, id)
	return nil
}

// Usage measures every budget against the expenses of the current month
// and reports which month that was. The clock is read once.
func (s *Service) Usage(ctx context.Context, userID string) (*UsageResponse, error) {
	now := s.clock.Now()
	report := &UsageResponse{Month: now.Format("2006-01"), Usages: []analytics.BudgetUsage{}}

	budgets, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return report, nil
	}
	records, err := s.records.Records(ctx, userID)
	if err != nil {
		return nil, err
	}
	report.Usages = UsageFor(budgets, records, now)
	return report, nil
}

func UsageFor(budgets []Budget, records []analytics.Record, now time.Time) []analytics.BudgetUsage {
	usages := make([]analytics.BudgetUsage, 0, len(budgets))
	for i := range budgets {
		usages = append(usages, analytics.BudgetConsumption(records, budgets[i].Category, budgets[i].MonthlyLimit, now))
	}
	return usages
}

func (s *Service) writeError(op, userID string, id int64, err error) error {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error("budget "+op+" failed", "user_id", userID, "budget_id", id, "error", err)
	return internal.NewExternalError("failed to "+op+" budget", err)
}

func (s *Service) notify(ctx context.Context, userID string, action events.Action, id int64) {
	if s.publisher == nil {
		return
	}
	event := events.NewDataChangedEvent(userID, events.EntityBudgets, action, id)
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish budget change", "user_id", userID, "budget_id", id, "error", err)
	}
}
