package goal

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/analytics"
	"github.com/frahmantamala/budget-tracker/internal/core/common/validation"
	goalDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/goal"
	"github.com/frahmantamala/budget-tracker/internal/core/events"
	"github.com/frahmantamala/budget-tracker/internal/querycache"
)

// RepositoryAPI lookups return (nil, nil) when the row does not exist.
type RepositoryAPI interface {
	List(ctx context.Context, userID string) ([]*goalDatamodel.Goal, error)
	GetByID(ctx context.Context, userID string, id int64) (*goalDatamodel.Goal, error)
	Create(ctx context.Context, goal *goalDatamodel.Goal) error
	Delete(ctx context.Context, userID string, id int64) error
	// AddToCurrent applies delta only if the balance stays at or above zero
	// and reports whether the row was changed.
	AddToCurrent(ctx context.Context, userID string, id int64, delta float64) (bool, error)
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

func (s *Service) List(ctx context.Context, userID string) ([]Goal, error) {
	key := querycache.Key{UserID: userID, Query: querycache.QueryGoals}
	return querycache.FetchList(ctx, s.cache, key, func(ctx context.Context) ([]Goal, error) {
		rows, err := s.repo.List(ctx, userID)
		if err != nil {
			s.logger.Error("failed to list goals", "user_id", userID, "error", err)
			return nil, internal.NewExternalError("failed to load goals", err)
		}
		goals := make([]Goal, 0, len(rows))
		for _, row := range rows {
			goals = append(goals, *FromDataModel(row))
		}
		return goals, nil
	})
}

func (s *Service) Progress(ctx context.Context, userID string) ([]Progress, error) {
	goals, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ProgressOf(goals), nil
}

// Create starts a goal with nothing saved.
func (s *Service) Create(ctx context.Context, userID string, dto GoalDTO) (*Goal, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &goalDatamodel.Goal{
		UserID:       userID,
		Name:         dto.Name,
		TargetAmount: dto.TargetAmount.Float64(),
		TargetDate:   dto.TargetDateValue(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.writeError("create", userID, 0, err)
	}

	s.logger.Info("goal created", "user_id", userID, "goal_id", row.ID)
	s.notify(ctx, userID, events.ActionCreated, row.ID)
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return s.writeError("delete", userID, id, err)
	}

	s.logger.Info("goal deleted", "user_id", userID, "goal_id", id)
	s.notify(ctx, userID, events.ActionDeleted, id)
	return nil
}

// Adjust adds to or withdraws from a goal's saved amount. A withdrawal that
// would leave the balance below zero is rejected and nothing changes.
func (s *Service) Adjust(ctx context.Context, userID string, id int64, dto AdjustDTO) (*Goal, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, s.writeError("adjust", userID, id, err)
	}
	if row == nil {
		return nil, internal.ErrGoalNotFound
	}

	delta := dto.Delta()
	next, err := analytics.ApplyGoalDelta(row.CurrentAmount, delta)
	if err != nil {
		return nil, internal.ErrInsufficientGoalFunds
	}
	if next >= validation.MaxMoney {
		return nil, internal.NewValidationFieldError("amount", "amount would push the saved total past the storable maximum", internal.ErrCodeInvalidAmount)
	}

	applied, err := s.repo.AddToCurrent(ctx, userID, id, delta)
	if err != nil {
		return nil, s.writeError("adjust", userID, id, err)
	}
	if !applied {
		// the row changed or vanished between the read and the update
		return nil, s.refusal(ctx, userID, id)
	}

	s.logger.Info("goal adjusted", "user_id", userID, "goal_id", id, "delta", delta)
	s.notify(ctx, userID, events.ActionUpdated, id)

	fresh, err := s.repo.GetByID(ctx, userID, id)
	if err != nil || fresh == nil {
		row.CurrentAmount += delta
		return FromDataModel(row), nil
	}
	return FromDataModel(fresh), nil
}

func (s *Service) refusal(ctx context.Context, userID string, id int64) error {
	row, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return s.writeError("adjust", userID, id, err)
	}
	if row == nil {
		return internal.ErrGoalNotFound
	}
	return internal.ErrInsufficientGoalFunds
}

func (s *Service) writeError(op, userID string, id int64, err error) error {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error("goal "+op+" failed", "user_id", userID, "goal_id", id, "error", err)
	return internal.NewExternalError("failed to "+op+" goal", err)
}

func (s *Service) notify(ctx context.Context, userID string, action events.Action, id int64) {
	if s.publisher == nil {
		return
	}
	event := events.NewDataChangedEvent(userID, events.EntityGoals, action, id)
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish goal change", "user_id", userID, "goal_id", id, "error", err)
	}
}
