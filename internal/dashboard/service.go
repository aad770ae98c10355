package dashboard

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/budget"
	"github.com/frahmantamala/budget-tracker/internal/goal"
	"github.com/frahmantamala/budget-tracker/internal/querycache"
	"github.com/frahmantamala/budget-tracker/internal/transaction"
	"golang.org/x/sync/errgroup"
)

type TransactionLister interface {
	List(ctx context.Context, userID string) ([]transaction.Transaction, error)
}

type BudgetLister interface {
	List(ctx context.Context, userID string) ([]budget.Budget, error)
}

type GoalLister interface {
	List(ctx context.Context, userID string) ([]goal.Goal, error)
}

type Service struct {
	transactions TransactionLister
	budgets      BudgetLister
	goals        GoalLister
	cache        *querycache.Cache
	clock        internal.Clock
	logger       *slog.Logger
}

func NewService(transactions TransactionLister, budgets BudgetLister, goals GoalLister, cache *querycache.Cache, clock internal.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		transactions: transactions,
		budgets:      budgets,
		goals:        goals,
		cache:        cache,
		clock:        clock,
		logger:       logger,
	}
}

// Snapshot loads the three lists concurrently and aggregates them. A cached
// snapshot from an earlier month is discarded.
func (s *Service) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	key := querycache.Key{UserID: userID, Query: querycache.QueryDashboard}
	now := s.clock.Now()

	snap, err := querycache.Fetch(ctx, s.cache, key, s.loader(userID), Snapshot.clone)
	if err != nil {
		return Snapshot{}, err
	}
	if snap.Month != now.Format("2006-01") {
		s.cache.Invalidate(userID, querycache.QueryDashboard)
		return querycache.Fetch(ctx, s.cache, key, s.loader(userID), Snapshot.clone)
	}
	return snap, nil
}

func (s *Service) loader(userID string) func(context.Context) (Snapshot, error) {
	return func(ctx context.Context) (Snapshot, error) {
		var (
			items   []transaction.Transaction
			budgets []budget.Budget
			goals   []goal.Goal
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			items, err = s.transactions.List(gctx, userID)
			return err
		})
		g.Go(func() error {
			var err error
			budgets, err = s.budgets.List(gctx, userID)
			return err
		})
		g.Go(func() error {
			var err error
			goals, err = s.goals.List(gctx, userID)
			return err
		})
		if err := g.Wait(); err != nil {
			s.logger.Error("failed to load dashboard", "user_id", userID, "error", err)
			return Snapshot{}, err
		}

		return Build(items, budgets, goals, s.clock.Now()), nil
	}
}
