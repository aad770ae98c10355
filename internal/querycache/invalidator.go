package querycache

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/budget-tracker/internal/core/events"
)

// dependents lists the queries whose snapshots go stale when an entity changes.
// Transactions embed category names and budgets are keyed by them, so
// renaming or deleting a category invalidates both.
var dependents = map[events.Entity][]Query{
	events.EntityTransactions: {QueryTransactions, QueryDashboard},
	events.EntityCategories:   {QueryCategories, QueryTransactions, QueryBudgets, QueryDashboard},
	events.EntityBudgets:      {QueryBudgets, QueryDashboard},
	events.EntityGoals:        {QueryGoals, QueryDashboard},
}

// DependentQueries returns the queries invalidated by a change to entity.
func DependentQueries(entity events.Entity) []Query {
	return append([]Query(nil), dependents[entity]...)
}

type Invalidator struct {
	cache  *Cache
	logger *slog.Logger
}

func NewInvalidator(cache *Cache, logger *slog.Logger) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{cache: cache, logger: logger}
}

// Register subscribes the invalidator to data-changed events.
func (i *Invalidator) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeDataChanged, i.Handle)
}

func (i *Invalidator) Handle(_ context.Context, event events.Event) error {
	changed, ok := event.(*events.DataChangedEvent)
	if !ok {
		return nil
	}
	queries := dependents[changed.Entity]
	if len(queries) == 0 {
		i.logger.Warn("no dependent queries for entity", "entity", changed.Entity)
		return nil
	}
	i.cache.Invalidate(changed.UserID, queries...)
	i.logger.Debug("invalidated queries",
		"user_id", changed.UserID,
		"entity", changed.Entity,
		"action", changed.Action,
		"queries", queries)
	return nil
}
