package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/budget-tracker/internal/core/events"
	"github.com/frahmantamala/budget-tracker/internal/querycache"
	"github.com/frahmantamala/budget-tracker/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect data-changed events and the cached queries they invalidate`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [entity]",
	Short:     "Publish a test data-changed event",
	Long:      `Publish a data-changed event on a local bus wired to the query cache and report what it invalidates`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"transactions", "categories", "budgets", "goals"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(events.Entity(args[0]))
	},
}

var (
	eventUser   string
	eventAction string
)

func publishTestEvent(entity events.Entity) error {
	log := logger.LoggerWrapper()

	queries := querycache.DependentQueries(entity)
	if len(queries) == 0 {
		return fmt.Errorf("unknown entity %q", entity)
	}
	action, err := events.ParseAction(eventAction)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(log)
	cache := querycache.New(0, 0)
	querycache.NewInvalidator(cache, log).Register(bus)

	bus.Subscribe(events.EventTypeDataChanged, func(ctx context.Context, event events.Event) error {
		log.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	event := events.NewDataChangedEvent(eventUser, entity, action, 0)
	log.Info("publishing test event", "event_type", event.EventType(), "event_id", event.EventID())

	if err := bus.PublishSync(context.Background(), event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	for _, q := range queries {
		fmt.Println("invalidated:", querycache.Key{UserID: eventUser, Query: q})
	}
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventUser, "user", "cli-user", "user id carried by the event")
	publishEventCmd.Flags().StringVar(&eventAction, "action", string(events.ActionUpdated), "created, updated or deleted")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
