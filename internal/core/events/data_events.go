package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const EventTypeDataChanged = "data.changed"

type Entity string

const (
	EntityTransactions Entity = "transactions"
	EntityCategories   Entity = "categories"
	EntityBudgets      Entity = "budgets"
	EntityGoals        Entity = "goals"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ParseAction accepts created, updated or deleted in any case.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q: want created, updated or deleted", s)
	}
}

// DataChangedEvent is published after every successful mutation so readers
// can drop stale views of the entity.
type DataChangedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Entity   Entity `json:"entity"`
	Action   Action `json:"action"`
	EntityID int64  `json:"entity_id"`
}

func NewDataChangedEvent(userID string, entity Entity, action Action, entityID int64) *DataChangedEvent {
	return &DataChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeDataChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":   userID,
				"entity":    string(entity),
				"action":    string(action),
				"entity_id": entityID,
			},
		},
		UserID:   userID,
		Entity:   entity,
		Action:   action,
		EntityID: entityID,
	}
}
