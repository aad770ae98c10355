package goal

import (
	"time"

	"github.com/frahmantamala/budget-tracker/internal/analytics"
	goalDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/goal"
)

type Goal struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	TargetAmount  float64    `json:"target_amount"`
	CurrentAmount float64    `json:"current_amount"`
	TargetDate    *time.Time `json:"target_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Progress is a goal's completion as shown on its progress bar.
type Progress struct {
	GoalID  int64   `json:"goal_id"`
	Name    string  `json:"name"`
	Target  float64 `json:"target_amount"`
	Current float64 `json:"current_amount"`
	analytics.GoalStatus
}

func (g *Goal) Progress() Progress {
	return Progress{
		GoalID:     g.ID,
		Name:       g.Name,
		Target:     g.TargetAmount,
		Current:    g.CurrentAmount,
		GoalStatus: analytics.GoalProgress(g.TargetAmount, g.CurrentAmount),
	}
}

func ProgressOf(goals []Goal) []Progress {
	out := make([]Progress, len(goals))
	for i := range goals {
		out[i] = goals[i].Progress()
	}
	return out
}

func FromDataModel(row *goalDatamodel.Goal) *Goal {
	return &Goal{
		ID:            row.ID,
		Name:          row.Name,
		TargetAmount:  row.TargetAmount,
		CurrentAmount: row.CurrentAmount,
		TargetDate:    row.TargetDate,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
