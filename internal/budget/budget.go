package budget

import (
	"time"

	budgetDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/budget"
)

// Budget is a monthly spending limit for one category name.
type Budget struct {
	ID           int64     `json:"id"`
	Category     string    `json:"category"`
	MonthlyLimit float64   `json:"monthly_limit"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func FromDataModel(row *budgetDatamodel.Budget) *Budget {
	return &Budget{
		ID:           row.ID,
		Category:     row.Category,
		MonthlyLimit: row.MonthlyLimit,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func Limits(budgets []Budget) []float64 {
	limits := make([]float64, len(budgets))
	for i := range budgets {
		limits[i] = budgets[i].MonthlyLimit
	}
	return limits
}
