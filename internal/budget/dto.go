package budget

import (
	"strings"

	errors "github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/analytics"
	"github.com/frahmantamala/budget-tracker/internal/core/common/validation"
)

const maxCategoryLength = 100

type BudgetDTO struct {
	Category     string           `json:"category"`
	MonthlyLimit analytics.Amount `json:"monthly_limit"`
}

func (dto *BudgetDTO) Normalize() {
	dto.Category = strings.TrimSpace(dto.Category)
}

func (dto BudgetDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("category", dto.Category).Required().MaxLength(maxCategoryLength)
	v.Field("monthly_limit", dto.MonthlyLimit.Float64()).Positive(errors.ErrCodeInvalidAmount).Money(errors.ErrCodeInvalidAmount)
	return v.Validate()
}

type BudgetsResponse struct {
	Budgets []Budget `json:"budgets"`
}

type UsageResponse struct {
	Month  string                  `json:"month"`
	Usages []analytics.BudgetUsage `json:"usages"`
}
