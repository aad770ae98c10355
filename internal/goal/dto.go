package goal

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/analytics"
	"github.com/frahmantamala/budget-tracker/internal/core/common/validation"
)

const (
	maxNameLength = 100

	ActionAdd      = "add"
	ActionWithdraw = "withdraw"
)

type GoalDTO struct {
	Name         string           `json:"name"`
	TargetAmount analytics.Amount `json:"target_amount"`
	TargetDate   string           `json:"target_date"`
}

func (dto *GoalDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.TargetDate = strings.TrimSpace(dto.TargetDate)
}

func (dto GoalDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(maxNameLength)
	v.Field("target_amount", dto.TargetAmount.Float64()).Positive(errors.ErrCodeInvalidAmount).Money(errors.ErrCodeInvalidAmount)
	if dto.TargetDate != "" {
		v.Field("target_date", dto.TargetDate).Custom(func(interface{}) *errors.AppError {
			if _, err := time.Parse(time.DateOnly, dto.TargetDate); err != nil {
				return errors.NewValidationFieldError("target_date", "target_date must be YYYY-MM-DD", errors.ErrCodeInvalidDate)
			}
			return nil
		})
	}
	return v.Validate()
}

// TargetDateValue assumes Validate passed.
func (dto GoalDTO) TargetDateValue() *time.Time {
	if dto.TargetDate == "" {
		return nil
	}
	t, _ := time.Parse(time.DateOnly, dto.TargetDate)
	return &t
}

// AdjustDTO moves money into or out of a goal.
type AdjustDTO struct {
	Action string           `json:"action"`
	Amount analytics.Amount `json:"amount"`
}

func (dto *AdjustDTO) Normalize() {
	dto.Action = strings.ToLower(strings.TrimSpace(dto.Action))
}

func (dto AdjustDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("action", dto.Action).Required().OneOf(errors.ErrCodeValidationFailed, ActionAdd, ActionWithdraw)
	v.Field("amount", dto.Amount.Float64()).Positive(errors.ErrCodeInvalidAmount).Money(errors.ErrCodeInvalidAmount)
	return v.Validate()
}

// Delta is negative for a withdrawal.
func (dto AdjustDTO) Delta() float64 {
	if dto.Action == ActionWithdraw {
		return -dto.Amount.Float64()
	}
	return dto.Amount.Float64()
}

type GoalsResponse struct {
	Goals []Goal `json:"goals"`
}

type ProgressResponse struct {
	Goals []Progress `json:"goals"`
}
