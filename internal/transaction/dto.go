package transaction

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/analytics"
	"github.com/frahmantamala/budget-tracker/internal/core/common/validation"
)

const maxDescriptionLength = 500

// TransactionDTO is the create and edit payload. Amount accepts a number or
// a numeric string; Date accepts YYYY-MM-DD or RFC 3339.
type TransactionDTO struct {
	Description string           `json:"description"`
	Amount      analytics.Amount `json:"amount"`
	Type        string           `json:"type"`
	CategoryID  *int64           `json:"category_id"`
	Date        string           `json:"date"`
}

func (dto *TransactionDTO) Normalize() {
	dto.Description = strings.TrimSpace(dto.Description)
	dto.Type = strings.ToLower(strings.TrimSpace(dto.Type))
	if dto.Type == "" {
		dto.Type = TypeExpense
	}
	if dto.CategoryID != nil && *dto.CategoryID <= 0 {
		dto.CategoryID = nil
	}
}

func (dto TransactionDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("description", dto.Description).Required().MaxLength(maxDescriptionLength)
	v.Field("amount", dto.Amount.Float64()).Positive(errors.ErrCodeInvalidAmount).Money(errors.ErrCodeInvalidAmount)
	v.Field("type", dto.Type).OneOf(errors.ErrCodeInvalidType, TypeExpense, TypeIncome)
	v.Field("date", dto.Date).Required().Custom(func(value interface{}) *errors.AppError {
		if s, _ := value.(string); s != "" {
			if _, err := ParseDate(s); err != nil {
				return errors.NewValidationFieldError("date", "date must be YYYY-MM-DD or RFC 3339", errors.ErrCodeInvalidDate)
			}
		}
		return nil
	})
	return v.Validate()
}

// ToEntity assumes Validate passed.
func (dto TransactionDTO) ToEntity() *Transaction {
	date, _ := ParseDate(dto.Date)
	return &Transaction{
		Description: dto.Description,
		Amount:      dto.Amount.Float64(),
		Type:        dto.Type,
		CategoryID:  dto.CategoryID,
		Date:        date,
	}
}

func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

type ListResponse struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
	Page         int           `json:"page"`
	PerPage      int           `json:"per_page"`
	TotalPages   int           `json:"total_pages"`
}
