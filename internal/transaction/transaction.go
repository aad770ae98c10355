package transaction

import (
	"time"

	"github.com/frahmantamala/budget-tracker/internal/analytics"
	transactionDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/transaction"
)

const (
	TypeExpense = analytics.TypeExpense
	TypeIncome  = analytics.TypeIncome
)

// Transaction is a single money movement. Category is the joined category
// name, empty when CategoryID is nil.
type Transaction struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	CategoryID  *int64    `json:"category_id"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryLabel falls back to the uncategorized bucket used by aggregations.
func (t *Transaction) CategoryLabel() string {
	if t.Category == "" {
		return analytics.UncategorizedLabel
	}
	return t.Category
}

func (t *Transaction) ToRecord() analytics.Record {
	return analytics.Record{
		Amount:   t.Amount,
		Category: t.Category,
		Date:     t.Date,
		Type:     t.Type,
	}
}

func ToRecords(items []Transaction) []analytics.Record {
	records := make([]analytics.Record, len(items))
	for i := range items {
		records[i] = items[i].ToRecord()
	}
	return records
}

func ToDataModel(userID string, t *Transaction) *transactionDatamodel.Transaction {
	return &transactionDatamodel.Transaction{
		ID:          t.ID,
		UserID:      userID,
		Description: t.Description,
		Amount:      t.Amount,
		Type:        t.Type,
		CategoryID:  t.CategoryID,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
	}
}

func FromDataModel(row *transactionDatamodel.Transaction) *Transaction {
	return &Transaction{
		ID:          row.ID,
		Description: row.Description,
		Amount:      row.Amount,
		Type:        row.Type,
		CategoryID:  row.CategoryID,
		Category:    row.CategoryName(),
		Date:        row.Date,
		CreatedAt:   row.CreatedAt,
	}
}
