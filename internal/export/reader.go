package export

import (
	"context"
	"time"

	"github.com/frahmantamala/budget-tracker/internal/transaction"
	"github.com/jmoiron/sqlx"
)

const selectTransactions = `
SELECT t.id, t.description, t.amount, t.type, t.category_id,
       COALESCE(c.name, '') AS category, t.date, t.created_at
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
WHERE t.user_id = ?
ORDER BY t.date DESC, t.id DESC`

type transactionRow struct {
	ID          int64     `db:"id"`
	Description string    `db:"description"`
	Amount      float64   `db:"amount"`
	Type        string    `db:"type"`
	CategoryID  *int64    `db:"category_id"`
	Category    string    `db:"category"`
	Date        time.Time `db:"date"`
	CreatedAt   time.Time `db:"created_at"`
}

// Reader reads transactions with their category names straight from the
// database, bypassing the request cache.
type Reader struct {
	db *sqlx.DB
}

func NewReader(db *sqlx.DB) *Reader {
	return &Reader{db: db}
}

func (r *Reader) Transactions(ctx context.Context, userID string) ([]transaction.Transaction, error) {
	var rows []transactionRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(selectTransactions), userID); err != nil {
		return nil, err
	}

	items := make([]transaction.Transaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, transaction.Transaction{
			ID:          row.ID,
			Description: row.Description,
			Amount:      row.Amount,
			Type:        row.Type,
			CategoryID:  row.CategoryID,
			Category:    row.Category,
			Date:        row.Date,
			CreatedAt:   row.CreatedAt,
		})
	}
	return items, nil
}
