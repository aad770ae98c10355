package budget

import "time"

// Budget rows are keyed by (user_id, category); writes are upserts.
type Budget struct {
	ID           int64     `gorm:"primaryKey"`
	UserID       string    `gorm:"column:user_id;not null;uniqueIndex:idx_budgets_user_category"`
	Category     string    `gorm:"column:category;not null;uniqueIndex:idx_budgets_user_category"`
	MonthlyLimit float64   `gorm:"column:monthly_limit;type:numeric(14,2);not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Budget) TableName() string {
	return "budgets"
}
