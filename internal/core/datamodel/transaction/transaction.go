package transaction

import (
	"time"

	categoryDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/category"
)

type Transaction struct {
	ID          int64                       `gorm:"primaryKey"`
	UserID      string                      `gorm:"column:user_id;not null;index:idx_transactions_user_date"`
	Description string                      `gorm:"column:description;not null"`
	Amount      float64                     `gorm:"column:amount;type:numeric(14,2);not null"`
	Type        string                      `gorm:"column:type;not null;default:expense"`
	CategoryID  *int64                      `gorm:"column:category_id;index"`
	Category    *categoryDatamodel.Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	Date        time.Time                   `gorm:"column:date;not null;index:idx_transactions_user_date"`
	CreatedAt   time.Time                   `gorm:"column:created_at;autoCreateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// CategoryName is empty when the transaction has no category.
func (t *Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}
