package category

import "time"

// Category names are unique per user.
type Category struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:idx_categories_user_name"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_categories_user_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Category) TableName() string {
	return "categories"
}
