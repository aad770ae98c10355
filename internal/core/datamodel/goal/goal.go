package goal

import "time"

type Goal struct {
	ID            int64      `gorm:"primaryKey"`
	UserID        string     `gorm:"column:user_id;not null;index"`
	Name          string     `gorm:"column:name;not null"`
	TargetAmount  float64    `gorm:"column:target_amount;type:numeric(14,2);not null"`
	CurrentAmount float64    `gorm:"column:current_amount;type:numeric(14,2);not null;default:0"`
	TargetDate    *time.Time `gorm:"column:target_date;type:date"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Goal) TableName() string {
	return "goals"
}
