package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/budget-tracker/internal"
	goalDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/goal"
	"github.com/frahmantamala/budget-tracker/internal/goal"
	"gorm.io/gorm"
)

type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) goal.RepositoryAPI {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) List(ctx context.Context, userID string) ([]*goalDatamodel.Goal, error) {
	var rows []*goalDatamodel.Goal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *GoalRepository) GetByID(ctx context.Context, userID string, id int64) (*goalDatamodel.Goal, error) {
	var row goalDatamodel.Goal
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *GoalRepository) Create(ctx context.Context, row *goalDatamodel.Goal) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *GoalRepository) Delete(ctx context.Context, userID string, id int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&goalDatamodel.Goal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrGoalNotFound
	}
	return nil
}

// AddToCurrent is a single guarded UPDATE so concurrent withdrawals cannot
// overdraw the goal.
func (r *GoalRepository) AddToCurrent(ctx context.Context, userID string, id int64, delta float64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&goalDatamodel.Goal{}).
		Where("user_id = ? AND id = ? AND current_amount + ? >= 0", userID, id, delta).
		Updates(map[string]interface{}{
			"current_amount": gorm.Expr("current_amount + ?", delta),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
