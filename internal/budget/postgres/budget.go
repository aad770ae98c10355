package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/budget"
	budgetDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/budget"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) budget.RepositoryAPI {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) List(ctx context.Context, userID string) ([]*budgetDatamodel.Budget, error) {
	var rows []*budgetDatamodel.Budget
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("category ASC").
		Find(&rows).Error
	return rows, err
}

func (r *BudgetRepository) GetByCategory(ctx context.Context, userID, category string) (*budgetDatamodel.Budget, error) {
	var row budgetDatamodel.Budget
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", userID, category).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Upsert inserts the budget or overwrites the limit of the existing row for
// the same (user_id, category).
func (r *BudgetRepository) Upsert(ctx context.Context, row *budgetDatamodel.Budget) error {
	row.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "category"}},
			DoUpdates: clause.AssignmentColumns([]string{"monthly_limit", "updated_at"}),
		}).
		Create(row).Error
}

func (r *BudgetRepository) Delete(ctx context.Context, userID string, id int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&budgetDatamodel.Budget{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrBudgetNotFound
	}
	return nil
}
