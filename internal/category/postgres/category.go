package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/category"
	budgetDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/budget"
	categoryDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/category"
	transactionDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/transaction"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context, userID string) ([]*categoryDatamodel.Category, error) {
	var categories []*categoryDatamodel.Category
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) GetByID(ctx context.Context, userID string, id int64) (*categoryDatamodel.Category, error) {
	return r.first(ctx, "user_id = ? AND id = ?", userID, id)
}

func (r *CategoryRepository) GetByName(ctx context.Context, userID, name string) (*categoryDatamodel.Category, error) {
	return r.first(ctx, "user_id = ? AND name = ?", userID, name)
}

func (r *CategoryRepository) first(ctx context.Context, query string, args ...interface{}) (*categoryDatamodel.Category, error) {
	var cat categoryDatamodel.Category
	err := r.db.WithContext(ctx).Where(query, args...).First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

func (r *CategoryRepository) Create(ctx context.Context, cat *categoryDatamodel.Category) error {
	return translate(r.db.WithContext(ctx).Create(cat).Error)
}

// Update renames the category and moves the user's budget that tracks the
// old name along with it. Budgets are keyed by name, so both writes share
// one transaction.
func (r *CategoryRepository) Update(ctx context.Context, cat *categoryDatamodel.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current categoryDatamodel.Category
		err := tx.Where("user_id = ? AND id = ?", cat.UserID, cat.ID).First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrCategoryNotFound
			}
			return err
		}
		if current.Name == cat.Name {
			return nil
		}

		if err := translate(tx.Model(&categoryDatamodel.Category{}).
			Where("user_id = ? AND id = ?", cat.UserID, cat.ID).
			Update("name", cat.Name).Error); err != nil {
			return err
		}

		err = tx.Model(&budgetDatamodel.Budget{}).
			Where("user_id = ? AND category = ?", cat.UserID, current.Name).
			Update("category", cat.Name).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrBudgetExists.WithCause(err)
		}
		return err
	})
}

func (r *CategoryRepository) Delete(ctx context.Context, userID string, id int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&categoryDatamodel.Category{})
	if err := translate(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return internal.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) CountTransactions(ctx context.Context, userID string, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&transactionDatamodel.Transaction{}).
		Where("user_id = ? AND category_id = ?", userID, id).
		Count(&count).Error
	return count, err
}

// translate maps constraint violations reported by the database onto domain
// errors. It relies on gorm.Config.TranslateError.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return internal.ErrCategoryInUse.WithCause(err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return internal.ErrCategoryExists.WithCause(err)
	default:
		return err
	}
}
