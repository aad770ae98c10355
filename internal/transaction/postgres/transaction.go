package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/budget-tracker/internal"
	categoryDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/category"
	transactionDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/transaction"
	"github.com/frahmantamala/budget-tracker/internal/transaction"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) transaction.RepositoryAPI {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) List(ctx context.Context, userID string) ([]*transactionDatamodel.Transaction, error) {
	var rows []*transactionDatamodel.Transaction
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ?", userID).
		Order("date DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *TransactionRepository) GetByID(ctx context.Context, userID string, id int64) (*transactionDatamodel.Transaction, error) {
	var row transactionDatamodel.Transaction
	err := r.db.WithContext(ctx).
		Preload("Category").
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

func (r *TransactionRepository) Create(ctx context.Context, row *transactionDatamodel.Transaction) error {
	return translate(r.db.WithContext(ctx).Omit("Category").Create(row).Error)
}

func (r *TransactionRepository) Update(ctx context.Context, row *transactionDatamodel.Transaction) error {
	res := r.db.WithContext(ctx).
		Model(&transactionDatamodel.Transaction{}).
		Where("user_id = ? AND id = ?", row.UserID, row.ID).
		Updates(map[string]interface{}{
			"description": row.Description,
			"amount":      row.Amount,
			"type":        row.Type,
			"category_id": row.CategoryID,
			"date":        row.Date,
		})
	if err := translate(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return internal.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, userID string, id int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&transactionDatamodel.Transaction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) CategoryExists(ctx context.Context, userID string, categoryID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&categoryDatamodel.Category{}).
		Where("user_id = ? AND id = ?", userID, categoryID).
		Count(&count).Error
	return count > 0, err
}

// translate turns a dangling category reference into a field error. It
// relies on gorm.Config.TranslateError.
func translate(err error) error {
	if err != nil && errors.Is(err, gorm.ErrForeignKeyViolated) {
		return internal.NewValidationFieldError("category_id", "category does not exist", internal.ErrCodeInvalidCategory).WithCause(err)
	}
	return err
}
