// Package seed fills one user's account with sample data for development.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/budget-tracker/internal/analytics"
	"github.com/frahmantamala/budget-tracker/internal/budget"
	"github.com/frahmantamala/budget-tracker/internal/category"
	"github.com/frahmantamala/budget-tracker/internal/goal"
	"github.com/frahmantamala/budget-tracker/internal/transaction"
	"gorm.io/gorm"
)

type Services struct {
	Categories   *category.Service
	Transactions *transaction.Service
	Budgets      *budget.Service
	Goals        *goal.Service
}

type Summary struct {
	Categories   int
	Transactions int
	Budgets      int
	Goals        int
}

var categories = []string{"Food", "Rent", "Transport", "Entertainment", "Salary"}

type sample struct {
	description string
	amount      float64
	kind        string
	category    string
	day         int
}

// samples repeat for each of the seeded months.
var samples = []sample{
	{"Monthly salary", 4200, analytics.TypeIncome, "Salary", 1},
	{"Apartment rent", 1200, analytics.TypeExpense, "Rent", 2},
	{"Groceries", 86.40, analytics.TypeExpense, "Food", 4},
	{"Bus pass", 45, analytics.TypeExpense, "Transport", 5},
	{"Lunch with team", 23.75, analytics.TypeExpense, "Food", 9},
	{"Cinema", 18, analytics.TypeExpense, "Entertainment", 12},
	{"Groceries", 64.10, analytics.TypeExpense, "Food", 18},
	{"Freelance invoice", 350, analytics.TypeIncome, "", 20},
	{"Coffee beans", 14.99, analytics.TypeExpense, "", 22},
}

var budgets = map[string]float64{
	"Food":          300,
	"Transport":     60,
	"Entertainment": 50,
}

var goals = []goal.GoalDTO{
	{Name: "Emergency fund", TargetAmount: 5000},
	{Name: "Vacation", TargetAmount: 1800},
}

// Run writes months of sample history ending at now. Existing categories are
// reused so running it twice only adds transactions.
func Run(ctx context.Context, svc Services, userID string, months int, now time.Time, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if months <= 0 {
		months = 1
	}
	var summary Summary

	ids, created, err := ensureCategories(ctx, svc.Categories, userID)
	if err != nil {
		return summary, err
	}
	summary.Categories = created

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	for m := 0; m < months; m++ {
		month := start.AddDate(0, m, 0)
		for _, s := range samples {
			date := month.AddDate(0, 0, s.day-1)
			if date.After(now) {
				continue
			}
			dto := transaction.TransactionDTO{
				Description: s.description,
				Amount:      analytics.Amount(s.amount),
				Type:        s.kind,
				Date:        date.Format(time.DateOnly),
			}
			if id, ok := ids[s.category]; ok {
				dto.CategoryID = &id
			}
			if _, err := svc.Transactions.Create(ctx, userID, dto); err != nil {
				return summary, fmt.Errorf("seed transaction %q: %w", s.description, err)
			}
			summary.Transactions++
		}
	}

	for name, limit := range budgets {
		if _, err := svc.Budgets.Upsert(ctx, userID, budget.BudgetDTO{Category: name, MonthlyLimit: analytics.Amount(limit)}); err != nil {
			return summary, fmt.Errorf("seed budget %q: %w", name, err)
		}
		summary.Budgets++
	}

	existing, err := svc.Goals.List(ctx, userID)
	if err != nil {
		return summary, err
	}
	if len(existing) == 0 {
		for i, dto := range goals {
			g, err := svc.Goals.Create(ctx, userID, dto)
			if err != nil {
				return summary, fmt.Errorf("seed goal %q: %w", dto.Name, err)
			}
			if _, err := svc.Goals.Adjust(ctx, userID, g.ID, goal.AdjustDTO{
				Action: goal.ActionAdd,
				Amount: analytics.Amount(250 * (i + 1)),
			}); err != nil {
				return summary, fmt.Errorf("seed goal deposit %q: %w", dto.Name, err)
			}
			summary.Goals++
		}
	}

	logger.Info("seeded sample data",
		"user_id", userID,
		"categories", summary.Categories,
		"transactions", summary.Transactions,
		"budgets", summary.Budgets,
		"goals", summary.Goals)
	return summary, nil
}

func ensureCategories(ctx context.Context, svc *category.Service, userID string) (map[string]int64, int, error) {
	existing, err := svc.List(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	ids := make(map[string]int64, len(categories))
	for _, c := range existing {
		ids[c.Name] = c.ID
	}

	created := 0
	for _, name := range categories {
		if _, ok := ids[name]; ok {
			continue
		}
		c, err := svc.Create(ctx, userID, category.CategoryDTO{Name: name})
		if err != nil {
			return nil, created, fmt.Errorf("seed category %q: %w", name, err)
		}
		ids[name] = c.ID
		created++
	}
	return ids, created, nil
}

// Clear removes every row owned by userID, children first.
func Clear(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"transactions", "budgets", "goals", "categories"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE user_id = ?", userID).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
