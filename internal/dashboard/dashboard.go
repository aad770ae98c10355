// Package dashboard assembles the overview screen: summary cards, spending
// charts, budget bars and goal progress, computed from one consistent read.
package dashboard

import (
	"slices"
	"time"

	"github.com/frahmantamala/budget-tracker/internal/analytics"
	"github.com/frahmantamala/budget-tracker/internal/budget"
	"github.com/frahmantamala/budget-tracker/internal/goal"
	"github.com/frahmantamala/budget-tracker/internal/transaction"
)

type Snapshot struct {
	Month       string                    `json:"month"`
	Summary     analytics.Summary         `json:"summary"`
	CashFlow    analytics.CashFlowSummary `json:"cash_flow"`
	Categories  []analytics.CategoryTotal `json:"categories"`
	Monthly     []analytics.PeriodTotal   `json:"monthly"`
	Daily       []analytics.PeriodTotal   `json:"daily"`
	TopCategory string                    `json:"top_category"`
	Budgets     []analytics.BudgetUsage   `json:"budgets"`
	Goals       []goal.Progress           `json:"goals"`
}

// Build computes a snapshot. Spending figures use expense records only;
// the cash flow uses every record.
func Build(items []transaction.Transaction, budgets []budget.Budget, goals []goal.Goal, now time.Time) Snapshot {
	records := transaction.ToRecords(items)
	expenses := make([]analytics.Record, 0, len(records))
	for _, r := range records {
		if r.IsExpense() {
			expenses = append(expenses, r)
		}
	}

	categories := analytics.CategoryBreakdown(expenses)
	analytics.SortByTotalDesc(categories)

	return Snapshot{
		Month:       now.Format("2006-01"),
		Summary:     analytics.Summarize(expenses),
		CashFlow:    analytics.CashFlow(records, budget.Limits(budgets)),
		Categories:  categories,
		Monthly:     analytics.MonthlyBreakdown(expenses),
		Daily:       analytics.DailyBreakdown(expenses),
		TopCategory: analytics.TopCategory(expenses),
		Budgets:     budget.UsageFor(budgets, records, now),
		Goals:       goal.ProgressOf(goals),
	}
}

func (s Snapshot) clone() Snapshot {
	s.Categories = slices.Clone(s.Categories)
	s.Monthly = slices.Clone(s.Monthly)
	s.Daily = slices.Clone(s.Daily)
	s.Budgets = slices.Clone(s.Budgets)
	s.Goals = slices.Clone(s.Goals)
	return s
}
