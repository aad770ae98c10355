// Package analytics derives dashboard metrics from an in-memory list of
// transaction records. Every function is pure: no I/O, no shared state.
// Arithmetic edge cases (empty input, zero limits, non-finite amounts)
// resolve to 0 instead of NaN or Inf.
package analytics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	TypeExpense = "expense"
	TypeIncome  = "income"

	// UncategorizedLabel groups records without a category.
	UncategorizedLabel = "Uncategorized"
	// NoTopCategory is reported by TopCategory for an empty list.
	NoTopCategory = "N/A"
)

var ErrNegativeBalance = errors.New("goal balance cannot go below zero")

type Record struct {
	Amount   float64
	Category string
	Date     time.Time
	Type     string
}

// IsExpense treats a record without a type as an expense.
func (r Record) IsExpense() bool {
	return r.Type == "" || r.Type == TypeExpense
}

func (r Record) categoryLabel() string {
	if strings.TrimSpace(r.Category) == "" {
		return UncategorizedLabel
	}
	return r.Category
}

// ParseAmount coerces a string to a finite number; anything else is 0.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return finite(v)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Amount is a float64 that decodes from either a JSON number or a numeric
// string. Non-numeric input decodes to 0.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		*a = Amount(ParseAmount(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*a = 0
		return nil
	}
	*a = Amount(finite(f))
	return nil
}

func (a Amount) Float64() float64 {
	return finite(float64(a))
}

type Summary struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
	Count   int     `json:"count"`
}

func Summarize(records []Record) Summary {
	var s Summary
	for i, r := range records {
		amount := finite(r.Amount)
		s.Total += amount
		if i == 0 || amount > s.Max {
			s.Max = amount
		}
		if i == 0 || amount < s.Min {
			s.Min = amount
		}
	}
	s.Count = len(records)
	if s.Count > 0 {
		s.Average = s.Total / float64(s.Count)
	}
	return s
}

type CategoryTotal struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// CategoryBreakdown groups records by category name in order of first
// occurrence.
func CategoryBreakdown(records []Record) []CategoryTotal {
	index := make(map[string]int)
	out := make([]CategoryTotal, 0)
	for _, r := range records {
		name := r.categoryLabel()
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategoryTotal{Name: name})
		}
		out[i].Total += finite(r.Amount)
		out[i].Count++
	}
	return out
}

// SortByTotalDesc orders a breakdown by total, largest first. Equal totals
// keep their relative order.
func SortByTotalDesc(totals []CategoryTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total > totals[j].Total
	})
}

// TopCategory returns the category with the most records. On a tie the
// category seen first wins.
func TopCategory(records []Record) string {
	breakdown := CategoryBreakdown(records)
	if len(breakdown) == 0 {
		return NoTopCategory
	}
	top := breakdown[0]
	for _, c := range breakdown[1:] {
		if c.Count > top.Count {
			top = c
		}
	}
	return top.Name
}

type PeriodTotal struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// MonthlyBreakdown groups by calendar month. Keys are "YYYY-MM", labels are
// short month names, output is ascending by key.
func MonthlyBreakdown(records []Record) []PeriodTotal {
	return periodBreakdown(records, func(t time.Time) (string, string) {
		return t.Format("2006-01"), t.Format("Jan")
	})
}

// DailyBreakdown groups by calendar day. Keys are "YYYY-MM-DD", labels are
// "DD/MM", output is ascending by key.
func DailyBreakdown(records []Record) []PeriodTotal {
	return periodBreakdown(records, func(t time.Time) (string, string) {
		return t.Format("2006-01-02"), t.Format("02/01")
	})
}

func periodBreakdown(records []Record, keyOf func(time.Time) (string, string)) []PeriodTotal {
	index := make(map[string]int)
	out := make([]PeriodTotal, 0)
	for _, r := range records {
		key, label := keyOf(r.Date)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, PeriodTotal{Key: key, Label: label})
		}
		out[i].Total += finite(r.Amount)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// LabelStride tells a chart how many points to skip between axis labels so
// at most maxLabels are drawn. It never changes the data.
func LabelStride(points, maxLabels int) int {
	if maxLabels <= 0 || points <= maxLabels {
		return 1
	}
	return (points + maxLabels - 1) / maxLabels
}

type CashFlowSummary struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpense  float64 `json:"total_expense"`
	NetFlow       float64 `json:"net_flow"`
	TotalBudgeted float64 `json:"total_budgeted"`
}

func CashFlow(records []Record, budgetLimits []float64) CashFlowSummary {
	var c CashFlowSummary
	for _, r := range records {
		if r.Type == TypeIncome {
			c.TotalIncome += finite(r.Amount)
		} else {
			c.TotalExpense += finite(r.Amount)
		}
	}
	for _, limit := range budgetLimits {
		c.TotalBudgeted += finite(limit)
	}
	c.NetFlow = c.TotalIncome - c.TotalExpense
	return c
}

type BudgetStatus string

const (
	BudgetOK       BudgetStatus = "ok"
	BudgetWarning  BudgetStatus = "warning"
	BudgetCritical BudgetStatus = "critical"
)

func (s BudgetStatus) Color() string {
	switch s {
	case BudgetCritical:
		return "red"
	case BudgetWarning:
		return "orange"
	default:
		return "green"
	}
}

// StatusFor maps an unclamped consumption percentage to a status. Both
// thresholds are strict: exactly 50 is ok and exactly 90 is a warning.
func StatusFor(percentage float64) BudgetStatus {
	switch {
	case percentage > 90:
		return BudgetCritical
	case percentage > 50:
		return BudgetWarning
	default:
		return BudgetOK
	}
}

type BudgetUsage struct {
	Category   string       `json:"category"`
	Limit      float64      `json:"limit"`
	Spent      float64      `json:"spent"`
	Percentage float64      `json:"percentage"`
	Display    float64      `json:"display_percentage"`
	OverBy     float64      `json:"over_by"`
	Status     BudgetStatus `json:"status"`
	Color      string       `json:"color"`
}

// BudgetConsumption sums the expenses of category that fall in now's
// calendar month and compares them against monthlyLimit.
func BudgetConsumption(records []Record, category string, monthlyLimit float64, now time.Time) BudgetUsage {
	limit := finite(monthlyLimit)
	usage := BudgetUsage{Category: category, Limit: limit}
	year, month, _ := now.Date()
	for _, r := range records {
		if !r.IsExpense() || r.categoryLabel() != category {
			continue
		}
		y, m, _ := r.Date.In(now.Location()).Date()
		if y != year || m != month {
			continue
		}
		usage.Spent += finite(r.Amount)
	}
	if limit > 0 {
		usage.Percentage = usage.Spent * 100 / limit
	}
	usage.Display = clamp(usage.Percentage, 0, 100)
	if usage.Percentage > 100 {
		usage.OverBy = usage.Spent - limit
	}
	usage.Status = StatusFor(usage.Percentage)
	usage.Color = usage.Status.Color()
	return usage
}

type GoalStatus struct {
	Percentage float64 `json:"percentage"`
	Remaining  float64 `json:"remaining"`
}

// GoalProgress clamps the percentage for display; Remaining goes negative
// once the goal is overfunded.
func GoalProgress(target, current float64) GoalStatus {
	target, current = finite(target), finite(current)
	var status GoalStatus
	if target > 0 {
		status.Percentage = clamp(current*100/target, 0, 100)
	}
	status.Remaining = target - current
	return status
}

// ApplyGoalDelta adds delta (negative to withdraw) to current. A result
// below zero is rejected; exactly zero is allowed.
func ApplyGoalDelta(current, delta float64) (float64, error) {
	next := finite(current) + finite(delta)
	if next < 0 {
		return current, ErrNegativeBalance
	}
	return next, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
