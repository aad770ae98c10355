package transaction

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/core/common/validation"
)

const (
	SortDateDesc   = "date-desc"
	SortDateAsc    = "date-asc"
	SortAmountDesc = "amount-desc"
	SortAmountAsc  = "amount-asc"

	// AllCategories disables the category filter.
	AllCategories = "All"

	DefaultPerPage = 5
	MaxPerPage     = 100
)

// ListQuery narrows, orders and pages the transaction list. Filters combine
// with AND; a zero value lists everything, newest first.
type ListQuery struct {
	Search   string
	Category string
	From     *time.Time
	To       *time.Time
	Sort     string
	Page     int
	PerPage  int
}

type Page struct {
	Items      []Transaction
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// ParseListQuery reads search, category, from, to, sort, page and per_page.
func ParseListQuery(values url.Values) (ListQuery, *errors.AppError) {
	q := ListQuery{
		Search:   strings.TrimSpace(values.Get("search")),
		Category: strings.TrimSpace(values.Get("category")),
		Sort:     strings.TrimSpace(values.Get("sort")),
	}

	v := validation.NewValidator()
	if s := values.Get("from"); s != "" {
		if t, err := ParseDate(s); err == nil {
			q.From = &t
		} else {
			v.Field("from", s).Custom(invalidDate("from"))
		}
	}
	if s := values.Get("to"); s != "" {
		if t, err := ParseDate(s); err == nil {
			q.To = &t
		} else {
			v.Field("to", s).Custom(invalidDate("to"))
		}
	}
	if q.Sort != "" {
		v.Field("sort", q.Sort).OneOf(errors.ErrCodeValidationFailed, SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc)
	}
	q.Page = intParam(v, values, "page")
	q.PerPage = intParam(v, values, "per_page")

	if err := v.Validate(); err != nil {
		return ListQuery{}, err
	}
	return q, nil
}

func invalidDate(field string) func(interface{}) *errors.AppError {
	return func(interface{}) *errors.AppError {
		return errors.NewValidationFieldError(field, field+" must be YYYY-MM-DD or RFC 3339", errors.ErrCodeInvalidDate)
	}
}

func intParam(v *validation.ValidationBuilder, values url.Values, name string) int {
	s := values.Get(name)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		v.Field(name, s).Custom(func(interface{}) *errors.AppError {
			return errors.NewValidationFieldError(name, name+" must be a positive integer", errors.ErrCodeValidationFailed)
		})
		return 0
	}
	return n
}

// Matches applies the search, category and date filters to one transaction.
// Search is a case-insensitive substring of the description or a substring
// of the amount as written; the date range covers whole days.
func (q ListQuery) Matches(t *Transaction) bool {
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(t.Description), term) &&
			!strings.Contains(formatAmount(t.Amount), term) {
			return false
		}
	}
	if q.Category != "" && q.Category != AllCategories && t.CategoryLabel() != q.Category {
		return false
	}
	if q.From != nil && t.Date.Before(startOfDay(*q.From)) {
		return false
	}
	if q.To != nil && t.Date.After(endOfDay(*q.To)) {
		return false
	}
	return true
}

// Select filters and sorts items without paging. The input is not modified.
func (q ListQuery) Select(items []Transaction) []Transaction {
	filtered := make([]Transaction, 0, len(items))
	for i := range items {
		if q.Matches(&items[i]) {
			filtered = append(filtered, items[i])
		}
	}
	sort.SliceStable(filtered, lessFor(q.Sort, filtered))
	return filtered
}

// Apply selects and pages items. A page past the end yields an empty Items
// with the correct totals.
func (q ListQuery) Apply(items []Transaction) Page {
	filtered := q.Select(items)

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	total := len(filtered)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return Page{
		Items:      filtered[start:end],
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}
}

func lessFor(order string, items []Transaction) func(i, j int) bool {
	switch order {
	case SortDateAsc:
		return func(i, j int) bool { return items[i].Date.Before(items[j].Date) }
	case SortAmountDesc:
		return func(i, j int) bool { return items[i].Amount > items[j].Amount }
	case SortAmountAsc:
		return func(i, j int) bool { return items[i].Amount < items[j].Amount }
	default:
		return func(i, j int) bool { return items[i].Date.After(items[j].Date) }
	}
}

// formatAmount renders an amount the shortest way, so 12.5 reads "12.5".
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
