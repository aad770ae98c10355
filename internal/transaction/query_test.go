package transaction_test

import (
	"net/url"
	"time"

	"github.com/frahmantamala/budget-tracker/internal/transaction"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func descriptions(items []transaction.Transaction) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].Description
	}
	return out
}

var _ = Describe("ListQuery", func() {
	var items []transaction.Transaction

	BeforeEach(func() {
		items = []transaction.Transaction{
			{ID: 1, Description: "Coffee beans", Amount: 12.5, Type: "expense", Category: "Food", Date: day(2024, time.March, 3, 9)},
			{ID: 2, Description: "Salary", Amount: 3000, Type: "income", Date: day(2024, time.March, 1, 8)},
			{ID: 3, Description: "Rent", Amount: 1200, Type: "expense", Category: "Housing", Date: day(2024, time.February, 28, 10)},
			{ID: 4, Description: "Lunch", Amount: 125, Type: "expense", Category: "Food", Date: day(2024, time.March, 5, 23)},
		}
	})

	It("defaults to newest first with five rows per page", func() {
		page := transaction.ListQuery{}.Apply(items)
		Expect(descriptions(page.Items)).To(Equal([]string{"Lunch", "Coffee beans", "Salary", "Rent"}))
		Expect(page.Page).To(Equal(1))
		Expect(page.PerPage).To(Equal(transaction.DefaultPerPage))
		Expect(page.Total).To(Equal(4))
		Expect(page.TotalPages).To(Equal(1))
	})

	It("does not reorder the input slice", func() {
		transaction.ListQuery{Sort: transaction.SortAmountAsc}.Apply(items)
		Expect(items[0].ID).To(Equal(int64(1)))
	})

	It("searches descriptions case-insensitively", func() {
		page := transaction.ListQuery{Search: "COFFEE"}.Apply(items)
		Expect(descriptions(page.Items)).To(Equal([]string{"Coffee beans"}))
	})

	It("searches the amount as written", func() {
		page := transaction.ListQuery{Search: "12"}.Apply(items)
		Expect(descriptions(page.Items)).To(ConsistOf("Coffee beans", "Rent", "Lunch"))
	})

	It("filters by category name", func() {
		page := transaction.ListQuery{Category: "Food"}.Apply(items)
		Expect(page.Total).To(Equal(2))

		page = transaction.ListQuery{Category: transaction.AllCategories}.Apply(items)
		Expect(page.Total).To(Equal(4))

		page = transaction.ListQuery{Category: "Uncategorized"}.Apply(items)
		Expect(descriptions(page.Items)).To(Equal([]string{"Salary"}))
	})

	It("includes whole days at both ends of the date range", func() {
		from := day(2024, time.March, 1, 12)
		to := day(2024, time.March, 5, 0)
		page := transaction.ListQuery{From: &from, To: &to}.Apply(items)
		Expect(descriptions(page.Items)).To(Equal([]string{"Lunch", "Coffee beans", "Salary"}))
	})

	It("sorts by amount and by ascending date", func() {
		page := transaction.ListQuery{Sort: transaction.SortAmountDesc}.Apply(items)
		Expect(descriptions(page.Items)).To(Equal([]string{"Salary", "Rent", "Lunch", "Coffee beans"}))

		page = transaction.ListQuery{Sort: transaction.SortDateAsc}.Apply(items)
		Expect(descriptions(page.Items)).To(Equal([]string{"Rent", "Salary", "Coffee beans", "Lunch"}))
	})

	It("pages through the filtered rows", func() {
		page := transaction.ListQuery{PerPage: 3, Page: 2}.Apply(items)
		Expect(descriptions(page.Items)).To(Equal([]string{"Rent"}))
		Expect(page.TotalPages).To(Equal(2))

		page = transaction.ListQuery{PerPage: 3, Page: 9}.Apply(items)
		Expect(page.Items).To(BeEmpty())
		Expect(page.Total).To(Equal(4))
	})

	It("caps the page size", func() {
		page := transaction.ListQuery{PerPage: 1000}.Apply(items)
		Expect(page.PerPage).To(Equal(transaction.MaxPerPage))
	})

	Describe("ParseListQuery", func() {
		It("reads every parameter", func() {
			q, err := transaction.ParseListQuery(url.Values{
				"search":   {" rent "},
				"category": {"Housing"},
				"from":     {"2024-02-01"},
				"to":       {"2024-02-29"},
				"sort":     {"amount-asc"},
				"page":     {"2"},
				"per_page": {"10"},
			})
			Expect(err).To(BeNil())
			Expect(q.Search).To(Equal("rent"))
			Expect(q.Category).To(Equal("Housing"))
			Expect(*q.From).To(Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)))
			Expect(q.To).NotTo(BeNil())
			Expect(q.Sort).To(Equal(transaction.SortAmountAsc))
			Expect(q.Page).To(Equal(2))
			Expect(q.PerPage).To(Equal(10))
		})

		It("collects every malformed parameter", func() {
			_, err := transaction.ParseListQuery(url.Values{
				"from":     {"yesterday"},
				"sort":     {"random"},
				"per_page": {"-1"},
			})
			Expect(err).NotTo(BeNil())
			Expect(err.StatusCode).To(Equal(400))
			Expect(err.Details).To(HaveField("Errors", HaveLen(3)))
		})
	})
})
