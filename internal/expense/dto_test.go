package expense_test

import (
	"encoding/json"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-tracker/internal/expense"
)

func decodeRequest(body string) expense.CreateExpenseRequest {
	var req expense.CreateExpenseRequest
	Expect(json.Unmarshal([]byte(body), &req)).To(Succeed())
	return req
}

var _ = Describe("CreateExpenseRequest", func() {
	Describe("Validate", func() {
		It("should accept a complete request", func() {
			req := decodeRequest(`{"amount": 150.5, "category": "Food", "description": "Lunch", "date": "2025-01-15"}`)
			Expect(req.Validate()).To(BeEmpty())
		})

		It("should report every missing field in field order", func() {
			req := decodeRequest(`{"amount": 100}`)
			Expect(req.Validate()).To(Equal([]string{
				"category is required and must be a non-empty string",
				"description is required and must be a non-empty string",
				"date is required",
			}))
		})

		It("should report only the positivity message for a negative amount", func() {
			req := decodeRequest(`{"amount": -50, "category": "Shopping", "description": "x", "date": "2025-02-19"}`)
			Expect(req.Validate()).To(Equal([]string{"amount must be greater than zero"}))
		})

		DescribeTable("amount rules",
			func(body string, expected string) {
				Expect(decodeRequest(body).Validate()).To(Equal([]string{expected}))
			},
			Entry("missing", `{"category": "a", "description": "b", "date": "2025-01-01"}`, "amount is required"),
			Entry("null", `{"amount": null, "category": "a", "description": "b", "date": "2025-01-01"}`, "amount is required"),
			Entry("string", `{"amount": "12", "category": "a", "description": "b", "date": "2025-01-01"}`, "amount must be a number"),
			Entry("boolean", `{"amount": true, "category": "a", "description": "b", "date": "2025-01-01"}`, "amount must be a number"),
			Entry("zero", `{"amount": 0, "category": "a", "description": "b", "date": "2025-01-01"}`, "amount must be greater than zero"),
			Entry("below one minor unit", `{"amount": 0.004, "category": "a", "description": "b", "date": "2025-01-01"}`, "amount must be greater than zero"),
			Entry("too large", `{"amount": 1e300, "category": "a", "description": "b", "date": "2025-01-01"}`, "amount is too large"),
		)

		DescribeTable("text and date rules",
			func(body string, expected []string) {
				Expect(decodeRequest(body).Validate()).To(Equal(expected))
			},
			Entry("blank category", `{"amount": 1, "category": "   ", "description": "b", "date": "2025-01-01"}`,
				[]string{"category is required and must be a non-empty string"}),
			Entry("numeric description", `{"amount": 1, "category": "a", "description": 5, "date": "2025-01-01"}`,
				[]string{"description is required and must be a non-empty string"}),
			Entry("empty date", `{"amount": 1, "category": "a", "description": "b", "date": ""}`,
				[]string{"date is required"}),
			Entry("impossible date", `{"amount": 1, "category": "a", "description": "b", "date": "2025-02-30"}`,
				[]string{"date must be a valid date string (e.g. 2025-01-15)"}),
			Entry("everything wrong", `{"amount": "x", "category": "", "description": null, "date": "soon"}`,
				[]string{
					"amount must be a number",
					"category is required and must be a non-empty string",
					"description is required and must be a non-empty string",
					"date must be a valid date string (e.g. 2025-01-15)",
				}),
		)
	})

	Describe("ToDTO", func() {
		It("should trim text and normalize the date", func() {
			req := decodeRequest(`{"amount": 9.99, "category": "  Bills ", "description": " Power ", "date": "2025-01-15T10:30:00Z"}`)
			dto, msgs := req.ToDTO()
			Expect(msgs).To(BeEmpty())
			Expect(dto).To(Equal(expense.CreateExpenseDTO{
				Amount:      9.99,
				Category:    "Bills",
				Description: "Power",
				Date:        "2025-01-15",
			}))
		})

		It("should return the validation messages instead of a DTO", func() {
			dto, msgs := decodeRequest(`{"amount": "x", "category": "Food", "description": "Lunch", "date": "2025-02-30"}`).ToDTO()
			Expect(dto).To(BeZero())
			Expect(msgs).To(Equal([]string{
				"amount must be a number",
				"date must be a valid date string (e.g. 2025-01-15)",
			}))
		})
	})
})

var _ = Describe("ParseListQuery", func() {
	It("should default to created_at ordering", func() {
		q := expense.ParseListQuery(url.Values{})
		Expect(q).To(Equal(expense.ListExpensesQuery{}))
	})

	It("should read category and date_desc", func() {
		q := expense.ParseListQuery(url.Values{"category": {" Food "}, "sort": {"date_desc"}})
		Expect(q.Category).To(Equal("Food"))
		Expect(q.Sort).To(Equal(expense.SortDateDesc))
	})

	It("should fall back to the default for unknown sort values", func() {
		Expect(expense.ParseSortMode("amount_asc")).To(Equal(expense.SortCreatedDesc))
	})
})
