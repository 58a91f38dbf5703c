package validation_test

import (
	"math"

	errors "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/core/common/validation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ValidationBuilder", func() {
	It("reports only the first failing rule of a field", func() {
		v := validation.NewValidator()
		v.Field("amount", "12").Present().Number().Positive()

		Expect(v.Messages()).To(Equal([]string{"amount must be a number"}))
	})

	It("reports every field in declaration order", func() {
		v := validation.NewValidator()
		v.Field("amount", nil).Present().Number()
		v.Field("category", "  ").NonBlankString()
		v.Field("date", "").Required().Date()

		Expect(v.Messages()).To(Equal([]string{
			"amount is required",
			"category is required and must be a non-empty string",
			"date is required",
		}))
	})

	It("returns an empty list when everything passes", func() {
		v := validation.NewValidator()
		v.Field("amount", 10.5).Present().Number().Positive()

		Expect(v.Messages()).To(BeEmpty())
		Expect(v.Validate()).To(BeNil())
	})

	It("wraps messages in a validation AppError", func() {
		v := validation.NewValidator()
		v.Field("amount", -1.0).Present().Number().Positive()

		appErr := v.Validate()
		Expect(appErr).NotTo(BeNil())
		Expect(appErr.Type).To(Equal(errors.ErrorTypeValidation))
		Expect(appErr.Message).To(Equal("Validation failed"))
		Expect(appErr.DetailMessages()).To(Equal([]string{"amount must be greater than zero"}))
	})

	It("runs custom rules after the built-in ones", func() {
		v := validation.NewValidator()
		v.Field("amount", 0.001).Present().Number().Positive().Custom(func(value interface{}) string {
			return "amount must be greater than zero"
		})

		Expect(v.Messages()).To(Equal([]string{"amount must be greater than zero"}))
	})

	Describe("AsNumber", func() {
		It("rejects non-finite and non-numeric values", func() {
			_, ok := validation.AsNumber(math.NaN())
			Expect(ok).To(BeFalse())
			_, ok = validation.AsNumber(math.Inf(1))
			Expect(ok).To(BeFalse())
			_, ok = validation.AsNumber(true)
			Expect(ok).To(BeFalse())
		})

		It("accepts integer kinds", func() {
			n, ok := validation.AsNumber(int64(7))
			Expect(ok).To(BeTrue())
			Expect(n).To(Equal(7.0))
		})
	})

	DescribeTable("NormalizeDate",
		func(input, expected string, ok bool) {
			got, valid := validation.NormalizeDate(input)
			Expect(valid).To(Equal(ok))
			Expect(got).To(Equal(expected))
		},
		Entry("calendar date", "2025-02-19", "2025-02-19", true),
		Entry("timestamp keeps its own calendar day", "2025-02-19T23:30:00+05:30", "2025-02-19", true),
		Entry("local timestamp", "2025-02-19T08:15:00", "2025-02-19", true),
		Entry("surrounding whitespace", " 2025-02-19 ", "2025-02-19", true),
		Entry("impossible day", "2025-02-30", "", false),
		Entry("free text", "yesterday", "", false),
	)
})
