package expense

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/frahmantamala/expense-tracker/internal/core/common/validation"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
)

// IdempotencyKeyHeader carries the optional client retry token.
const IdempotencyKeyHeader = "Idempotency-Key"

// CreateExpenseRequest is the raw request body. Fields stay untyped until
// Validate has run so that a missing amount and a non-numeric amount can be
// told apart.
type CreateExpenseRequest struct {
	Amount      interface{} `json:"amount"`
	Category    interface{} `json:"category"`
	Description interface{} `json:"description"`
	Date        interface{} `json:"date"`
}

// Validate returns every violated rule in the order amount, category,
// description, date. An empty slice means the request is valid.
func (r CreateExpenseRequest) Validate() []string {
	v := validation.NewValidator()
	v.Field("amount", r.Amount).
		Present().
		Number().
		Positive().
		MaxNumber(money.MaxMajorUnits).
		Custom(atLeastOneMinorUnit)
	v.Field("category", r.Category).NonBlankString()
	v.Field("description", r.Description).NonBlankString()
	v.Field("date", r.Date).Required().Date()
	return v.Messages()
}

// amounts below half a minor unit would be stored as zero
func atLeastOneMinorUnit(value interface{}) string {
	if n, ok := validation.AsNumber(value); ok && money.ToMinorUnits(n) < 1 {
		return "amount must be greater than zero"
	}
	return ""
}

// ToDTO is the single way a request body becomes a CreateExpenseDTO. It
// validates first; a non-empty message slice means the request is rejected
// and the DTO is the zero value.
func (r CreateExpenseRequest) ToDTO() (CreateExpenseDTO, []string) {
	if msgs := r.Validate(); len(msgs) > 0 {
		return CreateExpenseDTO{}, msgs
	}

	var msgs []string
	amount, ok := validation.AsNumber(r.Amount)
	if !ok {
		msgs = append(msgs, "amount must be a number")
	}
	category, ok := r.Category.(string)
	if !ok {
		msgs = append(msgs, "category is required and must be a non-empty string")
	}
	description, ok := r.Description.(string)
	if !ok {
		msgs = append(msgs, "description is required and must be a non-empty string")
	}
	rawDate, _ := r.Date.(string)
	date, ok := validation.NormalizeDate(rawDate)
	if !ok {
		msgs = append(msgs, "date must be a valid date string (e.g. 2025-01-15)")
	}
	if len(msgs) > 0 {
		return CreateExpenseDTO{}, msgs
	}

	return CreateExpenseDTO{
		Amount:      amount,
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
		Date:        date,
	}, nil
}

// CreateExpenseDTO is the trusted input accepted by Service.CreateExpense.
type CreateExpenseDTO struct {
	Amount      float64
	Category    string
	Description string
	Date        string
}

type SortMode string

const (
	SortCreatedDesc SortMode = ""
	SortDateDesc    SortMode = "date_desc"
)

// ParseSortMode falls back to the default ordering for unknown values.
func ParseSortMode(s string) SortMode {
	if SortMode(strings.TrimSpace(s)) == SortDateDesc {
		return SortDateDesc
	}
	return SortCreatedDesc
}

type ListExpensesQuery struct {
	Category string
	Sort     SortMode
}

func ParseListQuery(values url.Values) ListExpensesQuery {
	return ListExpensesQuery{
		Category: strings.TrimSpace(values.Get("category")),
		Sort:     ParseSortMode(values.Get("sort")),
	}
}

type ExpenseResponse struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	CreatedAt   string  `json:"created_at"`
}

type CategoryTotalResponse struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

type SummaryResponse struct {
	Total      float64                 `json:"total"`
	Count      int                     `json:"count"`
	Categories []CategoryTotalResponse `json:"categories"`
}

// Domain errors
var (
	ErrExpenseNotFound = errors.New("expense not found")
	// ErrIdempotencyConflict is returned by repositories when an insert loses
	// the race on an idempotency key that another insert already holds.
	ErrIdempotencyConflict = errors.New("idempotency key already used")
)

// StorageFault wraps a failure of the underlying persistence mechanism.
type StorageFault struct {
	Op  string
	Err error
}

func (e *StorageFault) Error() string {
	return fmt.Sprintf("storage fault during %s: %v", e.Op, e.Err)
}

func (e *StorageFault) Unwrap() error {
	return e.Err
}

func IsStorageFault(err error) bool {
	var sf *StorageFault
	return errors.As(err, &sf)
}
