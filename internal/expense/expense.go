package expense

import (
	"strings"
	"time"

	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
)

// CreatedAtLayout renders created_at as ISO 8601 UTC with milliseconds.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

type Expense struct {
	ID             string
	AmountMinor    int64
	Category       string
	Description    string
	Date           string
	CreatedAt      time.Time
	IdempotencyKey *string
}

// Amount is the decimal major-unit value.
func (e *Expense) Amount() float64 {
	return money.ToMajorUnits(e.AmountMinor)
}

func (e *Expense) ToResponse() ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		Amount:      e.Amount(),
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date,
		CreatedAt:   e.CreatedAt.UTC().Format(CreatedAtLayout),
	}
}

// ToResponseSlice never returns nil so an empty result encodes as [].
func ToResponseSlice(expenses []*Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = e.ToResponse()
	}
	return out
}

// NewExpense truncates created_at to milliseconds, the coarsest precision
// any store keeps.
func NewExpense(id string, dto CreateExpenseDTO, idempotencyKey string, now time.Time) *Expense {
	e := &Expense{
		ID:          id,
		AmountMinor: money.ToMinorUnits(dto.Amount),
		Category:    strings.TrimSpace(dto.Category),
		Description: strings.TrimSpace(dto.Description),
		Date:        dto.Date,
		CreatedAt:   now.UTC().Truncate(time.Millisecond),
	}
	if idempotencyKey != "" {
		key := idempotencyKey
		e.IdempotencyKey = &key
	}
	return e
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:             e.ID,
		Amount:         e.AmountMinor,
		Category:       e.Category,
		Description:    e.Description,
		Date:           e.Date,
		CreatedAt:      e.CreatedAt,
		IdempotencyKey: e.IdempotencyKey,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Expense {
	return &Expense{
		ID:             e.ID,
		AmountMinor:    e.Amount,
		Category:       e.Category,
		Description:    e.Description,
		Date:           e.Date,
		CreatedAt:      e.CreatedAt.UTC(),
		IdempotencyKey: e.IdempotencyKey,
	}
}

func FromDataModelSlice(expenses []*expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(expenses))
	for i, e := range expenses {
		result[i] = FromDataModel(e)
	}
	return result
}
