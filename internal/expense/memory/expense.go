// Package memory keeps expenses in process memory. It is the default store
// for local runs and tests; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/expense"
)

type ExpenseRepository struct {
	mu       sync.RWMutex
	expenses []*expenseDatamodel.Expense
	byKey    map[string]*expenseDatamodel.Expense
}

func NewExpenseRepository() *ExpenseRepository {
	return &ExpenseRepository{
		byKey: make(map[string]*expenseDatamodel.Expense),
	}
}

// Create stores a copy of exp. The key check and the insert happen under one
// lock, so two writers can never both claim a key.
func (r *ExpenseRepository) Create(ctx context.Context, exp *expenseDatamodel.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if exp.IdempotencyKey != nil {
		if _, taken := r.byKey[*exp.IdempotencyKey]; taken {
			return expense.ErrIdempotencyConflict
		}
	}

	stored := clone(exp)
	r.expenses = append(r.expenses, stored)
	if stored.IdempotencyKey != nil {
		r.byKey[*stored.IdempotencyKey] = stored
	}
	return nil
}

func (r *ExpenseRepository) GetByIdempotencyKey(ctx context.Context, key string) (*expenseDatamodel.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byKey[key]
	if !ok {
		return nil, expense.ErrExpenseNotFound
	}
	return clone(stored), nil
}

func (r *ExpenseRepository) List(ctx context.Context, query expense.ListExpensesQuery) ([]*expenseDatamodel.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	result := make([]*expenseDatamodel.Expense, 0, len(r.expenses))
	for _, e := range r.expenses {
		if query.Category != "" && !strings.EqualFold(e.Category, query.Category) {
			continue
		}
		result = append(result, clone(e))
	}
	r.mu.RUnlock()

	sort.SliceStable(result, less(result, query.Sort))
	return result, nil
}

func less(rows []*expenseDatamodel.Expense, mode expense.SortMode) func(i, j int) bool {
	return func(i, j int) bool {
		a, b := rows[i], rows[j]
		if mode == expense.SortDateDesc && a.Date != b.Date {
			return a.Date > b.Date
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}
}

func clone(e *expenseDatamodel.Expense) *expenseDatamodel.Expense {
	c := *e
	if e.IdempotencyKey != nil {
		key := *e.IdempotencyKey
		c.IdempotencyKey = &key
	}
	return &c
}
