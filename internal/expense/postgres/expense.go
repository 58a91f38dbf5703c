package postgres

import (
	"context"
	"errors"

	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// ExpenseRepository implements expense.RepositoryAPI using GORM. It serves
// both the postgres and sqlite dialects; the unique index on idempotency_key
// is what makes concurrent creates with one key safe across processes.
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository. The gorm.DB should
// be opened with TranslateError so duplicate keys surface as
// gorm.ErrDuplicatedKey on every dialect.
func NewExpenseRepository(db *gorm.DB) expense.RepositoryAPI {
	return &ExpenseRepository{db: db}
}

// Create inserts a new row in its own statement.
func (r *ExpenseRepository) Create(ctx context.Context, exp *expenseDatamodel.Expense) error {
	err := r.db.WithContext(ctx).Create(exp).Error
	if err != nil && exp.IdempotencyKey != nil && isDuplicateKey(err) {
		return expense.ErrIdempotencyConflict
	}
	return err
}

// GetByIdempotencyKey retrieves the expense stored under key
func (r *ExpenseRepository) GetByIdempotencyKey(ctx context.Context, key string) (*expenseDatamodel.Expense, error) {
	var exp expenseDatamodel.Expense
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&exp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expense.ErrExpenseNotFound
		}
		return nil, err
	}
	return &exp, nil
}

// List returns every expense matching query, ordered per query.Sort.
func (r *ExpenseRepository) List(ctx context.Context, query expense.ListExpensesQuery) ([]*expenseDatamodel.Expense, error) {
	expenses := make([]*expenseDatamodel.Expense, 0)

	tx := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{})
	if query.Category != "" {
		tx = tx.Where("LOWER(category) = LOWER(?)", query.Category)
	}

	switch query.Sort {
	case expense.SortDateDesc:
		tx = tx.Order("date DESC").Order("created_at DESC").Order("id DESC")
	default:
		tx = tx.Order("created_at DESC").Order("id DESC")
	}

	if err := tx.Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
