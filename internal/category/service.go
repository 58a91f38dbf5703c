package category

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-tracker/internal/expense"
)

// ExpenseLister is the read side of the expense service.
type ExpenseLister interface {
	ListExpenses(ctx context.Context, query expense.ListExpensesQuery) ([]*expense.Expense, error)
}

type Service struct {
	palette  []string
	expenses ExpenseLister
	logger   *slog.Logger
}

func NewService(palette []string, expenses ExpenseLister, logger *slog.Logger) *Service {
	return &Service{
		palette:  append([]string(nil), palette...),
		expenses: expenses,
		logger:   logger,
	}
}

func (s *Service) GetAllCategories(ctx context.Context) ([]CategoryResponse, error) {
	stored, err := s.expenses.ListExpenses(ctx, expense.ListExpensesQuery{})
	if err != nil {
		s.logger.Error("failed to load stored categories", "error", err)
		return nil, err
	}

	names := make([]string, len(stored))
	for i, e := range stored {
		names[i] = e.Category
	}

	categories := Merge(s.palette, names)
	responses := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		responses[i] = c.ToResponse()
	}

	s.logger.Debug("retrieved categories", "count", len(responses))
	return responses, nil
}
