package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the store with sample expenses",
	Long: `Seed the configured store with sample expenses for development and testing.
Each sample carries a fixed idempotency key, so running the command again adds nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close(ctx)

		created, err := seedExpenses(ctx, deps.Expenses)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d of %d sample expenses\n", created, len(sampleExpenses))
		return nil
	},
}

type sampleExpense struct {
	key string
	dto expense.CreateExpenseDTO
}

var sampleExpenses = []sampleExpense{
	{"seed-0001", expense.CreateExpenseDTO{Amount: 12.50, Category: "Food", Description: "Lunch at the canteen", Date: "2025-01-06"}},
	{"seed-0002", expense.CreateExpenseDTO{Amount: 45.00, Category: "Transport", Description: "Monthly metro pass top-up", Date: "2025-01-07"}},
	{"seed-0003", expense.CreateExpenseDTO{Amount: 8.99, Category: "Entertainment", Description: "Movie rental", Date: "2025-01-09"}},
	{"seed-0004", expense.CreateExpenseDTO{Amount: 120.00, Category: "Bills", Description: "Electricity bill", Date: "2025-01-10"}},
	{"seed-0005", expense.CreateExpenseDTO{Amount: 64.30, Category: "Shopping", Description: "Groceries", Date: "2025-01-11"}},
	{"seed-0006", expense.CreateExpenseDTO{Amount: 25.00, Category: "Health", Description: "Pharmacy", Date: "2025-01-13"}},
	{"seed-0007", expense.CreateExpenseDTO{Amount: 39.90, Category: "Education", Description: "Online course", Date: "2025-01-14"}},
	{"seed-0008", expense.CreateExpenseDTO{Amount: 3.75, Category: "Food", Description: "Coffee", Date: "2025-01-15"}},
}

// seedExpenses creates every sample through the service and reports how many
// were new.
func seedExpenses(ctx context.Context, service *expense.Service) (int, error) {
	created := 0
	for _, s := range sampleExpenses {
		_, wasCreated, err := service.CreateExpense(ctx, s.dto, s.key)
		if err != nil {
			return created, fmt.Errorf("failed to seed %s: %w", s.key, err)
		}
		if wasCreated {
			created++
		}
	}
	return created, nil
}
