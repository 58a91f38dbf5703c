package expense_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/expense/memory"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

// failingRepository fails every call with err.
type failingRepository struct {
	err error
}

func (r *failingRepository) Create(context.Context, *expenseDatamodel.Expense) error {
	return r.err
}

func (r *failingRepository) GetByIdempotencyKey(context.Context, string) (*expenseDatamodel.Expense, error) {
	return nil, r.err
}

func (r *failingRepository) List(context.Context, expense.ListExpensesQuery) ([]*expenseDatamodel.Expense, error) {
	return nil, r.err
}

// racingRepository simulates another process committing the key between
// the service's lookup and its insert.
type racingRepository struct {
	winner  *expenseDatamodel.Expense
	lookups int
}

func (r *racingRepository) Create(context.Context, *expenseDatamodel.Expense) error {
	return expense.ErrIdempotencyConflict
}

func (r *racingRepository) GetByIdempotencyKey(context.Context, string) (*expenseDatamodel.Expense, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, expense.ErrExpenseNotFound
	}
	return r.winner, nil
}

func (r *racingRepository) List(context.Context, expense.ListExpensesQuery) ([]*expenseDatamodel.Expense, error) {
	return []*expenseDatamodel.Expense{r.winner}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// stepClock advances one second per call so insertion order is observable.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func dto(amount float64, category, date string) expense.CreateExpenseDTO {
	return expense.CreateExpenseDTO{
		Amount:      amount,
		Category:    category,
		Description: category + " expense",
		Date:        date,
	}
}

var _ = Describe("ExpenseService", func() {
	var (
		repo    *memory.ExpenseRepository
		service *expense.Service
		ctx     context.Context
		start   time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		start = time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)
		repo = memory.NewExpenseRepository()
		service = expense.NewService(repo, logger.Discard(), expense.WithClock(stepClock(start)))
	})

	Describe("CreateExpense", func() {
		It("should store the amount in minor units", func() {
			created, wasCreated, err := service.CreateExpense(ctx, dto(150.5, " Food ", "2025-01-15"), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(wasCreated).To(BeTrue())
			Expect(created.ID).NotTo(BeEmpty())
			Expect(created.AmountMinor).To(Equal(int64(15050)))
			Expect(created.Amount()).To(Equal(150.5))
			Expect(created.Category).To(Equal("Food"))
			Expect(created.IdempotencyKey).To(BeNil())
		})

		It("should create a new record for every call without a key", func() {
			first, _, err := service.CreateExpense(ctx, dto(10, "Food", "2025-01-15"), "")
			Expect(err).NotTo(HaveOccurred())
			second, wasCreated, err := service.CreateExpense(ctx, dto(10, "Food", "2025-01-15"), "")
			Expect(err).NotTo(HaveOccurred())

			Expect(wasCreated).To(BeTrue())
			Expect(second.ID).NotTo(Equal(first.ID))
		})

		It("should return the original record when a key is reused", func() {
			first, wasCreated, err := service.CreateExpense(ctx, dto(25, "Food", "2025-01-15"), "retry-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(wasCreated).To(BeTrue())

			second, wasCreated, err := service.CreateExpense(ctx, dto(25, "Food", "2025-01-15"), "retry-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(wasCreated).To(BeFalse())
			Expect(second.ID).To(Equal(first.ID))
			Expect(second.CreatedAt).To(Equal(first.CreatedAt))

			all, err := service.ListExpenses(ctx, expense.ListExpensesQuery{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("should ignore a different payload sent with a reused key", func() {
			first, _, err := service.CreateExpense(ctx, dto(25, "Food", "2025-01-15"), "retry-2")
			Expect(err).NotTo(HaveOccurred())

			second, wasCreated, err := service.CreateExpense(ctx, dto(99, "Bills", "2025-01-16"), "retry-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(wasCreated).To(BeFalse())
			Expect(second.ID).To(Equal(first.ID))
			Expect(second.AmountMinor).To(Equal(int64(2500)))
			Expect(second.Category).To(Equal("Food"))
		})

		It("should store exactly one record for concurrent calls with one key", func() {
			const callers = 50
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				ids     = make(map[string]struct{})
				created int
			)

			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					e, wasCreated, err := service.CreateExpense(ctx, dto(12.34, "Food", "2025-01-15"), "concurrent")
					Expect(err).NotTo(HaveOccurred())
					mu.Lock()
					ids[e.ID] = struct{}{}
					if wasCreated {
						created++
					}
					mu.Unlock()
				}()
			}
			wg.Wait()

			Expect(ids).To(HaveLen(1))
			Expect(created).To(Equal(1))

			all, err := service.ListExpenses(ctx, expense.ListExpensesQuery{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("should keep one record when separate service instances share a store", func() {
			other := expense.NewService(repo, logger.Discard())
			var wg sync.WaitGroup
			results := make([]string, 20)

			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					defer GinkgoRecover()
					svc := service
					if i%2 == 1 {
						svc = other
					}
					e, _, err := svc.CreateExpense(ctx, dto(5, "Transport", "2025-01-15"), "shared-store")
					Expect(err).NotTo(HaveOccurred())
					results[i] = e.ID
				}(i)
			}
			wg.Wait()

			for _, id := range results {
				Expect(id).To(Equal(results[0]))
			}
			all, err := repo.List(ctx, expense.ListExpensesQuery{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("should resolve a lost insert race to the winning record", func() {
			key := "raced"
			winner := &expenseDatamodel.Expense{
				ID:             "winner-id",
				Amount:         700,
				Category:       "Food",
				Description:    "first",
				Date:           "2025-01-15",
				CreatedAt:      start,
				IdempotencyKey: &key,
			}
			racing := &racingRepository{winner: winner}
			svc := expense.NewService(racing, logger.Discard())

			e, wasCreated, err := svc.CreateExpense(ctx, dto(7, "Food", "2025-01-15"), key)
			Expect(err).NotTo(HaveOccurred())
			Expect(wasCreated).To(BeFalse())
			Expect(e.ID).To(Equal("winner-id"))
			Expect(racing.lookups).To(Equal(2))
		})

		It("should surface storage failures as StorageFault", func() {
			svc := expense.NewService(&failingRepository{err: errors.New("disk full")}, logger.Discard())

			_, _, err := svc.CreateExpense(ctx, dto(1, "Food", "2025-01-15"), "")
			Expect(err).To(HaveOccurred())
			Expect(expense.IsStorageFault(err)).To(BeTrue())

			_, _, err = svc.CreateExpense(ctx, dto(1, "Food", "2025-01-15"), "with-key")
			Expect(expense.IsStorageFault(err)).To(BeTrue())
		})

		It("should publish an event only for new records", func() {
			publisher := &recordingPublisher{}
			svc := expense.NewService(repo, logger.Discard(),
				expense.WithEventPublisher(publisher),
				expense.WithIDGenerator(func() string { return "fixed-id" }))

			_, _, err := svc.CreateExpense(ctx, dto(3.5, "Health", "2025-01-15"), "evt")
			Expect(err).NotTo(HaveOccurred())
			_, _, err = svc.CreateExpense(ctx, dto(3.5, "Health", "2025-01-15"), "evt")
			Expect(err).NotTo(HaveOccurred())

			Expect(publisher.events).To(HaveLen(1))
			evt, ok := publisher.events[0].(*events.ExpenseCreatedEvent)
			Expect(ok).To(BeTrue())
			Expect(evt.EventType()).To(Equal(events.EventTypeExpenseCreated))
			Expect(evt.ExpenseID).To(Equal("fixed-id"))
			Expect(evt.AmountMinor).To(Equal(int64(350)))
		})
	})

	Describe("ListExpenses", func() {
		var ids func([]*expense.Expense) []string

		BeforeEach(func() {
			ids = func(list []*expense.Expense) []string {
				out := make([]string, len(list))
				for i, e := range list {
					out[i] = e.Description
				}
				return out
			}
		})

		It("should list newest first for a burst of creates on the real clock", func() {
			realClock := expense.NewService(memory.NewExpenseRepository(), logger.Discard())
			for i := 0; i < 20; i++ {
				d := dto(1, "Food", "2025-02-01")
				d.Description = fmt.Sprintf("%d", i)
				_, _, err := realClock.CreateExpense(ctx, d, "")
				Expect(err).NotTo(HaveOccurred())
			}

			list, err := realClock.ListExpenses(ctx, expense.ListExpensesQuery{})
			Expect(err).NotTo(HaveOccurred())

			want := make([]string, 20)
			for i := range want {
				want[i] = fmt.Sprintf("%d", 19-i)
			}
			Expect(ids(list)).To(Equal(want))
			for i := 1; i < len(list); i++ {
				Expect(list[i-1].CreatedAt.After(list[i].CreatedAt)).To(BeTrue())
			}
		})

		It("should keep created_at increasing when the wall clock steps back", func() {
			var mu sync.Mutex
			ticks := []time.Time{start, start, start.Add(-time.Hour)}
			backwards := expense.NewService(memory.NewExpenseRepository(), logger.Discard(),
				expense.WithClock(func() time.Time {
					mu.Lock()
					defer mu.Unlock()
					t := ticks[0]
					if len(ticks) > 1 {
						ticks = ticks[1:]
					}
					return t
				}))

			var stamps []time.Time
			for i := 0; i < 3; i++ {
				e, _, err := backwards.CreateExpense(ctx, dto(1, "Food", "2025-02-01"), "")
				Expect(err).NotTo(HaveOccurred())
				stamps = append(stamps, e.CreatedAt)
			}

			Expect(stamps[0]).To(Equal(start.UTC()))
			Expect(stamps[1]).To(Equal(start.UTC().Add(time.Millisecond)))
			Expect(stamps[2]).To(Equal(start.UTC().Add(2 * time.Millisecond)))
		})

		It("should filter case-insensitively and order by date for date_desc", func() {
			for i, in := range []struct{ category, date string }{
				{"Food", "2025-02-01"},
				{"Transport", "2025-02-03"},
				{"Food", "2025-02-02"},
			} {
				d := dto(10, in.category, in.date)
				d.Description = fmt.Sprintf("%d", i)
				_, _, err := service.CreateExpense(ctx, d, "")
				Expect(err).NotTo(HaveOccurred())
			}

			list, err := service.ListExpenses(ctx, expense.ListExpensesQuery{Category: "food", Sort: expense.SortDateDesc})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].Date).To(Equal("2025-02-02"))
			Expect(list[1].Date).To(Equal("2025-02-01"))
		})

		It("should order by insertion time by default regardless of date", func() {
			for i, date := range []string{"2025-03-01", "2024-12-31", "2025-01-15"} {
				d := dto(10, "Food", date)
				d.Description = fmt.Sprintf("%d", i)
				_, _, err := service.CreateExpense(ctx, d, "")
				Expect(err).NotTo(HaveOccurred())
			}

			list, err := service.ListExpenses(ctx, expense.ListExpensesQuery{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(list)).To(Equal([]string{"2", "1", "0"}))
		})

		It("should break same-day ties by newest created first", func() {
			for i := 0; i < 3; i++ {
				d := dto(10, "Food", "2025-01-15")
				d.Description = fmt.Sprintf("%d", i)
				_, _, err := service.CreateExpense(ctx, d, "")
				Expect(err).NotTo(HaveOccurred())
			}

			list, err := service.ListExpenses(ctx, expense.ListExpensesQuery{Sort: expense.SortDateDesc})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(list)).To(Equal([]string{"2", "1", "0"}))
		})

		It("should return an empty list for an unknown category", func() {
			_, _, err := service.CreateExpense(ctx, dto(10, "Food", "2025-01-15"), "")
			Expect(err).NotTo(HaveOccurred())

			list, err := service.ListExpenses(ctx, expense.ListExpensesQuery{Category: "Nonexistent"})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).NotTo(BeNil())
			Expect(list).To(BeEmpty())
		})

		It("should surface storage failures as StorageFault", func() {
			svc := expense.NewService(&failingRepository{err: errors.New("connection lost")}, logger.Discard())
			_, err := svc.ListExpenses(ctx, expense.ListExpensesQuery{})
			Expect(expense.IsStorageFault(err)).To(BeTrue())
		})
	})

	Describe("Summarize", func() {
		It("should total matching expenses per category", func() {
			for _, d := range []expense.CreateExpenseDTO{
				dto(10.10, "Food", "2025-01-01"),
				dto(0.20, "food", "2025-01-02"),
				dto(5, "Bills", "2025-01-03"),
			} {
				_, _, err := service.CreateExpense(ctx, d, "")
				Expect(err).NotTo(HaveOccurred())
			}

			summary, err := service.Summarize(ctx, expense.ListExpensesQuery{})
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.TotalMinor).To(Equal(int64(1530)))
			Expect(summary.Count).To(Equal(3))
			Expect(summary.Categories).To(HaveLen(2))
			Expect(summary.Categories[0].TotalMinor).To(Equal(int64(1030)))
			Expect(summary.Categories[0].Count).To(Equal(2))
			Expect(summary.Categories[1].Category).To(Equal("Bills"))
		})
	})
})
