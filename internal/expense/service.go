package expense

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// RepositoryAPI is the storage contract. Implementations must enforce the
// uniqueness of IdempotencyKey themselves and report a lost insert race as
// ErrIdempotencyConflict.
type RepositoryAPI interface {
	Create(ctx context.Context, e *expenseDatamodel.Expense) error
	GetByIdempotencyKey(ctx context.Context, key string) (*expenseDatamodel.Expense, error)
	List(ctx context.Context, query ListExpensesQuery) ([]*expenseDatamodel.Expense, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service owns expense creation and retrieval.
type Service struct {
	repo      RepositoryAPI
	publisher EventPublisher
	logger    *slog.Logger
	inflight  singleflight.Group
	now       func() time.Time
	newID     func() string

	clockMu     sync.Mutex
	lastCreated time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// NewService creates a new expense service
func NewService(repo RepositoryAPI, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const idempotentCreateTimeout = 10 * time.Second

type createResult struct {
	expense *Expense
	created bool
}

// CreateExpense stores a validated expense. With a non-empty idempotencyKey
// the call is exactly-once: a key seen before returns the stored expense and
// created=false. Concurrent calls with one key are collapsed in-process; the
// repository's unique constraint covers everything else.
func (s *Service) CreateExpense(ctx context.Context, dto CreateExpenseDTO, idempotencyKey string) (*Expense, bool, error) {
	if idempotencyKey == "" {
		res, err := s.insert(ctx, dto, "")
		if err != nil {
			return nil, false, err
		}
		return res.expense, true, nil
	}

	executed := false
	v, err, shared := s.inflight.Do(idempotencyKey, func() (interface{}, error) {
		executed = true
		// followers share this result, so one caller's cancellation must not fail them
		detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), idempotentCreateTimeout)
		defer cancel()
		return s.createIdempotent(detached, dto, idempotencyKey)
	})
	if err != nil {
		return nil, false, err
	}

	res := v.(createResult)
	if shared && !executed {
		s.logger.Debug("idempotent create joined in-flight request", "idempotency_key", idempotencyKey, "expense_id", res.expense.ID)
	}
	return res.expense, res.created && executed, nil
}

func (s *Service) createIdempotent(ctx context.Context, dto CreateExpenseDTO, key string) (createResult, error) {
	existing, err := s.findByKey(ctx, key)
	if err != nil {
		return createResult{}, err
	}
	if existing != nil {
		s.logger.Info("expense matched by idempotency key", "expense_id", existing.ID, "idempotency_key", key)
		return createResult{expense: existing}, nil
	}

	res, err := s.insert(ctx, dto, key)
	if errors.Is(err, ErrIdempotencyConflict) {
		// another writer committed the key between our lookup and insert
		winner, err := s.findByKey(ctx, key)
		if err != nil {
			return createResult{}, err
		}
		if winner == nil {
			return createResult{}, &StorageFault{Op: "resolve idempotency conflict", Err: ErrExpenseNotFound}
		}
		s.logger.Info("idempotency conflict resolved to existing expense", "expense_id", winner.ID, "idempotency_key", key)
		return createResult{expense: winner}, nil
	}
	return res, err
}

func (s *Service) findByKey(ctx context.Context, key string) (*Expense, error) {
	row, err := s.repo.GetByIdempotencyKey(ctx, key)
	switch {
	case err == nil:
		return FromDataModel(row), nil
	case errors.Is(err, ErrExpenseNotFound):
		return nil, nil
	default:
		s.logger.Error("failed to look up idempotency key", "error", err, "idempotency_key", key)
		return nil, asStorageFault("get by idempotency key", err)
	}
}

func (s *Service) insert(ctx context.Context, dto CreateExpenseDTO, key string) (createResult, error) {
	e := NewExpense(s.newID(), dto, key, s.nextCreatedAt())

	if err := s.repo.Create(ctx, ToDataModel(e)); err != nil {
		if errors.Is(err, ErrIdempotencyConflict) {
			return createResult{}, err
		}
		s.logger.Error("failed to create expense", "error", err, "category", e.Category)
		return createResult{}, asStorageFault("create expense", err)
	}

	s.logger.Info("expense created successfully",
		"expense_id", e.ID,
		"amount_minor", e.AmountMinor,
		"category", e.Category,
		"date", e.Date)

	s.publishCreated(ctx, e)
	return createResult{expense: e, created: true}, nil
}

// nextCreatedAt hands out strictly increasing millisecond timestamps, so
// created_at order is insertion order even within one millisecond or across
// a wall-clock step backwards.
func (s *Service) nextCreatedAt() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	now := s.now().UTC().Truncate(time.Millisecond)
	if floor := s.lastCreated.Add(time.Millisecond); !s.lastCreated.IsZero() && now.Before(floor) {
		now = floor
	}
	s.lastCreated = now
	return now
}

func (s *Service) publishCreated(ctx context.Context, e *Expense) {
	if s.publisher == nil {
		return
	}
	event := events.NewExpenseCreatedEvent(e.ID, e.AmountMinor, e.Category, e.Date, e.CreatedAt)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish expense created event", "error", err, "expense_id", e.ID)
	}
}

// ListExpenses filters by category (case-insensitive) and orders by
// created_at DESC, or by date DESC then created_at DESC for SortDateDesc.
func (s *Service) ListExpenses(ctx context.Context, query ListExpensesQuery) ([]*Expense, error) {
	rows, err := s.repo.List(ctx, query)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err, "category", query.Category, "sort", query.Sort)
		return nil, asStorageFault("list expenses", err)
	}
	return FromDataModelSlice(rows), nil
}

// Summarize totals the expenses matching query per category.
func (s *Service) Summarize(ctx context.Context, query ListExpensesQuery) (*Summary, error) {
	expenses, err := s.ListExpenses(ctx, query)
	if err != nil {
		return nil, err
	}
	return Summarize(expenses), nil
}

func asStorageFault(op string, err error) error {
	var sf *StorageFault
	if errors.As(err, &sf) {
		return err
	}
	return &StorageFault{Op: op, Err: err}
}
