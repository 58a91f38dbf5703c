package expense

import (
	"context"
	"net/http"
	"strings"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

type ServiceAPI interface {
	CreateExpense(ctx context.Context, dto CreateExpenseDTO, idempotencyKey string) (*Expense, bool, error)
	ListExpenses(ctx context.Context, query ListExpensesQuery) ([]*Expense, error)
	Summarize(ctx context.Context, query ListExpensesQuery) (*Summary, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// CreateExpense answers 201 for a new expense and 200 when the
// Idempotency-Key matched an existing one; the body is the same shape.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context())

	var req CreateExpenseRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		log.Warn("CreateExpense: invalid request body", "error", err)
		h.WriteAppError(w, internal.ErrInvalidBody)
		return
	}

	dto, msgs := req.ToDTO()
	if len(msgs) > 0 {
		log.Info("CreateExpense: validation failed", "errors", msgs)
		h.WriteAppError(w, internal.NewValidationFailed(msgs))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	r = r.WithContext(logger.With(r.Context(), "idempotent", key != ""))
	log = logger.From(r.Context())

	expense, created, err := h.Service.CreateExpense(r.Context(), dto, key)
	if err != nil {
		log.Error("CreateExpense: service error", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}

	log.Info("CreateExpense: done",
		"expense_id", expense.ID,
		"created", created,
		"amount_minor", expense.AmountMinor)

	h.WriteJSON(w, status, expense.ToResponse())
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	query := ParseListQuery(r.URL.Query())

	expenses, err := h.Service.ListExpenses(r.Context(), query)
	if err != nil {
		logger.From(r.Context()).Error("ListExpenses: service error", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponseSlice(expenses))
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	query := ParseListQuery(r.URL.Query())

	summary, err := h.Service.Summarize(r.Context(), query)
	if err != nil {
		logger.From(r.Context()).Error("GetSummary: service error", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary.ToResponse())
}
