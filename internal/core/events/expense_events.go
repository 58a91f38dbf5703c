package events

import (
	"time"

	"github.com/google/uuid"
)

const EventTypeExpenseCreated = "expense.created"

// ExpenseCreatedEvent is published once per newly stored expense, never for
// an idempotent replay.
type ExpenseCreatedEvent struct {
	BaseEvent
	ExpenseID   string    `json:"expense_id"`
	AmountMinor int64     `json:"amount_minor"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewExpenseCreatedEvent(expenseID string, amountMinor int64, category, date string, createdAt time.Time) *ExpenseCreatedEvent {
	return &ExpenseCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeExpenseCreated,
			Timestamp: time.Now().UTC(),
		},
		ExpenseID:   expenseID,
		AmountMinor: amountMinor,
		Category:    category,
		Date:        date,
		CreatedAt:   createdAt,
	}
}
