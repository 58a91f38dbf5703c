package notify

import (
	"encoding/json"
	"time"

	"github.com/frahmantamala/expense-tracker/internal/core/events"
)

// ExpenseCreatedMessage is the wire form of an expense.created event.
type ExpenseCreatedMessage struct {
	EventID     string    `json:"event_id"`
	ExpenseID   string    `json:"expense_id"`
	AmountMinor int64     `json:"amount_minor"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseCreatedMessage(event *events.ExpenseCreatedEvent) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		EventID:     event.EventID(),
		ExpenseID:   event.ExpenseID,
		AmountMinor: event.AmountMinor,
		Category:    event.Category,
		Date:        event.Date,
		CreatedAt:   event.CreatedAt,
		Timestamp:   event.OccurredAt(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
