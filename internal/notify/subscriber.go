package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
)

type Publisher interface {
	PublishExpenseCreated(ctx context.Context, msg *ExpenseCreatedMessage) error
}

// Register subscribes the audit log and, when publisher is non-nil, the
// AMQP forwarder to expense.created.
func Register(bus *events.EventBus, logger *slog.Logger, publisher Publisher) {
	bus.Subscribe(events.EventTypeExpenseCreated, AuditHandler(logger))
	if publisher != nil {
		bus.Subscribe(events.EventTypeExpenseCreated, ForwardHandler(publisher))
	}
}

func AuditHandler(logger *slog.Logger) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		created, err := asExpenseCreated(event)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "audit: expense created",
			"event_id", created.EventID(),
			"expense_id", created.ExpenseID,
			"amount", money.Format(created.AmountMinor),
			"category", created.Category,
			"date", created.Date)
		return nil
	}
}

func ForwardHandler(publisher Publisher) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		created, err := asExpenseCreated(event)
		if err != nil {
			return err
		}
		return publisher.PublishExpenseCreated(ctx, NewExpenseCreatedMessage(created))
	}
}

// AuditMessage logs a message read back from the queue.
func AuditMessage(logger *slog.Logger) func(context.Context, *ExpenseCreatedMessage) error {
	return func(ctx context.Context, msg *ExpenseCreatedMessage) error {
		logger.InfoContext(ctx, "audit: expense created message",
			"event_id", msg.EventID,
			"expense_id", msg.ExpenseID,
			"amount", money.Format(msg.AmountMinor),
			"category", msg.Category,
			"date", msg.Date)
		return nil
	}
}

func asExpenseCreated(event events.Event) (*events.ExpenseCreatedEvent, error) {
	created, ok := event.(*events.ExpenseCreatedEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected event %T for %s", event, event.EventType())
	}
	return created, nil
}
