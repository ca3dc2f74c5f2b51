// Package worker consumes transaction events and records them in the audit
// trail.
package worker

import (
	"context"
	"fmt"

	"ledger/internal/amqp"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// EventWorker turns transaction lifecycle events into audit rows.
type EventWorker struct {
	repo *storage.Repository
}

func NewEventWorker(repo *storage.Repository) *EventWorker {
	return &EventWorker{repo: repo}
}

// HandleEvent records a single transaction event. Returning an error requeues
// the delivery.
func (w *EventWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	applog.FromContext(ctx).WithComponent(applog.ComponentWorker).InfoContext(ctx, "Processing transaction event",
		applog.FieldAction, ev.Action,
		applog.FieldTransactionID, ev.TransactionID)

	err := w.repo.RecordEvent(ctx, storage.Event{
		Action:        ev.Action,
		TransactionID: ev.TransactionID,
		Type:          ev.Type,
		AmountCents:   ev.AmountCents,
		OccurredAt:    ev.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}

	return nil
}

// Run consumes events until ctx is canceled, reconnecting to the broker as
// needed.
func (w *EventWorker) Run(ctx context.Context, url, exchangeName, queueName string) error {
	return amqp.ConsumeWithReconnect(ctx, url, exchangeName, queueName, func(ev *amqp.TransactionEvent) error {
		return w.HandleEvent(ctx, ev)
	})
}
