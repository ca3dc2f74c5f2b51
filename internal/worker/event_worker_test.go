package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/storage"
)

func newTestWorker(t *testing.T) (*EventWorker, *storage.Repository) {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return NewEventWorker(repo), repo
}

func TestEventWorker_HandleEvent(t *testing.T) {
	w, repo := newTestWorker(t)
	ctx := context.Background()

	events := []*amqp.TransactionEvent{
		{
			Action:        amqp.ActionCreated,
			TransactionID: "0b9c1f64-7a3d-4f2e-9c8b-5a4d3e2f1a0b",
			Type:          "income",
			AmountCents:   500000,
			OccurredAt:    time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		},
		{
			Action:        amqp.ActionDeleted,
			TransactionID: "0b9c1f64-7a3d-4f2e-9c8b-5a4d3e2f1a0b",
			Type:          "income",
			AmountCents:   500000,
			OccurredAt:    time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, ev := range events {
		if err := w.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("HandleEvent(%s) failed: %v", ev.Action, err)
		}
	}

	count, err := repo.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents failed: %v", err)
	}
	if count != 2 {
		t.Errorf("CountEvents = %d, want 2", count)
	}
}

func TestEventWorker_HandleEventRejectsUnknownAction(t *testing.T) {
	w, _ := newTestWorker(t)

	err := w.HandleEvent(context.Background(), &amqp.TransactionEvent{
		Action:        "renamed",
		TransactionID: "0b9c1f64-7a3d-4f2e-9c8b-5a4d3e2f1a0b",
		Type:          "income",
		AmountCents:   100,
		OccurredAt:    time.Now().UTC(),
	})
	if err == nil {
		t.Error("HandleEvent accepted an action outside the audit schema")
	}
}
