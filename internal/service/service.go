// Package service orchestrates transaction use cases across SQLite and AMQP.
package service

import (
	"context"
	"fmt"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// DeleteConfirmation is returned by Delete on success.
const DeleteConfirmation = "Transaction deleted successfully"

// EventPublisher emits transaction lifecycle events after a successful write.
// *amqp.Client satisfies it; a nil publisher disables eventing.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// Service orchestrates transaction operations: validation, storage and
// best-effort event publishing. Publishing failures are logged, never
// surfaced to the caller - the local write is the source of truth.
type Service struct {
	repo      *storage.Repository
	publisher EventPublisher
}

func NewService(repo *storage.Repository, publisher EventPublisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
	}
}

// Create validates the input, stores the normalized transaction and publishes
// a created event.
func (s *Service) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	tx, err := core.ValidateTransaction(in)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.repo.Insert(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	s.publishEvent(ctx, amqp.ActionCreated, tx)
	return tx, nil
}

// List validates the filter and returns matching transactions, newest first.
// An empty result is an empty slice, not an error.
func (s *Service) List(ctx context.Context, in core.FilterInput) ([]core.Transaction, error) {
	f, err := core.ValidateFilter(in)
	if err != nil {
		return nil, err
	}

	query, params := storage.BuildListQuery(f)
	return s.repo.List(ctx, query, params)
}

// Summarize aggregates totals over the date range of the filter. Type and
// category narrow listings only, never the summary.
func (s *Service) Summarize(ctx context.Context, in core.FilterInput) (core.Summary, error) {
	f, err := core.ValidateFilter(in)
	if err != nil {
		return core.Summary{}, err
	}

	query, params := storage.BuildSummaryQuery(f)
	incomeCents, expenseCents, err := s.repo.Aggregate(ctx, query, params)
	if err != nil {
		return core.Summary{}, err
	}

	return core.Summary{
		TotalIncome:  core.Money{Cents: incomeCents},
		TotalExpense: core.Money{Cents: expenseCents},
		NetBalance:   core.Money{Cents: incomeCents - expenseCents},
	}, nil
}

// Get returns a single transaction by ID.
func (s *Service) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

// Update validates the input with the ID forced to the path ID, replaces the
// stored record and publishes an updated event. Validation runs before any
// storage access.
func (s *Service) Update(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	in.ID = id
	tx, err := core.ValidateTransaction(in)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.repo.Update(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	s.publishEvent(ctx, amqp.ActionUpdated, tx)
	return tx, nil
}

// Delete removes a transaction and publishes a deleted event. The returned
// message confirms the deletion.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return "", err
	}

	s.publishEvent(ctx, amqp.ActionDeleted, tx)
	return DeleteConfirmation, nil
}

func (s *Service) publishEvent(ctx context.Context, action string, tx core.Transaction) {
	if s.publisher == nil {
		applog.FromContext(ctx).WarnContext(ctx, "AMQP publisher not available, skipping transaction event",
			applog.FieldAction, action, applog.FieldTransactionID, tx.ID)
		return
	}

	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(action, tx)); err != nil {
		// Don't fail the request - the transaction is saved locally.
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to publish transaction event",
			applog.FieldAction, action, applog.FieldTransactionID, tx.ID, applog.FieldError, err)
	}
}

// Ready reports whether the backing store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Close closes the underlying storage.
func (s *Service) Close() error {
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			return fmt.Errorf("close service: %w", err)
		}
	}
	return nil
}
