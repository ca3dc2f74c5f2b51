package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// sampleTransactions are the development fixtures inserted by Seed.
var sampleTransactions = []struct {
	typ         core.TxType
	cents       int64
	category    string
	description string
}{
	{core.Income, 500000, "Salary", "Monthly salary"},
	{core.Income, 100000, "Freelance", "Freelance project payment"},
	{core.Expense, 150000, "Rent", "Monthly rent payment"},
	{core.Expense, 30000, "Food", "Grocery shopping"},
	{core.Expense, 10000, "Transportation", "Bus tickets"},
	{core.Expense, 20000, "Entertainment", "Movie tickets and dinner"},
}

// Seed inserts sample transactions for development deployments. It is a
// no-op when the table already holds data.
func (r *Repository) Seed(ctx context.Context) error {
	count, err := r.CountTransactions(ctx)
	if err != nil {
		return fmt.Errorf("count transactions: %w", err)
	}
	if count > 0 {
		logStorage(ctx).InfoContext(ctx, "Skipping seed, transactions already present", "count", count)
		return nil
	}

	now := time.Now().UTC().Truncate(time.Second)
	for _, s := range sampleTransactions {
		tx := core.Transaction{
			ID:          uuid.NewString(),
			Type:        s.typ,
			Amount:      core.Money{Cents: s.cents},
			Category:    s.category,
			Date:        now,
			Description: s.description,
		}
		if err := r.Insert(ctx, tx); err != nil {
			return fmt.Errorf("seed transaction %q: %w", s.description, err)
		}
	}

	logStorage(ctx).InfoContext(ctx, "Seeded sample transactions", "count", len(sampleTransactions))
	return nil
}
