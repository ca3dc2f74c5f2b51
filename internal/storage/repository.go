// Package storage persists transactions in SQLite and builds the
// parameterized queries the service layer runs against it.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ledger/internal/core"
	applog "ledger/internal/log"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Repository is the SQLite-backed transaction store. It performs no
// validation of its own; every record it receives has already passed the
// core validation rules, and every query it runs uses bound parameters.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if necessary) the SQLite database at dbPath
// and applies the embedded schema migrations.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database is reachable, for readiness probes.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert stores a new transaction. A primary-key collision is reported as a
// conflict; any other driver failure is classified as a storage error with
// the underlying cause logged, never returned.
func (r *Repository) Insert(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, type, amount_cents, category, date, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, string(tx.Type), tx.Amount.Cents, tx.Category, FormatDate(tx.Date), tx.Description)
	if err != nil {
		if isConstraintViolation(err) {
			return core.NewConflictError("Transaction with this ID already exists")
		}
		logStorage(ctx).ErrorContext(ctx, "Insert transaction failed", "id", tx.ID, applog.FieldError, err)
		return core.NewStorageError("Failed to create transaction")
	}

	logStorage(ctx).InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		applog.FieldTxType, tx.Type,
		applog.FieldAmountCents, tx.Amount.Cents,
		applog.FieldCategory, tx.Category)
	return nil
}

// GetByID returns the transaction with the given id.
func (r *Repository) GetByID(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, type, amount_cents, category, date, description FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.NewNotFoundError("Transaction not found")
		}
		logStorage(ctx).ErrorContext(ctx, "Get transaction failed", "id", id, applog.FieldError, err)
		return core.Transaction{}, core.NewStorageError("Failed to fetch transaction")
	}
	return tx, nil
}

// List runs a query produced by BuildListQuery and returns the matching
// transactions in query order. No matches yields an empty slice, not an
// error.
func (r *Repository) List(ctx context.Context, query string, params []any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		logStorage(ctx).ErrorContext(ctx, "List transactions failed", applog.FieldError, err)
		return nil, core.NewStorageError("Failed to fetch transactions")
	}
	defer rows.Close()

	transactions := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			logStorage(ctx).ErrorContext(ctx, "Scan transaction failed", applog.FieldError, err)
			return nil, core.NewStorageError("Failed to fetch transactions")
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		logStorage(ctx).ErrorContext(ctx, "List transactions failed", applog.FieldError, err)
		return nil, core.NewStorageError("Failed to fetch transactions")
	}
	return transactions, nil
}

// Aggregate runs a query produced by BuildSummaryQuery and returns the income
// and expense totals in cents. Both are zero when nothing matches.
func (r *Repository) Aggregate(ctx context.Context, query string, params []any) (incomeCents, expenseCents int64, err error) {
	row := r.db.QueryRowContext(ctx, query, params...)
	if err := row.Scan(&incomeCents, &expenseCents); err != nil {
		logStorage(ctx).ErrorContext(ctx, "Aggregate transactions failed", applog.FieldError, err)
		return 0, 0, core.NewStorageError("Failed to calculate transaction summary")
	}
	return incomeCents, expenseCents, nil
}

// Update replaces all mutable fields of the transaction with the given id.
func (r *Repository) Update(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET type = ?, amount_cents = ?, category = ?, date = ?, description = ?
		 WHERE id = ?`,
		string(tx.Type), tx.Amount.Cents, tx.Category, FormatDate(tx.Date), tx.Description, tx.ID)
	if err != nil {
		logStorage(ctx).ErrorContext(ctx, "Update transaction failed", "id", tx.ID, applog.FieldError, err)
		return core.NewStorageError("Failed to update transaction")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		logStorage(ctx).ErrorContext(ctx, "Update transaction failed", "id", tx.ID, applog.FieldError, err)
		return core.NewStorageError("Failed to update transaction")
	}
	if affected == 0 {
		return core.NewNotFoundError("Transaction not found")
	}

	logStorage(ctx).InfoContext(ctx, "Transaction updated", "id", tx.ID)
	return nil
}

// Delete removes the transaction with the given id. Deletion is physical.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		logStorage(ctx).ErrorContext(ctx, "Delete transaction failed", "id", id, applog.FieldError, err)
		return core.NewStorageError("Failed to delete transaction")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		logStorage(ctx).ErrorContext(ctx, "Delete transaction failed", "id", id, applog.FieldError, err)
		return core.NewStorageError("Failed to delete transaction")
	}
	if affected == 0 {
		return core.NewNotFoundError("Transaction not found")
	}

	logStorage(ctx).InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// Event is one row of the transaction_events audit table, recorded by the
// worker from published AMQP events.
type Event struct {
	Action        string
	TransactionID string
	Type          string
	AmountCents   int64
	OccurredAt    time.Time
}

// RecordEvent appends an event to the audit table.
func (r *Repository) RecordEvent(ctx context.Context, ev Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transaction_events (action, transaction_id, type, amount_cents, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.Action, ev.TransactionID, ev.Type, ev.AmountCents, FormatDate(ev.OccurredAt))
	if err != nil {
		logStorage(ctx).ErrorContext(ctx, "Record event failed", applog.FieldTransactionID, ev.TransactionID, applog.FieldError, err)
		return core.NewStorageError("Failed to record transaction event")
	}
	return nil
}

// CountEvents returns the number of recorded audit events.
func (r *Repository) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transaction_events`).Scan(&n); err != nil {
		return 0, core.NewStorageError("Failed to count transaction events")
	}
	return n, nil
}

// CountTransactions returns the number of stored transactions.
func (r *Repository) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		logStorage(ctx).ErrorContext(ctx, "Count transactions failed", applog.FieldError, err)
		return 0, core.NewStorageError("Failed to fetch transactions")
	}
	return n, nil
}

// logStorage tags the request-scoped logger for this package.
func logStorage(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentStorage)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx      core.Transaction
		typ     string
		rawDate string
	)
	if err := row.Scan(&tx.ID, &typ, &tx.Amount.Cents, &tx.Category, &rawDate, &tx.Description); err != nil {
		return core.Transaction{}, err
	}
	date, err := time.Parse(DateFormat, rawDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", rawDate, err)
	}
	tx.Type = core.TxType(typ)
	tx.Date = date.UTC()
	return tx, nil
}

func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code&0xff == sqlite3.SQLITE_CONSTRAINT
}
