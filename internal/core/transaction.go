package core

import (
	"encoding/json"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	// TxType is the kind of a transaction, either income or expense.
	TxType string

	// Transaction is a single income or expense record. Instances produced
	// by ValidateTransaction are normalized: trimmed text fields, UTC date,
	// generated ID when the input carried none.
	Transaction struct {
		ID          string    `json:"id"`
		Type        TxType    `json:"type"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Date        time.Time `json:"date"`
		Description string    `json:"description"`
	}

	// Filter narrows list and summary queries. A nil field means "no
	// constraint on this field"; downstream code never sees sentinel values.
	Filter struct {
		Type     *TxType
		From     *time.Time
		To       *time.Time
		Category *string
	}

	// Summary holds aggregate totals over a filtered set of transactions.
	Summary struct {
		TotalIncome  Money `json:"totalIncome"`
		TotalExpense Money `json:"totalExpense"`
		NetBalance   Money `json:"netBalance"`
	}
)

// IsValid reports whether t is one of the two supported transaction types.
func (t TxType) IsValid() bool {
	return t == Income || t == Expense
}

// TransactionInput is the raw create/update request body. Amount is kept as
// json.Number so precision can be checked on the textual form instead of a
// lossy float64. Unknown fields are dropped by JSON decoding.
type TransactionInput struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
}

// FilterInput is the raw list/summary query. A nil field means the parameter
// was absent from the request; present-but-empty values are kept so
// validation can reject them.
type FilterInput struct {
	Type     *string
	From     *string
	To       *string
	Category *string
}
