package amqp

import (
	"encoding/json"
	"time"

	"ledger/internal/core"
)

// Event actions published on the transactions exchange.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent is the message published after a successful write
// operation. The worker records these in the audit table; consumers only
// need the identifying fields, not the full record.
type TransactionEvent struct {
	Action        string    `json:"action"`
	TransactionID string    `json:"transaction_id"`
	Type          string    `json:"type"`
	AmountCents   int64     `json:"amount_cents"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewTransactionEvent builds an event for the given action and transaction.
func NewTransactionEvent(action string, tx core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Action:        action,
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		AmountCents:   tx.Amount.Cents,
		OccurredAt:    time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes an event from JSON bytes.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
