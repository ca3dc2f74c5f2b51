package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{63, 30 * time.Second}, // shift overflow also capped
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "connection refused", err: errors.New("connection refused"), expected: true},
		{name: "connection closed", err: errors.New("connection closed"), expected: true},
		{name: "EOF", err: errors.New("unexpected EOF"), expected: true},
		{name: "broken pipe", err: errors.New("broken pipe"), expected: true},
		{name: "closed network connection", err: errors.New("use of closed network connection"), expected: true},
		{name: "delivery channel closed", err: errors.New("message channel closed"), expected: true},
		{name: "other error", err: errors.New("some other error"), expected: false},
		{name: "handler error", err: errors.New("record event failed"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestTransactionEventJSON(t *testing.T) {
	ev := &TransactionEvent{
		Action:        ActionCreated,
		TransactionID: "9f2c8a34-3d26-4c6b-bb6f-3e6f0d2a8a11",
		Type:          "income",
		AmountCents:   10000,
		OccurredAt:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	got, err := TransactionEventFromJSON(body)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if got.Action != ev.Action || got.TransactionID != ev.TransactionID ||
		got.Type != ev.Type || got.AmountCents != ev.AmountCents || !got.OccurredAt.Equal(ev.OccurredAt) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, ev)
	}

	if _, err := TransactionEventFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed body")
	}
}
