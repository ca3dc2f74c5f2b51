package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func validationFields(t *testing.T, err error) []string {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if e.Kind != KindValidation {
		t.Fatalf("expected KindValidation, got %s", e.Kind)
	}
	return e.Fields
}

func hasMessage(fields []string, substr string) bool {
	for _, f := range fields {
		if strings.Contains(f, substr) {
			return true
		}
	}
	return false
}

func TestValidateTransaction_Valid(t *testing.T) {
	in := TransactionInput{
		Type:        "income",
		Amount:      json.Number("100.00"),
		Category:    "Salary",
		Date:        "2024-05-01T10:00:00Z",
		Description: "  monthly pay  ",
	}

	tx, err := ValidateTransaction(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Type != Income {
		t.Errorf("type = %s, want income", tx.Type)
	}
	if tx.Amount.Cents != 10000 {
		t.Errorf("cents = %d, want 10000", tx.Amount.Cents)
	}
	if tx.Description != "monthly pay" {
		t.Errorf("description not trimmed: %q", tx.Description)
	}
	if tx.Date.After(time.Now().UTC()) {
		t.Errorf("date in the future: %v", tx.Date)
	}
	if _, err := uuid.Parse(tx.ID); err != nil {
		t.Errorf("generated id is not a UUID: %q", tx.ID)
	}
}

func TestValidateTransaction_Defaults(t *testing.T) {
	before := time.Now().UTC()
	tx, err := ValidateTransaction(TransactionInput{
		Type:     "income",
		Amount:   json.Number("100.00"),
		Category: "Salary",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.ID == "" {
		t.Error("id was not generated")
	}
	if tx.Date.Before(before.Add(-time.Second)) || tx.Date.After(time.Now().UTC().Add(time.Second)) {
		t.Errorf("date not defaulted to now: %v", tx.Date)
	}
	if tx.Date.Nanosecond() != 0 {
		t.Errorf("defaulted date keeps sub-second precision: %v", tx.Date)
	}
	if tx.Description != "" {
		t.Errorf("description = %q, want empty", tx.Description)
	}
}

func TestValidateTransaction_TruncatesFractionalSeconds(t *testing.T) {
	tx, err := ValidateTransaction(TransactionInput{
		Type:     "expense",
		Amount:   json.Number("5"),
		Category: "Food",
		Date:     "2024-05-01T10:00:00.999999999Z",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if !tx.Date.Equal(want) {
		t.Errorf("date = %v, want %v", tx.Date, want)
	}
}

func TestValidateTransaction_KeepsProvidedID(t *testing.T) {
	id := uuid.NewString()
	tx, err := ValidateTransaction(TransactionInput{
		ID:       id,
		Type:     "expense",
		Amount:   json.Number("5"),
		Category: "Food",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.ID != id {
		t.Errorf("id = %q, want %q", tx.ID, id)
	}
}

func TestValidateTransaction_Violations(t *testing.T) {
	tests := []struct {
		name    string
		input   TransactionInput
		message string
	}{
		{
			name:    "missing type",
			input:   TransactionInput{Amount: "10", Category: "Food"},
			message: "Transaction type is required",
		},
		{
			name:    "bad type",
			input:   TransactionInput{Type: "transfer", Amount: "10", Category: "Food"},
			message: `Transaction type must be either "income" or "expense"`,
		},
		{
			name:    "missing amount",
			input:   TransactionInput{Type: "income", Category: "Food"},
			message: "Amount must be a number",
		},
		{
			name:    "negative amount",
			input:   TransactionInput{Type: "income", Amount: "-5", Category: "Food"},
			message: "Amount must be greater than or equal to 0",
		},
		{
			name:    "excess precision",
			input:   TransactionInput{Type: "expense", Amount: "12.345", Category: "Food"},
			message: "Amount cannot have more than 2 decimal places",
		},
		{
			name:    "missing category",
			input:   TransactionInput{Type: "income", Amount: "10"},
			message: "Category is required",
		},
		{
			name:    "category too short",
			input:   TransactionInput{Type: "income", Amount: "10", Category: " x "},
			message: "Category must be at least 2 characters long",
		},
		{
			name:    "category too long",
			input:   TransactionInput{Type: "income", Amount: "10", Category: strings.Repeat("a", 51)},
			message: "Category cannot exceed 50 characters",
		},
		{
			name:    "bad date",
			input:   TransactionInput{Type: "income", Amount: "10", Category: "Food", Date: "not-a-date"},
			message: "Date must be a valid date",
		},
		{
			name:    "future date",
			input:   TransactionInput{Type: "income", Amount: "10", Category: "Food", Date: time.Now().Add(48 * time.Hour).Format(time.RFC3339)},
			message: "Date cannot be in the future",
		},
		{
			name:    "description too long",
			input:   TransactionInput{Type: "income", Amount: "10", Category: "Food", Description: strings.Repeat("d", 201)},
			message: "Description cannot exceed 200 characters",
		},
		{
			name:    "bad id",
			input:   TransactionInput{ID: "not-a-uuid", Type: "income", Amount: "10", Category: "Food"},
			message: "ID must be a valid UUID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateTransaction(tt.input)
			fields := validationFields(t, err)
			if !hasMessage(fields, tt.message) {
				t.Errorf("fields %v missing %q", fields, tt.message)
			}
		})
	}
}

func TestValidateTransaction_CollectsAllViolations(t *testing.T) {
	_, err := ValidateTransaction(TransactionInput{
		Type:   "transfer",
		Amount: "12.345",
	})
	fields := validationFields(t, err)
	if len(fields) != 3 {
		t.Fatalf("expected 3 violations (type, amount, category), got %d: %v", len(fields), fields)
	}
}

func strPtr(s string) *string { return &s }

func TestValidateFilter(t *testing.T) {
	tests := []struct {
		name    string
		input   FilterInput
		message string // expected violation; empty means the filter is valid
	}{
		{name: "empty filter", input: FilterInput{}},
		{name: "type only", input: FilterInput{Type: strPtr("income")}},
		{name: "full range", input: FilterInput{From: strPtr("2024-01-01"), To: strPtr("2024-02-01")}},
		{name: "equal range", input: FilterInput{From: strPtr("2024-01-01"), To: strPtr("2024-01-01")}},
		{name: "category only", input: FilterInput{Category: strPtr("Food")}},
		{
			name:    "bad type",
			input:   FilterInput{Type: strPtr("transfer")},
			message: `Type must be either "income" or "expense"`,
		},
		{
			name:    "empty type",
			input:   FilterInput{Type: strPtr("")},
			message: "Type cannot be empty",
		},
		{
			name:    "bad from",
			input:   FilterInput{From: strPtr("yesterday")},
			message: "From date must be a valid date",
		},
		{
			name:    "bad to",
			input:   FilterInput{From: strPtr("2024-01-01"), To: strPtr("sometime")},
			message: "To date must be a valid date",
		},
		{
			name:    "to before from",
			input:   FilterInput{From: strPtr("2024-02-01"), To: strPtr("2024-01-01")},
			message: "To date must be after or equal to from date",
		},
		{
			name:    "to without from",
			input:   FilterInput{To: strPtr("2024-01-01")},
			message: "To date requires from date",
		},
		{
			name:    "blank category",
			input:   FilterInput{Category: strPtr("  ")},
			message: "Category cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ValidateFilter(tt.input)
			if tt.message == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			fields := validationFields(t, err)
			if !hasMessage(fields, tt.message) {
				t.Errorf("fields %v missing %q", fields, tt.message)
			}
			_ = f
		})
	}
}

func TestValidateFilter_AbsentMeansNil(t *testing.T) {
	f, err := ValidateFilter(FilterInput{Type: strPtr("expense")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Type == nil || *f.Type != Expense {
		t.Errorf("type = %v, want expense", f.Type)
	}
	if f.From != nil || f.To != nil || f.Category != nil {
		t.Error("absent fields must stay nil")
	}
}
