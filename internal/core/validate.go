package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Validation limits for transaction fields.
const (
	CategoryMinLen    = 2
	CategoryMaxLen    = 50
	DescriptionMaxLen = 200
)

// dateLayouts are the accepted ISO-8601 input forms, tried in order.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate parses an ISO-8601 date or date-time string and normalizes it
// to UTC at whole-second precision, the precision dates are stored and
// rendered at.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ValidateTransaction checks a raw create/update body against the transaction
// rules and returns the normalized record. All violations are collected
// before failing; the returned error is a *Error with KindValidation carrying
// one message per violated field.
//
// Normalization: ID defaults to a fresh v4 UUID, date defaults to now,
// category and description are trimmed, the date is converted to UTC and
// truncated to whole seconds so a stored record reads back equal.
func ValidateTransaction(in TransactionInput) (Transaction, error) {
	var fields []string
	now := time.Now().UTC().Truncate(time.Second)

	typ := TxType(strings.TrimSpace(in.Type))
	switch {
	case typ == "":
		fields = append(fields, "Transaction type is required")
	case !typ.IsValid():
		fields = append(fields, `Transaction type must be either "income" or "expense"`)
	}

	var cents int64
	if s := in.Amount.String(); s == "" {
		fields = append(fields, "Amount must be a number")
	} else {
		var err error
		cents, err = ParseAmount(s)
		switch err {
		case nil:
		case ErrAmountNegative:
			fields = append(fields, "Amount must be greater than or equal to 0")
		case ErrAmountPrecision:
			fields = append(fields, "Amount cannot have more than 2 decimal places")
		default:
			fields = append(fields, "Amount must be a number")
		}
	}

	category := strings.TrimSpace(in.Category)
	switch {
	case category == "":
		fields = append(fields, "Category is required")
	case utf8.RuneCountInString(category) < CategoryMinLen:
		fields = append(fields, "Category must be at least 2 characters long")
	case utf8.RuneCountInString(category) > CategoryMaxLen:
		fields = append(fields, "Category cannot exceed 50 characters")
	}

	date := now
	if s := strings.TrimSpace(in.Date); s != "" {
		parsed, err := ParseDate(s)
		switch {
		case err != nil:
			fields = append(fields, "Date must be a valid date")
		case parsed.After(now):
			fields = append(fields, "Date cannot be in the future")
		default:
			date = parsed
		}
	}

	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > DescriptionMaxLen {
		fields = append(fields, "Description cannot exceed 200 characters")
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		fields = append(fields, "ID must be a valid UUID")
	}

	if len(fields) > 0 {
		return Transaction{}, NewValidationError(fields...)
	}

	return Transaction{
		ID:          id,
		Type:        typ,
		Amount:      Money{Cents: cents},
		Category:    category,
		Date:        date,
		Description: description,
	}, nil
}

// ValidateFilter checks raw list/summary query parameters and returns the
// normalized filter. Absent parameters stay nil, meaning "do not filter on
// this field", never a literal default. Like ValidateTransaction it collects
// every violation before failing.
func ValidateFilter(in FilterInput) (Filter, error) {
	var fields []string
	var f Filter

	if in.Type != nil {
		v := TxType(strings.TrimSpace(*in.Type))
		switch {
		case v == "":
			fields = append(fields, "Type cannot be empty")
		case !v.IsValid():
			fields = append(fields, `Type must be either "income" or "expense"`)
		default:
			f.Type = &v
		}
	}

	if in.From != nil {
		from, err := ParseDate(*in.From)
		if err != nil {
			fields = append(fields, "From date must be a valid date")
		} else {
			f.From = &from
		}
	}

	if in.To != nil {
		if in.From == nil {
			fields = append(fields, "To date requires from date")
		}
		to, err := ParseDate(*in.To)
		switch {
		case err != nil:
			fields = append(fields, "To date must be a valid date")
		case f.From != nil && to.Before(*f.From):
			fields = append(fields, "To date must be after or equal to from date")
		default:
			f.To = &to
		}
	}

	if in.Category != nil {
		c := strings.TrimSpace(*in.Category)
		if c == "" {
			fields = append(fields, "Category cannot be empty")
		} else {
			f.Category = &c
		}
	}

	if len(fields) > 0 {
		return Filter{}, NewValidationError(fields...)
	}
	return f, nil
}
