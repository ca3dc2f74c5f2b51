// Package core holds the domain model and validation rules for transactions.
//
// This file contains money parsing and formatting. Amounts are held as int64
// cents so sums never accumulate floating-point error; the JSON form is a
// plain decimal number.
package core

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

var (
	ErrAmountNotNumber = errors.New("amount is not a number")
	ErrAmountNegative  = errors.New("amount is negative")
	ErrAmountPrecision = errors.New("amount has more than 2 decimal places")
)

// ParseAmount converts a decimal string to cents.
//
// It accepts non-negative decimals with at most two fractional digits.
// Values with more precision are rejected, not rounded.
//
// Examples:
//
//	ParseAmount("100")    -> 10000, nil
//	ParseAmount("12.5")   -> 1250, nil
//	ParseAmount("12.34")  -> 1234, nil
//	ParseAmount("12.345") -> 0, ErrAmountPrecision
//	ParseAmount("-3")     -> 0, ErrAmountNegative
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrAmountNotNumber
	}
	if strings.HasPrefix(s, "-") {
		// Check the remainder is numeric so "-abc" reads as not-a-number.
		if _, err := ParseAmount(s[1:]); err != nil {
			return 0, err
		}
		return 0, ErrAmountNegative
	}
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrAmountNotNumber
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return 0, ErrAmountNotNumber
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrAmountNotNumber
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrAmountNotNumber
		}
	}
	if len(fracPart) > 2 {
		return 0, ErrAmountPrecision
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrAmountNotNumber
	}
	// Prevent overflow when multiplying by 100.
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrAmountNotNumber
	}
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
		}
	}
	return iv*100 + fracCents, nil
}

// String renders the amount as a decimal with trailing zeros trimmed,
// e.g. 10000 cents -> "100", 1250 -> "12.5", 1234 -> "12.34".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10)
	if rem := cents % 100; rem != 0 {
		if rem%10 == 0 {
			s += "." + strconv.FormatInt(rem/10, 10)
		} else {
			frac := strconv.FormatInt(rem, 10)
			if rem < 10 {
				frac = "0" + frac
			}
			s += "." + frac
		}
	}
	if neg {
		return "-" + s
	}
	return s
}

// MarshalJSON emits the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number (or numeric string) with at most two
// decimal places.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	cents, err := ParseAmount(s)
	if err != nil {
		return err
	}
	if neg {
		cents = -cents
	}
	m.Cents = cents
	return nil
}
