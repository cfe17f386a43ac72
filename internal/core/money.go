// Package core provides money parsing and handling utilities.
//
// Amounts are exact decimals. They travel over the wire as JSON numbers and
// are accepted back either as numbers or as numeric strings, because the
// dashboard forms post what the user typed.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal is an exact decimal value that marshals to a JSON number.
type Decimal struct {
	decimal.Decimal
}

// Zero is the zero amount.
var Zero = Decimal{}

// NewDecimal wraps a shopspring decimal.
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

// DecimalFromInt returns the decimal for an integer amount.
func DecimalFromInt(v int64) Decimal {
	return Decimal{Decimal: decimal.NewFromInt(v)}
}

// MustDecimal parses s and panics on failure. Intended for tests and constants.
func MustDecimal(s string) Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseAmount converts a decimal string to an exact amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional sign. Thousands separators are not supported.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-5")    -> -5, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	return Decimal{Decimal: d}, nil
}

// Add returns m + o.
func (m Decimal) Add(o Decimal) Decimal {
	return Decimal{Decimal: m.Decimal.Add(o.Decimal)}
}

// Sub returns m - o.
func (m Decimal) Sub(o Decimal) Decimal {
	return Decimal{Decimal: m.Decimal.Sub(o.Decimal)}
}

// GreaterThan reports whether m > o.
func (m Decimal) GreaterThan(o Decimal) bool {
	return m.Decimal.GreaterThan(o.Decimal)
}

// Equal reports whether m == o numerically.
func (m Decimal) Equal(o Decimal) bool {
	return m.Decimal.Equal(o.Decimal)
}

// Float returns the value as float64 for display purposes.
// Use the decimal itself for calculations.
func (m Decimal) Float() float64 {
	return m.Decimal.InexactFloat64()
}

// MarshalJSON encodes the value as a bare JSON number.
func (m Decimal) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null (zero).
func (m *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Zero
		return nil
	}
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		d, err := ParseAmount(string(b[1 : len(b)-1]))
		if err != nil {
			return err
		}
		*m = d
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return ErrInvalidAmount
	}
	m.Decimal = d
	return nil
}
