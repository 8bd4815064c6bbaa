// Package core holds the finbook domain model: entities, money handling
// and the validation rules shared by storage and HTTP layers.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount in integer cents. Arithmetic happens on
// cents; decimal.Decimal is used only at the parse/format boundary.
type Money struct {
	Cents int64
}

var hundred = decimal.NewFromInt(100)

// ParseMoney converts a user supplied decimal string to Money.
// Both dot and comma decimal separators are accepted, as are comma
// thousands groups like "1,234.56"; the third decimal place rounds half
// away from zero. Sign is preserved, so callers that need strictly
// positive amounts validate separately.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = normalizeSeparators(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if cents.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt64 / 2)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// normalizeSeparators rewrites comma usage into a plain dot-decimal
// string. A dot anywhere marks commas as thousands separators. Without
// a dot, a single comma followed by one or two digits is the decimal
// separator ("12,34"); any other comma pattern is thousands grouping
// ("1,234").
func normalizeSeparators(s string) string {
	if strings.ContainsRune(s, '.') {
		return strings.ReplaceAll(s, ",", "")
	}
	if i := strings.IndexByte(s, ','); i >= 0 && i == strings.LastIndexByte(s, ',') {
		if frac := len(s) - i - 1; frac == 1 || frac == 2 {
			return s[:i] + "." + s[i+1:]
		}
	}
	return strings.ReplaceAll(s, ",", "")
}

// Decimal returns the amount as a two-place decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with two decimal places, e.g. "12.34".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Display renders the amount with a currency symbol, e.g. "$12.34" or
// "-$0.50". An empty symbol falls back to the bare number.
func (m Money) Display(symbol string) string {
	if symbol == "" {
		return m.String()
	}
	if m.Cents < 0 {
		return "-" + symbol + Money{Cents: -m.Cents}.String()
	}
	return symbol + m.String()
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns the difference of two amounts.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}
