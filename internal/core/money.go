// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Decimal strings are only produced and
// consumed at the boundary (JSON, SQL, request bodies), so sums never pass
// through binary floating point.
package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount with two fractional digits.
type Money struct {
	Cents int64
}

// ParseMoney converts a decimal string to Money with half-up rounding on the
// third fractional digit.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234 cents
//	ParseMoney("12,345") -> 1235 cents
//	ParseMoney("-3.5")   -> -350 cents
func ParseMoney(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents := d.Round(2).Shift(2)
	if !cents.IsInteger() || cents.Abs().GreaterThan(decimal.NewFromInt(maxCents)) {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// guards Shift(2).IntPart() from overflowing int64
const maxCents = 1<<62 - 1

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders m with exactly two fractional digits, e.g. "1380.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON emits a JSON number literal with two fractional digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("%w: null", ErrInvalidAmount)
	}
	parsed, err := ParseMoney(string(bytes.Trim(b, `"`)))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Sum adds the amounts of all transactions.
func Sum(txs []Transaction) Money {
	var total Money
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}
