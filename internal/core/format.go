package core

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencyFormatter renders whole-unit currency strings such as "$1,200"
// using the digit grouping of a locale.
type CurrencyFormatter struct {
	printer *message.Printer
	symbol  string
}

// NewCurrencyFormatter builds a formatter for a BCP 47 locale ("en-US") and a
// currency symbol ("$").
func NewCurrencyFormatter(locale, symbol string) (*CurrencyFormatter, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return &CurrencyFormatter{printer: message.NewPrinter(tag), symbol: symbol}, nil
}

// DefaultCurrencyFormatter formats US dollars.
func DefaultCurrencyFormatter() *CurrencyFormatter {
	return &CurrencyFormatter{printer: message.NewPrinter(language.AmericanEnglish), symbol: "$"}
}

// Format rounds m half away from zero to whole units and renders it with no
// fractional digits.
func (f *CurrencyFormatter) Format(m Money) string {
	units := m.Decimal().Round(0).IntPart()
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	return sign + f.symbol + f.printer.Sprintf("%d", units)
}
