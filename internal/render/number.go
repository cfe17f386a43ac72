package render

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"budgetboard/internal/core"
)

// NumberFormat formats amounts for display in one locale.
type NumberFormat struct {
	tag      language.Tag
	printer  *message.Printer
	currency string
}

// NewNumberFormat returns a formatter for the BCP 47 locale (e.g. "en-US").
// The currency symbol prefixes amounts in the expense table.
func NewNumberFormat(locale, currency string) (*NumberFormat, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return &NumberFormat{
		tag:      tag,
		printer:  message.NewPrinter(tag),
		currency: currency,
	}, nil
}

// DefaultNumberFormat formats in en-US with a dollar sign.
func DefaultNumberFormat() *NumberFormat {
	return &NumberFormat{
		tag:      language.AmericanEnglish,
		printer:  message.NewPrinter(language.AmericanEnglish),
		currency: "$",
	}
}

// Locale returns the formatter's language tag.
func (f *NumberFormat) Locale() language.Tag {
	return f.tag
}

// CurrencySymbol returns the symbol prefixed by Currency.
func (f *NumberFormat) CurrencySymbol() string {
	return f.currency
}

// Number formats d with grouping and at most three fraction digits.
func (f *NumberFormat) Number(d core.Decimal) string {
	return f.printer.Sprint(number.Decimal(d.Float(), number.MaxFractionDigits(3)))
}

// Currency formats d prefixed with the currency symbol.
func (f *NumberFormat) Currency(d core.Decimal) string {
	if d.IsNegative() {
		return "-" + f.currency + f.Number(core.NewDecimal(d.Neg()))
	}
	return f.currency + f.Number(d)
}

// Percent formats d with exactly two fraction digits and a percent sign.
func (f *NumberFormat) Percent(d core.Decimal) string {
	return d.StringFixed(2) + "%"
}
