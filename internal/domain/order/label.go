package order

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Unavailable is shown in place of a missing amount.
const Unavailable = "unavailable"

var printer = message.NewPrinter(language.Korean)

// FormatWon renders an amount in whole won with digit grouping, e.g.
// "5,000 원". Fractions are rounded half away from zero.
func FormatWon(d decimal.Decimal) string {
	return printer.Sprintf("%d 원", d.Round(0).IntPart())
}

// FormatTotal renders an order total, or Unavailable when it is missing.
func FormatTotal(total decimal.NullDecimal) string {
	if !total.Valid {
		return Unavailable
	}
	return FormatWon(total.Decimal)
}

// FormatMetric renders a ranked value: a plain count or a won amount.
func FormatMetric(m Metric, v decimal.Decimal) string {
	if m == SalesValue {
		return FormatWon(v)
	}
	return printer.Sprintf("%d", v.IntPart())
}
