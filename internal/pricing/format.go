package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders a value with two decimal places and a comma separator: 1234.5 -> "1234,50".
func Format(value decimal.Decimal) string {
	return strings.Replace(value.StringFixed(2), ".", ",", 1)
}

// FormatBRL prefixes Format with the currency symbol.
func FormatBRL(value decimal.Decimal) string {
	return "R$ " + Format(value)
}
