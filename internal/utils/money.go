package utils

import "github.com/shopspring/decimal"

// Money formata valor monetário com 2 casas (arredondamento half-up).
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Percent formata percentual com até 4 casas, sem zeros à direita.
func Percent(d decimal.Decimal) string {
	return d.Round(4).String()
}
