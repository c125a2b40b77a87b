// Package tax converts entered line-item amounts into a tax-exclusive base
// and a tax portion using integer arithmetic, so yen amounts never drift
// through floating point.
package tax

import (
	"github.com/shopspring/decimal"

	"seikyu/backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Compute splits an entered amount into its tax-exclusive base and tax
// portion, both floored to whole yen.
//
// For inclusive amounts the base is floor(amount*100/(100+rate)) and the tax
// is the remainder against floor(amount), not an independent floor: the two
// parts must sum back to the entered amount for ledger reconciliation.
// Callers validate amount > 0 and the rate before calling.
func Compute(amount decimal.Decimal, ratePercent int, amountType string) (exclusiveYen, taxYen int64) {
	floored := amount.Floor().IntPart()

	if amountType == domain.AmountInclusive {
		if ratePercent <= 0 {
			return floored, 0
		}
		denominator := decimal.NewFromInt(int64(100 + ratePercent))
		exclusiveYen = amount.Mul(hundred).Div(denominator).Floor().IntPart()
		taxYen = floored - exclusiveYen
		return exclusiveYen, taxYen
	}

	exclusiveYen = floored
	if ratePercent > 0 {
		taxYen = exclusiveYen * int64(ratePercent) / 100
	}
	return exclusiveYen, taxYen
}

// Totals aggregates the derived amounts of a document's line items.
type Totals struct {
	SubtotalYen int64
	TaxTotalYen int64
	TotalYen    int64
}

// Assemble sums the derived line-item amounts. Pure integer accumulation,
// no further rounding; the caller rejects empty item sets before calling.
func Assemble(items []domain.LineItem) Totals {
	var t Totals
	for _, item := range items {
		t.SubtotalYen += item.ExclusiveYen
		t.TaxTotalYen += item.TaxYen
	}
	t.TotalYen = t.SubtotalYen + t.TaxTotalYen
	return t
}

// ValidRate reports whether ratePercent is one of the supported
// consumption tax rates.
func ValidRate(ratePercent int) bool {
	for _, rate := range domain.ValidTaxRates {
		if ratePercent == rate {
			return true
		}
	}
	return false
}
