package pricing

import "github.com/shopspring/decimal"

// FreeShippingPolicy is the store's shipping override: always free, or free from a minimum
// subtotal. A zero minimum disables the threshold.
type FreeShippingPolicy struct {
	Always  bool
	Minimum decimal.Decimal
}

// Applies reports whether delivery is free for the subtotal.
func (p FreeShippingPolicy) Applies(subtotal decimal.Decimal) bool {
	if p.Always {
		return true
	}
	return p.Minimum.IsPositive() && subtotal.GreaterThanOrEqual(p.Minimum)
}
