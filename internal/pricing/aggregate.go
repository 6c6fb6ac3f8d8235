package pricing

import (
	"errors"
	"fmt"

	"github.com/angelmondragon/forno-backend/internal/coupons"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

var (
	// ErrDeliveryFeeUnresolved is returned when delivery is requested without a matched region.
	ErrDeliveryFeeUnresolved = errors.New("delivery fee unresolved")

	hundred = decimal.NewFromInt(100)
)

// Input is everything the total depends on.
type Input struct {
	Subtotal     decimal.Decimal
	Coupon       *coupons.Coupon
	Mode         enums.DeliveryMode
	Fee          *decimal.Decimal
	FreeShipping bool
}

// Quote is the priced breakdown. Values are unrounded; round only through Format.
type Quote struct {
	Subtotal       decimal.Decimal    `json:"subtotal"`
	Discount       decimal.Decimal    `json:"discount"`
	DeliveryCharge decimal.Decimal    `json:"delivery_charge"`
	Total          decimal.Decimal    `json:"total"`
	Mode           enums.DeliveryMode `json:"mode"`
	FreeShipping   bool               `json:"free_shipping"`
	FeeResolved    bool               `json:"fee_resolved"`
	CouponCode     *string            `json:"coupon_code,omitempty"`
	CouponPercent  *decimal.Decimal   `json:"coupon_percent,omitempty"`
}

// Aggregate prices an order that is about to be placed. Delivery without a resolved fee
// fails with ErrDeliveryFeeUnresolved even when shipping would be free.
func Aggregate(in Input) (Quote, error) {
	q, err := Preview(in)
	if err != nil {
		return Quote{}, err
	}
	if !q.FeeResolved {
		return Quote{}, ErrDeliveryFeeUnresolved
	}
	return q, nil
}

// Preview prices a cart for display. A missing fee counts as zero and is reported through
// FeeResolved.
func Preview(in Input) (Quote, error) {
	if !in.Mode.IsValid() {
		return Quote{}, fmt.Errorf("invalid delivery mode %q", in.Mode)
	}
	if in.Subtotal.IsNegative() {
		return Quote{}, fmt.Errorf("subtotal must not be negative")
	}
	if in.Fee != nil && in.Fee.IsNegative() {
		return Quote{}, fmt.Errorf("delivery fee must not be negative")
	}

	q := Quote{
		Subtotal:       in.Subtotal,
		Discount:       decimal.Zero,
		DeliveryCharge: decimal.Zero,
		Mode:           in.Mode,
		FeeResolved:    true,
	}

	if in.Coupon != nil {
		percent := clampPercent(in.Coupon.Percent)
		q.Discount = in.Subtotal.Mul(percent).Div(hundred)
		code := in.Coupon.Code
		q.CouponCode = &code
		q.CouponPercent = &percent
	}

	if in.Mode == enums.DeliveryModeDelivery {
		q.FeeResolved = in.Fee != nil
		q.FreeShipping = in.FreeShipping
		if !in.FreeShipping && in.Fee != nil {
			q.DeliveryCharge = *in.Fee
		}
	}

	q.Total = q.Subtotal.Add(q.DeliveryCharge).Sub(q.Discount)
	return q, nil
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
