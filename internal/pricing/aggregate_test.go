package pricing

import (
	"errors"
	"testing"

	"github.com/angelmondragon/forno-backend/internal/coupons"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func feePtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func TestAggregateCouponTESTE10(t *testing.T) {
	t.Parallel()

	q, err := Aggregate(Input{
		Subtotal: dec("100.00"),
		Coupon:   &coupons.Coupon{Code: "TESTE10", Percent: dec("10")},
		Mode:     enums.DeliveryModePickup,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.Discount.Equal(dec("10")) || !q.Total.Equal(dec("90")) {
		t.Fatalf("expected discount 10 and total 90, got %s / %s", q.Discount, q.Total)
	}
	if q.CouponCode == nil || *q.CouponCode != "TESTE10" {
		t.Fatalf("expected coupon code on quote, got %v", q.CouponCode)
	}

	q, err = Aggregate(Input{
		Subtotal: dec("100.00"),
		Coupon:   &coupons.Coupon{Code: "TESTE10", Percent: dec("10")},
		Mode:     enums.DeliveryModeDelivery,
		Fee:      feePtr("7.50"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.Total.Equal(dec("97.50")) {
		t.Fatalf("expected 97.50 with delivery, got %s", q.Total)
	}
}

func TestAggregatePickupIgnoresResolvedFee(t *testing.T) {
	t.Parallel()

	q, err := Aggregate(Input{Subtotal: dec("50"), Mode: enums.DeliveryModePickup, Fee: feePtr("12")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.DeliveryCharge.IsZero() || !q.Total.Equal(dec("50")) {
		t.Fatalf("pickup must not charge delivery, got %s", q.DeliveryCharge)
	}
}

func TestAggregateFreeShippingZeroesCharge(t *testing.T) {
	t.Parallel()

	q, err := Aggregate(Input{Subtotal: dec("80"), Mode: enums.DeliveryModeDelivery, Fee: feePtr("9"), FreeShipping: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.DeliveryCharge.IsZero() || !q.FreeShipping {
		t.Fatalf("expected free shipping, got %+v", q)
	}
}

func TestAggregateDeliveryWithoutFeeFails(t *testing.T) {
	t.Parallel()

	for _, free := range []bool{false, true} {
		_, err := Aggregate(Input{Subtotal: dec("80"), Mode: enums.DeliveryModeDelivery, FreeShipping: free})
		if !errors.Is(err, ErrDeliveryFeeUnresolved) {
			t.Fatalf("expected ErrDeliveryFeeUnresolved (free=%v), got %v", free, err)
		}
	}
}

func TestPreviewDeliveryWithoutFeeDisplaysZero(t *testing.T) {
	t.Parallel()

	q, err := Preview(Input{Subtotal: dec("80"), Mode: enums.DeliveryModeDelivery})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.FeeResolved || !q.DeliveryCharge.IsZero() || !q.Total.Equal(dec("80")) {
		t.Fatalf("unexpected preview %+v", q)
	}
}

func TestAggregateRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := []Input{
		{Subtotal: dec("10"), Mode: "drone"},
		{Subtotal: dec("-1"), Mode: enums.DeliveryModePickup},
		{Subtotal: dec("10"), Mode: enums.DeliveryModeDelivery, Fee: feePtr("-2")},
	}
	for _, in := range cases {
		if _, err := Aggregate(in); err == nil {
			t.Fatalf("expected error for %+v", in)
		}
	}
}

func TestAggregateTotalsInvariant(t *testing.T) {
	t.Parallel()

	subtotals := []string{"0", "0.01", "33.33", "99.99", "123.45", "1000"}
	percents := []string{"0", "5", "12.5", "33.3333", "100", "150"}
	fees := []string{"0", "4.99", "10"}

	for _, s := range subtotals {
		for _, p := range percents {
			for _, f := range fees {
				q, err := Aggregate(Input{
					Subtotal: dec(s),
					Coupon:   &coupons.Coupon{Code: "X", Percent: dec(p)},
					Mode:     enums.DeliveryModeDelivery,
					Fee:      feePtr(f),
				})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if q.Discount.GreaterThan(q.Subtotal) {
					t.Fatalf("discount %s exceeds subtotal %s", q.Discount, q.Subtotal)
				}
				want := q.Subtotal.Add(q.DeliveryCharge).Sub(q.Discount)
				if want.Sub(q.Total).Abs().GreaterThan(dec("0.01")) {
					t.Fatalf("total %s != %s", q.Total, want)
				}
			}
		}
	}
}

func TestFreeShippingPolicy(t *testing.T) {
	t.Parallel()

	if !(FreeShippingPolicy{Always: true}).Applies(dec("1")) {
		t.Fatal("always policy must apply")
	}
	threshold := FreeShippingPolicy{Minimum: dec("100")}
	if threshold.Applies(dec("99.99")) || !threshold.Applies(dec("100")) {
		t.Fatal("threshold must apply from the minimum inclusive")
	}
	if (FreeShippingPolicy{}).Applies(dec("1000")) {
		t.Fatal("zero policy must never apply")
	}
}
