package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forno-backend/internal/checkout"
	"github.com/angelmondragon/forno-backend/internal/coupons"
)

type offlineRegistry struct{}

func (offlineRegistry) Fetch(context.Context, string) (*coupons.Record, error) {
	return nil, errors.New("registry offline")
}

func TestCouponApplyOutcomes(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)
	env.addLine(t, id, env.calabresa, 2)

	resp := serve(CouponApply(env.mgr, nil), http.MethodPost, "/api/v1/session/coupon", id, map[string]string{"code": " teste10 "}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var applied applyCouponResponse
	decodeData(t, resp, &applied)
	if applied.Status != couponApplied || applied.Coupon == nil || applied.Coupon.Code != "TESTE10" {
		t.Fatalf("expected TESTE10 applied, got %+v", applied)
	}
	if !applied.Session.Quote.Discount.Equal(decimal.RequireFromString("9")) {
		t.Fatalf("expected discount 9, got %s", applied.Session.Quote.Discount)
	}

	resp = serve(CouponApply(env.mgr, nil), http.MethodPost, "/api/v1/session/coupon", id, map[string]string{"code": "NOPE"}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("invalid coupons are a business outcome, got %d", resp.Code)
	}
	var rejected applyCouponResponse
	decodeData(t, resp, &rejected)
	if rejected.Status != couponInvalid || rejected.Session.Coupon != nil {
		t.Fatalf("expected invalid status with the coupon cleared, got %+v", rejected)
	}
}

func TestCouponApplyUnavailableKeepsCurrentCoupon(t *testing.T) {
	env := newTestEnv(t, offlineRegistry{})
	id := env.newSession(t)
	env.addLine(t, id, env.calabresa, 1)

	resp := serve(CouponApply(env.mgr, nil), http.MethodPost, "/api/v1/session/coupon", id, map[string]string{"code": "TESTE10"}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var out applyCouponResponse
	decodeData(t, resp, &out)
	if out.Status != couponUnavailable || out.Coupon != nil {
		t.Fatalf("expected unavailable status, got %+v", out)
	}
}

func TestCouponApplyRequiresCode(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)

	resp := serve(CouponApply(env.mgr, nil), http.MethodPost, "/api/v1/session/coupon", id, map[string]string{}, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCouponRemove(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)
	env.addLine(t, id, env.calabresa, 1)
	serve(CouponApply(env.mgr, nil), http.MethodPost, "/api/v1/session/coupon", id, map[string]string{"code": "TESTE10"}, nil)

	resp := serve(CouponRemove(env.mgr, nil), http.MethodDelete, "/api/v1/session/coupon", id, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var view checkout.View
	decodeData(t, resp, &view)
	if view.Coupon != nil || !view.Quote.Discount.IsZero() {
		t.Fatalf("expected coupon removed, got %+v", view)
	}
}

func TestDeliveryQuote(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)
	env.addLine(t, id, env.calabresa, 1)

	resp := serve(DeliveryQuote(env.mgr, nil), http.MethodPost, "/api/v1/session/delivery/quote", id,
		map[string]string{"postal_code": "13295-150"}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var served quoteDeliveryResponse
	decodeData(t, resp, &served)
	if !served.Available || served.Match == nil || served.Match.RegionName != "Centro" {
		t.Fatalf("expected Centro match, got %+v", served)
	}
	if !served.Session.Quote.Total.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected total 50 with fee, got %s", served.Session.Quote.Total)
	}

	resp = serve(DeliveryQuote(env.mgr, nil), http.MethodPost, "/api/v1/session/delivery/quote", id,
		map[string]string{"postal_code": "01001-000"}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("unserved addresses are a business outcome, got %d", resp.Code)
	}
	var unserved quoteDeliveryResponse
	decodeData(t, resp, &unserved)
	if unserved.Available || unserved.Match != nil {
		t.Fatalf("expected no delivery, got %+v", unserved)
	}
}

func TestDeliveryQuoteRequiresAddress(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)

	resp := serve(DeliveryQuote(env.mgr, nil), http.MethodPost, "/api/v1/session/delivery/quote", id, map[string]string{}, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
