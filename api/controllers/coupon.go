package controllers

import (
	"net/http"

	"github.com/angelmondragon/forno-backend/api/middleware"
	"github.com/angelmondragon/forno-backend/api/responses"
	"github.com/angelmondragon/forno-backend/api/validators"
	"github.com/angelmondragon/forno-backend/internal/checkout"
	"github.com/angelmondragon/forno-backend/internal/coupons"
	"github.com/angelmondragon/forno-backend/pkg/logger"
)

// Coupon outcomes reported to the storefront.
const (
	couponApplied     = "applied"
	couponInvalid     = "invalid"
	couponUnavailable = "unavailable"
)

type applyCouponRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

type applyCouponResponse struct {
	Status  string          `json:"status"`
	Coupon  *coupons.Coupon `json:"coupon,omitempty"`
	Session checkout.View   `json:"session"`
}

// CouponApply validates a code against the session. Invalid and unavailable codes are
// business outcomes and answered with 200.
func CouponApply(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload applyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := applyCouponResponse{}
		view, err := mgr.Update(r.Context(), middleware.SessionIDFromContext(r.Context()), func(s *checkout.Session) error {
			coupon, err := mgr.Service().ApplyCoupon(r.Context(), s, payload.Code)
			switch {
			case err == nil:
				resp.Status = couponApplied
				resp.Coupon = &coupon
			case coupons.IsInvalid(err):
				resp.Status = couponInvalid
			case coupons.IsUnavailable(err):
				resp.Status = couponUnavailable
			default:
				return err
			}
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp.Session = view
		responses.WriteSuccess(w, resp)
	}
}

// CouponRemove drops the applied coupon.
func CouponRemove(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updateSession(mgr, logg, w, r, func(s *checkout.Session) error {
			return s.RemoveCoupon()
		})
	}
}
