package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forno-backend/api/middleware"
	"github.com/angelmondragon/forno-backend/api/responses"
	"github.com/angelmondragon/forno-backend/api/validators"
	"github.com/angelmondragon/forno-backend/internal/checkout"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	"github.com/angelmondragon/forno-backend/pkg/logger"
	"github.com/angelmondragon/forno-backend/pkg/types"
)

// Presence of the customer fields is checked by the checkout guards so the error names the
// first missing field in guard order.
type submitCheckoutRequest struct {
	CustomerName  string                 `json:"customer_name" validate:"max=120"`
	CustomerPhone string                 `json:"customer_phone" validate:"max=32"`
	Mode          string                 `json:"mode" validate:"omitempty,oneof=delivery pickup"`
	Address       *types.DeliveryAddress `json:"address"`
	PaymentMethod string                 `json:"payment_method" validate:"max=32"`
	ChangeFor     *decimal.Decimal       `json:"change_for"`
}

func (p submitCheckoutRequest) toForm() checkout.Form {
	// unknown methods stay empty and fail the payment guard
	payment, _ := enums.ParsePaymentMethod(p.PaymentMethod)
	form := checkout.Form{
		CustomerName:  p.CustomerName,
		CustomerPhone: p.CustomerPhone,
		Mode:          enums.DeliveryMode(p.Mode),
		Payment:       payment,
		ChangeFor:     p.ChangeFor,
	}
	if p.Address != nil {
		form.Address = *p.Address
	}
	return form
}

// CheckoutSubmit places the order. The session lock and the in-flight state make a repeated
// submit a no-op answered with 409.
func CheckoutSubmit(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload submitCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := mgr.Submit(r.Context(), middleware.SessionIDFromContext(r.Context()), payload.toForm())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, receipt)
	}
}

// CheckoutRecover moves a failed checkout back to editing.
func CheckoutRecover(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updateSession(mgr, logg, w, r, func(s *checkout.Session) error {
			return s.Recover()
		})
	}
}

// CheckoutHandoff returns the messaging URL of the placed order. It answers once per order.
func CheckoutHandoff(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkout.HandoffPayload
		_, err := mgr.Update(r.Context(), middleware.SessionIDFromContext(r.Context()), func(s *checkout.Session) error {
			var err error
			payload, err = mgr.Service().Handoff(r.Context(), s)
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}
