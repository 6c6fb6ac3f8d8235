package controllers

import (
	"net/http"

	"github.com/angelmondragon/forno-backend/api/middleware"
	"github.com/angelmondragon/forno-backend/api/responses"
	"github.com/angelmondragon/forno-backend/api/validators"
	"github.com/angelmondragon/forno-backend/internal/checkout"
	"github.com/angelmondragon/forno-backend/internal/delivery"
	"github.com/angelmondragon/forno-backend/pkg/logger"
)

type quoteDeliveryRequest struct {
	PostalCode   string `json:"postal_code" validate:"required_without=Neighborhood,max=16"`
	Neighborhood string `json:"neighborhood" validate:"max=120"`
}

type quoteDeliveryResponse struct {
	Available bool            `json:"available"`
	Match     *delivery.Match `json:"match,omitempty"`
	Session   checkout.View   `json:"session"`
}

// DeliveryQuote resolves the delivery region for an address and stores it on the session.
// An unserved address is a normal answer with available=false.
func DeliveryQuote(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quoteDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := quoteDeliveryResponse{}
		view, err := mgr.Update(r.Context(), middleware.SessionIDFromContext(r.Context()), func(s *checkout.Session) error {
			match, ok, err := mgr.Service().QuoteDelivery(s, payload.PostalCode, payload.Neighborhood)
			if err != nil {
				return err
			}
			if ok {
				resp.Available = true
				resp.Match = &match
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
