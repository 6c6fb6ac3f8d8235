package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/forno-backend/api/middleware"
	"github.com/angelmondragon/forno-backend/api/responses"
	"github.com/angelmondragon/forno-backend/api/validators"
	"github.com/angelmondragon/forno-backend/internal/cart"
	"github.com/angelmondragon/forno-backend/internal/catalog"
	"github.com/angelmondragon/forno-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/logger"
)

const maxObservationLength = 200

type addLineRequest struct {
	ProductID   uuid.UUID      `json:"product_id" validate:"required"`
	Quantity    int            `json:"quantity" validate:"required,min=1,max=50"`
	Observation string         `json:"observation" validate:"max=200"`
	Options     []catalog.Pick `json:"options" validate:"dive"`
}

type addLineResponse struct {
	LineIndex int           `json:"line_index"`
	Session   checkout.View `json:"session"`
}

// CartAddLine prices a catalog product with its picks and merges it into the cart.
func CartAddLine(mgr SessionManager, menu catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if menu == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload addLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ref, options, err := catalog.PrepareLine(r.Context(), menu, payload.ProductID, payload.Options)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		index := -1
		view, err := mgr.Update(r.Context(), middleware.SessionIDFromContext(r.Context()), func(s *checkout.Session) error {
			idx, err := s.AddLine(ref, payload.Quantity, payload.Observation, options)
			index = idx
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, addLineResponse{LineIndex: index, Session: view})
	}
}

// Confirm applies a quantity below one by removing the line.
type updateLineRequest struct {
	Quantity    *int    `json:"quantity"`
	Confirm     bool    `json:"confirm"`
	Observation *string `json:"observation" validate:"omitempty,max=200"`
}

type updateLineResponse struct {
	Outcome cart.QuantityOutcome `json:"outcome,omitempty"`
	Session checkout.View        `json:"session"`
}

// CartUpdateLine changes the quantity or the observation of one line. A quantity below one
// without confirm is answered with requires_confirmation and leaves the line untouched.
func CartUpdateLine(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := lineIndex(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Quantity == nil && payload.Observation == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Field("quantity", "quantity or observation is required"))
			return
		}

		var outcome cart.QuantityOutcome
		view, err := mgr.Update(r.Context(), middleware.SessionIDFromContext(r.Context()), func(s *checkout.Session) error {
			if payload.Observation != nil {
				text := validators.SanitizeString(*payload.Observation, maxObservationLength)
				if err := s.UpdateObservation(index, text); err != nil {
					return err
				}
			}
			if payload.Quantity == nil {
				return nil
			}
			if payload.Confirm {
				outcome = cart.QuantityUpdated
				return s.SetQuantity(index, *payload.Quantity)
			}
			var err error
			outcome, err = s.UpdateQuantity(index, *payload.Quantity)
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updateLineResponse{Outcome: outcome, Session: view})
	}
}

// CartRemoveLine deletes one line.
func CartRemoveLine(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := lineIndex(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updateSession(mgr, logg, w, r, func(s *checkout.Session) error {
			return s.RemoveLine(index)
		})
	}
}

// CartClear empties the cart.
func CartClear(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updateSession(mgr, logg, w, r, func(s *checkout.Session) error {
			return s.ClearCart()
		})
	}
}

func lineIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, pkgerrors.Field("index", "must be a non-negative integer")
	}
	return index, nil
}
