package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/forno-backend/api/middleware"
	"github.com/angelmondragon/forno-backend/api/responses"
	"github.com/angelmondragon/forno-backend/api/validators"
	"github.com/angelmondragon/forno-backend/internal/checkout"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/logger"
)

// SessionManager is the checkout session surface behind the /session routes.
type SessionManager interface {
	Create(ctx context.Context) (checkout.View, error)
	View(ctx context.Context, id string) (checkout.View, error)
	Update(ctx context.Context, id string, fn func(*checkout.Session) error) (checkout.View, error)
	Submit(ctx context.Context, id string, form checkout.Form) (*checkout.Receipt, error)
	Service() *checkout.Service
}

// SessionCreate opens a new checkout session and returns its id in the session header.
func SessionCreate(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}
		view, err := mgr.Create(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set(middleware.SessionIDHeader, view.ID)
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// SessionFetch returns the current session view with its quote preview.
func SessionFetch(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := mgr.View(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type setModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=delivery pickup"`
}

// SessionSetMode switches between delivery and pickup.
func SessionSetMode(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setModeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mode, err := enums.ParseDeliveryMode(payload.Mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Field("mode", "must be delivery or pickup"))
			return
		}
		updateSession(mgr, logg, w, r, func(s *checkout.Session) error {
			return s.SetMode(mode)
		})
	}
}

// SessionReset starts a fresh order, keeping the recent orders list.
func SessionReset(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updateSession(mgr, logg, w, r, func(s *checkout.Session) error {
			return s.Reset()
		})
	}
}

func updateSession(mgr SessionManager, logg *logger.Logger, w http.ResponseWriter, r *http.Request, fn func(*checkout.Session) error) {
	view, err := mgr.Update(r.Context(), middleware.SessionIDFromContext(r.Context()), fn)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, view)
}
