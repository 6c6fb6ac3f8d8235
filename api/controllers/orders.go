package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/forno-backend/api/middleware"
	"github.com/angelmondragon/forno-backend/api/responses"
	"github.com/angelmondragon/forno-backend/api/validators"
	"github.com/angelmondragon/forno-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/logger"
)

type myOrdersResponse struct {
	// References lists every recent order, persisted or placeholder, most recent first.
	References []string              `json:"references"`
	Orders     []orders.OrderSummary `json:"orders"`
}

// SessionOrders lists the session's recent orders. Only persisted references resolve to a
// summary; placeholders stay in references.
func SessionOrders(mgr SessionManager, svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := mgr.View(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		refs := view.RecentOrders
		if limit > 0 && len(refs) > limit {
			refs = refs[:limit]
		}

		resp := myOrdersResponse{References: refs, Orders: []orders.OrderSummary{}}
		if svc != nil && len(refs) > 0 {
			summaries, err := svc.Summaries(r.Context(), refs)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			resp.Orders = summaries
		}
		responses.WriteSuccess(w, resp)
	}
}

// OrderFetch returns a persisted order by id.
func OrderFetch(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order history is not available offline"))
			return
		}
		id, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Field("order_id", "must be a valid uuid"))
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
