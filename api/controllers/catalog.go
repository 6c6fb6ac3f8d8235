package controllers

import (
	"net/http"

	"github.com/angelmondragon/forno-backend/api/responses"
	"github.com/angelmondragon/forno-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/logger"
)

// CatalogMenu returns the active menu grouped by category.
func CatalogMenu(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		menu, err := svc.Menu(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, menu)
	}
}
