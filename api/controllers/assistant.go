package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/forno-backend/api/middleware"
	"github.com/angelmondragon/forno-backend/api/responses"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/logger"
)

const maxToolPayloadBytes = 16 << 10

// ToolDispatcher runs one assistant tool call.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, sessionID, tool string, raw []byte) (any, error)
}

// AssistantTool forwards the raw JSON body as tool arguments.
func AssistantTool(dispatcher ToolDispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dispatcher == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "assistant tools are disabled"))
			return
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxToolPayloadBytes+1))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read tool arguments"))
			return
		}
		if len(raw) > maxToolPayloadBytes {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tool arguments too large"))
			return
		}

		out, err := dispatcher.Dispatch(r.Context(), middleware.SessionIDFromContext(r.Context()), chi.URLParam(r, "tool"), raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
