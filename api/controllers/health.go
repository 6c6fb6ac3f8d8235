package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/angelmondragon/forno-backend/api/responses"
	"github.com/angelmondragon/forno-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/logger"
)

const (
	envHeader    = "X-Forno-Env"
	readyTimeout = 2 * time.Second
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency. Offline deployments pass no checks.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name, p := range checks {
		if p != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		status := map[string]string{"status": "ready"}
		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" not ready").
					WithDetails(map[string]string{"dependency": name}))
				return
			}
			status[name] = "ok"
		}
		responses.WriteSuccess(w, status)
	}
}
