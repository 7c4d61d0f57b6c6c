package controllers

import (
	"context"
	"net/http"

	"github.com/pricepilot/pricepilot-backend/api/responses"
	"github.com/pricepilot/pricepilot-backend/pkg/config"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
)

// Pinger is any dependency the readiness probe can exercise.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PricePilot-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the storage backend and the session cache. A nil pinger
// is skipped so the probe matches whatever the deployment actually wired.
func HealthReady(cfg *config.Config, logg *logger.Logger, backend Pinger, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PricePilot-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		probe := func(name string, p Pinger) {
			if p == nil {
				checks[name] = "skipped"
				return
			}
			if err := p.Ping(r.Context()); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "probe", name), "readiness probe failed")
				}
				return
			}
			checks[name] = "up"
		}

		probe("storage", backend)
		probe("redis", cache)

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "service not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
