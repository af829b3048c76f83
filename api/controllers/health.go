package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/praytees/storefront/api/responses"
	"github.com/praytees/storefront/pkg/config"
	"github.com/praytees/storefront/pkg/db"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
	"github.com/praytees/storefront/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when both the database and Redis answer.
func HealthReady(cfg *config.Config, database db.Pinger, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		var failed error
		if database == nil {
			checks["database"] = "unconfigured"
		} else if err := database.Ping(ctx); err != nil {
			checks["database"] = "unavailable"
			failed = err
		}
		if cache == nil {
			checks["redis"] = "unconfigured"
		} else if err := cache.Ping(ctx); err != nil {
			checks["redis"] = "unavailable"
			failed = err
		}

		if failed != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, failed, "dependency check failed").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
