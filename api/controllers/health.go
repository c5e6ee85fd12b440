package controllers

import (
	"context"
	"net/http"

	"github.com/tavolapos/tavola-backend/api/responses"
	"github.com/tavolapos/tavola-backend/pkg/config"
	"github.com/tavolapos/tavola-backend/pkg/db"
	pkgerrors "github.com/tavolapos/tavola-backend/pkg/errors"
	"github.com/tavolapos/tavola-backend/pkg/logger"
	"github.com/tavolapos/tavola-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tavola-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tavola-Env", cfg.App.Env)

		checks := map[string]string{}
		failed := false

		checks["database"] = pingResult(r.Context(), dbP)
		if checks["database"] != "ok" {
			failed = true
		}
		checks["redis"] = pingResult(r.Context(), redisP)
		if checks["redis"] != "ok" {
			failed = true
		}

		if failed {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").
				WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingResult(ctx context.Context, p pinger) string {
	if p == nil {
		return "not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}
