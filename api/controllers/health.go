package controllers

import (
	"context"
	"net/http"

	"github.com/rewardloop/rewardloop-backend/api/responses"
	"github.com/rewardloop/rewardloop-backend/pkg/config"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
)

const envHeader = "X-RewardLoop-Env"

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports per-dependency status. Nil dependencies are skipped so
// partial deployments (no redis, no pubsub) still report ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, controlDB, redisClient, pubsubClient pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]pinger{
			"control_db": controlDB,
			"redis":      redisClient,
			"pubsub":     pubsubClient,
		}

		statuses := map[string]string{}
		ready := true
		for name, dep := range checks {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				ready = false
				statuses[name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "dependency", name), "readiness check failed", err)
				}
				continue
			}
			statuses[name] = "up"
		}

		if !ready {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]any{
				"status":       "degraded",
				"dependencies": statuses,
			})
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status":       "ready",
			"dependencies": statuses,
		})
	}
}
