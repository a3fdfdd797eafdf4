package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rewardloop/rewardloop-backend/api/controllers"
	"github.com/rewardloop/rewardloop-backend/api/middleware"
	"github.com/rewardloop/rewardloop-backend/internal/cashbackconfig"
	"github.com/rewardloop/rewardloop-backend/internal/distribution"
	"github.com/rewardloop/rewardloop-backend/pkg/config"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
	pkgredis "github.com/rewardloop/rewardloop-backend/pkg/redis"
	"github.com/rewardloop/rewardloop-backend/pkg/tenant"
)

// Pinger is the readiness surface shared by the backing clients.
type Pinger interface {
	Ping(context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	controlDB Pinger,
	redisClient *pkgredis.Client,
	pubsubClient Pinger,
	registry *tenant.Registry,
	configService cashbackconfig.Service,
	factory *distribution.Factory,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var redisP Pinger
	var idempotencyStore pkgredis.IdempotencyStore
	if redisClient != nil {
		redisP = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controlDB, redisP, pubsubClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.TenantContext(registry, logg),
			middleware.Idempotency(idempotencyStore, logg),
		)

		r.Post("/purchases/{purchaseId}/cashback", controllers.DistributeCashback(factory, logg))
		r.Get("/purchases/{purchaseId}/cashback", controllers.GetCashback(factory, logg))

		r.Get("/cashback/config", controllers.GetCashbackConfig(configService, logg))
		r.Put("/cashback/config", controllers.UpdateCashbackConfig(configService, logg))
	})

	return r
}
