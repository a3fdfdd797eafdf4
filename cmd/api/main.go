package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rewardloop/rewardloop-backend/api/routes"
	"github.com/rewardloop/rewardloop-backend/internal/cashbackconfig"
	"github.com/rewardloop/rewardloop-backend/internal/distribution"
	"github.com/rewardloop/rewardloop-backend/pkg/config"
	"github.com/rewardloop/rewardloop-backend/pkg/db"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
	"github.com/rewardloop/rewardloop-backend/pkg/metrics"
	"github.com/rewardloop/rewardloop-backend/pkg/outbox"
	"github.com/rewardloop/rewardloop-backend/pkg/pubsub"
	"github.com/rewardloop/rewardloop-backend/pkg/redis"
	"github.com/rewardloop/rewardloop-backend/pkg/tenant"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.ControlPlane, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap control-plane database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing control-plane database", err)
		}
	}()

	registry, err := tenant.NewRegistry(cfg.TenantDB, dbClient.DB(), logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to build tenant registry", err)
		os.Exit(1)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			logg.Error(context.Background(), "error closing tenant handles", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var pubsubP routes.Pinger
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		pubsubP = pubsubClient
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	configService, err := cashbackconfig.NewService(
		cashbackconfig.NewRepository(dbClient.DB()),
		cfg.Cashback,
		outboxService,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cashback config service", err)
		os.Exit(1)
	}

	distributionMetrics := metrics.NewDistributionMetrics(prometheus.DefaultRegisterer)

	factory, err := distribution.NewFactory(configService, outboxService, distributionMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create distribution factory", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, pubsubP, registry, configService, factory),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
