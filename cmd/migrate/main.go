package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/rewardloop/rewardloop-backend/pkg/config"
	"github.com/rewardloop/rewardloop-backend/pkg/db"
	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
	"github.com/rewardloop/rewardloop-backend/pkg/migrate"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|status")
	scope := flag.String("scope", "control", "schema scope: control|tenants")
	tenantSlug := flag.String("tenant", "", "restrict -scope=tenants to one tenant slug")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env":   cfg.App.Env,
		"cmd":   *cmd,
		"scope": *scope,
	})

	dbClient, err := db.New(context.Background(), cfg.ControlPlane, logg)
	requireResource(ctx, logg, "control-plane database", err)
	defer dbClient.Close()

	switch *scope {
	case "control":
		sqlDB, err := dbClient.DB().DB()
		requireResource(ctx, logg, "sql database", err)
		if err := migrate.Run(ctx, sqlDB, migrate.ControlPlaneDir, *cmd); err != nil {
			fmt.Fprintf(os.Stderr, "goose %s failed: %v\n", *cmd, err)
			os.Exit(1)
		}

	case "tenants":
		if err := migrateTenants(ctx, logg, cfg, dbClient, *cmd, *tenantSlug); err != nil {
			fmt.Fprintf(os.Stderr, "tenant migrations failed: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown -scope value:", *scope)
		os.Exit(1)
	}

	logg.Info(ctx, "migrations complete")
}

// migrateTenants applies the tenant schema template to every tenant database,
// or to a single tenant when slug is set. Inactive tenants are skipped: their
// databases may already be decommissioned.
func migrateTenants(ctx context.Context, logg *logger.Logger, cfg *config.Config, dbClient *db.Client, cmd, slug string) error {
	query := dbClient.DB().WithContext(ctx).Model(&models.Tenant{})
	if slug != "" {
		query = query.Where("slug = ?", slug)
	} else {
		query = query.Where("is_active = true")
	}

	var tenants []models.Tenant
	if err := query.Order("slug ASC").Find(&tenants).Error; err != nil {
		return fmt.Errorf("listing tenants: %w", err)
	}
	if len(tenants) == 0 {
		return fmt.Errorf("no tenants matched")
	}

	for _, row := range tenants {
		tenantCtx := logg.WithTenantID(ctx, row.ID.String())

		dsn, err := cfg.TenantDB.TenantDSN(row.DBName)
		if err != nil {
			return fmt.Errorf("tenant %s: %w", row.Slug, err)
		}
		conn, err := db.Open(dsn)
		if err != nil {
			return fmt.Errorf("tenant %s: %w", row.Slug, err)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return fmt.Errorf("tenant %s: %w", row.Slug, err)
		}

		if err := migrate.Run(tenantCtx, sqlDB, migrate.TenantDir, cmd); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("tenant %s: %w", row.Slug, err)
		}
		_ = sqlDB.Close()

		logg.Info(tenantCtx, "tenant schema migrated")
	}
	return nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
