package cashbackconfig

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/pkg/config"
	"github.com/rewardloop/rewardloop-backend/pkg/db"
	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
	"github.com/rewardloop/rewardloop-backend/pkg/enums"
	pkgerrors "github.com/rewardloop/rewardloop-backend/pkg/errors"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
	"github.com/rewardloop/rewardloop-backend/pkg/outbox"
	"github.com/rewardloop/rewardloop-backend/pkg/outbox/payloads"
)

var hundred = decimal.NewFromInt(100)

// Config is the resolved distribution split for a tenant. Percentages apply
// to the purchase's total cashback, not the purchase amount.
type Config struct {
	ConsumerPercent         decimal.Decimal
	ClubPercent             decimal.Decimal
	ConsumerReferrerPercent decimal.Decimal
	MerchantReferrerPercent decimal.Decimal
}

// Sum returns the total of the four percentages.
func (c Config) Sum() decimal.Decimal {
	return c.ConsumerPercent.
		Add(c.ClubPercent).
		Add(c.ConsumerReferrerPercent).
		Add(c.MerchantReferrerPercent)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service resolves and mutates tenant distribution percentages.
type Service interface {
	GetConfig(ctx context.Context, tenantID uuid.UUID) (Config, error)
	UpdateConfig(ctx context.Context, tenantDB *gorm.DB, tenantID uuid.UUID, cfg Config) (Config, error)
}

type service struct {
	repo     Repository
	defaults config.CashbackConfig
	outbox   outboxEmitter
	logg     *logger.Logger
}

// NewService builds the config service. The outbox emitter may be nil when no
// downstream consumers need config change events.
func NewService(repo Repository, defaults config.CashbackConfig, emitter outboxEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("config repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		defaults: defaults,
		outbox:   emitter,
		logg:     logg,
	}, nil
}

// GetConfig returns the tenant's stored percentages, falling back to the
// platform defaults when the tenant has never saved any. Absence is not an
// error. A split that does not sum to 100 is logged and used as stored.
func (s *service) GetConfig(ctx context.Context, tenantID uuid.UUID) (Config, error) {
	if tenantID == uuid.Nil {
		return Config{}, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}

	record, err := s.repo.FindByTenant(ctx, tenantID)
	if err != nil {
		return Config{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cashback config")
	}

	var cfg Config
	if record == nil {
		cfg = s.defaultConfig()
	} else {
		cfg = Config{
			ConsumerPercent:         record.ConsumerPercent,
			ClubPercent:             record.ClubPercent,
			ConsumerReferrerPercent: record.ConsumerReferrerPercent,
			MerchantReferrerPercent: record.MerchantReferrerPercent,
		}
	}

	if !cfg.Sum().Equal(hundred) {
		warnCtx := s.logg.WithFields(ctx, map[string]any{
			"tenant_id":   tenantID.String(),
			"percent_sum": cfg.Sum().String(),
		})
		s.logg.Warn(warnCtx, "cashback percentages do not sum to 100, distributing as stored")
	}

	return cfg, nil
}

// UpdateConfig stores the tenant's percentages and enqueues a config-updated
// event into the tenant's outbox. The event enqueue is best effort; the
// control-plane row is the source of truth.
func (s *service) UpdateConfig(ctx context.Context, tenantDB *gorm.DB, tenantID uuid.UUID, cfg Config) (Config, error) {
	if tenantID == uuid.Nil {
		return Config{}, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if err := validatePercentages(cfg); err != nil {
		return Config{}, err
	}

	record := &models.TenantCashbackConfig{
		TenantID:                tenantID,
		ConsumerPercent:         cfg.ConsumerPercent,
		ClubPercent:             cfg.ClubPercent,
		ConsumerReferrerPercent: cfg.ConsumerReferrerPercent,
		MerchantReferrerPercent: cfg.MerchantReferrerPercent,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return Config{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store cashback config")
	}

	if !cfg.Sum().Equal(hundred) {
		s.logg.Warn(s.logg.WithTenantID(ctx, tenantID.String()), "stored cashback percentages do not sum to 100")
	}

	if s.outbox != nil && tenantDB != nil {
		err := db.RunInTx(ctx, tenantDB, func(tx *gorm.DB) error {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCashbackConfigUpdated,
				AggregateType: enums.AggregateTenantConfig,
				AggregateID:   tenantID,
				Actor:         &outbox.ActorRef{TenantID: tenantID},
				Data: payloads.CashbackConfigUpdatedEvent{
					TenantID:                tenantID,
					ConsumerPercent:         cfg.ConsumerPercent,
					ClubPercent:             cfg.ClubPercent,
					ConsumerReferrerPercent: cfg.ConsumerReferrerPercent,
					MerchantReferrerPercent: cfg.MerchantReferrerPercent,
				},
				Version: 1,
			})
		})
		if err != nil {
			s.logg.Error(ctx, "failed to enqueue cashback config updated event", err)
		}
	}

	return cfg, nil
}

func (s *service) defaultConfig() Config {
	return Config{
		ConsumerPercent:         decimal.NewFromFloat(s.defaults.DefaultConsumerPercent),
		ClubPercent:             decimal.NewFromFloat(s.defaults.DefaultClubPercent),
		ConsumerReferrerPercent: decimal.NewFromFloat(s.defaults.DefaultConsumerReferrerPercent),
		MerchantReferrerPercent: decimal.NewFromFloat(s.defaults.DefaultMerchantReferrerPercent),
	}
}

func validatePercentages(cfg Config) error {
	checks := []struct {
		name  string
		value decimal.Decimal
	}{
		{"consumerPercent", cfg.ConsumerPercent},
		{"clubPercent", cfg.ClubPercent},
		{"consumerReferrerPercent", cfg.ConsumerReferrerPercent},
		{"merchantReferrerPercent", cfg.MerchantReferrerPercent},
	}
	for _, check := range checks {
		if check.value.IsNegative() || check.value.GreaterThan(hundred) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be between 0 and 100", check.name))
		}
	}
	return nil
}
