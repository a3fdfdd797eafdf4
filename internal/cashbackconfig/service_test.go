package cashbackconfig

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/pkg/config"
	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
	pkgerrors "github.com/rewardloop/rewardloop-backend/pkg/errors"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
	"github.com/rewardloop/rewardloop-backend/pkg/outbox"
)

type fakeConfigRepo struct {
	record  *models.TenantCashbackConfig
	findErr error
	upserts []*models.TenantCashbackConfig
}

func (f *fakeConfigRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeConfigRepo) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*models.TenantCashbackConfig, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.record, nil
}

func (f *fakeConfigRepo) Upsert(ctx context.Context, record *models.TenantCashbackConfig) error {
	f.upserts = append(f.upserts, record)
	f.record = record
	return nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func testDefaults() config.CashbackConfig {
	return config.CashbackConfig{
		DefaultConsumerPercent:         50,
		DefaultClubPercent:             25,
		DefaultConsumerReferrerPercent: 12.5,
		DefaultMerchantReferrerPercent: 12.5,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func openTenantDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestGetConfig_DefaultsWhenAbsent(t *testing.T) {
	repo := &fakeConfigRepo{}
	svc, err := NewService(repo, testDefaults(), nil, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := svc.GetConfig(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.ConsumerPercent.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected default consumer percent 50, got %s", cfg.ConsumerPercent)
	}
	if !cfg.ConsumerReferrerPercent.Equal(decimal.NewFromFloat(12.5)) {
		t.Fatalf("expected default consumer referrer percent 12.5, got %s", cfg.ConsumerReferrerPercent)
	}
	if !cfg.Sum().Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected defaults to sum to 100, got %s", cfg.Sum())
	}
}

func TestGetConfig_StoredValues(t *testing.T) {
	tenantID := uuid.New()
	repo := &fakeConfigRepo{record: &models.TenantCashbackConfig{
		TenantID:                tenantID,
		ConsumerPercent:         decimal.NewFromInt(60),
		ClubPercent:             decimal.NewFromInt(20),
		ConsumerReferrerPercent: decimal.NewFromInt(10),
		MerchantReferrerPercent: decimal.NewFromInt(10),
	}}
	svc, _ := NewService(repo, testDefaults(), nil, testLogger())

	cfg, err := svc.GetConfig(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.ConsumerPercent.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected stored consumer percent 60, got %s", cfg.ConsumerPercent)
	}
}

func TestGetConfig_MisconfiguredSumProceeds(t *testing.T) {
	repo := &fakeConfigRepo{record: &models.TenantCashbackConfig{
		TenantID:                uuid.New(),
		ConsumerPercent:         decimal.NewFromInt(40),
		ClubPercent:             decimal.NewFromInt(20),
		ConsumerReferrerPercent: decimal.NewFromInt(10),
		MerchantReferrerPercent: decimal.NewFromInt(10),
	}}
	svc, _ := NewService(repo, testDefaults(), nil, testLogger())

	cfg, err := svc.GetConfig(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected misconfigured sum to be tolerated, got %v", err)
	}
	if !cfg.Sum().Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected literal stored values, got sum %s", cfg.Sum())
	}
}

func TestGetConfig_RepoError(t *testing.T) {
	repo := &fakeConfigRepo{findErr: errors.New("connection refused")}
	svc, _ := NewService(repo, testDefaults(), nil, testLogger())

	_, err := svc.GetConfig(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestUpdateConfig_RejectsOutOfRange(t *testing.T) {
	repo := &fakeConfigRepo{}
	svc, _ := NewService(repo, testDefaults(), nil, testLogger())

	_, err := svc.UpdateConfig(context.Background(), nil, uuid.New(), Config{
		ConsumerPercent: decimal.NewFromInt(101),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.upserts) != 0 {
		t.Fatalf("expected no writes on validation failure")
	}
}

func TestUpdateConfig_PersistsAndEmits(t *testing.T) {
	tenantID := uuid.New()
	repo := &fakeConfigRepo{}
	emitter := &fakeEmitter{}
	svc, _ := NewService(repo, testDefaults(), emitter, testLogger())

	updated, err := svc.UpdateConfig(context.Background(), openTenantDB(t), tenantID, Config{
		ConsumerPercent:         decimal.NewFromInt(55),
		ClubPercent:             decimal.NewFromInt(25),
		ConsumerReferrerPercent: decimal.NewFromInt(10),
		MerchantReferrerPercent: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.ConsumerPercent.Equal(decimal.NewFromInt(55)) {
		t.Fatalf("expected updated consumer percent 55, got %s", updated.ConsumerPercent)
	}
	if len(repo.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(repo.upserts))
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one emitted event, got %d", len(emitter.events))
	}
	if emitter.events[0].AggregateID != tenantID {
		t.Fatalf("expected event aggregate to be the tenant")
	}
}

func TestUpdateConfig_EmitFailureDoesNotFail(t *testing.T) {
	repo := &fakeConfigRepo{}
	emitter := &fakeEmitter{err: errors.New("outbox unavailable")}
	svc, _ := NewService(repo, testDefaults(), emitter, testLogger())

	_, err := svc.UpdateConfig(context.Background(), openTenantDB(t), uuid.New(), Config{
		ConsumerPercent:         decimal.NewFromInt(50),
		ClubPercent:             decimal.NewFromInt(25),
		ConsumerReferrerPercent: decimal.NewFromFloat(12.5),
		MerchantReferrerPercent: decimal.NewFromFloat(12.5),
	})
	if err != nil {
		t.Fatalf("expected emit failure to be swallowed, got %v", err)
	}
	if len(repo.upserts) != 1 {
		t.Fatalf("expected config row to persist despite emit failure")
	}
}
