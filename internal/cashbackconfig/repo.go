package cashbackconfig

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rewardloop/rewardloop-backend/internal/repo"
	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
)

// Repository handles tenant cashback config persistence in the control plane.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*models.TenantCashbackConfig, error)
	Upsert(ctx context.Context, record *models.TenantCashbackConfig) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a config repository bound to the control-plane database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*models.TenantCashbackConfig, error) {
	var record models.TenantCashbackConfig
	if err := r.DB(ctx).
		Where("tenant_id = ?", tenantID).
		First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) Upsert(ctx context.Context, record *models.TenantCashbackConfig) error {
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"consumer_percent",
				"club_percent",
				"consumer_referrer_percent",
				"merchant_referrer_percent",
				"updated_at",
			}),
		}).
		Create(record).Error
}
