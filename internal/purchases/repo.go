package purchases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/internal/repo"
	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
)

// Repository handles purchase reads and the distribution marker in a tenant
// database.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	MarkDistributed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a purchase repository bound to a tenant database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.DB(ctx).
		Where("id = ?", id).
		First(&purchase).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// MarkDistributed stamps distributed_at on a purchase that has not been
// stamped yet. Zero rows affected means a concurrent distribution won the
// race or the purchase no longer exists; callers distinguish by re-reading.
func (r *repository) MarkDistributed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	result := r.DB(ctx).
		Model(&models.Purchase{}).
		Where("id = ? AND distributed_at IS NULL", id).
		Update("distributed_at", at)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
