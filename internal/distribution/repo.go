package distribution

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/internal/repo"
	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
)

// entriesUniqueIndex backs the one-entry-per-purchase-and-role guarantee.
const entriesUniqueIndex = "ux_cashback_entries_purchase_role"

// Repository handles cashback entry persistence in a tenant database.
// Entries are append-only; there is no update path.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEntries(ctx context.Context, entries []models.CashbackEntry) error
	ListByPurchase(ctx context.Context, purchaseID uuid.UUID) ([]models.CashbackEntry, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a cashback entry repository bound to a tenant database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) CreateEntries(ctx context.Context, entries []models.CashbackEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&entries).Error
}

func (r *repository) ListByPurchase(ctx context.Context, purchaseID uuid.UUID) ([]models.CashbackEntry, error) {
	var entries []models.CashbackEntry
	if err := r.DB(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("created_at ASC, role ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
