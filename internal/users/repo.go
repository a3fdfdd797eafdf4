package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/internal/repo"
	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
)

// Repository handles user reads in a tenant database.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByReferralCode(ctx context.Context, code string) (*models.User, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a user repository bound to a tenant database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).
		Where("id = ?", id).
		First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByReferralCode resolves the owner of a referral code. Codes are opaque
// and not constrained by a foreign key, so an unmatched code is an absent
// result, never an error.
func (r *repository) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	if code == "" {
		return nil, nil
	}
	var user models.User
	if err := r.DB(ctx).
		Where("referral_id = ?", code).
		First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
