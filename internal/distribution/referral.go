package distribution

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
)

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByReferralCode(ctx context.Context, code string) (*models.User, error)
}

// ReferralResolver walks the referral code indirection from a user to the
// user who referred them.
type ReferralResolver struct {
	users userLookup
}

// NewReferralResolver builds a resolver over the tenant's user repository.
func NewReferralResolver(users userLookup) (*ReferralResolver, error) {
	if users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	return &ReferralResolver{users: users}, nil
}

// ResolveReferrer returns the user owning the referral code the given user
// signed up with. A missing user, an empty code, and a code no user owns all
// resolve to no referrer without error; only infrastructure failures
// propagate.
func (r *ReferralResolver) ResolveReferrer(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, nil
	}

	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.ReferredBy == nil || *user.ReferredBy == "" {
		return nil, nil
	}

	referrer, err := r.users.FindByReferralCode(ctx, *user.ReferredBy)
	if err != nil {
		return nil, err
	}
	if referrer == nil || referrer.ID == userID {
		// Self-referral through a recycled code attributes to nobody.
		return nil, nil
	}
	return referrer, nil
}
