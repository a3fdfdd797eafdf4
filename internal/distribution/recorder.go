package distribution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/internal/purchases"
	"github.com/rewardloop/rewardloop-backend/pkg/db"
	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
	"github.com/rewardloop/rewardloop-backend/pkg/enums"
	pkgerrors "github.com/rewardloop/rewardloop-backend/pkg/errors"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
)

// errConcurrentDistribution aborts the write transaction when another
// distribution committed first; the loser re-reads the winner's rows.
var errConcurrentDistribution = errors.New("concurrent distribution detected")

// Recipients carries the resolved identities for the shares that have one.
// The club share always belongs to the platform and carries no recipient.
type Recipients struct {
	Consumer         *uuid.UUID
	ConsumerReferrer *uuid.UUID
	MerchantReferrer *uuid.UUID
}

// Recorder persists a purchase's breakdown atomically. The onRecorded hook
// runs inside the same transaction as the entry writes, after they succeed,
// so event enqueues commit or roll back with the payout.
type Recorder interface {
	Record(
		ctx context.Context,
		purchase *models.Purchase,
		breakdown Breakdown,
		recipients Recipients,
		onRecorded func(tx *gorm.DB, entries []models.CashbackEntry) error,
	) ([]models.CashbackEntry, bool, error)
}

type recorder struct {
	db        *gorm.DB
	purchases purchases.Repository
	entries   Repository
	logg      *logger.Logger
}

// NewRecorder builds a recorder over a tenant database handle.
func NewRecorder(tenantDB *gorm.DB, purchaseRepo purchases.Repository, entryRepo Repository, logg *logger.Logger) (Recorder, error) {
	if tenantDB == nil {
		return nil, fmt.Errorf("tenant database required")
	}
	if purchaseRepo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if entryRepo == nil {
		return nil, fmt.Errorf("entry repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &recorder{
		db:        tenantDB,
		purchases: purchaseRepo,
		entries:   entryRepo,
		logg:      logg,
	}, nil
}

// Record writes every cashback entry and stamps the purchase's distribution
// marker in one transaction. The second return value reports whether the
// returned entries were recorded by an earlier or concurrent invocation
// instead of this one.
func (r *recorder) Record(
	ctx context.Context,
	purchase *models.Purchase,
	breakdown Breakdown,
	recipients Recipients,
	onRecorded func(tx *gorm.DB, entries []models.CashbackEntry) error,
) ([]models.CashbackEntry, bool, error) {
	if purchase == nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "purchase required")
	}

	var recorded []models.CashbackEntry
	var duplicate bool

	err := db.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		purchaseRepo := r.purchases.WithTx(tx)
		entryRepo := r.entries.WithTx(tx)

		current, err := purchaseRepo.FindByID(ctx, purchase.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return pkgerrors.New(pkgerrors.CodeDependency, "purchase disappeared during distribution")
		}
		if current.DistributedAt != nil {
			recorded, err = entryRepo.ListByPurchase(ctx, purchase.ID)
			if err != nil {
				return err
			}
			duplicate = true
			return nil
		}

		entries := buildEntries(purchase.ID, breakdown, recipients)
		if err := entryRepo.CreateEntries(ctx, entries); err != nil {
			if db.IsUniqueViolation(err, entriesUniqueIndex) {
				return errConcurrentDistribution
			}
			return err
		}

		affected, err := purchaseRepo.MarkDistributed(ctx, purchase.ID, time.Now().UTC())
		if err != nil {
			return err
		}
		if affected == 0 {
			return errConcurrentDistribution
		}

		if onRecorded != nil {
			if err := onRecorded(tx, entries); err != nil {
				return err
			}
		}

		recorded = entries
		return nil
	})

	if err != nil {
		if errors.Is(err, errConcurrentDistribution) {
			return r.reloadWinner(ctx, purchase.ID)
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, false, typed
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to record cashback distribution")
	}

	return recorded, duplicate, nil
}

// reloadWinner returns the rows committed by the invocation that won the
// race. The unique index blocks the loser's insert until the winner commits,
// so the rows are visible by the time we get here.
func (r *recorder) reloadWinner(ctx context.Context, purchaseID uuid.UUID) ([]models.CashbackEntry, bool, error) {
	r.logg.Warn(r.logg.WithPurchaseID(ctx, purchaseID.String()), "lost distribution race, returning recorded entries")

	entries, err := r.entries.ListByPurchase(ctx, purchaseID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load recorded distribution")
	}
	if len(entries) == 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeDependency, "concurrent distribution left no entries")
	}
	return entries, true, nil
}

func buildEntries(purchaseID uuid.UUID, breakdown Breakdown, recipients Recipients) []models.CashbackEntry {
	entries := make([]models.CashbackEntry, 0, len(breakdown.Shares))
	for _, share := range breakdown.Shares {
		entries = append(entries, models.CashbackEntry{
			ID:                uuid.New(),
			PurchaseID:        purchaseID,
			Role:              share.Role,
			RecipientID:       recipients.forShare(share),
			Amount:            share.Amount,
			PercentageApplied: share.Percentage,
		})
	}
	return entries
}

// forShare drops the recipient when the share's amount rounds to zero; a
// zero line is recorded for reconciliation but addressed to nobody.
func (r Recipients) forShare(share Share) *uuid.UUID {
	if share.Amount.IsZero() {
		return nil
	}
	switch share.Role {
	case enums.CashbackRoleConsumer:
		return r.Consumer
	case enums.CashbackRoleConsumerReferrer:
		return r.ConsumerReferrer
	case enums.CashbackRoleMerchantReferrer:
		return r.MerchantReferrer
	default:
		return nil
	}
}
