package distribution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/internal/cashbackconfig"
	"github.com/rewardloop/rewardloop-backend/internal/purchases"
	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
	"github.com/rewardloop/rewardloop-backend/pkg/enums"
	pkgerrors "github.com/rewardloop/rewardloop-backend/pkg/errors"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
	"github.com/rewardloop/rewardloop-backend/pkg/metrics"
	"github.com/rewardloop/rewardloop-backend/pkg/outbox"
	"github.com/rewardloop/rewardloop-backend/pkg/outbox/payloads"
)

type configResolver interface {
	GetConfig(ctx context.Context, tenantID uuid.UUID) (cashbackconfig.Config, error)
}

type referrerResolver interface {
	ResolveReferrer(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Result is the recorded outcome of a distribution.
type Result struct {
	TenantID           uuid.UUID
	PurchaseID         uuid.UUID
	TotalAmount        decimal.Decimal
	CashbackPercentage decimal.Decimal
	TotalCashback      decimal.Decimal
	AlreadyDistributed bool
	Entries            []models.CashbackEntry
}

// Service orchestrates cashback distribution for one tenant database.
type Service interface {
	ProcessCashback(ctx context.Context, tenantID, purchaseID uuid.UUID) (*Result, error)
	GetDistribution(ctx context.Context, purchaseID uuid.UUID) (*Result, error)
}

type service struct {
	purchases purchases.Repository
	entries   Repository
	referrals referrerResolver
	recorder  Recorder
	configs   configResolver
	outbox    outboxEmitter
	metrics   *metrics.DistributionMetrics
	logg      *logger.Logger
}

// NewService wires the orchestrator from tenant-bound collaborators. The
// outbox emitter may be nil when no downstream consumers exist; metrics may
// be nil in tests.
func NewService(
	purchaseRepo purchases.Repository,
	entryRepo Repository,
	referrals referrerResolver,
	rec Recorder,
	configs configResolver,
	emitter outboxEmitter,
	m *metrics.DistributionMetrics,
	logg *logger.Logger,
) (Service, error) {
	if purchaseRepo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if entryRepo == nil {
		return nil, fmt.Errorf("entry repository required")
	}
	if referrals == nil {
		return nil, fmt.Errorf("referral resolver required")
	}
	if rec == nil {
		return nil, fmt.Errorf("recorder required")
	}
	if configs == nil {
		return nil, fmt.Errorf("config resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if m == nil {
		m = metrics.NewDistributionMetrics(nil)
	}
	return &service{
		purchases: purchaseRepo,
		entries:   entryRepo,
		referrals: referrals,
		recorder:  rec,
		configs:   configs,
		outbox:    emitter,
		metrics:   m,
		logg:      logg,
	}, nil
}

// ProcessCashback distributes a completed purchase's cashback across the
// consumer, the club and both referrer roles, exactly once per purchase.
// Invoking it again returns the recorded result without writing new rows.
func (s *service) ProcessCashback(ctx context.Context, tenantID, purchaseID uuid.UUID) (*Result, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if purchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}

	ctx = s.logg.WithPurchaseID(s.logg.WithTenantID(ctx, tenantID.String()), purchaseID.String())
	started := time.Now()
	tenantLabel := tenantID.String()

	result, err := s.process(ctx, tenantID, purchaseID)
	s.metrics.ObserveDuration(tenantLabel, time.Since(started))
	if err != nil {
		s.metrics.IncFailure(tenantLabel)
		return nil, err
	}
	if result.AlreadyDistributed {
		s.metrics.IncDuplicate(tenantLabel)
	} else {
		s.metrics.IncSuccess(tenantLabel)
		s.logg.Info(ctx, "cashback distributed")
	}
	return result, nil
}

func (s *service) process(ctx context.Context, tenantID, purchaseID uuid.UUID) (*Result, error) {
	purchase, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load purchase")
	}
	if purchase == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	}
	if purchase.Status != enums.PurchaseStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("purchase is %s, only completed purchases are distributable", purchase.Status))
	}

	if purchase.DistributedAt != nil {
		entries, err := s.entries.ListByPurchase(ctx, purchaseID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load recorded distribution")
		}
		return s.buildResult(tenantID, purchase, entries, true), nil
	}

	product, err := s.purchases.FindProductByID(ctx, purchase.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found for purchase")
	}

	cfg, err := s.configs.GetConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	breakdown, err := Calculate(purchase.TotalAmount, purchase.CashbackPercentage, cfg)
	if err != nil {
		return nil, err
	}

	var consumerReferrer, merchantReferrer *models.User
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		consumerReferrer, err = s.referrals.ResolveReferrer(groupCtx, purchase.ConsumerID)
		return err
	})
	group.Go(func() error {
		var err error
		merchantReferrer, err = s.referrals.ResolveReferrer(groupCtx, purchase.MerchantID)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to resolve referrers")
	}

	recipients := Recipients{
		Consumer:         &purchase.ConsumerID,
		ConsumerReferrer: userID(consumerReferrer),
		MerchantReferrer: userID(merchantReferrer),
	}

	entries, duplicate, err := s.recorder.Record(ctx, purchase, breakdown, recipients, s.emitHook(ctx, tenantID, purchase, breakdown))
	if err != nil {
		return nil, err
	}

	return s.buildResult(tenantID, purchase, entries, duplicate), nil
}

// GetDistribution returns the recorded result for a purchase.
func (s *service) GetDistribution(ctx context.Context, purchaseID uuid.UUID) (*Result, error) {
	if purchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}

	purchase, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load purchase")
	}
	if purchase == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	}
	if purchase.DistributedAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cashback has not been distributed for this purchase")
	}

	entries, err := s.entries.ListByPurchase(ctx, purchaseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load recorded distribution")
	}
	return s.buildResult(uuid.Nil, purchase, entries, true), nil
}

// emitHook enqueues the distributed event inside the recorder's transaction
// so the event commits with the payout or not at all.
func (s *service) emitHook(ctx context.Context, tenantID uuid.UUID, purchase *models.Purchase, breakdown Breakdown) func(tx *gorm.DB, entries []models.CashbackEntry) error {
	if s.outbox == nil {
		return nil
	}
	return func(tx *gorm.DB, entries []models.CashbackEntry) error {
		shares := make([]payloads.CashbackShare, 0, len(entries))
		for _, entry := range entries {
			shares = append(shares, payloads.CashbackShare{
				Role:              entry.Role,
				RecipientID:       entry.RecipientID,
				Amount:            entry.Amount,
				PercentageApplied: entry.PercentageApplied,
			})
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCashbackDistributed,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   purchase.ID,
			Actor:         &outbox.ActorRef{TenantID: tenantID},
			Data: payloads.CashbackDistributedEvent{
				TenantID:           tenantID,
				PurchaseID:         purchase.ID,
				TotalAmount:        purchase.TotalAmount,
				CashbackPercentage: purchase.CashbackPercentage,
				TotalCashback:      breakdown.TotalCashback,
				Shares:             shares,
			},
			Version: 1,
		})
	}
}

func (s *service) buildResult(tenantID uuid.UUID, purchase *models.Purchase, entries []models.CashbackEntry, duplicate bool) *Result {
	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.Amount)
	}
	return &Result{
		TenantID:           tenantID,
		PurchaseID:         purchase.ID,
		TotalAmount:        purchase.TotalAmount,
		CashbackPercentage: purchase.CashbackPercentage,
		TotalCashback:      total,
		AlreadyDistributed: duplicate,
		Entries:            entries,
	}
}

func userID(user *models.User) *uuid.UUID {
	if user == nil {
		return nil
	}
	id := user.ID
	return &id
}
