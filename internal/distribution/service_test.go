package distribution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/internal/cashbackconfig"
	"github.com/rewardloop/rewardloop-backend/internal/purchases"
	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
	"github.com/rewardloop/rewardloop-backend/pkg/enums"
	pkgerrors "github.com/rewardloop/rewardloop-backend/pkg/errors"
	"github.com/rewardloop/rewardloop-backend/pkg/outbox"
)

type fakePurchaseRepo struct {
	purchase   *models.Purchase
	product    *models.Product
	findErr    error
	productErr error
}

func (f *fakePurchaseRepo) WithTx(tx *gorm.DB) purchases.Repository { return f }

func (f *fakePurchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.purchase == nil || f.purchase.ID != id {
		return nil, nil
	}
	return f.purchase, nil
}

func (f *fakePurchaseRepo) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if f.productErr != nil {
		return nil, f.productErr
	}
	if f.product == nil || f.product.ID != id {
		return nil, nil
	}
	return f.product, nil
}

func (f *fakePurchaseRepo) MarkDistributed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	return 1, nil
}

type fakeEntriesRepo struct {
	entries []models.CashbackEntry
	listErr error
}

func (f *fakeEntriesRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeEntriesRepo) CreateEntries(ctx context.Context, entries []models.CashbackEntry) error {
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeEntriesRepo) ListByPurchase(ctx context.Context, purchaseID uuid.UUID) ([]models.CashbackEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.entries, nil
}

type fakeReferrals struct {
	byUser map[uuid.UUID]*models.User
	err    error
}

func (f *fakeReferrals) ResolveReferrer(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byUser[userID], nil
}

type fakeRecorder struct {
	entries       []models.CashbackEntry
	duplicate     bool
	err           error
	called        bool
	gotRecipients Recipients
	hookErr       error
}

func (f *fakeRecorder) Record(
	ctx context.Context,
	purchase *models.Purchase,
	breakdown Breakdown,
	recipients Recipients,
	onRecorded func(tx *gorm.DB, entries []models.CashbackEntry) error,
) ([]models.CashbackEntry, bool, error) {
	f.called = true
	f.gotRecipients = recipients
	if f.err != nil {
		return nil, false, f.err
	}
	if onRecorded != nil && !f.duplicate {
		if err := onRecorded(nil, f.entries); err != nil {
			f.hookErr = err
			return nil, false, err
		}
	}
	return f.entries, f.duplicate, nil
}

type fakeConfigs struct {
	cfg cashbackconfig.Config
	err error
}

func (f *fakeConfigs) GetConfig(ctx context.Context, tenantID uuid.UUID) (cashbackconfig.Config, error) {
	if f.err != nil {
		return cashbackconfig.Config{}, f.err
	}
	return f.cfg, nil
}

type fakeDistEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeDistEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func completedPurchase() *models.Purchase {
	return &models.Purchase{
		ID:                 uuid.New(),
		ConsumerID:         uuid.New(),
		MerchantID:         uuid.New(),
		ProductID:          uuid.New(),
		TotalAmount:        decimal.NewFromInt(200),
		CashbackPercentage: decimal.NewFromInt(10),
		Status:             enums.PurchaseStatusCompleted,
	}
}

func purchaseRepoFor(purchase *models.Purchase) *fakePurchaseRepo {
	return &fakePurchaseRepo{
		purchase: purchase,
		product:  &models.Product{ID: purchase.ProductID},
	}
}

func entriesFor(purchase *models.Purchase) []models.CashbackEntry {
	breakdown, _ := Calculate(purchase.TotalAmount, purchase.CashbackPercentage, standardConfig())
	return buildEntries(purchase.ID, breakdown, Recipients{Consumer: &purchase.ConsumerID})
}

type serviceDeps struct {
	purchases *fakePurchaseRepo
	entries   *fakeEntriesRepo
	referrals *fakeReferrals
	recorder  *fakeRecorder
	configs   *fakeConfigs
	emitter   *fakeDistEmitter
}

func newServiceForTest(t *testing.T, deps serviceDeps) Service {
	t.Helper()
	if deps.purchases == nil {
		deps.purchases = &fakePurchaseRepo{}
	}
	if deps.entries == nil {
		deps.entries = &fakeEntriesRepo{}
	}
	if deps.referrals == nil {
		deps.referrals = &fakeReferrals{}
	}
	if deps.recorder == nil {
		deps.recorder = &fakeRecorder{}
	}
	if deps.configs == nil {
		deps.configs = &fakeConfigs{cfg: standardConfig()}
	}

	var emitter outboxEmitter
	if deps.emitter != nil {
		emitter = deps.emitter
	}
	svc, err := NewService(deps.purchases, deps.entries, deps.referrals, deps.recorder, deps.configs, emitter, nil, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestProcessCashback_Success(t *testing.T) {
	purchase := completedPurchase()
	recorder := &fakeRecorder{entries: entriesFor(purchase)}
	emitter := &fakeDistEmitter{}
	svc := newServiceForTest(t, serviceDeps{
		purchases: purchaseRepoFor(purchase),
		recorder:  recorder,
		emitter:   emitter,
	})

	result, err := svc.ProcessCashback(context.Background(), uuid.New(), purchase.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AlreadyDistributed {
		t.Fatal("expected a fresh distribution")
	}
	if len(result.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(result.Entries))
	}
	if !result.TotalCashback.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected total cashback 20, got %s", result.TotalCashback)
	}
	if !recorder.called {
		t.Fatal("expected recorder to run")
	}
	if recorder.gotRecipients.Consumer == nil || *recorder.gotRecipients.Consumer != purchase.ConsumerID {
		t.Fatal("expected consumer recipient to be the purchaser")
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one distributed event, got %d", len(emitter.events))
	}
	if emitter.events[0].EventType != enums.EventCashbackDistributed {
		t.Fatalf("unexpected event type %s", emitter.events[0].EventType)
	}
}

func TestProcessCashback_PurchaseNotFound(t *testing.T) {
	svc := newServiceForTest(t, serviceDeps{})

	_, err := svc.ProcessCashback(context.Background(), uuid.New(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProcessCashback_PendingPurchase(t *testing.T) {
	purchase := completedPurchase()
	purchase.Status = enums.PurchaseStatusPending
	recorder := &fakeRecorder{}
	svc := newServiceForTest(t, serviceDeps{
		purchases: purchaseRepoFor(purchase),
		recorder:  recorder,
	})

	_, err := svc.ProcessCashback(context.Background(), uuid.New(), purchase.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if recorder.called {
		t.Fatal("expected no recording attempt for a pending purchase")
	}
}

func TestProcessCashback_ProductMissing(t *testing.T) {
	purchase := completedPurchase()
	recorder := &fakeRecorder{}
	svc := newServiceForTest(t, serviceDeps{
		purchases: &fakePurchaseRepo{purchase: purchase},
		recorder:  recorder,
	})

	_, err := svc.ProcessCashback(context.Background(), uuid.New(), purchase.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for a vanished product, got %v", err)
	}
	if recorder.called {
		t.Fatal("expected no recording attempt without the product")
	}
}

func TestProcessCashback_ProductLookupFailure(t *testing.T) {
	purchase := completedPurchase()
	svc := newServiceForTest(t, serviceDeps{
		purchases: &fakePurchaseRepo{purchase: purchase, productErr: errors.New("connection reset")},
	})

	_, err := svc.ProcessCashback(context.Background(), uuid.New(), purchase.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestProcessCashback_AlreadyDistributed(t *testing.T) {
	purchase := completedPurchase()
	stamped := time.Now().UTC()
	purchase.DistributedAt = &stamped
	recorder := &fakeRecorder{}
	svc := newServiceForTest(t, serviceDeps{
		purchases: purchaseRepoFor(purchase),
		entries:   &fakeEntriesRepo{entries: entriesFor(purchase)},
		recorder:  recorder,
	})

	result, err := svc.ProcessCashback(context.Background(), uuid.New(), purchase.ID)
	if err != nil {
		t.Fatalf("expected idempotent success, got %v", err)
	}
	if !result.AlreadyDistributed {
		t.Fatal("expected the recorded result to be flagged as already distributed")
	}
	if recorder.called {
		t.Fatal("expected no new recording")
	}
}

func TestProcessCashback_ReferrerAttribution(t *testing.T) {
	purchase := completedPurchase()
	merchantReferrer := &models.User{ID: uuid.New()}
	recorder := &fakeRecorder{entries: entriesFor(purchase)}
	svc := newServiceForTest(t, serviceDeps{
		purchases: purchaseRepoFor(purchase),
		referrals: &fakeReferrals{byUser: map[uuid.UUID]*models.User{purchase.MerchantID: merchantReferrer}},
		recorder:  recorder,
	})

	_, err := svc.ProcessCashback(context.Background(), uuid.New(), purchase.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recorder.gotRecipients.ConsumerReferrer != nil {
		t.Fatal("expected no consumer referrer")
	}
	if recorder.gotRecipients.MerchantReferrer == nil || *recorder.gotRecipients.MerchantReferrer != merchantReferrer.ID {
		t.Fatal("expected merchant referrer to be attributed")
	}
}

func TestProcessCashback_ReferralLookupFailure(t *testing.T) {
	purchase := completedPurchase()
	svc := newServiceForTest(t, serviceDeps{
		purchases: purchaseRepoFor(purchase),
		referrals: &fakeReferrals{err: errors.New("connection reset")},
	})

	_, err := svc.ProcessCashback(context.Background(), uuid.New(), purchase.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestProcessCashback_RecorderReportsDuplicate(t *testing.T) {
	purchase := completedPurchase()
	recorder := &fakeRecorder{entries: entriesFor(purchase), duplicate: true}
	emitter := &fakeDistEmitter{}
	svc := newServiceForTest(t, serviceDeps{
		purchases: purchaseRepoFor(purchase),
		recorder:  recorder,
		emitter:   emitter,
	})

	result, err := svc.ProcessCashback(context.Background(), uuid.New(), purchase.ID)
	if err != nil {
		t.Fatalf("expected idempotent success, got %v", err)
	}
	if !result.AlreadyDistributed {
		t.Fatal("expected duplicate to be flagged")
	}
	if len(emitter.events) != 0 {
		t.Fatal("expected no event for a duplicate distribution")
	}
}

func TestProcessCashback_ConfigFailure(t *testing.T) {
	purchase := completedPurchase()
	svc := newServiceForTest(t, serviceDeps{
		purchases: purchaseRepoFor(purchase),
		configs:   &fakeConfigs{err: pkgerrors.New(pkgerrors.CodeDependency, "config store down")},
	})

	_, err := svc.ProcessCashback(context.Background(), uuid.New(), purchase.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGetDistribution_NotYetDistributed(t *testing.T) {
	purchase := completedPurchase()
	svc := newServiceForTest(t, serviceDeps{
		purchases: purchaseRepoFor(purchase),
	})

	_, err := svc.GetDistribution(context.Background(), purchase.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetDistribution_ReturnsRecordedEntries(t *testing.T) {
	purchase := completedPurchase()
	stamped := time.Now().UTC()
	purchase.DistributedAt = &stamped
	svc := newServiceForTest(t, serviceDeps{
		purchases: purchaseRepoFor(purchase),
		entries:   &fakeEntriesRepo{entries: entriesFor(purchase)},
	})

	result, err := svc.GetDistribution(context.Background(), purchase.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(result.Entries))
	}
}
