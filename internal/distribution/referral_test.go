package distribution

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
)

type fakeUserLookup struct {
	byID   map[uuid.UUID]*models.User
	byCode map[string]*models.User
	err    error
}

func (f *fakeUserLookup) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[id], nil
}

func (f *fakeUserLookup) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byCode[code], nil
}

func strPtr(value string) *string { return &value }

func TestResolveReferrer_Resolves(t *testing.T) {
	referrer := &models.User{ID: uuid.New(), ReferralID: strPtr("REF-1")}
	referred := &models.User{ID: uuid.New(), ReferredBy: strPtr("REF-1")}
	lookup := &fakeUserLookup{
		byID:   map[uuid.UUID]*models.User{referred.ID: referred},
		byCode: map[string]*models.User{"REF-1": referrer},
	}
	resolver, err := NewReferralResolver(lookup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := resolver.ResolveReferrer(context.Background(), referred.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.ID != referrer.ID {
		t.Fatalf("expected referrer %s, got %+v", referrer.ID, found)
	}
}

func TestResolveReferrer_NoCode(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	lookup := &fakeUserLookup{byID: map[uuid.UUID]*models.User{user.ID: user}}
	resolver, _ := NewReferralResolver(lookup)

	found, err := resolver.ResolveReferrer(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("expected missing code to be tolerated, got %v", err)
	}
	if found != nil {
		t.Fatalf("expected no referrer, got %+v", found)
	}
}

func TestResolveReferrer_UnmatchedCode(t *testing.T) {
	user := &models.User{ID: uuid.New(), ReferredBy: strPtr("REF-GONE")}
	lookup := &fakeUserLookup{byID: map[uuid.UUID]*models.User{user.ID: user}}
	resolver, _ := NewReferralResolver(lookup)

	found, err := resolver.ResolveReferrer(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("expected unmatched code to be tolerated, got %v", err)
	}
	if found != nil {
		t.Fatalf("expected no referrer, got %+v", found)
	}
}

func TestResolveReferrer_MissingUser(t *testing.T) {
	resolver, _ := NewReferralResolver(&fakeUserLookup{})

	found, err := resolver.ResolveReferrer(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected missing user to be tolerated, got %v", err)
	}
	if found != nil {
		t.Fatalf("expected no referrer, got %+v", found)
	}
}

func TestResolveReferrer_SelfReferral(t *testing.T) {
	user := &models.User{ID: uuid.New(), ReferralID: strPtr("REF-SELF"), ReferredBy: strPtr("REF-SELF")}
	lookup := &fakeUserLookup{
		byID:   map[uuid.UUID]*models.User{user.ID: user},
		byCode: map[string]*models.User{"REF-SELF": user},
	}
	resolver, _ := NewReferralResolver(lookup)

	found, err := resolver.ResolveReferrer(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != nil {
		t.Fatalf("expected self-referral to attribute to nobody")
	}
}

func TestResolveReferrer_LookupFailure(t *testing.T) {
	lookup := &fakeUserLookup{err: errors.New("connection reset")}
	resolver, _ := NewReferralResolver(lookup)

	_, err := resolver.ResolveReferrer(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected infrastructure failure to propagate")
	}
}
