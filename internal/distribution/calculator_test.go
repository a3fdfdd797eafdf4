package distribution

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rewardloop/rewardloop-backend/internal/cashbackconfig"
	"github.com/rewardloop/rewardloop-backend/pkg/enums"
	pkgerrors "github.com/rewardloop/rewardloop-backend/pkg/errors"
)

func standardConfig() cashbackconfig.Config {
	return cashbackconfig.Config{
		ConsumerPercent:         decimal.NewFromInt(50),
		ClubPercent:             decimal.NewFromInt(25),
		ConsumerReferrerPercent: decimal.NewFromFloat(12.5),
		MerchantReferrerPercent: decimal.NewFromFloat(12.5),
	}
}

func shareFor(t *testing.T, breakdown Breakdown, role enums.CashbackRole) Share {
	t.Helper()
	for _, share := range breakdown.Shares {
		if share.Role == role {
			return share
		}
	}
	t.Fatalf("no share for role %s", role)
	return Share{}
}

func TestCalculate_StandardSplit(t *testing.T) {
	breakdown, err := Calculate(decimal.NewFromFloat(200.00), decimal.NewFromInt(10), standardConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !breakdown.TotalCashback.Equal(decimal.NewFromFloat(20.00)) {
		t.Fatalf("expected total cashback 20.00, got %s", breakdown.TotalCashback)
	}

	expected := map[enums.CashbackRole]string{
		enums.CashbackRoleConsumer:         "10",
		enums.CashbackRoleClub:             "5",
		enums.CashbackRoleConsumerReferrer: "2.5",
		enums.CashbackRoleMerchantReferrer: "2.5",
	}
	for role, amount := range expected {
		share := shareFor(t, breakdown, role)
		if !share.Amount.Equal(decimal.RequireFromString(amount)) {
			t.Fatalf("role %s: expected %s, got %s", role, amount, share.Amount)
		}
	}
}

func TestCalculate_SharesReconcileToTotal(t *testing.T) {
	cases := []struct {
		name       string
		amount     string
		percentage string
	}{
		{"even split", "100.00", "10"},
		{"repeating decimals", "33.33", "7"},
		{"small amount", "0.99", "3"},
		{"odd percentage", "149.95", "12.5"},
	}

	oneCent := decimal.NewFromFloat(0.01)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			breakdown, err := Calculate(
				decimal.RequireFromString(tc.amount),
				decimal.RequireFromString(tc.percentage),
				standardConfig(),
			)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			sum := decimal.Zero
			for _, share := range breakdown.Shares {
				sum = sum.Add(share.Amount)
			}
			drift := sum.Sub(breakdown.TotalCashback).Abs()
			if drift.GreaterThan(oneCent) {
				t.Fatalf("shares %s drift from total %s by more than one cent", sum, breakdown.TotalCashback)
			}
		})
	}
}

func TestCalculate_MisconfiguredSumDistributesLiterally(t *testing.T) {
	cfg := cashbackconfig.Config{
		ConsumerPercent:         decimal.NewFromInt(40),
		ClubPercent:             decimal.NewFromInt(25),
		ConsumerReferrerPercent: decimal.NewFromFloat(12.5),
		MerchantReferrerPercent: decimal.NewFromFloat(12.5),
	}

	breakdown, err := Calculate(decimal.NewFromInt(200), decimal.NewFromInt(10), cfg)
	if err != nil {
		t.Fatalf("expected misconfigured sum to still calculate, got %v", err)
	}

	sum := decimal.Zero
	for _, share := range breakdown.Shares {
		sum = sum.Add(share.Amount)
	}
	// 90% of the 20.00 pool; the remainder is simply not distributed.
	if !sum.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("expected 18.00 distributed, got %s", sum)
	}
}

func TestCalculate_ZeroPercentage(t *testing.T) {
	breakdown, err := Calculate(decimal.NewFromInt(200), decimal.Zero, standardConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !breakdown.TotalCashback.IsZero() {
		t.Fatalf("expected zero total cashback, got %s", breakdown.TotalCashback)
	}
	for _, share := range breakdown.Shares {
		if !share.Amount.IsZero() {
			t.Fatalf("expected zero share for role %s, got %s", share.Role, share.Amount)
		}
	}
}

func TestCalculate_ZeroAmount(t *testing.T) {
	breakdown, err := Calculate(decimal.Zero, decimal.NewFromInt(10), standardConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !breakdown.TotalCashback.IsZero() {
		t.Fatalf("expected zero total cashback, got %s", breakdown.TotalCashback)
	}
}

func TestCalculate_RejectsNegativeAmount(t *testing.T) {
	_, err := Calculate(decimal.NewFromInt(-1), decimal.NewFromInt(10), standardConfig())
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCalculate_RejectsPercentageOutOfRange(t *testing.T) {
	for _, pct := range []string{"-0.01", "100.01"} {
		_, err := Calculate(decimal.NewFromInt(100), decimal.RequireFromString(pct), standardConfig())
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("percentage %s: expected validation error, got %v", pct, err)
		}
	}
}

func TestCalculate_RoundsHalfUpOncePerShare(t *testing.T) {
	// Pool of 0.25 split 50/25/12.5/12.5: the referrer raw shares are
	// 0.03125 and round half up to 0.03 each.
	breakdown, err := Calculate(decimal.NewFromFloat(2.50), decimal.NewFromInt(10), standardConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	referrer := shareFor(t, breakdown, enums.CashbackRoleConsumerReferrer)
	if !referrer.Amount.Equal(decimal.NewFromFloat(0.03)) {
		t.Fatalf("expected 0.03, got %s", referrer.Amount)
	}

	club := shareFor(t, breakdown, enums.CashbackRoleClub)
	// 0.0625 rounds down to 0.06.
	if !club.Amount.Equal(decimal.NewFromFloat(0.06)) {
		t.Fatalf("expected 0.06, got %s", club.Amount)
	}

	consumer := shareFor(t, breakdown, enums.CashbackRoleConsumer)
	// 0.125 is the tie case and rounds up to 0.13.
	if !consumer.Amount.Equal(decimal.NewFromFloat(0.13)) {
		t.Fatalf("expected 0.13, got %s", consumer.Amount)
	}
}
