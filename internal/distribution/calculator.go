package distribution

import (
	"github.com/shopspring/decimal"

	"github.com/rewardloop/rewardloop-backend/internal/cashbackconfig"
	"github.com/rewardloop/rewardloop-backend/pkg/enums"
	pkgerrors "github.com/rewardloop/rewardloop-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Share is one role's slice of the cashback pool.
type Share struct {
	Role       enums.CashbackRole
	Percentage decimal.Decimal
	Amount     decimal.Decimal
}

// Breakdown is the computed split of a purchase's cashback across roles.
// Shares are ordered consumer, club, consumer referrer, merchant referrer.
type Breakdown struct {
	TotalCashback decimal.Decimal
	Shares        []Share
}

// Share amounts use a single rounding rule: round half up to 2 fraction
// digits, applied exactly once at the end of each share calculation. With a
// config summing to 100 the shares reconcile to the total within one cent.
func Calculate(totalAmount, cashbackPercentage decimal.Decimal, cfg cashbackconfig.Config) (Breakdown, error) {
	if totalAmount.IsNegative() {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "total amount must not be negative")
	}
	if cashbackPercentage.IsNegative() || cashbackPercentage.GreaterThan(hundred) {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "cashback percentage must be between 0 and 100")
	}

	pool := totalAmount.Mul(cashbackPercentage).Div(hundred)

	percents := map[enums.CashbackRole]decimal.Decimal{
		enums.CashbackRoleConsumer:         cfg.ConsumerPercent,
		enums.CashbackRoleClub:             cfg.ClubPercent,
		enums.CashbackRoleConsumerReferrer: cfg.ConsumerReferrerPercent,
		enums.CashbackRoleMerchantReferrer: cfg.MerchantReferrerPercent,
	}

	shares := make([]Share, 0, len(enums.AllCashbackRoles))
	for _, role := range enums.AllCashbackRoles {
		percent := percents[role]
		shares = append(shares, Share{
			Role:       role,
			Percentage: percent,
			Amount:     pool.Mul(percent).Div(hundred).Round(2),
		})
	}

	return Breakdown{
		TotalCashback: pool.Round(2),
		Shares:        shares,
	}, nil
}
