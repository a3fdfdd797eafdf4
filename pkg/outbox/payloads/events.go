package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rewardloop/rewardloop-backend/pkg/enums"
)

// CashbackShare is one distributed line inside a CashbackDistributedEvent.
type CashbackShare struct {
	Role              enums.CashbackRole `json:"role"`
	RecipientID       *uuid.UUID         `json:"recipientId,omitempty"`
	Amount            decimal.Decimal    `json:"amount"`
	PercentageApplied decimal.Decimal    `json:"percentageApplied"`
}

// CashbackDistributedEvent announces a recorded distribution so downstream
// notification and reporting consumers can react. Delivery is best effort
// from the engine's perspective.
type CashbackDistributedEvent struct {
	TenantID           uuid.UUID       `json:"tenantId"`
	PurchaseID         uuid.UUID       `json:"purchaseId"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	CashbackPercentage decimal.Decimal `json:"cashbackPercentage"`
	TotalCashback      decimal.Decimal `json:"totalCashback"`
	Shares             []CashbackShare `json:"shares"`
}

// CashbackConfigUpdatedEvent announces an admin change to the percentages.
type CashbackConfigUpdatedEvent struct {
	TenantID                uuid.UUID       `json:"tenantId"`
	ConsumerPercent         decimal.Decimal `json:"consumerPercent"`
	ClubPercent             decimal.Decimal `json:"clubPercent"`
	ConsumerReferrerPercent decimal.Decimal `json:"consumerReferrerPercent"`
	MerchantReferrerPercent decimal.Decimal `json:"merchantReferrerPercent"`
}
