package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rewardloop/rewardloop-backend/pkg/enums"
)

// CashbackEntry is one immutable ledger line of a purchase's distribution.
// RecipientID is nil when the role's share resolved to no identity (missing
// referrer); the amount is still part of the recorded total. The unique index
// on (purchase_id, role) is the idempotency guard for concurrent distribution.
type CashbackEntry struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseID        uuid.UUID          `gorm:"column:purchase_id;type:uuid;not null;uniqueIndex:ux_cashback_entries_purchase_role"`
	Role              enums.CashbackRole `gorm:"column:role;type:cashback_role_enum;not null;uniqueIndex:ux_cashback_entries_purchase_role"`
	RecipientID       *uuid.UUID         `gorm:"column:recipient_id;type:uuid"`
	Amount            decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	PercentageApplied decimal.Decimal    `gorm:"column:percentage_applied;type:numeric(5,2);not null"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
}
