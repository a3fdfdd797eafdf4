package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rewardloop/rewardloop-backend/pkg/enums"
)

// Purchase is a completed checkout in a tenant database. CashbackPercentage
// snapshots the product rate at purchase time. DistributedAt is the
// distribution marker: non-nil once cashback entries exist for this purchase.
type Purchase struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ConsumerID         uuid.UUID            `gorm:"column:consumer_id;type:uuid;not null"`
	MerchantID         uuid.UUID            `gorm:"column:merchant_id;type:uuid;not null"`
	ProductID          uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	TotalAmount        decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null"`
	CashbackPercentage decimal.Decimal      `gorm:"column:cashback_percentage;type:numeric(5,2);not null"`
	Status             enums.PurchaseStatus `gorm:"column:status;type:purchase_status_enum;not null;default:'pending'"`
	DistributedAt      *time.Time           `gorm:"column:distributed_at"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
