package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TenantCashbackConfig stores a tenant's distribution percentages in the
// control-plane database. One row per tenant; never hard-deleted (tenant
// deactivation supersedes it). The four percentages should sum to 100, but
// the engine tolerates rows that do not.
type TenantCashbackConfig struct {
	ID                      uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID                uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex"`
	ConsumerPercent         decimal.Decimal `gorm:"column:consumer_percent;type:numeric(5,2);not null"`
	ClubPercent             decimal.Decimal `gorm:"column:club_percent;type:numeric(5,2);not null"`
	ConsumerReferrerPercent decimal.Decimal `gorm:"column:consumer_referrer_percent;type:numeric(5,2);not null"`
	MerchantReferrerPercent decimal.Decimal `gorm:"column:merchant_referrer_percent;type:numeric(5,2);not null"`
	CreatedAt               time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
