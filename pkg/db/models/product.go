package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a tenant-scoped listing carrying the cashback rate applied to
// purchases of it.
type Product struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID         uuid.UUID       `gorm:"column:merchant_id;type:uuid;not null"`
	Name               string          `gorm:"column:name;not null"`
	Price              decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CashbackPercentage decimal.Decimal `gorm:"column:cashback_percentage;type:numeric(5,2);not null"`
	IsActive           bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
