package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a tenant-scoped identity. ReferredBy holds the opaque referral code
// of whoever referred this user; ReferralID is the code this user hands out.
// Referral chains resolve through the code indirection, not a foreign key, so
// stale or foreign codes never violate a constraint.
type User struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email      string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name       string    `gorm:"column:name;not null"`
	ReferredBy *string   `gorm:"column:referred_by"`
	ReferralID *string   `gorm:"column:referral_id;uniqueIndex"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
