package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is a control-plane row describing an isolated customer organization.
// Each tenant owns a dedicated transactional database named by DBName.
type Tenant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;type:text;not null;uniqueIndex"`
	DBName    string    `gorm:"column:db_name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
