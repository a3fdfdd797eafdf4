package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the GORM handle shared by domain repositories. Tenant-scoped
// repositories are constructed against the tenant's connection, control-plane
// repositories against the shared one.
type Base struct {
	db *gorm.DB
}

// NewBase wraps the provided connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx when one is supplied.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
