package middleware

import (
	"context"

	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
)

type contextKey string

const (
	ctxTenant   contextKey = "tenant"
	ctxTenantDB contextKey = "tenant_db"
)

// WithTenant injects the resolved tenant and its database handle.
func WithTenant(ctx context.Context, tenant *models.Tenant, handle *gorm.DB) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxTenant, tenant)
	return context.WithValue(ctx, ctxTenantDB, handle)
}

// TenantFromContext returns the tenant resolved by TenantContext, or nil.
func TenantFromContext(ctx context.Context) *models.Tenant {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxTenant).(*models.Tenant); ok {
		return v
	}
	return nil
}

// TenantDBFromContext returns the tenant database handle, or nil.
func TenantDBFromContext(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxTenantDB).(*gorm.DB); ok {
		return v
	}
	return nil
}

// TenantSlugFromContext returns the resolved tenant's slug, or "".
func TenantSlugFromContext(ctx context.Context) string {
	if tenant := TenantFromContext(ctx); tenant != nil {
		return tenant.Slug
	}
	return ""
}
