package tenant

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/pkg/config"
	"github.com/rewardloop/rewardloop-backend/pkg/db"
	dbmodels "github.com/rewardloop/rewardloop-backend/pkg/db/models"
	pkgerrors "github.com/rewardloop/rewardloop-backend/pkg/errors"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
)

// Opener dials a tenant DSN. Overridable in tests.
type Opener func(dsn string) (*gorm.DB, error)

// Registry resolves tenant identities from the control-plane tenants table and
// hands out connected GORM handles scoped to exactly one tenant database.
// Handles are cached per tenant for the process lifetime.
type Registry struct {
	cfg     config.TenantDBConfig
	control *gorm.DB
	logg    *logger.Logger
	opener  Opener

	mu      sync.RWMutex
	handles map[uuid.UUID]*gorm.DB
}

// NewRegistry wires a registry over the control-plane connection.
func NewRegistry(cfg config.TenantDBConfig, control *gorm.DB, logg *logger.Logger, opener Opener) (*Registry, error) {
	if control == nil {
		return nil, fmt.Errorf("control-plane connection required")
	}
	if opener == nil {
		opener = db.Open
	}
	return &Registry{
		cfg:     cfg,
		control: control,
		logg:    logg,
		opener:  opener,
		handles: make(map[uuid.UUID]*gorm.DB),
	}, nil
}

// BySlug resolves the tenant addressed by slug and returns it together with a
// connected handle to its data store.
func (r *Registry) BySlug(ctx context.Context, slug string) (*dbmodels.Tenant, *gorm.DB, error) {
	if slug == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant slug required")
	}
	var tenant dbmodels.Tenant
	if err := r.control.WithContext(ctx).Where("slug = ?", slug).First(&tenant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading tenant")
	}
	handle, err := r.Handle(ctx, &tenant)
	if err != nil {
		return nil, nil, err
	}
	return &tenant, handle, nil
}

// ByID resolves a tenant by primary key and returns its data-store handle.
func (r *Registry) ByID(ctx context.Context, tenantID uuid.UUID) (*dbmodels.Tenant, *gorm.DB, error) {
	if tenantID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	var tenant dbmodels.Tenant
	if err := r.control.WithContext(ctx).Where("id = ?", tenantID).First(&tenant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading tenant")
	}
	handle, err := r.Handle(ctx, &tenant)
	if err != nil {
		return nil, nil, err
	}
	return &tenant, handle, nil
}

// Handle returns the cached connection for the tenant, dialing on first use.
// Inactive tenants are refused before any connection is made.
func (r *Registry) Handle(ctx context.Context, tenant *dbmodels.Tenant) (*gorm.DB, error) {
	if tenant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant required")
	}
	if !tenant.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant is deactivated")
	}

	r.mu.RLock()
	handle, ok := r.handles[tenant.ID]
	r.mu.RUnlock()
	if ok {
		return handle, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if handle, ok := r.handles[tenant.ID]; ok {
		return handle, nil
	}

	dsn, err := r.cfg.TenantDSN(tenant.DBName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building tenant DSN")
	}
	conn, err := r.opener(dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "connecting tenant database")
	}
	if sqlDB, err := conn.DB(); err == nil {
		db.ApplyPoolSettings(sqlDB, db.PoolSettings{
			MaxOpenConns:    r.cfg.MaxOpenConns,
			MaxIdleConns:    r.cfg.MaxIdleConns,
			ConnMaxLifetime: r.cfg.ConnMaxLifetime,
			ConnMaxIdleTime: r.cfg.ConnMaxIdleTime,
		})
	}

	r.handles[tenant.ID] = conn
	if r.logg != nil {
		logCtx := r.logg.WithTenantID(ctx, tenant.ID.String())
		r.logg.Info(logCtx, "tenant database connection established")
	}
	return conn, nil
}

// Close shuts down every cached tenant connection.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for id, conn := range r.handles {
		if sqlDB, err := conn.DB(); err == nil {
			if closeErr := sqlDB.Close(); closeErr != nil && firstErr == nil {
				firstErr = closeErr
			}
		}
		delete(r.handles, id)
	}
	return firstErr
}
