package distribution

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/internal/purchases"
	"github.com/rewardloop/rewardloop-backend/internal/users"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
	"github.com/rewardloop/rewardloop-backend/pkg/metrics"
)

// Factory builds tenant-bound distribution services from shared
// dependencies. Repositories and the recorder are cheap structs, so binding
// them per request against the tenant's handle costs nothing.
type Factory struct {
	configs configResolver
	emitter outboxEmitter
	metrics *metrics.DistributionMetrics
	logg    *logger.Logger
}

// NewFactory wires the dependencies shared across tenants.
func NewFactory(configs configResolver, emitter outboxEmitter, m *metrics.DistributionMetrics, logg *logger.Logger) (*Factory, error) {
	if configs == nil {
		return nil, fmt.Errorf("config resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Factory{
		configs: configs,
		emitter: emitter,
		metrics: m,
		logg:    logg,
	}, nil
}

// ForTenant binds a distribution service to a tenant database handle.
func (f *Factory) ForTenant(tenantDB *gorm.DB) (Service, error) {
	if tenantDB == nil {
		return nil, fmt.Errorf("tenant database required")
	}

	purchaseRepo := purchases.NewRepository(tenantDB)
	entryRepo := NewRepository(tenantDB)

	resolver, err := NewReferralResolver(users.NewRepository(tenantDB))
	if err != nil {
		return nil, err
	}
	rec, err := NewRecorder(tenantDB, purchaseRepo, entryRepo, f.logg)
	if err != nil {
		return nil, err
	}

	return NewService(purchaseRepo, entryRepo, resolver, rec, f.configs, f.emitter, f.metrics, f.logg)
}
