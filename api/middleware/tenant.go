package middleware

import (
	"net/http"
	"strings"

	"github.com/rewardloop/rewardloop-backend/api/responses"
	pkgerrors "github.com/rewardloop/rewardloop-backend/pkg/errors"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
	"github.com/rewardloop/rewardloop-backend/pkg/tenant"
)

const tenantSlugHeader = "X-Tenant-Slug"

// TenantContext resolves the tenant named by the X-Tenant-Slug header and
// attaches the tenant row plus its database handle to the request context.
// Upstream auth is trusted to have verified the caller belongs to the tenant.
func TenantContext(registry *tenant.Registry, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := strings.TrimSpace(r.Header.Get(tenantSlugHeader))
			if slug == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Tenant-Slug header required"))
				return
			}

			row, handle, err := registry.BySlug(r.Context(), slug)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithTenant(r.Context(), row, handle)
			if logg != nil {
				ctx = logg.WithTenantID(ctx, row.ID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
