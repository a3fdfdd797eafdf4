package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/pkg/config"
	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
	"github.com/rewardloop/rewardloop-backend/pkg/tenant"
)

func setupRegistry(t *testing.T, tenants ...*models.Tenant) *tenant.Registry {
	t.Helper()

	control, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open control db: %v", err)
	}
	schema := `
CREATE TABLE IF NOT EXISTS tenants (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  db_name TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := control.Exec(schema).Error; err != nil {
		t.Fatalf("create tenants table: %v", err)
	}
	for _, row := range tenants {
		if err := control.Create(row).Error; err != nil {
			t.Fatalf("seed tenant %s: %v", row.Slug, err)
		}
	}

	opener := func(string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	}
	registry, err := tenant.NewRegistry(config.TenantDBConfig{DSNTemplate: "postgres://svc@db:5432/%s"}, control, nil, opener)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	t.Cleanup(func() { _ = registry.Close() })
	return registry
}

func activeTenant(slug string) *models.Tenant {
	return &models.Tenant{
		ID:       uuid.New(),
		Name:     slug,
		Slug:     slug,
		DBName:   "tenant_" + slug,
		IsActive: true,
	}
}

func TestTenantContextRequiresHeader(t *testing.T) {
	registry := setupRegistry(t)
	handlerCalled := false
	handler := TenantContext(registry, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cashback/config", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without tenant header, got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatal("handler should not run without a tenant")
	}
}

func TestTenantContextUnknownTenant(t *testing.T) {
	registry := setupRegistry(t)
	handler := TenantContext(registry, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run for an unknown tenant")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cashback/config", nil)
	req.Header.Set("X-Tenant-Slug", "ghost")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown slug, got %d", resp.Code)
	}
}

func TestTenantContextInactiveTenant(t *testing.T) {
	dormant := activeTenant("dormant")
	dormant.IsActive = false
	registry := setupRegistry(t, dormant)
	handler := TenantContext(registry, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run for a deactivated tenant")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cashback/config", nil)
	req.Header.Set("X-Tenant-Slug", "dormant")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a deactivated tenant, got %d", resp.Code)
	}
}

func TestTenantContextResolvesTenantAndHandle(t *testing.T) {
	acme := activeTenant("acme")
	registry := setupRegistry(t, acme)

	var gotSlug string
	var gotHandle *gorm.DB
	handler := TenantContext(registry, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSlug = TenantSlugFromContext(r.Context())
		gotHandle = TenantDBFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cashback/config", nil)
	req.Header.Set("X-Tenant-Slug", "acme")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotSlug != "acme" {
		t.Fatalf("expected resolved slug acme, got %q", gotSlug)
	}
	if gotHandle == nil {
		t.Fatal("expected the tenant database handle in context")
	}
}
