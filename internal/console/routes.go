package console

import (
	"net/url"
	"strings"

	"opsconsole/internal/shared_kernel/domain"
)

// LoginEntry is the login page used when no tenant is known.
const LoginEntry = "/login"

const (
	EntityInternalTransfer = "inventory/internal-transfer"
	EntityScrap            = "inventory/scrap"
	EntityStockMove        = "inventory/stock-move"
	EntityProduct          = "inventory/product"
	EntityLocation         = "inventory/location"
	EntityPurchaseRequest  = "purchase/purchase-request"
	EntityVendor           = "purchase/vendor"
	EntityUser             = "users"
	EntityRole             = "roles"
)

func Login(tenant domain.TenantSchema) string {
	if tenant.Validate() != nil {
		return LoginEntry
	}
	return join(tenant, "login")
}

func Dashboard(tenant domain.TenantSchema) string {
	return join(tenant, "dashboard")
}

func List(tenant domain.TenantSchema, entity string) string {
	return join(tenant, entity)
}

func Detail(tenant domain.TenantSchema, entity string, id domain.ID) string {
	return join(tenant, entity, url.PathEscape(id.String()))
}

func Create(tenant domain.TenantSchema, entity string) string {
	return join(tenant, entity, "new")
}

// TenantOf returns the tenant segment of a console route.
func TenantOf(route string) (domain.TenantSchema, bool) {
	first, _, _ := strings.Cut(strings.TrimPrefix(route, "/"), "/")
	tenant := domain.TenantSchema(first)
	if tenant.Validate() != nil || first == "login" {
		return "", false
	}
	return tenant, true
}

func join(tenant domain.TenantSchema, segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, tenant.String())
	for _, s := range segments {
		parts = append(parts, strings.Trim(s, "/"))
	}
	return "/" + strings.Join(parts, "/")
}
