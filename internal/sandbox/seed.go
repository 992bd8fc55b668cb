package sandbox

import (
	"context"
	"fmt"
	"log/slog"
)

// Seeded product ids, stable across runs.
const (
	ProductBolt   = "prd-bolt"
	ProductNut    = "prd-nut"
	ProductWasher = "prd-washer"

	LocationMain  = "loc-main"
	LocationAnnex = "loc-annex"

	VendorSupplies = "ven-supplies"
	RoleAdmin  = "role-admin"
	UserAdmin  = "usr-admin"
)

var adminPermissions = []string{
	"inventory.view", "inventory.manage",
	"purchase.view", "purchase.manage", "purchase.approve",
	"access.view", "access.manage",
}

func fixtures(tenant string) map[string][]Document {
	return map[string][]Document{
		products: {
			{"id": ProductBolt, "name": "Bolt M8", "sku": "BLT-M8", "uom": "pcs", "description": "Hex bolt M8x40", "available_quantity": 100.0},
			{"id": ProductNut, "name": "Nut M8", "sku": "NUT-M8", "uom": "pcs", "description": "Hex nut M8", "available_quantity": 50.0},
			{"id": ProductWasher, "name": "Washer M8", "sku": "WSH-M8", "uom": "pcs", "description": "Flat washer M8", "available_quantity": 0.0},
		},
		locations: {
			{"id": LocationMain, "name": "Main Warehouse", "code": "WH"},
			{"id": LocationAnnex, "name": "Annex", "code": "AX"},
		},
		vendors: {
			{"id": VendorSupplies, "name": "General Supplies", "email": "sales@supplies.test"},
		},
		roles: {
			{"id": RoleAdmin, "name": "Administrator", "permissions": adminPermissions},
		},
		users: {
			{"id": UserAdmin, "email": AdminEmail(tenant), "first_name": "Ada", "last_name": "Admin", "role": RoleAdmin, "is_active": true},
		},
	}
}

// Seed loads the demo catalog and the administrator credential of every
// configured tenant. Existing fixture documents are reset.
func Seed(ctx context.Context, store *Store, cfg Config) error {
	for _, tenant := range cfg.Tenants {
		for coll, docs := range fixtures(tenant) {
			for _, doc := range docs {
				if _, err := store.Put(ctx, tenant, coll, doc); err != nil {
					return fmt.Errorf("seeding %s for %s: %w", coll, tenant, err)
				}
			}
		}

		err := store.AddCredential(ctx, tenant, DefaultPassword, Account{
			UserID:      UserAdmin,
			Email:       AdminEmail(tenant),
			Permissions: adminPermissions,
		})
		if err != nil {
			return fmt.Errorf("seeding credential for %s: %w", tenant, err)
		}
		slog.Info("sandbox tenant seeded", slog.String("tenant", tenant), slog.String("email", AdminEmail(tenant)))
	}
	return nil
}
