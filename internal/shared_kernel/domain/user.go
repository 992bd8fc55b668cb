package domain

import "slices"

// Account is the profile of the signed-in user as reported by the backend.
type Account struct {
	ID          ID           `json:"id"`
	Email       Email        `json:"email"`
	Tenant      TenantSchema `json:"tenant_schema_name"`
	Permissions []string     `json:"permissions"`
}

func (a *Account) HasPermission(permission string) bool {
	return slices.Contains(a.Permissions, permission)
}

func (a *Account) GrantPermission(permission string) {
	if a.HasPermission(permission) {
		return
	}
	a.Permissions = append(a.Permissions, permission)
}

func (a *Account) RevokePermission(permission string) {
	a.Permissions = slices.DeleteFunc(a.Permissions, func(p string) bool {
		return p == permission
	})
}
