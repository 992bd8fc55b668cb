package access

import (
	"strings"

	"opsconsole/internal/shared_kernel/domain"
)

const (
	UserPath = "/users/"
	RolePath = "/roles/"
)

type User struct {
	ID        domain.ID `json:"id,omitempty"`
	Email     string    `json:"email" validate:"required,email"`
	FirstName string    `json:"first_name" validate:"required"`
	LastName  string    `json:"last_name" validate:"required"`
	Role      domain.ID `json:"role" validate:"required"`
	IsActive  bool      `json:"is_active"`
}

func (u User) ResourceID() domain.ID { return u.ID }

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type Role struct {
	ID          domain.ID `json:"id,omitempty"`
	Name        string    `json:"name" validate:"required,max=64"`
	Permissions []string  `json:"permissions" validate:"dive,required"`
}

func (r Role) ResourceID() domain.ID { return r.ID }

// Account builds the session account of a user holding this role.
func (r Role) Account(user User, tenant domain.TenantSchema) domain.Account {
	account := domain.Account{ID: user.ID, Email: domain.Email(user.Email), Tenant: tenant}
	for _, permission := range r.Permissions {
		account.GrantPermission(permission)
	}
	return account
}
