package access

import (
	"opsconsole/internal/infra/tenantclient"
	"opsconsole/internal/resource"
)

var userMessages = map[string]string{
	"email.required":      "Email is required",
	"email.email":         "Enter a valid email address",
	"first_name.required": "First name is required",
	"last_name.required":  "Last name is required",
	"role.required":       "Role is required",
}

var roleMessages = map[string]string{
	"name.required":          "Name is required",
	"name.max":               "Name must be at most 64 characters",
	"permissions.*.required": "Permission cannot be empty",
}

func ValidateUser(u User) error {
	return resource.Validate(u, userMessages).OrNil()
}

func ValidateRole(r Role) error {
	return resource.Validate(r, roleMessages).OrNil()
}

type Providers struct {
	Users *resource.Provider[User]
	Roles *resource.Provider[Role]
}

func NewProviders(requester tenantclient.Requester) *Providers {
	return &Providers{
		Users: resource.NewProvider[User](requester, UserPath, resource.WithValidator(ValidateUser)),
		Roles: resource.NewProvider[Role](requester, RolePath, resource.WithValidator(ValidateRole)),
	}
}
