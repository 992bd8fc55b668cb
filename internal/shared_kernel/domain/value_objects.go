package domain

import (
	"errors"
	"fmt"
	"regexp"
)

type ID string

func (vo ID) String() string {
	return string(vo)
}

type Name string
type Email string

// TenantSchema is the schema name a tenant is addressed by. It doubles as the
// subdomain of the tenant's API host and the first segment of console routes.
type TenantSchema string

var ErrInvalidTenantSchema = errors.New("invalid tenant schema")

var tenantSchemaPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

func (t TenantSchema) String() string {
	return string(t)
}

func (t TenantSchema) Validate() error {
	if !tenantSchemaPattern.MatchString(string(t)) {
		return fmt.Errorf("%w: %q", ErrInvalidTenantSchema, string(t))
	}
	return nil
}
