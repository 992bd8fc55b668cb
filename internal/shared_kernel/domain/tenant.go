package domain

import (
	"net"
	"strings"
)

type Tenant struct {
	Schema TenantSchema
	Name   string
}

// TenantFromHost extracts the tenant schema from the leftmost label of a
// subdomain-scoped host such as "acme.api.example.com".
func TenantFromHost(host string) (TenantSchema, bool) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return "", false
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return "", false
	}
	schema := TenantSchema(strings.ToLower(labels[0]))
	if schema.Validate() != nil {
		return "", false
	}
	return schema, true
}

func NewTenantBuilder() *tenantBuilder {
	return &tenantBuilder{}
}

type tenantBuilder struct {
	actions []tenantHandler
}

type tenantHandler func(t *Tenant) error

func (b *tenantBuilder) WithSchema(schema string) *tenantBuilder {
	b.actions = append(b.actions, func(t *Tenant) error {
		s := TenantSchema(schema)
		if err := s.Validate(); err != nil {
			return err
		}
		t.Schema = s
		return nil
	})
	return b
}

func (b *tenantBuilder) WithName(name string) *tenantBuilder {
	b.actions = append(b.actions, func(t *Tenant) error {
		t.Name = name
		return nil
	})
	return b
}

func (b *tenantBuilder) Build() (Tenant, error) {
	var result Tenant
	for _, action := range b.actions {
		if err := action(&result); err != nil {
			return Tenant{}, err
		}
	}
	if result.Schema == "" {
		return Tenant{}, ErrInvalidTenantSchema
	}
	if result.Name == "" {
		result.Name = result.Schema.String()
	}
	return result, nil
}
