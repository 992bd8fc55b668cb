package sandbox

import "time"

const (
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
	DefaultOTP        = "123456"
	DefaultPassword   = "password"
)

type Config struct {
	OTP        string
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Tenants    []string
}

// AdminEmail is the seeded administrator of a tenant.
func AdminEmail(tenant string) string {
	return "admin@" + tenant + ".test"
}
