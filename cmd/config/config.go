package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var loadConfigOnce sync.Once
var configInstance AppConfig

// LoadConfig reads console.yaml and OPSCONSOLE_* variables once. A missing
// file is not an error; defaults apply.
func LoadConfig() AppConfig {
	loadConfigOnce.Do(func() {
		viper.SetEnvPrefix("opsconsole")
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.SetConfigName("console")
		viper.AddConfigPath("config")
		viper.AddConfigPath("/config")
		viper.AddConfigPath("$HOME/.opsconsole")

		cfg, err := Load(viper.GetViper())
		if err != nil {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
		configInstance = cfg
	})

	return configInstance
}

// Load reads the configuration held by v, applying defaults first.
func Load(v *viper.Viper) (AppConfig, error) {
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, err
		}
	}

	return AppConfig{
		General: GeneralConfig{
			LogLevel:  v.GetString("general.log_level"),
			LogFormat: v.GetString("general.log_format"),
		},
		API: APIConfig{
			BaseURLTemplate: v.GetString("api.base_url"),
			RefreshPath:     v.GetString("api.refresh_path"),
			Timeout:         v.GetDuration("api.timeout"),
			RateLimit:       v.GetFloat64("api.rate_limit"),
			Burst:           v.GetInt("api.burst"),
		},
		Session: SessionConfig{
			IdleTimeout:     v.GetDuration("session.idle_timeout"),
			WarningDuration: v.GetDuration("session.warning_duration"),
			Events:          v.GetStringSlice("session.events"),
		},
		Storage: StorageConfig{
			Backend: v.GetString("storage.backend"),
			Path:    v.GetString("storage.path"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Prefix:   v.GetString("redis.prefix"),
			Channel:  v.GetString("redis.channel"),
		},
		Options: OptionsConfig{
			CacheTTL:        v.GetDuration("options.cache_ttl"),
			RefreshSchedule: v.GetString("options.refresh_schedule"),
		},
		Sandbox: SandboxConfig{
			Port:       v.GetInt("sandbox.port"),
			DSN:        v.GetString("sandbox.dsn"),
			OTP:        v.GetString("sandbox.otp"),
			Secret:     v.GetString("sandbox.secret"),
			AccessTTL:  v.GetDuration("sandbox.access_ttl"),
			RefreshTTL: v.GetDuration("sandbox.refresh_ttl"),
			Tenants:    v.GetStringSlice("sandbox.tenants"),
			Mail: MailConfig{
				MailerSendAPIKey: v.GetString("sandbox.mail.mailersend_api_key"),
				FromEmail:        v.GetString("sandbox.mail.from_email"),
				FromName:         v.GetString("sandbox.mail.from_name"),
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName:  v.GetString("telemetry.service_name"),
			OTLPEndpoint: v.GetString("telemetry.otlp_endpoint"),
			Interval:     v.GetDuration("telemetry.interval"),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.log_format", "console")
	v.SetDefault("api.base_url", "http://localhost:3000/{tenant}/api")
	v.SetDefault("api.refresh_path", "/auth/token/refresh/")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.burst", 5)
	v.SetDefault("session.idle_timeout", 15*time.Minute)
	v.SetDefault("session.warning_duration", 60*time.Second)
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "$HOME/.opsconsole/storage.json")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", "opsconsole:")
	v.SetDefault("redis.channel", "opsconsole:storage")
	v.SetDefault("options.cache_ttl", 5*time.Minute)
	v.SetDefault("options.refresh_schedule", "*/5 * * * *")
	v.SetDefault("sandbox.port", 3000)
	v.SetDefault("sandbox.dsn", "")
	v.SetDefault("sandbox.otp", "123456")
	v.SetDefault("sandbox.secret", "sandbox-secret")
	v.SetDefault("sandbox.access_ttl", 5*time.Minute)
	v.SetDefault("sandbox.refresh_ttl", 24*time.Hour)
	v.SetDefault("sandbox.tenants", []string{"acme"})
	v.SetDefault("sandbox.mail.from_email", "no-reply@opsconsole.test")
	v.SetDefault("sandbox.mail.from_name", "Ops Console")
	v.SetDefault("telemetry.service_name", "opsconsole")
	v.SetDefault("telemetry.interval", 30*time.Second)
}

type AppConfig struct {
	General   GeneralConfig
	API       APIConfig
	Session   SessionConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Options   OptionsConfig
	Sandbox   SandboxConfig
	Telemetry TelemetryConfig
}

type GeneralConfig struct {
	LogLevel  string
	LogFormat string
}

type APIConfig struct {
	BaseURLTemplate string
	RefreshPath     string
	Timeout         time.Duration
	RateLimit       float64
	Burst           int
}

type SessionConfig struct {
	IdleTimeout     time.Duration
	WarningDuration time.Duration
	Events          []string
}

type StorageConfig struct {
	Backend string
	Path    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Channel  string
}

type OptionsConfig struct {
	CacheTTL        time.Duration
	RefreshSchedule string
}

type SandboxConfig struct {
	Port       int
	DSN        string
	OTP        string
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Tenants    []string
	Mail       MailConfig
}

// MailConfig selects how the sandbox delivers verification codes. Without an
// api key codes only go to the log.
type MailConfig struct {
	MailerSendAPIKey string
	FromEmail        string
	FromName         string
}

type TelemetryConfig struct {
	ServiceName  string
	OTLPEndpoint string
	Interval     time.Duration
}
