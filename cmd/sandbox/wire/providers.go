package wire

import (
	"log/slog"

	"opsconsole/cmd/config"
	"opsconsole/internal/infra/httpserver"
	"opsconsole/internal/infra/notification"
	"opsconsole/internal/infra/sql"
	"opsconsole/internal/sandbox"
)

func provideAppConfig() config.AppConfig {
	return config.LoadConfig()
}

func provideSandboxConfig(cfg config.AppConfig) sandbox.Config {
	return sandbox.Config{
		OTP:        cfg.Sandbox.OTP,
		Secret:     cfg.Sandbox.Secret,
		AccessTTL:  cfg.Sandbox.AccessTTL,
		RefreshTTL: cfg.Sandbox.RefreshTTL,
		Tenants:    cfg.Sandbox.Tenants,
	}
}

func provideHTTPConfig(cfg config.AppConfig) httpserver.Config {
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Port = cfg.Sandbox.Port
	return httpCfg
}

func provideDatabase(cfg config.AppConfig) (sql.ORM, func(), error) {
	db, err := sql.Open(cfg.Sandbox.DSN)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			slog.Error("closing database", slog.String("error", err.Error()))
		}
	}
	return db, cleanup, nil
}

func provideMailer(cfg config.AppConfig) notification.EmailSender {
	mail := cfg.Sandbox.Mail
	if mail.MailerSendAPIKey == "" {
		return notification.NewOutbox()
	}
	return notification.NewMailerSendClient(notification.MailerSendConfig{
		APIKey:    mail.MailerSendAPIKey,
		FromEmail: mail.FromEmail,
		FromName:  mail.FromName,
	})
}
