package sandbox

import (
	"context"
	"fmt"

	"opsconsole/internal/infra/httpserver"
	"opsconsole/internal/infra/notification"
	"opsconsole/internal/infra/sql"
)

// NewSeededStore migrates the database behind orm and seeds cfg's tenants.
func NewSeededStore(ctx context.Context, orm sql.ORM, cfg Config) (*Store, error) {
	store, err := NewStore(orm)
	if err != nil {
		return nil, err
	}
	if err := Seed(ctx, store, cfg); err != nil {
		return nil, fmt.Errorf("seeding: %w", err)
	}
	return store, nil
}

// NewServer builds the sandbox http server around a seeded store. Codes are
// mailed through mailer.
func NewServer(store *Store, mailer notification.EmailSender, cfg Config, httpCfg httpserver.Config) *httpserver.StandardServer {
	controller := NewController(store, NewIssuer(cfg), mailer, cfg)
	return httpserver.NewServer(httpCfg, controller)
}
