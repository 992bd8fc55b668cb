//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"opsconsole/internal/infra/httpserver"
	"opsconsole/internal/sandbox"

	"github.com/google/wire"
)

func InitializeSandboxServer(ctx context.Context) (*httpserver.StandardServer, func(), error) {
	wire.Build(
		provideAppConfig,
		provideSandboxConfig,
		provideHTTPConfig,
		provideDatabase,
		provideMailer,
		sandbox.NewSeededStore,
		sandbox.NewServer,
	)
	return nil, nil, nil
}
