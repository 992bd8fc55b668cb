package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"opsconsole/cmd/config"
	"opsconsole/internal/cli"
	"opsconsole/internal/infra/telemetry"
)

func main() {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	shutdownOtel, err := telemetry.Start(ctx, telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Interval:     cfg.Telemetry.Interval,
	})
	if err != nil {
		panic(err)
	}

	app := cli.NewApp(cfg)
	app.InstallLogger = true
	runErr := app.Execute(ctx, os.Args[1:]...)

	if err := shutdownOtel(); err != nil {
		slog.Error("shutting down otel", slog.String("error", err.Error()))
	}
	stop()
	if runErr != nil {
		os.Exit(1)
	}
}
