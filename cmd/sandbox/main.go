package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"opsconsole/cmd/config"
	"opsconsole/cmd/sandbox/wire"
	"opsconsole/internal/infra/telemetry"
	"opsconsole/internal/logger"
)

func main() {
	cfg := config.LoadConfig()

	flush, err := logger.Install(cfg.General.LogLevel, cfg.General.LogFormat)
	if err != nil {
		panic(err)
	}
	defer flush()

	slog.Info("sandbox is initializing", slog.Any("tenants", cfg.Sandbox.Tenants))

	shutdownOtel, err := telemetry.Start(context.Background(), telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName + "-sandbox",
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Interval:     cfg.Telemetry.Interval,
	})
	if err != nil {
		panic(err)
	}

	server, cleanup, err := wire.InitializeSandboxServer(context.Background())
	if err != nil {
		slog.Error("failed to initialize sandbox", slog.String("error", err.Error()))
		panic(err)
	}

	go server.Run()
	slog.Info("sandbox listening", slog.String("addr", server.Addr()))

	signalChannel := make(chan os.Signal, 2)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)

	<-signalChannel
	server.Shutdown()
	cleanup()
	if err := shutdownOtel(); err != nil {
		slog.Error("shutting down otel", slog.String("error", err.Error()))
	}
	slog.Info("good bye!!!")
}
