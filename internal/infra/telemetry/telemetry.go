package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"opsconsole/internal/infra/node"
)

type ShutdownFunc func() error

const (
	_collectPeriod   = 30 * time.Second
	_minimumInterval = time.Minute
)

var (
	_histogramBuckets = []float64{5, 10, 25, 50, 75, 100, 250, 500, 750, 1000, 2500, 5000, 7500, 10000, 25000, 50000, 100000}
)

type Config struct {
	ServiceName string
	// OTLPEndpoint is the collector's gRPC address. Without it metrics are
	// still recorded in-process but nothing is exported.
	OTLPEndpoint string
	Interval     time.Duration
}

// Start installs the global meter and tracer providers plus the b3
// propagator, and starts runtime instrumentation.
func Start(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	slog.Info("starting OTel providers", slog.String("endpoint", cfg.OTLPEndpoint))
	otel.SetTextMapPropagator(b3.New())

	info := node.GetNodeInfo()
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(info.Version),
		semconv.ServiceInstanceID(info.ID),
		semconv.HostName(info.Hostname),
	)

	metricsShutdown, err := startMetricsProvider(ctx, cfg, res)
	if err != nil {
		return nil, err
	}

	traceShutdown, err := startTraceProvider(ctx, cfg, res)
	if err != nil {
		return nil, errors.Join(err, metricsShutdown())
	}

	return func() error {
		return errors.Join(metricsShutdown(), traceShutdown())
	}, nil
}

func startMetricsProvider(ctx context.Context, cfg Config, res *resource.Resource) (ShutdownFunc, error) {
	opts := []metric.Option{
		metric.WithResource(res),
		metric.WithView(metric.NewView(
			metric.Instrument{
				Name: "*",
				Kind: metric.InstrumentKindHistogram,
			},
			metric.Stream{
				Aggregation: metric.AggregationExplicitBucketHistogram{
					Boundaries: _histogramBuckets,
				},
			},
		)),
	}

	if cfg.OTLPEndpoint != "" {
		exp, err := otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, err
		}

		interval := cfg.Interval
		if interval <= 0 {
			interval = _collectPeriod
		}
		opts = append(opts, metric.WithReader(
			metric.NewPeriodicReader(
				exp,
				metric.WithTimeout(interval+5*time.Second),
				metric.WithInterval(interval))))
	}

	mp := metric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(_minimumInterval))
	if err != nil {
		return nil, err
	}

	return func() error {
		return mp.Shutdown(context.Background())
	}, nil
}

func startTraceProvider(ctx context.Context, cfg Config, res *resource.Resource) (ShutdownFunc, error) {
	opts := []trace.TracerProviderOption{trace.WithResource(res)}

	if cfg.OTLPEndpoint != "" {
		exp, err := otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, trace.WithBatcher(exp))
	}

	tp := trace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	return func() error {
		return tp.Shutdown(context.Background())
	}, nil
}
