package tenantclient

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "opsconsole"

var (
	clientRequestDuration metric.Float64Histogram
	clientRequestTotal    metric.Int64Counter
	clientRefreshTotal    metric.Int64Counter
	metricsInitialized    bool
	metricsMutex          sync.Mutex

	// numeric and uuid path segments are collapsed so endpoints stay low-cardinality
	idSegment = regexp.MustCompile(`^([0-9]+|[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

// ResetMetricsForTesting resets the metrics initialization state for testing purposes
func ResetMetricsForTesting() {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	metricsInitialized = false
}

func initMetrics() {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	if metricsInitialized {
		return
	}

	meter := otel.GetMeterProvider().Meter(meterName)

	var err error
	clientRequestDuration, err = meter.Float64Histogram(
		fmt.Sprintf("%s.%s", meterName, "http.client.duration.seconds"),
		metric.WithDescription("Duration of tenant API requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		panic(err)
	}

	clientRequestTotal, err = meter.Int64Counter(
		fmt.Sprintf("%s.%s", meterName, "http.client.requests.total"),
		metric.WithDescription("Total number of tenant API requests"),
	)
	if err != nil {
		panic(err)
	}

	clientRefreshTotal, err = meter.Int64Counter(
		fmt.Sprintf("%s.%s", meterName, "http.client.refresh.total"),
		metric.WithDescription("Total number of access token refresh attempts"),
	)
	if err != nil {
		panic(err)
	}

	metricsInitialized = true
}

func recordRequest(ctx context.Context, method, path string, status int, started time.Time) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.endpoint", normalizeEndpoint(path)),
		attribute.Int("http.status_code", status),
	)
	clientRequestDuration.Record(ctx, time.Since(started).Seconds(), attrs)
	clientRequestTotal.Add(ctx, 1, attrs)
}

func recordRefresh(ctx context.Context, outcome string) {
	clientRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func normalizeEndpoint(path string) string {
	if path == "" || path == "/" {
		return "root"
	}

	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if idSegment.MatchString(segment) {
			segments[i] = "_id"
		}
	}
	return strings.Join(segments, "/")
}
