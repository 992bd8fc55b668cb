package telemetry_test

import (
	"context"

	"opsconsole/internal/infra/telemetry"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var _ = ginkgo.Describe("Start", func() {
	ginkgo.It("should install sdk providers without an exporter endpoint", func() {
		shutdown, err := telemetry.Start(context.Background(), telemetry.Config{ServiceName: "opsconsole-test"})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		ginkgo.DeferCleanup(func() {
			gomega.Expect(shutdown()).To(gomega.Succeed())
		})

		gomega.Expect(otel.GetMeterProvider()).To(gomega.BeAssignableToTypeOf(&sdkmetric.MeterProvider{}))
		gomega.Expect(otel.GetTracerProvider()).To(gomega.BeAssignableToTypeOf(&sdktrace.TracerProvider{}))
	})
})
