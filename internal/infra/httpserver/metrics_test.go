package httpserver

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
)

var _ = ginkgo.Describe("Metrics", func() {
	ginkgo.Context("MetricsMiddleware", func() {
		ginkgo.When("using metrics middleware", func() {
			ginkgo.It("should collect metrics correctly", func() {
				// Set up a test meter provider
				reader := metric.NewManualReader()
				provider := metric.NewMeterProvider(metric.WithReader(reader))
				otel.SetMeterProvider(provider)

				// Reset metrics initialization for testing
				ResetMetricsForTesting()

				// Create a test handler that simulates some work
				testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					// Simulate some processing time
					time.Sleep(10 * time.Millisecond)
					w.WriteHeader(http.StatusOK)
					w.Write([]byte("test response"))
				})

				// Create middleware
				middleware := MetricsMiddleware()
				handler := middleware(testHandler)

				// Create test request
				req := httptest.NewRequest("GET", "/test/endpoint", nil)
				w := httptest.NewRecorder()

				// Execute request
				handler.ServeHTTP(w, req)

				// Verify response
				gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
				gomega.Expect(w.Body.String()).To(gomega.Equal("test response"))

				// Verify that metrics were initialized
				gomega.Expect(IsMetricsInitialized()).To(gomega.BeTrue())
			})
		})
	})

	ginkgo.Context("NormalizeEndpoint", func() {
		var (
			path     string
			expected string
		)

		ginkgo.When("normalizing endpoint from path", func() {
			ginkgo.It("should handle root path", func() {
				path = "/"
				expected = "root"

				result := normalizeEndpoint(path)
				gomega.Expect(result).To(gomega.Equal(expected))
			})

			ginkgo.It("should handle simple endpoint", func() {
				path = "/api"
				expected = "/api"

				result := normalizeEndpoint(path)
				gomega.Expect(result).To(gomega.Equal(expected))
			})

			ginkgo.It("should handle nested endpoint", func() {
				path = "/api/v1/users"
				expected = "/api/v1/users"

				result := normalizeEndpoint(path)
				gomega.Expect(result).To(gomega.Equal(expected))
			})

			ginkgo.It("should handle empty path", func() {
				path = ""
				expected = "root"

				result := normalizeEndpoint(path)
				gomega.Expect(result).To(gomega.Equal(expected))
			})

			ginkgo.It("should handle single segment", func() {
				path = "/healthz"
				expected = "/healthz"

				result := normalizeEndpoint(path)
				gomega.Expect(result).To(gomega.Equal(expected))
			})
		})

		ginkgo.When("normalizing endpoint with record ids", func() {
			ginkgo.It("should replace a uuid with _id", func() {
				path = "/acme/api/inventory/internal-transfer/123e4567-e89b-12d3-a456-426614174000/"
				expected = "/acme/api/inventory/internal-transfer/_id/"

				result := normalizeEndpoint(path)
				gomega.Expect(result).To(gomega.Equal(expected))
			})

			ginkgo.It("should replace a uuid followed by an action", func() {
				path = "/acme/api/purchase/purchase-request/123e4567-e89b-12d3-a456-426614174000/approve/"
				expected = "/acme/api/purchase/purchase-request/_id/approve/"

				result := normalizeEndpoint(path)
				gomega.Expect(result).To(gomega.Equal(expected))
			})

			ginkgo.It("should replace numeric ids", func() {
				path = "/acme/api/users/42/"
				expected = "/acme/api/users/_id/"

				result := normalizeEndpoint(path)
				gomega.Expect(result).To(gomega.Equal(expected))
			})

			ginkgo.It("should replace adjacent numeric segments", func() {
				path = "/acme/api/roles/7/9"
				expected = "/acme/api/roles/_id/_id"

				result := normalizeEndpoint(path)
				gomega.Expect(result).To(gomega.Equal(expected))
			})

			ginkgo.It("should keep digits inside names", func() {
				path = "/tenant2/api/users/"
				expected = "/tenant2/api/users/"

				result := normalizeEndpoint(path)
				gomega.Expect(result).To(gomega.Equal(expected))
			})
		})
	})

	ginkgo.Context("ResponseWriter", func() {
		var (
			recorder      *httptest.ResponseRecorder
			wrappedWriter *responseWriter
		)

		ginkgo.When("using response writer wrapper", func() {
			ginkgo.BeforeEach(func() {
				// Create a test response writer
				recorder = httptest.NewRecorder()
				wrappedWriter = &responseWriter{ResponseWriter: recorder, statusCode: http.StatusOK}
			})

			ginkgo.It("should handle WriteHeader correctly", func() {
				wrappedWriter.WriteHeader(http.StatusNotFound)
				gomega.Expect(wrappedWriter.statusCode).To(gomega.Equal(http.StatusNotFound))
				gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusNotFound))
			})

			ginkgo.It("should handle Write correctly", func() {
				_, err := wrappedWriter.Write([]byte("test"))
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(recorder.Body.String()).To(gomega.Equal("test"))
			})
		})
	})
})
