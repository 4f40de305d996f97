// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listings_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	GraphQLErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_graphql_errors_total",
			Help: "GraphQL errors returned to clients, by status",
		},
		[]string{"status"},
	)

	ImagesUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_images_uploaded_total",
			Help: "Uploaded images by result",
		},
		[]string{"result"}, // stored, rejected, failed
	)
)

// RecordHTTPRequest observes one served request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// IncrementGraphQLError counts a GraphQL error by response status.
func IncrementGraphQLError(status int) {
	GraphQLErrors.WithLabelValues(strconv.Itoa(status)).Inc()
}

// IncrementImages adds n to the uploaded images counter for result.
func IncrementImages(result string, n int) {
	if n <= 0 {
		return
	}
	ImagesUploaded.WithLabelValues(result).Add(float64(n))
}
