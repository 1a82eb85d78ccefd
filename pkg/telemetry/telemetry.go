// Package telemetry exposes prometheus collectors for the client stack.
// Collectors register on the default registry; embedders expose them with
// promhttp or read them programmatically.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts performed requests by method and outcome.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "httpwire_requests_total",
		Help: "HTTP requests performed, by method and outcome.",
	}, []string{"method", "outcome"})

	// RequestDuration observes wall time of whole request/response cycles.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "httpwire_request_duration_seconds",
		Help:    "Duration of HTTP request/response cycles.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// BytesWritten counts request bytes handed to the transport.
	BytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "httpwire_bytes_written_total",
		Help: "Request bytes written to transports.",
	})

	// BytesRead counts response bytes received from the transport.
	BytesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "httpwire_bytes_read_total",
		Help: "Response bytes read from transports.",
	})
)

// ObserveRequest records one completed request cycle.
func ObserveRequest(method string, err error, d time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RequestsTotal.WithLabelValues(method, outcome).Inc()
	RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}
