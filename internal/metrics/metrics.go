// Package metrics defines the Prometheus collectors for the HTTP server
// and renders them in the text exposition format for the /metrics route.
package metrics

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var (
	// RequestsTotal counts handled requests by method and response status.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpserver_requests_total",
			Help: "Total HTTP requests handled",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records request handling duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpserver_request_duration_seconds",
			Help:    "Request handling duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// StreamClientsActive tracks the number of connected event-stream clients.
	StreamClientsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpserver_stream_clients_active",
			Help: "Connected SSE clients",
		},
	)

	// EventsPublishedTotal counts broadcast events by event name.
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpserver_events_published_total",
			Help: "SSE events published",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamClientsActive,
		EventsPublishedTotal,
	)
}

// Render gathers all registered metrics and encodes them in the
// Prometheus text exposition format.
func Render() ([]byte, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
