// Package metrics collects Prometheus metrics for the API client and the devserver.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the client and devserver record into.
type Recorder interface {
	RecordRequest(side, method, route string, status int, d time.Duration)
	RecordSessionTeardown(reason string)
}

// Sides of a recorded request.
const (
	SideClient = "client"
	SideServer = "server"
)

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRequest(string, string, string, int, time.Duration) {}
func (Nop) RecordSessionTeardown(string)                             {}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	teardowns *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Portfolio API requests by side, method, route and status code.",
		}, []string{"side", "method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "Portfolio API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"side", "route"}),
		teardowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_session_teardowns_total",
			Help: "Admin sessions torn down, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(c.requests, c.latency, c.teardowns)
	return c
}

// RecordRequest records one request. status 0 means no response was received.
func (c *Collector) RecordRequest(side, method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(side, method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(side, route).Observe(d.Seconds())
}

// RecordSessionTeardown counts a session teardown.
func (c *Collector) RecordSessionTeardown(reason string) {
	c.teardowns.WithLabelValues(reason).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
