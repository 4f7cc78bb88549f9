// Package metrics collects Prometheus metrics for the HTTP API, logins and
// metadata generation, and serves them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "devlog"

// Collector holds every metric the server exports.
type Collector struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	loginAttempts *prometheus.CounterVec
	generations   *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metagen_requests_total",
			Help:      "Metadata generation calls by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}

	reg.MustRegister(c.requests, c.latency, c.loginAttempts, c.generations)
	return c
}

// ObserveRequest records one served request. route is the matched pattern,
// not the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordLogin counts a login attempt; outcome is "success" or "failure".
func (c *Collector) RecordLogin(outcome string) {
	c.loginAttempts.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveGeneration(kind, outcome string) {
	c.generations.WithLabelValues(kind, outcome).Inc()
}

// Handler serves the gathered metrics in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
