package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests can build as many as they like.
type Collector struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rateLimited prometheus.Counter
	published   prometheus.Counter
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appraisal",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "appraisal",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "appraisal",
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "appraisal",
			Name:      "records_published_total",
			Help:      "Appraisal records moved to HR_PUBLISHED.",
		}),
	}
	c.registry.MustRegister(c.requests, c.duration, c.rateLimited, c.published)
	return c
}

func (c *Collector) Record(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	if status == http.StatusTooManyRequests {
		c.rateLimited.Inc()
	}
}

// RecordsPublished is safe on a nil collector so handlers can run without
// metrics in tests.
func (c *Collector) RecordsPublished(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.published.Add(float64(n))
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
