// Package metrics owns the prometheus collectors the server exports.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests          *prometheus.CounterVec
	HTTPDuration          *prometheus.HistogramVec
	OrderTransitions      *prometheus.CounterVec
	MediaCompensations    *prometheus.CounterVec
	ExpiredOrdersCanceled prometheus.Counter
}

// New registers every collector on a fresh registry, so tests can build as
// many instances as they need.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_transitions_total",
			Help: "Applied order status transitions by target status.",
		}, []string{"to"}),
		MediaCompensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "product_media_compensations_total",
			Help: "Media deletions run after a failed product write, by result.",
		}, []string{"result"}),
		ExpiredOrdersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_expired_cancelled_total",
			Help: "Pending orders cancelled by the expiry sweeper.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.OrderTransitions,
		m.MediaCompensations,
		m.ExpiredOrdersCanceled,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
