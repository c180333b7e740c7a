package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dev backend's collectors on a private registry so
// several servers can live in one test binary.
type Metrics struct {
	Requests    *prometheus.CounterVec
	Joins       prometheus.Counter
	Leaves      prometheus.Counter
	Messages    *prometheus.CounterVec
	RateLimited prometheus.Counter
	Online      prometheus.Gauge

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "batepapo",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		Joins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "batepapo",
			Name:      "joins_total",
			Help:      "Participants that entered the room.",
		}),
		Leaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "batepapo",
			Name:      "leaves_total",
			Help:      "Participants removed for inactivity.",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "batepapo",
			Name:      "messages_total",
			Help:      "Messages appended to the feed by type.",
		}, []string{"type"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "batepapo",
			Name:      "registrations_rate_limited_total",
			Help:      "Registrations refused by the per-IP limiter.",
		}),
		Online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "batepapo",
			Name:      "participants_online",
			Help:      "Participants currently in the room.",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.Requests, m.Joins, m.Leaves, m.Messages, m.RateLimited, m.Online,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
