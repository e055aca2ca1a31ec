package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes build and live-reload metrics for the dev server.
type Metrics struct {
	registry      *prometheus.Registry
	builds        prometheus.Counter
	buildFailures prometheus.Counter
	noops         prometheus.Counter
}

// NewMetrics builds a self-contained registry so tests never collide on the
// default global one.
func NewMetrics(clientCount func() int) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitebuilder_builds_total",
			Help: "Build passes executed.",
		}),
		buildFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitebuilder_build_failures_total",
			Help: "Build passes that finished with document failures.",
		}),
		noops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitebuilder_noop_files_total",
			Help: "Files skipped as up to date across all passes.",
		}),
	}
	reg.MustRegister(m.builds, m.buildFailures, m.noops)
	if clientCount != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sitebuilder_livereload_clients",
			Help: "Currently connected live-reload clients.",
		}, func() float64 { return float64(clientCount()) }))
	}
	return m
}

// RecordPass records one completed build pass.
func (m *Metrics) RecordPass(failed bool, noops int) {
	m.builds.Inc()
	if failed {
		m.buildFailures.Inc()
	}
	m.noops.Add(float64(noops))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
