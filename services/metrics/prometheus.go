// Package metricsvc exports Prometheus metrics for the portal.
package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gctu_portal"

// Metrics holds the collectors of one registry, so several servers may coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// lifecycle
	Transitions *prometheus.CounterVec
	Rejections  *prometheus.CounterVec

	// reports
	ReportsGenerated *prometheus.CounterVec
	ReportPages      *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		Transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "project_transitions_total",
				Help:      "Project lifecycle operations by kind and resulting status",
			},
			[]string{"operation", "status"},
		),
		Rejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "project_operation_refusals_total",
				Help:      "Lifecycle operations refused by a guard",
			},
			[]string{"operation", "reason"},
		),
		ReportsGenerated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_generated_total",
				Help:      "PDF reports generated",
			},
			[]string{"report"},
		),
		ReportPages: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_pages",
				Help:      "Pages per generated report",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"report"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) ObserveTransition(operation, status string) {
	m.Transitions.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) ObserveRefusal(operation, reason string) {
	m.Rejections.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) ObserveReport(report string, pages int) {
	m.ReportsGenerated.WithLabelValues(report).Inc()
	m.ReportPages.WithLabelValues(report).Observe(float64(pages))
}
