package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// Metrics owns a private Prometheus registry for the extraction service.
type Metrics struct {
	registry     *prometheus.Registry
	documents    *prometheus.CounterVec
	pages        prometheus.Counter
	transactions *prometheus.CounterVec
	dropped      prometheus.Counter
	alerts       prometheus.Counter
	latency      prometheus.Histogram
}

// NewMetrics registers the service collectors plus Go runtime metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statement_documents_total",
			Help: "Documents processed, by outcome.",
		}, []string{"outcome"}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statement_pages_total",
			Help: "Pages run through the engine.",
		}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statement_transactions_total",
			Help: "Transactions extracted, by direction.",
		}, []string{"direction"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statement_dropped_slices_total",
			Help: "Anchored slices that produced no transaction.",
		}),
		alerts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statement_alerts_total",
			Help: "Diagnostic alerts raised.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "statement_extraction_seconds",
			Help:    "Engine latency per document.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}
	m.registry.MustRegister(
		m.documents, m.pages, m.transactions, m.dropped, m.alerts, m.latency,
		collectors.NewGoCollector(),
	)
	return m
}

// Observe records a successful extraction.
func (m *Metrics) Observe(info *models.StatementInfo) {
	d := info.Diagnostics
	m.documents.WithLabelValues("ok").Inc()
	m.pages.Add(float64(d.PagesProcessed))
	for _, r := range info.Transactions {
		m.transactions.WithLabelValues(string(r.Direction)).Inc()
	}
	m.dropped.Add(float64(len(d.Dropped)))
	m.alerts.Add(float64(len(d.Alerts)))
	m.latency.Observe(d.Latency.Seconds())
}

// Failed records a document rejected with an error code.
func (m *Metrics) Failed(code string) {
	m.documents.WithLabelValues(code).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
