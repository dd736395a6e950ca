package observability

import (
	"time"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Import row outcomes, used as the "outcome" label on rowsImported.
const (
	OutcomeMatched       = "matched"
	OutcomeUncategorized = "uncategorized"
	OutcomeDuplicate     = "duplicate"
	OutcomeSkipped       = "skipped"
	OutcomeParseError    = "parse_error"
)

// Metrics holds all Prometheus metrics for the grana backend.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration        *prometheus.HistogramVec
	externalErrors         *prometheus.CounterVec
	cacheHits              *prometheus.CounterVec
	cacheMisses            *prometheus.CounterVec
	rowsImported           *prometheus.CounterVec
	instancesMaterialized  *prometheus.CounterVec
	suggestionErrorsTotal  prometheus.Counter
	requestsTotal          *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "grana_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grana_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grana_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grana_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		rowsImported: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grana_import_rows_total",
				Help: "Statement rows processed by reconciliation outcome.",
			},
			[]string{"outcome"},
		),
		instancesMaterialized: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grana_instances_materialized_total",
				Help: "Monthly instances created by the period materializer.",
			},
			[]string{"kind"},
		),
		suggestionErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "grana_suggestion_errors_total",
				Help: "Failed background suggestion enrichment calls.",
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grana_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrImportRow counts one statement row by its reconciliation outcome.
func (m *Metrics) IncrImportRow(outcome string) {
	m.rowsImported.WithLabelValues(outcome).Inc()
}

// AddMaterialized counts instances created by the materializer.
func (m *Metrics) AddMaterialized(kind string, n int) {
	m.instancesMaterialized.WithLabelValues(kind).Add(float64(n))
}

// IncrSuggestionError counts one failed background enrichment call.
func (m *Metrics) IncrSuggestionError() {
	m.suggestionErrorsTotal.Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetImportSnapshot returns a snapshot of the import/reconciliation
// counters suitable for the GET /v1/metrics/import endpoint.
// Prometheus counters are cumulative, so this covers process lifetime.
func (m *Metrics) GetImportSnapshot() *domain.ImportMetrics {
	matched := getCounterValue(m.rowsImported, OutcomeMatched)
	uncategorized := getCounterValue(m.rowsImported, OutcomeUncategorized)
	duplicate := getCounterValue(m.rowsImported, OutcomeDuplicate)
	skipped := getCounterValue(m.rowsImported, OutcomeSkipped)
	parseErrors := getCounterValue(m.rowsImported, OutcomeParseError)

	suggErrors := float64(0)
	mt := &dto.Metric{}
	if err := m.suggestionErrorsTotal.Write(mt); err == nil && mt.Counter != nil && mt.Counter.Value != nil {
		suggErrors = *mt.Counter.Value
	}

	matchRate := float64(0)
	if matched+uncategorized > 0 {
		matchRate = matched / (matched + uncategorized)
	}

	return &domain.ImportMetrics{
		RowsMatched:       int64(matched),
		RowsUncategorized: int64(uncategorized),
		RowsDuplicate:     int64(duplicate),
		RowsSkipped:       int64(skipped),
		RowsParseError:    int64(parseErrors),
		SuggestionErrors:  int64(suggErrors),
		MatchRate:         matchRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
