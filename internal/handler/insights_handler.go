package handler

import (
	"net/http"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/infra/observability"
	"github.com/mfcastro/grana-api/internal/service"

	"go.uber.org/zap"
)

func spendingPatternsHandler(insights *service.Insights, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/insights/patterns")
		defer span.End()

		patterns := insights.Patterns(ctx)
		if patterns == nil {
			patterns = []domain.SpendingPattern{}
		}
		writeJSON(w, http.StatusOK, patterns)
	}
}

// importMetricsHandler exposes the import counters as a JSON snapshot
// so clients do not need to scrape the Prometheus endpoint.
func importMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/import")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetImportSnapshot())
	}
}
