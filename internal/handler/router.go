package handler

import (
	"net/http"
	"time"

	"github.com/mfcastro/grana-api/internal/infra/observability"
	"github.com/mfcastro/grana-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(
	materializer *service.Materializer,
	reconciler *service.Reconciler,
	projector *service.Projector,
	registry *service.Registry,
	ledger *service.Ledger,
	insights *service.Insights,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. 📅 Períodos
		// =============================================
		r.Post("/periods/{year}/{month}/materialize", materializePeriodHandler(materializer, logger))
		r.Get("/periods/{year}/{month}/bills", listPeriodBillsHandler(ledger, logger))
		r.Get("/periods/{year}/{month}/incomes", listPeriodIncomesHandler(ledger, logger))
		r.Get("/periods/{year}/{month}/transactions", listPeriodTransactionsHandler(ledger, logger))
		r.Get("/periods/{year}/{month}/summary", periodSummaryHandler(ledger, logger))
		r.Get("/periods/{year}/{month}/overview", periodOverviewHandler(insights, logger))

		// =============================================
		// 2. 💸 Contas e rendas do mês
		// =============================================
		r.Post("/bills/{billId}/pay", payBillHandler(ledger, logger))
		r.Patch("/bills/{billId}", patchBillHandler(ledger, logger))
		r.Post("/incomes/{incomeId}/receive", receiveIncomeHandler(ledger, logger))
		r.Patch("/incomes/{incomeId}", patchIncomeHandler(ledger, logger))

		// =============================================
		// 3. 🧾 Lançamentos manuais
		// =============================================
		r.Post("/transactions", createTransactionHandler(ledger, logger))
		r.Get("/transactions", listTransactionsHandler(ledger, logger))

		// =============================================
		// 4. 🏦 Importação de extrato
		// =============================================
		r.Post("/import", importStatementHandler(reconciler, logger))
		r.Get("/import/uncategorized", listUncategorizedHandler(reconciler, logger))
		r.Post("/import/confirm", confirmImportHandler(reconciler, logger))

		// =============================================
		// 5. 📈 Projeção de caixa
		// =============================================
		r.Post("/projection", projectionHandler(materializer, projector, logger))

		// =============================================
		// 6. 🗂️ Modelos recorrentes
		// =============================================
		r.Get("/templates/bills", listFixedBillTemplatesHandler(registry, logger))
		r.Post("/templates/bills", createFixedBillTemplateHandler(registry, logger))
		r.Put("/templates/bills/{templateId}", updateFixedBillTemplateHandler(registry, logger))
		r.Delete("/templates/bills/{templateId}", deleteFixedBillTemplateHandler(registry, logger))
		r.Get("/templates/incomes", listIncomeTemplatesHandler(registry, logger))
		r.Post("/templates/incomes", createIncomeTemplateHandler(registry, logger))
		r.Put("/templates/incomes/{templateId}", updateIncomeTemplateHandler(registry, logger))
		r.Delete("/templates/incomes/{templateId}", deleteIncomeTemplateHandler(registry, logger))
		r.Get("/templates/transactions", listTransactionTemplatesHandler(registry, logger))
		r.Post("/templates/transactions", createTransactionTemplateHandler(registry, logger))
		r.Put("/templates/transactions/{templateId}", updateTransactionTemplateHandler(registry, logger))
		r.Delete("/templates/transactions/{templateId}", deleteTransactionTemplateHandler(registry, logger))
		r.Get("/templates/overrides", listKeywordOverridesHandler(registry, logger))
		r.Put("/templates/overrides", setKeywordOverridesHandler(registry, logger))

		// =============================================
		// 7. 🏷️ Categorias e fontes
		// =============================================
		r.Get("/categories", listCategoriesHandler(registry, logger))
		r.Post("/categories", createCategoryHandler(registry, logger))
		r.Put("/categories/{name}", renameCategoryHandler(registry, logger))
		r.Delete("/categories/{name}", deleteCategoryHandler(registry, logger))
		r.Get("/sources", listSourcesHandler(registry, logger))
		r.Post("/sources", createSourceHandler(registry, logger))
		r.Put("/sources/{name}", renameSourceHandler(registry, logger))
		r.Delete("/sources/{name}", deleteSourceHandler(registry, logger))

		// =============================================
		// 8. 🎯 Orçamentos e metas
		// =============================================
		r.Get("/budgets", listBudgetsHandler(registry, logger))
		r.Put("/budgets", setBudgetHandler(registry, logger))
		r.Delete("/budgets/{category}", deleteBudgetHandler(registry, logger))
		r.Get("/goals", listGoalsHandler(registry, logger))
		r.Post("/goals", createGoalHandler(registry, logger))
		r.Delete("/goals/{goalId}", deleteGoalHandler(registry, logger))
		r.Post("/goals/{goalId}/deposit", goalDepositHandler(ledger, logger))

		// =============================================
		// 9. 📊 Insights e métricas
		// =============================================
		r.Get("/insights/patterns", spendingPatternsHandler(insights, logger))
		r.Get("/metrics/import", importMetricsHandler(metrics))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"checkedAt": time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
