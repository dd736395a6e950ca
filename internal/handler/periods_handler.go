package handler

import (
	"net/http"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Periods: materialization and per-month views
// ============================================================

func materializePeriodHandler(materializer *service.Materializer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/periods/{year}/{month}/materialize")
		defer span.End()

		p, err := parsePeriod(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result := materializer.MaterializePeriod(ctx, p)
		writeJSON(w, http.StatusOK, result)
	}
}

func listPeriodBillsHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/periods/{year}/{month}/bills")
		defer span.End()

		p, err := parsePeriod(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		bills := ledger.Bills(ctx, p)
		if bills == nil {
			bills = []domain.MonthlyBill{}
		}
		writeJSON(w, http.StatusOK, bills)
	}
}

func listPeriodIncomesHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/periods/{year}/{month}/incomes")
		defer span.End()

		p, err := parsePeriod(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		incomes := ledger.Incomes(ctx, p)
		if incomes == nil {
			incomes = []domain.MonthlyIncome{}
		}
		writeJSON(w, http.StatusOK, incomes)
	}
}

func listPeriodTransactionsHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/periods/{year}/{month}/transactions")
		defer span.End()

		p, err := parsePeriod(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		txs := ledger.TransactionsForPeriod(ctx, p)
		if txs == nil {
			txs = []domain.Transaction{}
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

func periodSummaryHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/periods/{year}/{month}/summary")
		defer span.End()

		p, err := parsePeriod(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, ledger.Summary(ctx, p))
	}
}

func periodOverviewHandler(insights *service.Insights, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/periods/{year}/{month}/overview")
		defer span.End()

		p, err := parsePeriod(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, insights.Overview(ctx, p))
	}
}
