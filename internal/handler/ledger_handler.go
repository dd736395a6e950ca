package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Bill and income lifecycle + manual ledger entries
// ============================================================

func payBillHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/{billId}/pay")
		defer span.End()

		var body struct {
			PaidDate string   `json:"paidDate"`
			Amount   *float64 `json:"amount"`
			ImportID string   `json:"importId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		paidDate, err := parseDate(body.PaidDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid paidDate")
			return
		}

		bill, _, err := ledger.SetBillPaid(ctx, chi.URLParam(r, "billId"), paidDate, body.Amount, body.ImportID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func patchBillHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/bills/{billId}")
		defer span.End()

		var body struct {
			Amount float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		bill, err := ledger.UpdateBillAmount(ctx, chi.URLParam(r, "billId"), body.Amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func receiveIncomeHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/incomes/{incomeId}/receive")
		defer span.End()

		var body struct {
			ReceivedDate string   `json:"receivedDate"`
			Amount       *float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		receivedDate, err := parseDate(body.ReceivedDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid receivedDate")
			return
		}

		income, err := ledger.SetIncomeReceived(ctx, chi.URLParam(r, "incomeId"), receivedDate, body.Amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, income)
	}
}

func patchIncomeHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/incomes/{incomeId}")
		defer span.End()

		var body struct {
			Amount float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		income, err := ledger.UpdateIncomeAmount(ctx, chi.URLParam(r, "incomeId"), body.Amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, income)
	}
}

func createTransactionHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		var body struct {
			Description string  `json:"description"`
			Amount      float64 `json:"amount"`
			Date        string  `json:"date"`
			Category    string  `json:"category"`
			Source      string  `json:"source"`
			EntryType   string  `json:"entryType"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		in := service.TransactionInput{
			Description: body.Description,
			Amount:      body.Amount,
			Category:    body.Category,
			Source:      body.Source,
			EntryType:   domain.EntryType(body.EntryType),
		}
		if body.Date != "" {
			date, err := parseDate(body.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid date")
				return
			}
			in.Date = date
		}

		tx, err := ledger.AddTransaction(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func listTransactionsHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		txs := ledger.Transactions(ctx)
		if txs == nil {
			txs = []domain.Transaction{}
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

func goalDepositHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/goals/{goalId}/deposit")
		defer span.End()

		var body struct {
			Amount float64 `json:"amount"`
			Date   string  `json:"date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var date time.Time
		if body.Date != "" {
			parsed, err := parseDate(body.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid date")
				return
			}
			date = parsed
		}

		tx, err := ledger.DepositToGoal(ctx, chi.URLParam(r, "goalId"), body.Amount, date)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}
