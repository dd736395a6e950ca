package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Statement import and reconciliation
// ============================================================

func importStatementHandler(reconciler *service.Reconciler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/import")
		defer span.End()

		var body struct {
			Statement string `json:"statement"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Statement == "" {
			writeError(w, http.StatusBadRequest, "statement is required")
			return
		}

		summary := reconciler.Reconcile(ctx, body.Statement)
		writeJSON(w, http.StatusOK, summary)
	}
}

func listUncategorizedHandler(reconciler *service.Reconciler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/import/uncategorized")
		defer span.End()

		writeJSON(w, http.StatusOK, reconciler.Uncategorized(ctx))
	}
}

type confirmRowBody struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Source      string  `json:"source"`
	ImportID    string  `json:"importId"`
}

func confirmImportHandler(reconciler *service.Reconciler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/import/confirm")
		defer span.End()

		var body struct {
			Transactions []confirmRowBody `json:"transactions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rows := make([]domain.ConfirmedTransaction, 0, len(body.Transactions))
		for _, raw := range body.Transactions {
			row := domain.ConfirmedTransaction{
				Description: raw.Description,
				Amount:      raw.Amount,
				Category:    raw.Category,
				Source:      raw.Source,
				ImportID:    raw.ImportID,
			}
			if raw.Date != "" {
				date, err := parseDate(raw.Date)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid date")
					return
				}
				row.Date = date
			}
			rows = append(rows, row)
		}

		created, err := reconciler.Confirm(ctx, rows)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}
