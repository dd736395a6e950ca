package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================
// Cash-flow projection
// ============================================================

type scenarioBody struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Day    int     `json:"day"`
	Kind   string  `json:"kind"`
}

// projectionHandler materializes the current and next period first so
// the trajectory always sees this month's and next month's pending
// instances, then runs the pure projection with the what-if scenarios.
func projectionHandler(materializer *service.Materializer, projector *service.Projector, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/projection")
		defer span.End()

		var body struct {
			Scenarios []scenarioBody `json:"scenarios"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		scenarios := make([]domain.ScenarioEvent, 0, len(body.Scenarios))
		for _, s := range body.Scenarios {
			if s.Amount <= 0 {
				writeError(w, http.StatusBadRequest, "scenario amount must be positive")
				return
			}
			if s.Day < 1 || s.Day > 31 {
				writeError(w, http.StatusBadRequest, "scenario day must be between 1 and 31")
				return
			}
			kind := domain.EntryType(s.Kind)
			if kind != domain.EntryIncome && kind != domain.EntryExpense {
				writeError(w, http.StatusBadRequest, "scenario kind must be income or expense")
				return
			}
			scenarios = append(scenarios, domain.ScenarioEvent{
				ID:     uuid.NewString(),
				Name:   s.Name,
				Amount: s.Amount,
				Day:    s.Day,
				Kind:   kind,
			})
		}

		current := domain.PeriodOf(timeNow())
		materializer.MaterializePeriod(ctx, current)
		materializer.MaterializePeriod(ctx, current.Next())

		writeJSON(w, http.StatusOK, projector.Project(ctx, scenarios))
	}
}
