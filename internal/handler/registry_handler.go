package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Registry: templates, categories, sources, budgets, goals
// ============================================================

func listFixedBillTemplatesHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/templates/bills")
		defer span.End()

		templates := registry.ListFixedBills(ctx)
		if templates == nil {
			templates = []domain.FixedBillTemplate{}
		}
		writeJSON(w, http.StatusOK, templates)
	}
}

func createFixedBillTemplateHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/templates/bills")
		defer span.End()

		var t domain.FixedBillTemplate
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		created, err := registry.CreateFixedBill(ctx, t)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateFixedBillTemplateHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/templates/bills/{templateId}")
		defer span.End()

		var t domain.FixedBillTemplate
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		t.ID = chi.URLParam(r, "templateId")
		updated, err := registry.UpdateFixedBill(ctx, t)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteFixedBillTemplateHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/templates/bills/{templateId}")
		defer span.End()

		if err := registry.DeleteFixedBill(ctx, chi.URLParam(r, "templateId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listIncomeTemplatesHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/templates/incomes")
		defer span.End()

		templates := registry.ListRecurringIncomes(ctx)
		if templates == nil {
			templates = []domain.RecurringIncomeTemplate{}
		}
		writeJSON(w, http.StatusOK, templates)
	}
}

func createIncomeTemplateHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/templates/incomes")
		defer span.End()

		var t domain.RecurringIncomeTemplate
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		created, err := registry.CreateRecurringIncome(ctx, t)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateIncomeTemplateHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/templates/incomes/{templateId}")
		defer span.End()

		var t domain.RecurringIncomeTemplate
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		t.ID = chi.URLParam(r, "templateId")
		updated, err := registry.UpdateRecurringIncome(ctx, t)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteIncomeTemplateHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/templates/incomes/{templateId}")
		defer span.End()

		if err := registry.DeleteRecurringIncome(ctx, chi.URLParam(r, "templateId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listTransactionTemplatesHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/templates/transactions")
		defer span.End()

		templates := registry.ListRecurringTransactions(ctx)
		if templates == nil {
			templates = []domain.RecurringTransactionTemplate{}
		}
		writeJSON(w, http.StatusOK, templates)
	}
}

func createTransactionTemplateHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/templates/transactions")
		defer span.End()

		var t domain.RecurringTransactionTemplate
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		created, err := registry.CreateRecurringTransaction(ctx, t)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateTransactionTemplateHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/templates/transactions/{templateId}")
		defer span.End()

		var t domain.RecurringTransactionTemplate
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		t.ID = chi.URLParam(r, "templateId")
		updated, err := registry.UpdateRecurringTransaction(ctx, t)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteTransactionTemplateHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/templates/transactions/{templateId}")
		defer span.End()

		if err := registry.DeleteRecurringTransaction(ctx, chi.URLParam(r, "templateId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listKeywordOverridesHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/templates/overrides")
		defer span.End()

		overrides := registry.ListKeywordOverrides(ctx)
		if overrides == nil {
			overrides = []domain.KeywordOverride{}
		}
		writeJSON(w, http.StatusOK, overrides)
	}
}

func setKeywordOverridesHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/templates/overrides")
		defer span.End()

		var overrides []domain.KeywordOverride
		if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := registry.SetKeywordOverrides(ctx, overrides); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, overrides)
	}
}

// --- Categories ---

func listCategoriesHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/categories")
		defer span.End()

		categories := registry.Categories(ctx)
		if categories == nil {
			categories = []string{}
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

func createCategoryHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/categories")
		defer span.End()

		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := registry.AddCategory(ctx, body.Name); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"name": body.Name})
	}
}

func renameCategoryHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/categories/{name}")
		defer span.End()

		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := registry.RenameCategory(ctx, chi.URLParam(r, "name"), body.Name); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"name": body.Name})
	}
}

func deleteCategoryHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/categories/{name}")
		defer span.End()

		if err := registry.DeleteCategory(ctx, chi.URLParam(r, "name")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Sources ---

func listSourcesHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/sources")
		defer span.End()

		sources := registry.Sources(ctx)
		if sources == nil {
			sources = []string{}
		}
		writeJSON(w, http.StatusOK, sources)
	}
}

func createSourceHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sources")
		defer span.End()

		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := registry.AddSource(ctx, body.Name); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"name": body.Name})
	}
}

func renameSourceHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/sources/{name}")
		defer span.End()

		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := registry.RenameSource(ctx, chi.URLParam(r, "name"), body.Name); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"name": body.Name})
	}
}

func deleteSourceHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/sources/{name}")
		defer span.End()

		if err := registry.DeleteSource(ctx, chi.URLParam(r, "name")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Budgets ---

func listBudgetsHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/budgets")
		defer span.End()

		budgets := registry.Budgets(ctx)
		if budgets == nil {
			budgets = []domain.Budget{}
		}
		writeJSON(w, http.StatusOK, budgets)
	}
}

func setBudgetHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/budgets")
		defer span.End()

		var b domain.Budget
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := registry.SetBudget(ctx, b); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func deleteBudgetHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/budgets/{category}")
		defer span.End()

		if err := registry.DeleteBudget(ctx, chi.URLParam(r, "category")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Savings goals ---

func listGoalsHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/goals")
		defer span.End()

		goals := registry.Goals(ctx)
		if goals == nil {
			goals = []domain.SavingsGoal{}
		}
		writeJSON(w, http.StatusOK, goals)
	}
}

func createGoalHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/goals")
		defer span.End()

		var g domain.SavingsGoal
		if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		created, err := registry.CreateGoal(ctx, g)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func deleteGoalHandler(registry *service.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/goals/{goalId}")
		defer span.End()

		if err := registry.DeleteGoal(ctx, chi.URLParam(r, "goalId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
