package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/handler"
	"github.com/mfcastro/grana-api/internal/infra/cache"
	"github.com/mfcastro/grana-api/internal/infra/client"
	"github.com/mfcastro/grana-api/internal/infra/memory"
	"github.com/mfcastro/grana-api/internal/infra/observability"
	"github.com/mfcastro/grana-api/internal/infra/resilience"
	"github.com/mfcastro/grana-api/internal/service"

	"go.uber.org/zap"
)

const primarySource = "Conta Corrente BB"

func newTestStack(t *testing.T, suggestionURL, patternURL string) http.Handler {
	t.Helper()

	store := memory.NewStore()
	for _, c := range []string{
		"Moradia", "Transporte", "Alimentação", "Lazer",
		domain.CategoryBills, domain.CategoryIncome, domain.CategorySavings,
	} {
		store.AddCategory(c)
	}
	store.AddSource(primarySource)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	ledger := service.NewLedger(store, logger, primarySource)
	materializer := service.NewMaterializer(store, metrics, logger)
	reconciler := service.NewReconciler(
		store,
		ledger,
		client.NewSuggestionClient(httpClient, suggestionURL, cb, cfg),
		cache.New[string](5*time.Minute),
		metrics,
		logger,
	)
	projector := service.NewProjector(store, logger)
	registry := service.NewRegistry(store, logger)
	insights := service.NewInsights(
		store,
		ledger,
		client.NewPatternClient(httpClient, patternURL, cb, cfg),
		metrics,
		logger,
	)

	return handler.NewRouter(materializer, reconciler, projector, registry, ledger, insights, metrics, logger)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestIntegration_FullFlow walks the whole monthly cycle: register
// templates, materialize the period, import a bank statement that pays
// a bill and leaves unknown rows, confirm them, then project cash flow.
func TestIntegration_FullFlow(t *testing.T) {
	// --- Mock suggestion API ---
	suggestionServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.SuggestionRequest
		json.NewDecoder(r.Body).Decode(&req)
		suggestions := make(map[string]string, len(req.Items))
		for _, item := range req.Items {
			suggestions[item.ID] = "Alimentação"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"suggestions": suggestions})
	}))
	defer suggestionServer.Close()

	// --- Mock pattern API ---
	patternServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"patterns": []domain.SpendingPattern{}})
	}))
	defer patternServer.Close()

	router := newTestStack(t, suggestionServer.URL, patternServer.URL)

	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())

	// --- Register templates ---
	rec := do(t, router, http.MethodPost, "/v1/templates/bills",
		`{"name": "Internet Vivo", "defaultValue": 99.90, "dueDay": 10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create bill template: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodPost, "/v1/templates/incomes",
		`{"name": "Salário", "defaultValue": 8000, "incomeDay": 5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create income template: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	// --- Materialize twice (second call must be a no-op) ---
	periodPath := fmt.Sprintf("/v1/periods/%d/%d", year, month)
	for i := 0; i < 2; i++ {
		rec = do(t, router, http.MethodPost, periodPath+"/materialize", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("materialize: expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
	}

	rec = do(t, router, http.MethodGet, periodPath+"/bills", "")
	var bills []domain.MonthlyBill
	if err := json.Unmarshal(rec.Body.Bytes(), &bills); err != nil {
		t.Fatalf("decode bills: %v", err)
	}
	if len(bills) != 1 {
		t.Fatalf("expected 1 bill after double materialize, got %d", len(bills))
	}

	// --- Import a statement: one row pays the bill, one is unknown ---
	statement := fmt.Sprintf(
		"Data\tValor\tID\tDescrição\n"+
			"09/%02d/%d\t-102,50\timp-vivo-1\tPAGTO INTERNET VIVO FIBRA\n"+
			"12/%02d/%d\t-89,90\timp-padaria-1\tPADARIA DO ZÉ\n",
		month, year, month, year,
	)
	rec = do(t, router, http.MethodPost, "/v1/import", fmt.Sprintf(`{"statement": %q}`, statement))
	if rec.Code != http.StatusOK {
		t.Fatalf("import: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var summary domain.ReconcileSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(summary.PaidBills) != 1 {
		t.Fatalf("expected 1 paid bill, got %d", len(summary.PaidBills))
	}
	if summary.PaidBills[0].Amount != 102.50 {
		t.Errorf("expected statement amount 102.50, got %v", summary.PaidBills[0].Amount)
	}
	if len(summary.Uncategorized) != 1 {
		t.Fatalf("expected 1 uncategorized row, got %d", len(summary.Uncategorized))
	}

	// --- Suggestions arrive asynchronously ---
	deadline := time.Now().Add(2 * time.Second)
	var queue []domain.UncategorizedTransaction
	for time.Now().Before(deadline) {
		rec = do(t, router, http.MethodGet, "/v1/import/uncategorized", "")
		if err := json.Unmarshal(rec.Body.Bytes(), &queue); err != nil {
			t.Fatalf("decode queue: %v", err)
		}
		if len(queue) == 1 && queue[0].SuggestedCategory != "" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(queue) != 1 || queue[0].SuggestedCategory != "Alimentação" {
		t.Fatalf("expected suggested category Alimentação, got %+v", queue)
	}

	// --- Re-import must be a no-op ---
	rec = do(t, router, http.MethodPost, "/v1/import", fmt.Sprintf(`{"statement": %q}`, statement))
	json.Unmarshal(rec.Body.Bytes(), &summary)
	if summary.DuplicatesSkipped != 2 {
		t.Errorf("expected 2 duplicates on re-import, got %d", summary.DuplicatesSkipped)
	}

	// --- Confirm the unknown row ---
	confirm := fmt.Sprintf(
		`{"transactions": [{"description": "PADARIA DO ZÉ", "amount": 89.90, "date": "%d-%02d-12", "category": "Alimentação", "importId": "imp-padaria-1"}]}`,
		year, month,
	)
	rec = do(t, router, http.MethodPost, "/v1/import/confirm", confirm)
	if rec.Code != http.StatusCreated {
		t.Fatalf("confirm: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/v1/import/uncategorized", "")
	json.Unmarshal(rec.Body.Bytes(), &queue)
	if len(queue) != 0 {
		t.Errorf("expected empty queue after confirm, got %d entries", len(queue))
	}

	rec = do(t, router, http.MethodGet, "/v1/transactions", "")
	var txs []domain.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 ledger entries (bill payment + confirmed row), got %d", len(txs))
	}

	// --- Summary reflects the paid bill ---
	rec = do(t, router, http.MethodGet, periodPath+"/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d", rec.Code)
	}

	// --- Projection over the live ledger ---
	rec = do(t, router, http.MethodPost, "/v1/projection", `{"scenarios": []}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("projection: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var projection domain.Projection
	if err := json.Unmarshal(rec.Body.Bytes(), &projection); err != nil {
		t.Fatalf("decode projection: %v", err)
	}
	if len(projection.Points) == 0 {
		t.Error("expected projection points")
	}

	// --- Import metrics snapshot ---
	rec = do(t, router, http.MethodGet, "/v1/metrics/import", "")
	var snapshot domain.ImportMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if snapshot.RowsMatched != 1 {
		t.Errorf("expected 1 matched row, got %d", snapshot.RowsMatched)
	}
	if snapshot.RowsDuplicate != 2 {
		t.Errorf("expected 2 duplicate rows, got %d", snapshot.RowsDuplicate)
	}
}

// TestIntegration_SuggestionOutage verifies imports still succeed when
// the suggestion service is down.
func TestIntegration_SuggestionOutage(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	patternServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"patterns": []domain.SpendingPattern{}})
	}))
	defer patternServer.Close()

	router := newTestStack(t, failing.URL, patternServer.URL)

	statement := "Data\tValor\tID\tDescrição\n12/03/2025\t-89,90\timp-1\tPADARIA DO ZÉ\n"
	rec := do(t, router, http.MethodPost, "/v1/import", fmt.Sprintf(`{"statement": %q}`, statement))
	if rec.Code != http.StatusOK {
		t.Fatalf("import: expected 200 despite suggestion outage, got %d", rec.Code)
	}
	var summary domain.ReconcileSummary
	json.Unmarshal(rec.Body.Bytes(), &summary)
	if len(summary.Uncategorized) != 1 {
		t.Fatalf("expected 1 uncategorized row, got %d", len(summary.Uncategorized))
	}
}
