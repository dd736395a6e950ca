package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/infra/client"
	"github.com/mfcastro/grana-api/internal/infra/resilience"
)

func testConfig() resilience.Config {
	return resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}
}

func TestSuggestionClient_SuggestCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/suggest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req domain.SuggestionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if len(req.Items) != 2 {
			t.Errorf("expected 2 items, got %d", len(req.Items))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"suggestions": map[string]string{"u1": "Alimentação"},
		})
	}))
	defer server.Close()

	c := client.NewSuggestionClient(server.Client(), server.URL, resilience.NewCircuitBreaker("suggestion"), testConfig())

	got, err := c.SuggestCategories(context.Background(), &domain.SuggestionRequest{
		Items: []domain.SuggestionItem{
			{ID: "u1", Description: "PADARIA DO ZE", Amount: 45.50},
			{ID: "u2", Description: "XYZ", Amount: 10},
		},
		Categories: []string{"Alimentação", "Lazer"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["u1"] != "Alimentação" {
		t.Errorf("expected suggestion for u1, got %v", got)
	}
	if _, ok := got["u2"]; ok {
		t.Error("did not expect suggestion for u2")
	}
}

func TestSuggestionClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := client.NewSuggestionClient(server.Client(), server.URL, resilience.NewCircuitBreaker("suggestion"), testConfig())

	_, err := c.SuggestCategories(context.Background(), &domain.SuggestionRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	var extErr *domain.ErrExternalService
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ErrExternalService, got %T", err)
	}
	if extErr.Service != "suggestion" {
		t.Errorf("expected service 'suggestion', got %q", extErr.Service)
	}
}

func TestPatternClient_AnalyzePatterns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/patterns/analyze" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"patterns": []domain.SpendingPattern{
				{Merchant: "UBER", Frequency: "weekly", TotalSpent: 230.40, Insight: "rides trending up"},
			},
		})
	}))
	defer server.Close()

	c := client.NewPatternClient(server.Client(), server.URL, resilience.NewCircuitBreaker("patterns"), testConfig())

	patterns, err := c.AnalyzePatterns(context.Background(), []domain.Transaction{
		{ID: "t1", Description: "UBER TRIP", Amount: 23.50, Kind: domain.KindVariable},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 1 || patterns[0].Merchant != "UBER" {
		t.Errorf("unexpected patterns: %+v", patterns)
	}
}
