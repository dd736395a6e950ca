// Package client holds the HTTP clients for the external category
// suggestion and pattern analysis services. Both sit behind a circuit
// breaker with retry; callers treat their failures as degradable.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// SuggestionClient calls the category suggestion service.
type SuggestionClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewSuggestionClient creates a new SuggestionClient.
func NewSuggestionClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *SuggestionClient {
	return &SuggestionClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

type suggestionResponse struct {
	Suggestions map[string]string `json:"suggestions"` // row id -> category
}

// SuggestCategories sends a batch of uncategorized rows plus the
// allowed category list and returns a partial id -> category map.
func (c *SuggestionClient) SuggestCategories(ctx context.Context, req *domain.SuggestionRequest) (map[string]string, error) {
	ctx, span := tracer.Start(ctx, "SuggestionClient.SuggestCategories")
	defer span.End()
	span.SetAttributes(attribute.Int("items.count", len(req.Items)))

	var out suggestionResponse

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(req)
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/suggest", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("suggestion API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&out)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return out.Suggestions, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "suggestion", Err: err}
	}

	m, _ := result.(map[string]string)
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}
