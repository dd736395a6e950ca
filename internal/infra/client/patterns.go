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
	"go.opentelemetry.io/otel/attribute"
)

// PatternClient calls the spending pattern analysis service.
type PatternClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewPatternClient creates a new PatternClient.
func NewPatternClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *PatternClient {
	return &PatternClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

type patternRequest struct {
	Transactions []domain.Transaction `json:"transactions"`
}

type patternResponse struct {
	Patterns []domain.SpendingPattern `json:"patterns"`
}

// AnalyzePatterns submits ledger transactions and returns recurring
// spending insights.
func (c *PatternClient) AnalyzePatterns(ctx context.Context, txs []domain.Transaction) ([]domain.SpendingPattern, error) {
	ctx, span := tracer.Start(ctx, "PatternClient.AnalyzePatterns")
	defer span.End()
	span.SetAttributes(attribute.Int("transactions.count", len(txs)))

	var out patternResponse

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(patternRequest{Transactions: txs})
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/patterns/analyze", c.baseURL)
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
				return fmt.Errorf("pattern API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&out)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return out.Patterns, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "patterns", Err: err}
	}

	patterns, _ := result.([]domain.SpendingPattern)
	return patterns, nil
}
