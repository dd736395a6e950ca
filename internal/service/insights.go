package service

import (
	"context"
	"time"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/infra/observability"
	"github.com/mfcastro/grana-api/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Insights combines the local period summary with the external
// spending pattern analysis. The external half is best-effort: on any
// failure the overview ships with an empty pattern list.
type Insights struct {
	store    port.Store
	ledger   *Ledger
	analyzer port.PatternAnalyzer
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewInsights creates the insights service.
func NewInsights(store port.Store, ledger *Ledger, analyzer port.PatternAnalyzer, metrics *observability.Metrics, logger *zap.Logger) *Insights {
	return &Insights{
		store:    store,
		ledger:   ledger,
		analyzer: analyzer,
		metrics:  metrics,
		logger:   logger,
	}
}

// Patterns runs the external analysis over the variable ledger
// entries. Fixed materialized entries carry no signal about habits, so
// they are filtered out. Degrades to an empty slice.
func (s *Insights) Patterns(ctx context.Context) []domain.SpendingPattern {
	ctx, span := tracer.Start(ctx, "Insights.Patterns")
	defer span.End()

	var variable []domain.Transaction
	for _, tx := range s.store.Transactions() {
		if tx.Kind == domain.KindVariable && tx.EntryType == domain.EntryExpense {
			variable = append(variable, tx)
		}
	}
	if len(variable) == 0 {
		return []domain.SpendingPattern{}
	}

	start := time.Now()
	patterns, err := s.analyzer.AnalyzePatterns(ctx, variable)
	s.metrics.RecordRequestDuration("patterns", time.Since(start))
	if err != nil {
		s.metrics.IncrExternalError("patterns")
		s.logger.Warn("pattern analysis failed", zap.Error(err))
		return []domain.SpendingPattern{}
	}
	if patterns == nil {
		patterns = []domain.SpendingPattern{}
	}
	return patterns
}

// Overview fetches the period summary and the pattern analysis
// concurrently. Neither side can fail the other: the summary is local
// and the patterns degrade to empty.
func (s *Insights) Overview(ctx context.Context, p domain.Period) domain.FinancialOverview {
	ctx, span := tracer.Start(ctx, "Insights.Overview")
	defer span.End()

	var overview domain.FinancialOverview

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		overview.Summary = s.ledger.Summary(gCtx, p)
		return nil
	})
	g.Go(func() error {
		overview.Patterns = s.Patterns(gCtx)
		return nil
	})
	// Both goroutines always return nil.
	_ = g.Wait()

	return overview
}
