package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfcastro/grana-api/internal/config"
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

var defaultCategories = []string{
	"Moradia",
	"Transporte",
	"Alimentação",
	"Lazer",
	domain.CategoryBills,
	"Saúde",
	"Educação",
	"PJ",
	domain.CategoryIncome,
	"Outros",
	domain.CategorySavings,
}

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("primary_source", cfg.PrimarySource),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("seed_demo", cfg.SeedDemo),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(context.Background(), "grana-api", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	store := memory.NewStore()
	seedStore(store, cfg, logger)

	// --- Cache ---
	suggestionCache := cache.New[string](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	suggestionClient := client.NewSuggestionClient(httpClient, cfg.SuggestionAPIURL, cb, resilienceCfg)
	patternClient := client.NewPatternClient(httpClient, cfg.PatternAPIURL, cb, resilienceCfg)

	// --- Services ---
	ledger := service.NewLedger(store, logger, cfg.PrimarySource)
	materializer := service.NewMaterializer(store, metrics, logger)
	reconciler := service.NewReconciler(store, ledger, suggestionClient, suggestionCache, metrics, logger)
	projector := service.NewProjector(store, logger)
	registry := service.NewRegistry(store, logger)
	insights := service.NewInsights(store, ledger, patternClient, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(materializer, reconciler, projector, registry, ledger, insights, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// seedStore loads the default categories and the primary account source.
// With SEED_DEMO=true it also loads a starter set of fixed bills and a
// recurring income so the API is usable out of the box.
func seedStore(store *memory.Store, cfg *config.Config, logger *zap.Logger) {
	for _, c := range defaultCategories {
		store.AddCategory(c)
	}
	store.AddSource(cfg.PrimarySource)

	if !cfg.SeedDemo {
		return
	}

	bills := []domain.FixedBillTemplate{
		{ID: "seed-aluguel", Name: "Aluguel", DefaultValue: 1800, DueDay: 5},
		{ID: "seed-internet", Name: "Internet Vivo", DefaultValue: 99.90, DueDay: 10},
		{ID: "seed-nubank", Name: "Cartão de Crédito - Nubank", DefaultValue: 0, DueDay: 12},
		{ID: "seed-financiamento", Name: "Financiamento Banco Votorantim", DefaultValue: 890, DueDay: 15},
	}
	for _, b := range bills {
		store.AddFixedBill(b)
	}
	store.AddRecurringIncome(domain.RecurringIncomeTemplate{
		ID: "seed-salario", Name: "Salário", DefaultValue: 8000, IncomeDay: 5,
	})
	store.SetKeywordOverrides([]domain.KeywordOverride{
		{Keyword: "BANCO VOTORANTIM", TemplateID: "seed-financiamento"},
	})

	logger.Info("demo data seeded",
		zap.Int("fixed_bills", len(bills)),
		zap.Int("keyword_overrides", 1),
	)
}
