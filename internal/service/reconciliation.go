package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/infra/observability"
	"github.com/mfcastro/grana-api/internal/port"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	statementDateLayout = "02/01/2006"
	invoicePaymentMark  = "pagamento de fatura"
	suggestTimeout      = 30 * time.Second
)

var keywordSplitRe = regexp.MustCompile(`[\s\-\[\]]+`)

// Single-word noise in bill names (prepositions and articles).
var keywordStopWords = map[string]struct{}{
	"DE": {}, "A": {}, "O": {}, "PARA": {},
}

// Reconciler matches imported bank statement rows against outstanding
// bills and routes the rest to the uncategorized review queue. Row
// problems never abort a batch: malformed rows are dropped and
// duplicates skipped, both counted in metrics.
type Reconciler struct {
	store     port.Store
	ledger    *Ledger
	suggester port.SuggestionFetcher
	suggCache port.Cache[string]
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewReconciler creates the reconciliation service.
func NewReconciler(
	store port.Store,
	ledger *Ledger,
	suggester port.SuggestionFetcher,
	suggCache port.Cache[string],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		store:     store,
		ledger:    ledger,
		suggester: suggester,
		suggCache: suggCache,
		metrics:   metrics,
		logger:    logger,
	}
}

// ParseStatement turns raw tab-delimited statement text into rows.
// The first line is always discarded as a header. Expected columns:
// date (dd/mm/yyyy), amount (Brazilian or plain decimal), importId,
// description. Malformed rows are dropped; the second return value
// counts them.
func (r *Reconciler) ParseStatement(raw string) ([]domain.ParsedTransaction, int) {
	lines := strings.Split(raw, "\n")
	if len(lines) <= 1 {
		return nil, 0
	}

	var rows []domain.ParsedTransaction
	dropped := 0
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			dropped++
			continue
		}
		dateStr := strings.TrimSpace(fields[0])
		amountStr := strings.TrimSpace(fields[1])
		importID := strings.TrimSpace(fields[2])
		description := strings.TrimSpace(fields[3])
		if dateStr == "" || amountStr == "" || importID == "" || description == "" {
			dropped++
			continue
		}

		date, err := time.Parse(statementDateLayout, dateStr)
		if err != nil {
			dropped++
			continue
		}
		amount, err := parseAmount(amountStr)
		if err != nil {
			dropped++
			continue
		}

		// Zero counts as income: reversals and zeroed rows must not
		// enter the expense matching path.
		entryType := domain.EntryExpense
		if amount.Sign() >= 0 {
			entryType = domain.EntryIncome
		}
		value, _ := amount.Abs().Float64()

		rows = append(rows, domain.ParsedTransaction{
			Date:        date,
			Description: description,
			Amount:      value,
			EntryType:   entryType,
			ImportID:    importID,
		})
	}
	return rows, dropped
}

// parseAmount normalizes Brazilian number formatting. A comma marks
// the decimal separator and any dots are thousands ("1.234,56");
// without a comma the string is taken as a plain decimal ("-117.99").
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

// Reconcile parses the raw statement and runs the matching pass:
// duplicate importIds and invoice self-payments are skipped, expense
// rows that match an outstanding bill pay it, everything else lands in
// the uncategorized queue. Unmatched income rows are left to manual
// entry. After the summary is built a background goroutine enriches
// the queue with external category suggestions.
func (r *Reconciler) Reconcile(ctx context.Context, raw string) domain.ReconcileSummary {
	ctx, span := tracer.Start(ctx, "Reconciler.Reconcile")
	defer span.End()

	rows, dropped := r.ParseStatement(raw)
	span.SetAttributes(attribute.Int("rows.parsed", len(rows)), attribute.Int("rows.dropped", dropped))
	for i := 0; i < dropped; i++ {
		r.metrics.IncrImportRow(observability.OutcomeParseError)
	}

	// Snapshot of ledgered importIds, extended as the batch progresses
	// so the same id twice in one statement counts as a duplicate.
	seen := r.store.ImportIDs()
	templates := r.store.ListFixedBills()
	overrides := r.store.ListKeywordOverrides()

	summary := domain.ReconcileSummary{
		PaidBills:       []domain.MonthlyBill{},
		NewTransactions: []domain.Transaction{},
		Uncategorized:   []domain.UncategorizedTransaction{},
	}

	for _, row := range rows {
		if _, dup := seen[row.ImportID]; dup {
			summary.DuplicatesSkipped++
			r.metrics.IncrImportRow(observability.OutcomeDuplicate)
			continue
		}
		seen[row.ImportID] = struct{}{}

		if strings.Contains(strings.ToLower(row.Description), invoicePaymentMark) {
			summary.InternalSkipped++
			r.metrics.IncrImportRow(observability.OutcomeSkipped)
			continue
		}

		if row.EntryType == domain.EntryIncome {
			summary.IncomesIgnored++
			r.metrics.IncrImportRow(observability.OutcomeSkipped)
			continue
		}

		if bill, ok := r.findPayableBill(row.Description, templates, overrides, domain.PeriodOf(row.Date)); ok {
			amount := row.Amount
			paid, tx, err := r.ledger.SetBillPaid(ctx, bill.ID, row.Date, &amount, row.ImportID)
			if err == nil {
				summary.PaidBills = append(summary.PaidBills, paid)
				if tx != nil {
					summary.NewTransactions = append(summary.NewTransactions, *tx)
				}
				r.metrics.IncrImportRow(observability.OutcomeMatched)
				continue
			}
			r.logger.Warn("bill payment during reconcile failed",
				zap.String("bill_id", bill.ID),
				zap.Error(err),
			)
		}

		entry := domain.UncategorizedTransaction{
			ID:          uuid.NewString(),
			Date:        row.Date,
			Description: row.Description,
			Amount:      row.Amount,
			ImportID:    row.ImportID,
		}
		if category, ok := r.store.SuggestCategory(strings.ToUpper(row.Description)); ok {
			entry.SuggestedCategory = category
		}
		summary.Uncategorized = append(summary.Uncategorized, entry)
		r.metrics.IncrImportRow(observability.OutcomeUncategorized)
	}

	r.store.ReplaceUncategorized(summary.Uncategorized)

	r.logger.Info("statement reconciled",
		zap.Int("rows", len(rows)),
		zap.Int("paid_bills", len(summary.PaidBills)),
		zap.Int("uncategorized", len(summary.Uncategorized)),
		zap.Int("duplicates", summary.DuplicatesSkipped),
		zap.Int("parse_errors", dropped),
	)

	go r.enrichSuggestions(summary.Uncategorized)

	return summary
}

// findPayableBill finds the outstanding bill a statement description
// pays. First pass derives keywords from template names in insertion
// order, second pass checks the literal keyword overrides. A matching
// template whose bill for the period is absent or already Paid does
// not end the scan; the first payable hit wins.
func (r *Reconciler) findPayableBill(description string, templates []domain.FixedBillTemplate, overrides []domain.KeywordOverride, p domain.Period) (domain.MonthlyBill, bool) {
	upper := strings.ToUpper(description)

	for _, t := range templates {
		for _, kw := range deriveKeywords(t.Name) {
			if strings.Contains(upper, kw) {
				if bill, found := r.store.FindBillForTemplate(t.ID, p); found && bill.Status != domain.BillPaid {
					return bill, true
				}
				break
			}
		}
	}
	for _, o := range overrides {
		if strings.Contains(upper, strings.ToUpper(o.Keyword)) {
			if bill, found := r.store.FindBillForTemplate(o.TemplateID, p); found && bill.Status != domain.BillPaid {
				return bill, true
			}
		}
	}
	return domain.MonthlyBill{}, false
}

// deriveKeywords splits an uppercased bill name on whitespace, hyphens
// and brackets, keeping tokens longer than two characters that are not
// stop words.
func deriveKeywords(name string) []string {
	var keywords []string
	for _, token := range keywordSplitRe.Split(strings.ToUpper(name), -1) {
		if len(token) <= 2 {
			continue
		}
		if _, stop := keywordStopWords[token]; stop {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}

// enrichSuggestions asks the external suggestion service for the queue
// entries that still lack a category, detached from the request that
// triggered the import. Results outside the known category list are
// discarded and per-description answers are memoized in the TTL cache.
// Any failure degrades to an unenriched queue.
func (r *Reconciler) enrichSuggestions(queue []domain.UncategorizedTransaction) {
	ctx, cancel := context.WithTimeout(context.Background(), suggestTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "Reconciler.enrichSuggestions")
	defer span.End()

	categories := r.store.Categories()
	allowed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowed[c] = struct{}{}
	}

	merged := make(map[string]string)
	var items []domain.SuggestionItem
	keyByID := make(map[string]string)

	for _, u := range queue {
		if u.SuggestedCategory != "" {
			continue
		}
		key := strings.ToUpper(u.Description)
		if category, ok := r.suggCache.Get(key); ok {
			r.metrics.IncrCacheHit("suggestion")
			merged[u.ID] = category
			continue
		}
		r.metrics.IncrCacheMiss("suggestion")
		keyByID[u.ID] = key
		items = append(items, domain.SuggestionItem{
			ID:          u.ID,
			Description: u.Description,
			Amount:      u.Amount,
		})
	}

	if len(items) > 0 {
		result, err := r.suggester.SuggestCategories(ctx, &domain.SuggestionRequest{
			Items:      items,
			Categories: categories,
		})
		if err != nil {
			r.metrics.IncrSuggestionError()
			r.metrics.IncrExternalError("suggestion")
			r.logger.Warn("suggestion enrichment failed", zap.Error(err))
		}
		for id, category := range result {
			if _, ok := allowed[category]; !ok {
				continue
			}
			merged[id] = category
			if key, ok := keyByID[id]; ok {
				r.suggCache.Set(key, category)
			}
		}
	}

	if len(merged) > 0 {
		n := r.store.MergeSuggestions(merged)
		r.logger.Debug("suggestions merged", zap.Int("count", n))
	}
}

// Uncategorized lists the current review queue.
func (r *Reconciler) Uncategorized(ctx context.Context) []domain.UncategorizedTransaction {
	queue := r.store.Uncategorized()
	if queue == nil {
		queue = []domain.UncategorizedTransaction{}
	}
	return queue
}

// Confirm validates the reviewed rows, appends them to the ledger as
// variable expenses, teaches the pattern learner and clears the queue.
// A single invalid row rejects the whole batch before any write.
func (r *Reconciler) Confirm(ctx context.Context, rows []domain.ConfirmedTransaction) ([]domain.Transaction, error) {
	_, span := tracer.Start(ctx, "Reconciler.Confirm")
	defer span.End()
	span.SetAttributes(attribute.Int("rows.count", len(rows)))

	for _, row := range rows {
		if row.Description == "" {
			return nil, &domain.ErrValidation{Field: "description", Message: "required"}
		}
		if row.Category == "" {
			return nil, &domain.ErrValidation{Field: "category", Message: "required"}
		}
		if row.Amount <= 0 {
			return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
		}
		if row.Date.IsZero() {
			return nil, &domain.ErrValidation{Field: "date", Message: "required"}
		}
	}

	created := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		source := row.Source
		if source == "" {
			source = r.ledger.primarySource
		}
		tx := domain.Transaction{
			ID:          uuid.NewString(),
			Description: row.Description,
			Amount:      row.Amount,
			Date:        row.Date,
			Category:    row.Category,
			Source:      source,
			Kind:        domain.KindVariable,
			EntryType:   domain.EntryExpense,
			ImportID:    row.ImportID,
		}
		r.store.AppendTransaction(tx)
		r.store.LearnPattern(strings.ToUpper(row.Description), row.Category)
		created = append(created, tx)
	}
	r.store.ClearUncategorized()

	r.logger.Info("uncategorized rows confirmed", zap.Int("count", len(created)))
	return created, nil
}
