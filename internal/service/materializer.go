package service

import (
	"context"
	"time"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/infra/observability"
	"github.com/mfcastro/grana-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// Materializer turns recurring templates into concrete per-month
// instances. Each kind is idempotent on its own: bills and incomes as
// all-or-nothing batches per period, recurring transactions per
// template. Running it twice for the same period never duplicates.
type Materializer struct {
	store   port.Store
	metrics *observability.Metrics
	logger  *zap.Logger
	nowFn   func() time.Time
}

// NewMaterializer creates the materializer service.
func NewMaterializer(store port.Store, metrics *observability.Metrics, logger *zap.Logger) *Materializer {
	return &Materializer{
		store:   store,
		metrics: metrics,
		logger:  logger,
		nowFn:   time.Now,
	}
}

// MaterializeResult reports how many instances each run created.
type MaterializeResult struct {
	Bills        int `json:"bills"`
	Incomes      int `json:"incomes"`
	Transactions int `json:"transactions"`
}

// MaterializePeriod runs all three materializations for the period.
func (m *Materializer) MaterializePeriod(ctx context.Context, p domain.Period) MaterializeResult {
	ctx, span := tracer.Start(ctx, "Materializer.MaterializePeriod")
	defer span.End()
	span.SetAttributes(attribute.Int("period.year", p.Year), attribute.Int("period.month", p.Month))

	res := MaterializeResult{
		Bills:        m.MaterializeBills(ctx, p),
		Incomes:      m.MaterializeIncomes(ctx, p),
		Transactions: m.MaterializeRecurringTransactions(ctx, p),
	}
	m.logger.Info("period materialized",
		zap.Int("year", p.Year),
		zap.Int("month", p.Month),
		zap.Int("bills", res.Bills),
		zap.Int("incomes", res.Incomes),
		zap.Int("transactions", res.Transactions),
	)
	return res
}

// MaterializeBills creates this period's bill instances from every
// fixed-bill template. The whole batch is skipped when the period was
// already materialized. Returns the number of instances created.
func (m *Materializer) MaterializeBills(ctx context.Context, p domain.Period) int {
	_, span := tracer.Start(ctx, "Materializer.MaterializeBills")
	defer span.End()

	templates := m.store.ListFixedBills()
	if len(templates) == 0 {
		return 0
	}

	now := m.nowFn()
	bills := make([]domain.MonthlyBill, 0, len(templates))
	for _, t := range templates {
		bills = append(bills, domain.MonthlyBill{
			ID:          uuid.NewString(),
			FixedBillID: t.ID,
			Name:        t.Name,
			Month:       p.Month,
			Year:        p.Year,
			Status:      billStatusAt(now, p, t.DueDay),
			Amount:      t.DefaultValue,
			DueDay:      t.DueDay,
		})
	}

	if !m.store.InsertMonthlyBills(p, bills) {
		return 0
	}
	m.metrics.AddMaterialized("bill", len(bills))
	return len(bills)
}

// MaterializeIncomes creates this period's income instances, same
// batch-or-nothing contract as bills.
func (m *Materializer) MaterializeIncomes(ctx context.Context, p domain.Period) int {
	_, span := tracer.Start(ctx, "Materializer.MaterializeIncomes")
	defer span.End()

	templates := m.store.ListRecurringIncomes()
	if len(templates) == 0 {
		return 0
	}

	incomes := make([]domain.MonthlyIncome, 0, len(templates))
	for _, t := range templates {
		incomes = append(incomes, domain.MonthlyIncome{
			ID:                uuid.NewString(),
			RecurringIncomeID: t.ID,
			Name:              t.Name,
			Month:             p.Month,
			Year:              p.Year,
			Status:            domain.IncomePending,
			Amount:            t.DefaultValue,
			IncomeDay:         t.IncomeDay,
		})
	}

	if !m.store.InsertMonthlyIncomes(p, incomes) {
		return 0
	}
	m.metrics.AddMaterialized("income", len(incomes))
	return len(incomes)
}

// MaterializeRecurringTransactions appends one ledger entry per
// recurring transaction template, dated on the template's day clamped
// to the period's last day. Idempotent per template, so a template
// added mid-month still materializes on the next run.
func (m *Materializer) MaterializeRecurringTransactions(ctx context.Context, p domain.Period) int {
	_, span := tracer.Start(ctx, "Materializer.MaterializeRecurringTransactions")
	defer span.End()

	created := 0
	for _, t := range m.store.ListRecurringTransactions() {
		tx := domain.Transaction{
			ID:                     uuid.NewString(),
			Description:            t.Description,
			Amount:                 t.Amount,
			Date:                   dateInPeriod(p, t.Day),
			Category:               t.Category,
			Source:                 t.Source,
			Kind:                   domain.KindVariable,
			EntryType:              t.EntryType,
			RecurringTransactionID: t.ID,
		}
		if m.store.AppendRecurringTransaction(tx, p) {
			created++
		}
	}
	if created > 0 {
		m.metrics.AddMaterialized("transaction", created)
	}
	return created
}

// billStatusAt is the status snapshot taken at materialization time: a
// bill starts Overdue only when its period's month is already behind
// the clock and the due date has passed. The snapshot is not
// re-derived on later reads.
func billStatusAt(now time.Time, p domain.Period, dueDay int) domain.BillStatus {
	due := dateInPeriod(p, dueDay)
	laterMonth := now.Year() > p.Year || (now.Year() == p.Year && int(now.Month()) > p.Month)
	if laterMonth && now.After(due) {
		return domain.BillOverdue
	}
	return domain.BillPending
}

// dateInPeriod places day inside the period, clamped to the month's
// last day so a day-31 template lands on Feb 28 instead of rolling
// into March and breaking per-period idempotence.
func dateInPeriod(p domain.Period, day int) time.Time {
	last := time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(p.Year, time.Month(p.Month), day, 0, 0, 0, 0, time.UTC)
}
