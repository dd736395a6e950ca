package service

import (
	"context"
	"time"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const projectionDays = 30

// Projector computes the 30-day cash-flow trajectory from the current
// ledger balance, the outstanding bills and incomes, and optional
// what-if scenario events. It never writes: scenarios influence the
// series only and leave no trace in the store.
type Projector struct {
	store  port.Store
	logger *zap.Logger
	nowFn  func() time.Time
}

// NewProjector creates the projection service.
func NewProjector(store port.Store, logger *zap.Logger) *Projector {
	return &Projector{store: store, logger: logger, nowFn: time.Now}
}

// Project builds the balance series over [today, today+30]. The first
// checkpoint always carries the raw starting balance; deltas landing
// on day zero still flow into the running balance so the final point
// equals start plus everything in the window.
func (p *Projector) Project(ctx context.Context, scenarios []domain.ScenarioEvent) domain.Projection {
	_, span := tracer.Start(ctx, "Projector.Project")
	defer span.End()
	span.SetAttributes(attribute.Int("scenarios.count", len(scenarios)))

	now := p.nowFn()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	horizon := today.AddDate(0, 0, projectionDays)

	start := p.startingBalance()
	deltas := p.collectDeltas(today, horizon, scenarios)

	balance := start
	startVal, _ := start.Float64()
	points := []domain.BalancePoint{{Date: today, Balance: startVal}}
	if d, ok := deltas[dayKey(today)]; ok {
		balance = balance.Add(d)
	}

	for offset := 1; offset <= projectionDays; offset++ {
		day := today.AddDate(0, 0, offset)
		delta, ok := deltas[dayKey(day)]
		if ok {
			balance = balance.Add(delta)
		}
		if ok && !delta.IsZero() || offset == projectionDays {
			v, _ := balance.Float64()
			points = append(points, domain.BalancePoint{Date: day, Balance: v})
		}
	}

	lowest := points[0]
	for _, pt := range points[1:] {
		if pt.Balance < lowest.Balance {
			lowest = pt
		}
	}

	return domain.Projection{
		StartingBalance: startVal,
		Points:          points,
		Lowest:          lowest,
	}
}

// startingBalance folds the whole ledger: income adds, expense subtracts.
func (p *Projector) startingBalance() decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range p.store.Transactions() {
		amount := decimal.NewFromFloat(tx.Amount)
		if tx.EntryType == domain.EntryIncome {
			balance = balance.Add(amount)
		} else {
			balance = balance.Sub(amount)
		}
	}
	return balance
}

// collectDeltas keys every balance movement inside the window by day:
// pending bills subtract, pending incomes add, and scenario events are
// expanded into pseudo instances for the current and next month.
func (p *Projector) collectDeltas(today, horizon time.Time, scenarios []domain.ScenarioEvent) map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal)

	add := func(day time.Time, amount decimal.Decimal) {
		if day.Before(today) || day.After(horizon) {
			return
		}
		key := dayKey(day)
		deltas[key] = deltas[key].Add(amount)
	}

	for _, b := range p.store.PendingBills() {
		due := time.Date(b.Year, time.Month(b.Month), b.DueDay, 0, 0, 0, 0, time.UTC)
		add(due, decimal.NewFromFloat(b.Amount).Neg())
	}
	for _, in := range p.store.PendingIncomes() {
		day := time.Date(in.Year, time.Month(in.Month), in.IncomeDay, 0, 0, 0, 0, time.UTC)
		add(day, decimal.NewFromFloat(in.Amount))
	}

	for _, s := range scenarios {
		amount := decimal.NewFromFloat(s.Amount)
		if s.Kind != domain.EntryIncome {
			amount = amount.Neg()
		}
		// Current and next month occurrences, enough to cover the
		// 30-day window from any start date.
		add(time.Date(today.Year(), today.Month(), s.Day, 0, 0, 0, 0, time.UTC), amount)
		add(time.Date(today.Year(), today.Month()+1, s.Day, 0, 0, 0, 0, time.UTC), amount)
	}

	return deltas
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
