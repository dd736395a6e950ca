package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/infra/memory"

	"go.uber.org/zap"
)

func newTestProjector(store *memory.Store, now time.Time) *Projector {
	p := NewProjector(store, zap.NewNop())
	p.nowFn = func() time.Time { return now }
	return p
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProjectStartingBalanceFromLedger(t *testing.T) {
	store := memory.NewStore()
	store.AppendTransaction(domain.Transaction{ID: "t1", Amount: 5000, EntryType: domain.EntryIncome, Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)})
	store.AppendTransaction(domain.Transaction{ID: "t2", Amount: 1200.50, EntryType: domain.EntryExpense, Date: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)})

	p := newTestProjector(store, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	proj := p.Project(context.Background(), nil)

	if !almostEqual(proj.StartingBalance, 3799.50) {
		t.Errorf("expected starting balance 3799.50, got %v", proj.StartingBalance)
	}
	if len(proj.Points) == 0 {
		t.Fatal("expected at least the day-0 point")
	}
	if !almostEqual(proj.Points[0].Balance, 3799.50) {
		t.Errorf("day-0 point should carry the starting balance, got %v", proj.Points[0].Balance)
	}
}

func TestProjectConservation(t *testing.T) {
	store := memory.NewStore()
	store.AppendTransaction(domain.Transaction{ID: "t1", Amount: 4000, EntryType: domain.EntryIncome, Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)})
	store.InsertMonthlyBills(domain.Period{Year: 2025, Month: 3}, []domain.MonthlyBill{
		{ID: "b1", Name: "Internet", Year: 2025, Month: 3, Status: domain.BillPending, Amount: 99.90, DueDay: 20},
		{ID: "b2", Name: "Aluguel", Year: 2025, Month: 3, Status: domain.BillPending, Amount: 1500, DueDay: 25},
	})
	store.InsertMonthlyIncomes(domain.Period{Year: 2025, Month: 3}, []domain.MonthlyIncome{
		{ID: "i1", Name: "Salário", Year: 2025, Month: 3, Status: domain.IncomePending, Amount: 8000, IncomeDay: 28},
	})

	p := newTestProjector(store, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	proj := p.Project(context.Background(), nil)

	// Everything above falls inside the 30-day window.
	want := 4000.0 - 99.90 - 1500 + 8000
	final := proj.Points[len(proj.Points)-1]
	if !almostEqual(final.Balance, want) {
		t.Errorf("expected final balance %v, got %v", want, final.Balance)
	}
}

func TestProjectPaidBillsDoNotCount(t *testing.T) {
	store := memory.NewStore()
	paidDate := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	store.InsertMonthlyBills(domain.Period{Year: 2025, Month: 3}, []domain.MonthlyBill{
		{ID: "b1", Name: "Internet", Year: 2025, Month: 3, Status: domain.BillPaid, Amount: 99.90, DueDay: 20, PaidDate: &paidDate},
	})

	p := newTestProjector(store, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	proj := p.Project(context.Background(), nil)

	final := proj.Points[len(proj.Points)-1]
	if !almostEqual(final.Balance, 0) {
		t.Errorf("paid bill leaked into the projection: final balance %v", final.Balance)
	}
}

func TestProjectScenarioIsolation(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	p := newTestProjector(store, now)

	scenario := []domain.ScenarioEvent{
		{ID: "s1", Name: "Conserto do carro", Amount: 800, Day: 15, Kind: domain.EntryExpense},
	}
	withScenario := p.Project(context.Background(), scenario)
	final := withScenario.Points[len(withScenario.Points)-1]
	if !almostEqual(final.Balance, -800) {
		t.Errorf("expected scenario expense in final balance, got %v", final.Balance)
	}

	// The scenario must leave no trace: a second projection without it
	// sees a clean store.
	clean := p.Project(context.Background(), nil)
	cleanFinal := clean.Points[len(clean.Points)-1]
	if !almostEqual(cleanFinal.Balance, 0) {
		t.Errorf("scenario leaked into the store: final balance %v", cleanFinal.Balance)
	}
	if len(store.Transactions()) != 0 {
		t.Errorf("scenario persisted %d transactions", len(store.Transactions()))
	}
}

func TestProjectLowestPointFirstOccurrenceWins(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	p := newTestProjector(store, now)

	// Dip to -500 on day 12, recover to 0 on day 20, dip to -500
	// again on day 25. The first dip is the lowest point.
	scenarios := []domain.ScenarioEvent{
		{ID: "s1", Name: "a", Amount: 500, Day: 12, Kind: domain.EntryExpense},
		{ID: "s2", Name: "b", Amount: 500, Day: 20, Kind: domain.EntryIncome},
		{ID: "s3", Name: "c", Amount: 500, Day: 25, Kind: domain.EntryExpense},
		{ID: "s4", Name: "d", Amount: 500, Day: 28, Kind: domain.EntryIncome},
	}
	proj := p.Project(context.Background(), scenarios)

	if !almostEqual(proj.Lowest.Balance, -500) {
		t.Fatalf("expected lowest -500, got %v", proj.Lowest.Balance)
	}
	want := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	if !proj.Lowest.Date.Equal(want) {
		t.Errorf("expected first dip %v to win, got %v", want, proj.Lowest.Date)
	}
}

func TestProjectDayZeroPointIgnoresSameDayDelta(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	store.InsertMonthlyBills(domain.Period{Year: 2025, Month: 3}, []domain.MonthlyBill{
		{ID: "b1", Name: "Internet", Year: 2025, Month: 3, Status: domain.BillPending, Amount: 100, DueDay: 10},
	})

	p := newTestProjector(store, now)
	proj := p.Project(context.Background(), nil)

	if !almostEqual(proj.Points[0].Balance, 0) {
		t.Errorf("day-0 point should show the pre-delta balance, got %v", proj.Points[0].Balance)
	}
	final := proj.Points[len(proj.Points)-1]
	if !almostEqual(final.Balance, -100) {
		t.Errorf("day-0 delta must still reach the final balance, got %v", final.Balance)
	}
}

func TestProjectWindowExcludesFarFuture(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	// Due in May, outside [Mar 1, Mar 31].
	store.InsertMonthlyBills(domain.Period{Year: 2025, Month: 5}, []domain.MonthlyBill{
		{ID: "b1", Name: "IPVA", Year: 2025, Month: 5, Status: domain.BillPending, Amount: 2000, DueDay: 10},
	})

	p := newTestProjector(store, now)
	proj := p.Project(context.Background(), nil)

	final := proj.Points[len(proj.Points)-1]
	if !almostEqual(final.Balance, 0) {
		t.Errorf("bill outside the window leaked in: %v", final.Balance)
	}
}
