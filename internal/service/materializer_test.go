package service

import (
	"context"
	"testing"
	"time"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/infra/memory"
	"github.com/mfcastro/grana-api/internal/infra/observability"

	"go.uber.org/zap"
)

func newTestMaterializer(store *memory.Store, now time.Time) *Materializer {
	m := NewMaterializer(store, observability.NewMetrics(), zap.NewNop())
	m.nowFn = func() time.Time { return now }
	return m
}

func TestMaterializeBillsIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	store.AddFixedBill(domain.FixedBillTemplate{ID: "f1", Name: "Internet Fibra", DefaultValue: 99.90, DueDay: 20})
	store.AddFixedBill(domain.FixedBillTemplate{ID: "f2", Name: "Aluguel", DefaultValue: 1500, DueDay: 5})

	m := newTestMaterializer(store, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	p := domain.Period{Year: 2025, Month: 3}

	if created := m.MaterializeBills(context.Background(), p); created != 2 {
		t.Fatalf("expected 2 bills created, got %d", created)
	}
	if created := m.MaterializeBills(context.Background(), p); created != 0 {
		t.Fatalf("expected second run to create nothing, got %d", created)
	}
	if got := len(store.BillsForPeriod(p)); got != 2 {
		t.Errorf("expected 2 bills total, got %d", got)
	}
}

func TestMaterializeBillsStatusSnapshot(t *testing.T) {
	store := memory.NewStore()
	store.AddFixedBill(domain.FixedBillTemplate{ID: "f1", Name: "Internet Fibra", DefaultValue: 99.90, DueDay: 20})

	// Materializing the current month mid-month stays Pendente even
	// though day 20 has not arrived; materializing a past month whose
	// due date has passed starts Atrasada.
	m := newTestMaterializer(store, time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC))

	m.MaterializeBills(context.Background(), domain.Period{Year: 2025, Month: 3})
	current := store.BillsForPeriod(domain.Period{Year: 2025, Month: 3})
	if current[0].Status != domain.BillPending {
		t.Errorf("current month bill should be Pendente, got %s", current[0].Status)
	}

	m.MaterializeBills(context.Background(), domain.Period{Year: 2025, Month: 2})
	past := store.BillsForPeriod(domain.Period{Year: 2025, Month: 2})
	if past[0].Status != domain.BillOverdue {
		t.Errorf("past month bill should be Atrasada, got %s", past[0].Status)
	}
}

func TestMaterializeBillDefaults(t *testing.T) {
	store := memory.NewStore()
	store.AddFixedBill(domain.FixedBillTemplate{ID: "f1", Name: "Internet Fibra", DefaultValue: 99.90, DueDay: 20})

	m := newTestMaterializer(store, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	m.MaterializeBills(context.Background(), domain.Period{Year: 2025, Month: 3})

	bills := store.BillsForPeriod(domain.Period{Year: 2025, Month: 3})
	if len(bills) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(bills))
	}
	b := bills[0]
	if b.Name != "Internet Fibra" || b.Amount != 99.90 || b.DueDay != 20 {
		t.Errorf("instance does not carry template values: %+v", b)
	}
	if b.Status != domain.BillPending {
		t.Errorf("expected Pendente, got %s", b.Status)
	}
	if b.FixedBillID != "f1" {
		t.Errorf("expected template reference f1, got %s", b.FixedBillID)
	}
}

func TestMaterializeIncomesIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	store.AddRecurringIncome(domain.RecurringIncomeTemplate{ID: "i1", Name: "Salário", DefaultValue: 8000, IncomeDay: 5})

	m := newTestMaterializer(store, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	p := domain.Period{Year: 2025, Month: 3}

	if created := m.MaterializeIncomes(context.Background(), p); created != 1 {
		t.Fatalf("expected 1 income, got %d", created)
	}
	if created := m.MaterializeIncomes(context.Background(), p); created != 0 {
		t.Fatalf("expected second run to create nothing, got %d", created)
	}
	incomes := store.IncomesForPeriod(p)
	if incomes[0].Status != domain.IncomePending {
		t.Errorf("expected Pendente, got %s", incomes[0].Status)
	}
}

func TestMaterializeRecurringTransactionsPerTemplate(t *testing.T) {
	store := memory.NewStore()
	store.AddRecurringTransaction(domain.RecurringTransactionTemplate{
		ID: "r1", Description: "Spotify", Amount: 21.90, Category: "Lazer",
		Source: "Conta Corrente BB", EntryType: domain.EntryExpense, Day: 10,
	})

	m := newTestMaterializer(store, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	p := domain.Period{Year: 2025, Month: 3}

	if created := m.MaterializeRecurringTransactions(context.Background(), p); created != 1 {
		t.Fatalf("expected 1 transaction, got %d", created)
	}

	// A template added after the first run is picked up by the next one.
	store.AddRecurringTransaction(domain.RecurringTransactionTemplate{
		ID: "r2", Description: "Academia", Amount: 120, Category: "Saúde",
		Source: "Conta Corrente BB", EntryType: domain.EntryExpense, Day: 15,
	})
	if created := m.MaterializeRecurringTransactions(context.Background(), p); created != 1 {
		t.Fatalf("expected only the new template to materialize, got %d", created)
	}
	if got := len(store.TransactionsForPeriod(p)); got != 2 {
		t.Errorf("expected 2 ledger entries, got %d", got)
	}
}

func TestMaterializedRecurringTransactionsAreVariable(t *testing.T) {
	store := memory.NewStore()
	store.AddRecurringTransaction(domain.RecurringTransactionTemplate{
		ID: "r1", Description: "Spotify", Amount: 21.90, Category: "Lazer",
		Source: "Conta Corrente BB", EntryType: domain.EntryExpense, Day: 10,
	})

	m := newTestMaterializer(store, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	p := domain.Period{Year: 2025, Month: 3}
	m.MaterializeRecurringTransactions(context.Background(), p)

	txs := store.TransactionsForPeriod(p)
	if len(txs) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(txs))
	}
	// Variable, so recurring subscriptions feed the spending pattern
	// analysis alongside imported expenses.
	if txs[0].Kind != domain.KindVariable {
		t.Errorf("expected kind %q, got %q", domain.KindVariable, txs[0].Kind)
	}
}

func TestDateInPeriodClampsToMonthEnd(t *testing.T) {
	got := dateInPeriod(domain.Period{Year: 2025, Month: 2}, 31)
	want := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	got = dateInPeriod(domain.Period{Year: 2024, Month: 2}, 30)
	want = time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected leap day %v, got %v", want, got)
	}
}
