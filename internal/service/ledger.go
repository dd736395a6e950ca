package service

import (
	"context"
	"time"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Ledger owns the bill/income lifecycle transitions and the manual
// ledger entry points. Paying a bill both flips its status and appends
// the corresponding expense transaction; the two stay consistent
// because transitions are monotonic and deduplicated.
type Ledger struct {
	store         port.Store
	logger        *zap.Logger
	primarySource string
	nowFn         func() time.Time
}

// NewLedger creates the ledger service. primarySource is stamped on
// transactions emitted by bill payments and income receipts.
func NewLedger(store port.Store, logger *zap.Logger, primarySource string) *Ledger {
	return &Ledger{
		store:         store,
		logger:        logger,
		primarySource: primarySource,
		nowFn:         time.Now,
	}
}

// SetBillPaid marks the bill paid and appends the payment to the
// ledger, returning the created transaction (nil when deduplicated).
// amount overrides the bill's current value when non-nil.
// Already-paid bills are left untouched. The ledger entry is skipped
// when a transaction with the bill's name already exists in the
// period, so reconciliation and a manual click cannot double-book.
func (l *Ledger) SetBillPaid(ctx context.Context, billID string, paidDate time.Time, amount *float64, importID string) (domain.MonthlyBill, *domain.Transaction, error) {
	_, span := tracer.Start(ctx, "Ledger.SetBillPaid")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	bill, ok := l.store.GetBill(billID)
	if !ok {
		return domain.MonthlyBill{}, nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	if bill.Status == domain.BillPaid {
		return bill, nil, nil
	}

	if amount != nil {
		if *amount <= 0 {
			return domain.MonthlyBill{}, nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
		}
		bill.Amount = *amount
	}
	bill.Status = domain.BillPaid
	bill.PaidDate = &paidDate
	l.store.UpdateBill(bill)

	var created *domain.Transaction
	period := domain.Period{Year: bill.Year, Month: bill.Month}
	if !l.store.HasTransactionForPeriod(bill.Name, period) {
		tx := domain.Transaction{
			ID:          uuid.NewString(),
			Description: bill.Name,
			Amount:      bill.Amount,
			Date:        paidDate,
			Category:    domain.CategoryBills,
			Source:      l.primarySource,
			Kind:        domain.KindFixed,
			EntryType:   domain.EntryExpense,
			ImportID:    importID,
		}
		l.store.AppendTransaction(tx)
		created = &tx
	}

	l.logger.Info("bill paid",
		zap.String("bill_id", billID),
		zap.String("name", bill.Name),
		zap.Float64("amount", bill.Amount),
	)
	return bill, created, nil
}

// SetIncomeReceived marks the income received and appends the matching
// income transaction, with the same dedup rule as SetBillPaid.
func (l *Ledger) SetIncomeReceived(ctx context.Context, incomeID string, receivedDate time.Time, amount *float64) (domain.MonthlyIncome, error) {
	_, span := tracer.Start(ctx, "Ledger.SetIncomeReceived")
	defer span.End()
	span.SetAttributes(attribute.String("income.id", incomeID))

	income, ok := l.store.GetIncome(incomeID)
	if !ok {
		return domain.MonthlyIncome{}, &domain.ErrNotFound{Resource: "income", ID: incomeID}
	}
	if income.Status == domain.IncomeReceived {
		return income, nil
	}

	if amount != nil {
		if *amount <= 0 {
			return domain.MonthlyIncome{}, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
		}
		income.Amount = *amount
	}
	income.Status = domain.IncomeReceived
	income.ReceivedDate = &receivedDate
	l.store.UpdateIncome(income)

	period := domain.Period{Year: income.Year, Month: income.Month}
	if !l.store.HasTransactionForPeriod(income.Name, period) {
		l.store.AppendTransaction(domain.Transaction{
			ID:          uuid.NewString(),
			Description: income.Name,
			Amount:      income.Amount,
			Date:        receivedDate,
			Category:    domain.CategoryIncome,
			Source:      l.primarySource,
			Kind:        domain.KindFixed,
			EntryType:   domain.EntryIncome,
		})
	}

	l.logger.Info("income received",
		zap.String("income_id", incomeID),
		zap.String("name", income.Name),
		zap.Float64("amount", income.Amount),
	)
	return income, nil
}

// UpdateBillAmount patches the expected value of an unpaid bill.
func (l *Ledger) UpdateBillAmount(ctx context.Context, billID string, amount float64) (domain.MonthlyBill, error) {
	_, span := tracer.Start(ctx, "Ledger.UpdateBillAmount")
	defer span.End()

	if amount <= 0 {
		return domain.MonthlyBill{}, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	bill, ok := l.store.GetBill(billID)
	if !ok {
		return domain.MonthlyBill{}, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	bill.Amount = amount
	l.store.UpdateBill(bill)
	return bill, nil
}

// UpdateIncomeAmount patches the expected value of a pending income.
func (l *Ledger) UpdateIncomeAmount(ctx context.Context, incomeID string, amount float64) (domain.MonthlyIncome, error) {
	_, span := tracer.Start(ctx, "Ledger.UpdateIncomeAmount")
	defer span.End()

	if amount <= 0 {
		return domain.MonthlyIncome{}, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	income, ok := l.store.GetIncome(incomeID)
	if !ok {
		return domain.MonthlyIncome{}, &domain.ErrNotFound{Resource: "income", ID: incomeID}
	}
	income.Amount = amount
	l.store.UpdateIncome(income)
	return income, nil
}

// TransactionInput is a manual ledger entry before validation.
type TransactionInput struct {
	Description string           `json:"description"`
	Amount      float64          `json:"amount"`
	Date        time.Time        `json:"date"`
	Category    string           `json:"category"`
	Source      string           `json:"source"`
	EntryType   domain.EntryType `json:"entryType"`
}

// AddTransaction validates and appends a manual variable entry. On
// validation failure nothing is written.
func (l *Ledger) AddTransaction(ctx context.Context, in TransactionInput) (domain.Transaction, error) {
	_, span := tracer.Start(ctx, "Ledger.AddTransaction")
	defer span.End()

	if in.Description == "" {
		return domain.Transaction{}, &domain.ErrValidation{Field: "description", Message: "required"}
	}
	if in.Amount <= 0 {
		return domain.Transaction{}, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if in.Category == "" {
		return domain.Transaction{}, &domain.ErrValidation{Field: "category", Message: "required"}
	}
	if in.Date.IsZero() {
		return domain.Transaction{}, &domain.ErrValidation{Field: "date", Message: "required"}
	}
	entryType := in.EntryType
	if entryType == "" {
		entryType = domain.EntryExpense
	}
	source := in.Source
	if source == "" {
		source = l.primarySource
	}

	tx := domain.Transaction{
		ID:          uuid.NewString(),
		Description: in.Description,
		Amount:      in.Amount,
		Date:        in.Date,
		Category:    in.Category,
		Source:      source,
		Kind:        domain.KindVariable,
		EntryType:   entryType,
	}
	l.store.AppendTransaction(tx)
	return tx, nil
}

// DepositToGoal appends a savings transfer linked to the goal.
func (l *Ledger) DepositToGoal(ctx context.Context, goalID string, amount float64, date time.Time) (domain.Transaction, error) {
	_, span := tracer.Start(ctx, "Ledger.DepositToGoal")
	defer span.End()

	if amount <= 0 {
		return domain.Transaction{}, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	goal, ok := l.store.GetGoal(goalID)
	if !ok {
		return domain.Transaction{}, &domain.ErrNotFound{Resource: "goal", ID: goalID}
	}
	if date.IsZero() {
		date = l.nowFn()
	}

	tx := domain.Transaction{
		ID:          uuid.NewString(),
		Description: "Depósito: " + goal.Name,
		Amount:      amount,
		Date:        date,
		Category:    domain.CategorySavings,
		Source:      l.primarySource,
		Kind:        domain.KindVariable,
		EntryType:   domain.EntryExpense,
		GoalID:      goal.ID,
	}
	l.store.AppendTransaction(tx)
	return tx, nil
}

// Bills lists the period's materialized bills.
func (l *Ledger) Bills(ctx context.Context, p domain.Period) []domain.MonthlyBill {
	return l.store.BillsForPeriod(p)
}

// Incomes lists the period's materialized incomes.
func (l *Ledger) Incomes(ctx context.Context, p domain.Period) []domain.MonthlyIncome {
	return l.store.IncomesForPeriod(p)
}

// Transactions lists the whole ledger.
func (l *Ledger) Transactions(ctx context.Context) []domain.Transaction {
	return l.store.Transactions()
}

// TransactionsForPeriod lists the period's ledger entries.
func (l *Ledger) TransactionsForPeriod(ctx context.Context, p domain.Period) []domain.Transaction {
	return l.store.TransactionsForPeriod(p)
}

// Summary computes the dashboard view of one period: ledger totals,
// bill/income progress and budget usage.
func (l *Ledger) Summary(ctx context.Context, p domain.Period) domain.PeriodSummary {
	_, span := tracer.Start(ctx, "Ledger.Summary")
	defer span.End()
	span.SetAttributes(attribute.Int("period.year", p.Year), attribute.Int("period.month", p.Month))

	s := domain.PeriodSummary{
		Period:             p,
		SpendingByCategory: make(map[string]float64),
	}

	for _, tx := range l.store.TransactionsForPeriod(p) {
		if tx.EntryType == domain.EntryIncome {
			s.TotalIncome += tx.Amount
		} else {
			s.TotalExpenses += tx.Amount
			s.SpendingByCategory[tx.Category] += tx.Amount
		}
	}
	s.Balance = s.TotalIncome - s.TotalExpenses

	for _, b := range l.store.BillsForPeriod(p) {
		if b.Status == domain.BillPaid {
			s.PaidBillsAmount += b.Amount
		} else {
			s.PendingBillsAmount += b.Amount
		}
	}
	for _, in := range l.store.IncomesForPeriod(p) {
		if in.Status == domain.IncomeReceived {
			s.ReceivedAmount += in.Amount
		} else {
			s.PendingIncomeAmount += in.Amount
		}
	}

	for _, b := range l.store.Budgets() {
		s.Budgets = append(s.Budgets, domain.BudgetStatus{
			Category: b.Category,
			Limit:    b.Amount,
			Spent:    s.SpendingByCategory[b.Category],
		})
	}
	return s
}
