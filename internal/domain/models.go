// Package domain holds the core data model of the grana backend:
// recurring templates, their per-month materialized instances, the
// transaction ledger and the import/reconciliation types.
package domain

import "time"

// ============================================================
// Statuses and enums
// ============================================================

// BillStatus is the lifecycle state of a MonthlyBill.
// Transitions are monotonic: Pending/Overdue -> Paid, never back.
type BillStatus string

const (
	BillPending BillStatus = "Pendente"
	BillOverdue BillStatus = "Atrasada"
	BillPaid    BillStatus = "Paga"
)

// IncomeStatus is the lifecycle state of a MonthlyIncome.
type IncomeStatus string

const (
	IncomePending  IncomeStatus = "Pendente"
	IncomeReceived IncomeStatus = "Recebido"
)

// TransactionKind distinguishes materialized fixed obligations from
// day-to-day variable entries.
type TransactionKind string

const (
	KindFixed    TransactionKind = "Fixo"
	KindVariable TransactionKind = "Variável"
)

// EntryType is the direction of a ledger entry or scenario event.
type EntryType string

const (
	EntryIncome  EntryType = "income"
	EntryExpense EntryType = "expense"
)

// Default categories and the protected income category name.
const (
	CategoryBills   = "Dívidas"
	CategoryIncome  = "Renda"
	CategorySavings = "Poupança"
)

// ============================================================
// Period
// ============================================================

// Period identifies one (year, month) generation cycle.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Next returns the following calendar period.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && int(t.Month()) == p.Month
}

// ============================================================
// Templates (registry-owned definitions)
// ============================================================

// FixedBillTemplate is a recurring monthly obligation definition.
type FixedBillTemplate struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DefaultValue float64 `json:"defaultValue"`
	DueDay       int     `json:"dueDay"` // 1-31
}

// RecurringIncomeTemplate is a recurring monthly income definition.
type RecurringIncomeTemplate struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DefaultValue float64 `json:"defaultValue"`
	IncomeDay    int     `json:"incomeDay"` // 1-31
}

// RecurringTransactionTemplate is a recurring ledger entry definition
// (e.g. a subscription) materialized straight into the ledger.
type RecurringTransactionTemplate struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	EntryType   EntryType `json:"entryType"`
	Day         int       `json:"day"` // 1-31
}

// KeywordOverride maps a literal statement keyword to a fixed-bill
// template, for bills whose statement text does not derive from the
// bill's own name (e.g. the financing bank's legal name).
type KeywordOverride struct {
	Keyword    string `json:"keyword"` // matched uppercased, literal contains
	TemplateID string `json:"templateId"`
}

// Budget is a per-category monthly spending limit.
type Budget struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// SavingsGoal is a named savings target funded by goal-linked deposits.
type SavingsGoal struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	TargetAmount float64 `json:"targetAmount"`
}

// ============================================================
// Materialized per-period instances
// ============================================================

// MonthlyBill is one month's concrete instance of a FixedBillTemplate.
// FixedBillID is a weak reference: deleting the template orphans the
// instance, it does not cascade.
type MonthlyBill struct {
	ID          string     `json:"id"`
	FixedBillID string     `json:"fixedBillId"`
	Name        string     `json:"name"`
	Month       int        `json:"month"`
	Year        int        `json:"year"`
	Status      BillStatus `json:"status"`
	Amount      float64    `json:"amount"`
	DueDay      int        `json:"dueDay"`
	PaidDate    *time.Time `json:"paidDate,omitempty"`
}

// MonthlyIncome is one month's concrete instance of a RecurringIncomeTemplate.
type MonthlyIncome struct {
	ID                string       `json:"id"`
	RecurringIncomeID string       `json:"recurringIncomeId"`
	Name              string       `json:"name"`
	Month             int          `json:"month"`
	Year              int          `json:"year"`
	Status            IncomeStatus `json:"status"`
	Amount            float64      `json:"amount"`
	IncomeDay         int          `json:"incomeDay"`
	ReceivedDate      *time.Time   `json:"receivedDate,omitempty"`
}

// ============================================================
// Ledger
// ============================================================

// Transaction is an append-mostly ledger entry. Once created it is
// immutable except for category/source renames cascading from the
// registry. Amount is always positive; EntryType carries the sign.
type Transaction struct {
	ID                     string          `json:"id"`
	Description            string          `json:"description"`
	Amount                 float64         `json:"amount"`
	Date                   time.Time       `json:"date"`
	Category               string          `json:"category"`
	Source                 string          `json:"source"`
	Kind                   TransactionKind `json:"kind"`
	EntryType              EntryType       `json:"entryType"`
	ImportID               string          `json:"importId,omitempty"` // dedup key from bank statements
	RecurringTransactionID string          `json:"recurringTransactionId,omitempty"`
	GoalID                 string          `json:"goalId,omitempty"`
}

// ============================================================
// Import / reconciliation
// ============================================================

// ParsedTransaction is one well-formed row of an imported bank statement.
type ParsedTransaction struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"` // absolute value
	EntryType   EntryType `json:"entryType"`
	ImportID    string    `json:"importId"`
}

// UncategorizedTransaction is a transient queue entry for a statement
// row that matched no outstanding bill. The queue lives until the rows
// are confirmed or the next import replaces it.
type UncategorizedTransaction struct {
	ID                string    `json:"id"`
	Date              time.Time `json:"date"`
	Description       string    `json:"description"`
	Amount            float64   `json:"amount"`
	ImportID          string    `json:"importId"`
	SuggestedCategory string    `json:"suggestedCategory,omitempty"`
}

// ReconcileSummary is the outcome of one import batch.
type ReconcileSummary struct {
	PaidBills         []MonthlyBill              `json:"paidBills"`
	NewTransactions   []Transaction              `json:"newTransactions"`
	Uncategorized     []UncategorizedTransaction `json:"uncategorized"`
	DuplicatesSkipped int                        `json:"duplicatesSkipped"`
	InternalSkipped   int                        `json:"internalSkipped"` // invoice self-payment noise
	IncomesIgnored    int                        `json:"incomesIgnored"`  // unmatched income rows, left to manual entry
}

// ConfirmedTransaction is one user-reviewed row from the uncategorized
// queue, ready to enter the ledger.
type ConfirmedTransaction struct {
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	ImportID    string    `json:"importId,omitempty"`
}

// ============================================================
// Projection
// ============================================================

// ScenarioEvent is a hypothetical income or expense used only for
// cash-flow simulation. Never persisted to the ledger.
type ScenarioEvent struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Amount float64   `json:"amount"` // > 0
	Day    int       `json:"day"`    // 1-31
	Kind   EntryType `json:"kind"`
}

// BalancePoint is one checkpoint of the projected balance series.
type BalancePoint struct {
	Date    time.Time `json:"date"`
	Balance float64   `json:"balance"`
}

// Projection is the 30-day balance trajectory plus its minimum.
type Projection struct {
	StartingBalance float64        `json:"startingBalance"`
	Points          []BalancePoint `json:"points"`
	Lowest          BalancePoint   `json:"lowest"`
}

// ============================================================
// Summaries & insights
// ============================================================

// BudgetStatus is one budget line with the amount already spent in the
// viewing period.
type BudgetStatus struct {
	Category string  `json:"category"`
	Limit    float64 `json:"limit"`
	Spent    float64 `json:"spent"`
}

// PeriodSummary is the dashboard view of one period.
type PeriodSummary struct {
	Period              Period             `json:"period"`
	TotalIncome         float64            `json:"totalIncome"`
	TotalExpenses       float64            `json:"totalExpenses"`
	Balance             float64            `json:"balance"`
	PaidBillsAmount     float64            `json:"paidBillsAmount"`
	PendingBillsAmount  float64            `json:"pendingBillsAmount"`
	ReceivedAmount      float64            `json:"receivedAmount"`
	PendingIncomeAmount float64            `json:"pendingIncomeAmount"`
	SpendingByCategory  map[string]float64 `json:"spendingByCategory"`
	Budgets             []BudgetStatus     `json:"budgets"`
}

// SpendingPattern is one recurring-spending insight returned by the
// external pattern service.
type SpendingPattern struct {
	Merchant   string  `json:"merchant"`
	Frequency  string  `json:"frequency"`
	TotalSpent float64 `json:"totalSpent"`
	Insight    string  `json:"insight"`
}

// FinancialOverview combines the local period summary with the
// best-effort external pattern analysis.
type FinancialOverview struct {
	Summary  PeriodSummary     `json:"summary"`
	Patterns []SpendingPattern `json:"patterns"`
}

// ============================================================
// External suggestion service contract
// ============================================================

// SuggestionItem is one queue entry sent to the suggestion service.
type SuggestionItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// SuggestionRequest is the batch payload for the suggestion service.
type SuggestionRequest struct {
	Items      []SuggestionItem `json:"items"`
	Categories []string         `json:"categories"`
}

// ImportMetrics is a JSON snapshot of the import/reconciliation
// counters, served by GET /v1/metrics/import.
type ImportMetrics struct {
	RowsMatched       int64   `json:"rowsMatched"`
	RowsUncategorized int64   `json:"rowsUncategorized"`
	RowsDuplicate     int64   `json:"rowsDuplicate"`
	RowsSkipped       int64   `json:"rowsSkipped"`
	RowsParseError    int64   `json:"rowsParseError"`
	SuggestionErrors  int64   `json:"suggestionErrors"`
	MatchRate         float64 `json:"matchRate"`
}
