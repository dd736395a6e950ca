// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/mfcastro/grana-api/internal/domain"
)

// Store is the single in-memory Store/Ledger aggregate shared by every
// service. All mutations are discrete synchronous operations; the
// batch-insert methods perform their existence check and insert under
// one lock so materialization stays idempotent.
//
// Implemented by the memory adapter (or any other persistence layer).
type Store interface {
	// Fixed-bill templates (insertion order is observable: the
	// reconciliation engine's first-match tie-break iterates it).
	ListFixedBills() []domain.FixedBillTemplate
	AddFixedBill(t domain.FixedBillTemplate)
	UpdateFixedBill(t domain.FixedBillTemplate) bool
	DeleteFixedBill(id string) bool

	// Recurring income templates
	ListRecurringIncomes() []domain.RecurringIncomeTemplate
	AddRecurringIncome(t domain.RecurringIncomeTemplate)
	UpdateRecurringIncome(t domain.RecurringIncomeTemplate) bool
	DeleteRecurringIncome(id string) bool

	// Recurring transaction templates
	ListRecurringTransactions() []domain.RecurringTransactionTemplate
	AddRecurringTransaction(t domain.RecurringTransactionTemplate)
	UpdateRecurringTransaction(t domain.RecurringTransactionTemplate) bool
	DeleteRecurringTransaction(id string) bool

	// Keyword overrides (literal statement keyword -> fixed-bill template)
	ListKeywordOverrides() []domain.KeywordOverride
	SetKeywordOverrides(overrides []domain.KeywordOverride)

	// Categories and sources
	Categories() []string
	AddCategory(name string)
	RenameCategory(oldName, newName string) // cascades to ledger transactions
	DeleteCategory(name string)
	CategoryInUse(name string) bool
	Sources() []string
	AddSource(name string)
	RenameSource(oldName, newName string) // cascades to ledger transactions
	DeleteSource(name string)
	SourceInUse(name string) bool

	// Monthly bills / incomes. The Insert* methods are all-or-nothing:
	// they refuse the whole batch when any instance already exists for
	// the period.
	InsertMonthlyBills(p domain.Period, bills []domain.MonthlyBill) bool
	InsertMonthlyIncomes(p domain.Period, incomes []domain.MonthlyIncome) bool
	BillsForPeriod(p domain.Period) []domain.MonthlyBill
	IncomesForPeriod(p domain.Period) []domain.MonthlyIncome
	GetBill(id string) (domain.MonthlyBill, bool)
	GetIncome(id string) (domain.MonthlyIncome, bool)
	UpdateBill(b domain.MonthlyBill) bool
	UpdateIncome(i domain.MonthlyIncome) bool
	FindBillForTemplate(templateID string, p domain.Period) (domain.MonthlyBill, bool)
	PendingBills() []domain.MonthlyBill
	PendingIncomes() []domain.MonthlyIncome

	// Ledger
	AppendTransaction(tx domain.Transaction)
	// AppendRecurringTransaction inserts only if no transaction for the
	// same template exists in the period; the check and insert are atomic.
	AppendRecurringTransaction(tx domain.Transaction, p domain.Period) bool
	Transactions() []domain.Transaction
	TransactionsForPeriod(p domain.Period) []domain.Transaction
	HasImportID(importID string) bool
	ImportIDs() map[string]struct{}
	HasTransactionForPeriod(description string, p domain.Period) bool

	// Category pattern map (keys are uppercased descriptions)
	LearnPattern(key, category string)
	SuggestCategory(key string) (string, bool)

	// Uncategorized queue
	ReplaceUncategorized(queue []domain.UncategorizedTransaction)
	Uncategorized() []domain.UncategorizedTransaction
	ClearUncategorized()
	// MergeSuggestions fills SuggestedCategory by queue entry id where
	// still empty; returns how many entries were updated.
	MergeSuggestions(byID map[string]string) int

	// Budgets and savings goals
	Budgets() []domain.Budget
	SetBudget(b domain.Budget)
	DeleteBudget(category string) bool
	Goals() []domain.SavingsGoal
	AddGoal(g domain.SavingsGoal)
	DeleteGoal(id string) bool
	GetGoal(id string) (domain.SavingsGoal, bool)
}

// SuggestionFetcher asks the external suggestion service for category
// suggestions over a batch of uncategorized rows. The returned map is
// partial, keyed by row id.
type SuggestionFetcher interface {
	SuggestCategories(ctx context.Context, req *domain.SuggestionRequest) (map[string]string, error)
}

// PatternAnalyzer asks the external pattern service for recurring
// spending insights over ledger transactions.
type PatternAnalyzer interface {
	AnalyzePatterns(ctx context.Context, txs []domain.Transaction) ([]domain.SpendingPattern, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
