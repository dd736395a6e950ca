// Package memory implements the Store port as a single in-memory
// aggregate. The model assumes one logical writer: every method is a
// discrete synchronous operation guarded by one mutex, and the
// check-then-insert batch methods hold the lock across both steps so
// materialization cannot interleave with itself.
package memory

import (
	"sort"
	"sync"

	"github.com/mfcastro/grana-api/internal/domain"
)

// Store owns all shared mutable state: the template registry, the
// per-period instances, the ledger, the uncategorized queue and the
// learned category patterns.
type Store struct {
	mu sync.RWMutex

	fixedBills       []domain.FixedBillTemplate
	recurringIncomes []domain.RecurringIncomeTemplate
	recurringTxs     []domain.RecurringTransactionTemplate
	overrides        []domain.KeywordOverride

	categories []string
	sources    []string

	bills   []domain.MonthlyBill
	incomes []domain.MonthlyIncome

	transactions []domain.Transaction
	importIDs    map[string]struct{}

	patterns map[string]string

	uncategorized []domain.UncategorizedTransaction

	budgets []domain.Budget
	goals   []domain.SavingsGoal
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		importIDs: make(map[string]struct{}),
		patterns:  make(map[string]string),
	}
}

// ============================================================
// Fixed-bill templates
// ============================================================

func (s *Store) ListFixedBills() []domain.FixedBillTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FixedBillTemplate, len(s.fixedBills))
	copy(out, s.fixedBills)
	return out
}

func (s *Store) AddFixedBill(t domain.FixedBillTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixedBills = append(s.fixedBills, t)
}

func (s *Store) UpdateFixedBill(t domain.FixedBillTemplate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.fixedBills {
		if s.fixedBills[i].ID == t.ID {
			s.fixedBills[i] = t
			return true
		}
	}
	return false
}

func (s *Store) DeleteFixedBill(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.fixedBills {
		if s.fixedBills[i].ID == id {
			s.fixedBills = append(s.fixedBills[:i], s.fixedBills[i+1:]...)
			return true
		}
	}
	return false
}

// ============================================================
// Recurring income templates
// ============================================================

func (s *Store) ListRecurringIncomes() []domain.RecurringIncomeTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RecurringIncomeTemplate, len(s.recurringIncomes))
	copy(out, s.recurringIncomes)
	return out
}

func (s *Store) AddRecurringIncome(t domain.RecurringIncomeTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurringIncomes = append(s.recurringIncomes, t)
}

func (s *Store) UpdateRecurringIncome(t domain.RecurringIncomeTemplate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurringIncomes {
		if s.recurringIncomes[i].ID == t.ID {
			s.recurringIncomes[i] = t
			return true
		}
	}
	return false
}

func (s *Store) DeleteRecurringIncome(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurringIncomes {
		if s.recurringIncomes[i].ID == id {
			s.recurringIncomes = append(s.recurringIncomes[:i], s.recurringIncomes[i+1:]...)
			return true
		}
	}
	return false
}

// ============================================================
// Recurring transaction templates
// ============================================================

func (s *Store) ListRecurringTransactions() []domain.RecurringTransactionTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RecurringTransactionTemplate, len(s.recurringTxs))
	copy(out, s.recurringTxs)
	return out
}

func (s *Store) AddRecurringTransaction(t domain.RecurringTransactionTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurringTxs = append(s.recurringTxs, t)
}

func (s *Store) UpdateRecurringTransaction(t domain.RecurringTransactionTemplate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurringTxs {
		if s.recurringTxs[i].ID == t.ID {
			s.recurringTxs[i] = t
			return true
		}
	}
	return false
}

func (s *Store) DeleteRecurringTransaction(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurringTxs {
		if s.recurringTxs[i].ID == id {
			s.recurringTxs = append(s.recurringTxs[:i], s.recurringTxs[i+1:]...)
			return true
		}
	}
	return false
}

// ============================================================
// Keyword overrides
// ============================================================

func (s *Store) ListKeywordOverrides() []domain.KeywordOverride {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.KeywordOverride, len(s.overrides))
	copy(out, s.overrides)
	return out
}

func (s *Store) SetKeywordOverrides(overrides []domain.KeywordOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = make([]domain.KeywordOverride, len(overrides))
	copy(s.overrides, overrides)
}

// ============================================================
// Categories and sources
// ============================================================

func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

func (s *Store) AddCategory(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, name)
	sort.Strings(s.categories)
}

// RenameCategory rewrites the category list and cascades the rename to
// every ledger transaction referencing the old name.
func (s *Store) RenameCategory(oldName, newName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c == oldName {
			s.categories[i] = newName
		}
	}
	sort.Strings(s.categories)
	for i := range s.transactions {
		if s.transactions[i].Category == oldName {
			s.transactions[i].Category = newName
		}
	}
}

func (s *Store) DeleteCategory(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c == name {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return
		}
	}
}

func (s *Store) CategoryInUse(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.transactions {
		if s.transactions[i].Category == name {
			return true
		}
	}
	return false
}

func (s *Store) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.sources))
	copy(out, s.sources)
	return out
}

func (s *Store) AddSource(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, name)
	sort.Strings(s.sources)
}

func (s *Store) RenameSource(oldName, newName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, src := range s.sources {
		if src == oldName {
			s.sources[i] = newName
		}
	}
	sort.Strings(s.sources)
	for i := range s.transactions {
		if s.transactions[i].Source == oldName {
			s.transactions[i].Source = newName
		}
	}
}

func (s *Store) DeleteSource(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, src := range s.sources {
		if src == name {
			s.sources = append(s.sources[:i], s.sources[i+1:]...)
			return
		}
	}
}

func (s *Store) SourceInUse(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.transactions {
		if s.transactions[i].Source == name {
			return true
		}
	}
	return false
}

// ============================================================
// Monthly bills / incomes
// ============================================================

// InsertMonthlyBills appends the batch only if no bill exists for the
// period yet. Check and insert run under one lock: two materialize
// calls for the same period cannot interleave.
func (s *Store) InsertMonthlyBills(p domain.Period, bills []domain.MonthlyBill) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bills {
		if s.bills[i].Year == p.Year && s.bills[i].Month == p.Month {
			return false
		}
	}
	s.bills = append(s.bills, bills...)
	return true
}

func (s *Store) InsertMonthlyIncomes(p domain.Period, incomes []domain.MonthlyIncome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.incomes {
		if s.incomes[i].Year == p.Year && s.incomes[i].Month == p.Month {
			return false
		}
	}
	s.incomes = append(s.incomes, incomes...)
	return true
}

func (s *Store) BillsForPeriod(p domain.Period) []domain.MonthlyBill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.MonthlyBill
	for i := range s.bills {
		if s.bills[i].Year == p.Year && s.bills[i].Month == p.Month {
			out = append(out, s.bills[i])
		}
	}
	return out
}

func (s *Store) IncomesForPeriod(p domain.Period) []domain.MonthlyIncome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.MonthlyIncome
	for i := range s.incomes {
		if s.incomes[i].Year == p.Year && s.incomes[i].Month == p.Month {
			out = append(out, s.incomes[i])
		}
	}
	return out
}

func (s *Store) GetBill(id string) (domain.MonthlyBill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.bills {
		if s.bills[i].ID == id {
			return s.bills[i], true
		}
	}
	return domain.MonthlyBill{}, false
}

func (s *Store) GetIncome(id string) (domain.MonthlyIncome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.incomes {
		if s.incomes[i].ID == id {
			return s.incomes[i], true
		}
	}
	return domain.MonthlyIncome{}, false
}

func (s *Store) UpdateBill(b domain.MonthlyBill) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bills {
		if s.bills[i].ID == b.ID {
			s.bills[i] = b
			return true
		}
	}
	return false
}

func (s *Store) UpdateIncome(in domain.MonthlyIncome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.incomes {
		if s.incomes[i].ID == in.ID {
			s.incomes[i] = in
			return true
		}
	}
	return false
}

func (s *Store) FindBillForTemplate(templateID string, p domain.Period) (domain.MonthlyBill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.bills {
		b := &s.bills[i]
		if b.FixedBillID == templateID && b.Year == p.Year && b.Month == p.Month {
			return *b, true
		}
	}
	return domain.MonthlyBill{}, false
}

func (s *Store) PendingBills() []domain.MonthlyBill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.MonthlyBill
	for i := range s.bills {
		if s.bills[i].Status == domain.BillPending {
			out = append(out, s.bills[i])
		}
	}
	return out
}

func (s *Store) PendingIncomes() []domain.MonthlyIncome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.MonthlyIncome
	for i := range s.incomes {
		if s.incomes[i].Status == domain.IncomePending {
			out = append(out, s.incomes[i])
		}
	}
	return out
}

// ============================================================
// Ledger
// ============================================================

func (s *Store) AppendTransaction(tx domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(tx)
}

func (s *Store) appendLocked(tx domain.Transaction) {
	s.transactions = append(s.transactions, tx)
	if tx.ImportID != "" {
		s.importIDs[tx.ImportID] = struct{}{}
	}
}

// AppendRecurringTransaction inserts only when the template has no
// transaction in the period yet, so partial materialization across
// templates is safe to retry.
func (s *Store) AppendRecurringTransaction(tx domain.Transaction, p domain.Period) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		t := &s.transactions[i]
		if t.RecurringTransactionID == tx.RecurringTransactionID && p.Contains(t.Date) {
			return false
		}
	}
	s.appendLocked(tx)
	return true
}

func (s *Store) Transactions() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

func (s *Store) TransactionsForPeriod(p domain.Period) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Transaction
	for i := range s.transactions {
		if p.Contains(s.transactions[i].Date) {
			out = append(out, s.transactions[i])
		}
	}
	return out
}

func (s *Store) HasImportID(importID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.importIDs[importID]
	return ok
}

func (s *Store) ImportIDs() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.importIDs))
	for id := range s.importIDs {
		out[id] = struct{}{}
	}
	return out
}

func (s *Store) HasTransactionForPeriod(description string, p domain.Period) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.transactions {
		t := &s.transactions[i]
		if t.Description == description && p.Contains(t.Date) {
			return true
		}
	}
	return false
}

// ============================================================
// Category pattern map
// ============================================================

func (s *Store) LearnPattern(key, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[key] = category
}

func (s *Store) SuggestCategory(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.patterns[key]
	return c, ok
}

// ============================================================
// Uncategorized queue
// ============================================================

func (s *Store) ReplaceUncategorized(queue []domain.UncategorizedTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uncategorized = make([]domain.UncategorizedTransaction, len(queue))
	copy(s.uncategorized, queue)
}

func (s *Store) Uncategorized() []domain.UncategorizedTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UncategorizedTransaction, len(s.uncategorized))
	copy(out, s.uncategorized)
	return out
}

func (s *Store) ClearUncategorized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uncategorized = nil
}

// MergeSuggestions fills SuggestedCategory by entry id where still
// empty. Late suggestion results are additive: entries already
// suggested (or already confirmed and gone) are left alone.
func (s *Store) MergeSuggestions(byID map[string]string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := 0
	for i := range s.uncategorized {
		u := &s.uncategorized[i]
		if u.SuggestedCategory != "" {
			continue
		}
		if c, ok := byID[u.ID]; ok && c != "" {
			u.SuggestedCategory = c
			merged++
		}
	}
	return merged
}

// ============================================================
// Budgets and savings goals
// ============================================================

func (s *Store) Budgets() []domain.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Budget, len(s.budgets))
	copy(out, s.budgets)
	return out
}

func (s *Store) SetBudget(b domain.Budget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].Category == b.Category {
			s.budgets[i] = b
			return
		}
	}
	s.budgets = append(s.budgets, b)
}

func (s *Store) DeleteBudget(category string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].Category == category {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) Goals() []domain.SavingsGoal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SavingsGoal, len(s.goals))
	copy(out, s.goals)
	return out
}

func (s *Store) AddGoal(g domain.SavingsGoal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append(s.goals, g)
}

func (s *Store) DeleteGoal(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) GetGoal(id string) (domain.SavingsGoal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.goals {
		if s.goals[i].ID == id {
			return s.goals[i], true
		}
	}
	return domain.SavingsGoal{}, false
}
