package service

import (
	"context"
	"strings"

	"github.com/mfcastro/grana-api/internal/domain"
	"github.com/mfcastro/grana-api/internal/port"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry manages the recurring templates, the category and source
// catalogs, keyword overrides, budgets and savings goals. Template
// references from materialized instances are weak: deleting a template
// orphans its instances instead of cascading.
type Registry struct {
	store  port.Store
	logger *zap.Logger
}

// NewRegistry creates the registry service.
func NewRegistry(store port.Store, logger *zap.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// ------------------------------------------------------------
// Fixed-bill templates
// ------------------------------------------------------------

func (r *Registry) ListFixedBills(ctx context.Context) []domain.FixedBillTemplate {
	return r.store.ListFixedBills()
}

func (r *Registry) CreateFixedBill(ctx context.Context, t domain.FixedBillTemplate) (domain.FixedBillTemplate, error) {
	if err := validateFixedBill(t); err != nil {
		return domain.FixedBillTemplate{}, err
	}
	t.ID = uuid.NewString()
	r.store.AddFixedBill(t)
	r.logger.Info("fixed bill template created", zap.String("id", t.ID), zap.String("name", t.Name))
	return t, nil
}

func (r *Registry) UpdateFixedBill(ctx context.Context, t domain.FixedBillTemplate) (domain.FixedBillTemplate, error) {
	if err := validateFixedBill(t); err != nil {
		return domain.FixedBillTemplate{}, err
	}
	if !r.store.UpdateFixedBill(t) {
		return domain.FixedBillTemplate{}, &domain.ErrNotFound{Resource: "fixed bill template", ID: t.ID}
	}
	return t, nil
}

func (r *Registry) DeleteFixedBill(ctx context.Context, id string) error {
	if !r.store.DeleteFixedBill(id) {
		return &domain.ErrNotFound{Resource: "fixed bill template", ID: id}
	}
	return nil
}

func validateFixedBill(t domain.FixedBillTemplate) error {
	if t.Name == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if t.DefaultValue <= 0 {
		return &domain.ErrValidation{Field: "defaultValue", Message: "must be positive"}
	}
	if t.DueDay < 1 || t.DueDay > 31 {
		return &domain.ErrValidation{Field: "dueDay", Message: "must be between 1 and 31"}
	}
	return nil
}

// ------------------------------------------------------------
// Recurring income templates
// ------------------------------------------------------------

func (r *Registry) ListRecurringIncomes(ctx context.Context) []domain.RecurringIncomeTemplate {
	return r.store.ListRecurringIncomes()
}

func (r *Registry) CreateRecurringIncome(ctx context.Context, t domain.RecurringIncomeTemplate) (domain.RecurringIncomeTemplate, error) {
	if err := validateRecurringIncome(t); err != nil {
		return domain.RecurringIncomeTemplate{}, err
	}
	t.ID = uuid.NewString()
	r.store.AddRecurringIncome(t)
	return t, nil
}

func (r *Registry) UpdateRecurringIncome(ctx context.Context, t domain.RecurringIncomeTemplate) (domain.RecurringIncomeTemplate, error) {
	if err := validateRecurringIncome(t); err != nil {
		return domain.RecurringIncomeTemplate{}, err
	}
	if !r.store.UpdateRecurringIncome(t) {
		return domain.RecurringIncomeTemplate{}, &domain.ErrNotFound{Resource: "recurring income template", ID: t.ID}
	}
	return t, nil
}

func (r *Registry) DeleteRecurringIncome(ctx context.Context, id string) error {
	if !r.store.DeleteRecurringIncome(id) {
		return &domain.ErrNotFound{Resource: "recurring income template", ID: id}
	}
	return nil
}

func validateRecurringIncome(t domain.RecurringIncomeTemplate) error {
	if t.Name == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if t.DefaultValue <= 0 {
		return &domain.ErrValidation{Field: "defaultValue", Message: "must be positive"}
	}
	if t.IncomeDay < 1 || t.IncomeDay > 31 {
		return &domain.ErrValidation{Field: "incomeDay", Message: "must be between 1 and 31"}
	}
	return nil
}

// ------------------------------------------------------------
// Recurring transaction templates
// ------------------------------------------------------------

func (r *Registry) ListRecurringTransactions(ctx context.Context) []domain.RecurringTransactionTemplate {
	return r.store.ListRecurringTransactions()
}

func (r *Registry) CreateRecurringTransaction(ctx context.Context, t domain.RecurringTransactionTemplate) (domain.RecurringTransactionTemplate, error) {
	if err := validateRecurringTransaction(t); err != nil {
		return domain.RecurringTransactionTemplate{}, err
	}
	t.ID = uuid.NewString()
	r.store.AddRecurringTransaction(t)
	return t, nil
}

func (r *Registry) UpdateRecurringTransaction(ctx context.Context, t domain.RecurringTransactionTemplate) (domain.RecurringTransactionTemplate, error) {
	if err := validateRecurringTransaction(t); err != nil {
		return domain.RecurringTransactionTemplate{}, err
	}
	if !r.store.UpdateRecurringTransaction(t) {
		return domain.RecurringTransactionTemplate{}, &domain.ErrNotFound{Resource: "recurring transaction template", ID: t.ID}
	}
	return t, nil
}

func (r *Registry) DeleteRecurringTransaction(ctx context.Context, id string) error {
	if !r.store.DeleteRecurringTransaction(id) {
		return &domain.ErrNotFound{Resource: "recurring transaction template", ID: id}
	}
	return nil
}

func validateRecurringTransaction(t domain.RecurringTransactionTemplate) error {
	if t.Description == "" {
		return &domain.ErrValidation{Field: "description", Message: "required"}
	}
	if t.Amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if t.Category == "" {
		return &domain.ErrValidation{Field: "category", Message: "required"}
	}
	if t.Day < 1 || t.Day > 31 {
		return &domain.ErrValidation{Field: "day", Message: "must be between 1 and 31"}
	}
	if t.EntryType != domain.EntryIncome && t.EntryType != domain.EntryExpense {
		return &domain.ErrValidation{Field: "entryType", Message: "must be income or expense"}
	}
	return nil
}

// ------------------------------------------------------------
// Keyword overrides
// ------------------------------------------------------------

func (r *Registry) ListKeywordOverrides(ctx context.Context) []domain.KeywordOverride {
	return r.store.ListKeywordOverrides()
}

// SetKeywordOverrides replaces the override list. Every entry must
// name an existing fixed-bill template.
func (r *Registry) SetKeywordOverrides(ctx context.Context, overrides []domain.KeywordOverride) error {
	templates := r.store.ListFixedBills()
	known := make(map[string]struct{}, len(templates))
	for _, t := range templates {
		known[t.ID] = struct{}{}
	}
	for _, o := range overrides {
		if o.Keyword == "" {
			return &domain.ErrValidation{Field: "keyword", Message: "required"}
		}
		if _, ok := known[o.TemplateID]; !ok {
			return &domain.ErrNotFound{Resource: "fixed bill template", ID: o.TemplateID}
		}
	}
	r.store.SetKeywordOverrides(overrides)
	return nil
}

// ------------------------------------------------------------
// Categories
// ------------------------------------------------------------

func (r *Registry) Categories(ctx context.Context) []string {
	return r.store.Categories()
}

func (r *Registry) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if r.hasCategory(name) {
		return &domain.ErrDuplicate{Key: name}
	}
	r.store.AddCategory(name)
	return nil
}

// RenameCategory renames and cascades to every ledger transaction.
// The income category is protected.
func (r *Registry) RenameCategory(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if oldName == domain.CategoryIncome {
		return &domain.ErrConstraint{Message: "the income category cannot be renamed"}
	}
	if !r.hasCategory(oldName) {
		return &domain.ErrNotFound{Resource: "category", ID: oldName}
	}
	if !strings.EqualFold(oldName, newName) && r.hasCategory(newName) {
		return &domain.ErrDuplicate{Key: newName}
	}
	r.store.RenameCategory(oldName, newName)
	r.logger.Info("category renamed", zap.String("from", oldName), zap.String("to", newName))
	return nil
}

func (r *Registry) DeleteCategory(ctx context.Context, name string) error {
	if name == domain.CategoryIncome {
		return &domain.ErrConstraint{Message: "the income category cannot be deleted"}
	}
	if !r.hasCategory(name) {
		return &domain.ErrNotFound{Resource: "category", ID: name}
	}
	if r.store.CategoryInUse(name) {
		return &domain.ErrConstraint{Message: "category is referenced by ledger transactions"}
	}
	r.store.DeleteCategory(name)
	return nil
}

func (r *Registry) hasCategory(name string) bool {
	for _, c := range r.store.Categories() {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// ------------------------------------------------------------
// Sources
// ------------------------------------------------------------

func (r *Registry) Sources(ctx context.Context) []string {
	return r.store.Sources()
}

func (r *Registry) AddSource(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if r.hasSource(name) {
		return &domain.ErrDuplicate{Key: name}
	}
	r.store.AddSource(name)
	return nil
}

func (r *Registry) RenameSource(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if !r.hasSource(oldName) {
		return &domain.ErrNotFound{Resource: "source", ID: oldName}
	}
	if !strings.EqualFold(oldName, newName) && r.hasSource(newName) {
		return &domain.ErrDuplicate{Key: newName}
	}
	r.store.RenameSource(oldName, newName)
	return nil
}

func (r *Registry) DeleteSource(ctx context.Context, name string) error {
	if !r.hasSource(name) {
		return &domain.ErrNotFound{Resource: "source", ID: name}
	}
	if r.store.SourceInUse(name) {
		return &domain.ErrConstraint{Message: "source is referenced by ledger transactions"}
	}
	r.store.DeleteSource(name)
	return nil
}

func (r *Registry) hasSource(name string) bool {
	for _, s := range r.store.Sources() {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// ------------------------------------------------------------
// Budgets and savings goals
// ------------------------------------------------------------

func (r *Registry) Budgets(ctx context.Context) []domain.Budget {
	return r.store.Budgets()
}

func (r *Registry) SetBudget(ctx context.Context, b domain.Budget) error {
	if b.Category == "" {
		return &domain.ErrValidation{Field: "category", Message: "required"}
	}
	if b.Amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if !r.hasCategory(b.Category) {
		return &domain.ErrNotFound{Resource: "category", ID: b.Category}
	}
	r.store.SetBudget(b)
	return nil
}

func (r *Registry) DeleteBudget(ctx context.Context, category string) error {
	if !r.store.DeleteBudget(category) {
		return &domain.ErrNotFound{Resource: "budget", ID: category}
	}
	return nil
}

func (r *Registry) Goals(ctx context.Context) []domain.SavingsGoal {
	return r.store.Goals()
}

func (r *Registry) CreateGoal(ctx context.Context, g domain.SavingsGoal) (domain.SavingsGoal, error) {
	if g.Name == "" {
		return domain.SavingsGoal{}, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if g.TargetAmount <= 0 {
		return domain.SavingsGoal{}, &domain.ErrValidation{Field: "targetAmount", Message: "must be positive"}
	}
	g.ID = uuid.NewString()
	r.store.AddGoal(g)
	return g, nil
}

func (r *Registry) DeleteGoal(ctx context.Context, id string) error {
	if !r.store.DeleteGoal(id) {
		return &domain.ErrNotFound{Resource: "goal", ID: id}
	}
	return nil
}
