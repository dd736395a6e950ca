package domain

import "fmt"

// Error types for consistent error handling across the service.
//
// Parse failures and duplicate imports are deliberately NOT errors:
// malformed statement rows are dropped and duplicate importIds skipped,
// both counted in metrics, and the batch continues.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a malformed or missing required field on a
// manual entry or template edit. The operation is a no-op.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrConstraint indicates a rejected registry mutation: deleting a
// category/source still referenced by the ledger, or touching the
// protected income category.
type ErrConstraint struct {
	Message string
}

func (e *ErrConstraint) Error() string {
	return e.Message
}

// ErrDuplicate indicates a uniqueness violation (e.g. adding a category
// whose name already exists case-insensitively).
type ErrDuplicate struct {
	Key string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("duplicate: %s", e.Key)
}

// ErrExternalService indicates a failure in an external service call.
// Callers at the reconciliation/insights boundary convert it to an
// empty result; it never aborts a ledger mutation.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}
