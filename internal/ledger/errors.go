// Package ledger is the inventory and transaction consistency engine. Every
// operation runs inside a caller-provided *gorm.DB transaction and either
// commits all of its stock adjustments and record writes or none of them.
package ledger

import "fmt"

// NotFoundError - an id referenced by a request does not exist.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

// ValidationError - missing or malformed input (empty item list, negative
// quantity, product missing from the original sale, etc).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// InsufficientStockError - the requested decrement would drive a stock pool
// below zero. The pool is never clamped; the whole operation is rejected.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// BatchRequiredError - the product tracks stock per batch but the caller did
// not say which batch to sell from.
type BatchRequiredError struct {
	ProductName string
}

func (e *BatchRequiredError) Error() string {
	return fmt.Sprintf("batch ID is required for product %s", e.ProductName)
}

// InvalidBatchError - the named batch does not belong to the product.
type InvalidBatchError struct {
	BatchID     uint
	ProductName string
}

func (e *InvalidBatchError) Error() string {
	return fmt.Sprintf("invalid batch ID %d for product %s", e.BatchID, e.ProductName)
}

// DuplicateError - SKU, barcode, batch number or email collision.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

// StateError - the operation is not allowed from the entity's current state:
// voiding an already voided sale, amending a sale outside the recency window,
// refunding more than was sold, issuing a credit note without a customer,
// re-receiving a received purchase, drawing on a closed credit note.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }
