/*
errors.go - Centralized error types for the inventory ledger

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers branch with errors.Is / errors.As; they never parse messages.

ERROR CATEGORIES:
  1. Domain errors  - InsufficientStock, invalid input. Non-fatal, no mutation.
  2. Storage errors - Query/constraint/I-O failures from the store. The caller
                      decides whether to retry; the ledger never does.

USAGE:
  _, err := ledger.RecordSale(ctx, "Widget", 100, price)
  var short *inventory.InsufficientStockError
  if errors.As(err, &short) {
      fmt.Printf("only %d left\n", short.Available)
  }

SEE ALSO:
  - ledger.go: Wraps store failures in StorageError
  - store/sqlite/sqlite.go: Maps driver error codes onto these sentinels
*/
package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientStock is returned when a sale asks for more than is on hand,
	// or for a product that has never been stocked.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidInput is returned when an operation's arguments break its contract.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorage marks failures of the underlying store.
	ErrStorage = errors.New("storage failure")

	// ErrStoreBusy is returned when the store is locked by another writer.
	ErrStoreBusy = errors.New("store busy")

	// ErrConflict is returned when a write violates a storage constraint.
	ErrConflict = errors.New("constraint violation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError provides details about a rejected sale.
type InsufficientStockError struct {
	ProductName string `json:"product_name"`
	Available   int    `json:"available"` // 0 when the product does not exist
	Requested   int    `json:"requested"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ValidationError lists the arguments that failed validation, keyed by field.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// StorageError wraps a store failure with the ledger operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrStorage) match any StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to the caller's request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidInput)
}

// IsStorageFailure returns true if the error came from the store.
func IsStorageFailure(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreBusy)
}
