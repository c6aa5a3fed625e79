/*
errors.go - Centralized error types for the stock engine

PURPOSE:
  All error types in one place for consistency and discoverability.

ERROR CATEGORIES:
  1. Validation errors - programmer misuse (empty id, non-positive quantity,
     duplicate item). Returned as Go errors; the ledger stays unmodified.
  2. Business rejections - insufficient stock, unknown item inside a sale.
     These are NEVER errors: they surface as a REJECTED SaleTransaction with
     a human-readable reason, always logged to history.
  3. Ledger inconsistency - a rollback that could not complete. This violates
     the engine's core invariant and is surfaced loudly, never swallowed.

USAGE:
  if errors.Is(err, engine.ErrDuplicateItem) { ... }

  var inv *engine.InvalidArgumentError
  if errors.As(err, &inv) { ... }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidArgument is returned for programmer misuse: nil sales, empty
	// ids, non-positive quantities.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateItem is returned when adding an item whose id already exists.
	ErrDuplicateItem = errors.New("item already exists")

	// ErrItemNotFound is returned when an operation names an unknown item.
	ErrItemNotFound = errors.New("item not found")

	// ErrSaleFinalized is returned when mutating a CONFIRMED/REJECTED sale.
	ErrSaleFinalized = errors.New("sale already finalized")

	// ErrHistoryImmutable is returned by HistoryLog.Remove. The audit trail is
	// append-only; removal is a documented no-op.
	ErrHistoryImmutable = errors.New("history entries cannot be removed")

	// ErrLedgerInconsistent is returned when a mid-commit rollback could not
	// restore every pre-sale stock level.
	ErrLedgerInconsistent = errors.New("ledger inconsistency: rollback incomplete")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidArgumentError identifies which input was rejected.
type InvalidArgumentError struct {
	Field   string
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s %s", e.Field, e.Message)
}

func (e *InvalidArgumentError) Unwrap() error { return ErrInvalidArgument }

// DuplicateItemError identifies the conflicting item id.
type DuplicateItemError struct {
	ItemID ItemID
}

func (e *DuplicateItemError) Error() string {
	return fmt.Sprintf("item %q already exists", e.ItemID)
}

func (e *DuplicateItemError) Unwrap() error { return ErrDuplicateItem }

// ItemNotFoundError identifies the missing item id.
type ItemNotFoundError struct {
	ItemID ItemID
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %q not found", e.ItemID)
}

func (e *ItemNotFoundError) Unwrap() error { return ErrItemNotFound }

// LedgerInconsistencyError reports a rollback that could not complete for a
// specific item of a specific sale.
type LedgerInconsistencyError struct {
	TransactionID string
	ItemID        ItemID
	Err           error
}

func (e *LedgerInconsistencyError) Error() string {
	return fmt.Sprintf("ledger inconsistency while rolling back sale %s, item %s: %v",
		e.TransactionID, e.ItemID, e.Err)
}

func (e *LedgerInconsistencyError) Unwrap() error { return ErrLedgerInconsistent }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrDuplicateItem) ||
		errors.Is(err, ErrItemNotFound)
}

// IsNotFound returns true if the error indicates a missing item.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}
