/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Other packages wrap these with additional context.

ERROR CATEGORIES:
  1. Configuration errors - missing tenant root; fatal to all sync operations
  2. Store errors - missing documents, rejected batches
  3. Validation errors - malformed input caught before any write
  4. Parse errors - unparsable record dates; excluded from views, never fatal

USAGE:
  Callers classify with errors.Is:

    if errors.Is(err, ledger.ErrDocumentNotFound) {
        // 404
    }

SEE ALSO:
  - store.go: Batch commit semantics that produce store errors
  - forms.go: Validation producing ValidationError
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingTenantRoot is returned when the deployment tenant identifier
	// is absent from configuration. It is fatal to all sync operations and is
	// never silently defaulted.
	ErrMissingTenantRoot = errors.New("missing tenant root")

	// ErrDocumentNotFound is returned when an update, increment, or read
	// targets a document that does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrCommitFailed is returned when the store rejects a write batch.
	// The entire batch is discarded; no partial write is visible.
	ErrCommitFailed = errors.New("commit failed")

	// ErrDocumentExists is returned when an insert targets an id that is
	// already taken. Inserts never overwrite; replacing is Set's job.
	ErrDocumentExists = errors.New("document already exists")

	// ErrValidation is the root of all input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrUnparsableDate marks a record date that cannot be parsed. Records
	// carrying one are excluded from date-filtered views with a warning.
	ErrUnparsableDate = errors.New("unparsable date")

	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrNoPendingDelete is returned when ConfirmDelete is called without a
	// recorded intent.
	ErrNoPendingDelete = errors.New("no pending delete")

	// ErrUnknownKind is returned for a record kind outside sale/expense/inventory.
	ErrUnknownKind = errors.New("unknown record kind")

	// ErrSubscriptionClosed is returned when publishing to a closed subscription.
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a single malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies the missing batch target.
type NotFoundError struct {
	Collection string
	DocID      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %s/%s not found", e.Collection, e.DocID)
}

func (e *NotFoundError) Unwrap() error { return ErrDocumentNotFound }

// ExistsError identifies the colliding insert target.
type ExistsError struct {
	Collection string
	DocID      string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("document %s/%s already exists", e.Collection, e.DocID)
}

func (e *ExistsError) Unwrap() error { return ErrDocumentExists }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrNoPendingDelete)
}

// IsNotFound returns true if the error indicates a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}
