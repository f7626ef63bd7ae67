/*
store.go - Document-store contracts for ledger persistence

PURPOSE:
  Defines the interface between the engine and the document store that
  persists each principal's collections. Implementations address documents
  as {tenantRoot}/{principalId}/{collection}/{docId} and must provide:
  - per-document atomic field increments,
  - multi-document atomic write batches (all-or-nothing),
  - subscriptions delivering the FULL current snapshot of a collection
    whenever any document in it changes.

ATOMIC BATCHES:
  Commit applies every queued op or none. This is what lets a sale write and
  its inventory counter adjustment land together: there is never a state
  where one is visible without the other.

INCREMENT, NOT SET:
  Increment applies a signed delta to a numeric field server-side. Two
  concurrent increments against the same field commute, so the stock
  invariant holds even when independent writers race. Recompute-and-set
  would not survive that race; it is deliberately absent.

SNAPSHOT DELIVERY:
  Subscriptions are latest-wins: a slow consumer sees fewer, newer
  snapshots, never a partial or stale-ordered one. Each snapshot fully
  replaces the consumer's previous view.

IMPLEMENTATIONS:
  - ledger/store: in-memory, for tests and development
  - store/sqlite: SQLite-backed, for production single-node deployments

SEE ALSO:
  - mirror package: consumes subscriptions
  - writer package: builds the batches
*/
package ledger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DOCUMENTS
// =============================================================================

// Document is one stored record: an opaque JSON payload plus store-assigned
// metadata. CreatedAt/UpdatedAt are server timestamps.
type Document struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is the full current contents of one collection.
type Snapshot struct {
	Collection string
	Docs       []Document
}

// NewDocID returns a store-assigned document id.
func NewDocID() string { return uuid.NewString() }

// =============================================================================
// WRITE BATCHES
// =============================================================================

// OpKind enumerates batch operations.
type OpKind string

const (
	OpCreate    OpKind = "create"    // insert; fails if the id is taken
	OpSet       OpKind = "set"       // create or replace at explicit id
	OpUpdate    OpKind = "update"    // merge fields; target must exist
	OpIncrement OpKind = "increment" // atomic numeric delta; target must exist
	OpDelete    OpKind = "delete"
)

// Op is one queued batch operation.
type Op struct {
	Kind       OpKind
	Collection string
	DocID      string
	Payload    json.RawMessage // create/set/update
	Field      string          // increment
	Delta      decimal.Decimal // increment
}

// WriteBatch queues operations and commits them atomically. A batch is
// single-use: after Commit it must be discarded.
type WriteBatch interface {
	// Create queues an insert and returns the assigned document id.
	// Commit fails with ErrDocumentExists if the id is already taken.
	Create(collection string, payload json.RawMessage) string

	// Insert queues an insert at an explicit id. Commit fails with
	// ErrDocumentExists if a document already lives there, so a natural-key
	// create can never clobber an existing record.
	Insert(collection, docID string, payload json.RawMessage)

	// Set queues a create-or-replace at an explicit id.
	Set(collection, docID string, payload json.RawMessage)

	// Update queues a field merge. Commit fails with ErrDocumentNotFound if
	// the target is absent.
	Update(collection, docID string, payload json.RawMessage)

	// Increment queues an atomic numeric field adjustment. Commit fails with
	// ErrDocumentNotFound if the target is absent.
	Increment(collection, docID, field string, delta decimal.Decimal)

	// Delete queues a document removal. Deleting an absent document is not
	// an error.
	Delete(collection, docID string)

	// Commit applies every queued op or none.
	Commit(ctx context.Context) error
}

// =============================================================================
// STORE
// =============================================================================

// Store persists documents and notifies subscribers of changes.
type Store interface {
	// Documents returns the current snapshot of a collection.
	Documents(ctx context.Context, collection string) ([]Document, error)

	// Get returns one document, or ErrDocumentNotFound.
	Get(ctx context.Context, collection, docID string) (Document, error)

	// Batch starts a new atomic write batch.
	Batch() WriteBatch

	// Subscribe registers for snapshot delivery on a collection. The initial
	// snapshot is delivered immediately.
	Subscribe(collection string) *Subscription
}

// =============================================================================
// SUBSCRIPTION - Latest-wins snapshot delivery
// =============================================================================

// Subscription delivers collection snapshots to one consumer. Snapshots
// coalesce: if the consumer lags, intermediate snapshots are dropped in
// favor of the newest. Errors are delivered on a separate channel and do
// not terminate the subscription.
type Subscription struct {
	collection string

	mu        sync.Mutex
	snapshots chan Snapshot
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

// NewSubscription is used by Store implementations.
func NewSubscription(collection string) *Subscription {
	return &Subscription{
		collection: collection,
		snapshots:  make(chan Snapshot, 1),
		errs:       make(chan error, 4),
		done:       make(chan struct{}),
	}
}

// Collection returns the subscribed collection path.
func (s *Subscription) Collection() string { return s.collection }

// Snapshots is the delivery channel. It is never closed; consumers select
// against Done.
func (s *Subscription) Snapshots() <-chan Snapshot { return s.snapshots }

// Errors delivers transient subscription failures. The consumer keeps its
// last-known-good snapshot.
func (s *Subscription) Errors() <-chan error { return s.errs }

// Done is closed when the subscription is released.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close releases the subscription. Idempotent.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Closed reports whether Close has been called.
func (s *Subscription) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Publish delivers a snapshot, replacing any undelivered one.
// Store implementations call this after each commit.
func (s *Subscription) Publish(snap Snapshot) error {
	if s.Closed() {
		return ErrSubscriptionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Drain a pending snapshot so the newest always wins.
	select {
	case <-s.snapshots:
	default:
	}
	select {
	case s.snapshots <- snap:
	default:
	}
	return nil
}

// Fail reports a transient error without tearing the subscription down.
// Delivery is best-effort: if the consumer is not draining errors, the
// report is dropped rather than blocking the store.
func (s *Subscription) Fail(err error) {
	if s.Closed() {
		return
	}
	select {
	case s.errs <- err:
	default:
	}
}
