/*
delete.go - Two-phase delete coordinator

PURPOSE:
  Deletion is two-phase: RequestDelete records a pending intent (the UI
  shows a confirmation prompt), ConfirmDelete performs the delete, and
  CancelDelete discards the intent with no store effect.

SALE DELETES AND THE STOCK INVARIANT:
  Confirming a sale delete reverses the sale's quantity against the linked
  inventory item's qtyOut in the same atomic batch. Without the reversal a
  deleted sale would leave qtyOut permanently overstated, breaking the
  stock invariant with no reconciliation pass to repair it. The sale is
  resolved from the store, not the mirror: the mirror lags commits, and a
  stale read here would reverse the wrong quantity or none at all. If the
  sale or its inventory item is already gone from the store the delete
  proceeds without a reversal - there is nothing left to reverse against.

SEE ALSO:
  - writer.go: The forward delta rules this reverses
*/
package writer

import (
	"context"
	"sync"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/metrics"
)

// Intent is a recorded delete awaiting confirmation.
type Intent struct {
	ID   string
	Kind ledger.Kind
}

// Coordinator holds at most one pending delete intent.
type Coordinator struct {
	store ledger.Store
	scope ledger.Scope

	mu      sync.Mutex
	pending *Intent
}

// NewCoordinator creates a delete coordinator for one scope.
func NewCoordinator(store ledger.Store, scope ledger.Scope) *Coordinator {
	return &Coordinator{store: store, scope: scope}
}

// RequestDelete records intent to delete one record. A prior unconfirmed
// intent is replaced.
func (c *Coordinator) RequestDelete(id string, kind ledger.Kind) Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	intent := Intent{ID: id, Kind: kind}
	c.pending = &intent
	return intent
}

// Pending returns the recorded intent, or nil.
func (c *Coordinator) Pending() *Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	intent := *c.pending
	return &intent
}

// CancelDelete discards the intent with no store effect.
func (c *Coordinator) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// ConfirmDelete performs the recorded delete. The intent is cleared whether
// or not the commit succeeds; a failed delete must be re-requested.
func (c *Coordinator) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	intent := c.pending
	c.pending = nil
	c.mu.Unlock()

	if intent == nil {
		return ledger.ErrNoPendingDelete
	}
	err := c.deleteRecord(ctx, *intent)
	metrics.ObserveCommit(string(intent.Kind), err)
	return err
}

func (c *Coordinator) deleteRecord(ctx context.Context, intent Intent) error {
	colName, err := intent.Kind.Collection()
	if err != nil {
		return err
	}
	col, err := c.scope.Collection(colName)
	if err != nil {
		return err
	}

	batch := c.store.Batch()
	batch.Delete(col, intent.ID)

	if intent.Kind == ledger.KindSale {
		if err := c.queueReversal(ctx, batch, col, intent.ID); err != nil {
			return err
		}
	}

	return batch.Commit(ctx)
}

// queueReversal adds the qtyOut reversal for one sale to the batch. The
// sale and its inventory item are read from the store so the reversal
// matches the committed quantity exactly. A sale or item missing from the
// store leaves nothing to reverse against.
func (c *Coordinator) queueReversal(ctx context.Context, batch ledger.WriteBatch, salesCol, saleID string) error {
	doc, err := c.store.Get(ctx, salesCol, saleID)
	if ledger.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	sale, err := ledger.DecodeSale(doc)
	if err != nil {
		return err
	}
	if sale.Qty.IsZero() {
		return nil
	}

	invCol, err := c.scope.Inventory()
	if err != nil {
		return err
	}
	if _, err := c.store.Get(ctx, invCol, sale.Item); err != nil {
		if ledger.IsNotFound(err) {
			return nil
		}
		return err
	}
	batch.Increment(invCol, sale.Item, QtyOutField, sale.Qty.Neg())
	return nil
}
