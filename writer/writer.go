/*
Package writer is the only sanctioned path for mutating ledger records.

PURPOSE:
  Performs create/update/delete of Sale, Expense, and InventoryItem
  documents, and for sales atomically adjusts the linked inventory item's
  qtyOut counter in the same commit. It is the sole maintainer of the stock
  invariant: qtyOut always equals the summed qty of the live sales for that
  item, because every sale write applies the exact signed delta.

DELTA RULES:
  create:             +qty
  update, same item:  newQty - previousQty
  update, item moved: -previousQty on the old item AND +newQty on the new
                      one (two explicit increments, never inferred)

WHY INCREMENT-BY-DELTA:
  Two independent writers committing sales against the same item commute
  under atomic increments. Recompute-and-set would lose one of the two
  updates. There is no reconciliation pass; a write that bypasses this
  package breaks the invariant until manually corrected.

ATOMICITY:
  The sale document write and the inventory increment go into one write
  batch. A rejected batch (validation failure, missing inventory target,
  store error) leaves no partial effect; the mirror continues to reflect
  pre-write state until the next snapshot.

FAILURE POLICY:
  No internal retries and no internal timeouts. Failures surface to the
  caller once; re-invoking the action is the caller's decision.

SEE ALSO:
  - delete.go: Two-phase delete coordinator
  - ledger/forms.go: Input validation
*/
package writer

import (
	"context"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/metrics"
)

// QtyOutField is the inventory counter adjusted by sale writes.
const QtyOutField = "qtyOut"

// Writer commits ledger mutations for one principal's scope.
type Writer struct {
	store ledger.Store
	scope ledger.Scope
}

// New creates a writer bound to a scope. The scope's principal is stamped
// onto every written document as its owner.
func New(store ledger.Store, scope ledger.Scope) *Writer {
	return &Writer{store: store, scope: scope}
}

// Scope returns the bound scope.
func (w *Writer) Scope() ledger.Scope { return w.scope }

// Store exposes the underlying document store for batch maintenance
// operations that bypass the upsert paths.
func (w *Writer) Store() ledger.Store { return w.store }

// =============================================================================
// SALES
// =============================================================================

// UpsertSale commits a sale create (prev == nil) or update (prev set)
// together with the inventory delta in one atomic batch. It returns the
// sale's document id.
func (w *Writer) UpsertSale(ctx context.Context, form ledger.SaleForm, prev *ledger.Sale) (string, error) {
	id, err := w.upsertSale(ctx, form, prev)
	metrics.ObserveCommit(string(ledger.KindSale), err)
	return id, err
}

func (w *Writer) upsertSale(ctx context.Context, form ledger.SaleForm, prev *ledger.Sale) (string, error) {
	if err := form.Validate(); err != nil {
		return "", err
	}
	salesCol, err := w.scope.Sales()
	if err != nil {
		return "", err
	}
	invCol, err := w.scope.Inventory()
	if err != nil {
		return "", err
	}
	payload, err := form.Payload(w.scope.Principal)
	if err != nil {
		return "", err
	}

	batch := w.store.Batch()
	var id string
	switch {
	case prev == nil:
		id = batch.Create(salesCol, payload)
		batch.Increment(invCol, form.Item, QtyOutField, form.Qty)

	case form.Item == prev.Item:
		id = prev.ID
		batch.Update(salesCol, prev.ID, payload)
		if delta := form.Qty.Sub(prev.Qty); !delta.IsZero() {
			batch.Increment(invCol, form.Item, QtyOutField, delta)
		}

	default:
		// Item changed: reverse the full delta against the old item and
		// apply the new quantity to the new one.
		id = prev.ID
		batch.Update(salesCol, prev.ID, payload)
		batch.Increment(invCol, prev.Item, QtyOutField, prev.Qty.Neg())
		batch.Increment(invCol, form.Item, QtyOutField, form.Qty)
	}

	if err := batch.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// =============================================================================
// EXPENSES
// =============================================================================

// UpsertExpense commits an expense create (prev == nil) or update. No
// cross-document effects.
func (w *Writer) UpsertExpense(ctx context.Context, form ledger.ExpenseForm, prev *ledger.Expense) (string, error) {
	id, err := w.upsertExpense(ctx, form, prev)
	metrics.ObserveCommit(string(ledger.KindExpense), err)
	return id, err
}

func (w *Writer) upsertExpense(ctx context.Context, form ledger.ExpenseForm, prev *ledger.Expense) (string, error) {
	if err := form.Validate(); err != nil {
		return "", err
	}
	col, err := w.scope.Expenses()
	if err != nil {
		return "", err
	}
	payload, err := form.Payload(w.scope.Principal)
	if err != nil {
		return "", err
	}

	batch := w.store.Batch()
	var id string
	if prev == nil {
		id = batch.Create(col, payload)
	} else {
		id = prev.ID
		batch.Update(col, prev.ID, payload)
	}
	if err := batch.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// =============================================================================
// INVENTORY
// =============================================================================

// UpsertInventory commits an inventory create (prev == nil) or update. The
// document id is the item name verbatim, so two different-cased spellings
// are two distinct rows. Creates initialize qtyOut to zero and fail with
// ErrDocumentExists when the name is already stocked; overwriting would
// reset a counter that live sales still back. Updates never touch qtyOut.
func (w *Writer) UpsertInventory(ctx context.Context, form ledger.InventoryForm, prev *ledger.InventoryItem) (string, error) {
	id, err := w.upsertInventory(ctx, form, prev)
	metrics.ObserveCommit(string(ledger.KindInventory), err)
	return id, err
}

func (w *Writer) upsertInventory(ctx context.Context, form ledger.InventoryForm, prev *ledger.InventoryItem) (string, error) {
	if err := form.Validate(); err != nil {
		return "", err
	}
	col, err := w.scope.Inventory()
	if err != nil {
		return "", err
	}

	batch := w.store.Batch()
	if prev == nil {
		payload, err := form.CreatePayload(w.scope.Principal)
		if err != nil {
			return "", err
		}
		batch.Insert(col, form.ItemName, payload)
	} else {
		if form.ItemName != prev.ItemName {
			return "", &ledger.ValidationError{Field: "itemName", Message: "cannot be renamed"}
		}
		payload, err := form.Payload(w.scope.Principal)
		if err != nil {
			return "", err
		}
		batch.Update(col, prev.ItemName, payload)
	}
	if err := batch.Commit(ctx); err != nil {
		return "", err
	}
	return form.ItemName, nil
}
