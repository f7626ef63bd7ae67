/*
Package mirror maintains live in-memory copies of one principal's ledger
collections.

PURPOSE:
  The Mirror owns three typed mirrors - sales, expenses, inventory - and
  keeps them current for exactly the active principal. Each subscription
  snapshot fully replaces the corresponding mirror; there is no incremental
  patching and no local optimistic mutation. The document store is the sole
  source of truth: user edits flow through the writer to the store and come
  back here through the subscription, closing the loop.

LIFECYCLE:
  m := mirror.New(store, tenantRoot)
  if err := m.Start("principal-1"); err != nil { ... }
  defer m.Stop()

  Start tears down any previous principal's subscriptions BEFORE opening
  new ones, so the mirrors never contain a mix of two principals' data.
  Stop is idempotent. With no active principal all mirrors are empty.

ERROR POLICY:
  A subscription or decode failure is reported on Errors() and leaves the
  existing mirror at its last-known-good state. Stale-but-present data
  beats blanking the dashboard.

CONSUMERS:
  Reads return copies, so callers can aggregate without holding the
  mirror's lock. Changes() coalesces change notifications for reactive
  recomputation.
*/
package mirror

import (
	"log"
	"sync"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/metrics"
)

// Mirror mirrors the three collections of the active principal.
type Mirror struct {
	store      ledger.Store
	tenantRoot string

	mu         sync.RWMutex
	generation int
	principal  string
	subs       []*ledger.Subscription
	sales      []ledger.Sale
	expenses   []ledger.Expense
	inventory  []ledger.InventoryItem

	wg      sync.WaitGroup
	errs    chan error
	changes chan struct{}
}

// New creates a stopped mirror. TenantRoot is validated on Start.
func New(store ledger.Store, tenantRoot string) *Mirror {
	return &Mirror{
		store:      store,
		tenantRoot: tenantRoot,
		errs:       make(chan error, 16),
		changes:    make(chan struct{}, 1),
	}
}

// Start switches the mirror to the given principal. Existing subscriptions
// are released first and the mirrors reset, so no snapshot of the previous
// principal can land after Start returns.
func (m *Mirror) Start(principal string) error {
	scope := ledger.Scope{TenantRoot: m.tenantRoot, Principal: principal}
	cols := make([]string, 0, 3)
	for _, name := range []string{ledger.CollectionSales, ledger.CollectionExpenses, ledger.CollectionInventory} {
		col, err := scope.Collection(name)
		if err != nil {
			return err
		}
		cols = append(cols, col)
	}

	m.mu.Lock()
	m.stopLocked()
	m.generation++
	gen := m.generation
	m.principal = principal
	for _, col := range cols {
		sub := m.store.Subscribe(col)
		m.subs = append(m.subs, sub)
		m.wg.Add(1)
		go m.consume(sub, gen)
	}
	m.mu.Unlock()
	return nil
}

// Stop releases all subscriptions and empties the mirrors. Idempotent and
// safe to call multiple times.
func (m *Mirror) Stop() {
	m.mu.Lock()
	m.stopLocked()
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Mirror) stopLocked() {
	for _, sub := range m.subs {
		sub.Close()
	}
	m.subs = nil
	m.principal = ""
	m.generation++ // orphans any in-flight snapshot
	m.sales = nil
	m.expenses = nil
	m.inventory = nil
}

// consume drains one subscription until it is closed.
func (m *Mirror) consume(sub *ledger.Subscription, gen int) {
	defer m.wg.Done()
	for {
		select {
		case <-sub.Done():
			return
		case snap := <-sub.Snapshots():
			m.apply(sub, snap, gen)
		case err := <-sub.Errors():
			// Mirror keeps last-known-good state.
			metrics.SubscriptionErrors.Inc()
			m.reportError(err)
		}
	}
}

// apply replaces one mirror with a decoded snapshot. Snapshots from a
// superseded generation are dropped: they belong to a principal that is no
// longer active.
func (m *Mirror) apply(sub *ledger.Subscription, snap ledger.Snapshot, gen int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}

	switch {
	case hasSuffix(snap.Collection, ledger.CollectionSales):
		sales := make([]ledger.Sale, 0, len(snap.Docs))
		for _, doc := range snap.Docs {
			s, err := ledger.DecodeSale(doc)
			if err != nil {
				log.Printf("mirror: skipping document: %v", err)
				continue
			}
			sales = append(sales, s)
		}
		m.sales = sales

	case hasSuffix(snap.Collection, ledger.CollectionExpenses):
		expenses := make([]ledger.Expense, 0, len(snap.Docs))
		for _, doc := range snap.Docs {
			e, err := ledger.DecodeExpense(doc)
			if err != nil {
				log.Printf("mirror: skipping document: %v", err)
				continue
			}
			expenses = append(expenses, e)
		}
		m.expenses = expenses

	case hasSuffix(snap.Collection, ledger.CollectionInventory):
		inventory := make([]ledger.InventoryItem, 0, len(snap.Docs))
		for _, doc := range snap.Docs {
			i, err := ledger.DecodeInventoryItem(doc)
			if err != nil {
				log.Printf("mirror: skipping document: %v", err)
				continue
			}
			inventory = append(inventory, i)
		}
		m.inventory = inventory
	}

	metrics.SnapshotsApplied.WithLabelValues(collectionName(snap.Collection)).Inc()
	m.notifyChange()
}

func (m *Mirror) notifyChange() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

func (m *Mirror) reportError(err error) {
	select {
	case m.errs <- err:
	default:
		log.Printf("mirror: dropped error report: %v", err)
	}
}

// =============================================================================
// READS
// =============================================================================

// Principal returns the active principal, or "" when stopped.
func (m *Mirror) Principal() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.principal
}

// Sales returns a copy of the sales mirror.
func (m *Mirror) Sales() []ledger.Sale {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Sale, len(m.sales))
	copy(out, m.sales)
	return out
}

// Expenses returns a copy of the expenses mirror.
func (m *Mirror) Expenses() []ledger.Expense {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Expense, len(m.expenses))
	copy(out, m.expenses)
	return out
}

// Inventory returns a copy of the inventory mirror.
func (m *Mirror) Inventory() []ledger.InventoryItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.InventoryItem, len(m.inventory))
	copy(out, m.inventory)
	return out
}

// SaleByID looks a sale up in the mirror. Used by the delete coordinator to
// reverse the linked inventory delta.
func (m *Mirror) SaleByID(id string) (ledger.Sale, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sales {
		if s.ID == id {
			return s, true
		}
	}
	return ledger.Sale{}, false
}

// InventoryByName looks an inventory item up by its natural key.
func (m *Mirror) InventoryByName(name string) (ledger.InventoryItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, i := range m.inventory {
		if i.ItemName == name {
			return i, true
		}
	}
	return ledger.InventoryItem{}, false
}

// Errors reports subscription and decode failures. Best-effort delivery.
func (m *Mirror) Errors() <-chan error { return m.errs }

// Changes coalesces change notifications: at least one signal is pending
// after any mirror replacement.
func (m *Mirror) Changes() <-chan struct{} { return m.changes }

// =============================================================================
// HELPERS
// =============================================================================

func hasSuffix(path, collection string) bool {
	return collectionName(path) == collection
}

// collectionName extracts the trailing collection segment of a path.
func collectionName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
