package mirror_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/ledger/store"
	"github.com/warp/ledger-engine/mirror"
)

const tenantRoot = "apps/demo"

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func seedSale(t *testing.T, m *store.Memory, principal, item string, qty int) string {
	t.Helper()
	col := tenantRoot + "/" + principal + "/sales"
	batch := m.Batch()
	id := batch.Create(col, raw(`{"date":"2024-03-10","item":"`+item+`","qty":`+jsonInt(qty)+`,"price":180,"cost":120,"customer":"Walk-in","userId":"`+principal+`"}`))
	require.NoError(t, batch.Commit(context.Background()))
	return id
}

func seedItem(t *testing.T, m *store.Memory, principal, name string, qtyIn int) {
	t.Helper()
	col := tenantRoot + "/" + principal + "/inventory"
	batch := m.Batch()
	batch.Set(col, name, raw(`{"itemName":"`+name+`","qtyIn":`+jsonInt(qtyIn)+`,"qtyOut":0,"costPrice":120,"salePrice":180}`))
	require.NoError(t, batch.Commit(context.Background()))
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func decimalFromInt(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestMirror_Start_RequiresTenantRoot(t *testing.T) {
	m := mirror.New(store.NewMemory(), "")
	err := m.Start("owner-1")
	assert.ErrorIs(t, err, ledger.ErrMissingTenantRoot)
}

func TestMirror_Start_LoadsExistingData(t *testing.T) {
	mem := store.NewMemory()
	seedItem(t, mem, "owner-1", "Cola", 100)
	seedSale(t, mem, "owner-1", "Cola", 2)

	m := mirror.New(mem, tenantRoot)
	require.NoError(t, m.Start("owner-1"))
	defer m.Stop()

	waitFor(t, func() bool { return len(m.Inventory()) == 1 && len(m.Sales()) == 1 })
	assert.Equal(t, "Cola", m.Inventory()[0].ItemName)
	assert.Equal(t, "Cola", m.Sales()[0].Item)
}

func TestMirror_ReflectsCommits(t *testing.T) {
	mem := store.NewMemory()
	m := mirror.New(mem, tenantRoot)
	require.NoError(t, m.Start("owner-1"))
	defer m.Stop()

	id := seedSale(t, mem, "owner-1", "Fanta", 3)

	waitFor(t, func() bool { return len(m.Sales()) == 1 })
	sale, ok := m.SaleByID(id)
	require.True(t, ok)
	assert.Equal(t, "Fanta", sale.Item)
	assert.True(t, sale.Qty.Equal(decimalFromInt(3)))
}

func TestMirror_Stop_Idempotent(t *testing.T) {
	m := mirror.New(store.NewMemory(), tenantRoot)
	require.NoError(t, m.Start("owner-1"))
	m.Stop()
	m.Stop()
}

// =============================================================================
// PRINCIPAL SWITCH TESTS
// =============================================================================

func TestMirror_Restart_SwitchesPrincipalWithoutMixing(t *testing.T) {
	// GIVEN: Two principals with distinct records
	mem := store.NewMemory()
	seedSale(t, mem, "owner-1", "Cola", 2)
	seedSale(t, mem, "owner-2", "Fanta", 5)

	m := mirror.New(mem, tenantRoot)
	require.NoError(t, m.Start("owner-1"))
	defer m.Stop()
	waitFor(t, func() bool { return len(m.Sales()) == 1 })
	require.Equal(t, "Cola", m.Sales()[0].Item)

	// WHEN: Restarting onto the second principal
	require.NoError(t, m.Start("owner-2"))

	// THEN: Only the second principal's records are visible
	waitFor(t, func() bool {
		sales := m.Sales()
		return len(sales) == 1 && sales[0].Item == "Fanta"
	})
	assert.Equal(t, "owner-2", m.Principal())
}

// =============================================================================
// RESILIENCE TESTS
// =============================================================================

// failableStore wraps the memory store and keeps handles to issued
// subscriptions so tests can inject subscription failures.
type failableStore struct {
	*store.Memory

	mu   sync.Mutex
	subs []*ledger.Subscription
}

func (f *failableStore) Subscribe(collection string) *ledger.Subscription {
	sub := f.Memory.Subscribe(collection)
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub
}

func (f *failableStore) failAll(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		sub.Fail(err)
	}
}

func TestMirror_SubscriptionError_KeepsLastGoodData(t *testing.T) {
	// GIVEN: A mirror holding one sale
	mem := store.NewMemory()
	seedSale(t, mem, "owner-1", "Cola", 2)
	fs := &failableStore{Memory: mem}

	m := mirror.New(fs, tenantRoot)
	require.NoError(t, m.Start("owner-1"))
	defer m.Stop()
	waitFor(t, func() bool { return len(m.Sales()) == 1 })

	// WHEN: Every subscription reports a failure
	boom := errors.New("listener dropped")
	fs.failAll(boom)

	// THEN: The error surfaces but the mirrored data stays
	select {
	case err := <-m.Errors():
		assert.ErrorContains(t, err, "listener dropped")
	case <-time.After(time.Second):
		t.Fatal("no error surfaced")
	}
	assert.Len(t, m.Sales(), 1)
}

func TestMirror_BadDocumentSkipped(t *testing.T) {
	// GIVEN: A collection holding one good and one undecodable record
	mem := store.NewMemory()
	col := tenantRoot + "/owner-1/sales"
	batch := mem.Batch()
	batch.Create(col, raw(`{"date":"2024-03-10","item":"Cola","qty":2,"price":180,"cost":120}`))
	batch.Create(col, raw(`{"date":"2024-03-11","item":"Fanta","qty":"not-a-number"}`))
	require.NoError(t, batch.Commit(context.Background()))

	m := mirror.New(mem, tenantRoot)
	require.NoError(t, m.Start("owner-1"))
	defer m.Stop()

	// THEN: The good record lands, the bad one is dropped
	waitFor(t, func() bool { return len(m.Sales()) == 1 })
	assert.Equal(t, "Cola", m.Sales()[0].Item)
}

func TestMirror_ChangeFeed_SignalsAfterApply(t *testing.T) {
	mem := store.NewMemory()
	m := mirror.New(mem, tenantRoot)
	require.NoError(t, m.Start("owner-1"))
	defer m.Stop()

	waitFor(t, func() bool {
		select {
		case <-m.Changes():
			return true
		default:
			return false
		}
	})

	seedSale(t, mem, "owner-1", "Cola", 1)
	waitFor(t, func() bool {
		select {
		case <-m.Changes():
			return len(m.Sales()) == 1
		default:
			return false
		}
	})
}

func TestMirror_InventoryByName(t *testing.T) {
	mem := store.NewMemory()
	seedItem(t, mem, "owner-1", "Cola", 100)

	m := mirror.New(mem, tenantRoot)
	require.NoError(t, m.Start("owner-1"))
	defer m.Stop()

	waitFor(t, func() bool { return len(m.Inventory()) == 1 })

	item, ok := m.InventoryByName("Cola")
	require.True(t, ok)
	assert.True(t, item.QtyIn.Equal(decimalFromInt(100)))

	_, ok = m.InventoryByName("Ghost")
	assert.False(t, ok)
}
