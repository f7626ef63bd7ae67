package sqlite_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/store/sqlite"
)

const testCollection = "apps/demo/owner-1/inventory"

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

// =============================================================================
// CRUD TESTS
// =============================================================================

func TestSQLite_CreateAndGet(t *testing.T) {
	store := newTestStore(t)

	batch := store.Batch()
	id := batch.Create(testCollection, raw(`{"itemName":"Cola","qtyIn":100}`))
	require.NotEmpty(t, id)
	require.NoError(t, batch.Commit(context.Background()))

	doc, err := store.Get(context.Background(), testCollection, id)
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID)
	assert.JSONEq(t, `{"itemName":"Cola","qtyIn":100}`, string(doc.Data))
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestSQLite_Get_Missing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), testCollection, "nope")
	assert.ErrorIs(t, err, ledger.ErrDocumentNotFound)
}

func TestSQLite_Documents_ScopedByCollection(t *testing.T) {
	store := newTestStore(t)

	batch := store.Batch()
	batch.Set(testCollection, "Cola", raw(`{"qtyIn":100}`))
	batch.Set("apps/demo/owner-2/inventory", "Cola", raw(`{"qtyIn":50}`))
	require.NoError(t, batch.Commit(context.Background()))

	docs, err := store.Documents(context.Background(), testCollection)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Cola", docs[0].ID)
}

func TestSQLite_Update_MergesFields(t *testing.T) {
	store := newTestStore(t)

	batch := store.Batch()
	batch.Set(testCollection, "Cola", raw(`{"itemName":"Cola","qtyIn":100,"qtyOut":5}`))
	require.NoError(t, batch.Commit(context.Background()))

	batch = store.Batch()
	batch.Update(testCollection, "Cola", raw(`{"qtyIn":150}`))
	require.NoError(t, batch.Commit(context.Background()))

	doc, err := store.Get(context.Background(), testCollection, "Cola")
	require.NoError(t, err)
	assert.JSONEq(t, `{"itemName":"Cola","qtyIn":150,"qtyOut":5}`, string(doc.Data))
}

func TestSQLite_Set_PreservesCreatedAt(t *testing.T) {
	store := newTestStore(t)

	batch := store.Batch()
	batch.Set(testCollection, "Cola", raw(`{"qtyIn":100}`))
	require.NoError(t, batch.Commit(context.Background()))
	first, err := store.Get(context.Background(), testCollection, "Cola")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	batch = store.Batch()
	batch.Set(testCollection, "Cola", raw(`{"qtyIn":200}`))
	require.NoError(t, batch.Commit(context.Background()))
	second, err := store.Get(context.Background(), testCollection, "Cola")
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestSQLite_Insert_ExistingTarget_RejectsBatch(t *testing.T) {
	store := newTestStore(t)

	batch := store.Batch()
	batch.Insert(testCollection, "Cola", raw(`{"qtyIn":100,"qtyOut":10}`))
	require.NoError(t, batch.Commit(context.Background()))

	batch = store.Batch()
	batch.Insert(testCollection, "Cola", raw(`{"qtyIn":50,"qtyOut":0}`))
	err := batch.Commit(context.Background())
	assert.ErrorIs(t, err, ledger.ErrCommitFailed)
	assert.ErrorIs(t, err, ledger.ErrDocumentExists)

	doc, err := store.Get(context.Background(), testCollection, "Cola")
	require.NoError(t, err)
	assert.JSONEq(t, `{"qtyIn":100,"qtyOut":10}`, string(doc.Data))
}

func TestSQLite_Delete(t *testing.T) {
	store := newTestStore(t)

	batch := store.Batch()
	batch.Set(testCollection, "Cola", raw(`{"qtyIn":100}`))
	require.NoError(t, batch.Commit(context.Background()))

	batch = store.Batch()
	batch.Delete(testCollection, "Cola")
	require.NoError(t, batch.Commit(context.Background()))

	_, err := store.Get(context.Background(), testCollection, "Cola")
	assert.ErrorIs(t, err, ledger.ErrDocumentNotFound)
}

// =============================================================================
// INCREMENT TESTS
// =============================================================================

func TestSQLite_Increment(t *testing.T) {
	store := newTestStore(t)

	batch := store.Batch()
	batch.Set(testCollection, "Cola", raw(`{"qtyOut":5}`))
	require.NoError(t, batch.Commit(context.Background()))

	batch = store.Batch()
	batch.Increment(testCollection, "Cola", "qtyOut", decimal.NewFromInt(10))
	require.NoError(t, batch.Commit(context.Background()))

	doc, err := store.Get(context.Background(), testCollection, "Cola")
	require.NoError(t, err)
	assert.JSONEq(t, `{"qtyOut":15}`, string(doc.Data))
}

// =============================================================================
// ATOMICITY TESTS
// =============================================================================

func TestSQLite_Batch_RollsBackOnFailure(t *testing.T) {
	// GIVEN: An existing item
	store := newTestStore(t)
	batch := store.Batch()
	batch.Set(testCollection, "Cola", raw(`{"qtyOut":5}`))
	require.NoError(t, batch.Commit(context.Background()))

	// WHEN: A batch pairs a valid increment with a missing update target
	batch = store.Batch()
	batch.Increment(testCollection, "Cola", "qtyOut", decimal.NewFromInt(10))
	batch.Update(testCollection, "ghost", raw(`{"qtyIn":1}`))
	err := batch.Commit(context.Background())

	// THEN: The transaction rolled back entirely
	require.ErrorIs(t, err, ledger.ErrCommitFailed)
	assert.True(t, ledger.IsNotFound(err))
	doc, getErr := store.Get(context.Background(), testCollection, "Cola")
	require.NoError(t, getErr)
	assert.JSONEq(t, `{"qtyOut":5}`, string(doc.Data))
}

// =============================================================================
// SUBSCRIPTION TESTS
// =============================================================================

func TestSQLite_Subscribe_InitialAndCommitSnapshots(t *testing.T) {
	store := newTestStore(t)

	batch := store.Batch()
	batch.Set(testCollection, "Cola", raw(`{"qtyIn":100}`))
	require.NoError(t, batch.Commit(context.Background()))

	sub := store.Subscribe(testCollection)
	defer sub.Close()

	select {
	case snap := <-sub.Snapshots():
		require.Len(t, snap.Docs, 1)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	batch = store.Batch()
	batch.Set(testCollection, "Fanta", raw(`{"qtyIn":60}`))
	require.NoError(t, batch.Commit(context.Background()))

	select {
	case snap := <-sub.Snapshots():
		require.Len(t, snap.Docs, 2)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after commit")
	}
}

func TestSQLite_Persistence_AcrossHandles(t *testing.T) {
	// File-backed stores keep data across close/reopen
	path := t.TempDir() + "/ledger.db"

	store, err := sqlite.New(path)
	require.NoError(t, err)
	batch := store.Batch()
	batch.Set(testCollection, "Cola", raw(`{"qtyIn":100}`))
	require.NoError(t, batch.Commit(context.Background()))
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	doc, err := reopened.Get(context.Background(), testCollection, "Cola")
	require.NoError(t, err)
	assert.JSONEq(t, `{"qtyIn":100}`, string(doc.Data))
}
