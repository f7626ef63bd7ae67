// Package store provides the in-memory ledger.Store implementation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is an in-memory document store. Batches commit atomically under a
// single lock, and subscribers receive the full collection snapshot after
// every committed change.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]ledger.Document
	subs        map[string][]*ledger.Subscription

	// CommitHook, when set, runs inside the commit critical section before
	// any op is applied. Returning an error rejects the whole batch with no
	// effects. Test seam for atomicity and failure-path coverage.
	CommitHook func(ops []ledger.Op) error
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]ledger.Document),
		subs:        make(map[string][]*ledger.Subscription),
	}
}

// Documents returns a sorted copy of a collection's current contents.
func (m *Memory) Documents(_ context.Context, collection string) ([]ledger.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.documentsLocked(collection), nil
}

func (m *Memory) documentsLocked(collection string) []ledger.Document {
	docs := make([]ledger.Document, 0, len(m.collections[collection]))
	for _, doc := range m.collections[collection] {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// Get returns one document by id.
func (m *Memory) Get(_ context.Context, collection, docID string) (ledger.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][docID]
	if !ok {
		return ledger.Document{}, &ledger.NotFoundError{Collection: collection, DocID: docID}
	}
	return doc, nil
}

// Batch starts a new atomic write batch.
func (m *Memory) Batch() ledger.WriteBatch {
	return &memoryBatch{store: m}
}

// Subscribe registers a snapshot subscription and delivers the current
// contents immediately.
func (m *Memory) Subscribe(collection string) *ledger.Subscription {
	sub := ledger.NewSubscription(collection)
	m.mu.Lock()
	m.subs[collection] = append(m.subs[collection], sub)
	snap := ledger.Snapshot{Collection: collection, Docs: m.documentsLocked(collection)}
	m.mu.Unlock()
	_ = sub.Publish(snap)
	return sub
}

// notifyLocked publishes fresh snapshots for each touched collection and
// prunes closed subscriptions. Caller holds m.mu.
func (m *Memory) notifyLocked(collections map[string]bool) {
	for col := range collections {
		live := m.subs[col][:0]
		var snap *ledger.Snapshot
		for _, sub := range m.subs[col] {
			if sub.Closed() {
				continue
			}
			if snap == nil {
				snap = &ledger.Snapshot{Collection: col, Docs: m.documentsLocked(col)}
			}
			_ = sub.Publish(*snap)
			live = append(live, sub)
		}
		m.subs[col] = live
	}
}

// =============================================================================
// MEMORY BATCH
// =============================================================================

type memoryBatch struct {
	store *Memory
	ops   []ledger.Op
}

func (b *memoryBatch) Create(collection string, payload json.RawMessage) string {
	id := ledger.NewDocID()
	b.ops = append(b.ops, ledger.Op{Kind: ledger.OpCreate, Collection: collection, DocID: id, Payload: payload})
	return id
}

func (b *memoryBatch) Insert(collection, docID string, payload json.RawMessage) {
	b.ops = append(b.ops, ledger.Op{Kind: ledger.OpCreate, Collection: collection, DocID: docID, Payload: payload})
}

func (b *memoryBatch) Set(collection, docID string, payload json.RawMessage) {
	b.ops = append(b.ops, ledger.Op{Kind: ledger.OpSet, Collection: collection, DocID: docID, Payload: payload})
}

func (b *memoryBatch) Update(collection, docID string, payload json.RawMessage) {
	b.ops = append(b.ops, ledger.Op{Kind: ledger.OpUpdate, Collection: collection, DocID: docID, Payload: payload})
}

func (b *memoryBatch) Increment(collection, docID, field string, delta decimal.Decimal) {
	b.ops = append(b.ops, ledger.Op{Kind: ledger.OpIncrement, Collection: collection, DocID: docID, Field: field, Delta: delta})
}

func (b *memoryBatch) Delete(collection, docID string) {
	b.ops = append(b.ops, ledger.Op{Kind: ledger.OpDelete, Collection: collection, DocID: docID})
}

// Commit applies every queued op or none. Ops are applied to staged copies
// of the affected collections; the copies are swapped in only after every
// op succeeds, so a mid-batch failure leaves nothing visible.
func (b *memoryBatch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := b.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CommitHook != nil {
		if err := m.CommitHook(b.ops); err != nil {
			return errors.Join(ledger.ErrCommitFailed, err)
		}
	}

	now := time.Now().UTC()
	staged := make(map[string]map[string]ledger.Document)
	stage := func(col string) map[string]ledger.Document {
		if s, ok := staged[col]; ok {
			return s
		}
		s := make(map[string]ledger.Document, len(m.collections[col]))
		for id, doc := range m.collections[col] {
			s[id] = doc
		}
		staged[col] = s
		return s
	}

	for _, op := range b.ops {
		if err := applyOp(stage(op.Collection), op, now); err != nil {
			return errors.Join(ledger.ErrCommitFailed, err)
		}
	}

	touched := make(map[string]bool, len(staged))
	for col, docs := range staged {
		m.collections[col] = docs
		touched[col] = true
	}
	m.notifyLocked(touched)
	return nil
}

func applyOp(docs map[string]ledger.Document, op ledger.Op, now time.Time) error {
	switch op.Kind {
	case ledger.OpCreate:
		if _, ok := docs[op.DocID]; ok {
			return &ledger.ExistsError{Collection: op.Collection, DocID: op.DocID}
		}
		docs[op.DocID] = ledger.Document{ID: op.DocID, Data: op.Payload, CreatedAt: now, UpdatedAt: now}

	case ledger.OpSet:
		created := now
		if existing, ok := docs[op.DocID]; ok {
			created = existing.CreatedAt
		}
		docs[op.DocID] = ledger.Document{ID: op.DocID, Data: op.Payload, CreatedAt: created, UpdatedAt: now}

	case ledger.OpUpdate:
		existing, ok := docs[op.DocID]
		if !ok {
			return &ledger.NotFoundError{Collection: op.Collection, DocID: op.DocID}
		}
		merged, err := ledger.MergePayload(existing.Data, op.Payload)
		if err != nil {
			return err
		}
		existing.Data = merged
		existing.UpdatedAt = now
		docs[op.DocID] = existing

	case ledger.OpIncrement:
		existing, ok := docs[op.DocID]
		if !ok {
			return &ledger.NotFoundError{Collection: op.Collection, DocID: op.DocID}
		}
		next, err := ledger.IncrementField(existing.Data, op.Field, op.Delta)
		if err != nil {
			return err
		}
		existing.Data = next
		existing.UpdatedAt = now
		docs[op.DocID] = existing

	case ledger.OpDelete:
		delete(docs, op.DocID)

	default:
		return errors.New("unknown batch op")
	}
	return nil
}
