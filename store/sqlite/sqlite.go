/*
Package sqlite provides a SQLite-backed implementation of ledger.Store.

PURPOSE:
  Persists each principal's collections as JSON documents in a single
  table, keyed by (collection, doc_id). In production against a hosted
  document store the same contracts apply - this implementation exists so
  the engine runs self-contained on one node.

ATOMIC BATCHES:
  Every write batch executes inside one SQL transaction. Updates and
  increments that target a missing document roll the whole transaction
  back: either all queued ops land or none do.

INCREMENTS:
  A field increment is a read-modify-write of the document's JSON payload
  INSIDE the batch transaction. Commits are serialized by a store-level
  mutex, so two increments against the same counter always compose as
  delta additions, never lost updates.

SNAPSHOT FAN-OUT:
  After each committed batch the store reloads every touched collection and
  publishes the full snapshot to its subscribers. Fan-out is in-process
  only; a second process writing the same database file is not observed
  until this process writes again.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/ledger-engine/ledger"
)

// Store implements ledger.Store on SQLite.
type Store struct {
	db *sql.DB

	mu   sync.Mutex
	subs map[string][]*ledger.Subscription
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and matches
	// the one-writer commit model.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, subs: make(map[string][]*ledger.Subscription)}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection  TEXT NOT NULL,
		doc_id      TEXT NOT NULL,
		data        TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		PRIMARY KEY (collection, doc_id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_collection
		ON documents(collection);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// READS
// =============================================================================

// Documents returns the current snapshot of a collection, ordered by id.
func (s *Store) Documents(ctx context.Context, collection string) ([]ledger.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, data, created_at, updated_at FROM documents WHERE collection = ? ORDER BY doc_id`,
		collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []ledger.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Get returns one document by id.
func (s *Store) Get(ctx context.Context, collection, docID string) (ledger.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT doc_id, data, created_at, updated_at FROM documents WHERE collection = ? AND doc_id = ?`,
		collection, docID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Document{}, &ledger.NotFoundError{Collection: collection, DocID: docID}
	}
	return doc, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(r rowScanner) (ledger.Document, error) {
	var doc ledger.Document
	var data, created, updated string
	if err := r.Scan(&doc.ID, &data, &created, &updated); err != nil {
		return ledger.Document{}, err
	}
	doc.Data = json.RawMessage(data)
	var err error
	if doc.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return ledger.Document{}, fmt.Errorf("bad created_at for %s: %w", doc.ID, err)
	}
	if doc.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return ledger.Document{}, fmt.Errorf("bad updated_at for %s: %w", doc.ID, err)
	}
	return doc, nil
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers a snapshot subscription and delivers the current
// contents immediately. A failed initial read is reported on the
// subscription's error channel rather than failing registration.
// Registration and the initial read happen under the commit mutex so a
// concurrent batch cannot slip a newer snapshot in before the initial one.
func (s *Store) Subscribe(collection string) *ledger.Subscription {
	sub := ledger.NewSubscription(collection)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[collection] = append(s.subs[collection], sub)

	docs, err := s.Documents(context.Background(), collection)
	if err != nil {
		sub.Fail(err)
		return sub
	}
	_ = sub.Publish(ledger.Snapshot{Collection: collection, Docs: docs})
	return sub
}

// notify reloads each touched collection and fans the snapshot out.
func (s *Store) notify(ctx context.Context, collections map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for col := range collections {
		live := s.subs[col][:0]
		var snap *ledger.Snapshot
		var loadErr error
		for _, sub := range s.subs[col] {
			if sub.Closed() {
				continue
			}
			if snap == nil && loadErr == nil {
				docs, err := s.Documents(ctx, col)
				if err != nil {
					loadErr = err
				} else {
					snap = &ledger.Snapshot{Collection: col, Docs: docs}
				}
			}
			if loadErr != nil {
				sub.Fail(loadErr)
			} else {
				_ = sub.Publish(*snap)
			}
			live = append(live, sub)
		}
		s.subs[col] = live
	}
}

// =============================================================================
// WRITE BATCHES
// =============================================================================

// Batch starts a new atomic write batch.
func (s *Store) Batch() ledger.WriteBatch {
	return &sqliteBatch{store: s}
}

type sqliteBatch struct {
	store *Store
	ops   []ledger.Op
}

func (b *sqliteBatch) Create(collection string, payload json.RawMessage) string {
	id := ledger.NewDocID()
	b.ops = append(b.ops, ledger.Op{Kind: ledger.OpCreate, Collection: collection, DocID: id, Payload: payload})
	return id
}

func (b *sqliteBatch) Insert(collection, docID string, payload json.RawMessage) {
	b.ops = append(b.ops, ledger.Op{Kind: ledger.OpCreate, Collection: collection, DocID: docID, Payload: payload})
}

func (b *sqliteBatch) Set(collection, docID string, payload json.RawMessage) {
	b.ops = append(b.ops, ledger.Op{Kind: ledger.OpSet, Collection: collection, DocID: docID, Payload: payload})
}

func (b *sqliteBatch) Update(collection, docID string, payload json.RawMessage) {
	b.ops = append(b.ops, ledger.Op{Kind: ledger.OpUpdate, Collection: collection, DocID: docID, Payload: payload})
}

func (b *sqliteBatch) Increment(collection, docID, field string, delta decimal.Decimal) {
	b.ops = append(b.ops, ledger.Op{Kind: ledger.OpIncrement, Collection: collection, DocID: docID, Field: field, Delta: delta})
}

func (b *sqliteBatch) Delete(collection, docID string) {
	b.ops = append(b.ops, ledger.Op{Kind: ledger.OpDelete, Collection: collection, DocID: docID})
}

// Commit applies every queued op inside one SQL transaction.
func (b *sqliteBatch) Commit(ctx context.Context) error {
	s := b.store
	s.mu.Lock()
	locked := true
	unlock := func() {
		if locked {
			locked = false
			s.mu.Unlock()
		}
	}
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Join(ledger.ErrCommitFailed, err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	touched := make(map[string]bool)
	for _, op := range b.ops {
		if err := applyOp(ctx, tx, op, now); err != nil {
			tx.Rollback()
			return errors.Join(ledger.ErrCommitFailed, err)
		}
		touched[op.Collection] = true
	}

	if err := tx.Commit(); err != nil {
		return errors.Join(ledger.ErrCommitFailed, err)
	}
	unlock()

	s.notify(ctx, touched)
	return nil
}

func applyOp(ctx context.Context, tx *sql.Tx, op ledger.Op, now string) error {
	switch op.Kind {
	case ledger.OpCreate:
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM documents WHERE collection = ? AND doc_id = ?`,
			op.Collection, op.DocID).Scan(&one)
		if err == nil {
			return &ledger.ExistsError{Collection: op.Collection, DocID: op.DocID}
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (collection, doc_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			op.Collection, op.DocID, string(op.Payload), now, now)
		return err

	case ledger.OpSet:
		var created string
		err := tx.QueryRowContext(ctx,
			`SELECT created_at FROM documents WHERE collection = ? AND doc_id = ?`,
			op.Collection, op.DocID).Scan(&created)
		if errors.Is(err, sql.ErrNoRows) {
			created = now
		} else if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO documents (collection, doc_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			op.Collection, op.DocID, string(op.Payload), created, now)
		return err

	case ledger.OpUpdate:
		data, err := loadData(ctx, tx, op)
		if err != nil {
			return err
		}
		merged, err := ledger.MergePayload(data, op.Payload)
		if err != nil {
			return err
		}
		return storeData(ctx, tx, op, merged, now)

	case ledger.OpIncrement:
		data, err := loadData(ctx, tx, op)
		if err != nil {
			return err
		}
		next, err := ledger.IncrementField(data, op.Field, op.Delta)
		if err != nil {
			return err
		}
		return storeData(ctx, tx, op, next, now)

	case ledger.OpDelete:
		_, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND doc_id = ?`,
			op.Collection, op.DocID)
		return err

	default:
		return fmt.Errorf("unknown batch op %q", op.Kind)
	}
}

func loadData(ctx context.Context, tx *sql.Tx, op ledger.Op) (json.RawMessage, error) {
	var data string
	err := tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND doc_id = ?`,
		op.Collection, op.DocID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Collection: op.Collection, DocID: op.DocID}
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func storeData(ctx context.Context, tx *sql.Tx, op ledger.Op, data json.RawMessage, now string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND doc_id = ?`,
		string(data), now, op.Collection, op.DocID)
	return err
}
