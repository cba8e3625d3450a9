package memory

// #region imports
import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS memory_records (
	key         TEXT PRIMARY KEY,
	value       TEXT NOT NULL,
	provenance  TEXT NOT NULL,
	relevance   REAL NOT NULL,
	created_at  TEXT NOT NULL,
	expires_at  TEXT
);

CREATE INDEX IF NOT EXISTS idx_memory_evict
ON memory_records(relevance ASC, created_at ASC);
`

// #endregion schema

// #region errors

// ErrNotFound is returned by Get for absent or expired keys.
var ErrNotFound = errors.New("memory: record not found")

// ErrStorage wraps database failures that force the store into map-only
// operation. The process keeps running; durability is lost for this run.
var ErrStorage = errors.New("memory: storage unavailable")

// #endregion errors

// #region store-struct

// Store is the bounded durable memory. The in-process map is the working set;
// SQLite provides durability across restarts. When the database fails the
// store degrades to map-only operation and reports it once via onDegrade.
type Store struct {
	mu        sync.RWMutex
	capacity  int
	db        *sql.DB
	records   map[string]Record
	degraded  bool
	onDegrade func(error)
	log       *zap.SugaredLogger
	now       func() time.Time
}

// #endregion store-struct

// #region constructor

// NewStore opens (or creates) the memory database at path and loads the
// working set, trimming to capacity with the eviction rule.
func NewStore(path string, capacity int, log *zap.SugaredLogger) (*Store, error) {
	s := &Store{
		capacity: capacity,
		records:  map[string]Record{},
		log:      log,
		now:      time.Now,
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.db = db

	if err := s.loadWorkingSet(); err != nil {
		db.Close()
		return nil, err
	}
	for len(s.records) > s.capacity {
		s.evictOne()
	}
	return s, nil
}

// NewEphemeral builds a map-only store, used when the durable store is
// unavailable at startup.
func NewEphemeral(capacity int, log *zap.SugaredLogger) *Store {
	return &Store{
		capacity: capacity,
		records:  map[string]Record{},
		degraded: true,
		log:      log,
		now:      time.Now,
	}
}

// SetDegradeHandler registers the watchdog callback fired on the first
// storage failure.
func (s *Store) SetDegradeHandler(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDegrade = fn
}

func (s *Store) loadWorkingSet() error {
	rows, err := s.db.Query(
		`SELECT key, value, provenance, relevance, created_at, expires_at FROM memory_records`)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec Record
		var createdStr string
		var expiresStr sql.NullString
		if err := rows.Scan(&rec.Key, &rec.Value, &rec.Provenance, &rec.Relevance, &createdStr, &expiresStr); err != nil {
			return fmt.Errorf("scan record: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		if expiresStr.Valid && expiresStr.String != "" {
			rec.ExpiresAt, _ = time.Parse(time.RFC3339Nano, expiresStr.String)
		}
		s.records[rec.Key] = rec
	}
	return rows.Err()
}

// #endregion constructor

// #region close

// Close flushes nothing (writes are synchronous) and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// #endregion close

// #region put

// Put inserts or updates a record, then enforces the capacity bound by
// evicting lowest-relevance-then-oldest entries. Storage failures degrade the
// store instead of failing the caller.
func (s *Store) Put(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Key == "" {
		return errors.New("memory: empty key")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	rec.Relevance = clamp(rec.Relevance)

	s.records[rec.Key] = rec
	s.persist(rec)

	for len(s.records) > s.capacity {
		s.evictOne()
	}
	return nil
}

func (s *Store) persist(rec Record) {
	if s.degraded || s.db == nil {
		return
	}
	var expires any
	if !rec.ExpiresAt.IsZero() {
		expires = rec.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.Exec(
		`INSERT INTO memory_records (key, value, provenance, relevance, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value, provenance = excluded.provenance,
		   relevance = excluded.relevance, created_at = excluded.created_at,
		   expires_at = excluded.expires_at`,
		rec.Key, rec.Value, rec.Provenance, rec.Relevance,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano), expires,
	)
	if err != nil {
		s.degrade(fmt.Errorf("persist %s: %w", rec.Key, err))
	}
}

// evictOne removes the lowest-relevance record, oldest first on ties, with a
// key tiebreak so eviction stays deterministic. Caller holds the lock.
func (s *Store) evictOne() {
	var victim string
	var found bool
	var vRec Record
	for key, rec := range s.records {
		if !found {
			victim, vRec, found = key, rec, true
			continue
		}
		if rec.Relevance != vRec.Relevance {
			if rec.Relevance < vRec.Relevance {
				victim, vRec = key, rec
			}
			continue
		}
		if !rec.CreatedAt.Equal(vRec.CreatedAt) {
			if rec.CreatedAt.Before(vRec.CreatedAt) {
				victim, vRec = key, rec
			}
			continue
		}
		if key < victim {
			victim, vRec = key, rec
		}
	}
	if !found {
		return
	}
	delete(s.records, victim)
	if !s.degraded && s.db != nil {
		if _, err := s.db.Exec(`DELETE FROM memory_records WHERE key = ?`, victim); err != nil {
			s.degrade(fmt.Errorf("evict %s: %w", victim, err))
		}
	}
}

// #endregion put

// #region get

// Get returns the latest value for key, or ErrNotFound when absent or expired.
func (s *Store) Get(key string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	if !rec.ExpiresAt.IsZero() && s.now().After(rec.ExpiresAt) {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// #endregion get

// #region snapshot

// Snapshot returns an immutable read view for reality evaluation. Expired
// records are excluded.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make(map[string]Record, len(s.records))
	for key, rec := range s.records {
		if !rec.ExpiresAt.IsZero() && now.After(rec.ExpiresAt) {
			continue
		}
		out[key] = rec
	}
	return Snapshot{records: out}
}

// #endregion snapshot

// #region maintenance

// SweepExpired removes records past their TTL and returns how many went.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, rec := range s.records {
		if rec.ExpiresAt.IsZero() || now.Before(rec.ExpiresAt) {
			continue
		}
		delete(s.records, key)
		removed++
		if !s.degraded && s.db != nil {
			if _, err := s.db.Exec(`DELETE FROM memory_records WHERE key = ?`, key); err != nil {
				s.degrade(fmt.Errorf("sweep %s: %w", key, err))
			}
		}
	}
	return removed
}

// Len reports the current working-set size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// DB exposes the underlying handle so sibling stores (identity, undo, audit)
// share the same database file. Nil for ephemeral stores.
func (s *Store) DB() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Degraded reports whether the store is running map-only.
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

func (s *Store) degrade(err error) {
	if s.degraded {
		return
	}
	s.degraded = true
	err = fmt.Errorf("%w: %v", ErrStorage, err)
	if s.log != nil {
		s.log.Warnw("memory store degraded to ephemeral mode", "error", err)
	}
	if s.onDegrade != nil {
		s.onDegrade(err)
	}
}

// #endregion maintenance

// #region helpers

func clamp(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
