package undo

// #region imports
import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/vyxenlabs/vyxen-runtime/internal/toolintent"
)

// #endregion

// #region states

// Journal entry states. An entry is written pending before its action is
// dispatched, committed after successful execution, and rolled back on
// demand, on execution failure, or by the sweep when its commit never
// arrived within the TTL.
const (
	StatePending    = "pending"
	StateCommitted  = "committed"
	StateRolledBack = "rolled_back"
)

// ErrNotFound is returned when no journal entry exists for an action.
var ErrNotFound = errors.New("undo: entry not found")

// #endregion states

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS undo_journal (
	entry_id   TEXT PRIMARY KEY,
	action_id  TEXT NOT NULL UNIQUE,
	command    TEXT NOT NULL,
	inverse    TEXT NOT NULL,
	state      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_undo_state ON undo_journal(state, expires_at);
`

// #endregion schema

// #region entry

// Entry is one journalled rollback recipe.
type Entry struct {
	EntryID   string
	ActionID  string
	Command   string
	Inverse   toolintent.InverseSpec
	State     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// #endregion entry

// #region journal

// Journal persists rollback recipes for reversible actions. The write happens
// before dispatch, so a crash between write and execution leaves at worst a
// pending entry for an action that never ran.
type Journal struct {
	mu  sync.Mutex
	db  *sql.DB
	ttl time.Duration
	log *zap.SugaredLogger
	now func() time.Time
}

// NewJournal prepares the journal tables on the shared runtime database.
func NewJournal(db *sql.DB, ttl time.Duration, log *zap.SugaredLogger) (*Journal, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("undo migrate: %w", err)
	}
	return &Journal{db: db, ttl: ttl, log: log, now: time.Now}, nil
}

// Record writes a pending entry for an action about to be dispatched.
func (j *Journal) Record(actionID, command string, inverse toolintent.InverseSpec) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	raw, err := json.Marshal(inverse)
	if err != nil {
		return "", fmt.Errorf("marshal inverse: %w", err)
	}
	now := j.now().UTC()
	entryID := uuid.New().String()
	_, err = j.db.Exec(
		`INSERT INTO undo_journal (entry_id, action_id, command, inverse, state, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entryID, actionID, command, string(raw), StatePending,
		now.UnixMilli(), now.Add(j.ttl).UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("record undo entry: %w", err)
	}
	return entryID, nil
}

// Commit marks the entry for an executed action.
func (j *Journal) Commit(actionID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.Exec(
		`UPDATE undo_journal SET state = ? WHERE action_id = ? AND state = ?`,
		StateCommitted, actionID, StatePending,
	)
	if err != nil {
		return fmt.Errorf("commit undo entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Rollback marks the entry rolled back and returns its inverse for dispatch.
// Idempotent: a second call reports performed=false with no error.
func (j *Journal) Rollback(actionID string) (inverse toolintent.InverseSpec, performed bool, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, err := j.lookupLocked(actionID)
	if err != nil {
		return toolintent.InverseSpec{}, false, err
	}
	if entry.State == StateRolledBack {
		return toolintent.InverseSpec{}, false, nil
	}
	_, err = j.db.Exec(
		`UPDATE undo_journal SET state = ? WHERE action_id = ?`,
		StateRolledBack, actionID,
	)
	if err != nil {
		return toolintent.InverseSpec{}, false, fmt.Errorf("rollback undo entry: %w", err)
	}
	return entry.Inverse, true, nil
}

// Latest returns the most recent committed entry, if any. Drives the
// undo_last_action command.
func (j *Journal) Latest() (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	row := j.db.QueryRow(
		`SELECT entry_id, action_id, command, inverse, state, created_at, expires_at
		 FROM undo_journal WHERE state = ? ORDER BY created_at DESC LIMIT 1`,
		StateCommitted,
	)
	return scanEntry(row)
}

// SweepExpired handles entries past their TTL. A pending entry means the
// commit never arrived, so the action may have executed without confirmation:
// the entry transitions to rolled_back and is returned for inverse dispatch.
// Committed and already rolled-back entries are purged; a confirmed action
// stays done.
func (j *Journal) SweepExpired() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := j.now().UTC().UnixMilli()

	// Purge first: terminal entries past their TTL leave the journal. Entries
	// rolled back below keep their row until the next sweep.
	if _, err := j.db.Exec(
		`DELETE FROM undo_journal WHERE state IN (?, ?) AND expires_at <= ?`,
		StateCommitted, StateRolledBack, cutoff,
	); err != nil {
		return nil, fmt.Errorf("purge expired entries: %w", err)
	}

	rows, err := j.db.Query(
		`SELECT entry_id, action_id, command, inverse, state, created_at, expires_at
		 FROM undo_journal WHERE state = ? AND expires_at <= ?`,
		StatePending, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("sweep query: %w", err)
	}
	defer rows.Close()

	var stale []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entry.State = StateRolledBack
		stale = append(stale, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, entry := range stale {
		if _, err := j.db.Exec(
			`UPDATE undo_journal SET state = ? WHERE entry_id = ?`,
			StateRolledBack, entry.EntryID,
		); err != nil {
			return nil, fmt.Errorf("roll back entry %s: %w", entry.EntryID, err)
		}
	}
	if len(stale) > 0 && j.log != nil {
		j.log.Infow("undo sweep rolled back uncommitted entries", "count", len(stale))
	}
	return stale, nil
}

// CountByState reports entry totals per state.
func (j *Journal) CountByState() (map[string]int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(`SELECT state, COUNT(*) FROM undo_journal GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("undo counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

// Lookup returns the entry for an action.
func (j *Journal) Lookup(actionID string) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lookupLocked(actionID)
}

func (j *Journal) lookupLocked(actionID string) (Entry, error) {
	row := j.db.QueryRow(
		`SELECT entry_id, action_id, command, inverse, state, created_at, expires_at
		 FROM undo_journal WHERE action_id = ?`,
		actionID,
	)
	return scanEntry(row)
}

// #endregion journal

// #region scan

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var raw string
	var createdAt, expiresAt int64
	err := row.Scan(&e.EntryID, &e.ActionID, &e.Command, &raw, &e.State, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("scan undo entry: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &e.Inverse); err != nil {
		return Entry{}, fmt.Errorf("decode inverse: %w", err)
	}
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	e.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return e, nil
}

// #endregion scan
