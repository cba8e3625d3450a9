package audit

// #region imports
import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// #endregion

// #region outcomes

// Terminal outcomes recorded for every decided stimulus.
const (
	OutcomeCommitted  = "committed"
	OutcomeDryRun     = "dry_run"
	OutcomeRejected   = "rejected"
	OutcomeAbstained  = "abstained"
	OutcomeFailed     = "failed"
	OutcomeRolledBack = "rolled_back"
)

// #endregion outcomes

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id          TEXT PRIMARY KEY,
	stimulus_id TEXT NOT NULL,
	action_id   TEXT,
	action_type TEXT,
	reality     TEXT,
	outcome     TEXT NOT NULL,
	score       REAL,
	confidence  REAL,
	detail      TEXT,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_log(created_at DESC);
`

// #endregion schema

// #region entry

// Entry is one audit row. Every stimulus that reaches arbitration produces
// exactly one terminal entry; rollbacks add a second row referencing the
// same action.
type Entry struct {
	ID         string
	StimulusID string
	ActionID   string
	ActionType string
	Reality    string
	Outcome    string
	Score      float32
	Confidence float32
	Detail     string
	CreatedAt  time.Time
}

// #endregion entry

// #region recorder

// Recorder appends decision outcomes to the shared runtime database. Append
// failures degrade to a log line; auditing never blocks the loop.
type Recorder struct {
	mu  sync.Mutex
	db  *sql.DB
	log *zap.SugaredLogger
	now func() time.Time
}

// NewRecorder prepares the audit table.
func NewRecorder(db *sql.DB, log *zap.SugaredLogger) (*Recorder, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("audit migrate: %w", err)
	}
	return &Recorder{db: db, log: log, now: time.Now}, nil
}

// Append writes one entry. The entry id is assigned here.
func (r *Recorder) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = uuid.New().String()
	e.CreatedAt = r.now().UTC()
	_, err := r.db.Exec(
		`INSERT INTO audit_log (id, stimulus_id, action_id, action_type, reality, outcome, score, confidence, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.StimulusID, e.ActionID, e.ActionType, e.Reality, e.Outcome,
		float64(e.Score), float64(e.Confidence), e.Detail, e.CreatedAt.UnixMilli(),
	)
	if err != nil && r.log != nil {
		r.log.Warnw("audit append failed", "outcome", e.Outcome, "error", err)
	}
}

// Tail returns the n most recent entries, newest first.
func (r *Recorder) Tail(n int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(
		`SELECT id, stimulus_id, action_id, action_type, reality, outcome, score, confidence, detail, created_at
		 FROM audit_log ORDER BY created_at DESC, id LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("audit tail: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var actionID, actionType, reality, detail sql.NullString
		var score, confidence sql.NullFloat64
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.StimulusID, &actionID, &actionType, &reality, &e.Outcome, &score, &confidence, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ActionID = actionID.String
		e.ActionType = actionType.String
		e.Reality = reality.String
		e.Detail = detail.String
		e.Score = float32(score.Float64)
		e.Confidence = float32(confidence.Float64)
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByOutcome reports totals per outcome, for the status action.
func (r *Recorder) CountByOutcome() (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT outcome, COUNT(*) FROM audit_log GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("audit counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// #endregion recorder
