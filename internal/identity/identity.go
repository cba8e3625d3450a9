package identity

// #region imports
import (
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// #endregion

// #region traits

// Traits is the fixed trait set, in index order. All values live in [0,1]
// with 0.5 as the neutral point.
var Traits = []string{"assertiveness", "playfulness", "caution", "curiosity", "patience"}

const (
	Assertiveness = iota
	Playfulness
	Caution
	Curiosity
	Patience
	traitCount
)

// Vector is the numeric trait vector.
type Vector [traitCount]float32

// Snapshot is an immutable copy handed to reality evaluators.
type Snapshot struct {
	Values Vector
}

// Trait returns the value at index i.
func (s Snapshot) Trait(i int) float32 {
	return s.Values[i]
}

// #endregion traits

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS identity_traits (
	trait  TEXT PRIMARY KEY,
	value  REAL NOT NULL
);
`

// #endregion schema

// #region state-struct

// State owns the identity vector. Mutation happens only inside the loop's
// post-commit phase; everything else reads snapshots.
type State struct {
	mu           sync.Mutex
	values       Vector
	learningRate float32
	decayRate    float32
	normBound    float32
	db           *sql.DB
	log          *zap.SugaredLogger
	lastDecay    time.Time
	now          func() time.Time
}

// #endregion state-struct

// #region constructor

// Load reads (or seeds) the trait vector from the shared runtime database.
// db may be nil, in which case the state is memory-only.
func Load(db *sql.DB, learningRate, decayRate, normBound float32, log *zap.SugaredLogger) (*State, error) {
	s := &State{
		learningRate: learningRate,
		decayRate:    decayRate,
		normBound:    normBound,
		db:           db,
		log:          log,
		now:          time.Now,
	}
	for i := range s.values {
		s.values[i] = 0.5
	}
	s.lastDecay = s.now()

	if db == nil {
		return s, nil
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("identity migrate: %w", err)
	}

	rows, err := db.Query(`SELECT trait, value FROM identity_traits`)
	if err != nil {
		return nil, fmt.Errorf("load traits: %w", err)
	}
	defer rows.Close()

	loaded := 0
	for rows.Next() {
		var trait string
		var value float64
		if err := rows.Scan(&trait, &value); err != nil {
			return nil, fmt.Errorf("scan trait: %w", err)
		}
		for i, name := range Traits {
			if name == trait {
				s.values[i] = clamp(float32(value))
				loaded++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if loaded == 0 {
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
	}
	s.enforceNormBound()
	return s, nil
}

// #endregion constructor

// #region snapshot

// Snapshot returns a copy of the current trait vector.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Values: s.values}
}

// #endregion snapshot

// #region decay

// Decay pulls every trait toward neutral, proportional to elapsed time since
// the previous decay call.
func (s *State) Decay() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dt := float32(now.Sub(s.lastDecay).Seconds())
	s.lastDecay = now
	if dt <= 0 {
		return
	}
	rate := s.decayRate * dt
	if rate > 1 {
		rate = 1
	}
	for i := range s.values {
		s.values[i] += (0.5 - s.values[i]) * rate
	}
}

// #endregion decay

// #region adjust

// AdjustFromOutcome nudges the vector after a committed action. Positive
// outcomes raise assertiveness and curiosity and lower caution; negative
// outcomes do the reverse. Values stay clamped and the deviation norm stays
// within the bound.
func (s *State) AdjustFromOutcome(outcomeScore float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lr := s.learningRate
	s.values[Assertiveness] = clamp(s.values[Assertiveness] + lr*outcomeScore)
	s.values[Curiosity] = clamp(s.values[Curiosity] + lr*outcomeScore)
	s.values[Playfulness] = clamp(s.values[Playfulness] + lr*outcomeScore*0.5)
	s.values[Caution] = clamp(s.values[Caution] - lr*outcomeScore)
	s.values[Patience] = clamp(s.values[Patience] - lr*outcomeScore*0.5)
	s.enforceNormBound()

	if err := s.persistLocked(); err != nil && s.log != nil {
		s.log.Warnw("identity persist failed", "error", err)
	}
}

// enforceNormBound rescales trait deviations from neutral so their L2 norm
// never exceeds the bound. Caller holds the lock.
func (s *State) enforceNormBound() {
	var sum float64
	for _, v := range s.values {
		d := float64(v) - 0.5
		sum += d * d
	}
	norm := math.Sqrt(sum)
	if norm <= float64(s.normBound) || norm == 0 {
		return
	}
	scale := float64(s.normBound) / norm
	for i := range s.values {
		d := (float64(s.values[i]) - 0.5) * scale
		s.values[i] = clamp(float32(0.5 + d))
	}
}

// Norm reports the current L2 norm of the deviation from neutral.
func (s *State) Norm() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, v := range s.values {
		d := float64(v) - 0.5
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

// #endregion adjust

// #region persist

// Flush writes the vector to the database; called at shutdown.
func (s *State) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *State) persistLocked() error {
	if s.db == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, name := range Traits {
		_, err := tx.Exec(
			`INSERT INTO identity_traits (trait, value) VALUES (?, ?)
			 ON CONFLICT(trait) DO UPDATE SET value = excluded.value`,
			name, float64(s.values[i]),
		)
		if err != nil {
			return fmt.Errorf("persist %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// #endregion persist

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
