package identity

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/vyxenlabs/vyxen-runtime/internal/logging"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "identity.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadSeedsNeutralVector(t *testing.T) {
	s, err := Load(openTestDB(t), 0.02, 0.003, 1.0, logging.Nop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := s.Snapshot()
	for i, name := range Traits {
		if snap.Values[i] != 0.5 {
			t.Fatalf("trait %s should seed at 0.5, got %v", name, snap.Values[i])
		}
	}
}

func TestAdjustFromOutcomeDirection(t *testing.T) {
	s, err := Load(nil, 0.1, 0.003, 1.0, logging.Nop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.AdjustFromOutcome(1.0)

	snap := s.Snapshot()
	if snap.Values[Assertiveness] <= 0.5 || snap.Values[Curiosity] <= 0.5 {
		t.Fatal("positive outcome should raise assertiveness and curiosity")
	}
	if snap.Values[Caution] >= 0.5 {
		t.Fatal("positive outcome should lower caution")
	}
}

func TestValuesStayClamped(t *testing.T) {
	s, err := Load(nil, 0.5, 0.003, 10.0, logging.Nop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := 0; i < 50; i++ {
		s.AdjustFromOutcome(1.0)
	}
	snap := s.Snapshot()
	for i, v := range snap.Values {
		if v < 0 || v > 1 {
			t.Fatalf("trait %s out of range: %v", Traits[i], v)
		}
	}
}

func TestNormBoundHolds(t *testing.T) {
	bound := float32(0.3)
	s, err := Load(nil, 0.2, 0.003, bound, logging.Nop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := 0; i < 30; i++ {
		s.AdjustFromOutcome(1.0)
	}
	if n := s.Norm(); n > bound+1e-4 {
		t.Fatalf("norm %v exceeds bound %v", n, bound)
	}
}

func TestDecayPullsTowardNeutral(t *testing.T) {
	s, err := Load(nil, 0.1, 0.05, 1.0, logging.Nop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.AdjustFromOutcome(1.0)
	before := s.Snapshot().Values[Assertiveness]

	base := time.Now()
	s.now = func() time.Time { return base.Add(time.Minute) }
	s.Decay()

	after := s.Snapshot().Values[Assertiveness]
	if !(after < before && after >= 0.5) {
		t.Fatalf("decay should move %v toward 0.5, got %v", before, after)
	}
}

func TestPersistenceAcrossReload(t *testing.T) {
	db := openTestDB(t)
	s, err := Load(db, 0.1, 0.003, 1.0, logging.Nop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.AdjustFromOutcome(1.0)
	want := s.Snapshot().Values

	s2, err := Load(db, 0.1, 0.003, 1.0, logging.Nop())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := s2.Snapshot().Values
	for i := range want {
		if math.Abs(float64(want[i]-got[i])) > 1e-6 {
			t.Fatalf("trait %s not persisted: want %v got %v", Traits[i], want[i], got[i])
		}
	}
}
