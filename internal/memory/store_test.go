package memory

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/vyxenlabs/vyxen-runtime/internal/logging"
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mem.db")
	s, err := NewStore(path, capacity, logging.Nop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t, 10)
	rec := Record{Key: "user:1:tone", Value: "casual", Provenance: "social", Relevance: 0.8}
	if err := s.Put(rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get("user:1:tone")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Value != "casual" || got.Provenance != "social" {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, err := s.Get("missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCapacityBoundHoldsAfterEveryInsert(t *testing.T) {
	s := newTestStore(t, 5)
	for i := 0; i < 20; i++ {
		rec := Record{
			Key:       fmt.Sprintf("k%02d", i),
			Value:     "v",
			Relevance: float32(i%7) / 7.0,
		}
		if err := s.Put(rec); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
		if s.Len() > 5 {
			t.Fatalf("capacity exceeded after insert %d: %d", i, s.Len())
		}
	}
}

func TestEvictionPicksLowestRelevanceThenOldest(t *testing.T) {
	s := newTestStore(t, 3)
	base := time.Now().UTC()

	s.Put(Record{Key: "a", Value: "1", Relevance: 0.9, CreatedAt: base})
	s.Put(Record{Key: "b", Value: "2", Relevance: 0.2, CreatedAt: base.Add(1 * time.Second)})
	s.Put(Record{Key: "c", Value: "3", Relevance: 0.2, CreatedAt: base.Add(2 * time.Second)})
	// Over capacity: "b" has lowest relevance tier and is oldest within it.
	s.Put(Record{Key: "d", Value: "4", Relevance: 0.5, CreatedAt: base.Add(3 * time.Second)})

	if _, err := s.Get("b"); err != ErrNotFound {
		t.Fatal("expected b to be evicted first")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, err := s.Get(key); err != nil {
			t.Fatalf("expected %s to survive: %v", key, err)
		}
	}
}

func TestInsertBelowAllRelevanceSelfEvicts(t *testing.T) {
	s := newTestStore(t, 100)
	base := time.Now().UTC()
	for i := 0; i < 100; i++ {
		s.Put(Record{
			Key:       fmt.Sprintf("k%03d", i),
			Value:     "v",
			Relevance: 0.5,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	s.Put(Record{Key: "loser", Value: "v", Relevance: 0.1, CreatedAt: base.Add(200 * time.Second)})

	if s.Len() != 100 {
		t.Fatalf("expected size to remain 100, got %d", s.Len())
	}
	if _, err := s.Get("loser"); err != ErrNotFound {
		t.Fatal("lowest-relevance newcomer should evict itself")
	}
	for i := 0; i < 100; i++ {
		if _, err := s.Get(fmt.Sprintf("k%03d", i)); err != nil {
			t.Fatalf("existing record k%03d should be untouched", i)
		}
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := newTestStore(t, 10)
	s.Put(Record{Key: "k", Value: "before", Relevance: 0.5})

	snap := s.Snapshot()
	s.Put(Record{Key: "k", Value: "after", Relevance: 0.5})
	s.Put(Record{Key: "k2", Value: "new", Relevance: 0.5})

	rec, ok := snap.Get("k")
	if !ok || rec.Value != "before" {
		t.Fatalf("snapshot should hold pre-mutation value, got %+v", rec)
	}
	if _, ok := snap.Get("k2"); ok {
		t.Fatal("snapshot should not see later inserts")
	}
}

func TestTTLExpiry(t *testing.T) {
	s := newTestStore(t, 10)
	now := time.Now().UTC()
	s.now = func() time.Time { return now }

	s.Put(Record{Key: "short", Value: "v", Relevance: 0.5, ExpiresAt: now.Add(time.Minute)})
	s.Put(Record{Key: "long", Value: "v", Relevance: 0.5})

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := s.Get("short"); err != ErrNotFound {
		t.Fatal("expired record should be invisible")
	}
	if removed := s.SweepExpired(); removed != 1 {
		t.Fatalf("expected 1 swept record, got %d", removed)
	}
	if _, err := s.Get("long"); err != nil {
		t.Fatalf("record without TTL must survive sweep: %v", err)
	}
}

func TestDurabilityAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mem.db")
	s, err := NewStore(path, 10, logging.Nop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	s.Put(Record{Key: "persisted", Value: "yes", Provenance: "test", Relevance: 0.7})
	s.Close()

	s2, err := NewStore(path, 10, logging.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	rec, err := s2.Get("persisted")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if rec.Value != "yes" || rec.Provenance != "test" {
		t.Fatalf("unexpected record after reopen: %+v", rec)
	}
}

func TestStorageFailureDegradesInsteadOfFailing(t *testing.T) {
	s := newTestStore(t, 10)

	var signaled error
	s.SetDegradeHandler(func(err error) { signaled = err })

	// Force write failures by closing the db out from under the store.
	s.db.Close()

	if err := s.Put(Record{Key: "k", Value: "v", Relevance: 0.5}); err != nil {
		t.Fatalf("put must not fail on storage loss: %v", err)
	}
	if !s.Degraded() {
		t.Fatal("store should be degraded after storage failure")
	}
	if signaled == nil {
		t.Fatal("degrade handler should receive the storage error")
	}
	if !errors.Is(signaled, ErrStorage) {
		t.Fatalf("degrade error should wrap ErrStorage, got %v", signaled)
	}

	// Map-only operation keeps working.
	if rec, err := s.Get("k"); err != nil || rec.Value != "v" {
		t.Fatalf("degraded store should still serve reads: %v %+v", err, rec)
	}
}
