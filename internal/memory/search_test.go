package memory

// #region imports
import (
	"testing"
)

// #endregion

// #region tests

func searchStore(t *testing.T) Snapshot {
	t.Helper()
	s := NewEphemeral(10, nil)
	records := []Record{
		{Key: "a", Value: "the server crashed during deployment", Relevance: 0.5},
		{Key: "b", Value: "deployment finished without errors", Relevance: 0.9},
		{Key: "c", Value: "lunch plans for friday", Relevance: 0.8},
	}
	for _, rec := range records {
		if err := s.Put(rec); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	return s.Snapshot()
}

func TestSearchRanksByKeywordOverlap(t *testing.T) {
	snap := searchStore(t)

	hits := snap.Search("what happened with the server deployment", 5)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	// Two shared keywords beat one.
	if hits[0].Key != "a" {
		t.Fatalf("expected record a first, got %s", hits[0].Key)
	}
	if hits[1].Key != "b" {
		t.Fatalf("expected record b second, got %s", hits[1].Key)
	}
}

func TestSearchBreaksTiesOnRelevance(t *testing.T) {
	snap := searchStore(t)

	hits := snap.Search("deployment status", 5)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Key != "b" {
		t.Fatalf("equal overlap should rank by relevance, got %s first", hits[0].Key)
	}
}

func TestSearchIgnoresStopwordQueries(t *testing.T) {
	snap := searchStore(t)
	if hits := snap.Search("the a of and", 5); hits != nil {
		t.Fatalf("expected nil for stopword-only query, got %d hits", len(hits))
	}
}

func TestSearchHonorsLimit(t *testing.T) {
	snap := searchStore(t)
	hits := snap.Search("server deployment errors lunch", 1)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}

// #endregion tests
