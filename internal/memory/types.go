package memory

// #region imports
import (
	"sort"
	"time"
)

// #endregion

// #region record

// Record is one derived fact. Higher relevance survives eviction longer;
// ExpiresAt zero means no TTL.
type Record struct {
	Key        string
	Value      string
	Provenance string
	Relevance  float32
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// #endregion record

// #region snapshot

// Snapshot is a point-in-time read view handed to reality evaluators. It is
// detached from the store; mutations after the snapshot are invisible.
type Snapshot struct {
	records map[string]Record
}

// Get returns the record for key within the snapshot.
func (s Snapshot) Get(key string) (Record, bool) {
	rec, ok := s.records[key]
	return rec, ok
}

// Len reports the number of records in the snapshot.
func (s Snapshot) Len() int {
	return len(s.records)
}

// Keys returns the snapshot keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TopRelevant returns up to n records ordered by relevance descending, newest
// first on ties.
func (s Snapshot) TopRelevant(n int) []Record {
	recs := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Relevance != recs[j].Relevance {
			return recs[i].Relevance > recs[j].Relevance
		}
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].Key < recs[j].Key
	})
	if len(recs) > n {
		recs = recs[:n]
	}
	return recs
}

// #endregion snapshot
