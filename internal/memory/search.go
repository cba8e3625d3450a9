package memory

// #region imports
import (
	"sort"
	"strings"
	"unicode"
)

// #endregion

// #region stopwords

// stopwords are excluded from keyword matching.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"being": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "not": true,
	"no": true, "and": true, "or": true, "but": true, "if": true,
	"then": true, "than": true, "so": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "into": true,
	"of": true, "on": true, "to": true, "with": true, "about": true,
	"up": true, "out": true, "it": true, "its": true, "this": true,
	"that": true, "what": true, "which": true, "who": true, "how": true,
	"when": true, "where": true, "why": true, "you": true, "me": true,
	"i": true, "my": true, "your": true, "we": true, "they": true,
	"he": true, "she": true, "her": true, "him": true, "us": true,
	"them": true, "tell": true,
}

// tokenize splits text into unique lowercase non-stopword tokens.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range words {
		if len(w) < 2 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

// #endregion stopwords

// #region search

// Search ranks records by keyword overlap with the query, breaking ties on
// relevance then key. Records sharing no keywords are excluded. Empty or
// all-stopword queries return nil.
func (s Snapshot) Search(query string, n int) []Record {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}
	querySet := make(map[string]bool, len(queryTokens))
	for _, t := range queryTokens {
		querySet[t] = true
	}

	type scored struct {
		rec     Record
		overlap int
	}
	var hits []scored
	for _, rec := range s.records {
		overlap := 0
		for _, t := range tokenize(rec.Value) {
			if querySet[t] {
				overlap++
			}
		}
		if overlap > 0 {
			hits = append(hits, scored{rec: rec, overlap: overlap})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].overlap != hits[j].overlap {
			return hits[i].overlap > hits[j].overlap
		}
		if hits[i].rec.Relevance != hits[j].rec.Relevance {
			return hits[i].rec.Relevance > hits[j].rec.Relevance
		}
		return hits[i].rec.Key < hits[j].rec.Key
	})

	if n > len(hits) {
		n = len(hits)
	}
	out := make([]Record, n)
	for i := 0; i < n; i++ {
		out[i] = hits[i].rec
	}
	return out
}

// #endregion search
