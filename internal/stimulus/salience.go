package stimulus

// #region imports
import (
	"strings"
	"unicode"
)

// #endregion

// #region salience

// urgencyTerms raise estimated salience when present.
var urgencyTerms = []string{"help", "urgent", "please", "now", "broken", "down", "error"}

// EstimateSalience scores how much attention a message deserves before any
// reality sees it. Heuristic only: lexical diversity as a substance proxy,
// plus bumps for questions, urgency terms, and direct address.
func EstimateSalience(content string, directed bool) float32 {
	fields := strings.Fields(strings.ToLower(content))
	if len(fields) == 0 {
		return 0
	}

	unique := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		unique[f] = struct{}{}
	}
	diversity := float32(len(unique)) / float32(len(fields))

	// Substance: very short messages score low regardless of diversity.
	substance := float32(len(fields)) / 12
	if substance > 1 {
		substance = 1
	}
	score := 0.25 + 0.35*diversity*substance

	if strings.Contains(content, "?") {
		score += 0.1
	}
	for _, term := range urgencyTerms {
		if containsWord(fields, term) {
			score += 0.1
			break
		}
	}
	if directed {
		score += 0.2
	}
	if shoutingRatio(content) > 0.6 {
		score += 0.05
	}
	return clamp(score)
}

func containsWord(fields []string, word string) bool {
	for _, f := range fields {
		if strings.Trim(f, ".,!?") == word {
			return true
		}
	}
	return false
}

// shoutingRatio reports the share of letters written in upper case.
func shoutingRatio(content string) float32 {
	letters, upper := 0, 0
	for _, r := range content {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return 0
	}
	return float32(upper) / float32(letters)
}

// #endregion salience
