package reality

// #region imports
import (
	"context"
	"fmt"
	"strings"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/identity"
	"github.com/vyxenlabs/vyxen-runtime/internal/memory"
	"github.com/vyxenlabs/vyxen-runtime/internal/stimulus"
)

// #endregion

// #region moderation

// toxicityTerms drive the keyword heuristic. A hit produces a safety-tagged
// candidate regardless of routing.
var toxicityTerms = []string{"hate", "kill", "attack", "bomb", "racist", "slur", "kys"}

// Moderation watches every message for toxicity and proposes containment.
// When the runtime is in dry-run posture the candidate is demoted to an
// observe record instead of a timeout.
type Moderation struct {
	dryRun bool
}

// NewModeration creates the moderation reality. dryRun demotes containment
// actions to observations.
func NewModeration(dryRun bool) *Moderation {
	return &Moderation{dryRun: dryRun}
}

// Tag implements Evaluator.
func (r *Moderation) Tag() Tag {
	return TagModeration
}

// Evaluate implements Evaluator.
func (r *Moderation) Evaluate(ctx context.Context, stim stimulus.Stimulus, id identity.Snapshot, mem memory.Snapshot) ([]Candidate, error) {
	if stim.Type != stimulus.TypeMessage {
		return nil, nil
	}

	hits := toxicityHits(stim.Content)
	if len(hits) == 0 {
		return nil, nil
	}

	// More hits, higher severity. Caution lifts the score further.
	severity := clamp(0.6 + 0.1*float32(len(hits)))
	severity = clamp(severity + 0.15*(id.Trait(identity.Caution)-0.5))
	justification := fmt.Sprintf("toxicity terms detected: %s", strings.Join(hits, ", "))

	if r.dryRun {
		obs := action.Observe(stim.ID, justification)
		return []Candidate{{
			Reality:       TagModeration,
			Score:         severity,
			Intent:        obs,
			SafetyTagged:  true,
			Justification: justification + " (containment demoted; dry run)",
		}}, nil
	}

	intent := action.NewIntent(stim.ID, action.TypeToolCall, stim.AuthorID, map[string]any{
		"command":  "timeout_member",
		"member":   stim.AuthorID,
		"duration": "10m",
		"reason":   justification,
	})
	intent.Risk = 0.6
	intent.Reversible = true

	return []Candidate{{
		Reality:       TagModeration,
		Score:         severity,
		Intent:        intent,
		SafetyTagged:  true,
		Justification: justification,
	}}, nil
}

func toxicityHits(content string) []string {
	lowered := strings.ToLower(content)
	var hits []string
	for _, term := range toxicityTerms {
		if strings.Contains(lowered, term) {
			hits = append(hits, term)
		}
	}
	return hits
}

// #endregion moderation
