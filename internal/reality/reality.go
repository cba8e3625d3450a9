package reality

// #region imports
import (
	"context"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/identity"
	"github.com/vyxenlabs/vyxen-runtime/internal/memory"
	"github.com/vyxenlabs/vyxen-runtime/internal/stimulus"
)

// #endregion

// #region tag

// Tag identifies one behavioral perspective.
type Tag string

const (
	TagSocial     Tag = "social"
	TagModeration Tag = "moderation"
	TagStrategy   Tag = "strategy"
	TagTooling    Tag = "tooling"
)

// #endregion tag

// #region candidate

// Candidate is one proposed action with its score. Ephemeral: produced per
// reality per stimulus and discarded after the governor decides.
type Candidate struct {
	Reality       Tag
	Score         float32
	Intent        action.Intent
	SafetyTagged  bool
	Justification string
}

// #endregion candidate

// #region evaluator

// Evaluator is the single capability all realities implement. The ctx carries
// the per-evaluator deadline; an evaluator that overruns is cancelled and
// contributes zero candidates. Evaluators read only the snapshots, never the
// live stores.
type Evaluator interface {
	Tag() Tag
	Evaluate(ctx context.Context, stim stimulus.Stimulus, id identity.Snapshot, mem memory.Snapshot) ([]Candidate, error)
}

// #endregion evaluator

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
