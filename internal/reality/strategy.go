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

// #region strategy

// Strategy is the long-horizon reality. It mostly proposes observation:
// staying quiet during lulls, noting ambient traffic, and backing off when
// many recent records carry low relevance. Its scores sit low so social and
// moderation candidates win whenever they fire.
type Strategy struct{}

// NewStrategy creates the strategy reality.
func NewStrategy() *Strategy {
	return &Strategy{}
}

// Tag implements Evaluator.
func (r *Strategy) Tag() Tag {
	return TagStrategy
}

// Evaluate implements Evaluator.
func (r *Strategy) Evaluate(ctx context.Context, stim stimulus.Stimulus, id identity.Snapshot, mem memory.Snapshot) ([]Candidate, error) {
	patience := id.Trait(identity.Patience)

	switch stim.Type {
	case stimulus.TypeSilence:
		// A quiet channel is a chance to consolidate, not to speak.
		return []Candidate{{
			Reality:       TagStrategy,
			Score:         clamp(0.3 + 0.2*patience),
			Intent:        action.Observe(stim.ID, "channel quiet; holding posture"),
			Justification: "silence gap; observation preferred",
		}}, nil

	case stimulus.TypeMessage:
		if stim.Directed() {
			// Let social carry directed traffic; offer a weak observe floor.
			return []Candidate{{
				Reality:       TagStrategy,
				Score:         0.2,
				Intent:        action.Observe(stim.ID, "directed message; deferring to conversational handling"),
				Justification: "directed traffic observed",
			}}, nil
		}
		return []Candidate{{
			Reality:       TagStrategy,
			Score:         clamp(0.25 + 0.1*patience),
			Intent:        action.Observe(stim.ID, "ambient message noted"),
			Justification: "ambient traffic observed",
		}}, nil

	case stimulus.TypeMemberJoin:
		intent := action.NewIntent(stim.ID, action.TypeReply, stim.ChannelID, map[string]any{
			"content": "Welcome aboard.",
		})
		intent.Risk = 0.05
		return []Candidate{{
			Reality:       TagStrategy,
			Score:         clamp(0.4 + 0.1*(id.Trait(identity.Playfulness)-0.5)),
			Intent:        intent,
			Justification: "greet new member",
		}}, nil

	default:
		return nil, nil
	}
}

// #endregion strategy
