package govern

// #region imports
import (
	"sort"

	"go.uber.org/zap"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/reality"
	"github.com/vyxenlabs/vyxen-runtime/internal/stimulus"
)

// #endregion

// #region config

// Config tunes arbitration. Priority maps reality tags to tie-break rank;
// higher wins. Safety-tagged candidates arbitrate at SafetyPriority
// regardless of their origin reality.
type Config struct {
	AbstainThreshold float32
	Priority         map[string]int
	SafetyPriority   int
}

// DefaultConfig returns the standing arbitration order.
func DefaultConfig() Config {
	return Config{
		AbstainThreshold: 0.35,
		Priority: map[string]int{
			string(reality.TagModeration): 5,
			string(reality.TagSocial):     3,
			string(reality.TagStrategy):   2,
			string(reality.TagTooling):    1,
		},
		SafetyPriority: 4,
	}
}

// #endregion config

// #region decision

// Decision is the arbitration outcome for one tick.
type Decision struct {
	Winner     reality.Candidate
	Confidence float32
	Abstained  bool
	// Considered is the total candidate count across all realities.
	Considered int
}

// #endregion decision

// #region governor

// Governor arbitrates between reality candidates. Arbitration is
// deterministic: identical candidate sets always produce the same decision.
type Governor struct {
	cfg Config
	log *zap.SugaredLogger
}

// New creates a governor. A zero AbstainThreshold falls back to the default.
func New(cfg Config, log *zap.SugaredLogger) *Governor {
	if cfg.AbstainThreshold <= 0 {
		cfg.AbstainThreshold = DefaultConfig().AbstainThreshold
	}
	if cfg.Priority == nil {
		cfg.Priority = DefaultConfig().Priority
	}
	if cfg.SafetyPriority == 0 {
		cfg.SafetyPriority = DefaultConfig().SafetyPriority
	}
	return &Governor{cfg: cfg, log: log}
}

// Arbitrate picks the single winning candidate. With no candidates, or with
// no candidate at or above the abstain threshold, the decision is an
// abstention carrying an observe intent.
func (g *Governor) Arbitrate(stim stimulus.Stimulus, candidates []reality.Candidate) Decision {
	if len(candidates) == 0 {
		return g.abstain(stim, 0, "no candidates proposed")
	}

	ordered := make([]reality.Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		pi, pj := g.effectivePriority(ordered[i]), g.effectivePriority(ordered[j])
		if pi != pj {
			return pi > pj
		}
		// Final stable tie-break on reality tag so ordering never depends
		// on evaluator completion order.
		return ordered[i].Reality < ordered[j].Reality
	})

	winner := ordered[0]
	if winner.Score < g.cfg.AbstainThreshold {
		return g.abstain(stim, len(candidates), "all candidates below threshold")
	}

	confidence := winner.Score
	if len(ordered) > 1 {
		confidence = clamp(winner.Score - ordered[1].Score)
	}

	if g.log != nil {
		g.log.Debugw("arbitration",
			"stimulus", stim.ID,
			"winner", winner.Reality,
			"score", winner.Score,
			"confidence", confidence,
			"considered", len(candidates),
		)
	}
	return Decision{
		Winner:     winner,
		Confidence: confidence,
		Considered: len(candidates),
	}
}

func (g *Governor) effectivePriority(c reality.Candidate) int {
	if c.SafetyTagged {
		if p := g.cfg.Priority[string(c.Reality)]; p > g.cfg.SafetyPriority {
			return p
		}
		return g.cfg.SafetyPriority
	}
	return g.cfg.Priority[string(c.Reality)]
}

func (g *Governor) abstain(stim stimulus.Stimulus, considered int, reason string) Decision {
	return Decision{
		Winner: reality.Candidate{
			Intent:        action.Observe(stim.ID, reason),
			Justification: reason,
		},
		Abstained:  true,
		Considered: considered,
	}
}

// #endregion governor

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
