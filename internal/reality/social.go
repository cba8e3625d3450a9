package reality

// #region imports
import (
	"context"
	"fmt"
	"strings"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/identity"
	"github.com/vyxenlabs/vyxen-runtime/internal/memory"
	"github.com/vyxenlabs/vyxen-runtime/internal/scoring"
	"github.com/vyxenlabs/vyxen-runtime/internal/stimulus"
	"github.com/vyxenlabs/vyxen-runtime/internal/watchdog"
)

// #endregion

// #region social

// Social proposes conversational replies for directed messages. When the
// scoring service is reachable it drives the reply and score; otherwise a
// heuristic fallback keeps the reality responsive.
type Social struct {
	scorer  scoring.Scorer
	breaker *watchdog.Breaker
}

// NewSocial creates the social reality. scorer may be nil (fallback only).
func NewSocial(scorer scoring.Scorer, breaker *watchdog.Breaker) *Social {
	return &Social{scorer: scorer, breaker: breaker}
}

// Tag implements Evaluator.
func (r *Social) Tag() Tag {
	return TagSocial
}

// Evaluate implements Evaluator.
func (r *Social) Evaluate(ctx context.Context, stim stimulus.Stimulus, id identity.Snapshot, mem memory.Snapshot) ([]Candidate, error) {
	if stim.Type != stimulus.TypeMessage || !stim.Directed() {
		return nil, nil
	}

	assertiveness := id.Trait(identity.Assertiveness)
	result, used, err := r.tryScore(ctx, stim, mem)
	if err != nil {
		return nil, err
	}

	var reply string
	var score float32
	if used {
		reply = result.Reply
		score = clamp(result.Score * (1 - result.Risk))
	} else {
		reply = fallbackReply(stim)
		score = 0.45
	}
	// Assertive identities speak up; timid ones hold back a little.
	score = clamp(score + 0.2*(assertiveness-0.5))
	if reply == "" {
		return nil, nil
	}

	intent := action.NewIntent(stim.ID, action.TypeReply, stim.ChannelID, map[string]any{
		"content":  reply,
		"reply_to": stim.ID,
	})
	intent.Risk = 0.1

	return []Candidate{{
		Reality:       TagSocial,
		Score:         score,
		Intent:        intent,
		Justification: "directed message warrants a conversational reply",
	}}, nil
}

// tryScore runs the breaker-guarded scoring call. A skipped or failed call is
// reported via the breaker, never as a tick failure.
func (r *Social) tryScore(ctx context.Context, stim stimulus.Stimulus, mem memory.Snapshot) (scoring.Result, bool, error) {
	if r.scorer == nil {
		return scoring.Result{}, false, nil
	}
	if r.breaker != nil {
		if err := r.breaker.Allow(); err != nil {
			return scoring.Result{}, false, nil
		}
	}

	related := mem.Search(stim.Content, 4)
	if len(related) == 0 {
		related = mem.TopRelevant(4)
	}
	lines := make([]string, 0, len(related))
	for _, rec := range related {
		lines = append(lines, fmt.Sprintf("known: %s = %s", rec.Key, rec.Value))
	}
	result, err := r.scorer.Score(ctx, scoring.Request{
		Prompt:  stim.Content,
		Context: lines,
	})
	if err != nil {
		if r.breaker != nil {
			r.breaker.RecordFailure(err.Error())
		}
		return scoring.Result{}, false, nil
	}
	if r.breaker != nil {
		r.breaker.RecordSuccess()
	}
	return result, true, nil
}

func fallbackReply(stim stimulus.Stimulus) string {
	content := strings.TrimSpace(stim.Content)
	if content == "" {
		return ""
	}
	if strings.HasSuffix(content, "?") {
		return "Good question. Give me a moment to look into that."
	}
	return "Noted. I'm listening."
}

// #endregion social
