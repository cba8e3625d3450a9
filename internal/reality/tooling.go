package reality

// #region imports
import (
	"context"
	"strings"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/identity"
	"github.com/vyxenlabs/vyxen-runtime/internal/memory"
	"github.com/vyxenlabs/vyxen-runtime/internal/stimulus"
)

// #endregion

// #region tooling

// toolVerbs maps recognizable request verbs to the noun classes they operate
// on. A verb with no matching noun still yields a guidance reply so the
// requester learns the expected phrasing.
var toolVerbs = []string{
	"ban", "kick", "timeout", "quarantine", "purge",
	"create", "rename", "move", "lock", "assign",
	"delete", "slowmode", "undo", "status", "stats",
}

// Tooling turns directed administrative requests into tool_call candidates.
// The raw request text rides in the payload; the intent resolver owns the
// actual parse, permission check, and dry-run gate.
type Tooling struct {
	enabled bool
}

// NewTooling creates the tooling reality. When disabled it never proposes.
func NewTooling(enabled bool) *Tooling {
	return &Tooling{enabled: enabled}
}

// Tag implements Evaluator.
func (r *Tooling) Tag() Tag {
	return TagTooling
}

// Evaluate implements Evaluator.
func (r *Tooling) Evaluate(ctx context.Context, stim stimulus.Stimulus, id identity.Snapshot, mem memory.Snapshot) ([]Candidate, error) {
	if !r.enabled {
		return nil, nil
	}
	if stim.Type != stimulus.TypeMessage || !stim.Directed() {
		return nil, nil
	}

	verb := requestVerb(stim.Content)
	if verb == "" {
		return nil, nil
	}

	if !stim.AuthorWhitelisted && !stim.HasPermission(stimulus.PermAdministrator) &&
		!stim.HasPermission(stimulus.PermModerateMembers) {
		denial := action.Denial(stim.ID, stim.ChannelID, "that request needs moderator permissions")
		return []Candidate{{
			Reality:       TagTooling,
			Score:         0.5,
			Intent:        denial,
			Justification: "tool request from unauthorized author",
		}}, nil
	}

	intent := action.NewIntent(stim.ID, action.TypeToolCall, stim.ChannelID, map[string]any{
		"request":  stim.Content,
		"author":   stim.AuthorID,
		"guild":    stim.GuildID,
		"channel":  stim.ChannelID,
		"live_run": stim.LiveRunRequested,
	})
	intent.Risk = 0.5

	// Caution tempers how eagerly tool work is taken on.
	score := clamp(0.7 - 0.2*(id.Trait(identity.Caution)-0.5))

	return []Candidate{{
		Reality:       TagTooling,
		Score:         score,
		Intent:        intent,
		Justification: "administrative request detected (verb: " + verb + ")",
	}}, nil
}

// requestVerb returns the first recognized verb in the message, or "".
func requestVerb(content string) string {
	lowered := strings.ToLower(content)
	for _, word := range strings.Fields(lowered) {
		word = strings.Trim(word, ".,!?:")
		for _, verb := range toolVerbs {
			if word == verb {
				return verb
			}
		}
	}
	return ""
}

// #endregion tooling
