package filter

// #region imports
import (
	"fmt"
	"strings"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/stimulus"
)

// #endregion

// #region rejection

// Rejection names the filter that refused and why. A nil rejection means the
// subject passed the whole chain.
type Rejection struct {
	Filter string
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("filter %s: %s", r.Filter, r.Reason)
}

// #endregion rejection

// #region config

// Config holds the chain's thresholds and pattern lists.
type Config struct {
	MaxContentLength int
	BlockedPatterns  []string
	AdminVerbs       []string
	MaxActionRisk    float32
}

// DefaultConfig returns the stock rule set.
func DefaultConfig() Config {
	return Config{
		MaxContentLength: 4000,
		BlockedPatterns:  []string{"@everyone", "@here", "discord.gg/"},
		AdminVerbs: []string{
			"ban", "kick", "timeout", "quarantine", "purge",
			"delete role", "delete channel", "lock",
		},
		MaxActionRisk: 0.95,
	}
}

// #endregion config

// #region chain

// Chain is the ordered set of stimulus and action validators. Checks run in a
// fixed order; the first refusal wins.
type Chain struct {
	config Config
}

// NewChain creates a chain with the given configuration.
func NewChain(config Config) *Chain {
	return &Chain{config: config}
}

// CheckStimulus runs the pre-decision validators. A rejected stimulus
// terminates its tick with no side effects beyond an audit record.
func (c *Chain) CheckStimulus(stim stimulus.Stimulus) *Rejection {
	if len(stim.Content) > c.config.MaxContentLength {
		return &Rejection{
			Filter: "content_length",
			Reason: fmt.Sprintf("content %d exceeds cap %d", len(stim.Content), c.config.MaxContentLength),
		}
	}

	lower := strings.ToLower(stim.Content)
	for _, pattern := range c.config.BlockedPatterns {
		if strings.Contains(lower, pattern) {
			return &Rejection{
				Filter: "blocked_pattern",
				Reason: fmt.Sprintf("content matches blocked pattern %q", pattern),
			}
		}
	}

	// Admin-style requests from unauthorized authors stop here rather than
	// burning an evaluation pass.
	if stim.Type == stimulus.TypeMessage && !authorizedForAdmin(stim) {
		for _, verb := range c.config.AdminVerbs {
			if strings.Contains(lower, verb) && mentionsTarget(lower) {
				return &Rejection{
					Filter: "admin_authorization",
					Reason: fmt.Sprintf("author %s lacks permission for %q", stim.AuthorID, verb),
				}
			}
		}
	}
	return nil
}

// CheckAction runs the post-decision validators against the chosen intent.
func (c *Chain) CheckAction(intent action.Intent) *Rejection {
	if intent.Risk > c.config.MaxActionRisk {
		return &Rejection{
			Filter: "risk_ceiling",
			Reason: fmt.Sprintf("risk %.2f exceeds ceiling %.2f", intent.Risk, c.config.MaxActionRisk),
		}
	}
	if content, ok := intent.Payload["content"].(string); ok {
		lower := strings.ToLower(content)
		for _, pattern := range c.config.BlockedPatterns {
			if strings.Contains(lower, pattern) {
				return &Rejection{
					Filter: "blocked_pattern",
					Reason: fmt.Sprintf("outgoing content matches blocked pattern %q", pattern),
				}
			}
		}
	}
	return nil
}

// #endregion chain

// #region helpers

func authorizedForAdmin(stim stimulus.Stimulus) bool {
	return stim.AuthorWhitelisted ||
		stim.HasPermission(stimulus.PermAdministrator) ||
		stim.HasPermission(stimulus.PermModerateMembers)
}

// mentionsTarget guards against false positives on conversational uses of
// admin verbs ("they banned me once").
func mentionsTarget(lower string) bool {
	return strings.Contains(lower, "@") || strings.Contains(lower, "#")
}

// #endregion helpers
