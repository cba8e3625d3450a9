package stimulus

// #region imports
import (
	"time"

	"github.com/google/uuid"
)

// #endregion

// #region routing

// Routing classifies how a stimulus reached the runtime.
type Routing string

const (
	RoutingDirected Routing = "directed" // addressed to the runtime (mention or active session)
	RoutingAmbient  Routing = "ambient"  // observed traffic, no obligation to act
	RoutingSystem   Routing = "system"   // synthesized internally (silence, health)
)

// #endregion routing

// #region types

// Known stimulus types delivered by the adapter or synthesized by the loop.
const (
	TypeMessage     = "message"
	TypeAttachment  = "attachment"
	TypeMemberJoin  = "member_join"
	TypeMemberLeave = "member_leave"
	TypeSilence     = "silence"
	TypeSelfHealth  = "self_health"
)

// Permission flags carried on AuthorPermissions. Administrator implies all
// other flags.
const (
	PermAdministrator   = "administrator"
	PermModerateMembers = "moderate_members"
	PermManageChannels  = "manage_channels"
	PermManageRoles     = "manage_roles"
	PermManageMessages  = "manage_messages"
)

// #endregion types

// #region stimulus

// Stimulus is one inbound event requiring a decision. Immutable once built;
// the loop consumes and discards it after a single tick.
type Stimulus struct {
	ID        string
	Type      string
	Source    string
	GuildID   string
	ChannelID string
	AuthorID  string
	Content   string
	Salience  float32
	Routing   Routing
	Timestamp time.Time

	// MentionsBot marks messages that address the runtime explicitly.
	MentionsBot bool
	// AuthorPermissions holds the author's resolved permission flags.
	AuthorPermissions []string
	// AuthorWhitelisted bypasses permission lookup for configured operators.
	AuthorWhitelisted bool
	// IntentHints are optional adapter-supplied parse hints.
	IntentHints []string
	// LiveRunRequested is set when the author explicitly asked to skip dry-run.
	LiveRunRequested bool
}

// New builds a stimulus with a fresh id and clamped salience.
func New(stimType, source string, salience float32) Stimulus {
	return Stimulus{
		ID:        uuid.New().String(),
		Type:      stimType,
		Source:    source,
		Salience:  clamp(salience),
		Routing:   RoutingAmbient,
		Timestamp: time.Now().UTC(),
	}
}

// Directed reports whether the stimulus obliges a deliberate response.
func (s Stimulus) Directed() bool {
	return s.Routing == RoutingDirected || s.MentionsBot
}

// HasPermission reports whether the author carries the given permission flag.
func (s Stimulus) HasPermission(flag string) bool {
	if s.AuthorWhitelisted {
		return true
	}
	for _, p := range s.AuthorPermissions {
		if p == flag || p == PermAdministrator {
			return true
		}
	}
	return false
}

// #endregion stimulus

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
