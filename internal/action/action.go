package action

// #region imports
import (
	"context"
	"time"

	"github.com/google/uuid"
)

// #endregion

// #region action-type

// Type enumerates the action kinds the adapter can execute.
type Type string

const (
	TypeSendMessage Type = "send_message"
	TypeReply       Type = "reply"
	TypeReact       Type = "react"
	TypeDefer       Type = "defer"
	TypeObserve     Type = "observe"
	TypeToolCall    Type = "tool_call"
	TypeDenial      Type = "denial"
	TypeStatus      Type = "status"
)

// #endregion action-type

// #region intent

// Intent is a concrete action chosen for dispatch.
type Intent struct {
	ID         string
	StimulusID string
	Type       Type
	TargetID   string // channel, user, or role the action applies to
	Payload    map[string]any
	Reversible bool
	Risk       float32
	CreatedAt  time.Time
}

// NewIntent builds an intent with a fresh id.
func NewIntent(stimulusID string, t Type, targetID string, payload map[string]any) Intent {
	if payload == nil {
		payload = map[string]any{}
	}
	return Intent{
		ID:         uuid.New().String(),
		StimulusID: stimulusID,
		Type:       t,
		TargetID:   targetID,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
}

// Observe is the no-effect fallback intent.
func Observe(stimulusID, reason string) Intent {
	return NewIntent(stimulusID, TypeObserve, "", map[string]any{"reason": reason})
}

// Denial builds a user-visible rejection reply.
func Denial(stimulusID, channelID, reason string) Intent {
	return NewIntent(stimulusID, TypeDenial, channelID, map[string]any{"reason": reason})
}

// SideEffectFree reports whether executing the intent touches the platform.
func (i Intent) SideEffectFree() bool {
	return i.Type == TypeObserve
}

// #endregion intent

// #region result

// ExecutionResult is the adapter's verdict on a dispatched intent.
type ExecutionResult struct {
	ActionID   string
	Success    bool
	Detail     string
	ExecutedAt time.Time
}

// #endregion result

// #region adapter

// Adapter executes intents against the chat platform. The network client
// lives outside the core; the loop only sees this contract.
type Adapter interface {
	Execute(ctx context.Context, intent Intent) (ExecutionResult, error)
}

// #endregion adapter
