package toolintent

// #region imports
import (
	"go.uber.org/zap"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/stimulus"
)

// #endregion

// #region resolution

// Resolution is a fully vetted tool operation, ready for the undo journal
// and dispatch.
type Resolution struct {
	Command Command
	Args    map[string]any
	DryRun  bool
	// Inverse names the rollback operation; zero when the command is
	// irreversible.
	Inverse InverseSpec
}

// InverseSpec is the journalled rollback recipe.
type InverseSpec struct {
	Command string         `json:"command"`
	Args    map[string]any `json:"args"`
}

// Empty reports whether no inverse exists.
func (s InverseSpec) Empty() bool {
	return s.Command == ""
}

// #endregion resolution

// #region resolver

// Resolver turns tool_call intents into resolutions. Every resolution starts
// dry-run unless the author explicitly asked for a live run and is authorized
// to get one.
type Resolver struct {
	dryRunDefault bool
	log           *zap.SugaredLogger
}

// NewResolver creates a resolver with the given dry-run posture.
func NewResolver(dryRunDefault bool, log *zap.SugaredLogger) *Resolver {
	return &Resolver{dryRunDefault: dryRunDefault, log: log}
}

// Resolve vets one tool_call intent against the stimulus that produced it.
// Returns *ValidationError when the request matches no command or carries an
// unauthorized live-run override, and *PermissionError when the author lacks
// the command's required flag.
func (r *Resolver) Resolve(stim stimulus.Stimulus, intent action.Intent) (Resolution, error) {
	cmd, args, structured, err := r.match(intent)
	if err != nil {
		return Resolution{}, err
	}

	// Pre-structured intents originate inside the runtime (moderation
	// containment), not from the author; their permission check does not
	// apply to the stimulus author.
	if !structured && cmd.RequiredPerm != "" && !stim.HasPermission(cmd.RequiredPerm) {
		return Resolution{}, &PermissionError{
			Command:  cmd.Name,
			Required: cmd.RequiredPerm,
			AuthorID: stim.AuthorID,
		}
	}

	res := Resolution{
		Command: cmd,
		Args:    args,
		DryRun:  r.dryRunDefault,
	}
	// An override attempt from an unauthorized author is rejected outright,
	// not silently demoted.
	if stim.LiveRunRequested {
		if !liveRunAuthorized(stim) {
			return Resolution{}, &ValidationError{
				Request: cmd.Name,
				Reason:  "live run requires whitelist or administrator",
				err:     ErrLiveRunDenied,
			}
		}
		res.DryRun = false
	}
	if cmd.Reversible && cmd.inverse != nil {
		name, invArgs := cmd.inverse(args)
		res.Inverse = InverseSpec{Command: name, Args: invArgs}
	}

	if r.log != nil {
		r.log.Infow("tool intent resolved",
			"command", cmd.Name,
			"dry_run", res.DryRun,
			"reversible", cmd.Reversible,
			"author", stim.AuthorID,
		)
	}
	return res, nil
}

// match finds the command for an intent. Pre-structured intents (payload
// carries a command name) skip the text parse.
func (r *Resolver) match(intent action.Intent) (Command, map[string]any, bool, error) {
	if name, ok := intent.Payload["command"].(string); ok && name != "" {
		cmd, found := Lookup(name)
		if !found {
			return Command{}, nil, false, &ValidationError{Request: name, Reason: "unknown command"}
		}
		args := make(map[string]any, len(intent.Payload))
		for k, v := range intent.Payload {
			if k != "command" {
				args[k] = v
			}
		}
		return cmd, args, true, nil
	}

	request, _ := intent.Payload["request"].(string)
	if request == "" {
		return Command{}, nil, false, &ValidationError{Request: "", Reason: "empty request"}
	}
	for _, cmd := range commands {
		m := cmd.pattern.FindStringSubmatch(request)
		if m == nil {
			continue
		}
		args := make(map[string]any, len(cmd.groups))
		for i, name := range cmd.groups {
			if i+1 < len(m) && m[i+1] != "" {
				args[name] = m[i+1]
			}
		}
		return cmd, args, false, nil
	}
	return Command{}, nil, false, &ValidationError{Request: request, Reason: "no command matched"}
}

// liveRunAuthorized restricts the dry-run override to operators.
func liveRunAuthorized(stim stimulus.Stimulus) bool {
	return stim.AuthorWhitelisted || stim.HasPermission(stimulus.PermAdministrator)
}

// #endregion resolver
