package toolintent

// #region imports
import (
	"errors"
	"testing"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/stimulus"
)

// #endregion

// #region helpers

func requestStimulus(perms ...string) stimulus.Stimulus {
	stim := stimulus.New(stimulus.TypeMessage, "test", 0.8)
	stim.Routing = stimulus.RoutingDirected
	stim.AuthorID = "user-1"
	stim.AuthorPermissions = perms
	return stim
}

func toolIntent(request string) action.Intent {
	return action.NewIntent("stim-1", action.TypeToolCall, "chan-1", map[string]any{
		"request": request,
	})
}

// #endregion helpers

// #region parse-tests

func TestResolveBanRequest(t *testing.T) {
	r := NewResolver(true, nil)
	stim := requestStimulus(stimulus.PermAdministrator)

	res, err := r.Resolve(stim, toolIntent("please ban @spammer for raiding"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Command.Name != CmdBanMember {
		t.Fatalf("expected ban_member, got %s", res.Command.Name)
	}
	if res.Args["member"] != "spammer" {
		t.Fatalf("expected member=spammer, got %v", res.Args["member"])
	}
	if !res.DryRun {
		t.Fatal("expected dry run by default")
	}
	if res.Inverse.Command != "unban_member" {
		t.Fatalf("expected unban inverse, got %q", res.Inverse.Command)
	}
}

func TestResolveTimeoutWithDuration(t *testing.T) {
	r := NewResolver(true, nil)
	res, err := r.Resolve(requestStimulus(stimulus.PermModerateMembers), toolIntent("timeout @loud for 10m"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Command.Name != CmdTimeout {
		t.Fatalf("expected timeout_member, got %s", res.Command.Name)
	}
	if res.Args["member"] != "loud" || res.Args["duration"] != "10m" {
		t.Fatalf("unexpected args: %v", res.Args)
	}
}

func TestResolveRenameChannelInverseSwapsNames(t *testing.T) {
	r := NewResolver(true, nil)
	res, err := r.Resolve(requestStimulus(stimulus.PermManageChannels), toolIntent("rename #general to #lobby"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Command.Name != CmdRenameChan {
		t.Fatalf("expected rename_channel, got %s", res.Command.Name)
	}
	if res.Inverse.Args["channel"] != "lobby" || res.Inverse.Args["name"] != "general" {
		t.Fatalf("inverse must swap names, got %v", res.Inverse.Args)
	}
}

func TestResolvePurgeIsIrreversible(t *testing.T) {
	r := NewResolver(true, nil)
	res, err := r.Resolve(requestStimulus(stimulus.PermManageMessages), toolIntent("purge 50"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Command.Reversible || !res.Inverse.Empty() {
		t.Fatal("purge must not carry an inverse")
	}
}

func TestUnparseableRequestIsValidationError(t *testing.T) {
	r := NewResolver(true, nil)
	_, err := r.Resolve(requestStimulus(stimulus.PermAdministrator), toolIntent("do something vague"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// #endregion parse-tests

// #region permission-tests

func TestResolveRejectsMissingPermission(t *testing.T) {
	r := NewResolver(true, nil)
	_, err := r.Resolve(requestStimulus(), toolIntent("ban @spammer"))
	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	if perr.Command != CmdBanMember {
		t.Fatalf("expected ban_member in error, got %s", perr.Command)
	}
}

func TestWhitelistBypassesPermissionCheck(t *testing.T) {
	r := NewResolver(true, nil)
	stim := requestStimulus()
	stim.AuthorWhitelisted = true

	if _, err := r.Resolve(stim, toolIntent("ban @spammer")); err != nil {
		t.Fatalf("whitelisted author should resolve: %v", err)
	}
}

// #endregion permission-tests

// #region dryrun-tests

func TestLiveRunRequiresAuthorization(t *testing.T) {
	r := NewResolver(true, nil)

	// An unauthorized override is rejected, not demoted back to dry run.
	stim := requestStimulus(stimulus.PermModerateMembers)
	stim.LiveRunRequested = true
	_, err := r.Resolve(stim, toolIntent("timeout @loud"))
	if !errors.Is(err, ErrLiveRunDenied) {
		t.Fatalf("expected ErrLiveRunDenied, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}

	stim.AuthorWhitelisted = true
	res, err := r.Resolve(stim, toolIntent("timeout @loud"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.DryRun {
		t.Fatal("whitelisted author with live-run request should skip dry run")
	}
}

func TestLiveRunDefaultResolver(t *testing.T) {
	r := NewResolver(false, nil)
	res, err := r.Resolve(requestStimulus(stimulus.PermModerateMembers), toolIntent("timeout @loud"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.DryRun {
		t.Fatal("dry run should be off when the default posture is live")
	}
}

// #endregion dryrun-tests

// #region structured-tests

func TestResolvePreStructuredIntent(t *testing.T) {
	r := NewResolver(true, nil)
	intent := action.NewIntent("stim-1", action.TypeToolCall, "user-2", map[string]any{
		"command":  CmdTimeout,
		"member":   "user-2",
		"duration": "10m",
	})

	// No author permissions: structured intents are system-initiated and
	// skip the author check.
	res, err := r.Resolve(requestStimulus(), intent)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Command.Name != CmdTimeout {
		t.Fatalf("expected timeout_member, got %s", res.Command.Name)
	}
	if res.Args["member"] != "user-2" {
		t.Fatalf("expected structured args passthrough, got %v", res.Args)
	}
}

// #endregion structured-tests
