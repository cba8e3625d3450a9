package reality

// #region imports
import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/identity"
	"github.com/vyxenlabs/vyxen-runtime/internal/memory"
	"github.com/vyxenlabs/vyxen-runtime/internal/scoring"
	"github.com/vyxenlabs/vyxen-runtime/internal/stimulus"
	"github.com/vyxenlabs/vyxen-runtime/internal/watchdog"
)

// #endregion

// #region helpers

type stubScorer struct {
	result scoring.Result
	err    error
	calls  int
}

func (s *stubScorer) Score(ctx context.Context, req scoring.Request) (scoring.Result, error) {
	s.calls++
	if s.err != nil {
		return scoring.Result{}, s.err
	}
	return s.result, nil
}

func neutralIdentity() identity.Snapshot {
	var v identity.Vector
	for i := range v {
		v[i] = 0.5
	}
	return identity.Snapshot{Values: v}
}

func directedMessage(content string) stimulus.Stimulus {
	stim := stimulus.New(stimulus.TypeMessage, "test", 0.8)
	stim.Content = content
	stim.ChannelID = "chan-1"
	stim.AuthorID = "user-1"
	stim.Routing = stimulus.RoutingDirected
	return stim
}

func emptyMemory() memory.Snapshot {
	store := memory.NewEphemeral(10, nil)
	return store.Snapshot()
}

// #endregion helpers

// #region social-tests

func TestSocialUsesScorerReply(t *testing.T) {
	scorer := &stubScorer{result: scoring.Result{Score: 0.8, Reply: "hello there", Risk: 0.1}}
	r := NewSocial(scorer, nil)

	cands, err := r.Evaluate(context.Background(), directedMessage("hi vyxen"), neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected one candidate, got %d", len(cands))
	}
	c := cands[0]
	if c.Intent.Type != action.TypeReply {
		t.Fatalf("expected reply intent, got %s", c.Intent.Type)
	}
	if got := c.Intent.Payload["content"]; got != "hello there" {
		t.Fatalf("expected scorer reply, got %v", got)
	}
	if c.Score < 0.71 || c.Score > 0.73 {
		t.Fatalf("expected risk-discounted score near 0.72, got %.3f", c.Score)
	}
}

func TestSocialFallsBackOnScorerFailure(t *testing.T) {
	scorer := &stubScorer{err: errors.New("service down")}
	r := NewSocial(scorer, nil)

	cands, err := r.Evaluate(context.Background(), directedMessage("what is the plan?"), neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected fallback candidate, got %d", len(cands))
	}
	content, _ := cands[0].Intent.Payload["content"].(string)
	if content == "" {
		t.Fatal("expected fallback reply content")
	}
}

func TestSocialSkipsScorerWhenBreakerOpen(t *testing.T) {
	scorer := &stubScorer{result: scoring.Result{Score: 0.9, Reply: "ok"}}
	breaker := watchdog.NewBreaker("scoring_social", 1, time.Minute, time.Hour)
	breaker.RecordFailure("boom")
	r := NewSocial(scorer, breaker)

	cands, err := r.Evaluate(context.Background(), directedMessage("hello"), neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if scorer.calls != 0 {
		t.Fatalf("expected scorer untouched behind open breaker, got %d calls", scorer.calls)
	}
	if len(cands) != 1 {
		t.Fatalf("expected fallback candidate, got %d", len(cands))
	}
}

func TestSocialIgnoresAmbientTraffic(t *testing.T) {
	r := NewSocial(nil, nil)
	stim := stimulus.New(stimulus.TypeMessage, "test", 0.3)
	stim.Content = "just chatting"

	cands, err := r.Evaluate(context.Background(), stim, neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 0 {
		t.Fatalf("expected no candidates for ambient traffic, got %d", len(cands))
	}
}

// #endregion social-tests

// #region moderation-tests

func TestModerationFlagsToxicContent(t *testing.T) {
	r := NewModeration(false)
	stim := directedMessage("I will attack you")

	cands, err := r.Evaluate(context.Background(), stim, neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected one candidate, got %d", len(cands))
	}
	c := cands[0]
	if !c.SafetyTagged {
		t.Fatal("expected safety tag")
	}
	if c.Intent.Type != action.TypeToolCall {
		t.Fatalf("expected containment tool call, got %s", c.Intent.Type)
	}
	if c.Intent.Payload["command"] != "timeout_member" {
		t.Fatalf("expected timeout_member, got %v", c.Intent.Payload["command"])
	}
}

func TestModerationDryRunDemotesToObserve(t *testing.T) {
	r := NewModeration(true)
	stim := directedMessage("kill it with fire")

	cands, err := r.Evaluate(context.Background(), stim, neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected one candidate, got %d", len(cands))
	}
	c := cands[0]
	if c.Intent.Type != action.TypeObserve {
		t.Fatalf("expected observe under dry run, got %s", c.Intent.Type)
	}
	if !c.SafetyTagged {
		t.Fatal("demotion must keep the safety tag")
	}
}

func TestModerationPassesCleanContent(t *testing.T) {
	r := NewModeration(false)
	cands, err := r.Evaluate(context.Background(), directedMessage("lovely weather today"), neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 0 {
		t.Fatalf("expected no candidates, got %d", len(cands))
	}
}

// #endregion moderation-tests

// #region strategy-tests

func TestStrategyObservesSilence(t *testing.T) {
	r := NewStrategy()
	stim := stimulus.New(stimulus.TypeSilence, "loop", 0.2)
	stim.Routing = stimulus.RoutingSystem

	cands, err := r.Evaluate(context.Background(), stim, neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected one candidate, got %d", len(cands))
	}
	if cands[0].Intent.Type != action.TypeObserve {
		t.Fatalf("expected observe, got %s", cands[0].Intent.Type)
	}
}

func TestStrategyGreetsMemberJoin(t *testing.T) {
	r := NewStrategy()
	stim := stimulus.New(stimulus.TypeMemberJoin, "test", 0.5)
	stim.ChannelID = "welcome"

	cands, err := r.Evaluate(context.Background(), stim, neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 1 || cands[0].Intent.Type != action.TypeReply {
		t.Fatalf("expected greeting reply, got %+v", cands)
	}
}

// #endregion strategy-tests

// #region tooling-tests

func TestToolingProposesForAuthorizedRequest(t *testing.T) {
	r := NewTooling(true)
	stim := directedMessage("please ban @spammer for spam")
	stim.AuthorPermissions = []string{stimulus.PermModerateMembers}

	cands, err := r.Evaluate(context.Background(), stim, neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected one candidate, got %d", len(cands))
	}
	c := cands[0]
	if c.Intent.Type != action.TypeToolCall {
		t.Fatalf("expected tool call, got %s", c.Intent.Type)
	}
	request, _ := c.Intent.Payload["request"].(string)
	if !strings.Contains(request, "ban @spammer") {
		t.Fatalf("expected raw request in payload, got %q", request)
	}
}

func TestToolingDeniesUnauthorizedAuthor(t *testing.T) {
	r := NewTooling(true)
	stim := directedMessage("ban @someone now")

	cands, err := r.Evaluate(context.Background(), stim, neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 1 || cands[0].Intent.Type != action.TypeDenial {
		t.Fatalf("expected denial, got %+v", cands)
	}
}

func TestToolingDisabled(t *testing.T) {
	r := NewTooling(false)
	stim := directedMessage("ban @someone")
	stim.AuthorWhitelisted = true

	cands, err := r.Evaluate(context.Background(), stim, neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 0 {
		t.Fatalf("expected no candidates when disabled, got %d", len(cands))
	}
}

func TestToolingIgnoresConversationalMessages(t *testing.T) {
	r := NewTooling(true)
	stim := directedMessage("how are you doing today")
	stim.AuthorWhitelisted = true

	cands, err := r.Evaluate(context.Background(), stim, neutralIdentity(), emptyMemory())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 0 {
		t.Fatalf("expected no candidates, got %d", len(cands))
	}
}

// #endregion tooling-tests
