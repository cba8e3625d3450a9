package main

// #region imports
import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/cognition"
	"github.com/vyxenlabs/vyxen-runtime/internal/stimulus"
)

// #endregion

// #region adapter

// consoleAdapter prints would-be platform actions to stdout. Tool calls are
// echoed, never performed, so console runs are always side effect free.
type consoleAdapter struct {
	log *zap.SugaredLogger
}

func newConsoleAdapter(log *zap.SugaredLogger) *consoleAdapter {
	return &consoleAdapter{log: log}
}

func (a *consoleAdapter) Execute(ctx context.Context, intent action.Intent) (action.ExecutionResult, error) {
	switch intent.Type {
	case action.TypeReply, action.TypeSendMessage:
		content, _ := intent.Payload["content"].(string)
		fmt.Printf("\n%s\n\n", content)
	case action.TypeToolCall:
		fmt.Printf("\n[tool] %v %v\n\n", intent.Payload["command"], intent.Payload["args"])
	case action.TypeDenial:
		fmt.Printf("\n[denied] %v\n\n", intent.Payload["reason"])
	default:
		a.log.Debugw("adapter noop", "type", intent.Type)
	}
	return action.ExecutionResult{
		ActionID:   intent.ID,
		Success:    true,
		ExecutedAt: time.Now().UTC(),
	}, nil
}

// #endregion adapter

// #region feed

// consoleFeed turns stdin lines into directed message stimuli. Lines from a
// configured admin user can request live runs with a leading "live:".
func consoleFeed(ctx context.Context, loop *cognition.Loop, adminUsers []string, log *zap.SugaredLogger) {
	fmt.Println("vyxen runtime console. Type a message (or 'quit' to exit):")
	author := "console-user"
	whitelisted := false
	for _, u := range adminUsers {
		if u == author {
			whitelisted = true
		}
	}
	if len(adminUsers) == 0 {
		whitelisted = true
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}

		liveRun := false
		if rest, ok := strings.CutPrefix(line, "live:"); ok {
			liveRun = true
			line = strings.TrimSpace(rest)
		}

		stim := stimulus.New(stimulus.TypeMessage, "console", stimulus.EstimateSalience(line, true))
		stim.Content = line
		stim.GuildID = "console"
		stim.ChannelID = "console"
		stim.AuthorID = author
		stim.Routing = stimulus.RoutingDirected
		stim.AuthorWhitelisted = whitelisted
		stim.LiveRunRequested = liveRun

		if !loop.Submit(stim) {
			log.Warnw("console stimulus dropped")
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// #endregion feed
