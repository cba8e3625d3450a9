package replay

// #region imports
import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/audit"
	"github.com/vyxenlabs/vyxen-runtime/internal/cognition"
	"github.com/vyxenlabs/vyxen-runtime/internal/config"
	"github.com/vyxenlabs/vyxen-runtime/internal/filter"
	"github.com/vyxenlabs/vyxen-runtime/internal/govern"
	"github.com/vyxenlabs/vyxen-runtime/internal/identity"
	"github.com/vyxenlabs/vyxen-runtime/internal/memory"
	"github.com/vyxenlabs/vyxen-runtime/internal/reality"
	"github.com/vyxenlabs/vyxen-runtime/internal/stimulus"
	"github.com/vyxenlabs/vyxen-runtime/internal/toolintent"
	"github.com/vyxenlabs/vyxen-runtime/internal/undo"
	"github.com/vyxenlabs/vyxen-runtime/internal/watchdog"
)

// #endregion

// #region types

// Result captures the terminal outcome of replaying one stimulus.
type Result struct {
	Label      string
	Outcome    string
	ActionType string
	Detail     string
	// Expected is empty when the fixture pinned no expectation for this
	// label; Matched is true in that case.
	Expected string
	Matched  bool
}

// Summary aggregates a replay run.
type Summary struct {
	Description string
	Total       int
	Matched     int
	Mismatched  int
	Committed   int
	Rejected    int
	Abstained   int
}

// #endregion types

// #region adapter

// nullAdapter accepts everything without side effects; replay runs are
// always offline.
type nullAdapter struct{}

func (nullAdapter) Execute(ctx context.Context, intent action.Intent) (action.ExecutionResult, error) {
	return action.ExecutionResult{ActionID: intent.ID, Success: true, ExecutedAt: time.Now()}, nil
}

// #endregion adapter

// #region run

// Run replays every fixture stimulus through a fresh in-memory pipeline and
// compares terminal outcomes against the fixture's expectations.
func Run(ctx context.Context, f *Fixture) ([]Result, Summary, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, Summary{}, fmt.Errorf("open replay db: %w", err)
	}
	db.SetMaxOpenConns(1)
	defer db.Close()

	journal, err := undo.NewJournal(db, 10*time.Minute, nil)
	if err != nil {
		return nil, Summary{}, err
	}
	auditor, err := audit.NewRecorder(db, nil)
	if err != nil {
		return nil, Summary{}, err
	}
	ident, err := identity.Load(nil, 0.02, 0.003, 1.0, nil)
	if err != nil {
		return nil, Summary{}, err
	}

	cfg := config.Default()
	cfg.ToolsEnabled = f.Config.ToolsEnabled
	cfg.ToolDryRunDefault = f.Config.ToolDryRun
	if f.Config.AbstainThreshold > 0 {
		cfg.AbstainThreshold = f.Config.AbstainThreshold
	}

	supervisor := watchdog.NewSupervisor(cfg.BreakerK, cfg.BreakerWindow, cfg.BreakerCooldown, f.Config.SafeMode, nil)

	loop := cognition.New(cognition.Deps{
		Config:  cfg,
		Filters: filter.NewChain(filter.DefaultConfig()),
		Evaluators: []reality.Evaluator{
			reality.NewSocial(nil, nil),
			reality.NewModeration(f.Config.ToolDryRun),
			reality.NewStrategy(),
			reality.NewTooling(f.Config.ToolsEnabled),
		},
		Governor: govern.New(govern.Config{
			AbstainThreshold: cfg.AbstainThreshold,
			Priority:         cfg.RealityPriority,
			SafetyPriority:   cfg.RealityPriority["safety"],
		}, nil),
		Resolver:   toolintent.NewResolver(f.Config.ToolDryRun, nil),
		Journal:    journal,
		Auditor:    auditor,
		Memory:     memory.NewEphemeral(cfg.MemoryCapacity, nil),
		Identity:   ident,
		Supervisor: supervisor,
		Adapter:    nullAdapter{},
		Limiter:    action.NewRateLimiter(1000, 1000),
	})

	expected := make(map[string]ExpectedResult, len(f.ExpectedResults))
	for _, e := range f.ExpectedResults {
		expected[e.Label] = e
	}

	results := make([]Result, 0, len(f.Stimuli))
	summary := Summary{Description: f.Description, Total: len(f.Stimuli)}

	for _, fs := range f.Stimuli {
		loop.Tick(ctx, buildStimulus(fs))
		loop.DrainActions(ctx)

		entries, err := auditor.Tail(1)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("audit tail after %s: %w", fs.Label, err)
		}
		res := Result{Label: fs.Label, Matched: true}
		if len(entries) > 0 {
			res.Outcome = entries[0].Outcome
			res.ActionType = entries[0].ActionType
			res.Detail = entries[0].Detail
		}

		if exp, ok := expected[fs.Label]; ok {
			res.Expected = exp.Outcome
			res.Matched = res.Outcome == exp.Outcome &&
				(exp.ActionType == "" || res.ActionType == exp.ActionType)
		}
		if res.Matched {
			summary.Matched++
		} else {
			summary.Mismatched++
		}
		switch res.Outcome {
		case audit.OutcomeCommitted, audit.OutcomeDryRun:
			summary.Committed++
		case audit.OutcomeRejected:
			summary.Rejected++
		case audit.OutcomeAbstained:
			summary.Abstained++
		}
		results = append(results, res)
	}
	return results, summary, nil
}

func buildStimulus(fs FixtureStimulus) stimulus.Stimulus {
	stimType := fs.Type
	if stimType == "" {
		stimType = stimulus.TypeMessage
	}
	salience := fs.Salience
	if salience == 0 {
		salience = stimulus.EstimateSalience(fs.Content, fs.Directed)
	}

	stim := stimulus.New(stimType, "replay", salience)
	stim.Content = fs.Content
	stim.AuthorID = fs.AuthorID
	stim.ChannelID = fs.ChannelID
	stim.GuildID = fs.GuildID
	stim.AuthorWhitelisted = fs.Whitelisted
	stim.AuthorPermissions = fs.Permissions
	stim.LiveRunRequested = fs.LiveRun
	if fs.Directed {
		stim.Routing = stimulus.RoutingDirected
	}
	return stim
}

// #endregion run
