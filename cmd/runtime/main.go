package main

// #region imports
import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/audit"
	"github.com/vyxenlabs/vyxen-runtime/internal/cognition"
	"github.com/vyxenlabs/vyxen-runtime/internal/config"
	"github.com/vyxenlabs/vyxen-runtime/internal/filter"
	"github.com/vyxenlabs/vyxen-runtime/internal/govern"
	"github.com/vyxenlabs/vyxen-runtime/internal/identity"
	"github.com/vyxenlabs/vyxen-runtime/internal/logging"
	"github.com/vyxenlabs/vyxen-runtime/internal/memory"
	"github.com/vyxenlabs/vyxen-runtime/internal/reality"
	"github.com/vyxenlabs/vyxen-runtime/internal/scoring"
	"github.com/vyxenlabs/vyxen-runtime/internal/toolintent"
	"github.com/vyxenlabs/vyxen-runtime/internal/undo"
	"github.com/vyxenlabs/vyxen-runtime/internal/watchdog"
)

// #endregion

// #region main

func main() {
	configPath := flag.String("config", "vyxen.yaml", "path to the runtime config file")
	debug := flag.Bool("debug", false, "verbose development logging")
	console := flag.Bool("console", false, "read stimuli from stdin instead of the platform")
	flag.Parse()

	if err := run(*configPath, *debug, *console); err != nil {
		var serr *config.StartupError
		if errors.As(err, &serr) {
			fmt.Fprintf(os.Stderr, "refusing to start: %s\n", serr.Reason)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "runtime: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, debug, console bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if console {
		// Console runs are local; platform credentials are not needed.
		if cfg.PlatformToken == "" {
			cfg.PlatformToken = "console"
		}
		if cfg.ScoringCredential == "" {
			cfg.ScoringCredential = "console"
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	if dir := filepath.Dir(cfg.MemoryPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	supervisor := watchdog.NewSupervisor(cfg.BreakerK, cfg.BreakerWindow, cfg.BreakerCooldown, cfg.SafeModeDefault, log)

	// The durable store is best effort: a broken database means Safe Mode
	// plus ephemeral memory, not a dead process.
	store, err := memory.NewStore(cfg.MemoryPath, cfg.MemoryCapacity, log)
	if err != nil {
		log.Warnw("memory store unavailable, running ephemeral", "path", cfg.MemoryPath, "error", err)
		store = memory.NewEphemeral(cfg.MemoryCapacity, log)
		supervisor.StorageDegraded(err)
	}
	defer store.Close()
	store.SetDegradeHandler(func(err error) { supervisor.StorageDegraded(err) })

	ident, err := identity.Load(store.DB(), cfg.IdentityLearningRate, cfg.IdentityDecayRate, cfg.IdentityNormBound, log)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}
	defer ident.Flush()

	var journal *undo.Journal
	var auditor *audit.Recorder
	if db := store.DB(); db != nil {
		journal, err = undo.NewJournal(db, cfg.UndoTTL, log)
		if err != nil {
			return fmt.Errorf("open undo journal: %w", err)
		}
		auditor, err = audit.NewRecorder(db, log)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
	}

	scorer := scoring.NewClient(cfg.ScoringBaseURL, cfg.ScoringCredential, cfg.ScoringModel, cfg.ScoringTimeout, cfg.ScoringRetries, log)

	loop := cognition.New(cognition.Deps{
		Config:  cfg,
		Log:     log,
		Filters: filter.NewChain(filter.DefaultConfig()),
		Evaluators: []reality.Evaluator{
			reality.NewSocial(scorer, supervisor.Breaker(watchdog.DepScoringSocial)),
			reality.NewModeration(cfg.ToolDryRunDefault),
			reality.NewStrategy(),
			reality.NewTooling(cfg.ToolsEnabled),
		},
		Governor: govern.New(govern.Config{
			AbstainThreshold: cfg.AbstainThreshold,
			Priority:         cfg.RealityPriority,
			SafetyPriority:   cfg.RealityPriority["safety"],
		}, log),
		Resolver:   toolintent.NewResolver(cfg.ToolDryRunDefault, log),
		Journal:    journal,
		Auditor:    auditor,
		Memory:     store,
		Identity:   ident,
		Supervisor: supervisor,
		Adapter:    newConsoleAdapter(log),
		Limiter:    action.NewRateLimiter(cfg.MaxActionsPerMinute, cfg.ActionBurst),
	})

	if !cfg.SafeModeDefault {
		supervisor.ReleaseSafeMode()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("runtime starting",
		"memory_path", cfg.MemoryPath,
		"memory_capacity", cfg.MemoryCapacity,
		"safe_mode", supervisor.SafeMode(),
		"tools_enabled", cfg.ToolsEnabled,
		"dry_run", cfg.ToolDryRunDefault,
	)

	if console {
		go consoleFeed(ctx, loop, cfg.AdminUsers, log)
	}
	return loop.Run(ctx)
}

// #endregion main
