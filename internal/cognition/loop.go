package cognition

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vyxenlabs/vyxen-runtime/internal/action"
	"github.com/vyxenlabs/vyxen-runtime/internal/audit"
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

// #region deps

// Deps collects everything the loop needs. All fields are required except
// Journal and Auditor, which may be nil in ephemeral setups.
type Deps struct {
	Config     config.Config
	Log        *zap.SugaredLogger
	Filters    *filter.Chain
	Evaluators []reality.Evaluator
	Governor   *govern.Governor
	Resolver   *toolintent.Resolver
	Journal    *undo.Journal
	Auditor    *audit.Recorder
	Memory     *memory.Store
	Identity   *identity.State
	Supervisor *watchdog.Supervisor
	Adapter    action.Adapter
	Limiter    *action.RateLimiter
}

// #endregion deps

// #region loop

// Loop is the decision pipeline: stimuli in, at most one committed action per
// stimulus out. Tick workers process stimuli concurrently; commits serialize
// through a single mutex so journal, audit, and identity updates stay ordered.
// Chosen actions go through a bounded queue to a dedicated dispatcher, so
// adapter latency never stalls a tick.
type Loop struct {
	deps Deps
	log  *zap.SugaredLogger

	stimuli chan stimulus.Stimulus
	actions chan func(context.Context)

	// commitMu serializes the commit phase of every tick.
	commitMu sync.Mutex

	// scopeMu guards scopeLocks; each guild gets one lock so tool executions
	// within a guild never interleave.
	scopeMu    sync.Mutex
	scopeLocks map[string]*sync.Mutex

	activityMu   sync.Mutex
	lastActivity time.Time

	now func() time.Time
}

// New builds a loop from its dependencies.
func New(deps Deps) *Loop {
	log := deps.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	actionQueue := deps.Config.ActionQueueSize
	if actionQueue < 1 {
		actionQueue = 1
	}
	return &Loop{
		deps:         deps,
		log:          log,
		stimuli:      make(chan stimulus.Stimulus, deps.Config.StimulusQueueSize),
		actions:      make(chan func(context.Context), actionQueue),
		scopeLocks:   map[string]*sync.Mutex{},
		lastActivity: time.Now(),
		now:          time.Now,
	}
}

// Submit enqueues a stimulus. Returns false when the queue is full; the
// stimulus is dropped rather than blocking the adapter.
func (l *Loop) Submit(stim stimulus.Stimulus) bool {
	l.touch()
	select {
	case l.stimuli <- stim:
		return true
	default:
		l.log.Warnw("stimulus queue full, dropping", "type", stim.Type, "id", stim.ID)
		return false
	}
}

// Run starts the tick workers and housekeeping tickers and blocks until ctx
// is done.
func (l *Loop) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	workers := l.deps.Config.TickWorkers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error { return l.worker(ctx) })
	}
	g.Go(func() error { return l.actionWorker(ctx) })
	g.Go(func() error { return l.housekeeping(ctx) })
	g.Go(func() error { return l.silenceSynth(ctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (l *Loop) worker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case stim := <-l.stimuli:
			l.Tick(ctx, stim)
		}
	}
}

// actionWorker drains the action queue, one dispatch at a time.
func (l *Loop) actionWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case run := <-l.actions:
			run(ctx)
		}
	}
}

// DrainActions executes queued actions inline until the queue is empty.
// Synchronous drivers (replay, single-shot ticks) call it after Tick; under
// Run the action worker drains the queue instead.
func (l *Loop) DrainActions(ctx context.Context) {
	for {
		select {
		case run := <-l.actions:
			run(ctx)
		default:
			return
		}
	}
}

// enqueueAction hands a dispatch to the action queue. template describes the
// action for the audit record written when the queue is full.
func (l *Loop) enqueueAction(template audit.Entry, run func(context.Context)) {
	select {
	case l.actions <- run:
	default:
		l.log.Warnw("action queue full, dropping", "action", template.ActionID, "type", template.ActionType)
		template.Outcome = audit.OutcomeRejected
		template.Detail = "action queue full"
		l.commitMu.Lock()
		l.audit(template)
		l.commitMu.Unlock()
	}
}

// #endregion loop

// #region tick

// Tick runs one full decision cycle for a stimulus. Exported so adapters with
// their own scheduling can drive the pipeline synchronously.
func (l *Loop) Tick(ctx context.Context, stim stimulus.Stimulus) {
	ctx, cancel := context.WithTimeout(ctx, l.deps.Config.TickDeadline)
	defer cancel()

	if rej := l.deps.Filters.CheckStimulus(stim); rej != nil {
		l.audit(audit.Entry{
			StimulusID: stim.ID,
			Outcome:    audit.OutcomeRejected,
			Detail:     rej.Error(),
		})
		// Rejections are reported back to their origin, not silently dropped.
		if stim.ChannelID != "" {
			l.reportDenial(stim, rej.Reason)
		}
		return
	}

	candidates := l.evaluate(ctx, stim)
	decision := l.deps.Governor.Arbitrate(stim, candidates)

	if decision.Abstained {
		l.commitMu.Lock()
		defer l.commitMu.Unlock()
		l.audit(audit.Entry{
			StimulusID: stim.ID,
			ActionID:   decision.Winner.Intent.ID,
			ActionType: string(decision.Winner.Intent.Type),
			Outcome:    audit.OutcomeAbstained,
			Detail:     decision.Winner.Justification,
		})
		l.remember(stim, decision)
		return
	}

	winner := decision.Winner
	if l.deps.Supervisor.SafeMode() && !safeModeAllowed(winner.Intent.Type) {
		demoted := action.Observe(stim.ID, "safe mode active; action withheld")
		l.commitMu.Lock()
		defer l.commitMu.Unlock()
		l.audit(audit.Entry{
			StimulusID: stim.ID,
			ActionID:   demoted.ID,
			ActionType: string(winner.Intent.Type),
			Reality:    string(winner.Reality),
			Outcome:    audit.OutcomeRejected,
			Score:      winner.Score,
			Confidence: decision.Confidence,
			Detail:     "safe mode demotion",
		})
		l.remember(stim, decision)
		return
	}

	if rej := l.deps.Filters.CheckAction(winner.Intent); rej != nil {
		l.commitMu.Lock()
		defer l.commitMu.Unlock()
		l.audit(audit.Entry{
			StimulusID: stim.ID,
			ActionID:   winner.Intent.ID,
			ActionType: string(winner.Intent.Type),
			Reality:    string(winner.Reality),
			Outcome:    audit.OutcomeRejected,
			Score:      winner.Score,
			Confidence: decision.Confidence,
			Detail:     rej.Error(),
		})
		return
	}

	switch winner.Intent.Type {
	case action.TypeObserve, action.TypeDefer:
		l.commitMu.Lock()
		defer l.commitMu.Unlock()
		l.audit(audit.Entry{
			StimulusID: stim.ID,
			ActionID:   winner.Intent.ID,
			ActionType: string(winner.Intent.Type),
			Reality:    string(winner.Reality),
			Outcome:    audit.OutcomeCommitted,
			Score:      winner.Score,
			Confidence: decision.Confidence,
			Detail:     winner.Justification,
		})
		l.remember(stim, decision)

	case action.TypeToolCall:
		l.runTool(stim, decision)

	default:
		l.dispatch(stim, decision, winner.Intent)
	}
}

// evaluate fans out to every reality under its own deadline. A slow or
// failing evaluator contributes nothing; the tick continues with whatever the
// rest produced.
func (l *Loop) evaluate(ctx context.Context, stim stimulus.Stimulus) []reality.Candidate {
	idSnap := l.deps.Identity.Snapshot()
	memSnap := l.deps.Memory.Snapshot()

	results := make([][]reality.Candidate, len(l.deps.Evaluators))
	g, gctx := errgroup.WithContext(ctx)
	for i, ev := range l.deps.Evaluators {
		i, ev := i, ev
		g.Go(func() error {
			evCtx, cancel := context.WithTimeout(gctx, l.deps.Config.EvaluatorDeadline)
			defer cancel()
			cands, err := ev.Evaluate(evCtx, stim, idSnap, memSnap)
			if err != nil {
				l.log.Warnw("evaluator failed", "reality", ev.Tag(), "error", err)
				return nil
			}
			results[i] = cands
			return nil
		})
	}
	_ = g.Wait()

	var all []reality.Candidate
	for _, cands := range results {
		all = append(all, cands...)
	}
	return all
}

// #endregion tick

// #region dispatch

// dispatch queues a message-class intent for the adapter, rate limited per
// channel. Execution and commit bookkeeping happen on the action worker.
func (l *Loop) dispatch(stim stimulus.Stimulus, decision govern.Decision, intent action.Intent) {
	winner := decision.Winner

	if l.deps.Limiter != nil && !intent.SideEffectFree() {
		key := intent.TargetID
		if key == "" {
			key = stim.ChannelID
		}
		if !l.deps.Limiter.Allow(key) {
			l.commitMu.Lock()
			defer l.commitMu.Unlock()
			l.audit(audit.Entry{
				StimulusID: stim.ID,
				ActionID:   intent.ID,
				ActionType: string(intent.Type),
				Reality:    string(winner.Reality),
				Outcome:    audit.OutcomeRejected,
				Detail:     "rate limited",
			})
			return
		}
	}

	entry := audit.Entry{
		StimulusID: stim.ID,
		ActionID:   intent.ID,
		ActionType: string(intent.Type),
		Reality:    string(winner.Reality),
		Score:      winner.Score,
		Confidence: decision.Confidence,
	}
	l.enqueueAction(entry, func(ctx context.Context) {
		result, err := l.deps.Adapter.Execute(ctx, intent)

		l.commitMu.Lock()
		defer l.commitMu.Unlock()
		if err != nil || !result.Success {
			entry.Outcome = audit.OutcomeFailed
			if err != nil {
				entry.Detail = err.Error()
			} else {
				entry.Detail = result.Detail
			}
			l.audit(entry)
			l.deps.Identity.AdjustFromOutcome(-0.5)
			return
		}

		entry.Outcome = audit.OutcomeCommitted
		entry.Detail = result.Detail
		l.audit(entry)
		l.remember(stim, decision)
		l.deps.Identity.AdjustFromOutcome(decision.Confidence)
	})
}

// reportDenial queues a denial action toward the stimulus origin. The
// rejection itself is already audited by the caller.
func (l *Loop) reportDenial(stim stimulus.Stimulus, reason string) {
	denial := action.Denial(stim.ID, stim.ChannelID, reason)
	l.enqueueAction(audit.Entry{
		StimulusID: stim.ID,
		ActionID:   denial.ID,
		ActionType: string(denial.Type),
	}, func(ctx context.Context) {
		if _, err := l.deps.Adapter.Execute(ctx, denial); err != nil {
			l.log.Warnw("denial dispatch failed", "stimulus", stim.ID, "error", err)
		}
	})
}

// #endregion dispatch

// #region tooling

// runTool vets a tool_call intent and queues its execution. Dry runs never
// reach the adapter with a side effect; they produce a descriptive reply.
func (l *Loop) runTool(stim stimulus.Stimulus, decision govern.Decision) {
	winner := decision.Winner

	res, err := l.deps.Resolver.Resolve(stim, winner.Intent)
	if err != nil {
		l.answerResolveError(stim, decision, err)
		return
	}

	switch res.Command.Name {
	case toolintent.CmdUndoLast:
		l.runUndoLast(stim, decision)
		return
	case toolintent.CmdStatus, toolintent.CmdServerStats:
		reply := action.NewIntent(stim.ID, action.TypeReply, stim.ChannelID, map[string]any{
			"content": l.statusText(),
		})
		l.dispatch(stim, decision, reply)
		return
	}

	entry := audit.Entry{
		StimulusID: stim.ID,
		ActionID:   winner.Intent.ID,
		ActionType: string(action.TypeToolCall),
		Reality:    string(winner.Reality),
		Score:      winner.Score,
		Confidence: decision.Confidence,
		Detail:     res.Command.Name,
	}

	if res.DryRun {
		reply := action.NewIntent(stim.ID, action.TypeReply, stim.ChannelID, map[string]any{
			"content": fmt.Sprintf("dry run: would execute %s with %v", res.Command.Name, res.Args),
		})
		l.enqueueAction(entry, func(ctx context.Context) {
			result, execErr := l.deps.Adapter.Execute(ctx, reply)

			l.commitMu.Lock()
			defer l.commitMu.Unlock()
			entry.Outcome = audit.OutcomeDryRun
			if execErr != nil || !result.Success {
				entry.Detail = res.Command.Name + " (reply failed)"
			}
			l.audit(entry)
			l.remember(stim, decision)
		})
		return
	}

	l.enqueueAction(entry, func(ctx context.Context) {
		// One tool execution at a time per guild.
		lock := l.scopeLock(stim.GuildID)
		lock.Lock()
		defer lock.Unlock()

		breaker := l.deps.Supervisor.Breaker(watchdog.DepToolPipeline)
		if err := breaker.Allow(); err != nil {
			l.commitMu.Lock()
			defer l.commitMu.Unlock()
			entry.Outcome = audit.OutcomeRejected
			entry.Detail = "tool pipeline circuit open"
			l.audit(entry)
			return
		}

		// Journal before dispatch. A crash after this point leaves a pending
		// entry; the sweep rolls it back once the TTL passes without a commit.
		if !res.Inverse.Empty() && l.deps.Journal != nil {
			if _, err := l.deps.Journal.Record(winner.Intent.ID, res.Command.Name, res.Inverse); err != nil {
				l.log.Errorw("undo journal write failed, withholding action", "command", res.Command.Name, "error", err)
				l.commitMu.Lock()
				defer l.commitMu.Unlock()
				entry.Outcome = audit.OutcomeFailed
				entry.Detail = "journal unavailable"
				l.audit(entry)
				return
			}
		}

		execIntent := action.NewIntent(stim.ID, action.TypeToolCall, stim.GuildID, map[string]any{
			"command": res.Command.Name,
			"args":    res.Args,
		})
		execIntent.Risk = res.Command.Risk
		execIntent.Reversible = res.Command.Reversible

		result, execErr := l.deps.Adapter.Execute(ctx, execIntent)

		l.commitMu.Lock()
		defer l.commitMu.Unlock()
		if execErr != nil || !result.Success {
			breaker.RecordFailure(detailOrError(result, execErr))
			// The action did not take effect; release its pending recipe.
			if !res.Inverse.Empty() && l.deps.Journal != nil {
				if _, _, err := l.deps.Journal.Rollback(winner.Intent.ID); err != nil {
					l.log.Warnw("undo journal rollback failed", "action", winner.Intent.ID, "error", err)
				}
			}
			entry.Outcome = audit.OutcomeFailed
			entry.Detail = res.Command.Name + ": " + detailOrError(result, execErr)
			l.audit(entry)
			l.deps.Identity.AdjustFromOutcome(-1)
			return
		}

		breaker.RecordSuccess()
		if !res.Inverse.Empty() && l.deps.Journal != nil {
			if err := l.deps.Journal.Commit(winner.Intent.ID); err != nil {
				l.log.Warnw("undo journal commit failed", "action", winner.Intent.ID, "error", err)
			}
		}
		entry.Outcome = audit.OutcomeCommitted
		l.audit(entry)
		l.remember(stim, decision)
		l.deps.Identity.AdjustFromOutcome(decision.Confidence)
	})
}

// runUndoLast rolls back the most recent committed reversible action.
func (l *Loop) runUndoLast(stim stimulus.Stimulus, decision govern.Decision) {
	l.enqueueAction(audit.Entry{
		StimulusID: stim.ID,
		ActionType: string(action.TypeToolCall),
	}, func(ctx context.Context) {
		if l.deps.Journal == nil {
			l.sendReply(ctx, stim, "nothing to undo")
			return
		}
		latest, err := l.deps.Journal.Latest()
		if errors.Is(err, undo.ErrNotFound) {
			l.sendReply(ctx, stim, "nothing to undo")
			return
		}
		if err != nil {
			l.log.Errorw("undo lookup failed", "error", err)
			return
		}

		inverse, performed, err := l.deps.Journal.Rollback(latest.ActionID)
		if err != nil || !performed {
			l.sendReply(ctx, stim, "nothing to undo")
			return
		}

		execIntent := action.NewIntent(stim.ID, action.TypeToolCall, stim.GuildID, map[string]any{
			"command": inverse.Command,
			"args":    inverse.Args,
		})
		result, execErr := l.deps.Adapter.Execute(ctx, execIntent)

		l.commitMu.Lock()
		defer l.commitMu.Unlock()
		entry := audit.Entry{
			StimulusID: stim.ID,
			ActionID:   latest.ActionID,
			ActionType: string(action.TypeToolCall),
			Outcome:    audit.OutcomeRolledBack,
			Detail:     inverse.Command,
		}
		if execErr != nil || !result.Success {
			entry.Outcome = audit.OutcomeFailed
			entry.Detail = inverse.Command + ": " + detailOrError(result, execErr)
		}
		l.audit(entry)
	})
}

// answerResolveError turns resolver failures into user-facing replies.
func (l *Loop) answerResolveError(stim stimulus.Stimulus, decision govern.Decision, err error) {
	var verr *toolintent.ValidationError
	var perr *toolintent.PermissionError

	var text string
	switch {
	case errors.Is(err, toolintent.ErrLiveRunDenied):
		text = "live runs need operator authorization; resubmit without live"
	case errors.As(err, &verr):
		text = "I couldn't parse that request. Try phrasings like: ban @user, timeout @user 10m, rename #old to #new, purge 50."
	case errors.As(err, &perr):
		text = fmt.Sprintf("you need the %s permission for %s", perr.Required, perr.Command)
	default:
		l.log.Errorw("tool resolve failed", "error", err)
		return
	}

	reply := action.NewIntent(stim.ID, action.TypeReply, stim.ChannelID, map[string]any{"content": text})
	entry := audit.Entry{
		StimulusID: stim.ID,
		ActionID:   decision.Winner.Intent.ID,
		ActionType: string(action.TypeToolCall),
		Reality:    string(decision.Winner.Reality),
	}
	l.enqueueAction(entry, func(ctx context.Context) {
		result, execErr := l.deps.Adapter.Execute(ctx, reply)

		l.commitMu.Lock()
		defer l.commitMu.Unlock()
		entry.Outcome = audit.OutcomeRejected
		entry.Detail = err.Error()
		if execErr != nil || !result.Success {
			entry.Detail = err.Error() + " (reply failed)"
		}
		l.audit(entry)
	})
}

// sendReply executes a plain reply immediately; callers already run on the
// action worker.
func (l *Loop) sendReply(ctx context.Context, stim stimulus.Stimulus, text string) {
	reply := action.NewIntent(stim.ID, action.TypeReply, stim.ChannelID, map[string]any{"content": text})
	if _, err := l.deps.Adapter.Execute(ctx, reply); err != nil {
		l.log.Warnw("reply failed", "error", err)
	}
}

func (l *Loop) scopeLock(guildID string) *sync.Mutex {
	l.scopeMu.Lock()
	defer l.scopeMu.Unlock()
	lock, ok := l.scopeLocks[guildID]
	if !ok {
		lock = &sync.Mutex{}
		l.scopeLocks[guildID] = lock
	}
	return lock
}

// #endregion tooling

// #region housekeeping

// housekeeping drives periodic sweeps: expired memory records, stale undo
// entries (auto-rollback of unconfirmed actions), and identity decay.
func (l *Loop) housekeeping(ctx context.Context) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.deps.Memory.SweepExpired()
			l.deps.Identity.Decay()
			l.sweepUndo(ctx)
		}
	}
}

// sweepUndo rolls back journal entries whose commit never arrived. The action
// may have executed before a crash, so the inverse is dispatched to restore
// the prior state; confirmed actions are purged by the journal and stay done.
func (l *Loop) sweepUndo(ctx context.Context) {
	if l.deps.Journal == nil {
		return
	}
	stale, err := l.deps.Journal.SweepExpired()
	if err != nil {
		l.log.Warnw("undo sweep failed", "error", err)
		return
	}
	for _, entry := range stale {
		intent := action.NewIntent("", action.TypeToolCall, "", map[string]any{
			"command": entry.Inverse.Command,
			"args":    entry.Inverse.Args,
		})
		result, execErr := l.deps.Adapter.Execute(ctx, intent)

		l.commitMu.Lock()
		auditEntry := audit.Entry{
			StimulusID: entry.ActionID,
			ActionID:   entry.ActionID,
			ActionType: string(action.TypeToolCall),
			Outcome:    audit.OutcomeRolledBack,
			Detail:     entry.Inverse.Command + " (expired before commit)",
		}
		if execErr != nil || !result.Success {
			auditEntry.Outcome = audit.OutcomeFailed
			auditEntry.Detail = entry.Inverse.Command + ": " + detailOrError(result, execErr)
		}
		l.audit(auditEntry)
		l.commitMu.Unlock()
	}
}

// silenceSynth injects a silence stimulus when no external stimulus arrived
// within the configured gap, letting the strategy reality act on quiet spells.
func (l *Loop) silenceSynth(ctx context.Context) error {
	gap := l.deps.Config.SilenceGap
	if gap <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(gap / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.activityMu.Lock()
			quiet := l.now().Sub(l.lastActivity) >= gap
			if quiet {
				l.lastActivity = l.now()
			}
			l.activityMu.Unlock()
			if quiet {
				stim := stimulus.New(stimulus.TypeSilence, "loop", 0.2)
				stim.Routing = stimulus.RoutingSystem
				select {
				case l.stimuli <- stim:
				default:
				}
			}
		}
	}
}

func (l *Loop) touch() {
	l.activityMu.Lock()
	l.lastActivity = l.now()
	l.activityMu.Unlock()
}

// #endregion housekeeping

// #region commit-helpers

// remember writes the decided stimulus into the memory store. Caller holds
// commitMu.
func (l *Loop) remember(stim stimulus.Stimulus, decision govern.Decision) {
	if stim.Content == "" {
		return
	}
	rec := memory.Record{
		Key:        "stim:" + stim.ID,
		Value:      stim.Content,
		Provenance: stim.Source,
		Relevance:  stim.Salience,
	}
	if l.deps.Config.RecordTTL > 0 {
		rec.ExpiresAt = l.now().UTC().Add(l.deps.Config.RecordTTL)
	}
	if !decision.Abstained {
		// Acted-on stimuli are worth more than observed ones.
		rec.Relevance = clamp(rec.Relevance + 0.2*decision.Confidence)
	}
	if err := l.deps.Memory.Put(rec); err != nil {
		l.log.Warnw("memory write failed", "key", rec.Key, "error", err)
	}
}

func (l *Loop) audit(e audit.Entry) {
	if l.deps.Auditor != nil {
		l.deps.Auditor.Append(e)
	}
}

// statusText renders the status action body.
func (l *Loop) statusText() string {
	status := l.deps.Supervisor.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "uptime %s, safe mode %v, memory records %d",
		status.Uptime.Round(time.Second), status.SafeMode, l.deps.Memory.Len())
	if status.StorageDegraded {
		b.WriteString(", storage degraded")
	}
	for name, state := range status.Breakers {
		if state != watchdog.StateClosed {
			fmt.Fprintf(&b, ", breaker %s %s", name, state)
		}
	}
	return b.String()
}

// safeModeAllowed lists the action types permitted under Safe Mode.
func safeModeAllowed(t action.Type) bool {
	switch t {
	case action.TypeObserve, action.TypeReply, action.TypeStatus, action.TypeDenial, action.TypeDefer:
		return true
	}
	return false
}

func detailOrError(result action.ExecutionResult, err error) string {
	if err != nil {
		return err.Error()
	}
	if result.Detail != "" {
		return result.Detail
	}
	return "execution failed"
}

func clamp(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion commit-helpers
