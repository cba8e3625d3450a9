package watchdog

// #region imports
import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// #endregion

// #region dependency-names

// Well-known dependency names supervised by the runtime.
const (
	DepScoringSocial = "scoring_social"
	DepToolPipeline  = "tool_pipeline"
	DepStorage       = "storage"
)

// #endregion dependency-names

// #region status

// Status is a point-in-time view of supervision state, surfaced by the
// status action.
type Status struct {
	SafeMode        bool
	SafeModePinned  bool
	StorageDegraded bool
	Breakers        map[string]State
	Uptime          time.Duration
}

// #endregion status

// #region supervisor

// Supervisor owns one breaker per external dependency and derives Safe Mode.
// Safe Mode engages while any breaker guarding tooling or irreversible paths
// is open, while storage is degraded, or while pinned by configuration.
type Supervisor struct {
	mu              sync.Mutex
	breakers        map[string]*Breaker
	critical        map[string]bool
	storageDegraded bool
	pinnedSafe      bool
	startTime       time.Time
	log             *zap.SugaredLogger
	k               int
	window          time.Duration
	cooldown        time.Duration
}

// NewSupervisor creates a supervisor with the given breaker policy.
// safeModeDefault pins Safe Mode on until explicitly released.
func NewSupervisor(k int, window, cooldown time.Duration, safeModeDefault bool, log *zap.SugaredLogger) *Supervisor {
	s := &Supervisor{
		breakers:   map[string]*Breaker{},
		critical:   map[string]bool{DepToolPipeline: true, DepStorage: true},
		pinnedSafe: safeModeDefault,
		startTime:  time.Now(),
		log:        log,
		k:          k,
		window:     window,
		cooldown:   cooldown,
	}
	for _, name := range []string{DepScoringSocial, DepToolPipeline, DepStorage} {
		s.breakers[name] = NewBreaker(name, k, window, cooldown)
	}
	return s
}

// Breaker returns (creating if needed) the breaker for a dependency.
func (s *Supervisor) Breaker(name string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breakers[name]
	if !ok {
		b = NewBreaker(name, s.k, s.window, s.cooldown)
		s.breakers[name] = b
	}
	return b
}

// MarkCritical flags a dependency as Safe-Mode-relevant.
func (s *Supervisor) MarkCritical(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.critical[name] = true
}

// StorageDegraded records that the durable store fell back to ephemeral
// operation. This is sticky for the rest of the run.
func (s *Supervisor) StorageDegraded(err error) {
	s.mu.Lock()
	already := s.storageDegraded
	s.storageDegraded = true
	s.mu.Unlock()
	if !already && s.log != nil {
		s.log.Warnw("storage degraded", "error", err)
	}
}

// ReleaseSafeMode drops the configuration pin. Breaker-driven Safe Mode still
// applies while critical breakers are open.
func (s *Supervisor) ReleaseSafeMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinnedSafe = false
}

// SafeMode reports whether the runtime must restrict itself to low-risk,
// non-reversible actions.
func (s *Supervisor) SafeMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pinnedSafe || s.storageDegraded {
		return true
	}
	for name, b := range s.breakers {
		if s.critical[name] && b.State() == StateOpen {
			return true
		}
	}
	return false
}

// Snapshot returns the current supervision status.
func (s *Supervisor) Snapshot() Status {
	s.mu.Lock()
	names := make([]string, 0, len(s.breakers))
	for name := range s.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	states := make(map[string]State, len(names))
	for _, name := range names {
		states[name] = s.breakers[name].State()
	}
	pinned := s.pinnedSafe
	degraded := s.storageDegraded
	start := s.startTime
	s.mu.Unlock()

	return Status{
		SafeMode:        s.SafeMode(),
		SafeModePinned:  pinned,
		StorageDegraded: degraded,
		Breakers:        states,
		Uptime:          time.Since(start),
	}
}

// #endregion supervisor
