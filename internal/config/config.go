package config

// #region imports
import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// #endregion

// #region startup-error

// StartupError marks a fatal configuration problem. The process refuses to
// start when one is returned; everything else is survivable at runtime.
type StartupError struct {
	Reason string
}

func (e *StartupError) Error() string {
	return "startup: " + e.Reason
}

// #endregion startup-error

// #region config

// Config holds every recognized runtime option. Loaded once at process start
// and immutable for the lifetime of a run.
type Config struct {
	// Pipeline budgets.
	TickDeadline      time.Duration `yaml:"tick_deadline"`
	EvaluatorDeadline time.Duration `yaml:"evaluator_deadline"`
	TickWorkers       int           `yaml:"tick_workers"`
	StimulusQueueSize int           `yaml:"stimulus_queue_size"`
	ActionQueueSize   int           `yaml:"action_queue_size"`
	SilenceGap        time.Duration `yaml:"silence_gap"`

	// Memory and identity.
	MemoryCapacity       int           `yaml:"memory_capacity"`
	MemoryPath           string        `yaml:"memory_path"`
	IdentityLearningRate float32       `yaml:"identity_learning_rate"`
	IdentityDecayRate    float32       `yaml:"identity_decay_rate"`
	IdentityNormBound    float32       `yaml:"identity_norm_bound"`
	RecordTTL            time.Duration `yaml:"record_ttl"`

	// Governor policy.
	AbstainThreshold float32        `yaml:"abstain_threshold"`
	RealityPriority  map[string]int `yaml:"reality_priority"`

	// Safety and supervision.
	SafeModeDefault bool          `yaml:"safe_mode_default"`
	BreakerK        int           `yaml:"breaker_failures"`
	BreakerWindow   time.Duration `yaml:"breaker_window"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`

	// Tooling.
	ToolsEnabled      bool          `yaml:"tools_enabled"`
	ToolDryRunDefault bool          `yaml:"tool_dry_run_default"`
	UndoTTL           time.Duration `yaml:"undo_ttl"`
	AdminUsers        []string      `yaml:"admin_users"`

	// Action throttling.
	MaxActionsPerMinute int `yaml:"max_actions_per_minute"`
	ActionBurst         int `yaml:"action_burst"`

	// Scoring service.
	ScoringBaseURL string        `yaml:"scoring_base_url"`
	ScoringModel   string        `yaml:"scoring_model"`
	ScoringTimeout time.Duration `yaml:"scoring_timeout"`
	ScoringRetries int           `yaml:"scoring_retries"`

	// Secrets, env-only. Never read from the YAML file.
	PlatformToken     string `yaml:"-"`
	ScoringCredential string `yaml:"-"`
}

// Default returns the baseline configuration before file or env overrides.
func Default() Config {
	return Config{
		TickDeadline:         3 * time.Second,
		EvaluatorDeadline:    1500 * time.Millisecond,
		TickWorkers:          2,
		StimulusQueueSize:    200,
		ActionQueueSize:      50,
		SilenceGap:           12 * time.Second,
		MemoryCapacity:       2000,
		MemoryPath:           "data/runtime.db",
		IdentityLearningRate: 0.02,
		IdentityDecayRate:    0.003,
		IdentityNormBound:    1.0,
		RecordTTL:            72 * time.Hour,
		AbstainThreshold:     0.35,
		RealityPriority: map[string]int{
			"moderation": 5,
			"safety":     4,
			"social":     3,
			"strategy":   2,
			"tooling":    1,
		},
		SafeModeDefault:     true,
		BreakerK:            3,
		BreakerWindow:       60 * time.Second,
		BreakerCooldown:     120 * time.Second,
		ToolsEnabled:        false,
		ToolDryRunDefault:   true,
		UndoTTL:             10 * time.Minute,
		MaxActionsPerMinute: 20,
		ActionBurst:         5,
		ScoringBaseURL:      "https://api.venice.ai/api/v1",
		ScoringModel:        "default",
		ScoringTimeout:      20 * time.Second,
		ScoringRetries:      2,
	}
}

// #endregion config

// #region load

// Load builds the runtime configuration: defaults, then the optional YAML
// file at path, then environment overrides. Secrets come from the environment
// only (a .env file is honored when present).
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// UnmarshalYAML decodes the config mapping, parsing duration options from
// strings like "1500ms". yaml.v3 has no native time.Duration handling.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("config: expected a mapping at the top level")
	}
	durations := map[string]*time.Duration{
		"tick_deadline":      &c.TickDeadline,
		"evaluator_deadline": &c.EvaluatorDeadline,
		"silence_gap":        &c.SilenceGap,
		"record_ttl":         &c.RecordTTL,
		"breaker_window":     &c.BreakerWindow,
		"breaker_cooldown":   &c.BreakerCooldown,
		"undo_ttl":           &c.UndoTTL,
		"scoring_timeout":    &c.ScoringTimeout,
	}
	rest := &yaml.Node{Kind: yaml.MappingNode}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		dst, ok := durations[key.Value]
		if !ok {
			rest.Content = append(rest.Content, key, val)
			continue
		}
		d, err := time.ParseDuration(val.Value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key.Value, err)
		}
		*dst = d
	}
	type plain Config
	return rest.Decode((*plain)(c))
}

// applyEnv overlays the subset of options exposed as environment variables.
// Only a subset is exposed to keep overrides safe and explicit.
func (c *Config) applyEnv() {
	c.TickDeadline = envDuration("VYXEN_TICK_DEADLINE", c.TickDeadline)
	c.EvaluatorDeadline = envDuration("VYXEN_EVALUATOR_DEADLINE", c.EvaluatorDeadline)
	c.SilenceGap = envDuration("VYXEN_SILENCE_GAP", c.SilenceGap)
	c.MemoryCapacity = envInt("VYXEN_MEMORY_CAPACITY", c.MemoryCapacity)
	c.MemoryPath = envOr("VYXEN_MEMORY_PATH", c.MemoryPath)
	c.AbstainThreshold = envFloat("VYXEN_ABSTAIN_THRESHOLD", c.AbstainThreshold)
	c.SafeModeDefault = envBool("VYXEN_SAFE_MODE_DEFAULT", c.SafeModeDefault)
	c.BreakerK = envInt("VYXEN_BREAKER_FAILURES", c.BreakerK)
	c.BreakerWindow = envDuration("VYXEN_BREAKER_WINDOW", c.BreakerWindow)
	c.BreakerCooldown = envDuration("VYXEN_BREAKER_COOLDOWN", c.BreakerCooldown)
	c.ToolsEnabled = envBool("VYXEN_TOOLS_ENABLED", c.ToolsEnabled)
	c.ToolDryRunDefault = envBool("VYXEN_TOOL_DRY_RUN", c.ToolDryRunDefault)
	c.UndoTTL = envDuration("VYXEN_UNDO_TTL", c.UndoTTL)
	c.ScoringBaseURL = envOr("VYXEN_SCORING_BASE_URL", c.ScoringBaseURL)
	c.ScoringModel = envOr("VYXEN_SCORING_MODEL", c.ScoringModel)
	c.ScoringTimeout = envDuration("VYXEN_SCORING_TIMEOUT", c.ScoringTimeout)

	c.PlatformToken = os.Getenv("VYXEN_PLATFORM_TOKEN")
	c.ScoringCredential = os.Getenv("VYXEN_SCORING_CREDENTIAL")
}

// Validate returns a StartupError when a required secret or a sane bound is
// missing. Called once before the loop starts.
func (c Config) Validate() error {
	if c.PlatformToken == "" {
		return &StartupError{Reason: "VYXEN_PLATFORM_TOKEN is required"}
	}
	if c.ScoringCredential == "" {
		return &StartupError{Reason: "VYXEN_SCORING_CREDENTIAL is required"}
	}
	if c.MemoryCapacity <= 0 {
		return &StartupError{Reason: "memory_capacity must be positive"}
	}
	if c.BreakerK <= 0 {
		return &StartupError{Reason: "breaker_failures must be positive"}
	}
	if c.EvaluatorDeadline > c.TickDeadline {
		return &StartupError{Reason: "evaluator_deadline exceeds tick_deadline"}
	}
	return nil
}

// #endregion load

// #region env-helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// #endregion env-helpers
