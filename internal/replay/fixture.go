package replay

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
)

// #endregion

// #region fixture-types

// Fixture is the top-level JSON structure for a replay scenario: a scripted
// stimulus sequence and the terminal outcome expected for each.
type Fixture struct {
	Description     string            `json:"description"`
	Config          FixtureConfig     `json:"config"`
	Stimuli         []FixtureStimulus `json:"stimuli"`
	ExpectedResults []ExpectedResult  `json:"expected_results"`
}

// FixtureConfig is the subset of runtime options a scenario may pin.
type FixtureConfig struct {
	SafeMode         bool    `json:"safe_mode"`
	ToolsEnabled     bool    `json:"tools_enabled"`
	ToolDryRun       bool    `json:"tool_dry_run"`
	AbstainThreshold float32 `json:"abstain_threshold"`
}

// FixtureStimulus is one scripted inbound event.
type FixtureStimulus struct {
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Content     string   `json:"content"`
	AuthorID    string   `json:"author_id"`
	ChannelID   string   `json:"channel_id"`
	GuildID     string   `json:"guild_id"`
	Directed    bool     `json:"directed"`
	Whitelisted bool     `json:"whitelisted"`
	Permissions []string `json:"permissions,omitempty"`
	LiveRun     bool     `json:"live_run,omitempty"`
	Salience    float32  `json:"salience"`
}

// ExpectedResult pins the audit outcome for one labelled stimulus.
type ExpectedResult struct {
	Label      string `json:"label"`
	Outcome    string `json:"outcome"`
	ActionType string `json:"action_type,omitempty"`
}

// #endregion fixture-types

// #region fixture-io

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

// SaveFixture writes a fixture as indented JSON.
func SaveFixture(path string, f *Fixture) error {
	if err := f.validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

func (f *Fixture) validate() error {
	if len(f.Stimuli) == 0 {
		return fmt.Errorf("no stimuli")
	}
	labels := make(map[string]bool, len(f.Stimuli))
	for i, s := range f.Stimuli {
		if s.Label == "" {
			return fmt.Errorf("stimulus %d has no label", i)
		}
		if labels[s.Label] {
			return fmt.Errorf("duplicate label %q", s.Label)
		}
		labels[s.Label] = true
	}
	for _, e := range f.ExpectedResults {
		if !labels[e.Label] {
			return fmt.Errorf("expected result references unknown label %q", e.Label)
		}
	}
	return nil
}

// #endregion fixture-io
