package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rollix/internal/record"
	"github.com/roach88/rollix/internal/rollup"
)

// Scenario is a scripted sequence of executor deliveries plus the
// expectations the indexer must meet afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID is an optional fixed run id recorded on commits.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// GenesisRoot is the checkpoint before the first batch. Empty means zero.
	GenesisRoot string `yaml:"genesis_root,omitempty"`

	// Steps are delivered to the pipeline in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and read models.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is exactly one delivery: a transaction event or a batch commit.
type Step struct {
	Event  *EventStep  `yaml:"event,omitempty"`
	Commit *CommitStep `yaml:"commit,omitempty"`
}

// EventStep delivers one transaction's event log.
//
// The log is built from Status, EventID and Frames unless Words is given,
// in which case Words is delivered verbatim. Truncate drops that many
// trailing words from the built log.
type EventStep struct {
	// Tx selects a deterministic witness; equal Tx values are the same
	// transaction.
	Tx       int         `yaml:"tx"`
	Status   uint64      `yaml:"status,omitempty"`
	EventID  uint64      `yaml:"event_id,omitempty"`
	Frames   []FrameSpec `yaml:"frames,omitempty"`
	Words    []uint64    `yaml:"words,omitempty"`
	Truncate int         `yaml:"truncate,omitempty"`

	// Expect, when set, is checked against this step's trace entry.
	Expect *EventExpect `yaml:"expect,omitempty"`
}

// FrameSpec is one frame of a built event log.
type FrameSpec struct {
	Tag     uint32   `yaml:"tag"`
	Payload []uint64 `yaml:"payload"`
}

// EventExpect is a subset match on an event's trace entry. Nil counts are
// not checked.
type EventExpect struct {
	Outcome     string `yaml:"outcome"`
	Upserted    *int   `yaml:"upserted,omitempty"`
	UnknownTags *int   `yaml:"unknown_tags,omitempty"`
	Failed      *int   `yaml:"failed,omitempty"`
}

// CommitStep delivers a batch-committed notification.
type CommitStep struct {
	Txs      []int  `yaml:"txs"`
	PreRoot  string `yaml:"pre_root,omitempty"`
	PostRoot string `yaml:"post_root"`
}

// Assertion validates the trace or the final read models.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Outcome is the event outcome (trace_count, trace_contains).
	Outcome string `yaml:"outcome,omitempty"`

	// Tx narrows trace_contains to one transaction.
	Tx int `yaml:"tx,omitempty"`

	// Kind is the read model (final_state, absent, record_count).
	Kind string `yaml:"kind,omitempty"`

	// Key holds the natural key words (final_state, absent).
	Key []uint64 `yaml:"key,omitempty"`

	// Expect holds expected JSON field values (final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number (trace_count, record_count, tracked).
	Count int `yaml:"count,omitempty"`

	// Root is the expected checkpoint root (checkpoint).
	Root string `yaml:"root,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertAbsent        = "absent"
	AssertRecordCount   = "record_count"
	AssertCheckpoint    = "checkpoint"
	AssertTracked       = "tracked"
)

var outcomes = map[string]bool{
	OutcomeProcessed: true,
	OutcomeTruncated: true,
	OutcomeDuplicate: true,
	OutcomeSkipped:   true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.GenesisRoot != "" {
		if _, err := rollup.ParseRoot(s.GenesisRoot); err != nil {
			return fmt.Errorf("genesis_root: %w", err)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	switch {
	case step.Event != nil && step.Commit != nil:
		return fmt.Errorf("steps[%d]: event and commit are mutually exclusive", index)
	case step.Event != nil:
		ev := step.Event
		if ev.Tx <= 0 {
			return fmt.Errorf("steps[%d].event: tx must be positive", index)
		}
		if len(ev.Words) > 0 && (len(ev.Frames) > 0 || ev.Truncate > 0) {
			return fmt.Errorf("steps[%d].event: words cannot be combined with frames or truncate", index)
		}
		if ev.Truncate < 0 {
			return fmt.Errorf("steps[%d].event: truncate must be non-negative", index)
		}
		if ev.Expect != nil && !outcomes[ev.Expect.Outcome] {
			return fmt.Errorf("steps[%d].event.expect: unknown outcome %q", index, ev.Expect.Outcome)
		}
	case step.Commit != nil:
		c := step.Commit
		if c.PostRoot == "" {
			return fmt.Errorf("steps[%d].commit: post_root is required", index)
		}
		if _, err := rollup.ParseRoot(c.PostRoot); err != nil {
			return fmt.Errorf("steps[%d].commit: post_root: %w", index, err)
		}
		if c.PreRoot != "" {
			if _, err := rollup.ParseRoot(c.PreRoot); err != nil {
				return fmt.Errorf("steps[%d].commit: pre_root: %w", index, err)
			}
		}
	default:
		return fmt.Errorf("steps[%d]: one of event or commit is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needKind := func() error {
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for %s", index, a.Type)
		}
		if _, err := record.ParseKind(a.Kind); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		return nil
	}

	switch a.Type {
	case AssertTraceContains, AssertTraceCount:
		if !outcomes[a.Outcome] {
			return fmt.Errorf("assertions[%d]: unknown outcome %q for %s", index, a.Outcome, a.Type)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertFinalState:
		if err := needKind(); err != nil {
			return err
		}
		if len(a.Key) == 0 {
			return fmt.Errorf("assertions[%d]: key is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertAbsent:
		if err := needKind(); err != nil {
			return err
		}
		if len(a.Key) == 0 {
			return fmt.Errorf("assertions[%d]: key is required for absent", index)
		}
	case AssertRecordCount:
		if err := needKind(); err != nil {
			return err
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertCheckpoint:
		if _, err := rollup.ParseRoot(a.Root); err != nil {
			return fmt.Errorf("assertions[%d]: checkpoint root: %w", index, err)
		}
	case AssertTracked:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
