package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rollix/internal/rollup"
)

// GoldenDir is where golden snapshots live, relative to the test package.
const GoldenDir = "testdata/golden"

// GoldenSuffix is the golden file extension.
const GoldenSuffix = ".golden"

// Snapshot renders a result as canonical JSON for golden comparison: the
// trace, the final checkpoint and every read model.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, e := range result.Trace {
		trace[i] = e.canonical()
	}

	state := make(map[string]any, len(result.State))
	for kind, records := range result.State {
		list := records
		if list == nil {
			list = []any{}
		}
		state[kind] = list
	}

	return rollup.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"checkpoint":    result.Checkpoint,
		"tracked":       result.Tracked,
		"trace":         trace,
		"state":         state,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	g.Assert(t, scenarioName, snapshot)
	return nil
}
