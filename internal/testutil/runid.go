// Package testutil holds deterministic stand-ins and fixture builders shared
// by tests across packages.
package testutil

// FixedRunIDGenerator generates the same run id every time.
//
// Commit rows record the run id, so a fixed one keeps stored state and
// golden snapshots byte-identical across runs.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator returning id.
// If id is empty, Generate() returns "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run id.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
