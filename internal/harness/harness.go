package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/rollix/internal/frame"
	"github.com/roach88/rollix/internal/ingest"
	"github.com/roach88/rollix/internal/record"
	"github.com/roach88/rollix/internal/rollup"
	"github.com/roach88/rollix/internal/store"
	"github.com/roach88/rollix/internal/testutil"
)

// Harness drives one pipeline through a scenario's steps.
type Harness struct {
	store    *store.Store
	pipeline *ingest.Pipeline
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database with a fixed run id
// and a logical clock starting at zero, so results are reproducible.
//
// Execution flow:
// 1. Create fresh in-memory database and pipeline
// 2. Deliver every step in order, checking per-step expectations
// 3. Snapshot the checkpoint and every read model
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	genesis := rollup.Root{}
	if scenario.GenesisRoot != "" {
		genesis, err = rollup.ParseRoot(scenario.GenesisRoot)
		if err != nil {
			return nil, fmt.Errorf("genesis root: %w", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		store: st,
		pipeline: ingest.NewPipeline(st,
			ingest.WithGenesisRoot(genesis),
			ingest.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)),
			ingest.WithClock(ingest.NewClock()),
			ingest.WithLogger(logger),
		),
		logger: logger,
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.deliver(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute step %d: %w", i+1, err)
		}
	}

	if err := h.snapshot(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to snapshot state: %w", err)
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// deliver hands one step to the pipeline and appends its trace entry.
func (h *Harness) deliver(ctx context.Context, n int, step Step, result *Result) error {
	switch {
	case step.Event != nil:
		ev := step.Event
		rep := h.pipeline.OnEvent(ctx, testutil.Witness(ev.Tx), ev.words())
		entry := eventEntry(n, ev.Tx, rep)
		result.Trace = append(result.Trace, entry)

		if ev.Expect != nil {
			for _, msg := range checkExpect(entry, *ev.Expect) {
				result.AddError(msg)
			}
		}
		return nil

	case step.Commit != nil:
		c := step.Commit
		post, err := rollup.ParseRoot(c.PostRoot)
		if err != nil {
			return fmt.Errorf("post root: %w", err)
		}
		pre := h.pipeline.Root()
		if c.PreRoot != "" {
			if pre, err = rollup.ParseRoot(c.PreRoot); err != nil {
				return fmt.Errorf("pre root: %w", err)
			}
		}

		witnesses := make([]rollup.Witness, len(c.Txs))
		for i, tx := range c.Txs {
			witnesses[i] = testutil.Witness(tx)
		}

		if err := h.pipeline.OnBatchCommitted(ctx, witnesses, pre, post); err != nil {
			result.AddError(fmt.Sprintf("step %d: %v", n, err))
		}
		result.Trace = append(result.Trace, TraceEntry{
			Step:    n,
			Type:    TraceCommit,
			Root:    post.String(),
			TxCount: len(witnesses),
		})
		return nil

	default:
		return fmt.Errorf("step %d has no delivery", n)
	}
}

// words builds the event log the step delivers.
func (ev *EventStep) words() []uint64 {
	if len(ev.Words) > 0 {
		return ev.Words
	}

	frames := make([]frame.Frame, len(ev.Frames))
	for i, f := range ev.Frames {
		frames[i] = frame.Frame{Tag: f.Tag, Payload: f.Payload}
	}
	words := []uint64(frame.Encode(ev.Status, ev.EventID, frames...))

	if ev.Truncate > 0 {
		n := max(len(words)-ev.Truncate, 0)
		words = words[:n]
	}
	return words
}

// checkExpect compares a trace entry with the step's expectation.
func checkExpect(e TraceEntry, want EventExpect) []string {
	var errs []string
	if e.Outcome != want.Outcome {
		errs = append(errs, fmt.Sprintf("step %d: outcome %s, expected %s", e.Step, e.Outcome, want.Outcome))
	}
	check := func(name string, got int, want *int) {
		if want != nil && got != *want {
			errs = append(errs, fmt.Sprintf("step %d: %s %d, expected %d", e.Step, name, got, *want))
		}
	}
	check("upserted", e.Upserted, want.Upserted)
	check("unknown_tags", e.UnknownTags, want.UnknownTags)
	check("failed", e.Failed, want.Failed)
	return errs
}

// snapshot records the checkpoint and every read model into result.
func (h *Harness) snapshot(ctx context.Context, result *Result) error {
	result.Checkpoint = h.pipeline.Root().String()
	result.Tracked = h.pipeline.Tracked()

	for _, kind := range record.Kinds() {
		page, err := h.store.FindPage(ctx, store.Query{Kind: kind})
		if err != nil {
			return err
		}
		records := make([]any, len(page.Records))
		for i, obj := range page.Records {
			v, err := jsonValue(obj)
			if err != nil {
				return fmt.Errorf("%s: %w", obj.Key(), err)
			}
			records[i] = v
		}
		result.State[string(kind)] = records
	}
	return nil
}

// jsonValue round-trips obj through its JSON form. Records encode every
// number as a string, so the result holds only strings, slices and maps.
func jsonValue(obj record.Object) (any, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
