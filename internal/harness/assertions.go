package harness

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/rollix/internal/record"
	"github.com/roach88/rollix/internal/rollup"
	"github.com/roach88/rollix/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEntry // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, entry := range e.Trace {
			if entry.Type == TraceCommit {
				fmt.Fprintf(&buf, "  [%d] commit %s (%d txs)\n", entry.Step, entry.Root, entry.TxCount)
				continue
			}
			fmt.Fprintf(&buf, "  [%d] tx %d %s\n", entry.Step, entry.Tx, entry.Outcome)
		}
	}

	return buf.String()
}

// assertTraceContains checks that an event with the given outcome (and tx,
// when set) appears in the trace.
func assertTraceContains(trace []TraceEntry, a Assertion) error {
	for _, e := range trace {
		if e.Type == TraceEvent && e.Outcome == a.Outcome && (a.Tx == 0 || e.Tx == a.Tx) {
			return nil
		}
	}

	want := fmt.Sprintf("event with outcome %s", a.Outcome)
	if a.Tx != 0 {
		want = fmt.Sprintf("tx %d with outcome %s", a.Tx, a.Outcome)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: want,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceCount checks that exactly Count events have the given outcome.
func assertTraceCount(trace []TraceEntry, a Assertion) error {
	count := 0
	for _, e := range trace {
		if e.Type == TraceEvent && e.Outcome == a.Outcome {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s events", a.Count, a.Outcome),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState loads one record and checks its JSON fields with subset
// semantics. An expected null means the field must be absent.
func assertFinalState(ctx context.Context, st *store.Store, a Assertion) error {
	key := record.Key{Kind: record.Kind(a.Kind), Parts: a.Key}

	obj, err := st.Find(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("record %s", key),
			Actual:   "record not found",
		}
	}
	if err != nil {
		return fmt.Errorf("final_state %s: %w", key, err)
	}

	v, err := jsonValue(obj)
	if err != nil {
		return fmt.Errorf("final_state %s: %w", key, err)
	}
	actual, _ := v.(map[string]any)

	for field, want := range a.Expect {
		got, exists := actual[field]
		if want == nil {
			if exists {
				return &AssertionError{
					Type:     AssertFinalState,
					Expected: fmt.Sprintf("%s.%s absent", key, field),
					Actual:   fmt.Sprintf("%v", got),
				}
			}
			continue
		}
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", key, field, want),
				Actual:   "field missing",
			}
		}
		if !valuesEqual(got, want) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", key, field, normalize(want)),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}

// assertAbsent checks that no record exists under the key.
func assertAbsent(ctx context.Context, st *store.Store, a Assertion) error {
	key := record.Key{Kind: record.Kind(a.Kind), Parts: a.Key}

	_, err := st.Find(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("absent %s: %w", key, err)
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Expected: fmt.Sprintf("no record %s", key),
		Actual:   "record exists",
	}
}

// assertRecordCount checks the number of records of one kind.
func assertRecordCount(ctx context.Context, st *store.Store, a Assertion) error {
	n, err := st.Count(ctx, record.Kind(a.Kind))
	if err != nil {
		return fmt.Errorf("record_count %s: %w", a.Kind, err)
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertRecordCount,
			Expected: fmt.Sprintf("%d %s records", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d records", n),
		}
	}
	return nil
}

// valuesEqual compares a decoded JSON value with a YAML expectation.
// Records encode numbers as strings, so scalars are compared in text form.
func valuesEqual(actual, expected any) bool {
	return reflect.DeepEqual(actual, normalize(expected))
}

// normalize maps a YAML value onto the shape of decoded record JSON.
func normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalize(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalize(elem)
		}
		return out
	default:
		return fmt.Sprint(val)
	}
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for read model assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertCheckpoint:
			if result.Checkpoint != normalizeRoot(a.Root) {
				err = &AssertionError{
					Type:     AssertCheckpoint,
					Expected: normalizeRoot(a.Root),
					Actual:   result.Checkpoint,
					Trace:    result.Trace,
				}
			}
		case AssertTracked:
			if result.Tracked != a.Count {
				err = &AssertionError{
					Type:     AssertTracked,
					Expected: fmt.Sprintf("%d tracked transactions", a.Count),
					Actual:   fmt.Sprintf("%d", result.Tracked),
					Trace:    result.Trace,
				}
			}
		case AssertFinalState, AssertAbsent, AssertRecordCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, a.Type)
				break
			}
			switch a.Type {
			case AssertFinalState:
				err = assertFinalState(actx.Ctx, actx.Store, a)
			case AssertAbsent:
				err = assertAbsent(actx.Ctx, actx.Store, a)
			default:
				err = assertRecordCount(actx.Ctx, actx.Store, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

// normalizeRoot renders a root the way Root.String does.
func normalizeRoot(s string) string {
	r, err := rollup.ParseRoot(s)
	if err != nil {
		return s
	}
	return r.String()
}
