package harness

import "github.com/roach88/rollix/internal/ingest"

// Trace entry types.
const (
	TraceEvent  = "event"
	TraceCommit = "commit"
)

// Event outcomes recorded in the trace.
const (
	OutcomeProcessed = "processed"
	OutcomeTruncated = "truncated"
	OutcomeDuplicate = "duplicate"
	OutcomeSkipped   = "skipped"
)

// TraceEntry records what the pipeline did with one scenario step.
type TraceEntry struct {
	Step int    `json:"step"`
	Type string `json:"type"`

	// Event fields.
	Tx          int    `json:"tx,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	EventID     uint64 `json:"event_id,omitempty"`
	Seq         int64  `json:"seq,omitempty"`
	Frames      int    `json:"frames,omitempty"`
	Upserted    int    `json:"upserted,omitempty"`
	UnknownTags int    `json:"unknown_tags,omitempty"`
	Failed      int    `json:"failed,omitempty"`

	// Commit fields.
	Root    string `json:"root,omitempty"`
	TxCount int    `json:"tx_count,omitempty"`
}

// canonical renders the entry for golden snapshots. Zero fields are omitted
// so event and commit entries stay distinct.
func (e TraceEntry) canonical() map[string]any {
	m := map[string]any{
		"step": e.Step,
		"type": e.Type,
	}
	put := func(k string, v int) {
		if v != 0 {
			m[k] = v
		}
	}
	switch e.Type {
	case TraceEvent:
		m["tx"] = e.Tx
		m["outcome"] = e.Outcome
		if e.EventID != 0 {
			m["event_id"] = e.EventID
		}
		if e.Seq != 0 {
			m["seq"] = e.Seq
		}
		put("frames", e.Frames)
		put("upserted", e.Upserted)
		put("unknown_tags", e.UnknownTags)
		put("failed", e.Failed)
	case TraceCommit:
		m["root"] = e.Root
		m["tx_count"] = e.TxCount
	}
	return m
}

func eventEntry(step, tx int, rep ingest.Report) TraceEntry {
	e := TraceEntry{
		Step:    step,
		Type:    TraceEvent,
		Tx:      tx,
		EventID: rep.EventID,
		Seq:     rep.Seq,
		Frames:  rep.Frames,
	}
	switch {
	case rep.Duplicate:
		e.Outcome = OutcomeDuplicate
	case rep.Skipped:
		e.Outcome = OutcomeSkipped
	case rep.Truncated != nil:
		e.Outcome = OutcomeTruncated
	default:
		e.Outcome = OutcomeProcessed
	}
	e.Upserted = rep.Summary.Upserted
	e.UnknownTags = rep.Summary.UnknownTags
	e.Failed = rep.Summary.Failed
	return e
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one entry per scenario step, in order.
	Trace []TraceEntry `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Checkpoint is the tracker root after the last step.
	Checkpoint string `json:"checkpoint"`

	// Tracked is the number of transactions awaiting a batch commit.
	Tracked int `json:"tracked"`

	// State holds every read model record after the last step, keyed by kind.
	State map[string][]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEntry{},
		Errors: []string{},
		State:  make(map[string][]any),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
