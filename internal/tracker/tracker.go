// Package tracker dedups transaction redelivery within a commit checkpoint.
//
// A Tracker holds the last confirmed state root and the set of witnesses seen
// since that root. The set only shrinks when a batch commits, which makes the
// commit callback the boundary at which projected effects count as durable.
//
// Not safe for concurrent use: callers must serialize callbacks, as the
// ingest runner does.
package tracker

import "github.com/roach88/rollix/internal/rollup"

// Tracker is the commit checkpoint state machine.
type Tracker struct {
	root    rollup.Root
	tracked map[string]struct{}
	// order keeps witness keys in arrival order for Witnesses.
	order []string
}

// New creates a tracker at the given checkpoint root with nothing tracked.
func New(root rollup.Root) *Tracker {
	return &Tracker{
		root:    root,
		tracked: make(map[string]struct{}),
	}
}

// RecordTransaction tracks w and reports whether it was already tracked
// since the current checkpoint. A true result has no side effects; the
// caller must skip decoding and projection.
func (t *Tracker) RecordTransaction(w rollup.Witness) (alreadyTracked bool) {
	key := w.Key()
	if _, ok := t.tracked[key]; ok {
		return true
	}
	t.tracked[key] = struct{}{}
	t.order = append(t.order, key)
	return false
}

// OnBatchCommitted advances the checkpoint to root and forgets every
// tracked witness.
func (t *Tracker) OnBatchCommitted(root rollup.Root) {
	t.root = root
	t.tracked = make(map[string]struct{})
	t.order = nil
}

// Root returns the current checkpoint root.
func (t *Tracker) Root() rollup.Root {
	return t.root
}

// Len returns the number of witnesses tracked since the checkpoint.
func (t *Tracker) Len() int {
	return len(t.tracked)
}

// Contains reports whether w is tracked.
func (t *Tracker) Contains(w rollup.Witness) bool {
	_, ok := t.tracked[w.Key()]
	return ok
}

// Witnesses returns the tracked witness keys in arrival order.
func (t *Tracker) Witnesses() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}
