package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Stats counts what a Runner has processed.
type Stats struct {
	Events     int64
	Duplicates int64
	Skipped    int64
	Truncated  int64
	Upserted   int64
	Failed     int64
	Commits    int64
	Errors     int64
}

type runnerStats struct {
	events, duplicates, skipped, truncated atomic.Int64
	upserted, failed, commits, errors      atomic.Int64
}

// Runner is the single-writer delivery loop.
//
// Enqueue is safe from any goroutine. Run must be called from exactly one
// goroutine; every Pipeline call happens there, strictly in delivery order.
type Runner struct {
	pipeline *Pipeline
	queue    *deliveryQueue
	stats    runnerStats
	onReport func(Report)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithReportHook calls fn with every event report, from the Run goroutine.
func WithReportHook(fn func(Report)) RunnerOption {
	return func(r *Runner) { r.onReport = fn }
}

// NewRunner creates a runner feeding p.
func NewRunner(p *Pipeline, opts ...RunnerOption) *Runner {
	r := &Runner{
		pipeline: p,
		queue:    newDeliveryQueue(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enqueue submits a delivery. Returns false once the runner is stopped.
func (r *Runner) Enqueue(d Delivery) bool {
	return r.queue.Enqueue(d)
}

// Pending returns the number of queued deliveries.
func (r *Runner) Pending() int {
	return r.queue.Len()
}

// Stop closes the queue. Run drains what is already queued, then returns.
func (r *Runner) Stop() {
	r.queue.Close()
}

// Stats returns a snapshot of the counters.
func (r *Runner) Stats() Stats {
	return Stats{
		Events:     r.stats.events.Load(),
		Duplicates: r.stats.duplicates.Load(),
		Skipped:    r.stats.skipped.Load(),
		Truncated:  r.stats.truncated.Load(),
		Upserted:   r.stats.upserted.Load(),
		Failed:     r.stats.failed.Load(),
		Commits:    r.stats.commits.Load(),
		Errors:     r.stats.errors.Load(),
	}
}

// Run processes deliveries until ctx is cancelled or Stop is called and
// the queue is drained.
//
// A failed delivery is logged and processing continues; the executor's
// redelivery retries it through idempotent projection.
func (r *Runner) Run(ctx context.Context) error {
	slog.Info("runner starting", "run_id", r.pipeline.RunID())

	for {
		d, ok := r.queue.TryDequeue()
		if ok {
			if err := r.process(ctx, d); err != nil {
				r.stats.errors.Add(1)
				slog.Error("delivery failed", "type", d.Type.String(), "error", err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("runner stopping: context cancelled")
			r.queue.Close()
			return ctx.Err()

		case <-r.queue.Wait():
			// A stale signal can arrive with the queue empty but open.
			if r.queue.closedAndEmpty() {
				slog.Info("runner stopping: queue closed")
				return nil
			}
		}
	}
}

// process routes one delivery to the pipeline.
// Called only from the Run goroutine.
func (r *Runner) process(ctx context.Context, d Delivery) error {
	switch d.Type {
	case DeliveryEvent:
		rep := r.pipeline.OnEvent(ctx, d.Witness, d.Words)
		r.count(rep)
		if r.onReport != nil {
			r.onReport(rep)
		}
		return nil

	case DeliveryCommit:
		r.stats.commits.Add(1)
		return r.pipeline.OnBatchCommitted(ctx, d.Witnesses, d.PreRoot, d.PostRoot)

	default:
		return fmt.Errorf("unknown delivery type: %d", d.Type)
	}
}

func (r *Runner) count(rep Report) {
	switch {
	case rep.Duplicate:
		r.stats.duplicates.Add(1)
		return
	case rep.Skipped:
		r.stats.skipped.Add(1)
		return
	}
	r.stats.events.Add(1)
	if rep.Truncated != nil {
		r.stats.truncated.Add(1)
	}
	r.stats.upserted.Add(int64(rep.Summary.Upserted))
	r.stats.failed.Add(int64(rep.Summary.Failed))
}
