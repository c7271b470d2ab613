package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/rollix/internal/frame"
	"github.com/roach88/rollix/internal/projector"
	"github.com/roach88/rollix/internal/rollup"
	"github.com/roach88/rollix/internal/store"
	"github.com/roach88/rollix/internal/tracker"
)

// Pipeline is the indexer's explicit context object. Construct it once at
// startup and pass it to whatever delivers executor callbacks.
//
// Not safe for concurrent use; see Runner.
type Pipeline struct {
	store     *store.Store
	projector *projector.Projector
	tracker   *tracker.Tracker
	clock     *Clock
	runID     string
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*pipelineConfig)

type pipelineConfig struct {
	genesis  rollup.Root
	runIDGen RunIDGenerator
	clock    *Clock
	logger   *slog.Logger
	projOpts []projector.Option
}

// WithGenesisRoot sets the checkpoint root used before any batch commits.
func WithGenesisRoot(root rollup.Root) Option {
	return func(c *pipelineConfig) { c.genesis = root }
}

// WithRunIDGenerator overrides the UUIDv7 run id generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(c *pipelineConfig) { c.runIDGen = g }
}

// WithClock overrides the logical clock.
func WithClock(clock *Clock) Option {
	return func(c *pipelineConfig) { c.clock = clock }
}

// WithLogger sets the logger for the pipeline and its projector.
func WithLogger(l *slog.Logger) Option {
	return func(c *pipelineConfig) { c.logger = l }
}

// WithProjectorOptions passes options through to the projector.
func WithProjectorOptions(opts ...projector.Option) Option {
	return func(c *pipelineConfig) { c.projOpts = append(c.projOpts, opts...) }
}

// NewPipeline builds a pipeline over s.
func NewPipeline(s *store.Store, opts ...Option) *Pipeline {
	cfg := pipelineConfig{
		runIDGen: UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clock == nil {
		cfg.clock = NewClock()
	}

	projOpts := append([]projector.Option{projector.WithLogger(cfg.logger)}, cfg.projOpts...)
	return &Pipeline{
		store:     s,
		projector: projector.New(s, projOpts...),
		tracker:   tracker.New(cfg.genesis),
		clock:     cfg.clock,
		runID:     cfg.runIDGen.Generate(),
		logger:    cfg.logger,
	}
}

// RunID returns the id of this process run.
func (p *Pipeline) RunID() string { return p.runID }

// Root returns the current checkpoint root.
func (p *Pipeline) Root() rollup.Root { return p.tracker.Root() }

// Tracked returns the number of witnesses tracked since the checkpoint.
func (p *Pipeline) Tracked() int { return p.tracker.Len() }

// Clock returns the pipeline's logical clock.
func (p *Pipeline) Clock() *Clock { return p.clock }

// Report describes what OnEvent did with one transaction.
type Report struct {
	WitnessKey string
	// Duplicate is set when the witness was already tracked; nothing else ran.
	Duplicate bool
	// Skipped is set when the log carries no frames (failed status or too short).
	Skipped bool
	EventID uint64
	Seq     int64
	// Archived is false when the raw event was already archived or the
	// archive write failed.
	Archived bool
	Frames   int
	// Truncated carries the decoder error when the tail of the log was malformed.
	Truncated error
	Summary   projector.Summary
}

// OnEvent handles one transaction delivered by the executor.
//
// Redelivered witnesses are no-ops. Otherwise the raw log is archived, its
// frames are decoded, and each frame is projected. Decode truncation and
// per-frame failures are logged and reported; none of them is returned as
// an error.
func (p *Pipeline) OnEvent(ctx context.Context, w rollup.Witness, words []uint64) Report {
	rep := Report{WitnessKey: w.Key()}

	if p.tracker.RecordTransaction(w) {
		p.logger.Debug("duplicate transaction", "witness", rep.WitnessKey)
		rep.Duplicate = true
		return rep
	}

	log := frame.EventLog(words)
	if !log.HasFrames() {
		status, _ := log.Status()
		p.logger.Debug("event log skipped", "witness", rep.WitnessKey, "status", status, "words", len(words))
		rep.Skipped = true
		return rep
	}

	rep.EventID, _ = log.EventID()
	rep.Seq = p.clock.Next()

	frames, err := log.Frames()
	if err != nil {
		rep.Truncated = err
		p.logger.Warn("event log truncated",
			"witness", rep.WitnessKey,
			"event_id", rep.EventID,
			"frames_decoded", len(frames),
			"error", err,
		)
	}
	rep.Frames = len(frames)

	rep.Archived = p.archive(ctx, rep, words)
	rep.Summary = p.projector.ProjectAll(ctx, frames)

	p.logger.Info("event processed",
		"witness", rep.WitnessKey,
		"event_id", rep.EventID,
		"seq", rep.Seq,
		"frames", rep.Frames,
		"upserted", rep.Summary.Upserted,
		"unknown_tags", rep.Summary.UnknownTags,
		"failed", rep.Summary.Failed,
	)
	return rep
}

// archive stores the raw event log. Failures are logged and never stop
// projection.
func (p *Pipeline) archive(ctx context.Context, rep Report, words []uint64) bool {
	digest, err := rollup.EventDigest(words)
	if err != nil {
		p.logger.Error("event digest failed", "witness", rep.WitnessKey, "error", err)
		return false
	}

	inserted, err := p.store.WriteEvent(ctx, store.RawEvent{
		WitnessKey: rep.WitnessKey,
		Digest:     digest,
		EventID:    rep.EventID,
		Status:     frame.StatusSuccess,
		Words:      words,
		Frames:     rep.Frames,
		Seq:        rep.Seq,
	})
	if err != nil {
		p.logger.Error("event archive failed", "witness", rep.WitnessKey, "event_id", rep.EventID, "error", err)
		return false
	}
	return inserted
}

// OnBatchCommitted handles a finalized batch: the commit is recorded, then
// the checkpoint advances to postRoot and tracking resets.
//
// The checkpoint advances even when recording fails, since the executor has
// already committed the batch; the error is returned for the caller to log.
func (p *Pipeline) OnBatchCommitted(ctx context.Context, witnesses []rollup.Witness, preRoot, postRoot rollup.Root) error {
	seq := p.clock.Next()
	tracked := p.tracker.Len()

	_, err := p.store.WriteCommit(ctx, store.Commit{
		PreRoot:  preRoot,
		PostRoot: postRoot,
		TxCount:  len(witnesses),
		RunID:    p.runID,
		Seq:      seq,
	})

	if cur := p.tracker.Root(); cur != preRoot {
		p.logger.Warn("batch pre-root does not match checkpoint",
			"checkpoint", cur.String(),
			"pre_root", preRoot.String(),
		)
	}
	p.tracker.OnBatchCommitted(postRoot)

	p.logger.Info("batch committed",
		"pre_root", preRoot.String(),
		"post_root", postRoot.String(),
		"tx_count", len(witnesses),
		"tracked", tracked,
		"seq", seq,
	)

	if err != nil {
		return fmt.Errorf("record commit %s: %w", postRoot, err)
	}
	return nil
}

// Resume restores the checkpoint root and clock from the store, so a
// restarted process continues from the last confirmed batch. Tracking is
// not persisted; redelivered transactions are reprocessed idempotently.
func (p *Pipeline) Resume(ctx context.Context) error {
	seq, err := p.store.LastSeq(ctx)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	p.clock.advanceTo(seq)

	latest, err := p.store.LatestCommit(ctx)
	if errors.Is(err, store.ErrNotFound) {
		p.logger.Info("resuming from genesis", "root", p.tracker.Root().String(), "seq", seq)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	p.tracker.OnBatchCommitted(latest.PostRoot)
	p.logger.Info("resumed from checkpoint",
		"root", latest.PostRoot.String(),
		"commit_id", latest.ID,
		"seq", seq,
	)
	return nil
}
