package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rollix/internal/ingest"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Database string
	Strict   bool

	// RunIDGenerator allows overriding the run id generator (for testing).
	RunIDGenerator ingest.RunIDGenerator
}

// IngestResult summarizes one feed replay.
type IngestResult struct {
	RunID      string `json:"run_id"`
	Deliveries int    `json:"deliveries"`
	Events     int64  `json:"events"`
	Duplicates int64  `json:"duplicates"`
	Skipped    int64  `json:"skipped"`
	Truncated  int64  `json:"truncated"`
	Upserted   int64  `json:"upserted"`
	Failed     int64  `json:"failed"`
	Commits    int64  `json:"commits"`
	Errors     int64  `json:"errors"`
	Checkpoint string `json:"checkpoint"`
	Tracked    int    `json:"tracked"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <feed>",
		Short: "Replay a delivery feed into the database and exit",
		Long: `Replay a JSONL feed of executor deliveries (transaction events and batch
commits) through the indexer, then print what was processed.

Exit codes:
  0 - Feed processed
  1 - --strict and some frames failed, logs were truncated or deliveries errored
  2 - Command error (feed unreadable or malformed, database error, etc.)

Examples:
  rollix ingest --db ./rollix.db ./deliveries.jsonl
  rollix ingest --db ./rollix.db ./deliveries.jsonl --strict --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit non-zero when any frame or delivery failed")

	return cmd
}

func runIngest(opts *IngestOptions, feedPath string, cmd *cobra.Command) error {
	deliveries, err := readFeed(feedPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read feed", err)
	}

	st, cfg, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := opts.setupLogging(cfg, cmd.ErrOrStderr())

	genesis, err := cfg.Root()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid genesis root", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pipeOpts := []ingest.Option{
		ingest.WithGenesisRoot(genesis),
		ingest.WithLogger(logger),
	}
	if opts.RunIDGenerator != nil {
		pipeOpts = append(pipeOpts, ingest.WithRunIDGenerator(opts.RunIDGenerator))
	}
	pipeline := ingest.NewPipeline(st, pipeOpts...)
	if err := pipeline.Resume(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to resume", err)
	}

	runner := ingest.NewRunner(pipeline)
	for _, d := range deliveries {
		runner.Enqueue(d)
	}
	runner.Stop()

	// The queue is closed, so Run returns once it is drained.
	if err := runner.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "ingest interrupted", err)
	}

	stats := runner.Stats()
	result := IngestResult{
		RunID:      pipeline.RunID(),
		Deliveries: len(deliveries),
		Events:     stats.Events,
		Duplicates: stats.Duplicates,
		Skipped:    stats.Skipped,
		Truncated:  stats.Truncated,
		Upserted:   stats.Upserted,
		Failed:     stats.Failed,
		Commits:    stats.Commits,
		Errors:     stats.Errors,
		Checkpoint: pipeline.Root().String(),
		Tracked:    pipeline.Tracked(),
	}

	f := opts.formatter(cmd)
	if err := f.Render(result, func(w io.Writer) error {
		return outputIngestText(w, result)
	}); err != nil {
		return err
	}

	if opts.Strict && (result.Failed > 0 || result.Truncated > 0 || result.Errors > 0) {
		return NewExitError(ExitFailure, fmt.Sprintf(
			"ingest completed with %d failed frames, %d truncated logs, %d delivery errors",
			result.Failed, result.Truncated, result.Errors))
	}
	return nil
}

func outputIngestText(w io.Writer, r IngestResult) error {
	fmt.Fprintf(w, "Ingested %d deliveries (run %s)\n", r.Deliveries, r.RunID)
	fmt.Fprintf(w, "  events:     %d (duplicates %d, skipped %d, truncated %d)\n",
		r.Events, r.Duplicates, r.Skipped, r.Truncated)
	fmt.Fprintf(w, "  frames:     %d upserted, %d failed\n", r.Upserted, r.Failed)
	fmt.Fprintf(w, "  commits:    %d\n", r.Commits)
	if r.Errors > 0 {
		fmt.Fprintf(w, "  errors:     %d\n", r.Errors)
	}
	_, err := fmt.Fprintf(w, "Checkpoint: %s (%d tracked)\n", r.Checkpoint, r.Tracked)
	return err
}
