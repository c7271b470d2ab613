package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rollix/internal/frame"
	"github.com/roach88/rollix/internal/projector"
	"github.com/roach88/rollix/internal/record"
	"github.com/roach88/rollix/internal/rollup"
	"github.com/roach88/rollix/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database   string
	WitnessKey string // optional - one witness only
	DryRun     bool
}

// ReplayEventResult holds the replay result for one archived event.
type ReplayEventResult struct {
	WitnessKey  string `json:"witness_key"`
	EventID     uint64 `json:"event_id,string"`
	Seq         int64  `json:"seq"`
	Frames      int    `json:"frames"`
	Upserted    int    `json:"upserted"`
	UnknownTags int    `json:"unknown_tags"`
	Failed      int    `json:"failed"`
	Truncated   bool   `json:"truncated"`
	Verified    bool   `json:"verified"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Events      []ReplayEventResult `json:"events"`
	TotalEvents int                 `json:"total_events"`
	Upserted    int                 `json:"upserted"`
	Failed      int                 `json:"failed"`
	AllVerified bool                `json:"all_verified"`
	DryRun      bool                `json:"dry_run"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild read models from the archived event logs",
		Long: `Re-project every archived event log, in arrival order, into the read
models. Each archived log is first checked against its stored digest.

Projection is idempotent, so replaying over existing read models converges
on the same state. Use --dry-run to decode and verify without writing.

Exit codes:
  0 - All events verified and projected
  1 - A digest mismatch or failed frame was found
  2 - Command error (database not found, etc.)

Examples:
  rollix replay --db ./rollix.db
  rollix replay --db ./rollix.db --dry-run --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().StringVar(&opts.WitnessKey, "witness", "", "replay one witness key only")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "decode and verify without writing")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	st, cfg, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := opts.setupLogging(cfg, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var events []store.RawEvent
	if opts.WitnessKey != "" {
		events, err = st.ReadEvents(ctx, opts.WitnessKey)
	} else {
		events, err = st.ListEvents(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read archived events", err)
	}

	var upserter projector.Upserter = st
	if opts.DryRun {
		upserter = discardUpserter{}
	}
	p := projector.New(upserter, projector.WithLogger(logger))

	result := ReplayResult{
		Events:      make([]ReplayEventResult, 0, len(events)),
		TotalEvents: len(events),
		AllVerified: true,
		DryRun:      opts.DryRun,
	}
	for _, ev := range events {
		er := replayEvent(ctx, p, ev)
		result.Events = append(result.Events, er)
		result.Upserted += er.Upserted
		result.Failed += er.Failed
		if !er.Verified {
			result.AllVerified = false
		}
	}

	f := opts.formatter(cmd)
	if err := f.Render(result, func(w io.Writer) error {
		return outputReplayText(w, result, opts.Verbose)
	}); err != nil {
		return err
	}

	if !result.AllVerified || result.Failed > 0 {
		return NewExitError(ExitFailure, "replay found corrupt or unprojectable events")
	}
	return nil
}

// replayEvent verifies one archived log and projects its frames. A log
// whose digest does not match is not projected.
func replayEvent(ctx context.Context, p *projector.Projector, ev store.RawEvent) ReplayEventResult {
	er := ReplayEventResult{
		WitnessKey: ev.WitnessKey,
		EventID:    ev.EventID,
		Seq:        ev.Seq,
	}

	digest, err := rollup.EventDigest(ev.Words)
	er.Verified = err == nil && digest == ev.Digest
	if !er.Verified {
		return er
	}

	frames, err := frame.EventLog(ev.Words).Frames()
	er.Truncated = err != nil
	er.Frames = len(frames)

	summary := p.ProjectAll(ctx, frames)
	er.Upserted = summary.Upserted
	er.UnknownTags = summary.UnknownTags
	er.Failed = summary.Failed
	return er
}

// discardUpserter accepts every record without storing it.
type discardUpserter struct{}

func (discardUpserter) Upsert(context.Context, record.Object) error { return nil }

func outputReplayText(w io.Writer, r ReplayResult, verbose bool) error {
	if r.TotalEvents == 0 {
		_, err := fmt.Fprintln(w, "No archived events found.")
		return err
	}

	mode := "Replayed"
	if r.DryRun {
		mode = "Verified (dry run)"
	}
	fmt.Fprintf(w, "%s %d events: %d records upserted, %d frames failed\n",
		mode, r.TotalEvents, r.Upserted, r.Failed)

	for _, er := range r.Events {
		if !verbose && er.Verified && er.Failed == 0 {
			continue
		}
		status := "ok"
		switch {
		case !er.Verified:
			status = "DIGEST MISMATCH"
		case er.Failed > 0:
			status = fmt.Sprintf("%d failed", er.Failed)
		}
		fmt.Fprintf(w, "  seq %d event %d witness %s: %d frames, %s\n",
			er.Seq, er.EventID, truncateID(er.WitnessKey), er.Frames, status)
	}

	if r.AllVerified {
		fmt.Fprintln(w, "✓ All archived events verified")
	}
	return nil
}

// truncateID shortens a hash for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:16] + "..."
}
