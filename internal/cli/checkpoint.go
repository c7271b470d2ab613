package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rollix/internal/store"
)

// CheckpointOptions holds flags for the checkpoint command.
type CheckpointOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// CommitView is one recorded batch commit.
type CommitView struct {
	ID       int64  `json:"id"`
	PreRoot  string `json:"pre_root"`
	PostRoot string `json:"post_root"`
	TxCount  int    `json:"tx_count"`
	RunID    string `json:"run_id"`
	Seq      int64  `json:"seq"`
}

// CheckpointResult is the commit history, newest first.
type CheckpointResult struct {
	Checkpoint string       `json:"checkpoint,omitempty"`
	Commits    []CommitView `json:"commits"`
}

// NewCheckpointCommand creates the checkpoint command.
func NewCheckpointCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckpointOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Show the batch commit history",
		Long: `Show recorded batch commits, newest first. The newest post-root is the
checkpoint the indexer resumes from.

Examples:
  rollix checkpoint --db ./rollix.db
  rollix checkpoint --db ./rollix.db --limit 0 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckpoint(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "commits to show (0 = all)")

	return cmd
}

func runCheckpoint(opts *CheckpointOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "limit must be non-negative")
	}

	st, _, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	commits, err := st.ListCommits(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list commits", err)
	}

	result := CheckpointResult{Commits: make([]CommitView, len(commits))}
	for i, c := range commits {
		result.Commits[i] = commitView(c)
	}
	if len(commits) > 0 {
		result.Checkpoint = result.Commits[0].PostRoot
	}

	return opts.formatter(cmd).Render(result, func(w io.Writer) error {
		return outputCheckpointText(w, result)
	})
}

func commitView(c store.Commit) CommitView {
	return CommitView{
		ID:       c.ID,
		PreRoot:  c.PreRoot.String(),
		PostRoot: c.PostRoot.String(),
		TxCount:  c.TxCount,
		RunID:    c.RunID,
		Seq:      c.Seq,
	}
}

func outputCheckpointText(w io.Writer, r CheckpointResult) error {
	if len(r.Commits) == 0 {
		_, err := fmt.Fprintln(w, "No commits recorded.")
		return err
	}

	fmt.Fprintf(w, "Checkpoint: %s\n\n", r.Checkpoint)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEQ\tTXS\tPOST ROOT\tRUN")
	for _, c := range r.Commits {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n", c.ID, c.Seq, c.TxCount, c.PostRoot, c.RunID)
	}
	return tw.Flush()
}
