package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rollix/internal/record"
	"github.com/roach88/rollix/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database string
	Skip     int
	Limit    int
	IDs      []string
	Owner    string
	Bidder   string
	Player   string
	Open     bool
}

// QueryResult is one page of a read model.
type QueryResult struct {
	Kind    record.Kind     `json:"kind"`
	Total   int             `json:"total"`
	Skip    int             `json:"skip"`
	Limit   int             `json:"limit"`
	Records []record.Object `json:"records"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <kind>",
		Short: "Page through a read model",
		Long: `Page through one read model, ordered by natural key.

Kinds: position, nugget, market, indexed_object.

Players are given as "pid1,pid2". Filters that do not apply to the kind
are rejected.

Examples:
  rollix query market --db ./rollix.db --open
  rollix query market --bidder 30,40 --format json
  rollix query position --player 10,20 --skip 30 --limit 30
  rollix query nugget --ids 100,101`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "records to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size (0 = configured default)")
	cmd.Flags().StringSliceVar(&opts.IDs, "ids", nil, "natural key ids to select")
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "markets listed by this player")
	cmd.Flags().StringVar(&opts.Bidder, "bidder", "", "markets whose highest bid is this player's")
	cmd.Flags().StringVar(&opts.Player, "player", "", "positions held by this player")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "exclude settled markets")

	return cmd
}

func runQuery(opts *QueryOptions, kindArg string, cmd *cobra.Command) error {
	kind, err := record.ParseKind(kindArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid kind", err)
	}

	filter, err := opts.filter()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	st, cfg, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	limit := opts.Limit
	if limit == 0 {
		limit = cfg.Query.DefaultLimit
	}
	q := store.Query{Kind: kind, Filter: filter, Skip: opts.Skip, Limit: limit}
	if err := q.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid query", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	page, err := st.FindPage(ctx, q)
	if err != nil {
		return WrapExitError(ExitCommandError, "query failed", err)
	}

	result := QueryResult{
		Kind:    kind,
		Total:   page.Total,
		Skip:    q.Skip,
		Limit:   q.Limit,
		Records: page.Records,
	}
	if result.Records == nil {
		result.Records = []record.Object{}
	}

	return opts.formatter(cmd).Render(result, func(w io.Writer) error {
		return outputQueryText(w, result)
	})
}

// filter builds the store filter from the flags.
func (o *QueryOptions) filter() (store.Filter, error) {
	var f store.Filter

	for _, s := range o.IDs {
		ids, err := parseWords([]string{s})
		if err != nil {
			return f, fmt.Errorf("ids: %w", err)
		}
		f.IDs = append(f.IDs, ids...)
	}

	var err error
	if f.Owner, err = parsePlayer("owner", o.Owner); err != nil {
		return f, err
	}
	if f.Bidder, err = parsePlayer("bidder", o.Bidder); err != nil {
		return f, err
	}
	if f.Player, err = parsePlayer("player", o.Player); err != nil {
		return f, err
	}
	f.ExcludeSettled = o.Open
	return f, nil
}

// parsePlayer parses "pid1,pid2". Empty input means no filter.
func parsePlayer(flag, s string) (*record.PlayerID, error) {
	if s == "" {
		return nil, nil
	}
	words, err := parseWords([]string{s})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", flag, err)
	}
	if len(words) != 2 {
		return nil, fmt.Errorf("%s: want pid1,pid2, got %d words", flag, len(words))
	}
	return &record.PlayerID{words[0], words[1]}, nil
}

func outputQueryText(w io.Writer, r QueryResult) error {
	fmt.Fprintf(w, "%d of %d %s records (skip %d)\n", len(r.Records), r.Total, r.Kind, r.Skip)
	for _, obj := range r.Records {
		data, err := json.Marshal(obj)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s %s\n", obj.Key(), data)
	}
	return nil
}
