package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rollix/internal/projector"
	"github.com/roach88/rollix/internal/rollup"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
}

// TraceEvent is one archived log of the traced witness.
type TraceEvent struct {
	Seq    int64        `json:"seq"`
	Digest string       `json:"digest"`
	Log    DecodeResult `json:"log"`
}

// TraceResult holds everything archived for one witness.
type TraceResult struct {
	WitnessKey string       `json:"witness_key"`
	Events     []TraceEvent `json:"events"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <witness>",
		Short: "Show the archived event logs of one transaction",
		Long: `Show every archived event log of one transaction, decoded frame by frame.

The witness is either its key, as reported in logs, or the witness itself
as a JSON object with msg, pkx, pky, sigx, sigy and sigr fields.

Exit codes:
  0 - Witness found
  2 - Command error (no archived events, bad witness, database error)

Examples:
  rollix trace --db ./rollix.db 3f9a...
  rollix trace --db ./rollix.db '{"msg":"0x01","pkx":"0x02",...}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	return cmd
}

func runTrace(opts *TraceOptions, arg string, cmd *cobra.Command) error {
	key, err := witnessKey(arg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid witness", err)
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
	events, err := st.ReadEvents(ctx, key)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read archived events", err)
	}
	if len(events) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no archived events for witness %s", key))
	}

	p := projector.New(nil)
	result := TraceResult{WitnessKey: key, Events: make([]TraceEvent, len(events))}
	for i, ev := range events {
		result.Events[i] = TraceEvent{
			Seq:    ev.Seq,
			Digest: ev.Digest,
			Log:    decodeLog(p, ev.Words),
		}
	}

	return opts.formatter(cmd).Render(result, func(w io.Writer) error {
		return outputTraceText(w, result)
	})
}

// witnessKey accepts a witness key or a JSON witness.
func witnessKey(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if !strings.HasPrefix(arg, "{") {
		if arg == "" {
			return "", fmt.Errorf("empty witness key")
		}
		return arg, nil
	}

	var w rollup.Witness
	dec := json.NewDecoder(strings.NewReader(arg))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return "", fmt.Errorf("parse witness: %w", err)
	}
	if w.IsZero() {
		return "", fmt.Errorf("witness has no fields set")
	}
	return w.Key(), nil
}

func outputTraceText(w io.Writer, r TraceResult) error {
	fmt.Fprintf(w, "Witness %s: %d archived logs\n", r.WitnessKey, len(r.Events))
	for _, ev := range r.Events {
		fmt.Fprintf(w, "\nseq %d digest %s\n", ev.Seq, truncateID(ev.Digest))
		if err := outputDecodeText(w, ev.Log); err != nil {
			return err
		}
	}
	return nil
}
