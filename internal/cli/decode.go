package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rollix/internal/frame"
	"github.com/roach88/rollix/internal/projector"
	"github.com/roach88/rollix/internal/record"
)

// DecodeResult is the decoded view of one event log.
type DecodeResult struct {
	Words     int         `json:"words"`
	Status    uint64      `json:"status,string"`
	EventID   uint64      `json:"event_id,string"`
	Succeeded bool        `json:"succeeded"`
	Frames    []FrameView `json:"frames"`
	Truncated string      `json:"truncated,omitempty"`
}

// FrameView is one decoded frame and the record it projects to, if any.
type FrameView struct {
	Tag     uint32        `json:"tag"`
	Payload record.Words  `json:"payload"`
	Key     string        `json:"key,omitempty"`
	Object  record.Object `json:"object,omitempty"`
	Unknown bool          `json:"unknown,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <words...>",
		Short: "Decode an event log and show the records it projects to",
		Long: `Decode one transaction's event log without touching any database.

Words are decimal or 0x-prefixed hex; commas between words are accepted.
The first word is the status, the second the event id, and the rest are
frames.

Exit codes:
  0 - Log decoded cleanly
  1 - Log truncated or a frame failed to decode
  2 - Command error (unparseable word)

Example:
  rollix decode 0 7 0x100000004 10 20 5 42`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runDecode(opts *RootOptions, args []string, cmd *cobra.Command) error {
	words, err := parseWords(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid word", err)
	}

	result := decodeLog(projector.New(nil), words)

	f := opts.formatter(cmd)
	if err := f.Render(result, func(w io.Writer) error {
		return outputDecodeText(w, result)
	}); err != nil {
		return err
	}

	failed := result.Truncated != ""
	for _, fv := range result.Frames {
		failed = failed || fv.Error != ""
	}
	if failed {
		return NewExitError(ExitFailure, "event log did not decode cleanly")
	}
	return nil
}

// parseWords accepts decimal or 0x-prefixed hex words, separated by
// arguments or commas.
func parseWords(args []string) ([]uint64, error) {
	var words []uint64
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			var (
				v   uint64
				err error
			)
			if hex, ok := strings.CutPrefix(strings.ToLower(field), "0x"); ok {
				v, err = strconv.ParseUint(hex, 16, 64)
			} else {
				v, err = strconv.ParseUint(field, 10, 64)
			}
			if err != nil {
				return nil, fmt.Errorf("%q: %w", field, err)
			}
			words = append(words, v)
		}
	}
	return words, nil
}

// decodeLog decodes words and resolves each frame with p.
func decodeLog(p *projector.Projector, words []uint64) DecodeResult {
	log := frame.EventLog(words)
	result := DecodeResult{
		Words:     len(words),
		Succeeded: log.Succeeded(),
		Frames:    []FrameView{},
	}
	result.Status, _ = log.Status()
	result.EventID, _ = log.EventID()

	frames, err := log.Frames()
	if err != nil {
		result.Truncated = err.Error()
	}

	for _, f := range frames {
		fv := FrameView{Tag: f.Tag, Payload: record.Words(f.Payload)}
		obj, known, err := p.Decode(f)
		switch {
		case !known:
			fv.Unknown = true
		case err != nil:
			fv.Error = err.Error()
		default:
			fv.Key = obj.Key().String()
			fv.Object = obj
		}
		result.Frames = append(result.Frames, fv)
	}
	return result
}

func outputDecodeText(w io.Writer, r DecodeResult) error {
	status := "success"
	if !r.Succeeded {
		status = "failed"
	}
	fmt.Fprintf(w, "status %d (%s), event %d, %d words, %d frames\n",
		r.Status, status, r.EventID, r.Words, len(r.Frames))

	for i, fv := range r.Frames {
		prefix := fmt.Sprintf("  [%d] frame(tag=%d, len=%d)", i, fv.Tag, len(fv.Payload))
		switch {
		case fv.Unknown:
			fmt.Fprintf(w, "%s unknown tag\n", prefix)
		case fv.Error != "":
			fmt.Fprintf(w, "%s error: %s\n", prefix, fv.Error)
		default:
			data, err := json.Marshal(fv.Object)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s %s\n", prefix, fv.Key, data)
		}
	}

	if r.Truncated != "" {
		fmt.Fprintf(w, "truncated: %s\n", r.Truncated)
	}
	return nil
}
