// Package feed reads and writes recorded executor deliveries as JSON Lines.
//
// Each line is one delivery:
//
//	{"type":"event","witness":{...},"words":["0","7","4294967299","10","20","30"]}
//	{"type":"commit","witnesses":[{...}],"pre_root":"0x..","post_root":"0x.."}
//
// Words accept decimal strings or JSON numbers; roots are hex. Blank lines
// and lines starting with '#' are ignored.
package feed

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/rollix/internal/ingest"
	"github.com/roach88/rollix/internal/record"
	"github.com/roach88/rollix/internal/rollup"
)

const (
	typeEvent  = "event"
	typeCommit = "commit"
)

// maxLine bounds a single delivery line.
const maxLine = 16 << 20

type line struct {
	Type      string           `json:"type"`
	Witness   *rollup.Witness  `json:"witness,omitempty"`
	Words     *record.Words    `json:"words,omitempty"`
	Witnesses []rollup.Witness `json:"witnesses,omitempty"`
	PreRoot   *rollup.Root     `json:"pre_root,omitempty"`
	PostRoot  *rollup.Root     `json:"post_root,omitempty"`
}

// LineError reports a malformed line.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("feed line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Reader decodes deliveries from a JSON Lines stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Reader{scanner: sc}
}

// Next returns the next delivery, or io.EOF at the end of the stream.
func (r *Reader) Next() (ingest.Delivery, error) {
	for r.scanner.Scan() {
		r.line++
		text := bytes.TrimSpace(r.scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}

		d, err := parseLine(text)
		if err != nil {
			return ingest.Delivery{}, &LineError{Line: r.line, Err: err}
		}
		return d, nil
	}
	if err := r.scanner.Err(); err != nil {
		return ingest.Delivery{}, &LineError{Line: r.line + 1, Err: err}
	}
	return ingest.Delivery{}, io.EOF
}

// ReadAll reads every remaining delivery.
func (r *Reader) ReadAll() ([]ingest.Delivery, error) {
	var out []ingest.Delivery
	for {
		d, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
}

func parseLine(text []byte) (ingest.Delivery, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.DisallowUnknownFields()

	var l line
	if err := dec.Decode(&l); err != nil {
		return ingest.Delivery{}, err
	}
	if dec.More() {
		return ingest.Delivery{}, errors.New("trailing data after delivery")
	}

	switch l.Type {
	case typeEvent:
		if l.Witness == nil {
			return ingest.Delivery{}, errors.New("event: missing witness")
		}
		if l.Words == nil {
			return ingest.Delivery{}, errors.New("event: missing words")
		}
		if l.Witnesses != nil || l.PreRoot != nil || l.PostRoot != nil {
			return ingest.Delivery{}, errors.New("event: commit fields not allowed")
		}
		return ingest.EventDelivery(*l.Witness, []uint64(*l.Words)), nil

	case typeCommit:
		if l.PreRoot == nil || l.PostRoot == nil {
			return ingest.Delivery{}, errors.New("commit: pre_root and post_root are required")
		}
		if l.Witness != nil || l.Words != nil {
			return ingest.Delivery{}, errors.New("commit: event fields not allowed")
		}
		return ingest.CommitDelivery(l.Witnesses, *l.PreRoot, *l.PostRoot), nil

	case "":
		return ingest.Delivery{}, errors.New("missing type")
	default:
		return ingest.Delivery{}, fmt.Errorf("unknown type %q", l.Type)
	}
}

// Writer encodes deliveries as JSON Lines.
type Writer struct {
	w io.Writer
}

// NewWriter creates a writer to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write appends one delivery line.
func (w *Writer) Write(d ingest.Delivery) error {
	var l line
	switch d.Type {
	case ingest.DeliveryEvent:
		witness := d.Witness
		words := record.Words(d.Words)
		if words == nil {
			words = record.Words{}
		}
		l = line{Type: typeEvent, Witness: &witness, Words: &words}
	case ingest.DeliveryCommit:
		pre, post := d.PreRoot, d.PostRoot
		l = line{Type: typeCommit, Witnesses: d.Witnesses, PreRoot: &pre, PostRoot: &post}
	default:
		return fmt.Errorf("write feed: unknown delivery type %s", d.Type)
	}

	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}
