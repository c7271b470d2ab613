package record

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Words is a uint64 sequence that encodes to JSON as decimal strings.
type Words []uint64

func (w Words) MarshalJSON() ([]byte, error) {
	strs := make([]string, len(w))
	for i, v := range w {
		strs[i] = strconv.FormatUint(v, 10)
	}
	return json.Marshal(strs)
}

// UnmarshalJSON accepts decimal strings or plain JSON numbers.
func (w *Words) UnmarshalJSON(data []byte) error {
	var raw []json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("words: %w", err)
	}
	out := make(Words, len(raw))
	for i, n := range raw {
		v, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("words[%d]: %w", i, err)
		}
		out[i] = v
	}
	*w = out
	return nil
}

// Clone returns a copy that shares no memory with w.
func (w Words) Clone() Words {
	if w == nil {
		return Words{}
	}
	out := make(Words, len(w))
	copy(out, w)
	return out
}

// PlayerID is the executor's two-word player identifier.
type PlayerID [2]uint64

func (p PlayerID) MarshalJSON() ([]byte, error) {
	return Words(p[:]).MarshalJSON()
}

func (p *PlayerID) UnmarshalJSON(data []byte) error {
	var w Words
	if err := w.UnmarshalJSON(data); err != nil {
		return err
	}
	if len(w) != 2 {
		return fmt.Errorf("player id: want 2 words, got %d", len(w))
	}
	copy(p[:], w)
	return nil
}

// IsZero reports whether both words are zero.
func (p PlayerID) IsZero() bool {
	return p == PlayerID{}
}
