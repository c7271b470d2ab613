package rollup

import (
	"fmt"
	"strings"
)

// Witness is the executor's record of one submitted, signed transaction.
//
// All fields are opaque hex strings as produced by the executor; the indexer
// never interprets them beyond identity.
type Witness struct {
	Msg  string `json:"msg" yaml:"msg"`
	PKX  string `json:"pkx" yaml:"pkx"`
	PKY  string `json:"pky" yaml:"pky"`
	SigX string `json:"sigx" yaml:"sigx"`
	SigY string `json:"sigy" yaml:"sigy"`
	SigR string `json:"sigr" yaml:"sigr"`
}

// Key returns the content-addressed identity of the witness.
// Hex fields are compared case-insensitively.
func (w Witness) Key() string {
	obj := map[string]any{
		"msg":  strings.ToLower(w.Msg),
		"pkx":  strings.ToLower(w.PKX),
		"pky":  strings.ToLower(w.PKY),
		"sigx": strings.ToLower(w.SigX),
		"sigy": strings.ToLower(w.SigY),
		"sigr": strings.ToLower(w.SigR),
	}

	// Only strings are involved, so canonical marshalling cannot fail.
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		panic(fmt.Sprintf("witness key: %v", err))
	}
	return hashWithDomain(DomainWitness, canonical)
}

// IsZero reports whether the witness carries no data at all.
func (w Witness) IsZero() bool {
	return w == Witness{}
}
