package projector

import (
	"fmt"

	"github.com/roach88/rollix/internal/record"
)

// Outcome classifies what happened to one frame.
type Outcome int

const (
	OutcomeUpserted Outcome = iota
	OutcomeUnknownTag
	OutcomeDecodeFailed
	OutcomeStoreFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpserted:
		return "upserted"
	case OutcomeUnknownTag:
		return "unknown_tag"
	case OutcomeDecodeFailed:
		return "decode_failed"
	case OutcomeStoreFailed:
		return "store_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the outcome of projecting one frame.
type Result struct {
	Tag     uint32
	Outcome Outcome
	// Key is set when a record was decoded.
	Key *record.Key
	// Err is a *ProjectError for the failed outcomes, nil otherwise.
	Err error
}

// Summary folds the results of one transaction's frames.
type Summary struct {
	Results     []Result
	Upserted    int
	UnknownTags int
	Failed      int
}

// Add folds r into the summary.
func (s *Summary) Add(r Result) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeUpserted:
		s.Upserted++
	case OutcomeUnknownTag:
		s.UnknownTags++
	default:
		s.Failed++
	}
}

// Errors returns the errors of failed frames in frame order.
func (s Summary) Errors() []error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
