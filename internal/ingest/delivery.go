package ingest

import (
	"fmt"

	"github.com/roach88/rollix/internal/rollup"
)

// DeliveryType distinguishes the two executor callbacks.
type DeliveryType int

const (
	// DeliveryEvent carries one transaction's witness and event words.
	DeliveryEvent DeliveryType = iota + 1
	// DeliveryCommit carries one finalized batch.
	DeliveryCommit
)

func (t DeliveryType) String() string {
	switch t {
	case DeliveryEvent:
		return "event"
	case DeliveryCommit:
		return "commit"
	default:
		return fmt.Sprintf("delivery(%d)", int(t))
	}
}

// Delivery is one executor callback queued for the Runner.
type Delivery struct {
	Type DeliveryType

	// Event fields.
	Witness rollup.Witness
	Words   []uint64

	// Commit fields.
	Witnesses []rollup.Witness
	PreRoot   rollup.Root
	PostRoot  rollup.Root
}

// EventDelivery builds an event delivery.
func EventDelivery(w rollup.Witness, words []uint64) Delivery {
	return Delivery{Type: DeliveryEvent, Witness: w, Words: words}
}

// CommitDelivery builds a batch-commit delivery.
func CommitDelivery(witnesses []rollup.Witness, pre, post rollup.Root) Delivery {
	return Delivery{Type: DeliveryCommit, Witnesses: witnesses, PreRoot: pre, PostRoot: post}
}
