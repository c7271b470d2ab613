package testutil

import (
	"fmt"

	"github.com/roach88/rollix/internal/frame"
	"github.com/roach88/rollix/internal/projector"
	"github.com/roach88/rollix/internal/record"
	"github.com/roach88/rollix/internal/rollup"
)

// Witness returns a distinct, deterministic witness for n.
func Witness(n int) rollup.Witness {
	return rollup.Witness{
		Msg:  fmt.Sprintf("0x%04x", n),
		PKX:  "0x01",
		PKY:  "0x02",
		SigX: fmt.Sprintf("0x%04x", n+1),
		SigY: "0x03",
		SigR: "0x04",
	}
}

// ObjectFrame returns the frame the executor emits for obj.
// Nuggets and markets travel as indexed objects of their object kind.
func ObjectFrame(obj record.Object) frame.Frame {
	switch v := obj.(type) {
	case record.Position:
		return frame.Frame{Tag: projector.TagPosition, Payload: record.Encode(v)}
	case record.IndexedObject:
		return frame.Frame{Tag: projector.TagIndexedObject, Payload: record.Encode(v)}
	case record.Nugget:
		return frame.Frame{
			Tag:     projector.TagIndexedObject,
			Payload: append([]uint64{projector.ObjectNugget}, record.Encode(v)...),
		}
	case record.Market:
		return frame.Frame{
			Tag:     projector.TagIndexedObject,
			Payload: append([]uint64{projector.ObjectMarket}, record.Encode(v)...),
		}
	default:
		panic(fmt.Sprintf("testutil.ObjectFrame: unsupported type %T", obj))
	}
}

// EventLog returns a successful event log carrying one frame per object.
func EventLog(eventID uint64, objs ...record.Object) []uint64 {
	frames := make([]frame.Frame, len(objs))
	for i, obj := range objs {
		frames[i] = ObjectFrame(obj)
	}
	return frame.Encode(frame.StatusSuccess, eventID, frames...)
}
