package frame

import "fmt"

// Offsets of the fixed words at the head of an event log.
const (
	statusWord  = 0
	eventIDWord = 1
	framesStart = 2
)

// StatusSuccess is the status word of a transaction that executed cleanly.
const StatusSuccess uint64 = 0

// lengthMask selects the low 32 bits of a header word.
const lengthMask = 1<<32 - 1

// Frame is one self-describing unit of a transaction's event stream.
type Frame struct {
	Tag     uint32
	Payload []uint64
}

// Length returns the payload length as it appears in the header word.
func (f Frame) Length() uint32 {
	return uint32(len(f.Payload))
}

// Header returns the packed header word for this frame.
func (f Frame) Header() uint64 {
	return Header(f.Tag, f.Length())
}

func (f Frame) String() string {
	return fmt.Sprintf("frame(tag=%d, len=%d)", f.Tag, len(f.Payload))
}

// Header packs a tag and payload length into a header word.
func Header(tag, length uint32) uint64 {
	return uint64(tag)<<32 | uint64(length)
}

// SplitHeader is the inverse of Header.
func SplitHeader(h uint64) (tag, length uint32) {
	return uint32(h >> 32), uint32(h & lengthMask)
}

// EventLog is one transaction's raw event word stream.
type EventLog []uint64

// Status returns the status word, or false when the log is empty.
func (l EventLog) Status() (uint64, bool) {
	if len(l) <= statusWord {
		return 0, false
	}
	return l[statusWord], true
}

// EventID returns the event identifier word, or false when absent.
func (l EventLog) EventID() (uint64, bool) {
	if len(l) <= eventIDWord {
		return 0, false
	}
	return l[eventIDWord], true
}

// Succeeded reports whether the transaction executed cleanly.
func (l EventLog) Succeeded() bool {
	status, ok := l.Status()
	return ok && status == StatusSuccess
}

// HasFrames reports whether the log carries a frame area worth decoding.
func (l EventLog) HasFrames() bool {
	return l.Succeeded() && len(l) > framesStart
}

// Frames decodes the log. See Decode.
func (l EventLog) Frames() ([]Frame, error) {
	return Decode(l)
}

// Encode builds an event log with the given status and event id followed by
// the packed frames. It is the inverse of Decode for well-formed input.
func Encode(status, eventID uint64, frames ...Frame) EventLog {
	n := framesStart
	for _, f := range frames {
		n += 1 + len(f.Payload)
	}

	words := make(EventLog, 0, n)
	words = append(words, status, eventID)
	for _, f := range frames {
		words = append(words, f.Header())
		words = append(words, f.Payload...)
	}
	return words
}
