package frame

import (
	"errors"
	"fmt"
)

// ErrTruncated matches errors reporting a frame that runs past the end of
// its event log.
var ErrTruncated = errors.New("frame truncated")

// TruncatedError describes where decoding stopped.
type TruncatedError struct {
	// Offset is the index of the offending header word.
	Offset int
	// Tag is the offending frame's tag.
	Tag uint32
	// Declared is the payload length the header claimed.
	Declared uint32
	// Available is the number of words left after the header.
	Available int
	// Decoded is the number of frames returned before the stop.
	Decoded int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("frame truncated at word %d: tag %d declares %d payload words, %d available (%d frames decoded)",
		e.Offset, e.Tag, e.Declared, e.Available, e.Decoded)
}

// Is makes errors.Is(err, ErrTruncated) true for any *TruncatedError.
func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncated
}

// Decode extracts the frames of one transaction's event log.
//
// Logs that are empty, carry a non-success status, or have no words past the
// event id decode to no frames and a nil error. When a declared length would
// read past the end of words, Decode returns the frames decoded so far and a
// *TruncatedError. Payload slices alias words.
func Decode(words []uint64) ([]Frame, error) {
	log := EventLog(words)
	if !log.HasFrames() {
		return nil, nil
	}

	var frames []Frame
	cursor := framesStart
	for cursor < len(words) {
		tag, length := SplitHeader(words[cursor])
		start := cursor + 1
		available := len(words) - start

		// Compare in uint64 so huge declared lengths cannot overflow int.
		if uint64(length) > uint64(available) {
			return frames, &TruncatedError{
				Offset:    cursor,
				Tag:       tag,
				Declared:  length,
				Available: available,
				Decoded:   len(frames),
			}
		}

		end := start + int(length)
		frames = append(frames, Frame{
			Tag:     tag,
			Payload: words[start:end:end],
		})
		cursor = end
	}

	return frames, nil
}
