// Package frame decodes the rollup executor's per-transaction event word stream.
//
// A transaction's event log is a sequence of uint64 words:
//
//	word[0]   status code, 0 on success
//	word[1]   event identifier
//	word[2:]  concatenated frames
//
// Each frame is one header word followed by its payload:
//
//	header = tag<<32 | length
//	payload = the next length words
//
// Decoding is fail-soft. A log with a non-success status or no frame area
// yields no frames and no error. A frame whose declared length runs past the
// end of the log stops the scan; the frames decoded before it are returned
// together with an error matching ErrTruncated. Nothing outside the given
// slice is ever read, so one malformed transaction cannot affect another.
//
// Tags are not interpreted here. Unknown tags produce frames like any other;
// classifying them is the projector's job.
package frame
