package frame

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_EmptyLog(t *testing.T) {
	frames, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, frames)

	frames, err = Decode([]uint64{})
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestDecode_NonSuccessStatus(t *testing.T) {
	words := []uint64{1, 7, 1<<32 + 3, 10, 20, 30}

	frames, err := Decode(words)
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestDecode_NoFrameArea(t *testing.T) {
	for _, words := range [][]uint64{{0}, {0, 7}} {
		frames, err := Decode(words)
		require.NoError(t, err)
		assert.Empty(t, frames, "words=%v", words)
	}
}

func TestDecode_SingleFrame(t *testing.T) {
	words := []uint64{0, 7, 1<<32 + 3, 10, 20, 30}

	frames, err := Decode(words)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, uint32(1), frames[0].Tag)
	assert.Equal(t, []uint64{10, 20, 30}, frames[0].Payload)
}

func TestDecode_MultipleFrames(t *testing.T) {
	words := []uint64{
		0, 99,
		Header(2, 2), 5, 6,
		Header(1, 0),
		Header(9, 1), 42,
	}

	frames, err := Decode(words)
	require.NoError(t, err)
	require.Len(t, frames, 3)

	assert.Equal(t, Frame{Tag: 2, Payload: []uint64{5, 6}}, frames[0])
	assert.Equal(t, uint32(1), frames[1].Tag)
	assert.Empty(t, frames[1].Payload)
	assert.Equal(t, Frame{Tag: 9, Payload: []uint64{42}}, frames[2])
}

func TestDecode_TruncatedFirstFrame(t *testing.T) {
	words := []uint64{0, 7, 1<<32 + 5, 10, 20}

	frames, err := Decode(words)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))
	assert.Empty(t, frames)

	var te *TruncatedError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 2, te.Offset)
	assert.Equal(t, uint32(1), te.Tag)
	assert.Equal(t, uint32(5), te.Declared)
	assert.Equal(t, 2, te.Available)
	assert.Equal(t, 0, te.Decoded)
}

func TestDecode_TruncatedTailKeepsEarlierFrames(t *testing.T) {
	words := []uint64{
		0, 7,
		Header(1, 1), 11,
		Header(2, 4), 1, 2,
	}

	frames, err := Decode(words)
	require.ErrorIs(t, err, ErrTruncated)
	require.Len(t, frames, 1)
	assert.Equal(t, Frame{Tag: 1, Payload: []uint64{11}}, frames[0])
}

func TestDecode_MaxDeclaredLength(t *testing.T) {
	words := []uint64{0, 7, Header(3, 0xFFFFFFFF)}

	frames, err := Decode(words)
	require.ErrorIs(t, err, ErrTruncated)
	assert.Empty(t, frames)
}

func TestDecode_PayloadDoesNotGrowIntoNeighbour(t *testing.T) {
	words := []uint64{0, 7, Header(1, 1), 11, Header(2, 1), 22}

	frames, err := Decode(words)
	require.NoError(t, err)
	require.Len(t, frames, 2)

	// Appending to the first payload must not clobber the second frame.
	_ = append(frames[0].Payload, 99)
	assert.Equal(t, uint64(22), frames[1].Payload[0])
	assert.Equal(t, Header(2, 1), words[4])
}

func TestDecode_UnknownTagStillProduced(t *testing.T) {
	words := []uint64{0, 7, Header(0xABCD, 1), 5}

	frames, err := Decode(words)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, uint32(0xABCD), frames[0].Tag)
}
