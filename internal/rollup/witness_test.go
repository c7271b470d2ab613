package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWitness() Witness {
	return Witness{
		Msg:  "0a0b",
		PKX:  "11",
		PKY:  "22",
		SigX: "33",
		SigY: "44",
		SigR: "55",
	}
}

func TestWitnessKey_Stable(t *testing.T) {
	w := sampleWitness()
	assert.Equal(t, w.Key(), w.Key())
	assert.Len(t, w.Key(), 64)
}

func TestWitnessKey_CaseInsensitive(t *testing.T) {
	w := sampleWitness()
	upper := w
	upper.Msg = "0A0B"
	assert.Equal(t, w.Key(), upper.Key())
}

func TestWitnessKey_DistinguishesFields(t *testing.T) {
	a := sampleWitness()
	b := sampleWitness()
	b.SigR = "56"
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestWitnessIsZero(t *testing.T) {
	assert.True(t, Witness{}.IsZero())
	assert.False(t, sampleWitness().IsZero())
}

func TestEventDigest(t *testing.T) {
	d1, err := EventDigest([]uint64{0, 7, 1})
	require.NoError(t, err)
	d2, err := EventDigest([]uint64{0, 7, 1})
	require.NoError(t, err)
	d3, err := EventDigest([]uint64{0, 7, 2})
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
}
