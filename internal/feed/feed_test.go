package feed

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollix/internal/ingest"
	"github.com/roach88/rollix/internal/rollup"
)

const sampleFeed = `# recorded deliveries
{"type":"event","witness":{"msg":"0x01","pkx":"0x02","pky":"0x03","sigx":"0x04","sigy":"0x05","sigr":"0x06"},"words":["0","7","4294967299","10","20","30"]}

{"type":"event","witness":{"msg":"0x02","pkx":"","pky":"","sigx":"","sigy":"","sigr":""},"words":[0,8]}
{"type":"commit","witnesses":[{"msg":"0x01","pkx":"0x02","pky":"0x03","sigx":"0x04","sigy":"0x05","sigr":"0x06"}],"pre_root":"0x0","post_root":"0x2a"}
`

func TestReader_ParsesDeliveries(t *testing.T) {
	r := NewReader(strings.NewReader(sampleFeed))

	d, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, ingest.DeliveryEvent, d.Type)
	assert.Equal(t, "0x01", d.Witness.Msg)
	assert.Equal(t, []uint64{0, 7, 1<<32 | 3, 10, 20, 30}, d.Words)

	d, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 8}, d.Words, "plain JSON numbers are accepted")

	d, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, ingest.DeliveryCommit, d.Type)
	require.Len(t, d.Witnesses, 1)
	assert.Equal(t, rollup.Root{}, d.PreRoot)
	assert.Equal(t, rollup.Root{42}, d.PostRoot)

	_, err = r.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestReader_RejectsMalformedLines(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not json", `{"type":`},
		{"unknown field", `{"type":"event","witness":{},"words":[],"extra":1}`},
		{"missing type", `{"words":[]}`},
		{"unknown type", `{"type":"reorg"}`},
		{"event without witness", `{"type":"event","words":["0"]}`},
		{"event without words", `{"type":"event","witness":{}}`},
		{"event with roots", `{"type":"event","witness":{},"words":[],"post_root":"0x1"}`},
		{"commit without post root", `{"type":"commit","pre_root":"0x1"}`},
		{"commit with words", `{"type":"commit","pre_root":"0x1","post_root":"0x2","words":[]}`},
		{"negative word", `{"type":"event","witness":{},"words":[-1]}`},
		{"bad root", `{"type":"commit","pre_root":"0xzz","post_root":"0x2"}`},
		{"trailing data", `{"type":"commit","pre_root":"0x1","post_root":"0x2"} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader("\n" + tt.line + "\n"))
			_, err := r.Next()
			require.Error(t, err)

			var le *LineError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, 2, le.Line)
		})
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	in := []ingest.Delivery{
		ingest.EventDelivery(rollup.Witness{Msg: "0xab"}, []uint64{0, 1, 1 << 63}),
		ingest.EventDelivery(rollup.Witness{Msg: "0xcd"}, nil),
		ingest.CommitDelivery([]rollup.Witness{{Msg: "0xab"}}, rollup.Root{1}, rollup.Root{2, 3}),
		ingest.CommitDelivery(nil, rollup.Root{2, 3}, rollup.Root{4}),
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, d := range in {
		require.NoError(t, w.Write(d))
	}

	out, err := NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, out, len(in))

	assert.Equal(t, in[0], out[0])
	assert.Equal(t, []uint64{}, out[1].Words)
	assert.Equal(t, in[2], out[2])
	assert.Equal(t, in[3], out[3])
}

func TestWriter_UnknownType(t *testing.T) {
	err := NewWriter(io.Discard).Write(ingest.Delivery{})
	assert.Error(t, err)
}
