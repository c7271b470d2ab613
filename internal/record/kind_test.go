package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("player")
	assert.Error(t, err)
}

func TestKeyString_ParseKey(t *testing.T) {
	keys := []Key{
		IndexedObjectKey(1),
		PositionKey(1, 2, 3),
		NuggetKey(18446744073709551615),
		MarketKey(0),
	}
	for _, k := range keys {
		parsed, err := ParseKey(k.String())
		require.NoError(t, err, k.String())
		assert.True(t, k.Equal(parsed), k.String())
	}
}

func TestParseKey_Errors(t *testing.T) {
	for _, in := range []string{"", "nugget", "nugget/x", "position/1/2", "market/1/2", "thing/1"} {
		_, err := ParseKey(in)
		assert.Error(t, err, in)
	}
}

func TestKeyEqual(t *testing.T) {
	assert.True(t, NuggetKey(1).Equal(NuggetKey(1)))
	assert.False(t, NuggetKey(1).Equal(MarketKey(1)))
	assert.False(t, PositionKey(1, 2, 3).Equal(PositionKey(1, 2, 4)))
}

func TestJSON_MarketShape(t *testing.T) {
	m := Market{
		MarketID:   1,
		AskPrice:   18446744073709551615,
		SettleInfo: 0,
		Owner:      PlayerID{3, 4},
		Object:     Nugget{ID: 8, MarketID: 1},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"marketid": "1",
		"askprice": "18446744073709551615",
		"settleinfo": "0",
		"owner": ["3", "4"],
		"object": {
			"id": "8", "attributes": "0", "cycle": "0",
			"feature": "0", "sysprice": "0", "marketid": "1"
		}
	}`, string(data))

	m.Bid = &Bid{Price: 5, Bidder: PlayerID{6, 7}}
	data, err = json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bidder":{"bidprice":"5","bidder":["6","7"]}`)
}

func TestJSON_WordsRoundTrip(t *testing.T) {
	obj := IndexedObject{Index: 2, Data: Words{1, 18446744073709551615}}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"index":"2","data":["1","18446744073709551615"]}`, string(data))

	var back IndexedObject
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, obj, back)
}

func TestJSON_WordsAcceptNumbers(t *testing.T) {
	var w Words
	require.NoError(t, json.Unmarshal([]byte(`[1, "2", 3]`), &w))
	assert.Equal(t, Words{1, 2, 3}, w)

	assert.Error(t, json.Unmarshal([]byte(`[-1]`), &w))
	assert.Error(t, json.Unmarshal([]byte(`["x"]`), &w))
}

func TestJSON_PlayerIDArity(t *testing.T) {
	var p PlayerID
	require.NoError(t, json.Unmarshal([]byte(`["1","2"]`), &p))
	assert.Equal(t, PlayerID{1, 2}, p)
	assert.Error(t, json.Unmarshal([]byte(`["1"]`), &p))
}
