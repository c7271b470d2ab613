package record

import (
	"errors"
	"fmt"
)

// Fixed word counts of each layout.
const (
	IndexedObjectWords = 1
	PositionWords      = 3
	NuggetWords        = 6
	MarketWords        = 8 + NuggetWords
)

// ErrShortPayload matches layout errors caused by too few payload words.
var ErrShortPayload = errors.New("payload too short")

// LayoutError reports a payload that does not fit a variant's layout.
type LayoutError struct {
	Kind Kind
	Want int
	Got  int
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("decode %s: need at least %d words, got %d", e.Kind, e.Want, e.Got)
}

func (e *LayoutError) Is(target error) bool {
	return target == ErrShortPayload
}

func need(kind Kind, payload []uint64, n int) error {
	if len(payload) < n {
		return &LayoutError{Kind: kind, Want: n, Got: len(payload)}
	}
	return nil
}

// DecodeIndexedObject reads index, then the rest as data.
func DecodeIndexedObject(payload []uint64) (IndexedObject, error) {
	if err := need(KindIndexedObject, payload, IndexedObjectWords); err != nil {
		return IndexedObject{}, err
	}
	return IndexedObject{
		Index: payload[0],
		Data:  Words(payload[1:]).Clone(),
	}, nil
}

// DecodePosition reads pid_1, pid_2, object_index, then the rest as data.
func DecodePosition(payload []uint64) (Position, error) {
	if err := need(KindPosition, payload, PositionWords); err != nil {
		return Position{}, err
	}
	return Position{
		PID1:        payload[0],
		PID2:        payload[1],
		ObjectIndex: payload[2],
		Data:        Words(payload[3:]).Clone(),
	}, nil
}

// DecodeNugget reads id, attributes, cycle, feature, sysprice, marketid.
// Words past the layout are ignored.
func DecodeNugget(payload []uint64) (Nugget, error) {
	if err := need(KindNugget, payload, NuggetWords); err != nil {
		return Nugget{}, err
	}
	return Nugget{
		ID:         payload[0],
		Attributes: payload[1],
		Cycle:      payload[2],
		Feature:    payload[3],
		SysPrice:   payload[4],
		MarketID:   payload[5],
	}, nil
}

// DecodeMarket reads marketid, askprice, settleinfo, bidprice, bidder[2],
// owner[2], then the listed nugget. A zero bid price with a zero bidder means
// there is no bid. Words past the layout are ignored.
func DecodeMarket(payload []uint64) (Market, error) {
	if err := need(KindMarket, payload, MarketWords); err != nil {
		return Market{}, err
	}

	nugget, err := DecodeNugget(payload[8:])
	if err != nil {
		return Market{}, err
	}

	m := Market{
		MarketID:   payload[0],
		AskPrice:   payload[1],
		SettleInfo: payload[2],
		Owner:      PlayerID{payload[6], payload[7]},
		Object:     nugget,
	}

	bid := Bid{Price: payload[3], Bidder: PlayerID{payload[4], payload[5]}}
	if bid.Price != 0 || !bid.Bidder.IsZero() {
		m.Bid = &bid
	}
	return m, nil
}

// Encode returns the payload words that decode to o. It is the inverse of
// the Decode* functions and is used to build fixtures.
func Encode(o Object) []uint64 {
	switch v := o.(type) {
	case IndexedObject:
		return append([]uint64{v.Index}, v.Data...)
	case Position:
		return append([]uint64{v.PID1, v.PID2, v.ObjectIndex}, v.Data...)
	case Nugget:
		return []uint64{v.ID, v.Attributes, v.Cycle, v.Feature, v.SysPrice, v.MarketID}
	case Market:
		words := []uint64{v.MarketID, v.AskPrice, v.SettleInfo, 0, 0, 0, v.Owner[0], v.Owner[1]}
		if v.Bid != nil {
			words[3], words[4], words[5] = v.Bid.Price, v.Bid.Bidder[0], v.Bid.Bidder[1]
		}
		return append(words, Encode(v.Object)...)
	default:
		panic(fmt.Sprintf("record.Encode: unsupported type %T", o))
	}
}
