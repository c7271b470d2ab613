package projector

import (
	"fmt"

	"github.com/roach88/rollix/internal/record"
)

// Frame tags emitted by the rollup executor.
const (
	TagPosition      uint32 = 1
	TagIndexedObject uint32 = 2
)

// Indexed object kinds. An IndexedObject whose index names one of these
// carries that variant's layout in its data words.
const (
	ObjectNugget uint64 = 1
	ObjectMarket uint64 = 2
)

// DecodeFunc is a pure decoder from frame payload to record.
type DecodeFunc func(payload []uint64) (record.Object, error)

// ObjectDecodeFunc decodes the data words of an IndexedObject.
type ObjectDecodeFunc func(data []uint64) (record.Object, error)

func decodePosition(payload []uint64) (record.Object, error) {
	return record.DecodePosition(payload)
}

func decodeNugget(data []uint64) (record.Object, error) {
	return record.DecodeNugget(data)
}

func decodeMarket(data []uint64) (record.Object, error) {
	return record.DecodeMarket(data)
}

// resolveIndexed decodes an IndexedObject and, when its index names a
// registered object kind, the typed variant inside it.
func resolveIndexed(kinds map[uint64]ObjectDecodeFunc) DecodeFunc {
	return func(payload []uint64) (record.Object, error) {
		obj, err := record.DecodeIndexedObject(payload)
		if err != nil {
			return nil, err
		}
		decode, ok := kinds[obj.Index]
		if !ok {
			return obj, nil
		}
		typed, err := decode(obj.Data)
		if err != nil {
			return nil, fmt.Errorf("object kind %d: %w", obj.Index, err)
		}
		return typed, nil
	}
}

func defaultObjectKinds() map[uint64]ObjectDecodeFunc {
	return map[uint64]ObjectDecodeFunc{
		ObjectNugget: decodeNugget,
		ObjectMarket: decodeMarket,
	}
}
