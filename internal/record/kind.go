package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind names a projected variant.
type Kind string

const (
	KindIndexedObject Kind = "indexed_object"
	KindPosition      Kind = "position"
	KindNugget        Kind = "nugget"
	KindMarket        Kind = "market"
)

// Kinds returns every variant in a fixed order.
func Kinds() []Kind {
	return []Kind{KindIndexedObject, KindPosition, KindNugget, KindMarket}
}

// ParseKind validates a variant name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// keyArity is the number of uint64 parts in each variant's natural key.
func (k Kind) keyArity() int {
	if k == KindPosition {
		return 3
	}
	return 1
}

// Key is a variant's natural key.
type Key struct {
	Kind  Kind
	Parts []uint64
}

// String renders the key as kind/part/part..., e.g. "position/1/2/3".
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(string(k.Kind))
	for _, p := range k.Parts {
		b.WriteByte('/')
		b.WriteString(strconv.FormatUint(p, 10))
	}
	return b.String()
}

// Equal reports whether two keys name the same record.
func (k Key) Equal(other Key) bool {
	if k.Kind != other.Kind || len(k.Parts) != len(other.Parts) {
		return false
	}
	for i := range k.Parts {
		if k.Parts[i] != other.Parts[i] {
			return false
		}
	}
	return true
}

// ParseKey parses the output of Key.String.
func ParseKey(s string) (Key, error) {
	fields := strings.Split(s, "/")
	kind, err := ParseKind(fields[0])
	if err != nil {
		return Key{}, fmt.Errorf("parse key: %w", err)
	}
	if len(fields)-1 != kind.keyArity() {
		return Key{}, fmt.Errorf("parse key: %s needs %d parts, got %d", kind, kind.keyArity(), len(fields)-1)
	}

	parts := make([]uint64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		p, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return Key{}, fmt.Errorf("parse key: %w", err)
		}
		parts = append(parts, p)
	}
	return Key{Kind: kind, Parts: parts}, nil
}

func IndexedObjectKey(index uint64) Key {
	return Key{Kind: KindIndexedObject, Parts: []uint64{index}}
}

func PositionKey(pid1, pid2, objectIndex uint64) Key {
	return Key{Kind: KindPosition, Parts: []uint64{pid1, pid2, objectIndex}}
}

func NuggetKey(id uint64) Key {
	return Key{Kind: KindNugget, Parts: []uint64{id}}
}

func MarketKey(marketID uint64) Key {
	return Key{Kind: KindMarket, Parts: []uint64{marketID}}
}
