package rollup

import (
	"fmt"
	"strconv"
	"strings"
)

// Root is the executor's merkle state commitment: four little-endian limbs.
type Root [4]uint64

// String renders the root as 0x-prefixed big-endian hex (most significant
// limb first), the form the executor prints in its batch notifications.
func (r Root) String() string {
	var b strings.Builder
	b.Grow(2 + 64)
	b.WriteString("0x")
	for i := len(r) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%016x", r[i])
	}
	return b.String()
}

// IsZero reports whether this is the empty genesis root.
func (r Root) IsZero() bool {
	return r == Root{}
}

// ParseRoot parses the output of Root.String. The 0x prefix is optional.
// Shorter inputs are left-padded with zeros.
func ParseRoot(s string) (Root, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(hex) == 0 {
		return Root{}, fmt.Errorf("parse root: empty")
	}
	if len(hex) > 64 {
		return Root{}, fmt.Errorf("parse root: %d hex digits, want at most 64", len(hex))
	}
	hex = strings.Repeat("0", 64-len(hex)) + hex

	var r Root
	for i := 0; i < 4; i++ {
		chunk := hex[i*16 : (i+1)*16]
		limb, err := strconv.ParseUint(chunk, 16, 64)
		if err != nil {
			return Root{}, fmt.Errorf("parse root: %w", err)
		}
		r[3-i] = limb
	}
	return r, nil
}

// MarshalText implements encoding.TextMarshaler.
func (r Root) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Root) UnmarshalText(text []byte) error {
	parsed, err := ParseRoot(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
