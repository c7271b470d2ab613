package rollup

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm change.
const (
	DomainWitness = "rollix/witness/v1"
	DomainEvent   = "rollix/event/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventDigest is the content address of one raw event word stream.
// The raw event archive uses it to make re-archiving a redelivered
// transaction a no-op.
func EventDigest(words []uint64) (string, error) {
	canonical, err := MarshalCanonical(words)
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainEvent, canonical), nil
}
