// Package rollup holds the value types the rollup executor hands to the indexer:
// transaction witnesses and state roots.
//
// Witness identity is content-addressed. Witness.Key hashes the RFC 8785
// canonical JSON of the witness with a domain prefix, so two deliveries of the
// same signed transaction always map to the same key regardless of field order
// or Unicode normalization in the transport.
//
// Roots are the executor's four-limb merkle commitment. They are opaque to the
// indexer apart from equality and their hex rendering.
package rollup
