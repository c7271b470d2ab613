// Package store provides the SQLite-backed read models for rollix.
//
// The store keeps one table per projected variant, keyed by the variant's
// natural key, plus two log tables:
//   - indexed_objects, positions, nuggets, markets: last-write-wins read models
//   - events: raw event archive, one row per (witness, event digest)
//   - commits: confirmed batch roots in commit order
//
// # Upsert Semantics
//
// Upsert replaces the whole row under the natural key with
// INSERT ... ON CONFLICT(key) DO UPDATE. SQLite applies each statement
// atomically, so concurrent writers to the same key can only interleave whole
// records, and writing the same record twice leaves the same row.
//
// # Deterministic Query Results
//
// Page queries always ORDER BY the natural key columns so that skip/limit
// pagination is stable across calls.
//
// # Unsigned Integers
//
// SQLite INTEGER is signed 64-bit. uint64 values are stored as their
// two's-complement bit pattern and converted back on read, so equality
// filters work for the full range while ordering above 2^63 wraps.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
