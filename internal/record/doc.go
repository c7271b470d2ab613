// Package record defines the read-model variants projected from executor
// event frames.
//
// Every variant is an immutable value with a natural key:
//
//	IndexedObject  index
//	Position       (pid_1, pid_2, object_index)
//	Nugget         id
//	Market         marketid
//
// The Decode* functions are pure: they consume payload words left to right
// into the fixed fields, and any remaining words into the variant's trailing
// variable-length field when it has one. The executor always emits an
// object's complete current state, so a decoded value replaces whatever was
// stored under its key.
//
// JSON encoding renders every uint64 as a decimal string, since the values
// routinely exceed the 2^53 range of JavaScript clients.
package record
