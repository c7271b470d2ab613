// Package projector turns decoded frames into read model records.
//
// Each frame tag maps to a pure decode function. A recognized frame produces
// exactly one full-record upsert keyed by the record's natural key; an
// unrecognized tag is logged and skipped. Failures are reported per frame so
// one bad record never stops the rest of a transaction.
package projector
