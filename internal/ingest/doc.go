// Package ingest wires the executor's callbacks to the indexer core.
//
// A Pipeline carries every collaborator explicitly: the read model store,
// the projector, the commit tracker, a logical clock, a run id and a logger.
// A Runner feeds deliveries to one Pipeline from a single goroutine, so the
// tracker and clock are never touched concurrently.
package ingest
