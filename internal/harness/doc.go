// Package harness runs scripted delivery scenarios against a real pipeline
// and store.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	genesis_root: "0x0"          # optional
//	steps:
//	  - event:
//	      tx: 1                  # deterministic witness number
//	      event_id: 7
//	      frames:
//	        - tag: 1
//	          payload: [10, 20, 5, 42]
//	      expect:
//	        outcome: processed
//	        upserted: 1
//	  - commit:
//	      txs: [1]
//	      post_root: "0xabc"
//	assertions:
//	  - type: final_state
//	    kind: position
//	    key: [10, 20, 5]
//	    expect: { data: ["42"] }
//
// An event step may instead give raw words, delivered verbatim, or drop
// trailing words of the built log with truncate.
//
// # Assertion Types
//
//   - trace_contains: an event with the outcome (and tx) is in the trace
//   - trace_count: exactly count events have the outcome
//   - final_state: a record exists and its JSON fields match (subset)
//   - absent: no record exists under the key
//   - record_count: a read model holds exactly count records
//   - checkpoint: the tracker root equals root
//   - tracked: exactly count transactions await a batch commit
//
// # Deterministic Testing
//
// Every scenario runs on a fresh in-memory database with a fixed run id,
// a logical clock starting at zero and fixture witnesses, so the snapshot
// written by Snapshot is byte-identical across runs and can be compared
// against golden files.
package harness
