// Package harness runs ordering scenarios: declarative YAML files describing
// initial sibling groups, a flow of engine operations, and assertions on the
// resulting positions.
//
// Each scenario runs against a fresh in-memory store with a real
// ordering.Engine, so the trace records the writes the engine actually
// issued. Scenario files are checked twice before running: strict YAML
// decoding rejects unknown keys, and the document is validated against the
// embedded CUE schema (schema.cue) for enums, types and required fields.
//
// Example scenario:
//
//	name: move_up_swaps
//	description: Moving C up swaps it with B
//	setup:
//	  - parent: p
//	    nodes: [A, B, C, D]
//	flow:
//	  - op: move_up
//	    node: C
//	    expect:
//	      outcome: applied
//	      writes: 2
//	assertions:
//	  - type: group
//	    parent: p
//	    order: [A, C, B, D]
//
// RunWithGolden snapshots the trace and final groups under
// testdata/golden/<name>.golden.
package harness
