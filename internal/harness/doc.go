// Package harness runs scripted drawing scenarios end to end.
//
// A scenario drives a real engine.Sequence through a list of facade calls.
// Batches flow through a recorder (and optionally the dispatch journal)
// into a host.Surface, and the run is checked by assertions and a golden
// trace.
//
// # Scenario Format
//
//	name: threshold_autoflush
//	description: "What this scenario validates"
//	threshold: 3
//	surface: {width: 32, height: 32}
//	steps:
//	  - op: fill_rect
//	    args: {x: 0, y: 0, w: 10, h: 10}
//	  - op: set_fill_color
//	    args: {color: 0xFF0000FF}
//	  - op: measure_text
//	    args: {text: "hi"}
//	assertions:
//	  - type: batch_kinds
//	    batch: 1
//	    kinds: [fill_rect, set_fill_style_rgba]
//	  - type: no_leaks
//
// A step may set error to a substring its failure must contain.
//
// # Assertion Types
//
//   - dispatch_count: number of batches dispatched
//   - batch_kinds: exact kind list of batch N, optionally its flush reason
//   - batch_size: instruction count of batch N
//   - pending: pending count after the last step
//   - query_result: value a query step returned (subset match for objects)
//   - no_leaks: every node and buffer freed exactly once
//   - pixel: RGBA at (x, y) on the final surface
//
// # Deterministic Testing
//
// Every run uses a fresh registry, a fixed target handle and a fresh batch
// clock, so traces are identical across runs and can be compared against
// golden files.
package harness
