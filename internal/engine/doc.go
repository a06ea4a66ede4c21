// Package engine batches drawing instructions and hands them to a host
// surface in one boundary crossing.
//
// A Sequence is a FIFO chain of ir.Op nodes bound to one Target. Drawing
// calls append to the chain; nothing reaches the host until a flush.
//
// FLUSH TRIGGERS:
//   - the pending count reaches the threshold after an append
//   - a query is appended (measure_text, get_transform, get_line_dash,
//     get_line_dash_length, image_data_to_buffer, get_canvas_prop_*)
//   - Flush, Close or LoadImage is called
//
// A flush detaches the chain, calls Dispatcher.Dispatch exactly once and
// then walks the chain head to tail, returning every node and every buffer
// an op owns to the Allocator. Teardown runs even when the dispatcher fails
// or panics.
//
// STYLE CACHE:
// SetFillColor, SetStrokeColor and SetLineWidth drop calls that repeat the
// value last emitted. Restore and Reset clear the cache because the host
// state is no longer known. CSS string styles are never deduplicated.
//
// ERRORS:
// Caller bugs (nil Sequence, use after Close, calling back into a Sequence
// from inside its own dispatch) panic with *ContractError. Dispatcher
// failures are returned as *DispatchError: directly from Flush, Close and
// queries, and held for the next of those calls when an autoflush fails.
//
// A Sequence belongs to one goroutine. Several Sequences may share a Clock
// so their batches are totally ordered.
package engine
