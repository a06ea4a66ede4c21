// Package host executes instruction chains against in-process canvases.
//
// A Surface owns a gg pixmap and the drawing state a canvas keeps between
// batches: styles, line settings, font, text alignment, the save/restore
// stack, the transform and the current path. Gradients and images created
// by instructions live on the Surface under caller-chosen ids until a
// release_id instruction frees them.
//
// Registry implements engine.Dispatcher and engine.ImageLoader by routing
// each batch to the Surface attached under its target.
//
// Execution stops at the first instruction that fails. The error is an
// *ExecError carrying the instruction's index in the batch and its kind.
// Invalid style values (an unparsable color, an unknown line cap) are
// ignored the way a browser ignores them and do not fail the batch.
package host
