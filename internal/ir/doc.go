// Package ir defines the instruction model shared by the batching engine,
// the host surfaces and the dispatch journal.
//
// Every drawing or query operation is a value of one concrete struct type
// implementing the sealed Op interface. The set of kinds is closed and each
// kind keeps the numeric wire code it has always had on the host boundary.
//
// This package imports nothing internal. Key constraints:
//   - Variable-length payloads ([]byte text, []float64 dash segments, pixel
//     blocks) belong to the op that carries them
//   - Query ops carry pointers to caller storage, never owned copies
//   - Canonical JSON is the only serialization used for hashing batches
package ir
