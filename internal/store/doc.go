// Package store is a SQLite journal of dispatched batches.
//
// Every batch a Journal forwards is recorded with its target, its position
// in the session, its content hash and one row per instruction holding the
// instruction's canonical JSON arguments. Query outputs and raw pixel bytes
// are never stored; see ir.Describe.
//
// # Ordering
//
// Reads order by seq ASC, then session ASC COLLATE BINARY, so listings are
// identical across runs.
//
// # Compatibility
//
// The journal records ir.WireVersion when it is created. Open refuses a
// journal whose wire version has a different major version, because kind
// codes and argument shapes may have changed.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability and speed
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: instructions cascade with their batch
package store
