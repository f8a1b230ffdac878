// Package store provides SQLite-backed durable storage for a survey project.
//
// The store holds one region:
//   - Caves: ordered by position
//   - Trips: metadata as JSON, ordered by position within their cave
//   - Chunks: one JSON document per chunk, ordered within their trip
//
// Every committed import is recorded in import_runs together with a JSON
// snapshot of the region as it was before the import, so the most recent
// run can be undone.
//
// # Transactions
//
// Commit loads the region, hands it to a mutation, writes it back and records
// the run inside a single transaction. Either all of it lands or none of it
// does.
//
// # Ordering
//
// Runs are ordered by seq, a logical counter assigned at commit time, never
// by wall-clock time: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
