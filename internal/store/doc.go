// Package store provides SQLite-backed storage for ordered tree nodes and
// implements the Sibling Store consumed by the ordering engine.
//
// One table holds every node:
//   - id: opaque identity, compared with COLLATE BINARY
//   - parent_id: NULL for roots
//   - position: NULL until a default position is assigned
//
// # Critical Patterns
//
// Deterministic sibling order
//   - Every sibling query is compiled by querysql and ends in
//     ORDER BY position IS NULL, position ASC, id COLLATE BINARY ASC
//   - The engine never sorts on its own; this ORDER BY is the ordering source
//
// Single-row writes
//   - Persist issues exactly one UPDATE for one id
//   - No unique index on (parent_id, position); a move passes through states
//     with one duplicated position
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
