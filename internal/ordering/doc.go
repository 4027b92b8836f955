// Package ordering implements the ordering engine: it keeps the positions of
// sibling nodes dense (0, 1, ..., n-1) while nodes are inserted, reparented
// and moved.
//
// ARCHITECTURE:
//
// The engine owns no data. Every operation reads the sibling subset it needs
// from a SiblingStore, computes new positions in memory, and issues one
// Persist call per touched node:
//
//	caller → Engine.MoveAbove(n, other)
//	         ├─ Get              (refresh n and other by ID)
//	         ├─ SiblingsWhere    (only the slots that shift)
//	         └─ Persist × k      (shifted siblings, then n)
//
// Writes are applied one at a time with no transaction. The order is chosen
// so that at any instant at most one position is duplicated and none is out
// of range; the contiguity invariant holds again once the operation returns.
//
// SNAPSHOTS:
//
// Node values are snapshots. The engine re-reads n and other by ID before
// computing anything and never assumes a node it returned earlier reflects
// later writes. Callers should re-read after a move. Stores that also
// implement NodeGetter are read by ID; otherwise n is looked up in the group
// named by its snapshot.
//
// CONCURRENCY:
//
// The engine assumes one writer per sibling group. Configure WithLocker to
// enforce that: every operation then holds the lock of each group it touches,
// acquired in sorted key order so two cross-group moves cannot deadlock. If a
// node changed groups while the locks were being acquired the engine
// releases them and locks the new groups instead.
//
// ERRORS:
//
// A failed Persist stops the operation immediately and returns an *Error with
// Code ErrCodePersistence. Nothing is rolled back and nothing is retried; the
// group may hold one duplicated or skipped position until repaired. Boundary
// no-ops (already at top, moving a node relative to itself) return nil.
package ordering
