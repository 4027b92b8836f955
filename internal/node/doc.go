// Package node provides the record types ordered by treeorder.
//
// This package contains type definitions and pure helpers only. Every other
// internal package imports node; node imports nothing internal.
//
// Key design constraints:
//   - A root is a node whose ParentID is empty (NULL in storage)
//   - Position is meaningful only when Placed is true
//   - IDs are opaque and compared byte-wise after NFC normalization
//   - Values are snapshots; nothing in this package aliases store state
package node
