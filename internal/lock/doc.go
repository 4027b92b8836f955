// Package lock provides sibling-group locks for the ordering engine.
//
// A move reads a group and then writes several of its members one at a time.
// Two moves interleaving inside one group can corrupt its positions, so
// deployments with more than one writer configure the engine with a
// GroupLocker:
//
//   - Local serializes writers inside one process
//   - Redis serializes writers across processes sharing a Redis server
//
// Both hand out an unlock function that is safe to call more than once.
package lock
