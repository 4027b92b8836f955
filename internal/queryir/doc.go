// Package queryir provides the abstract predicate representation for
// sibling queries.
//
// The ordering engine never writes SQL. It describes which siblings it needs
// ("position greater than 3, not node X") as a predicate, and each store
// evaluates that predicate its own way:
//
//	[ordering engine] → [Predicate] → [querysql]  (SQLite, PostgreSQL)
//	                                → [Match]     (in-memory store)
//
// SCOPE:
//
// A predicate always applies inside one sibling group. The group itself is
// not part of the predicate: stores resolve it from the node the query is
// made for, so a predicate can never reach across groups.
//
// SEALED INTERFACE:
//
// Predicate is sealed using the marker method pattern. Only types in this
// package implement it, which gives backends exhaustive type switches:
//
//	switch p := pred.(type) {
//	case PositionEquals:
//	case PositionGreater:
//	case PositionLess:
//	case PositionBetween:
//	case ExcludeID:
//	case And:
//	}
//
// Both value and pointer forms are accepted by every backend.
//
// ORDERING:
//
// Predicates filter; they never order. Every backend returns matches in
// ascending position order with ties broken by ID byte order.
package queryir
