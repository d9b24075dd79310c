// Package sqlgen renders SQLite statements from schemas and predicate trees.
//
// Every function here is a pure string assembly step: which fields are
// primary, unique, or data is decided by internal/schema before a statement
// is generated. Identifiers are always quoted and values are always bound
// through ? placeholders.
//
// SELECT statements always carry an ORDER BY over the primary-key columns,
// so the same query over the same rows yields the same order.
package sqlgen
