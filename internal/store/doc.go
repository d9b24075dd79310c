// Package store executes statements against a SQLite database for wurm.
//
// A Store is the statement executor the query engine talks to. It provides:
//   - Exec: data-modifying statements with rows affected and last insert id
//   - Query: fully buffered result sets
//   - EnsureTable: memoized, lazy table creation
//   - IdentityMap: one identity map per table, shared by every session
//
// # Error Translation
//
// Driver errors are inspected in exactly one place (translate). Primary-key
// and unique constraint violations become ormerr.CodeDuplicateKey; all other
// failures become ormerr.CodeStorage. The driver error stays reachable
// through errors.Unwrap.
//
// # Drivers
//
//   - "sqlite3": github.com/mattn/go-sqlite3 (default)
//   - "sqlite": modernc.org/sqlite, a pure-Go build without cgo
//
// # Database Configuration
//
//   - journal_mode from Options (WAL by default)
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout from Options (5000ms by default)
//   - foreign_keys=ON
//   - a single connection, so ":memory:" databases live as long as the Store
//
// Prepared statements are cached in an LRU of Options.StatementCacheSize
// entries; evicted statements are closed.
package store
