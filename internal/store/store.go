package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/roach88/wurm/internal/identity"
)

// Driver names accepted in Options.Driver.
const (
	// DriverMattn is github.com/mattn/go-sqlite3 (cgo).
	DriverMattn = "sqlite3"
	// DriverModernc is modernc.org/sqlite (pure Go).
	DriverModernc = "sqlite"
)

// Options configures a Store.
type Options struct {
	// Driver is the database/sql driver name: DriverMattn or DriverModernc.
	Driver string `yaml:"driver"`
	// Path is the database file, or ":memory:".
	Path string `yaml:"path"`
	// JournalMode is applied with PRAGMA journal_mode.
	JournalMode string `yaml:"journal_mode"`
	// BusyTimeoutMS is applied with PRAGMA busy_timeout.
	BusyTimeoutMS int `yaml:"busy_timeout_ms"`
	// StatementCacheSize bounds the number of prepared statements kept open.
	StatementCacheSize int `yaml:"statement_cache_size"`
	// Logger receives statement and schema logs. Nil discards them.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultOptions returns the options used by Open.
func DefaultOptions() Options {
	return Options{
		Driver:             DriverMattn,
		JournalMode:        "WAL",
		BusyTimeoutMS:      5000,
		StatementCacheSize: 64,
	}
}

// Validate checks that the options can open a store.
func (o Options) Validate() error {
	switch o.Driver {
	case DriverMattn, DriverModernc:
	default:
		return fmt.Errorf("unknown driver %q (want %q or %q)", o.Driver, DriverMattn, DriverModernc)
	}
	if o.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if o.BusyTimeoutMS < 0 {
		return fmt.Errorf("busy_timeout_ms must not be negative")
	}
	if o.StatementCacheSize < 1 {
		return fmt.Errorf("statement_cache_size must be at least 1")
	}
	return nil
}

// Store executes statements against one SQLite database and owns the
// per-table state shared by every session bound to it: the memo of created
// tables and the identity maps.
//
// A Store uses a single connection. Statements from concurrent goroutines
// are serialized, and every result set is read completely before the
// statement returns, so callers may issue further statements while
// processing rows.
type Store struct {
	db     *sql.DB
	driver string
	path   string
	log    *slog.Logger

	// mu serializes statement execution and guards the statement cache.
	mu    sync.Mutex
	stmts *lru.Cache[string, *sql.Stmt]

	tablesMu sync.Mutex
	created  map[string]bool
	maps     map[string]*identity.Map
}

// Open creates or opens a SQLite database at the given path with the
// default options.
func Open(path string) (*Store, error) {
	opts := DefaultOptions()
	opts.Path = path
	return OpenOptions(opts)
}

// OpenOptions creates or opens a SQLite database.
//
// The database is configured with:
//   - the configured journal mode (WAL by default)
//   - NORMAL synchronous mode
//   - the configured busy timeout for lock contention
//   - foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func OpenOptions(opts Options) (*Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store options: %w", err)
	}

	db, err := sql.Open(opts.Driver, opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time. A single connection also keeps
	// ":memory:" databases alive for the lifetime of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db, opts); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		db:      db,
		driver:  opts.Driver,
		path:    opts.Path,
		log:     logger.With("db", opts.Path),
		created: make(map[string]bool),
		maps:    make(map[string]*identity.Map),
	}
	s.stmts, err = lru.NewWithEvict[string, *sql.Stmt](opts.StatementCacheSize, func(query string, stmt *sql.Stmt) {
		if err := stmt.Close(); err != nil {
			s.log.Warn("close evicted statement", "stmt", query, "error", err)
		}
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create statement cache: %w", err)
	}

	s.log.Debug("opened store", "driver", opts.Driver)
	return s, nil
}

// Close releases prepared statements and closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.mu.Lock()
	s.stmts.Purge()
	s.mu.Unlock()
	return s.db.Close()
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.log
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, opts Options) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA journal_mode = %s", opts.JournalMode),
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeoutMS),
		"PRAGMA foreign_keys = ON",
	}
	if opts.JournalMode == "" {
		pragmas = pragmas[1:]
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
