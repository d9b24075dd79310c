// Package testutil provides helpers shared by tests that need a database.
package testutil

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/wurm/internal/store"
)

// Drivers lists every supported driver; driver-sensitive tests run once per entry.
var Drivers = []string{store.DriverMattn, store.DriverModernc}

// OpenStore opens a store on a fresh database file in a temporary directory.
// The store is closed when the test ends. Statements are logged at debug
// level through t.Log, so they show up with go test -v.
func OpenStore(t testing.TB, driver string) *store.Store {
	t.Helper()
	opts := store.DefaultOptions()
	opts.Driver = driver
	opts.Path = filepath.Join(t.TempDir(), "test.db")
	opts.Logger = Logger(t)
	s, err := store.OpenOptions(opts)
	if err != nil {
		t.Fatalf("OpenOptions(%s) failed: %v", driver, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Logger returns a debug-level logger writing to t.Log.
func Logger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(logWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// logWriter forwards each handler write to t.Log.
type logWriter struct {
	t testing.TB
}

func (w logWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
