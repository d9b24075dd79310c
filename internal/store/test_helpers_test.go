package store

import (
	"path/filepath"
	"testing"
)

// drivers lists every supported driver; driver-sensitive tests run once per entry.
var drivers = []string{DriverMattn, DriverModernc}

// createTestStore creates a new on-disk store for testing.
func createTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	opts := DefaultOptions()
	opts.Driver = driver
	opts.Path = filepath.Join(t.TempDir(), "test.db")
	s, err := OpenOptions(opts)
	if err != nil {
		t.Fatalf("OpenOptions() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
