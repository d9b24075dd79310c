package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	if _, err := s1.db.Exec(`CREATE TABLE "point" ("x" INTEGER)`); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	err = s2.db.QueryRow(`SELECT COUNT(*) FROM "point"`).Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	// Try to open in non-existent directory
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_InvalidOptions(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Options)
	}{
		{"unknown driver", func(o *Options) { o.Driver = "postgres" }},
		{"empty path", func(o *Options) { o.Path = "" }},
		{"negative busy timeout", func(o *Options) { o.BusyTimeoutMS = -1 }},
		{"no statement cache", func(o *Options) { o.StatementCacheSize = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Path = filepath.Join(t.TempDir(), "test.db")
			tc.modify(&opts)
			if _, err := OpenOptions(opts); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestOpen_InMemory(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Driver = driver
			opts.Path = ":memory:"
			s, err := OpenOptions(opts)
			if err != nil {
				t.Fatalf("OpenOptions() failed: %v", err)
			}
			defer s.Close()

			// The single connection keeps the database alive between statements.
			if _, err := s.db.Exec(`CREATE TABLE "t" ("x" INTEGER)`); err != nil {
				t.Fatalf("create failed: %v", err)
			}
			if _, err := s.db.Exec(`INSERT INTO "t" ("x") VALUES (1)`); err != nil {
				t.Fatalf("insert failed: %v", err)
			}
		})
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	err := s.Close()
	if err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}

	// Second close should not panic (though may error)
	_ = s.Close()
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t, DriverMattn)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t, DriverMattn)

	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t, DriverMattn)

	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	s := createTestStore(t, DriverMattn)

	// ON = 1
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ModerncDriver(t *testing.T) {
	s := createTestStore(t, DriverModernc)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ConfiguredValues(t *testing.T) {
	opts := DefaultOptions()
	opts.Path = filepath.Join(t.TempDir(), "test.db")
	opts.JournalMode = "DELETE"
	opts.BusyTimeoutMS = 250
	s, err := OpenOptions(opts)
	if err != nil {
		t.Fatalf("OpenOptions() failed: %v", err)
	}
	defer s.Close()

	if err := s.verifyPragma("journal_mode", "delete"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("busy_timeout", "250"); err != nil {
		t.Error(err)
	}
}
