package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/roach88/wurm/internal/ormerr"
)

// translate converts a driver failure into the ormerr taxonomy. It is the
// only place driver errors are inspected.
func translate(err error, action string) error {
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return ormerr.Wrap(ormerr.CodeDuplicateKey, err, "%s", action)
	}
	return ormerr.Wrap(ormerr.CodeStorage, err, "%s", action)
}

// isDuplicateKey reports whether err is a primary-key or unique constraint
// violation from either supported driver.
func isDuplicateKey(err error) bool {
	var mattnErr sqlite3.Error
	if errors.As(err, &mattnErr) {
		if mattnErr.Code != sqlite3.ErrConstraint {
			return false
		}
		switch mattnErr.ExtendedCode {
		case sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintForeignKey:
			return false
		}
		return true
	}

	var moderncErr *sqlite.Error
	if errors.As(err, &moderncErr) {
		code := moderncErr.Code()
		if code&0xff != sqlitelib.SQLITE_CONSTRAINT {
			return false
		}
		switch code {
		case sqlitelib.SQLITE_CONSTRAINT_NOTNULL, sqlitelib.SQLITE_CONSTRAINT_CHECK, sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return false
		}
		return true
	}
	return false
}
