package store

import (
	"context"
	"database/sql"
)

// Result reports the effect of a data-modifying statement.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Exec runs a statement that returns no rows.
//
// Constraint violations (primary key, unique index) fail with
// ormerr.CodeDuplicateKey; every other failure with ormerr.CodeStorage. The
// driver error stays reachable through errors.Unwrap.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("exec", "stmt", query, "args", len(args))

	stmt, err := s.prepare(ctx, query)
	if err != nil {
		return Result{}, translate(err, "prepare statement")
	}
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return Result{}, translate(err, "execute statement")
	}

	var out Result
	if out.RowsAffected, err = res.RowsAffected(); err != nil {
		return Result{}, translate(err, "read rows affected")
	}
	if out.LastInsertID, err = res.LastInsertId(); err != nil {
		return Result{}, translate(err, "read last insert id")
	}
	return out, nil
}

// prepare returns a cached prepared statement for query.
// Callers must hold s.mu.
func (s *Store) prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	if stmt, ok := s.stmts.Get(query); ok {
		return stmt, nil
	}
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	s.stmts.Add(query, stmt)
	return stmt, nil
}
