package store

import (
	"context"
	"fmt"

	"github.com/roach88/wurm/internal/identity"
)

// EnsureTable runs the DDL statements of table once per store. Later calls
// for the same table are no-ops, so creation is lazy and memoized. A failed
// creation is not memoized and is retried by the next call.
func (s *Store) EnsureTable(ctx context.Context, table string, ddl []string) error {
	s.tablesMu.Lock()
	defer s.tablesMu.Unlock()

	if s.created[table] {
		return nil
	}
	for _, stmt := range ddl {
		if _, err := s.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	s.created[table] = true
	s.log.Info("ensured table", "table", table, "statements", len(ddl))
	return nil
}

// IdentityMap returns the identity map of table. Every session bound to the
// store shares it.
func (s *Store) IdentityMap(table string) *identity.Map {
	s.tablesMu.Lock()
	defer s.tablesMu.Unlock()

	m, ok := s.maps[table]
	if !ok {
		m = identity.New()
		s.maps[table] = m
	}
	return m
}
