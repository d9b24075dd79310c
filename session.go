package wurm

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/wurm/internal/ormerr"
	"github.com/roach88/wurm/internal/schema"
	"github.com/roach88/wurm/internal/sqlgen"
	"github.com/roach88/wurm/internal/store"
)

type sessionKey struct{}

// Bind returns a context bound to st. Operations run with the returned
// context use st. The tables of every registered record type are created
// before Bind returns; record types used for the first time later get their
// tables then.
func Bind(ctx context.Context, st *Store) (context.Context, error) {
	if st == nil {
		return nil, fmt.Errorf("bind: nil store")
	}
	seen := make(map[*schema.Schema]bool)
	for _, rt := range registered() {
		if err := ensureTables(ctx, st, rt.schema, seen); err != nil {
			return nil, fmt.Errorf("bind: %w", err)
		}
	}
	st.Logger().Debug("session bound", "path", st.Path())
	return context.WithValue(ctx, sessionKey{}, st), nil
}

// Unbind returns a context with no store bound, even if ctx has one.
func Unbind(ctx context.Context) context.Context {
	return context.WithValue(ctx, sessionKey{}, (*store.Store)(nil))
}

// StoreFrom returns the store bound to ctx.
func StoreFrom(ctx context.Context) (*Store, bool) {
	st, _ := ctx.Value(sessionKey{}).(*store.Store)
	return st, st != nil
}

func sessionStore(ctx context.Context) (*store.Store, error) {
	st, ok := StoreFrom(ctx)
	if !ok {
		return nil, ormerr.New(ormerr.CodeSessionNotBound, "no store bound to context; call wurm.Bind")
	}
	return st, nil
}

// ensureTables creates the table of s and of every record type it refers to.
func ensureTables(ctx context.Context, st *store.Store, s *schema.Schema, seen map[*schema.Schema]bool) error {
	if seen == nil {
		seen = make(map[*schema.Schema]bool)
	}
	if seen[s] {
		return nil
	}
	seen[s] = true
	for _, f := range s.Fields {
		if f.Kind == schema.FieldReference {
			if err := ensureTables(ctx, st, f.Ref, seen); err != nil {
				return err
			}
		}
	}
	return st.EnsureTable(ctx, s.Name, ddlOf(s))
}

var ddlCache sync.Map // *schema.Schema -> []string

func ddlOf(s *schema.Schema) []string {
	if ddl, ok := ddlCache.Load(s); ok {
		return ddl.([]string)
	}
	ddl, _ := ddlCache.LoadOrStore(s, sqlgen.DDL(s))
	return ddl.([]string)
}

// DDL returns the statements that create the table and unique indexes of
// record type T.
func DDL[T any]() ([]string, error) {
	rt, err := recordFor[T]()
	if err != nil {
		return nil, err
	}
	return slices.Clone(ddlOf(rt.schema)), nil
}
