package wurm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/roach88/wurm/internal/identity"
	"github.com/roach88/wurm/internal/ormerr"
	"github.com/roach88/wurm/internal/schema"
	"github.com/roach88/wurm/internal/sqlgen"
	"github.com/roach88/wurm/internal/store"
	"github.com/roach88/wurm/internal/typemap"
)

// decodeRow returns the instance of a stored row, as a pointer.
//
// The identity map is consulted first. A new instance is registered before
// its foreign keys are resolved, so rows referring to each other decode to
// one instance each instead of recursing forever. If resolving fails the
// registration is undone.
func decodeRow(ctx context.Context, st *store.Store, rt *recordType, row []any) (reflect.Value, error) {
	s := rt.schema
	pk, err := s.KeyOf(row)
	if err != nil {
		return reflect.Value{}, err
	}
	key, _, err := canonicalKey(s.PrimaryKeyColumns(), pk)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("decode %s: %w", s, err)
	}
	m := st.IdentityMap(s.Name)
	if v, ok := rt.lookup(m, key); ok {
		return v, nil
	}

	segments, err := s.Segments(row)
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(s.GoType)
	rv := ptr.Elem()
	for i, f := range s.Fields {
		if f.Kind == schema.FieldReference {
			continue
		}
		v, err := f.Decode(segments[i])
		if err != nil {
			return reflect.Value{}, fmt.Errorf("decode %s: %w", s, err)
		}
		rv.FieldByIndex(f.Index).Set(v)
	}

	actual, loaded := rt.loadOrStore(m, key, ptr)
	if loaded {
		return actual, nil
	}

	for i, f := range s.Fields {
		if f.Kind != schema.FieldReference {
			continue
		}
		ref, err := decodeReference(ctx, st, f, segments[i])
		if err != nil {
			m.Remove(key)
			return reflect.Value{}, fmt.Errorf("decode %s.%s: %w", s, f.Name, err)
		}
		rv.FieldByIndex(f.Index).Set(ref)
	}
	if err := bindRelations(ctx, s, ptr); err != nil {
		m.Remove(key)
		return reflect.Value{}, err
	}
	return ptr, nil
}

// decodeReference returns the instance a foreign key refers to: nil when
// every key column is null, the live instance when there is one, and
// otherwise the instance decoded from a lookup by primary key.
func decodeReference(ctx context.Context, st *store.Store, f *schema.Field, stored []any) (reflect.Value, error) {
	if typemap.AllNull(stored) {
		return reflect.Zero(f.Type), nil
	}
	target, err := recordOf(f.Ref.GoType)
	if err != nil {
		return reflect.Value{}, err
	}
	key, pk, err := canonicalKey(f.Ref.PrimaryKeyColumns(), stored)
	if err != nil {
		return reflect.Value{}, err
	}
	if v, ok := target.lookup(st.IdentityMap(f.Ref.Name), key); ok {
		return v, nil
	}

	if err := ensureTables(ctx, st, f.Ref, nil); err != nil {
		return reflect.Value{}, err
	}
	where, args, err := sqlgen.Compile(sqlgen.KeyFilter(f.Ref, pk))
	if err != nil {
		return reflect.Value{}, err
	}
	rows, err := st.Query(ctx, sqlgen.Select(f.Ref, where, true), append(args, int64(1))...)
	if err != nil {
		return reflect.Value{}, err
	}
	if len(rows) == 0 {
		return reflect.Value{}, ormerr.New(ormerr.CodeEmptyResult,
			"referenced %s %v does not exist", f.Ref, pk).WithTable(f.Ref.Name)
	}
	return decodeRow(ctx, st, target, rows[0])
}

// canonicalKey normalizes primary-key values for cols and returns their
// identity-map key along with the normalized values.
func canonicalKey(cols []typemap.Column, values []any) (string, []any, error) {
	if len(values) != len(cols) {
		return "", nil, fmt.Errorf("primary key has %d values, want %d", len(values), len(cols))
	}
	normalized := make([]any, len(values))
	for i, v := range values {
		n, err := typemap.Normalize(cols[i].Kind, v)
		if err != nil {
			return "", nil, fmt.Errorf("primary key column %s: %w", cols[i].Name, err)
		}
		normalized[i] = n
	}
	return identity.Key(normalized), normalized, nil
}

// instanceKey returns the identity-map key of record value rv and its
// normalized primary-key values.
func instanceKey(s *schema.Schema, rv reflect.Value) (string, []any, error) {
	pk, err := s.EncodeKey(rv)
	if err != nil {
		return "", nil, err
	}
	return canonicalKey(s.PrimaryKeyColumns(), pk)
}

// bindRelations attaches every relation field of the instance ptr to it.
func bindRelations(ctx context.Context, s *schema.Schema, ptr reflect.Value) error {
	for _, rel := range s.Relations {
		field := ptr.Elem().FieldByIndex(rel.Index)
		binder, ok := field.Addr().Interface().(relationBinder)
		if !ok {
			continue
		}
		if err := binder.bind(ctx, ptr.Interface(), rel); err != nil {
			return fmt.Errorf("load %s.%s: %w", s, rel.Name, err)
		}
	}
	return nil
}
