package wurm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/roach88/wurm/internal/ormerr"
	"github.com/roach88/wurm/internal/schema"
	"github.com/roach88/wurm/internal/sqlgen"
	"github.com/roach88/wurm/internal/store"
	"github.com/roach88/wurm/internal/typemap"
)

// Insert stores v as a new row.
//
// For Table record types a zero RowID is assigned by the database and
// written back to v; a non-zero RowID is stored as given. Afterwards v is
// the live instance of its row and its relations are bound. Primary-key and
// unique violations fail with CodeDuplicateKey.
//
// When a load=strict relation of v cannot be read, the row is deleted
// again and v is left as it was passed in.
func Insert[T any](ctx context.Context, v *T) error {
	rt, err := recordFor[T]()
	if err != nil {
		return err
	}
	s := rt.schema
	if v == nil {
		return fmt.Errorf("insert %s: nil instance", s)
	}
	st, err := storeFor(ctx, rt)
	if err != nil {
		return fmt.Errorf("insert %s: %w", s, err)
	}

	rv := reflect.ValueOf(v).Elem()
	if err := checkReferences(s, rv); err != nil {
		return fmt.Errorf("insert %s: %w", s, err)
	}
	row, err := s.EncodeRow(rv)
	if err != nil {
		return fmt.Errorf("insert %s: %w", s, err)
	}

	rowid := s.RowID()
	withRowID := rowid != nil && rv.FieldByIndex(rowid.Index).Int() != 0
	if rowid != nil && !withRowID {
		row = row[1:]
	}
	res, err := st.Exec(ctx, sqlgen.Insert(s, withRowID), row...)
	if err != nil {
		return fmt.Errorf("insert %s: %w", s, err)
	}
	if rowid != nil && !withRowID {
		rv.FieldByIndex(rowid.Index).SetInt(res.LastInsertID)
	}

	key, pk, err := instanceKey(s, rv)
	if err != nil {
		return fmt.Errorf("insert %s: %w", s, err)
	}
	ptr := reflect.ValueOf(v)
	rt.store(st.IdentityMap(s.Name), key, ptr)
	if err := bindRelations(ctx, s, ptr); err != nil {
		st.IdentityMap(s.Name).Remove(key)
		if _, derr := deleteRow(ctx, st, s, pk); derr != nil {
			return fmt.Errorf("insert %s: %w; undo insert: %w", s, err, derr)
		}
		if rowid != nil && !withRowID {
			rv.FieldByIndex(rowid.Index).SetInt(0)
		}
		return fmt.Errorf("insert %s: %w", s, err)
	}
	return nil
}

// Commit writes the data fields of v to its row, matched by primary key.
// It fails with CodeNotPersisted when v has no primary key or no row has it.
func Commit[T any](ctx context.Context, v *T) error {
	rt, err := recordFor[T]()
	if err != nil {
		return err
	}
	s := rt.schema
	if v == nil {
		return fmt.Errorf("commit %s: nil instance", s)
	}
	st, err := storeFor(ctx, rt)
	if err != nil {
		return fmt.Errorf("commit %s: %w", s, err)
	}

	rv := reflect.ValueOf(v).Elem()
	_, pk, err := instanceKey(s, rv)
	if err != nil {
		return fmt.Errorf("commit %s: %w", s, err)
	}
	if typemap.AllNull(pk) {
		return ormerr.New(ormerr.CodeNotPersisted, "commit %s: instance has no primary key", s).WithTable(s.Name)
	}

	stmt := sqlgen.Update(s)
	if stmt == "" {
		return nil
	}
	if err := checkReferences(s, rv); err != nil {
		return fmt.Errorf("commit %s: %w", s, err)
	}
	data, err := s.EncodeData(rv)
	if err != nil {
		return fmt.Errorf("commit %s: %w", s, err)
	}
	res, err := st.Exec(ctx, stmt, append(data, pk...)...)
	if err != nil {
		return fmt.Errorf("commit %s: %w", s, err)
	}
	if res.RowsAffected == 0 {
		return ormerr.New(ormerr.CodeNotPersisted, "commit %s: no row has key %v", s, pk).WithTable(s.Name)
	}
	return nil
}

// Delete removes the row of v and evicts v from the identity map. For
// Table record types RowID is reset to zero, so v can be inserted again.
// It fails with CodeNotPersisted when v has no primary key or no row has it.
func Delete[T any](ctx context.Context, v *T) error {
	rt, err := recordFor[T]()
	if err != nil {
		return err
	}
	s := rt.schema
	if v == nil {
		return fmt.Errorf("delete %s: nil instance", s)
	}
	st, err := storeFor(ctx, rt)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s, err)
	}

	rv := reflect.ValueOf(v).Elem()
	key, pk, err := instanceKey(s, rv)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s, err)
	}
	if typemap.AllNull(pk) {
		return ormerr.New(ormerr.CodeNotPersisted, "delete %s: instance has no primary key", s).WithTable(s.Name)
	}

	n, err := deleteRow(ctx, st, s, pk)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s, err)
	}
	if n == 0 {
		return ormerr.New(ormerr.CodeNotPersisted, "delete %s: no row has key %v", s, pk).WithTable(s.Name)
	}
	st.IdentityMap(s.Name).Remove(key)
	if rowid := s.RowID(); rowid != nil {
		rv.FieldByIndex(rowid.Index).SetInt(0)
	}
	return nil
}

// deleteRow deletes the row of s whose primary key is pk and returns the
// number of rows deleted.
func deleteRow(ctx context.Context, st *store.Store, s *schema.Schema, pk []any) (int64, error) {
	where, args, err := sqlgen.Compile(sqlgen.KeyFilter(s, pk))
	if err != nil {
		return 0, err
	}
	res, err := st.Exec(ctx, sqlgen.Delete(s, where), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// Evict removes v from the identity map without touching its row. The next
// read of the row decodes a new instance.
func Evict[T any](ctx context.Context, v *T) error {
	rt, err := recordFor[T]()
	if err != nil {
		return err
	}
	s := rt.schema
	if v == nil {
		return fmt.Errorf("evict %s: nil instance", s)
	}
	st, err := sessionStore(ctx)
	if err != nil {
		return fmt.Errorf("evict %s: %w", s, err)
	}
	key, _, err := instanceKey(s, reflect.ValueOf(v).Elem())
	if err != nil {
		return fmt.Errorf("evict %s: %w", s, err)
	}
	st.IdentityMap(s.Name).Remove(key)
	return nil
}

// All returns every stored T in primary-key order.
func All[T any](ctx context.Context) ([]*T, error) {
	q, err := Find[T](nil)
	if err != nil {
		return nil, err
	}
	return q.All(ctx)
}

// Count returns the number of stored T.
func Count[T any](ctx context.Context) (int64, error) {
	q, err := Find[T](nil)
	if err != nil {
		return 0, err
	}
	return q.Count(ctx)
}

// Get returns the T whose primary key is key, given as one value per
// primary-key field in declaration order (the RowID for Table record
// types). It fails with CodeEmptyResult when there is none.
func Get[T any](ctx context.Context, key ...any) (*T, error) {
	rt, err := recordFor[T]()
	if err != nil {
		return nil, err
	}
	s := rt.schema
	if len(key) != len(s.PrimaryKey) {
		return nil, fmt.Errorf("get %s: got %d key values, want %d", s, len(key), len(s.PrimaryKey))
	}
	where := make(Where, len(key))
	for i, f := range s.PrimaryKey {
		where[f.Name] = key[i]
	}
	q, err := Find[T](where)
	if err != nil {
		return nil, err
	}
	return q.One(ctx)
}

// checkReferences fails when a foreign-key field of rv points at an
// instance without a primary key.
func checkReferences(s *schema.Schema, rv reflect.Value) error {
	for _, f := range s.Fields {
		if f.Kind != schema.FieldReference {
			continue
		}
		v := rv.FieldByIndex(f.Index)
		if v.IsNil() {
			continue
		}
		stored, err := f.Encode(v)
		if err != nil {
			return err
		}
		if typemap.AllNull(stored) {
			return ormerr.New(ormerr.CodeNotPersisted,
				"%s refers to an unsaved %s", f.Name, f.Ref).WithTable(s.Name).WithField(f.Name)
		}
	}
	return nil
}
