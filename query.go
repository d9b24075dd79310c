package wurm

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"reflect"
	"slices"

	"github.com/roach88/wurm/internal/ormerr"
	"github.com/roach88/wurm/internal/predicate"
	"github.com/roach88/wurm/internal/schema"
	"github.com/roach88/wurm/internal/sqlgen"
	"github.com/roach88/wurm/internal/store"
	"github.com/roach88/wurm/internal/typemap"
)

// Where maps field names to filter values. A value that is not a Comparison
// is compared with "=". Comparing with nil matches absent values.
type Where map[string]any

// Op is a comparison operator.
type Op = predicate.Op

// Comparison operators.
const (
	OpEq = predicate.OpEq
	OpNe = predicate.OpNe
	OpLt = predicate.OpLt
	OpLe = predicate.OpLe
	OpGt = predicate.OpGt
	OpGe = predicate.OpGe
)

// Comparison is an operator and the value a field is compared with.
type Comparison struct {
	Op    Op
	Value any
}

// Eq matches values equal to v, or absent values when v is nil.
func Eq(v any) Comparison { return Comparison{Op: OpEq, Value: v} }

// Ne matches values other than v, or present values when v is nil.
func Ne(v any) Comparison { return Comparison{Op: OpNe, Value: v} }

// Lt matches values less than v.
func Lt(v any) Comparison { return Comparison{Op: OpLt, Value: v} }

// Le matches values less than or equal to v.
func Le(v any) Comparison { return Comparison{Op: OpLe, Value: v} }

// Gt matches values greater than v.
func Gt(v any) Comparison { return Comparison{Op: OpGt, Value: v} }

// Ge matches values greater than or equal to v.
func Ge(v any) Comparison { return Comparison{Op: OpGe, Value: v} }

// Query selects the rows of record type T matching a filter.
//
// Building a Query never touches storage. Every method that runs it reads
// the rows stored at that moment, so a Query can be run any number of times.
// Rows come back ordered by primary key.
type Query[T any] struct {
	rt    *recordType
	where string
	args  []any
}

// Find returns the query selecting the T rows matching where. An empty or
// nil where selects every row.
//
// Filter keys are field names (the column name of single-column fields,
// "rowid" for the implicit identity). A key naming no field fails with
// CodeUnknownField. Fields spanning several columns only support equality.
func Find[T any](where Where) (*Query[T], error) {
	rt, err := recordFor[T]()
	if err != nil {
		return nil, err
	}
	s := rt.schema

	var preds []predicate.Predicate
	for _, name := range slices.Sorted(maps.Keys(where)) {
		f, ok := s.Field(name)
		if !ok {
			return nil, ormerr.New(ormerr.CodeUnknownField,
				"invalid query: %s.%s does not exist", s, name).WithTable(s.Name).WithField(name)
		}
		cmp, ok := where[name].(Comparison)
		if !ok {
			cmp = Eq(where[name])
		}
		fieldPreds, err := compareField(s, f, cmp)
		if err != nil {
			return nil, err
		}
		preds = append(preds, fieldPreds...)
	}

	clause, args, err := sqlgen.Compile(predicate.And{Predicates: preds})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s, err)
	}
	return &Query[T]{rt: rt, where: clause, args: args}, nil
}

// compareField expands one filter entry into a comparison per column.
func compareField(s *schema.Schema, f *schema.Field, cmp Comparison) ([]predicate.Predicate, error) {
	if !cmp.Op.Valid() {
		return nil, fmt.Errorf("query %s: field %s: unsupported comparison operator %q", s, f.Name, cmp.Op)
	}
	if f.Width() > 1 && cmp.Op != OpEq && (cmp.Op != OpNe || !isNil(cmp.Value)) {
		return nil, fmt.Errorf("query %s: field %s spans %d columns and can only be compared with =",
			s, f.Name, f.Width())
	}

	stored, err := f.EncodeValue(cmp.Value)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s, err)
	}
	if f.Kind == schema.FieldReference && !isNil(cmp.Value) && typemap.AllNull(stored) {
		return nil, ormerr.New(ormerr.CodeNotPersisted,
			"query %s: %s refers to an unsaved %s", s, f.Name, f.Ref).WithTable(s.Name).WithField(f.Name)
	}

	preds := make([]predicate.Predicate, len(f.Columns))
	for i, col := range f.Columns {
		v, err := typemap.Normalize(col.Kind, stored[i])
		if err != nil {
			return nil, fmt.Errorf("query %s: field %s: %w", s, f.Name, err)
		}
		preds[i] = predicate.Compare{Column: col.Name, Op: cmp.Op, Value: v}
	}
	return preds, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// Count returns the number of matching rows.
func (q *Query[T]) Count(ctx context.Context) (int64, error) {
	s := q.rt.schema
	st, err := storeFor(ctx, q.rt)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s, err)
	}
	rows, err := st.Query(ctx, sqlgen.Count(s, q.where), q.args...)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s, err)
	}
	n, err := typemap.Normalize(typemap.KindInteger, rows[0][0])
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s, err)
	}
	return n.(int64), nil
}

// Iter runs the query when iteration starts and yields the matching
// instances. Iteration stops after the first error.
func (q *Query[T]) Iter(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		st, rows, err := q.run(ctx, 0)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, row := range rows {
			v, err := decodeRow(ctx, st, q.rt, row)
			if err != nil {
				yield(nil, fmt.Errorf("select %s: %w", q.rt.schema, err))
				return
			}
			if !yield(v.Interface().(*T), nil) {
				return
			}
		}
	}
}

// All returns every matching instance.
func (q *Query[T]) All(ctx context.Context) ([]*T, error) {
	out := []*T{}
	for v, err := range q.Iter(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// First returns the first matching instance in primary-key order. It fails
// with CodeEmptyResult when nothing matches.
func (q *Query[T]) First(ctx context.Context) (*T, error) {
	found, err := q.limit(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ormerr.New(ormerr.CodeEmptyResult, "%s: no rows", q).WithTable(q.rt.schema.Name)
	}
	return found[0], nil
}

// One returns the only matching instance. It fails with CodeEmptyResult
// when nothing matches and with CodeAmbiguousResult when more than one row
// does. At most two rows are read.
func (q *Query[T]) One(ctx context.Context) (*T, error) {
	found, err := q.limit(ctx, 2)
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, ormerr.New(ormerr.CodeEmptyResult, "%s: no rows", q).WithTable(q.rt.schema.Name)
	case 1:
		return found[0], nil
	}
	return nil, ormerr.New(ormerr.CodeAmbiguousResult, "%s: more than one row", q).WithTable(q.rt.schema.Name)
}

// Delete removes the matching rows and returns how many were removed.
// A query without a filter removes every row of the table.
//
// Live instances of the removed rows are evicted from the identity map but
// keep their primary key.
func (q *Query[T]) Delete(ctx context.Context) (int64, error) {
	s := q.rt.schema
	st, err := storeFor(ctx, q.rt)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", s, err)
	}
	m := st.IdentityMap(s.Name)

	if q.where == "" {
		res, err := st.Exec(ctx, sqlgen.Delete(s, ""))
		if err != nil {
			return 0, fmt.Errorf("delete %s: %w", s, err)
		}
		m.Clear()
		return res.RowsAffected, nil
	}

	keys, err := st.Query(ctx, sqlgen.SelectKeys(s, q.where), q.args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", s, err)
	}
	res, err := st.Exec(ctx, sqlgen.Delete(s, q.where), q.args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", s, err)
	}
	for _, k := range keys {
		key, _, err := canonicalKey(s.PrimaryKeyColumns(), k)
		if err != nil {
			m.Clear()
			break
		}
		m.Remove(key)
	}
	return res.RowsAffected, nil
}

// String describes the query for error messages and logs.
func (q *Query[T]) String() string {
	if q.where == "" {
		return q.rt.schema.String()
	}
	return fmt.Sprintf("%s where %s %v", q.rt.schema, q.where, q.args)
}

func (q *Query[T]) limit(ctx context.Context, n int) ([]*T, error) {
	st, rows, err := q.run(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		v, err := decodeRow(ctx, st, q.rt, row)
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", q.rt.schema, err)
		}
		out = append(out, v.Interface().(*T))
	}
	return out, nil
}

// run executes the SELECT, limited to n rows when n > 0.
func (q *Query[T]) run(ctx context.Context, n int) (*store.Store, store.Rows, error) {
	s := q.rt.schema
	st, err := storeFor(ctx, q.rt)
	if err != nil {
		return nil, nil, fmt.Errorf("select %s: %w", s, err)
	}
	args := q.args
	if n > 0 {
		args = append(slices.Clip(args), int64(n))
	}
	rows, err := st.Query(ctx, sqlgen.Select(s, q.where, n > 0), args...)
	if err != nil {
		return nil, nil, fmt.Errorf("select %s: %w", s, err)
	}
	return st, rows, nil
}

// storeFor returns the store bound to ctx with the tables of rt created.
func storeFor(ctx context.Context, rt *recordType) (*store.Store, error) {
	st, err := sessionStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := rt.checkTargets(); err != nil {
		return nil, err
	}
	if err := ensureTables(ctx, st, rt.schema, nil); err != nil {
		return nil, err
	}
	return st, nil
}
