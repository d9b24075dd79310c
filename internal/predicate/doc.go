// Package predicate provides the filter tree compiled into WHERE clauses.
//
// A query's keyword filters (field name → comparison) are lowered by the
// query engine into this tree after the field values have been encoded to
// storage values, so the tree speaks only in physical column names and
// primitive values. The statement generator (internal/sqlgen) compiles it to
// parameterized SQL; values are never interpolated into statement text.
//
// Query → tree → SQL:
//
//	Find[Point](Where{"x": 0, "y": Ge(1)})
//
//	And{Predicates: []Predicate{
//	    Compare{Column: "x", Op: OpEq, Value: int64(0)},
//	    Compare{Column: "y", Op: OpGe, Value: int64(1)},
//	}}
//
//	"x" = ? AND "y" >= ?     args: [0 1]
package predicate
