package predicate

import "fmt"

// Predicate represents a filter condition over a record type's columns.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the statement generator.
//
// Predicate types:
//   - Compare: column <op> value
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Valid reports whether op is one of the supported operators.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// ParseOp converts the textual form of an operator.
func ParseOp(s string) (Op, error) {
	op := Op(s)
	if !op.Valid() {
		return "", fmt.Errorf("unsupported comparison operator %q", s)
	}
	return op, nil
}

// Compare represents a column-op-value predicate.
//
// Semantics:
//
//	<column> <op> <value>
//
// Value is a storage value (string, int64, float64, []byte or nil) already
// encoded by the type registry. A nil Value compares with IS NULL (for OpEq)
// or IS NOT NULL (for OpNe); other operators never match NULL.
//
// Example:
//
//	Compare{Column: "y", Op: OpGe, Value: int64(1)}
//
// Translates to SQL:
//
//	"y" >= ?
type Compare struct {
	Column string
	Op     Op
	Value  any
}

func (Compare) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
//
// Semantics:
//
//	<predicate1> AND <predicate2> AND ... AND <predicateN>
//
// An empty Predicates slice is always true (vacuous truth). A foreign-key
// or composite field filter expands into one Compare per column joined by
// And.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Empty reports whether p places no restriction on rows.
func Empty(p Predicate) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case And:
		return allEmpty(pred.Predicates)
	case *And:
		return pred == nil || allEmpty(pred.Predicates)
	}
	return false
}

func allEmpty(ps []Predicate) bool {
	for _, p := range ps {
		if !Empty(p) {
			return false
		}
	}
	return true
}
