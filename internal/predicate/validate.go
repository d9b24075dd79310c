package predicate

import (
	"errors"
	"fmt"
)

// Validate checks that a predicate tree can be compiled: every comparison
// names a column, uses a supported operator and carries a storage value.
//
// Validate is a pure function with no side effects. All problems found are
// reported, joined into a single error.
func Validate(p Predicate) error {
	v := &validator{}
	v.validatePredicate(p)
	return errors.Join(v.problems...)
}

// validator accumulates problems during traversal.
type validator struct {
	problems []error
}

// addProblem appends a problem message.
func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Errorf(format, args...))
}

// validatePredicate recursively validates a predicate node.
func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		return // nil predicates are valid (no filter)
	}

	switch pred := p.(type) {
	case Compare:
		v.validateCompare(pred)
	case *Compare:
		v.validateCompare(*pred)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

// validateCompare validates a Compare predicate.
func (v *validator) validateCompare(c Compare) {
	if c.Column == "" {
		v.addProblem("comparison without a column")
	}
	if !c.Op.Valid() {
		v.addProblem("column %q: unsupported operator %q", c.Column, c.Op)
	}
	switch c.Value.(type) {
	case nil, string, int64, float64, []byte:
	default:
		v.addProblem("column %q: %T is not a storage value", c.Column, c.Value)
	}
}

// validateAnd validates an And predicate.
func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}
