package sqlgen

import (
	"fmt"
	"strings"

	"github.com/roach88/wurm/internal/predicate"
)

// Compile converts a predicate tree into a WHERE clause fragment and its
// arguments. A tree placing no restriction compiles to the empty string.
//
// Values are never interpolated into the statement text. Comparing with a
// nil value compiles "=" to IS NULL and "!=" to IS NOT NULL; the remaining
// operators keep their placeholder and so match no rows, as in SQL.
func Compile(p predicate.Predicate) (string, []any, error) {
	if err := predicate.Validate(p); err != nil {
		return "", nil, fmt.Errorf("compile predicate: %w", err)
	}
	if predicate.Empty(p) {
		return "", nil, nil
	}
	var args []any
	where, err := compile(p, &args)
	if err != nil {
		return "", nil, err
	}
	return where, args, nil
}

func compile(p predicate.Predicate, args *[]any) (string, error) {
	switch pred := p.(type) {
	case predicate.Compare:
		return compileCompare(pred, args), nil
	case *predicate.Compare:
		return compileCompare(*pred, args), nil
	case predicate.And:
		return compileAnd(pred, args)
	case *predicate.And:
		return compileAnd(*pred, args)
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileCompare(c predicate.Compare, args *[]any) string {
	if c.Value == nil {
		switch c.Op {
		case predicate.OpEq:
			return Quote(c.Column) + " IS NULL"
		case predicate.OpNe:
			return Quote(c.Column) + " IS NOT NULL"
		}
	}
	*args = append(*args, c.Value)
	return fmt.Sprintf("%s %s ?", Quote(c.Column), c.Op)
}

func compileAnd(and predicate.And, args *[]any) (string, error) {
	var parts []string
	for _, sub := range and.Predicates {
		if predicate.Empty(sub) {
			continue
		}
		sql, err := compile(sub, args)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return strings.Join(parts, " AND "), nil
}
