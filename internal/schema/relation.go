package schema

import (
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/wurm/internal/ormerr"
	"github.com/roach88/wurm/internal/typemap"
)

// Load is a relation loading strategy.
type Load string

const (
	// LoadSelect runs a fresh query on every access and returns the list.
	LoadSelect Load = "select"
	// LoadQuery returns the unevaluated query handle.
	LoadQuery Load = "query"
	// LoadStrict evaluates the list once, when the owner is constructed.
	LoadStrict Load = "strict"
)

// Relation describes a back-reference from the instances of a target record
// type to an owner. It is not stored in a column.
type Relation struct {
	Name   string
	GoName string
	Index  []int
	// Elem is the target record type named by the relation's type argument.
	Elem reflect.Type
	// Target is the dotted target path, "Type" or "Type.field".
	Target string
	Load   Load
	Owner  *Schema

	once   sync.Once
	target *Schema
	field  *Field
	err    error
}

func newRelation(declaring reflect.Type, sf reflect.StructField, index []int, name string, tag typemap.Tag) (*Relation, error) {
	elem := reflect.New(sf.Type).Interface().(RelationField).RelationElem()
	load := Load(tag.Load)
	switch load {
	case "":
		load = LoadSelect
	case LoadSelect, LoadQuery, LoadStrict:
	default:
		return nil, ormerr.New(ormerr.CodeInvalidRelationTarget,
			"%s.%s: unknown load strategy %q", declaring.Name(), sf.Name, tag.Load).
			WithTable(declaring.Name()).WithField(name)
	}
	target := tag.Target
	if target == "" {
		target = elem.Name()
	}
	return &Relation{
		Name:   name,
		GoName: sf.Name,
		Index:  index,
		Elem:   elem,
		Target: target,
		Load:   load,
	}, nil
}

// Resolve finds the target record type and the field on it that refers back
// to the owner. The outcome, including failure, is computed once per
// relation descriptor.
func (r *Relation) Resolve(c *Catalog) (*Schema, *Field, error) {
	r.once.Do(func() {
		r.target, r.field, r.err = r.resolve(c)
	})
	return r.target, r.field, r.err
}

func (r *Relation) resolve(c *Catalog) (*Schema, *Field, error) {
	owner := r.Owner.GoType.Name()
	invalid := func(format string, args ...any) error {
		return ormerr.New(ormerr.CodeInvalidRelationTarget, format, args...).
			WithTable(r.Owner.Name).WithField(r.Name)
	}

	segments := strings.Split(r.Target, ".")
	if len(segments) > 2 || slices.Contains(segments, "") {
		return nil, nil, invalid("invalid target %q", r.Target)
	}

	if !IsRecord(r.Elem) {
		return nil, nil, invalid("invalid target %q: %s is not a record type", r.Target, r.Elem)
	}
	if _, err := c.Build(r.Elem); err != nil {
		return nil, nil, err
	}

	var target *Schema
	for _, s := range c.ByName(segments[0]) {
		if s.GoType == r.Elem {
			target = s
		}
	}
	if target == nil {
		return nil, nil, invalid("invalid target %q: %s does not name %s", r.Target, segments[0], r.Elem.Name())
	}

	if len(segments) == 2 {
		name := segments[1]
		f, ok := target.Field(name)
		if !ok {
			return nil, nil, invalid("invalid target %q: %s has no field %s", r.Target, target, name)
		}
		if f.Kind != FieldReference || f.Ref != r.Owner {
			return nil, nil, ormerr.New(ormerr.CodeWrongRelationType,
				"%s.%s is not %s", target, name, owner).WithTable(r.Owner.Name).WithField(r.Name)
		}
		return target, f, nil
	}

	var matches []*Field
	for _, f := range target.Fields {
		if f.Kind == FieldReference && f.Ref == r.Owner {
			matches = append(matches, f)
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil, ormerr.New(ormerr.CodeNoMatchingField,
			"%s does not have a %s field", target, owner).WithTable(r.Owner.Name).WithField(r.Name)
	case 1:
		return target, matches[0], nil
	}
	names := make([]string, len(matches))
	for i, f := range matches {
		names[i] = f.Name
	}
	return nil, nil, ormerr.New(ormerr.CodeAmbiguousRelation,
		"%s has multiple %s fields: %s", target, owner, strings.Join(names, ", ")).
		WithTable(r.Owner.Name).WithField(r.Name)
}
