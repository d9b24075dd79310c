package wurm

import (
	"context"
	"reflect"
	"slices"

	"github.com/roach88/wurm/internal/ormerr"
	"github.com/roach88/wurm/internal/schema"
)

// Relation lists the T records whose foreign key refers to the owner, the
// record declaring the Relation field. It is not stored.
//
// The field's tag may set the target path and the loading strategy:
//
//	Children wurm.Relation[Child] `wurm:"target=Child.parent,load=select"`
//
// The target defaults to the name of T; its optional second segment names
// the referring field, which is otherwise found by looking for the one field
// of T referring to the owner's type. The target is resolved when the owner
// type is registered, so a missing, ambiguous or mistyped target is reported
// by Register and by every generic operation on the owner type.
//
// With load=select (the default) and load=query every call runs a new query.
// With load=strict the list is read once, when the owner is inserted or
// decoded, and All keeps returning that list.
//
// A Relation is bound when its owner is inserted or read. Using an unbound
// Relation fails with CodeNotPersisted.
type Relation[T any] struct {
	owner  any
	desc   *schema.Relation
	loaded []*T
}

// relationBinder is implemented by *Relation[T] for every T.
type relationBinder interface {
	bind(ctx context.Context, owner any, desc *schema.Relation) error
	register() error
}

// RelationElem reports the record type the relation lists.
func (Relation[T]) RelationElem() reflect.Type {
	return reflect.TypeFor[T]()
}

func (r *Relation[T]) register() error {
	return Register[T]()
}

func (r *Relation[T]) bind(ctx context.Context, owner any, desc *schema.Relation) error {
	r.owner, r.desc, r.loaded = owner, desc, nil
	if desc.Load != schema.LoadStrict {
		return nil
	}
	q, err := r.Query()
	if err != nil {
		return err
	}
	loaded, err := q.All(ctx)
	if err != nil {
		return err
	}
	r.loaded = loaded
	return nil
}

// Query returns the query selecting the T records referring to the owner.
func (r *Relation[T]) Query() (*Query[T], error) {
	if r.desc == nil {
		return nil, ormerr.New(ormerr.CodeNotPersisted,
			"relation to %s is not bound; insert or read its owner first", reflect.TypeFor[T]().Name())
	}
	_, field, err := r.desc.Resolve(schema.Default)
	if err != nil {
		return nil, err
	}
	return Find[T](Where{field.Name: r.owner})
}

// All returns the T records referring to the owner. For load=strict this is
// the list read when the owner was bound.
func (r *Relation[T]) All(ctx context.Context) ([]*T, error) {
	if r.desc != nil && r.desc.Load == schema.LoadStrict {
		return slices.Clone(r.loaded), nil
	}
	q, err := r.Query()
	if err != nil {
		return nil, err
	}
	return q.All(ctx)
}

// Count returns the number of T records referring to the owner. For
// load=strict it counts the list read when the owner was bound.
func (r *Relation[T]) Count(ctx context.Context) (int64, error) {
	if r.desc != nil && r.desc.Load == schema.LoadStrict {
		return int64(len(r.loaded)), nil
	}
	q, err := r.Query()
	if err != nil {
		return 0, err
	}
	return q.Count(ctx)
}

// Load returns the loading strategy, or "" while the relation is unbound.
func (r *Relation[T]) Load() Load {
	if r.desc == nil {
		return ""
	}
	return r.desc.Load
}
