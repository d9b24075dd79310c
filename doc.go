// Package wurm maps Go structs onto SQLite tables.
//
// A record type is a struct that embeds Table (an implicit, auto-assigned
// integer identity) or WithoutRowid (a primary key made of fields tagged
// `wurm:",primary"`). Fields of registered scalar or composite types become
// columns; a pointer to another record type becomes a foreign key spanning
// the target's primary-key columns.
//
//	type Point struct {
//		wurm.Table
//		X, Y int64
//	}
//
//	ctx, err := wurm.Bind(ctx, st)
//	p := &Point{X: 1, Y: 2}
//	err = wurm.Insert(ctx, p)
//	q, err := wurm.Find[Point](wurm.Where{"x": wurm.Ge(1)})
//	all, err := q.All(ctx)
//
// # Identity
//
// Every decoded row goes through a per-table identity map, so while a
// reference to an instance is alive, reading its row again returns that
// same pointer. Entries are weak: the map never keeps an instance alive.
// The map belongs to the Store, so all contexts bound to one Store share
// instances.
//
// # Sessions
//
// Operations find their Store in the context (see Bind). Tables are created
// with IF NOT EXISTS, eagerly by Bind for registered types and lazily on
// first use for everything else.
//
// # Relations
//
// A Relation[T] field lists the T records referring back to the owner. It is
// not stored. Its tag may name the referring field explicitly and pick a
// loading strategy:
//
//	Children wurm.Relation[Child] `wurm:"target=Child.parent,load=strict"`
package wurm
