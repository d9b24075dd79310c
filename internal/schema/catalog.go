package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/wurm/internal/ormerr"
	"github.com/roach88/wurm/internal/typemap"
)

var (
	tableType        = reflect.TypeFor[Table]()
	withoutRowidType = reflect.TypeFor[WithoutRowid]()
	abstractType     = reflect.TypeFor[Abstract]()
	relationIface    = reflect.TypeFor[RelationField]()
	tablerIface      = reflect.TypeFor[Tabler]()
)

// Tabler overrides the table name of a record type.
type Tabler interface {
	TableName() string
}

// RelationField is implemented by relation descriptor field types.
// RelationElem reports the record type the relation points at.
type RelationField interface {
	RelationElem() reflect.Type
}

// Catalog memoizes schemas per Go type.
// Thread-safety: Catalog is safe for concurrent use.
type Catalog struct {
	types *typemap.Registry

	mu     sync.Mutex
	byType map[reflect.Type]*Schema
	byName map[string][]*Schema
	order  []*Schema
}

// NewCatalog creates an empty catalog resolving field types through types.
func NewCatalog(types *typemap.Registry) *Catalog {
	return &Catalog{
		types:  types,
		byType: make(map[reflect.Type]*Schema),
		byName: make(map[string][]*Schema),
	}
}

// Default is the catalog used by the wurm package.
var Default = NewCatalog(typemap.Default)

// Types returns the type registry the catalog resolves field types with.
func (c *Catalog) Types() *typemap.Registry {
	return c.types
}

// Lookup returns the schema of t if it was already built.
func (c *Catalog) Lookup(t reflect.Type) (*Schema, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.byType[t]
	return s, ok
}

// ByName returns the schemas known under name, either as Go type name or as
// table name.
func (c *Catalog) ByName(name string) []*Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Schema(nil), c.byName[name]...)
}

// Schemas returns every built schema in build order.
func (c *Catalog) Schemas() []*Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Schema(nil), c.order...)
}

// IsRecord reports whether t is a concrete or abstract record type: a struct
// embedding Table, WithoutRowid or Abstract, directly or through abstract
// parents.
func IsRecord(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	base, abstract, _ := markers(t)
	return base != nil || abstract
}

// IsAbstract reports whether t directly embeds Abstract.
func IsAbstract(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == abstractType {
			return true
		}
	}
	return false
}

// Build returns the schema of record type t, computing it on first use.
// Foreign-key targets are built too. When any of them fails, nothing is
// added to the catalog.
func (c *Catalog) Build(t reflect.Type) (*Schema, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.byType[t]; ok {
		return s, nil
	}

	b := &builder{
		catalog: c,
		pending: make(map[reflect.Type]*Schema),
		keyed:   make(map[reflect.Type]bool),
	}
	s, err := b.build(t)
	if err != nil {
		return nil, err
	}
	for _, built := range b.order {
		c.byType[built.GoType] = built
		c.byName[built.GoType.Name()] = append(c.byName[built.GoType.Name()], built)
		if built.Name != built.GoType.Name() {
			c.byName[built.Name] = append(c.byName[built.Name], built)
		}
		c.order = append(c.order, built)
	}
	return s, nil
}

// builder holds the schemas of one Build call until it succeeds.
type builder struct {
	catalog *Catalog
	pending map[reflect.Type]*Schema
	keyed   map[reflect.Type]bool
	order   []*Schema
}

// rawField is a stored struct field found while walking a record type.
type rawField struct {
	field reflect.StructField
	index []int
	depth int
	tag   typemap.Tag
	name  string
}

func (b *builder) lookup(t reflect.Type) (*Schema, bool) {
	if s, ok := b.catalog.byType[t]; ok {
		return s, true
	}
	s, ok := b.pending[t]
	return s, ok
}

func (b *builder) build(t reflect.Type) (*Schema, error) {
	if s, ok := b.lookup(t); ok {
		if _, pending := b.pending[t]; pending && !b.keyed[t] {
			return nil, ormerr.New(ormerr.CodeInvalidPrimaryKey,
				"primary key of %s refers to %s", t.Name(), t.Name()).WithTable(t.Name())
		}
		return s, nil
	}
	if t.Kind() != reflect.Struct {
		return nil, ormerr.New(ormerr.CodeUnknownType, "%s is not a struct", t).WithTable(t.String())
	}
	if IsAbstract(t) {
		return nil, ormerr.New(ormerr.CodeAbstractInstantiation,
			"%s is abstract and has no table", t.Name()).WithTable(t.Name())
	}

	base, _, err := markers(t)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, ormerr.New(ormerr.CodeUnknownType,
			"%s embeds neither Table nor WithoutRowid", t.Name()).WithTable(t.Name())
	}

	raw, relations, err := collect(t, nil, 0)
	if err != nil {
		return nil, err
	}

	s := &Schema{
		Name:         tableName(t),
		GoType:       t,
		WithoutRowID: base == withoutRowidType,
		byName:       make(map[string]*Field),
	}
	b.pending[t] = s

	if !s.WithoutRowID {
		rowid := &Field{
			Name:    RowIDName,
			GoName:  "RowID",
			Kind:    FieldRowID,
			Type:    reflect.TypeFor[int64](),
			Index:   rowIDIndex(t),
			Primary: true,
			Columns: []typemap.Column{{Name: RowIDName, Kind: typemap.KindInteger}},
		}
		s.Fields = append(s.Fields, rowid)
		s.PrimaryKey = append(s.PrimaryKey, rowid)
	}

	// Primary-key fields first so self references can expand the key.
	var primary, data []rawField
	for _, rf := range raw {
		if rf.tag.Primary {
			primary = append(primary, rf)
		} else {
			data = append(data, rf)
		}
	}
	if s.WithoutRowID && len(primary) == 0 {
		return nil, ormerr.New(ormerr.CodeInvalidPrimaryKey,
			"%s embeds WithoutRowid but has no primary field", t.Name()).WithTable(t.Name())
	}
	if !s.WithoutRowID && len(primary) > 0 {
		return nil, ormerr.New(ormerr.CodeInvalidPrimaryKey,
			"%s embeds Table, its primary key is rowid; field %s cannot be primary",
			t.Name(), primary[0].name).WithTable(t.Name()).WithField(primary[0].name)
	}

	built := make(map[string]*Field, len(raw))
	for _, rf := range primary {
		f, err := b.field(s, rf)
		if err != nil {
			return nil, err
		}
		built[rf.name] = f
		s.PrimaryKey = append(s.PrimaryKey, f)
	}
	b.keyed[t] = true

	for _, rf := range data {
		f, err := b.field(s, rf)
		if err != nil {
			return nil, err
		}
		built[rf.name] = f
		s.DataFields = append(s.DataFields, f)
	}

	// Declaration order for Fields.
	for _, rf := range raw {
		f := built[rf.name]
		s.Fields = append(s.Fields, f)
		if f.Unique {
			s.Unique = append(s.Unique, f)
		}
	}
	for _, f := range s.Fields {
		if _, dup := s.byName[f.Name]; dup {
			return nil, ormerr.New(ormerr.CodeInvalidSubclass,
				"%s declares field %s twice", t.Name(), f.Name).WithTable(t.Name()).WithField(f.Name)
		}
		s.byName[f.Name] = f
		s.columns = append(s.columns, f.Columns...)
	}
	if err := checkColumns(s); err != nil {
		return nil, err
	}

	for _, rel := range relations {
		rel.Owner = s
		s.Relations = append(s.Relations, rel)
	}

	b.order = append(b.order, s)
	return s, nil
}

// field classifies one stored field of s.
func (b *builder) field(s *Schema, rf rawField) (*Field, error) {
	ft := rf.field.Type
	f := &Field{
		Name:    rf.name,
		GoName:  rf.field.Name,
		Type:    ft,
		Index:   rf.index,
		Primary: rf.tag.Primary,
		Unique:  rf.tag.Unique,
	}

	if codec, ok := b.catalog.types.Lookup(ft); ok {
		f.Kind = FieldValue
		f.Codec = codec
		f.Columns = columns(f.Name, codec.Columns)
		return f, nil
	}

	if ft.Kind() == reflect.Pointer {
		elem := ft.Elem()
		if codec, ok := b.catalog.types.Lookup(elem); ok {
			f.Kind = FieldValue
			f.Codec = codec
			f.Nullable = true
			f.Columns = columns(f.Name, codec.Columns)
			return f, nil
		}
		if IsRecord(elem) {
			ref, err := b.build(elem)
			if err != nil {
				return nil, err
			}
			f.Kind = FieldReference
			f.Ref = ref
			f.Columns = columns(f.Name, ref.PrimaryKeyColumns())
			return f, nil
		}
	}

	return nil, ormerr.New(ormerr.CodeUnknownType,
		"%s.%s: no column mapping for %s", s.GoType.Name(), rf.field.Name, ft).
		WithTable(s.Name).WithField(rf.name)
}

// columns names the physical columns of a field.
func columns(field string, constituents []typemap.Column) []typemap.Column {
	out := make([]typemap.Column, len(constituents))
	if len(constituents) == 1 {
		out[0] = typemap.Column{Name: field, Kind: constituents[0].Kind}
		return out
	}
	for i, c := range constituents {
		suffix := c.Name
		if suffix == "" {
			suffix = fmt.Sprint(i)
		}
		out[i] = typemap.Column{Name: field + "_" + suffix, Kind: c.Kind}
	}
	return out
}

func checkColumns(s *Schema) error {
	seen := make(map[string]bool, len(s.columns))
	var dups []string
	for _, c := range s.columns {
		if seen[c.Name] {
			dups = append(dups, c.Name)
		}
		seen[c.Name] = true
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		return ormerr.New(ormerr.CodeInvalidSubclass,
			"%s: column names collide: %s", s.GoType.Name(), strings.Join(dups, ", ")).WithTable(s.Name)
	}
	return nil
}

// markers finds the base marker of t and whether t is abstract. Abstract
// parents propagate their base marker; concrete parents are rejected.
func markers(t reflect.Type) (base reflect.Type, abstract bool, err error) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous {
			continue
		}
		switch sf.Type {
		case tableType, withoutRowidType:
			if base != nil && base != sf.Type {
				return nil, false, ormerr.New(ormerr.CodeInvalidSubclass,
					"%s embeds both Table and WithoutRowid", t.Name()).WithTable(t.Name())
			}
			base = sf.Type
			continue
		case abstractType:
			abstract = true
			continue
		}

		et := sf.Type
		if et.Kind() == reflect.Pointer && IsRecord(et.Elem()) {
			return nil, false, ormerr.New(ormerr.CodeInvalidSubclass,
				"%s embeds *%s; record types can only embed abstract record types by value",
				t.Name(), et.Elem().Name()).WithTable(t.Name())
		}
		if et.Kind() != reflect.Struct {
			continue
		}
		parentBase, parentAbstract, err := markers(et)
		if err != nil {
			return nil, false, err
		}
		if parentBase == nil && !parentAbstract {
			continue
		}
		if !IsAbstract(et) {
			return nil, false, ormerr.New(ormerr.CodeInvalidSubclass,
				"%s embeds record type %s; only abstract record types can be embedded",
				t.Name(), et.Name()).WithTable(t.Name())
		}
		if parentBase != nil {
			if base != nil && base != parentBase {
				return nil, false, ormerr.New(ormerr.CodeInvalidSubclass,
					"%s mixes Table and WithoutRowid parents", t.Name()).WithTable(t.Name())
			}
			base = parentBase
		}
	}
	return base, abstract, nil
}

// collect walks the exported fields of t and the abstract parents it embeds.
// A field declared closer to t overrides a parent field of the same name and
// keeps the parent's position.
func collect(t reflect.Type, prefix []int, depth int) ([]rawField, []*Relation, error) {
	var fields []rawField
	var relations []*Relation
	pos := make(map[string]int)

	add := func(rf rawField) {
		if i, ok := pos[rf.name]; ok {
			if rf.depth <= fields[i].depth {
				fields[i] = rf
			}
			return
		}
		pos[rf.name] = len(fields)
		fields = append(fields, rf)
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous {
			switch sf.Type {
			case tableType, withoutRowidType, abstractType:
				continue
			}
			if sf.Type.Kind() == reflect.Struct && IsRecord(sf.Type) {
				parent, parentRelations, err := collect(sf.Type, index, depth+1)
				if err != nil {
					return nil, nil, err
				}
				for _, rf := range parent {
					add(rf)
				}
				relations = append(relations, parentRelations...)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		tag := typemap.ParseTag(sf.Tag)
		if tag.Skip {
			continue
		}
		name := tag.Name
		if name == "" {
			name = typemap.ColumnName(sf.Name)
		}

		if isRelation(sf.Type) {
			rel, err := newRelation(t, sf, index, name, tag)
			if err != nil {
				return nil, nil, err
			}
			relations = append(relations, rel)
			continue
		}

		add(rawField{field: sf, index: index, depth: depth, tag: tag, name: name})
	}
	return fields, relations, nil
}

func isRelation(t reflect.Type) bool {
	return t.Implements(relationIface) || reflect.PointerTo(t).Implements(relationIface)
}

func rowIDIndex(t reflect.Type) []int {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous {
			continue
		}
		if sf.Type == tableType {
			return []int{i, 0}
		}
		if sf.Type.Kind() == reflect.Struct && IsAbstract(sf.Type) {
			if sub := rowIDIndex(sf.Type); sub != nil {
				return append([]int{i}, sub...)
			}
		}
	}
	return nil
}

func tableName(t reflect.Type) string {
	if t.Implements(tablerIface) {
		return reflect.Zero(t).Interface().(Tabler).TableName()
	}
	if reflect.PointerTo(t).Implements(tablerIface) {
		return reflect.New(t).Interface().(Tabler).TableName()
	}
	return t.Name()
}
