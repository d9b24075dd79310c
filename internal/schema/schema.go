package schema

import (
	"fmt"
	"reflect"

	"github.com/roach88/wurm/internal/typemap"
)

// Table is embedded by record types keyed by the implicit, auto-assigned
// integer identity. A RowID of zero means no identity has been assigned.
type Table struct {
	RowID int64
}

// WithoutRowid is embedded by record types whose primary key is made of
// fields tagged `wurm:",primary"`.
type WithoutRowid struct{}

// Abstract is embedded by structs that only share fields between record
// types. Abstract record types have no table and cannot be stored.
type Abstract struct{}

// RowIDName is the field and column name of the implicit identity.
const RowIDName = "rowid"

// FieldKind classifies how a field is stored.
type FieldKind int

const (
	// FieldRowID is the implicit identity of Table-based record types.
	FieldRowID FieldKind = iota
	// FieldValue is a registered scalar or composite type.
	FieldValue
	// FieldReference is a pointer to another record type (a foreign key).
	FieldReference
)

func (k FieldKind) String() string {
	switch k {
	case FieldRowID:
		return "rowid"
	case FieldValue:
		return "value"
	case FieldReference:
		return "reference"
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// Field describes one stored member of a record type.
type Field struct {
	Name     string
	GoName   string
	Kind     FieldKind
	Type     reflect.Type // declared Go type
	Index    []int        // path for reflect.Value.FieldByIndex
	Nullable bool         // declared as *V for a registered V
	Primary  bool
	Unique   bool

	// Codec is set for FieldValue.
	Codec *typemap.Codec
	// Ref is the referenced record type for FieldReference.
	Ref *Schema

	// Columns are the physical columns, named and in order.
	Columns []typemap.Column
}

// Width returns the number of physical columns of the field.
func (f *Field) Width() int {
	return len(f.Columns)
}

// ColumnNames returns the physical column names of the field.
func (f *Field) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Encode converts the field's value, as read from a record with
// reflect.Value.FieldByIndex, into storage values.
func (f *Field) Encode(v reflect.Value) ([]any, error) {
	switch f.Kind {
	case FieldRowID:
		if id := v.Int(); id != 0 {
			return []any{id}, nil
		}
		return []any{nil}, nil

	case FieldReference:
		if v.IsNil() {
			return make([]any, f.Width()), nil
		}
		return f.Ref.EncodeKey(v.Elem())

	default:
		if f.Nullable {
			if v.IsNil() {
				return f.Codec.EncodeNull(), nil
			}
			v = v.Elem()
		}
		return f.Codec.Encode(v)
	}
}

// EncodeValue converts a filter value given by a caller into storage values.
// Besides values of the declared type it accepts nil (storage null), the
// element type of nullable and reference fields, and numeric or string
// values convertible to the declared type.
func (f *Field) EncodeValue(value any) ([]any, error) {
	if value == nil {
		return make([]any, f.Width()), nil
	}
	rv := reflect.ValueOf(value)
	want := f.Type
	if f.Kind == FieldRowID {
		want = reflect.TypeFor[int64]()
	}

	switch {
	case rv.Type() == want:
		if f.Kind == FieldRowID {
			return []any{rv.Int()}, nil
		}
		return f.Encode(rv)

	case (f.Nullable || f.Kind == FieldReference) && rv.Type() == want.Elem():
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		return f.Encode(p)

	case (f.Nullable || f.Kind == FieldReference) && rv.Kind() == reflect.Pointer && rv.IsNil():
		return make([]any, f.Width()), nil
	}

	target := want
	if f.Nullable {
		target = want.Elem()
	}
	if f.Kind != FieldReference && compatible(rv.Type(), target) {
		converted := rv.Convert(target)
		if f.Kind == FieldRowID {
			return []any{converted.Int()}, nil
		}
		if f.Nullable {
			p := reflect.New(target)
			p.Elem().Set(converted)
			converted = p
		}
		return f.Encode(converted)
	}
	return nil, fmt.Errorf("field %s: cannot compare %s with %T", f.Name, f.Type, value)
}

// compatible reports whether a filter value of type from may be converted to
// type to without changing its meaning class (integer, float, string).
func compatible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	fc, tc := kindClass(from.Kind()), kindClass(to.Kind())
	if fc == 0 || tc == 0 {
		return false
	}
	return fc == tc || (fc == classInt && tc == classFloat)
}

const (
	classInt = iota + 1
	classFloat
	classString
)

func kindClass(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return classInt
	case reflect.Float32, reflect.Float64:
		return classFloat
	case reflect.String:
		return classString
	}
	return 0
}

// Decode converts storage values back into a value of the field's declared
// type. Reference fields cannot be decoded here; they need a lookup of the
// referenced record and are resolved by the query engine.
func (f *Field) Decode(stored []any) (reflect.Value, error) {
	switch f.Kind {
	case FieldRowID:
		n, err := typemap.Normalize(typemap.KindInteger, stored[0])
		if err != nil {
			return reflect.Value{}, fmt.Errorf("decode %s: %w", f.Name, err)
		}
		if n == nil {
			return reflect.ValueOf(int64(0)), nil
		}
		return reflect.ValueOf(n.(int64)), nil

	case FieldReference:
		return reflect.Value{}, fmt.Errorf("decode %s: reference fields are decoded by lookup", f.Name)
	}

	v, null, err := f.Codec.Decode(stored)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("decode %s: %w", f.Name, err)
	}
	if !f.Nullable {
		return v, nil
	}
	if null {
		return reflect.Zero(f.Type), nil
	}
	p := reflect.New(f.Type.Elem())
	p.Elem().Set(v)
	return p, nil
}

// Schema is the immutable, classified layout of a record type.
type Schema struct {
	// Name is the table name.
	Name string
	// GoType is the record struct type.
	GoType reflect.Type
	// WithoutRowID is true for record types embedding WithoutRowid.
	WithoutRowID bool

	// Fields are all stored fields: rowid first (if any), then declaration order.
	Fields     []*Field
	PrimaryKey []*Field
	DataFields []*Field
	Unique     []*Field
	Relations  []*Relation

	byName  map[string]*Field
	columns []typemap.Column
}

// Field returns the stored field with the given name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// RowID returns the implicit identity field, or nil for WithoutRowid types.
func (s *Schema) RowID() *Field {
	if s.WithoutRowID {
		return nil
	}
	return s.Fields[0]
}

// Columns returns every physical column in row order.
func (s *Schema) Columns() []typemap.Column {
	return s.columns
}

// ColumnNames returns every physical column name in row order.
func (s *Schema) ColumnNames() []string {
	return columnNames(s.Fields)
}

// PrimaryKeyColumns returns the physical columns of the primary key.
func (s *Schema) PrimaryKeyColumns() []typemap.Column {
	return columnsOf(s.PrimaryKey)
}

// PrimaryKeyColumnNames returns the physical column names of the primary key.
func (s *Schema) PrimaryKeyColumnNames() []string {
	return columnNames(s.PrimaryKey)
}

// DataColumnNames returns the physical column names of the data fields.
func (s *Schema) DataColumnNames() []string {
	return columnNames(s.DataFields)
}

// Width returns the number of physical columns in a row.
func (s *Schema) Width() int {
	return len(s.columns)
}

// String returns the Go type name of the record type.
func (s *Schema) String() string {
	return s.GoType.Name()
}

// EncodeKey encodes the primary key of record value rv (a struct, not a pointer).
func (s *Schema) EncodeKey(rv reflect.Value) ([]any, error) {
	return encodeFields(s.PrimaryKey, rv)
}

// EncodeData encodes the data fields of record value rv.
func (s *Schema) EncodeData(rv reflect.Value) ([]any, error) {
	return encodeFields(s.DataFields, rv)
}

// EncodeRow encodes every field of record value rv in row order.
func (s *Schema) EncodeRow(rv reflect.Value) ([]any, error) {
	return encodeFields(s.Fields, rv)
}

// Segments splits a stored row into one slice of values per field.
func (s *Schema) Segments(row []any) ([][]any, error) {
	if len(row) != len(s.columns) {
		return nil, fmt.Errorf("%s: row has %d values, want %d", s.Name, len(row), len(s.columns))
	}
	out := make([][]any, len(s.Fields))
	offset := 0
	for i, f := range s.Fields {
		out[i] = row[offset : offset+f.Width()]
		offset += f.Width()
	}
	return out, nil
}

// KeyOf extracts the primary-key column values from a stored row.
func (s *Schema) KeyOf(row []any) ([]any, error) {
	segments, err := s.Segments(row)
	if err != nil {
		return nil, err
	}
	var key []any
	for i, f := range s.Fields {
		if f.Primary {
			key = append(key, segments[i]...)
		}
	}
	return key, nil
}

func encodeFields(fields []*Field, rv reflect.Value) ([]any, error) {
	var out []any
	for _, f := range fields {
		stored, err := f.Encode(rv.FieldByIndex(f.Index))
		if err != nil {
			return nil, err
		}
		out = append(out, stored...)
	}
	return out, nil
}

func columnsOf(fields []*Field) []typemap.Column {
	var out []typemap.Column
	for _, f := range fields {
		out = append(out, f.Columns...)
	}
	return out
}

func columnNames(fields []*Field) []string {
	var out []string
	for _, f := range fields {
		out = append(out, f.ColumnNames()...)
	}
	return out
}
