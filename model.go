package wurm

import (
	"github.com/roach88/wurm/internal/schema"
	"github.com/roach88/wurm/internal/store"
	"github.com/roach88/wurm/internal/typemap"
)

// Base markers. Exactly one of Table and WithoutRowid must be embedded by a
// record type, directly or through an Abstract parent.
type (
	// Table gives a record type the implicit integer identity RowID.
	Table = schema.Table
	// WithoutRowid makes the fields tagged `wurm:",primary"` the primary key.
	WithoutRowid = schema.WithoutRowid
	// Abstract marks a struct sharing fields between record types. It has
	// no table of its own.
	Abstract = schema.Abstract
)

// Load is the loading strategy of a relation.
type Load = schema.Load

// Loading strategies, set with the load= tag option.
const (
	LoadSelect = schema.LoadSelect
	LoadQuery  = schema.LoadQuery
	LoadStrict = schema.LoadStrict
)

// Store is a SQLite database record types are persisted in.
type Store = store.Store

// Options configure OpenOptions.
type Options = store.Options

// Open opens the SQLite database at path with default options.
func Open(path string) (*Store, error) {
	return store.Open(path)
}

// OpenOptions opens a database configured by opts.
func OpenOptions(opts Options) (*Store, error) {
	return store.OpenOptions(opts)
}

// DefaultOptions returns the options Open uses, without a path.
func DefaultOptions() Options {
	return store.DefaultOptions()
}

// Kind is the storage class of a column.
type Kind = typemap.Kind

// Storage classes.
const (
	Text    = typemap.KindText
	Integer = typemap.KindInteger
	Real    = typemap.KindReal
	Blob    = typemap.KindBlob
)

// Column is one constituent of a composite type.
type Column = typemap.Column

// RegisterType makes T usable as a single-column field type.
// dec receives a value already normalized for kind: string, int64, float64
// or []byte, never nil.
func RegisterType[T any](kind Kind, enc func(T) (any, error), dec func(any) (T, error)) error {
	return typemap.Register(typemap.Default, kind, enc, dec)
}

// RegisterComposite makes T usable as a field type spanning cols.
// Columns are named {field}_{column name}, or {field}_{index} when the
// column has no name.
//
// dec is not called when every column is null; the field then holds the
// zero T. Otherwise dec receives one normalized value per column and nil
// for each column that is null.
func RegisterComposite[T any](cols []Column, enc func(T) ([]any, error), dec func([]any) (T, error)) error {
	return typemap.RegisterComposite(typemap.Default, cols, enc, dec)
}

// RegisterStruct makes struct type T usable as a field type with one column
// per exported field. Each of those fields must have a single-column type.
func RegisterStruct[T any]() error {
	return typemap.RegisterStruct[T](typemap.Default)
}
