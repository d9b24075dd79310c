package typemap

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"github.com/roach88/wurm/internal/ormerr"
)

// Kind is the primitive storage class of a column.
type Kind string

const (
	KindText    Kind = "TEXT"
	KindInteger Kind = "INTEGER"
	KindReal    Kind = "REAL"
	KindBlob    Kind = "BLOB"
)

// Column is one constituent of a codec's column shape.
// Name is empty for unnamed constituents; they are named by position.
type Column struct {
	Name string
	Kind Kind
}

// EncodeFunc converts a domain value into one storage value per column.
type EncodeFunc func(v reflect.Value) ([]any, error)

// DecodeFunc converts normalized storage values back into a domain value.
// It is not called when every value is null. Otherwise a null constituent
// is passed as nil, so decoders of multi-column types must accept nil for
// every column that may be null.
type DecodeFunc func(stored []any) (reflect.Value, error)

// Codec maps one Go type to its column shape and conversion functions.
// Codecs are immutable once registered.
type Codec struct {
	Type    reflect.Type
	Columns []Column

	encode EncodeFunc
	decode DecodeFunc
}

// Width returns the number of physical columns the type expands to.
func (c *Codec) Width() int {
	return len(c.Columns)
}

// ColumnNames returns the physical column names for a field of this type.
// Single-column types use the field name as is; otherwise each constituent
// is suffixed as {field}_{constituent}.
func (c *Codec) ColumnNames(field string) []string {
	if len(c.Columns) == 1 {
		return []string{field}
	}
	names := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		suffix := col.Name
		if suffix == "" {
			suffix = strconv.Itoa(i)
		}
		names[i] = field + "_" + suffix
	}
	return names
}

// Encode converts v (of the codec's type) into storage values.
func (c *Codec) Encode(v reflect.Value) ([]any, error) {
	if v.Type() != c.Type {
		return nil, fmt.Errorf("encode %s: got value of type %s", c.Type, v.Type())
	}
	stored, err := c.encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Type, err)
	}
	if len(stored) != len(c.Columns) {
		return nil, fmt.Errorf("encode %s: produced %d values for %d columns", c.Type, len(stored), len(c.Columns))
	}
	return stored, nil
}

// EncodeNull returns the storage encoding of an absent value: one nil per column.
func (c *Codec) EncodeNull() []any {
	return make([]any, len(c.Columns))
}

// Decode converts storage values back into a value of the codec's type.
// When every stored value is nil, null is true and v is the zero value.
func (c *Codec) Decode(stored []any) (v reflect.Value, null bool, err error) {
	if len(stored) != len(c.Columns) {
		return reflect.Value{}, false, fmt.Errorf("decode %s: got %d values for %d columns", c.Type, len(stored), len(c.Columns))
	}
	if AllNull(stored) {
		return reflect.Zero(c.Type), true, nil
	}
	normalized := make([]any, len(stored))
	for i, s := range stored {
		n, err := Normalize(c.Columns[i].Kind, s)
		if err != nil {
			return reflect.Value{}, false, fmt.Errorf("decode %s: %w", c.Type, err)
		}
		normalized[i] = n
	}
	v, err = c.decode(normalized)
	if err != nil {
		return reflect.Value{}, false, fmt.Errorf("decode %s: %w", c.Type, err)
	}
	return v, false, nil
}

// Registry associates Go types with codecs.
// Thread-safety: Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[reflect.Type]*Codec
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{codecs: make(map[reflect.Type]*Codec)}
}

// NewDefault creates a registry holding the builtin scalar types.
func NewDefault() *Registry {
	r := New()
	registerBuiltins(r)
	return r
}

// Default is the process-wide registry used by record types.
var Default = NewDefault()

// Register associates t with a single storage kind.
// Fails with DUPLICATE_TYPE if t is already registered.
func (r *Registry) Register(t reflect.Type, kind Kind, enc func(reflect.Value) (any, error), dec func(any) (reflect.Value, error)) error {
	return r.add(&Codec{
		Type:    t,
		Columns: []Column{{Kind: kind}},
		encode: func(v reflect.Value) ([]any, error) {
			s, err := enc(v)
			if err != nil {
				return nil, err
			}
			return []any{s}, nil
		},
		decode: func(stored []any) (reflect.Value, error) {
			return dec(stored[0])
		},
	})
}

// RegisterComposite associates t with an ordered set of primitive columns.
// Fails with DUPLICATE_TYPE if t is already registered. See DecodeFunc for
// the values dec receives.
func (r *Registry) RegisterComposite(t reflect.Type, cols []Column, enc EncodeFunc, dec DecodeFunc) error {
	if len(cols) == 0 {
		return fmt.Errorf("register %s: composite type needs at least one column", t)
	}
	return r.add(&Codec{
		Type:    t,
		Columns: append([]Column(nil), cols...),
		encode:  enc,
		decode:  dec,
	})
}

func (r *Registry) add(c *Codec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.codecs[c.Type]; exists {
		return ormerr.New(ormerr.CodeDuplicateType, "type %s is already registered", c.Type)
	}
	r.codecs[c.Type] = c
	return nil
}

// Lookup returns the codec registered for t.
func (r *Registry) Lookup(t reflect.Type) (*Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[t]
	return c, ok
}

// MustLookup returns the codec for t or an UNKNOWN_TYPE error.
func (r *Registry) MustLookup(t reflect.Type) (*Codec, error) {
	c, ok := r.Lookup(t)
	if !ok {
		return nil, ormerr.New(ormerr.CodeUnknownType, "type %s is not registered", t)
	}
	return c, nil
}

// Register associates T with a single storage kind using typed conversion functions.
// dec receives a value already normalized for kind (string, int64, float64 or []byte),
// never nil. enc may return nil to store NULL, which decodes to the zero T.
func Register[T any](r *Registry, kind Kind, enc func(T) (any, error), dec func(any) (T, error)) error {
	t := reflect.TypeFor[T]()
	return r.Register(t, kind,
		func(v reflect.Value) (any, error) {
			return enc(v.Interface().(T))
		},
		func(s any) (reflect.Value, error) {
			out, err := dec(s)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&out).Elem(), nil
		})
}

// RegisterComposite associates T with an ordered set of primitive columns.
// dec receives one normalized value per column, nil where the column is
// null; it is not called when every column is null.
func RegisterComposite[T any](r *Registry, cols []Column, enc func(T) ([]any, error), dec func([]any) (T, error)) error {
	t := reflect.TypeFor[T]()
	return r.RegisterComposite(t, cols,
		func(v reflect.Value) ([]any, error) {
			return enc(v.Interface().(T))
		},
		func(stored []any) (reflect.Value, error) {
			out, err := dec(stored)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&out).Elem(), nil
		})
}

// RegisterStruct registers struct type T as a composite whose constituents are
// its exported fields, in declaration order. Every constituent must already be
// a registered single-column type. Constituent names follow the same rules as
// record fields: snake_case of the Go name, or the name given in a wurm tag.
func RegisterStruct[T any](r *Registry) error {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("register %s: not a struct type", t)
	}

	var (
		cols    []Column
		indexes []int
		codecs  []*Codec
	)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := ParseTag(sf.Tag)
		if tag.Skip {
			continue
		}
		c, ok := r.Lookup(sf.Type)
		if !ok {
			return ormerr.New(ormerr.CodeUnknownType, "register %s: field %s has unregistered type %s", t, sf.Name, sf.Type)
		}
		if c.Width() != 1 {
			return fmt.Errorf("register %s: field %s must map to a single column", t, sf.Name)
		}
		name := tag.Name
		if name == "" {
			name = ColumnName(sf.Name)
		}
		cols = append(cols, Column{Name: name, Kind: c.Columns[0].Kind})
		indexes = append(indexes, i)
		codecs = append(codecs, c)
	}

	return r.RegisterComposite(t, cols,
		func(v reflect.Value) ([]any, error) {
			out := make([]any, len(indexes))
			for i, idx := range indexes {
				s, err := codecs[i].Encode(v.Field(idx))
				if err != nil {
					return nil, err
				}
				out[i] = s[0]
			}
			return out, nil
		},
		func(stored []any) (reflect.Value, error) {
			out := reflect.New(t).Elem()
			for i, idx := range indexes {
				fv, _, err := codecs[i].Decode(stored[i : i+1])
				if err != nil {
					return reflect.Value{}, err
				}
				out.Field(idx).Set(fv)
			}
			return out, nil
		})
}

// AllNull reports whether every value is the storage null.
func AllNull(stored []any) bool {
	for _, s := range stored {
		if s != nil {
			return false
		}
	}
	return true
}
