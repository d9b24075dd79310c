package wurm

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/roach88/wurm/internal/identity"
	"github.com/roach88/wurm/internal/ormerr"
	"github.com/roach88/wurm/internal/schema"
)

// recordType is a registered record type: its schema plus identity-map
// operations bound to its Go type. Instances travel as reflect.Values
// holding a pointer to the struct.
type recordType struct {
	schema *schema.Schema

	lookup      func(m *identity.Map, key string) (reflect.Value, bool)
	loadOrStore func(m *identity.Map, key string, v reflect.Value) (reflect.Value, bool)
	store       func(m *identity.Map, key string, v reflect.Value)

	refsChecked atomic.Bool
}

func newRecordType[T any](s *schema.Schema) *recordType {
	return &recordType{
		schema: s,
		lookup: func(m *identity.Map, key string) (reflect.Value, bool) {
			p, ok := identity.Lookup[T](m, key)
			if !ok {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(p), true
		},
		loadOrStore: func(m *identity.Map, key string, v reflect.Value) (reflect.Value, bool) {
			p, loaded := identity.LoadOrStore(m, key, v.Interface().(*T))
			return reflect.ValueOf(p), loaded
		},
		store: func(m *identity.Map, key string, v reflect.Value) {
			identity.Store(m, key, v.Interface().(*T))
		},
	}
}

var records = struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*recordType
	order  []*recordType
}{byType: make(map[reflect.Type]*recordType)}

// recordFor returns the registered record type T, registering it on first
// use. It fails when T is not a record type or when one of its relations
// does not resolve; such a type is never registered.
func recordFor[T any]() (*recordType, error) {
	t := reflect.TypeFor[T]()

	records.mu.RLock()
	rt, ok := records.byType[t]
	records.mu.RUnlock()
	if ok {
		return rt, nil
	}

	if t.Kind() != reflect.Struct {
		return nil, ormerr.New(ormerr.CodeUnknownType, "%s is not a record type", t).WithTable(t.String())
	}
	s, err := schema.Default.Build(t)
	if err != nil {
		return nil, err
	}
	if err := resolveRelations(s); err != nil {
		return nil, err
	}

	records.mu.Lock()
	if rt, ok = records.byType[t]; !ok {
		rt = newRecordType[T](s)
		records.byType[t] = rt
		records.order = append(records.order, rt)
	}
	records.mu.Unlock()

	// Relation targets are registered along with their owner. A target that
	// cannot be registered itself still lets the owner's relation resolve.
	for _, rel := range s.Relations {
		field := reflect.New(t).Elem().FieldByIndex(rel.Index)
		if r, ok := field.Addr().Interface().(relationBinder); ok {
			_ = r.register()
		}
	}
	return rt, nil
}

// resolveRelations resolves every relation declared by s.
func resolveRelations(s *schema.Schema) error {
	for _, rel := range s.Relations {
		if _, _, err := rel.Resolve(schema.Default); err != nil {
			return err
		}
	}
	return nil
}

// checkTargets fails when a record type reached through the foreign keys
// of rt is not registered. Rows referring to such a type could not be
// decoded, so the check runs before rt's first statement.
func (rt *recordType) checkTargets() error {
	if rt.refsChecked.Load() {
		return nil
	}
	if err := referencesRegistered(rt.schema, map[*schema.Schema]bool{}); err != nil {
		return err
	}
	rt.refsChecked.Store(true)
	return nil
}

func referencesRegistered(s *schema.Schema, seen map[*schema.Schema]bool) error {
	if seen[s] {
		return nil
	}
	seen[s] = true
	for _, f := range s.Fields {
		if f.Kind != schema.FieldReference {
			continue
		}
		if _, err := recordOf(f.Ref.GoType); err != nil {
			name := f.Ref.GoType.Name()
			return ormerr.New(ormerr.CodeUnknownType,
				"%s.%s refers to record type %s, which is not registered; call wurm.Register[%s]",
				s.Name, f.Name, name, name).WithTable(s.Name).WithField(f.Name)
		}
		if err := referencesRegistered(f.Ref, seen); err != nil {
			return err
		}
	}
	return nil
}

// recordOf returns the registered record type of Go type t.
func recordOf(t reflect.Type) (*recordType, error) {
	records.mu.RLock()
	defer records.mu.RUnlock()
	rt, ok := records.byType[t]
	if !ok {
		return nil, ormerr.New(ormerr.CodeUnknownType,
			"record type %s is not registered; call wurm.Register[%s]", t.Name(), t.Name()).WithTable(t.Name())
	}
	return rt, nil
}

// registered returns every registered record type in registration order.
func registered() []*recordType {
	records.mu.RLock()
	defer records.mu.RUnlock()
	return append([]*recordType(nil), records.order...)
}

// Register computes the schema of record type T once and registers it, so
// Bind creates its table and rows referring to it can be decoded.
//
// Every record type reached through a foreign key must be registered before
// the first statement on a type referring to it. Relation targets are
// registered with their owner, and every relation is resolved here, so an
// ambiguous or invalid relation target is reported by Register. Generic
// entry points such as Find and Insert register T on first use.
func Register[T any]() error {
	_, err := recordFor[T]()
	return err
}

// MustRegister is like Register but panics on error. It is meant for init
// functions.
func MustRegister[T any]() {
	if err := Register[T](); err != nil {
		panic(err)
	}
}
