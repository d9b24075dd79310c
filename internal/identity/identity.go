package identity

import (
	"encoding/hex"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"weak"
)

// Map caches at most one live instance per primary key.
//
// Values are held through weak pointers: once the caller drops the last
// reference to an instance, the garbage collector may reclaim it and its
// entry is evicted by a cleanup. The map never keeps an instance alive.
// Thread-safety: Map is safe for concurrent use.
type Map struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// entry holds a weak reference. value returns nil once the referent is gone.
type entry struct {
	value func() any
}

// cleanupArg identifies the entry a cleanup may evict.
type cleanupArg struct {
	m   *Map
	key string
	e   *entry
}

// New creates an empty map.
func New() *Map {
	return &Map{entries: make(map[string]*entry)}
}

// Get returns the live instance stored under key.
func (m *Map) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(key)
}

func (m *Map) getLocked(key string) (any, bool) {
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	v := e.value()
	if v == nil {
		delete(m.entries, key)
		return nil, false
	}
	return v, true
}

// Lookup returns the live *T stored under key. An entry holding another
// type is reported as missing.
func Lookup[T any](m *Map, key string) (*T, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	p, ok := v.(*T)
	return p, ok
}

// LoadOrStore returns the live instance stored under key if there is one.
// Otherwise it stores v and returns it. loaded reports which happened.
// Concurrent callers racing on the same key all receive the same instance.
func LoadOrStore[T any](m *Map, key string, v *T) (actual *T, loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.getLocked(key); ok {
		if p, ok := cur.(*T); ok {
			return p, true
		}
	}
	storeLocked(m, key, v)
	return v, false
}

// Store registers v under key, replacing any previous entry.
func Store[T any](m *Map, key string, v *T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	storeLocked(m, key, v)
}

func storeLocked[T any](m *Map, key string, v *T) {
	wp := weak.Make(v)
	e := &entry{value: func() any {
		if p := wp.Value(); p != nil {
			return p
		}
		return nil
	}}
	m.entries[key] = e
	runtime.AddCleanup(v, func(arg cleanupArg) {
		arg.m.evict(arg.key, arg.e)
	}, cleanupArg{m: m, key: key, e: e})
}

// Remove evicts the entry stored under key.
func (m *Map) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Clear evicts every entry.
func (m *Map) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
}

// Len returns the number of live entries.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key := range m.entries {
		if _, ok := m.getLocked(key); ok {
			n++
		}
	}
	return n
}

func (m *Map) evict(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[key] == e {
		delete(m.entries, key)
	}
}

// Key returns the canonical map key of a primary key given as storage
// values (nil, int64, float64, string or []byte). Equal keys produce equal
// strings; values of different storage types never collide.
func Key(values []any) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		switch x := v.(type) {
		case nil:
			b.WriteString("n")
		case int64:
			b.WriteString("i")
			b.WriteString(strconv.FormatInt(x, 10))
		case float64:
			b.WriteString("f")
			b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		case string:
			b.WriteString("s")
			b.WriteString(strconv.Quote(x))
		case []byte:
			b.WriteString("b")
			b.WriteString(hex.EncodeToString(x))
		default:
			fmt.Fprintf(&b, "%T:%v", x, x)
		}
	}
	return b.String()
}
