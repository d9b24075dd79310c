package typemap

import (
	"fmt"
	"reflect"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// TimeLayout is the text layout used to store time.Time values.
const TimeLayout = time.RFC3339Nano

func registerBuiltins(r *Registry) {
	must := func(err error) {
		if err != nil {
			panic(fmt.Sprintf("typemap: builtin registration: %v", err))
		}
	}

	must(Register(r, KindText,
		func(s string) (any, error) { return s, nil },
		func(v any) (string, error) { return v.(string), nil }))

	// A nil slice is stored as NULL and reads back as nil. An empty, non-nil
	// slice is stored as an empty blob.
	must(Register(r, KindBlob,
		func(b []byte) (any, error) {
			if b == nil {
				return nil, nil
			}
			return b, nil
		},
		func(v any) ([]byte, error) { return v.([]byte), nil }))

	must(Register(r, KindInteger,
		func(b bool) (any, error) {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		},
		func(v any) (bool, error) { return v.(int64) != 0, nil }))

	for _, t := range []reflect.Type{
		reflect.TypeFor[int](),
		reflect.TypeFor[int8](),
		reflect.TypeFor[int16](),
		reflect.TypeFor[int32](),
		reflect.TypeFor[int64](),
	} {
		must(r.Register(t, KindInteger, encodeInt, decodeInt(t)))
	}
	for _, t := range []reflect.Type{
		reflect.TypeFor[uint8](),
		reflect.TypeFor[uint16](),
		reflect.TypeFor[uint32](),
	} {
		must(r.Register(t, KindInteger, encodeUint, decodeUint(t)))
	}
	for _, t := range []reflect.Type{
		reflect.TypeFor[float32](),
		reflect.TypeFor[float64](),
	} {
		must(r.Register(t, KindReal, encodeFloat, decodeFloat(t)))
	}

	must(Register(r, KindText,
		func(t time.Time) (any, error) { return t.Format(TimeLayout), nil },
		func(v any) (time.Time, error) { return parseTime(v.(string)) }))

	must(Register(r, KindInteger,
		func(d time.Duration) (any, error) { return int64(d), nil },
		func(v any) (time.Duration, error) { return time.Duration(v.(int64)), nil }))

	must(Register(r, KindText,
		func(u uuid.UUID) (any, error) { return u.String(), nil },
		func(v any) (uuid.UUID, error) { return uuid.Parse(v.(string)) }))

	must(Register(r, KindText,
		func(tag language.Tag) (any, error) { return tag.String(), nil },
		func(v any) (language.Tag, error) { return language.Parse(v.(string)) }))
}

// parseTime reads a stored time. Values written by wurm are RFC 3339; rows
// written by other tools are accepted in any layout dateparse recognizes.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err == nil {
		return t, nil
	}
	t, perr := dateparse.ParseIn(s, time.UTC)
	if perr != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func encodeInt(v reflect.Value) (any, error) {
	return v.Int(), nil
}

func decodeInt(t reflect.Type) func(any) (reflect.Value, error) {
	return func(s any) (reflect.Value, error) {
		n := s.(int64)
		out := reflect.New(t).Elem()
		if out.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("value %d overflows %s", n, t)
		}
		out.SetInt(n)
		return out, nil
	}
}

func encodeUint(v reflect.Value) (any, error) {
	return int64(v.Uint()), nil
}

func decodeUint(t reflect.Type) func(any) (reflect.Value, error) {
	return func(s any) (reflect.Value, error) {
		n := s.(int64)
		out := reflect.New(t).Elem()
		if n < 0 || out.OverflowUint(uint64(n)) {
			return reflect.Value{}, fmt.Errorf("value %d overflows %s", n, t)
		}
		out.SetUint(uint64(n))
		return out, nil
	}
}

func encodeFloat(v reflect.Value) (any, error) {
	return v.Float(), nil
}

func decodeFloat(t reflect.Type) func(any) (reflect.Value, error) {
	return func(s any) (reflect.Value, error) {
		out := reflect.New(t).Elem()
		out.SetFloat(s.(float64))
		return out, nil
	}
}
