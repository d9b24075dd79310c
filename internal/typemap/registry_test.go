package typemap

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/roach88/wurm/internal/ormerr"
)

// roundTrip encodes v with the default registry and decodes it back.
func roundTrip[T any](t *testing.T, r *Registry, v T) T {
	t.Helper()
	c, err := r.MustLookup(reflect.TypeFor[T]())
	require.NoError(t, err)

	stored, err := c.Encode(reflect.ValueOf(v))
	require.NoError(t, err)
	require.Len(t, stored, c.Width())

	out, null, err := c.Decode(stored)
	require.NoError(t, err)
	require.False(t, null)
	return out.Interface().(T)
}

func TestBuiltins_RoundTrip(t *testing.T) {
	r := NewDefault()

	assert.Equal(t, "string", roundTrip(t, r, "string"))
	assert.Equal(t, "", roundTrip(t, r, ""))
	assert.Equal(t, []byte("blob"), roundTrip(t, r, []byte("blob")))
	assert.Equal(t, int64(0xDEADBEEF), roundTrip(t, r, int64(0xDEADBEEF)))
	assert.Equal(t, -7, roundTrip(t, r, -7))
	assert.Equal(t, int8(-128), roundTrip(t, r, int8(-128)))
	assert.Equal(t, uint32(4000000000), roundTrip(t, r, uint32(4000000000)))
	assert.Equal(t, 42.1, roundTrip(t, r, 42.1))
	assert.Equal(t, float32(0.5), roundTrip(t, r, float32(0.5)))
	assert.Equal(t, true, roundTrip(t, r, true))
	assert.Equal(t, false, roundTrip(t, r, false))
	assert.Equal(t, 90*time.Second, roundTrip(t, r, 90*time.Second))

	id := uuid.MustParse("0190f5a4-7c3b-7d2e-9a1b-5c6d7e8f9a0b")
	assert.Equal(t, id, roundTrip(t, r, id))

	tag := language.MustParse("pt-BR")
	assert.Equal(t, tag, roundTrip(t, r, tag))

	when := time.Date(2021, 1, 9, 7, 20, 0, 123456789, time.UTC)
	got := roundTrip(t, r, when)
	assert.True(t, when.Equal(got), "got %v, want %v", got, when)
}

func TestBuiltins_NilBlobIsNull(t *testing.T) {
	r := NewDefault()
	c, err := r.MustLookup(reflect.TypeFor[[]byte]())
	require.NoError(t, err)

	stored, err := c.Encode(reflect.ValueOf([]byte(nil)))
	require.NoError(t, err)
	assert.Equal(t, []any{nil}, stored)
	v, null, err := c.Decode(stored)
	require.NoError(t, err)
	assert.True(t, null)
	assert.Nil(t, v.Interface())

	stored, err = c.Encode(reflect.ValueOf([]byte{}))
	require.NoError(t, err)
	assert.Equal(t, []any{[]byte{}}, stored)
	assert.Equal(t, []byte{}, roundTrip(t, r, []byte{}))
}

func TestBuiltins_TimeKeepsOffset(t *testing.T) {
	r := NewDefault()
	when := time.Date(2021, 1, 9, 7, 20, 0, 0, time.FixedZone("CET", 3600))

	got := roundTrip(t, r, when)

	assert.True(t, when.Equal(got))
	_, offset := got.Zone()
	assert.Equal(t, 3600, offset)
}

func TestDecode_TimeFallsBackToLenientParsing(t *testing.T) {
	r := NewDefault()
	c, err := r.MustLookup(reflect.TypeFor[time.Time]())
	require.NoError(t, err)

	v, null, err := c.Decode([]any{"2021-01-09 07:20:00"})
	require.NoError(t, err)
	require.False(t, null)

	want := time.Date(2021, 1, 9, 7, 20, 0, 0, time.UTC)
	assert.True(t, want.Equal(v.Interface().(time.Time)))
}

func TestDecode_AllNullIsAbsent(t *testing.T) {
	r := NewDefault()
	c, err := r.MustLookup(reflect.TypeFor[int64]())
	require.NoError(t, err)

	stored := c.EncodeNull()
	assert.Equal(t, []any{nil}, stored)

	v, null, err := c.Decode(stored)
	require.NoError(t, err)
	assert.True(t, null)
	assert.Equal(t, int64(0), v.Interface())
}

func TestDecode_NormalizesDriverValues(t *testing.T) {
	r := NewDefault()

	text, err := r.MustLookup(reflect.TypeFor[string]())
	require.NoError(t, err)
	v, _, err := text.Decode([]any{[]byte("bytes as text")})
	require.NoError(t, err)
	assert.Equal(t, "bytes as text", v.Interface())

	realCodec, err := r.MustLookup(reflect.TypeFor[float64]())
	require.NoError(t, err)
	v, _, err = realCodec.Decode([]any{int64(2)})
	require.NoError(t, err)
	assert.Equal(t, 2.0, v.Interface())
}

func TestDecode_Overflow(t *testing.T) {
	r := NewDefault()
	c, err := r.MustLookup(reflect.TypeFor[int8]())
	require.NoError(t, err)

	_, _, err = c.Decode([]any{int64(300)})
	assert.Error(t, err)
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewDefault()

	err := Register(r, KindText,
		func(s string) (any, error) { return s, nil },
		func(v any) (string, error) { return v.(string), nil })

	require.Error(t, err)
	assert.True(t, ormerr.HasCode(err, ormerr.CodeDuplicateType))
}

func TestMustLookup_Unknown(t *testing.T) {
	type unregistered struct{}
	r := New()

	_, err := r.MustLookup(reflect.TypeFor[unregistered]())

	require.Error(t, err)
	assert.ErrorIs(t, err, ormerr.ErrUnknownType)
}

type celsius float64

func TestRegister_NamedScalar(t *testing.T) {
	r := NewDefault()
	err := Register(r, KindReal,
		func(c celsius) (any, error) { return float64(c), nil },
		func(v any) (celsius, error) { return celsius(v.(float64)), nil })
	require.NoError(t, err)

	assert.Equal(t, celsius(-40), roundTrip(t, r, celsius(-40)))
}

type pair struct {
	a string
	b int
}

func TestRegisterComposite_UnnamedColumns(t *testing.T) {
	r := NewDefault()
	err := RegisterComposite(r,
		[]Column{{Kind: KindText}, {Kind: KindInteger}},
		func(p pair) ([]any, error) { return []any{p.a, int64(p.b)}, nil },
		func(s []any) (pair, error) { return pair{a: s[0].(string), b: int(s[1].(int64))}, nil })
	require.NoError(t, err)

	c, ok := r.Lookup(reflect.TypeFor[pair]())
	require.True(t, ok)
	assert.Equal(t, []string{"field_0", "field_1"}, c.ColumnNames("field"))
	assert.Equal(t, pair{a: "x", b: 3}, roundTrip(t, r, pair{a: "x", b: 3}))
}

func TestRegisterComposite_PartlyNullRow(t *testing.T) {
	r := NewDefault()
	var got []any
	err := RegisterComposite(r,
		[]Column{{Name: "a", Kind: KindText}, {Name: "b", Kind: KindInteger}},
		func(p pair) ([]any, error) { return []any{p.a, int64(p.b)}, nil },
		func(s []any) (pair, error) {
			got = s
			var p pair
			if s[0] != nil {
				p.a = s[0].(string)
			}
			if s[1] != nil {
				p.b = int(s[1].(int64))
			}
			return p, nil
		})
	require.NoError(t, err)
	c, _ := r.Lookup(reflect.TypeFor[pair]())

	v, null, err := c.Decode([]any{nil, 7.0})
	require.NoError(t, err)
	assert.False(t, null)
	assert.Equal(t, []any{nil, int64(7)}, got)
	assert.Equal(t, pair{b: 7}, v.Interface())
}

type color struct {
	R, G, B, A float64
}

func TestRegisterStruct(t *testing.T) {
	r := NewDefault()
	require.NoError(t, RegisterStruct[color](r))

	c, ok := r.Lookup(reflect.TypeFor[color]())
	require.True(t, ok)
	assert.Equal(t, []string{"color_r", "color_g", "color_b", "color_a"}, c.ColumnNames("color"))
	for _, col := range c.Columns {
		assert.Equal(t, KindReal, col.Kind)
	}

	want := color{0, 2, 8, 1}
	assert.Equal(t, want, roundTrip(t, r, want))
}

func TestRegisterStruct_NullComposite(t *testing.T) {
	r := NewDefault()
	require.NoError(t, RegisterStruct[color](r))
	c, _ := r.Lookup(reflect.TypeFor[color]())

	v, null, err := c.Decode(c.EncodeNull())
	require.NoError(t, err)
	assert.True(t, null)
	assert.Equal(t, color{}, v.Interface())
}

type attachment struct {
	Data []byte
	Size int64
}

func TestRegisterStruct_PartlyNullRow(t *testing.T) {
	r := NewDefault()
	require.NoError(t, RegisterStruct[attachment](r))
	c, _ := r.Lookup(reflect.TypeFor[attachment]())

	stored, err := c.Encode(reflect.ValueOf(attachment{Size: 3}))
	require.NoError(t, err)
	assert.Equal(t, []any{nil, int64(3)}, stored)

	v, null, err := c.Decode(stored)
	require.NoError(t, err)
	assert.False(t, null)
	assert.Equal(t, attachment{Size: 3}, v.Interface())
}

type tagged struct {
	Label  string `wurm:"name"`
	Hidden string `wurm:"-"`
	Count  int
}

func TestRegisterStruct_TagsAndSkips(t *testing.T) {
	r := NewDefault()
	require.NoError(t, RegisterStruct[tagged](r))

	c, _ := r.Lookup(reflect.TypeFor[tagged]())
	assert.Equal(t, []string{"t_name", "t_count"}, c.ColumnNames("t"))

	got := roundTrip(t, r, tagged{Label: "l", Hidden: "dropped", Count: 2})
	assert.Equal(t, tagged{Label: "l", Count: 2}, got)
}

func TestRegisterStruct_RejectsUnregisteredField(t *testing.T) {
	type inner struct{}
	type outer struct{ In inner }
	r := NewDefault()

	err := RegisterStruct[outer](r)

	assert.True(t, ormerr.HasCode(err, ormerr.CodeUnknownType))
}

func TestColumnName(t *testing.T) {
	testCases := map[string]string{
		"X":        "x",
		"PartOne":  "part_one",
		"HTTPCode": "http_code",
		"UserID":   "user_id",
		"Point2D":  "point2_d",
		"name":     "name",
	}
	for in, want := range testCases {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ColumnName(in))
		})
	}
}

func TestParseTag(t *testing.T) {
	testCases := []struct {
		tag  reflect.StructTag
		want Tag
	}{
		{`wurm:"-"`, Tag{Skip: true}},
		{`wurm:"primary"`, Tag{Primary: true}},
		{`wurm:"key,primary,unique"`, Tag{Name: "key", Primary: true, Unique: true}},
		{`wurm:",unique"`, Tag{Unique: true}},
		{`wurm:"target=Child.parent,load=strict"`, Tag{Target: "Child.parent", Load: "strict"}},
		{`json:"x"`, Tag{}},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprint(tc.tag), func(t *testing.T) {
			assert.Equal(t, tc.want, ParseTag(tc.tag))
		})
	}
}
