package wurm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Count(t *testing.T) {
	testCases := []struct {
		name   string
		points []*Point
		where  Where
		want   int64
	}{
		{"empty table", nil, nil, 0},
		{"no filter", []*Point{{}, {}}, nil, 2},
		{"equality", []*Point{{}, {Y: 1}}, Where{"y": 1}, 1},
		{"equality and ge", []*Point{{}, {Y: 1}, {Y: 2}}, Where{"x": 0, "y": Ge(1)}, 2},
		{"gt and lt", []*Point{{}}, Where{"y": Gt(1), "x": Lt(1)}, 0},
		{"le and ne", []*Point{{}}, Where{"y": Le(1), "x": Ne(1)}, 1},
		{"rowid", []*Point{{X: 5}, {X: 6}}, Where{"rowid": int64(2)}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := bindTest(t)
			insertAll(t, ctx, tc.points...)

			q, err := Find[Point](tc.where)
			require.NoError(t, err)
			n, err := q.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}
}

func TestFind_UnknownField(t *testing.T) {
	_, err := Find[Point](Where{"z": 0})
	require.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, err.Error(), "invalid query: Point.z does not exist")

	var we *Error
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "z", we.Field)
}

func TestFind_RejectsIncomparableValues(t *testing.T) {
	_, err := Find[Point](Where{"x": "ten"})
	require.Error(t, err)
	assert.False(t, HasCode(err, CodeUnknownField))

	_, err = Find[Point](Where{"x": Comparison{Op: "LIKE", Value: int64(1)}})
	assert.Error(t, err)
}

func TestFind_ConvertsNumericValues(t *testing.T) {
	ctx := bindTest(t)
	insertAll(t, ctx, &Point{X: 10}, &Point{X: 11})

	for _, v := range []any{10, int32(10), int64(10), uint8(10)} {
		q, err := Find[Point](Where{"x": v})
		require.NoError(t, err)
		n, err := q.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "value %T", v)
	}
}

func TestQuery_IterInKeyOrder(t *testing.T) {
	ctx := bindTest(t)
	p1 := &Point{}
	p2 := &Point{Y: 1}
	insertAll(t, ctx, p1, p2, &Point{X: 1})

	q, err := Find[Point](Where{"x": 0})
	require.NoError(t, err)

	var got []*Point
	for p, err := range q.Iter(ctx) {
		require.NoError(t, err)
		got = append(got, p)
	}
	assert.Equal(t, []*Point{p1, p2}, got)
	assert.Same(t, p1, got[0])
}

func TestQuery_IterRunsAgain(t *testing.T) {
	ctx := bindTest(t)
	require.NoError(t, Insert(ctx, &Point{}))

	q, err := Find[Point](nil)
	require.NoError(t, err)
	first, err := q.All(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	require.NoError(t, Insert(ctx, &Point{}))
	second, err := q.All(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 2)
}

func TestQuery_IterStopsEarly(t *testing.T) {
	ctx := bindTest(t)
	insertAll(t, ctx, &Point{}, &Point{}, &Point{})

	q, err := Find[Point](nil)
	require.NoError(t, err)

	seen := 0
	for _, err := range q.Iter(ctx) {
		require.NoError(t, err)
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestQuery_AllEmpty(t *testing.T) {
	ctx := bindTest(t)

	all, err := All[Point](ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestQuery_First(t *testing.T) {
	ctx := bindTest(t)

	q, err := Find[Point](Where{"x": 0})
	require.NoError(t, err)
	_, err = q.First(ctx)
	require.ErrorIs(t, err, ErrEmptyResult)

	insertAll(t, ctx, &Point{Y: 5}, &Point{Y: 1})
	p, err := q.First(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.X)
	assert.Equal(t, int64(5), p.Y, "first in primary-key order")
}

func TestQuery_One(t *testing.T) {
	ctx := bindTest(t)
	insertAll(t, ctx, &Point{}, &Point{Y: 1})

	q, err := Find[Point](Where{"y": 0})
	require.NoError(t, err)
	p, err := q.One(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.X)

	q, err = Find[Point](Where{"x": 0})
	require.NoError(t, err)
	_, err = q.One(ctx)
	require.ErrorIs(t, err, ErrAmbiguousResult)

	q, err = Find[Point](Where{"x": 99})
	require.NoError(t, err)
	_, err = q.One(ctx)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestQuery_DeleteFiltered(t *testing.T) {
	ctx := bindTest(t)
	gone := &Point{}
	insertAll(t, ctx, gone, &Point{X: 1, Y: 1}, &Point{X: 1, Y: 2})

	q, err := Find[Point](Where{"y": Lt(2)})
	require.NoError(t, err)
	n, err := q.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := Count[Point](ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// The deleted instance is no longer returned for its key.
	st, _ := StoreFrom(ctx)
	_, err = st.Exec(ctx, `INSERT INTO "Point" ("rowid", "x", "y") VALUES (?, ?, ?)`, gone.RowID, int64(7), int64(7))
	require.NoError(t, err)
	got, err := Get[Point](ctx, gone.RowID)
	require.NoError(t, err)
	assert.NotSame(t, gone, got)
	assert.Equal(t, int64(7), got.X)
}

func TestQuery_DeleteAll(t *testing.T) {
	ctx := bindTest(t)
	kept := &Point{X: 10, Y: 20}
	insertAll(t, ctx, kept, &Point{X: 10}, &Point{Y: 20}, &Point{})

	q, err := Find[Point](nil)
	require.NoError(t, err)
	n, err := q.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	count, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	st, _ := StoreFrom(ctx)
	assert.Zero(t, st.IdentityMap("Point").Len())
}

func TestQuery_CompareWithNil(t *testing.T) {
	ctx := bindTest(t)
	v := 1.5
	insertAll(t, ctx, &Measure{}, &Measure{Value: &v}, &Measure{})

	q, err := Find[Measure](Where{"value": nil})
	require.NoError(t, err)
	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	q, err = Find[Measure](Where{"value": Ne(nil)})
	require.NoError(t, err)
	n, err = q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	q, err = Find[Measure](Where{"value": 1.5})
	require.NoError(t, err)
	n, err = q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestQuery_MultiColumnField(t *testing.T) {
	ctx := bindTest(t)
	insertAll(t, ctx, &MultiColumnFields{Color: Color{R: 1}}, &MultiColumnFields{Color: Color{G: 1}})

	q, err := Find[MultiColumnFields](Where{"color": Color{G: 1}})
	require.NoError(t, err)
	got, err := q.One(ctx)
	require.NoError(t, err)
	assert.Equal(t, Color{G: 1}, got.Color)

	_, err = Find[MultiColumnFields](Where{"color": Lt(Color{})})
	assert.Error(t, err)
}

func TestQuery_String(t *testing.T) {
	q, err := Find[Point](nil)
	require.NoError(t, err)
	assert.Equal(t, "Point", q.String())

	q, err = Find[Point](Where{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, `Point where "x" = ? [1]`, q.String())
}
