package wurm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForeignKey_DecodesLiveTargets(t *testing.T) {
	ctx := bindTest(t)

	p := &Point{X: 1, Y: 2}
	n := &NoRowid{Key: "ok", Count: 1}
	insertAll(t, ctx, p)
	insertAll(t, ctx, n)
	fk := &ForeignKeyTest{Point: p, Word: n}
	require.NoError(t, Insert(ctx, fk))
	require.NoError(t, Evict(ctx, fk))

	got, err := Get[ForeignKeyTest](ctx, fk.RowID)
	require.NoError(t, err)
	assert.NotSame(t, fk, got)
	assert.Same(t, p, got.Point)
	assert.Same(t, n, got.Word)
}

func TestForeignKey_LoadsTargetsByKey(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			ctx := bindTestStore(t, driver)

			p := &Point{X: 1, Y: 2}
			n := &NoRowid{Key: "ok", Count: 1}
			insertAll(t, ctx, p)
			insertAll(t, ctx, n)
			fk := &ForeignKeyTest{Point: p, Word: n}
			require.NoError(t, Insert(ctx, fk))
			require.NoError(t, Evict(ctx, fk))
			require.NoError(t, Evict(ctx, p))
			require.NoError(t, Evict(ctx, n))

			got, err := Get[ForeignKeyTest](ctx, fk.RowID)
			require.NoError(t, err)
			require.NotNil(t, got.Point)
			assert.NotSame(t, p, got.Point)
			assert.Equal(t, *p, *got.Point)
			assert.Equal(t, *n, *got.Word)

			again, err := Get[Point](ctx, p.RowID)
			require.NoError(t, err)
			assert.Same(t, got.Point, again)
		})
	}
}

func TestForeignKey_CompositeTarget(t *testing.T) {
	ctx := bindTest(t)

	c := &CompositeKey{PartOne: 1, PartTwo: 2}
	require.NoError(t, Insert(ctx, c))
	require.NoError(t, Insert(ctx, &ForeignKeyTest2{Point: c}))

	q, err := Find[ForeignKeyTest2](nil)
	require.NoError(t, err)
	got, err := q.One(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Point.PartOne)

	q, err = Find[ForeignKeyTest2](Where{"point": c})
	require.NoError(t, err)
	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestForeignKey_Unique(t *testing.T) {
	ctx := bindTest(t)

	p := &Point{X: 1, Y: 1}
	p2 := &Point{X: 1, Y: 1}
	insertAll(t, ctx, p, p2)
	require.NoError(t, Insert(ctx, &OneToOneForeignKeyTest{Point: p}))
	require.NoError(t, Insert(ctx, &OneToOneForeignKeyTest{Point: p2}))

	err := Insert(ctx, &OneToOneForeignKeyTest{Point: p})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestForeignKey_Primary(t *testing.T) {
	ctx := bindTest(t)

	p := &Point{X: 1, Y: 1}
	p2 := &Point{X: 1, Y: 1}
	insertAll(t, ctx, p, p2)
	first := &PrimaryForeignKeyTest{Point: p}
	require.NoError(t, Insert(ctx, first))
	require.NoError(t, Insert(ctx, &PrimaryForeignKeyTest{Point: p2}))

	err := Insert(ctx, &PrimaryForeignKeyTest{Point: p})
	require.ErrorIs(t, err, ErrDuplicateKey)

	got, err := Get[PrimaryForeignKeyTest](ctx, p)
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestForeignKey_Nil(t *testing.T) {
	ctx := bindTest(t)

	fk := &ForeignKeyTest{}
	require.NoError(t, Insert(ctx, fk))
	require.NoError(t, Evict(ctx, fk))

	q, err := Find[ForeignKeyTest](Where{"point": nil})
	require.NoError(t, err)
	got, err := q.One(ctx)
	require.NoError(t, err)
	assert.Nil(t, got.Point)
	assert.Nil(t, got.Word)
}

func TestForeignKey_UnsavedTarget(t *testing.T) {
	ctx := bindTest(t)

	err := Insert(ctx, &ForeignKeyTest{Point: &Point{X: 1}})
	require.ErrorIs(t, err, ErrNotPersisted)

	_, err = Find[ForeignKeyTest](Where{"point": &Point{}})
	assert.ErrorIs(t, err, ErrNotPersisted)
}

func TestForeignKey_QueryByTarget(t *testing.T) {
	ctx := bindTest(t)

	p := &Point{X: 1}
	other := &Point{X: 2}
	insertAll(t, ctx, p, other)
	insertAll(t, ctx, &ForeignKeyTest{Point: p}, &ForeignKeyTest{Point: p}, &ForeignKeyTest{Point: other})

	q, err := Find[ForeignKeyTest](Where{"point": p})
	require.NoError(t, err)
	all, err := q.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, fk := range all {
		assert.Same(t, p, fk.Point)
	}

	q, err = Find[ForeignKeyTest](Where{"point": Ne(p)})
	require.NoError(t, err)
	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestForeignKey_DanglingReference(t *testing.T) {
	ctx := bindTest(t)

	p := &Point{X: 1}
	require.NoError(t, Insert(ctx, p))
	fk := &ForeignKeyTest{Point: p}
	require.NoError(t, Insert(ctx, fk))
	require.NoError(t, Delete(ctx, p))
	require.NoError(t, Evict(ctx, fk))

	_, err := Get[ForeignKeyTest](ctx, fk.RowID)
	require.ErrorIs(t, err, ErrEmptyResult)
	assert.Contains(t, err.Error(), "referenced Point")
}

func TestForeignKey_Cycle(t *testing.T) {
	ctx := bindTest(t)

	a := &Node{Name: "a"}
	require.NoError(t, Insert(ctx, a))
	b := &Node{Name: "b", Next: a}
	require.NoError(t, Insert(ctx, b))
	a.Next = b
	require.NoError(t, Commit(ctx, a))
	require.NoError(t, Evict(ctx, a))
	require.NoError(t, Evict(ctx, b))

	got, err := Get[Node](ctx, a.RowID)
	require.NoError(t, err)
	require.NotNil(t, got.Next)
	assert.Equal(t, "b", got.Next.Name)
	assert.Same(t, got, got.Next.Next)
}

func TestMultiColumnField_RoundTrip(t *testing.T) {
	ctx := bindTest(t)

	m := &MultiColumnFields{Color: Color{R: 0, G: 2, B: 8, A: 1}}
	require.NoError(t, Insert(ctx, m))
	require.NoError(t, Evict(ctx, m))

	all, err := All[MultiColumnFields](ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, Color{R: 0, G: 2, B: 8, A: 1}, all[0].Color)
}
