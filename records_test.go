package wurm

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/roach88/wurm/internal/store"
	"github.com/roach88/wurm/internal/testutil"
)

type Point struct {
	Table
	X int64
	Y int64
}

type Measure struct {
	Table
	Value *float64
	Note  *string
}

type Datatypes struct {
	Table
	String   string
	Blob     []byte
	I        int64
	F        float64
	Boolean  bool
	When     time.Time
	Elapsed  time.Duration
	ID       uuid.UUID
	Lang     language.Tag
	Small    int8
	Unsigned uint32
}

type UniqueInt struct {
	Table
	X int64 `wurm:",unique"`
}

type Named struct {
	Abstract
	Table
	Name string
}

type Label struct {
	Named
	Weight int64
}

type Point3D struct {
	Point
	Z int64
}

type NoRowid struct {
	WithoutRowid
	Key   string `wurm:",primary"`
	Count int64
}

type CompositeKey struct {
	WithoutRowid
	PartOne int64 `wurm:",primary"`
	PartTwo int64 `wurm:",primary"`
}

type ForeignKeyTest struct {
	Table
	Point *Point
	Word  *NoRowid
}

type OneToOneForeignKeyTest struct {
	Table
	Point *Point `wurm:",unique"`
}

type PrimaryForeignKeyTest struct {
	WithoutRowid
	Point *Point `wurm:",primary"`
}

type ForeignKeyTest2 struct {
	Table
	Point *CompositeKey
}

type Node struct {
	Table
	Name string
	Next *Node
}

type Color struct {
	R, G, B, A float64
}

type MultiColumnFields struct {
	Table
	Color Color
}

func init() {
	if err := RegisterStruct[Color](); err != nil {
		panic(err)
	}
	MustRegister[Point]()
	MustRegister[NoRowid]()
	MustRegister[CompositeKey]()
	MustRegister[Node]()
}

// drivers lists every supported driver; driver-sensitive tests run once per entry.
var drivers = testutil.Drivers

// bindTestStore opens an on-disk store and returns a context bound to it.
func bindTestStore(t *testing.T, driver string) context.Context {
	t.Helper()
	ctx, err := Bind(context.Background(), testutil.OpenStore(t, driver))
	require.NoError(t, err)
	return ctx
}

func bindTest(t *testing.T) context.Context {
	t.Helper()
	return bindTestStore(t, store.DriverMattn)
}

func insertAll[T any](t *testing.T, ctx context.Context, records ...*T) {
	t.Helper()
	for _, r := range records {
		require.NoError(t, Insert(ctx, r))
	}
}
