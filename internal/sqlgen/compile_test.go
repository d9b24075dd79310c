package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wurm/internal/predicate"
)

func TestCompile_Operators(t *testing.T) {
	testCases := []struct {
		op   predicate.Op
		want string
	}{
		{predicate.OpEq, `"x" = ?`},
		{predicate.OpNe, `"x" != ?`},
		{predicate.OpLt, `"x" < ?`},
		{predicate.OpLe, `"x" <= ?`},
		{predicate.OpGt, `"x" > ?`},
		{predicate.OpGe, `"x" >= ?`},
	}

	for _, tc := range testCases {
		t.Run(string(tc.op), func(t *testing.T) {
			where, args, err := Compile(predicate.Compare{Column: "x", Op: tc.op, Value: int64(1)})
			require.NoError(t, err)
			assert.Equal(t, tc.want, where)
			assert.Equal(t, []any{int64(1)}, args)
		})
	}
}

func TestCompile_Null(t *testing.T) {
	where, args, err := Compile(predicate.Compare{Column: "y", Op: predicate.OpEq, Value: nil})
	require.NoError(t, err)
	assert.Equal(t, `"y" IS NULL`, where)
	assert.Empty(t, args)

	where, args, err = Compile(&predicate.Compare{Column: "y", Op: predicate.OpNe})
	require.NoError(t, err)
	assert.Equal(t, `"y" IS NOT NULL`, where)
	assert.Empty(t, args)

	where, args, err = Compile(predicate.Compare{Column: "y", Op: predicate.OpLt})
	require.NoError(t, err)
	assert.Equal(t, `"y" < ?`, where)
	assert.Equal(t, []any{nil}, args)
}

func TestCompile_Empty(t *testing.T) {
	for _, p := range []predicate.Predicate{nil, predicate.And{}, &predicate.And{}} {
		where, args, err := Compile(p)
		require.NoError(t, err)
		assert.Empty(t, where)
		assert.Nil(t, args)
	}
}

func TestCompile_NestedAndSkipsEmpty(t *testing.T) {
	p := predicate.And{Predicates: []predicate.Predicate{
		predicate.And{},
		predicate.And{Predicates: []predicate.Predicate{
			predicate.Compare{Column: "c_r", Op: predicate.OpEq, Value: int64(1)},
			predicate.Compare{Column: "c_g", Op: predicate.OpEq, Value: int64(2)},
		}},
		predicate.Compare{Column: "name", Op: predicate.OpNe, Value: "goal"},
	}}

	where, args, err := Compile(p)
	require.NoError(t, err)
	assert.Equal(t, `"c_r" = ? AND "c_g" = ? AND "name" != ?`, where)
	assert.Equal(t, []any{int64(1), int64(2), "goal"}, args)
}

func TestCompile_NeverInterpolates(t *testing.T) {
	where, args, err := Compile(predicate.Compare{Column: "name", Op: predicate.OpEq, Value: "'; DROP TABLE x; --"})
	require.NoError(t, err)
	assert.NotContains(t, where, "DROP")
	assert.Equal(t, []any{"'; DROP TABLE x; --"}, args)
}

func TestCompile_Invalid(t *testing.T) {
	_, _, err := Compile(predicate.Compare{Column: "x", Op: predicate.Op("~"), Value: int64(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile predicate")
}
