package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harshithgowdakt/granulekey/internal/types"
)

func i64(v int64) types.Field { return types.NewInt64(v) }

func TestRangeIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want bool
	}{
		{"disjoint", NewRange(i64(1), true, i64(3), true), NewRange(i64(5), true, i64(7), true), false},
		{"partial overlap", NewRange(i64(1), true, i64(5), true), NewRange(i64(3), true, i64(7), true), true},
		{"containment", NewRange(i64(1), true, i64(10), true), PointRange(i64(4)), true},
		{"touching closed", NewRange(i64(1), true, i64(3), true), NewRange(i64(3), true, i64(7), true), true},
		{"touching open left", NewRange(i64(1), true, i64(3), false), NewRange(i64(3), true, i64(7), true), false},
		{"touching open right", NewRange(i64(1), true, i64(3), true), NewRange(i64(3), false, i64(7), true), false},
		{"unbounded", WholeRange(), PointRange(i64(0)), true},
		{"left bounded vs right bounded", CreateLeftBounded(i64(5), false), CreateRightBounded(i64(5), true), false},
		{"mixed numeric kinds", PointRange(types.NewUInt64(5)), NewRange(types.NewFloat64(4.5), true, i64(6), false), true},
		{"infinite sentinel", NewRange(types.NegativeInfinity(), true, i64(0), true), CreateRightBounded(i64(-100), true), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.a.Intersects(tt.b))
			require.Equal(t, tt.want, tt.b.Intersects(tt.a))
		})
	}
}

func TestRangeContains(t *testing.T) {
	tests := []struct {
		name  string
		outer Range
		inner Range
		want  bool
	}{
		{"point in closed", NewRange(i64(1), true, i64(5), true), PointRange(i64(5)), true},
		{"point on open edge", NewRange(i64(1), true, i64(5), false), PointRange(i64(5)), false},
		{"unbounded inner", CreateLeftBounded(i64(1), true), WholeRange(), false},
		{"whole contains all", WholeRange(), NewRange(i64(1), false, i64(2), false), true},
		{"open inside closed", NewRange(i64(1), true, i64(5), true), NewRange(i64(1), false, i64(5), false), true},
		{"closed inside open", NewRange(i64(1), false, i64(5), false), NewRange(i64(1), true, i64(5), true), false},
		{"left bounded", CreateLeftBounded(i64(10), false), NewRange(i64(11), true, i64(20), true), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.outer.Contains(tt.inner))
		})
	}
}

func TestRangeString(t *testing.T) {
	require.Equal(t, "[5, 5]", PointRange(i64(5)).String())
	require.Equal(t, "(-inf, 10)", CreateRightBounded(i64(10), false).String())
	require.Equal(t, "[1, +inf)", CreateLeftBounded(i64(1), true).String())
	require.Equal(t, "(-inf, +inf)", WholeRange().String())
	require.Equal(t, "['a', 'b')", NewRange(types.NewString("a"), true, types.NewString("b"), false).String())
	require.Equal(t, "[1, 1] x (-inf, +inf)", Hyperrectangle{PointRange(i64(1)), WholeRange()}.String())
}

func TestRangeSwapAndInfiniteBounds(t *testing.T) {
	r := NewRange(i64(1), true, i64(5), false).SwapLeftAndRight()
	require.Equal(t, i64(5), r.Left)
	require.False(t, r.LeftIncluded)
	require.Equal(t, i64(1), r.Right)
	require.True(t, r.RightIncluded)

	open := NewRange(types.NegativeInfinity(), true, types.PositiveInfinity(), true).withoutInfiniteBounds()
	require.False(t, open.LeftBounded)
	require.False(t, open.RightBounded)
	require.Equal(t, types.NegativeInfinity(), open.leftOrInf())
	require.Equal(t, types.PositiveInfinity(), open.rightOrInf())
}
