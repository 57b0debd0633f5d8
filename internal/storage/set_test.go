package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harshithgowdakt/granulekey/internal/types"
)

func TestOrderedSet(t *testing.T) {
	set := NewOrderedSet([]types.Field{i64(9), i64(1), i64(5), i64(5)})
	require.Equal(t, 3, set.Size())
	require.Equal(t, []types.Field{i64(1), i64(5), i64(9)}, set.Values())

	tests := []struct {
		name string
		r    Range
		want BoolMask
	}{
		{"point in set", PointRange(i64(5)), MaskAlwaysTrue},
		{"point not in set", PointRange(i64(4)), MaskAlwaysFalse},
		{"range with element", NewRange(i64(2), true, i64(6), true), MaskMaybe},
		{"range between elements", NewRange(i64(2), true, i64(4), true), MaskAlwaysFalse},
		{"open edges exclude elements", NewRange(i64(1), false, i64(5), false), MaskAlwaysFalse},
		{"closed edges include elements", NewRange(i64(1), true, i64(1), true), MaskAlwaysTrue},
		{"left unbounded", CreateRightBounded(i64(1), true), MaskMaybe},
		{"right unbounded past end", CreateLeftBounded(i64(9), false), MaskAlwaysFalse},
		{"whole range", WholeRange(), MaskMaybe},
		{"float point", PointRange(types.NewFloat64(9)), MaskAlwaysTrue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, set.MayBeTrueInRange(tt.r))
		})
	}
}

func TestOrderedSetEmpty(t *testing.T) {
	set := NewOrderedSet(nil)
	require.Equal(t, MaskAlwaysFalse, set.MayBeTrueInRange(WholeRange()))
}
