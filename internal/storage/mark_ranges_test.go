package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/harshithgowdakt/granulekey/internal/config"
	"github.com/harshithgowdakt/granulekey/internal/types"
)

// tensIndex has marks 0, 10, ..., 90 on key column a.
func tensIndex(finalMark ...int64) *PrimaryIndex {
	idx := &PrimaryIndex{
		KeyColumns: []string{"a"},
		KeyTypes:   []types.DataType{types.TypeInt64},
	}
	for v := int64(0); v < 100; v += 10 {
		idx.Marks = append(idx.Marks, tuple(v))
	}
	for _, v := range finalMark {
		idx.Marks = append(idx.Marks, tuple(v))
		idx.HasFinalMark = true
	}
	return idx
}

func TestMarkRangesFromPKRange(t *testing.T) {
	aKey := SortDescription{Columns: []string{"a"}, Types: []types.DataType{types.TypeInt64}}
	tests := []struct {
		name         string
		where        string
		final        []int64
		minMarksSeek int
		want         MarkRanges
	}{
		{"point inside granule", "a = 35", nil, 0, MarkRanges{{3, 4}}},
		{"point on boundary", "a = 30", nil, 0, MarkRanges{{2, 4}}},
		{"open tail", "a > 85", nil, 0, MarkRanges{{8, 10}}},
		{"set", "a IN (5, 75)", nil, 0, MarkRanges{{0, 1}, {7, 8}}},
		{"set merged by seek distance", "a IN (5, 75)", nil, 10, MarkRanges{{0, 8}}},
		{"nothing matches", "a < 0", nil, 0, nil},
		{"unknown", "c = 1", nil, 0, MarkRanges{{0, 10}}},
		{"final mark bounds the tail", "a = 93", []int64{95}, 0, MarkRanges{{9, 10}}},
		{"past the final mark", "a = 97", []int64{95}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := config.DefaultSettings()
			settings.MinMarksForSeek = tt.minMarksSeek
			s := NewSelector(settings)

			got, err := s.MarkRangesFromPKRange(mustCondition(t, tt.where, aKey), tensIndex(tt.final...))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMarkRangesMatchGranuleScan(t *testing.T) {
	idx := tensIndex()
	aKey := idx.SortDescription()
	for _, where := range []string{"a = 35", "a >= 42 AND a < 61", "a IN (0, 99, 50)", "NOT (a > 10)", "a != 40"} {
		kc := mustCondition(t, where, aKey)
		for _, coarse := range []int{2, 3, 8} {
			settings := config.DefaultSettings()
			settings.CoarseIndexGranularity = coarse
			got, err := NewSelector(settings).MarkRangesFromPKRange(kc, idx)
			require.NoError(t, err)

			// Granule-by-granule reference.
			var want MarkRanges
			for g := 0; g < idx.GranuleCount(); g++ {
				var ok bool
				if g+1 < idx.MarkCount() {
					ok, err = kc.MayBeTrueInRange(1, idx.Marks[g], idx.Marks[g+1], aKey.Types)
				} else {
					ok, err = kc.MayBeTrueAfter(1, idx.Marks[g], aKey.Types)
				}
				require.NoError(t, err)
				if !ok {
					continue
				}
				if n := len(want); n > 0 && want[n-1].End == g {
					want[n-1].End = g + 1
				} else {
					want = append(want, MarkRange{g, g + 1})
				}
			}
			require.Equal(t, want, got, "%s with coarse granularity %d", where, coarse)
		}
	}
}

func TestMarkRangesMetricsAndLogs(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	core, logs := observer.New(zap.DebugLevel)
	s := NewSelector(config.DefaultSettings(), WithMetrics(metrics), WithLogger(zap.New(core)))

	idx := tensIndex()
	ranges, err := s.MarkRangesFromPKRange(mustCondition(t, "a = 35", idx.SortDescription()), idx)
	require.NoError(t, err)
	require.Equal(t, "[3, 4)", ranges.String())

	require.Equal(t, 10.0, testutil.ToFloat64(metrics.marksConsidered))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.marksSelected))
	require.Equal(t, 8.0, testutil.ToFloat64(metrics.rangesEvaluated))

	require.Equal(t, 1, logs.FilterMessage("[primary-key] selected mark ranges").Len())
	require.Positive(t, logs.FilterMessage("[primary-key] range skipped (condition always false)").Len())

	count, err := testutil.GatherAndCount(reg, "granulekey_select_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMarkRangesEmptyIndex(t *testing.T) {
	idx := &PrimaryIndex{KeyColumns: []string{"a"}}
	got, err := NewSelector(config.DefaultSettings()).MarkRangesFromPKRange(mustCondition(t, "a = 1", idx.SortDescription()), idx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSelectMarkRangesForParts(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	settings := config.DefaultSettings()
	settings.Parallelism = 3
	s := NewSelector(settings, WithMetrics(metrics))

	var parts []*Part
	for i := 0; i < 20; i++ {
		idx := tensIndex()
		// Shift every other part out of the queried range.
		if i%2 == 1 {
			for _, m := range idx.Marks {
				m[0] = i64(m[0].Int64() + 1000)
			}
		}
		info, err := ParsePartInfo(fmt.Sprintf("all_%d_%d_0", i+1, i+1))
		require.NoError(t, err)
		parts = append(parts, &Part{Info: info, Index: idx})
	}

	kc := mustCondition(t, "a = 35", tensIndex().SortDescription())
	got, err := s.SelectMarkRangesForParts(context.Background(), kc, parts)
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i, sel := range got {
		require.Equal(t, parts[2*i], sel.Part)
		require.Equal(t, MarkRanges{{3, 4}}, sel.Ranges)
	}
	require.Equal(t, 10.0, testutil.ToFloat64(metrics.partsPruned.WithLabelValues("primary_key")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.SelectMarkRangesForParts(ctx, kc, parts)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMarkRangesPropagatesLogicalErrors(t *testing.T) {
	kc := &KeyCondition{rpn: []rpnNode{
		{function: rpnFunctionInRange, rangeValue: PointRange(i64(1))},
		{function: rpnFunctionInRange, rangeValue: PointRange(i64(2))},
	}}
	_, err := NewSelector(config.DefaultSettings()).MarkRangesFromPKRange(kc, tensIndex())
	require.True(t, IsLogicalError(err))
}
