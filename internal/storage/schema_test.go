package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harshithgowdakt/granulekey/internal/types"
)

func TestParseTableSchema(t *testing.T) {
	s, err := ParseTableSchema(`CREATE TABLE IF NOT EXISTS hits (
		CounterID UInt32, EventDate Date, UserID UInt64, URL LowCardinality(String)
	) ENGINE = MergeTree() ORDER BY (CounterID, EventDate, intHash32(UserID)) PRIMARY KEY (CounterID, EventDate)`)
	require.NoError(t, err)
	require.Equal(t, []string{"CounterID", "EventDate", "UserID", "URL"}, s.ColumnNames())
	require.Equal(t, []string{"CounterID", "EventDate"}, s.PrimaryKey)
	require.Empty(t, s.PartitionBy)
	require.Empty(t, s.PartitionColumns())
	require.Equal(t, DefaultGranuleSize, s.EffectiveGranuleSize())

	url, ok := s.GetColumnDef("URL")
	require.True(t, ok)
	require.Equal(t, types.TypeString, url.DataType)
	_, ok = s.GetColumnDef("missing")
	require.False(t, ok)
}

func TestTableSchemaSortDescription(t *testing.T) {
	s, err := ParseTableSchema(`CREATE TABLE t (a Int32, d DateTime, u UInt64)
		ENGINE = MergeTree ORDER BY (toStartOfHour(d), intHash32(u), negate(a), lower(a), missing)`)
	require.NoError(t, err)
	desc := s.SortDescription()
	require.Equal(t, []string{"toStartOfHour(d)", "intHash32(u)", "negate(a)", "lower(a)", "missing"}, desc.Columns)
	require.Equal(t, []types.DataType{
		types.TypeDateTime, types.TypeUInt32, types.TypeInt64, types.TypeUnknown, types.TypeUnknown,
	}, desc.Types)
}

func TestParseTableSchemaErrors(t *testing.T) {
	for _, sql := range []string{
		"CREATE TABLE t (a Decimal) ENGINE = MergeTree ORDER BY a",
		"CREATE TABLE t (a Int64, b Int64) ENGINE = MergeTree ORDER BY a PRIMARY KEY (b)",
		"CREATE TABLE t (a Int64, b Int64) ENGINE = MergeTree ORDER BY a PRIMARY KEY (a, b)",
		"SELECT 1",
	} {
		_, err := ParseTableSchema(sql)
		require.Error(t, err, sql)
	}
}
