package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCreateTableSortingKey(t *testing.T) {
	ct, err := ParseCreateTable(`CREATE TABLE IF NOT EXISTS hits (
		CounterID UInt32, EventDate Date, UserID UInt64, URL LowCardinality(String)
	) ENGINE = MergeTree() PARTITION BY toYYYYMM(EventDate)
	ORDER BY (CounterID, EventDate, intHash32(UserID))`)
	require.NoError(t, err)
	require.True(t, ct.IfNotExists)
	require.Equal(t, "hits", ct.TableName)
	require.Len(t, ct.Columns, 4)
	require.Equal(t, "LowCardinality(String)", ct.Columns[3].TypeName)

	names := make([]string, len(ct.OrderBy))
	for i, e := range ct.OrderBy {
		names[i] = ColumnName(e)
	}
	require.Equal(t, []string{"CounterID", "EventDate", "intHash32(UserID)"}, names)
	require.Equal(t, "toYYYYMM(EventDate)", ColumnName(ct.PartitionBy))
	require.Nil(t, ct.PrimaryKey)
}

func TestParseCreateTableSingleKeyAndPrimaryKey(t *testing.T) {
	ct, err := ParseCreateTable(`CREATE TABLE t (a Int64, b String) ENGINE = MergeTree ORDER BY a PRIMARY KEY a`)
	require.NoError(t, err)
	require.Len(t, ct.OrderBy, 1)
	require.Len(t, ct.PrimaryKey, 1)

	ct, err = ParseCreateTable(`CREATE TABLE t (a Int64) ENGINE = MergeTree ORDER BY tuple()`)
	require.NoError(t, err)
	require.Empty(t, ct.OrderBy)
}

func TestParseSelectPrewhereWhere(t *testing.T) {
	sel, err := ParseSelect(`SELECT count() FROM hits PREWHERE CounterID = 34 WHERE URL LIKE 'http://%' LIMIT 10`)
	require.NoError(t, err)
	require.Equal(t, "hits", sel.From)
	require.Equal(t, "equals(CounterID, 34)", ColumnName(sel.Prewhere))
	require.Equal(t, "like(URL, 'http://%')", ColumnName(sel.Where))
	require.NotNil(t, sel.Limit)
	require.EqualValues(t, 10, *sel.Limit)
	require.Equal(t,
		"SELECT count() FROM hits PREWHERE CounterID = 34 WHERE URL LIKE 'http://%' LIMIT 10",
		SelectToSQL(sel))
}

func TestParseExpressionCanonicalNames(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"a = 5", "equals(a, 5)"},
		{"5 < a", "less(5, a)"},
		{"a <> 'x'", "notEquals(a, 'x')"},
		{"a == 1", "equals(a, 1)"},
		{"a IN (1, 2, 3)", "in(a, tuple(1, 2, 3))"},
		{"a IN (7)", "in(a, tuple(7))"},
		{"a IN ids", "in(a, ids)"},
		{"a NOT IN (1, 2)", "notIn(a, tuple(1, 2))"},
		{"s NOT LIKE 'ab%'", "notLike(s, 'ab%')"},
		{"NOT a > 1 AND b <= 2", "and(not(greater(a, 1)), lessOrEquals(b, 2))"},
		{"a = 1 OR b = 2 AND c = 3", "or(equals(a, 1), and(equals(b, 2), equals(c, 3)))"},
		{"a BETWEEN 1 AND 10", "and(greaterOrEquals(a, 1), lessOrEquals(a, 10))"},
		{"-a > -5", "greater(negate(a), -5)"},
		{"a-5 > 0", "greater(minus(a, 5), 0)"},
		{"x IS_NULL_FREE", ""},
		{"AND(a, b)", "and(a, b)"},
		{"and(a = 1, b = 2, a = 3)", "and(equals(a, 1), equals(b, 2), equals(a, 3))"},
		{"or(a = 1, a = 2)", "or(equals(a, 1), equals(a, 2))"},
		{"and", ""},
		{"indexhint(a = 1)", "indexHint(equals(a, 1))"},
		{"toYYYYMM(d) >= 202401", "greaterOrEquals(toYYYYMM(d), 202401)"},
		{"a = NULL", "equals(a, NULL)"},
		{"a = 18446744073709551615", "equals(a, 18446744073709551615)"},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			expr, err := ParseExpression(tt.sql)
			if tt.want == "" {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, ColumnName(expr))
		})
	}
}

func TestLexerEscapesKeepBackslash(t *testing.T) {
	expr, err := ParseExpression(`s LIKE 'a\_b%'`)
	require.NoError(t, err)
	_, args, ok := AsFunction(expr)
	require.True(t, ok)
	require.Equal(t, `a\_b%`, args[1].(*LiteralExpr).Value)

	expr, err = ParseExpression(`s = 'it\'s'`)
	require.NoError(t, err)
	_, args, _ = AsFunction(expr)
	require.Equal(t, "it's", args[1].(*LiteralExpr).Value)
}

func TestExtractColumnRefs(t *testing.T) {
	expr, err := ParseExpression("a = 1 AND toYYYYMM(d) > 3 OR a IN (b, 2)")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "d", "b"}, ExtractColumnRefs(expr))
}

func TestParseErrors(t *testing.T) {
	for _, sql := range []string{
		"INSERT INTO t VALUES (1)",
		"SELECT a FROM t WHERE",
		"SELECT a FROM t WHERE a = 1 garbage",
		"CREATE TABLE t (a Int64) ENGINE = MergeTree ORDER BY",
	} {
		_, err := ParseSQL(sql)
		require.Error(t, err, sql)
	}
}
