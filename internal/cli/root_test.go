package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hitsFixture = filepath.Join("..", "storage", "testdata", "hits.yaml")

const hitsSchema = `CREATE TABLE hits (CounterID UInt32, EventDate Date, UserID UInt64, URL String)
ENGINE = MergeTree PARTITION BY toYYYYMM(EventDate) ORDER BY (CounterID, EventDate)`

const pruningQuery = "SELECT count() FROM hits WHERE EventDate >= '2024-02-01' AND CounterID = 34"

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err)
	return out
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "keycond", cmd.Use)

	for _, name := range []string{"explain", "select", "index", "dump", "serve"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	for name, def := range map[string]string{
		"coarse-index-granularity": "8",
		"min-marks-for-seek":       "0",
		"parallelism":              "4",
		"log-level":                "info",
		"format":                   "tsv",
	} {
		f := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, def, f.DefValue, name)
	}
}

func TestExplainWithKey(t *testing.T) {
	out := mustRun(t, "explain", "--key", "a,b", "--types", "Int64,Int64", "SELECT * FROM t WHERE a = 5 AND b > 1")
	assert.Equal(t, "key\ta, b\ncondition\t(column 0 in [5, 5]), (column 1 in (1, +inf)), and\nalways_unknown_or_true\tfalse\n", out)

	out = mustRun(t, "explain", "--key", "a", "SELECT * FROM t WHERE c = 1")
	assert.Equal(t, "key\ta\ncondition\tunknown\nalways_unknown_or_true\ttrue\n", out)
}

func TestExplainFromFixtureJSON(t *testing.T) {
	out := mustRun(t, "explain", "--fixture", hitsFixture, "-f", "json", pruningQuery)

	var res ExplainResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Contains(t, res.Query, "FROM hits")
	assert.Equal(t, []string{"CounterID", "EventDate"}, res.Key)
	assert.Equal(t, "(column 1 in [19754, +inf)), (column 0 in [34, 34]), and", res.Condition)
	assert.False(t, res.AlwaysUnknownOrTrue)
}

func TestExplainErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"types mismatch", []string{"explain", "--key", "a,b", "--types", "Int64", "SELECT 1 FROM t"}},
		{"types without key", []string{"explain", "--types", "Int64", "SELECT 1 FROM t"}},
		{"key and table", []string{"explain", "--key", "a", "--fixture", hitsFixture, "SELECT 1 FROM t"}},
		{"no key", []string{"explain", "SELECT 1 FROM t"}},
		{"bad type", []string{"explain", "--key", "a", "--types", "Decimal", "SELECT 1 FROM t"}},
		{"bad query", []string{"explain", "--key", "a", "SELECT a FROM t WHERE ("}},
		{"bad format", []string{"explain", "--key", "a", "-f", "xml", "SELECT 1 FROM t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestSelectFixture(t *testing.T) {
	out := mustRun(t, "select", "--fixture", hitsFixture, pruningQuery)
	assert.Equal(t, "part\tranges\tgranules\n202402_2_2_0\t[0, 3)\t3\n", out)
}

func TestSelectSettingsOverrides(t *testing.T) {
	const query = "SELECT 1 FROM hits WHERE CounterID IN (1, 90)"
	conf := filepath.Join(t.TempDir(), "keycond.toml")
	require.NoError(t, os.WriteFile(conf, []byte("min-marks-for-seek = 1\n"), 0o644))

	out := mustRun(t, "select", "--fixture", hitsFixture, query)
	assert.Equal(t, "part\tranges\tgranules\n"+
		"202401_1_1_0\t[0, 1), [2, 4)\t3\n"+
		"202402_2_2_0\t[0, 1), [2, 4)\t3\n", out)

	out = mustRun(t, "--config", conf, "select", "--fixture", hitsFixture, query)
	assert.Equal(t, "part\tranges\tgranules\n"+
		"202401_1_1_0\t[0, 4)\t4\n"+
		"202402_2_2_0\t[0, 4)\t4\n", out)

	out = mustRun(t, "--config", conf, "--min-marks-for-seek", "0", "select", "--fixture", hitsFixture, query)
	assert.Contains(t, out, "[0, 1), [2, 4)")

	_, err := run(t, "--parallelism", "0", "select", "--fixture", hitsFixture, query)
	require.Error(t, err)
	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "select", "--fixture", hitsFixture, query)
	require.Error(t, err)
}

func TestIndexSelectAndDump(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, "index", "--fixture", hitsFixture, "--out", dir)
	assert.Equal(t, "wrote 2 part indexes to "+dir+"\n", out)

	out = mustRun(t, "select", "--index-dir", dir, "--schema", hitsSchema, pruningQuery)
	assert.Equal(t, "part\tranges\tgranules\n202402_2_2_0\t[0, 3)\t3\n", out)

	// Without the partition key the first part is narrowed by the primary key only.
	bare := `CREATE TABLE hits (CounterID UInt32, EventDate Date) ENGINE = MergeTree ORDER BY (CounterID, EventDate)`
	out = mustRun(t, "select", "--index-dir", dir, "--schema", bare, pruningQuery)
	assert.Equal(t, "part\tranges\tgranules\n"+
		"202401_1_1_0\t[2, 3)\t1\n"+
		"202402_2_2_0\t[0, 3)\t3\n", out)

	out = mustRun(t, "dump", dir, "-f", "json")
	var parts []partDumpJSON
	require.NoError(t, json.Unmarshal([]byte(out), &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, "202401_1_1_0", parts[0].Part)
	assert.Equal(t, []string{"CounterID", "EventDate"}, parts[0].KeyColumns)
	assert.Equal(t, []string{"UInt32", "Date"}, parts[0].KeyTypes)
	assert.Equal(t, 4, parts[0].Granules)
	require.Len(t, parts[0].Marks, 4)
	assert.Equal(t, "34", parts[0].Marks[1].Keys["CounterID"])
	require.Len(t, parts[0].Blocks, 1)
	assert.Equal(t, 0, parts[0].Blocks[0].Offset)
	assert.Equal(t, []minmaxJSON{{Column: "EventDate", Min: "19723", Max: "19753"}}, parts[0].MinMax)

	out = mustRun(t, "dump", dir, "--part", "202402_2_2_0")
	assert.Regexp(t, `^202402_2_2_0\t\d+ bytes\t1 blocks\t4 marks\t4 granules\n$`, out)

	_, err := run(t, "dump", dir, "--part", "bogus")
	require.Error(t, err)
	_, err = run(t, "index", "--fixture", hitsFixture, "--out", dir, "--codec", "zstd")
	require.Error(t, err)
	_, err = run(t, "select", "--index-dir", dir, pruningQuery)
	require.Error(t, err)
}
