package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/harshithgowdakt/granulekey/internal/config"
	"github.com/harshithgowdakt/granulekey/internal/server"
	"github.com/harshithgowdakt/granulekey/internal/storage"
)

const hitsFixture = `
schema: |
  CREATE TABLE hits (CounterID UInt32, EventDate Date, URL String)
  ENGINE = MergeTree PARTITION BY toYYYYMM(EventDate) ORDER BY (CounterID, EventDate)
parts:
  - name: 202401_1_1_0
    minmax: {EventDate: ["2024-01-01", "2024-01-31"]}
    marks: [[1, "2024-01-01"], [34, "2024-01-05"], [34, "2024-01-20"], [90, "2024-01-02"]]
  - name: 202402_2_2_0
    minmax: {EventDate: ["2024-02-01", "2024-02-29"]}
    marks: [[1, "2024-02-01"], [34, "2024-02-03"], [34, "2024-02-20"], [90, "2024-02-02"]]
`

const pruningQuery = "SELECT count() FROM hits WHERE EventDate >= '2024-02-01' AND CounterID = 34"

func setupTestServer(t *testing.T) http.Handler {
	t.Helper()
	table, err := storage.ParseTable([]byte(hitsFixture))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	selector := storage.NewSelector(config.DefaultSettings(), storage.WithMetrics(storage.NewMetrics(reg)))
	return server.NewServer(":0", table, selector, reg, nil).Router()
}

func do(t *testing.T, h http.Handler, req *http.Request) (int, string) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func doQuery(t *testing.T, h http.Handler, path, query string) string {
	t.Helper()
	code, body := do(t, h, httptest.NewRequest(http.MethodPost, path, strings.NewReader(query)))
	require.Equal(t, http.StatusOK, code, body)
	return body
}

func TestHTTPSelect(t *testing.T) {
	h := setupTestServer(t)
	resp := doQuery(t, h, "/select", pruningQuery)
	require.Equal(t, "part\tranges\tgranules\n202402_2_2_0\t[0, 3)\t3\n", resp)
}

func TestHTTPSelectCSV(t *testing.T) {
	h := setupTestServer(t)
	resp := doQuery(t, h, "/select?format=csv", "SELECT 1 FROM hits WHERE CounterID IN (1, 90)")
	require.Equal(t, strings.Join([]string{
		"part,ranges,granules",
		`202401_1_1_0,"[0, 1), [2, 4)",3`,
		`202402_2_2_0,"[0, 1), [2, 4)",3`,
		"",
	}, "\n"), resp)
}

func TestHTTPSelectJSON(t *testing.T) {
	h := setupTestServer(t)
	resp := doQuery(t, h, "/select?format=JSON", pruningQuery)

	var result struct {
		Parts []struct {
			Part     string   `json:"part"`
			Ranges   [][2]int `json:"ranges"`
			Granules int      `json:"granules"`
		} `json:"parts"`
		Counters map[string]int `json:"counters"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp), &result))
	require.Len(t, result.Parts, 1)
	require.Equal(t, "202402_2_2_0", result.Parts[0].Part)
	require.Equal(t, [][2]int{{0, 3}}, result.Parts[0].Ranges)
	require.Equal(t, map[string]int{
		"initial_parts":             2,
		"parts_after_partition_key": 1,
		"parts_after_primary_key":   1,
		"initial_granules":          8,
		"selected_granules":         3,
	}, result.Counters)
}

func TestHTTPExplain(t *testing.T) {
	h := setupTestServer(t)

	q := url.Values{"query": {"SELECT * FROM hits WHERE CounterID = 34"}}
	code, resp := do(t, h, httptest.NewRequest(http.MethodGet, "/explain?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "condition\t(column 0 in [34, 34])\nalways_unknown_or_true\tfalse\n", resp)

	resp = doQuery(t, h, "/explain", "SELECT * FROM hits WHERE URL = 'x'")
	require.Equal(t, "condition\tunknown\nalways_unknown_or_true\ttrue\n", resp)
}

func TestHTTPBadRequests(t *testing.T) {
	h := setupTestServer(t)

	code, _ := do(t, h, httptest.NewRequest(http.MethodPost, "/select", strings.NewReader("")))
	require.Equal(t, http.StatusBadRequest, code)

	code, body := do(t, h, httptest.NewRequest(http.MethodPost, "/explain", strings.NewReader("SELECT a FROM hits WHERE (")))
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, body, "parse error")
}

func TestHTTPPing(t *testing.T) {
	h := setupTestServer(t)
	code, body := do(t, h, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Ok.\n", body)
}

func TestHTTPMetrics(t *testing.T) {
	h := setupTestServer(t)
	doQuery(t, h, "/select", pruningQuery)

	code, body := do(t, h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "granulekey_marks_considered_total 4")
	require.Contains(t, body, `granulekey_parts_pruned_total{index="partition"} 1`)
}

func TestParseFormat(t *testing.T) {
	require.Equal(t, server.FormatJSON, server.ParseFormat("json"))
	require.Equal(t, server.FormatYAML, server.ParseFormat("YAML"))
	require.Equal(t, server.FormatCSV, server.ParseFormat("Csv"))
	require.Equal(t, server.FormatTabSeparated, server.ParseFormat(""))
}
