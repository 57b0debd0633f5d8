package server

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harshithgowdakt/granulekey/internal/storage"
)

// OutputFormat specifies the result format.
type OutputFormat string

const (
	FormatTabSeparated OutputFormat = "TabSeparated"
	FormatJSON         OutputFormat = "JSON"
	FormatCSV          OutputFormat = "CSV"
	FormatYAML         OutputFormat = "YAML"
)

// ParseFormat parses a format string (case-insensitive).
func ParseFormat(s string) OutputFormat {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "csv":
		return FormatCSV
	case "yaml":
		return FormatYAML
	default:
		return FormatTabSeparated
	}
}

// ContentType returns the MIME type of the format.
func (f OutputFormat) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/tab-separated-values"
	}
}

type selectionResult struct {
	Parts    []partResult   `json:"parts" yaml:"parts"`
	Counters countersResult `json:"counters" yaml:"counters"`
}

type partResult struct {
	Part     string   `json:"part" yaml:"part"`
	Ranges   [][2]int `json:"ranges" yaml:"ranges,flow"`
	Granules int      `json:"granules" yaml:"granules"`
}

type countersResult struct {
	InitialParts           int `json:"initial_parts" yaml:"initial_parts"`
	PartsAfterPartitionKey int `json:"parts_after_partition_key" yaml:"parts_after_partition_key"`
	PartsAfterPrimaryKey   int `json:"parts_after_primary_key" yaml:"parts_after_primary_key"`
	InitialGranules        int `json:"initial_granules" yaml:"initial_granules"`
	SelectedGranules       int `json:"selected_granules" yaml:"selected_granules"`
}

func newSelectionResult(sels []storage.PartSelection, c storage.PartFilterCounters) selectionResult {
	res := selectionResult{
		Parts: make([]partResult, 0, len(sels)),
		Counters: countersResult{
			InitialParts:           c.InitialParts,
			PartsAfterPartitionKey: c.PartsAfterPartitionKey,
			PartsAfterPrimaryKey:   c.PartsAfterPrimaryKey,
			InitialGranules:        c.InitialGranules,
			SelectedGranules:       c.SelectedGranules,
		},
	}
	for _, sel := range sels {
		p := partResult{Part: sel.Part.Info.DirName(), Granules: sel.Ranges.NumMarks()}
		for _, r := range sel.Ranges {
			p.Ranges = append(p.Ranges, [2]int{r.Begin, r.End})
		}
		res.Parts = append(res.Parts, p)
	}
	return res
}

// FormatSelections writes the mark ranges selected for each part in the
// specified format. Text formats carry one row per part; JSON and YAML also
// carry the filter counters.
func FormatSelections(w io.Writer, sels []storage.PartSelection, counters storage.PartFilterCounters, format OutputFormat) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newSelectionResult(sels, counters))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newSelectionResult(sels, counters)); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return formatDelimited(w, sels, ",", quoteCSV)
	default:
		return formatDelimited(w, sels, "\t", func(vals []string) []string { return vals })
	}
}

func formatDelimited(w io.Writer, sels []storage.PartSelection, sep string, quote func([]string) []string) error {
	if _, err := fmt.Fprintln(w, strings.Join(quote([]string{"part", "ranges", "granules"}), sep)); err != nil {
		return err
	}
	for _, sel := range sels {
		row := []string{sel.Part.Info.DirName(), sel.Ranges.String(), strconv.Itoa(sel.Ranges.NumMarks())}
		if _, err := fmt.Fprintln(w, strings.Join(quote(row), sep)); err != nil {
			return err
		}
	}
	return nil
}

func quoteCSV(vals []string) []string {
	result := make([]string, len(vals))
	for i, v := range vals {
		if strings.ContainsAny(v, ",\"\n") {
			result[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
		} else {
			result[i] = v
		}
	}
	return result
}
