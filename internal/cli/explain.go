package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/harshithgowdakt/granulekey/internal/storage"
	"github.com/harshithgowdakt/granulekey/internal/types"
)

// ExplainResult is the structured output of explain.
type ExplainResult struct {
	Query               string   `json:"query" yaml:"query"`
	Key                 []string `json:"key" yaml:"key"`
	Condition           string   `json:"condition" yaml:"condition"`
	AlwaysUnknownOrTrue bool     `json:"always_unknown_or_true" yaml:"always_unknown_or_true"`
}

type explainOptions struct {
	table tableOptions
	Key   []string
	Types []string
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &explainOptions{}
	cmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Print the primary key condition compiled from a query",
		Long: `Compile the WHERE and PREWHERE clauses of a SELECT statement against a
sorting key and print the resulting condition in reverse Polish notation.

The key is taken from --key (with optional --types) or from the table given
by --fixture or --schema.`,
		Example: `  keycond explain --key CounterID,EventDate --types UInt32,Date \
    "SELECT * FROM hits WHERE CounterID = 34 AND EventDate >= '2024-02-01'"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, opts, args[0], cmd.OutOrStdout())
		},
	}
	opts.table.register(cmd.Flags())
	cmd.Flags().StringSliceVarP(&opts.Key, "key", "k", nil, "sorting key expressions")
	cmd.Flags().StringSliceVarP(&opts.Types, "types", "t", nil, "types of the sorting key expressions")
	return cmd
}

func (o *explainOptions) sortDescription() (storage.SortDescription, error) {
	if len(o.Key) > 0 {
		if o.table.given() {
			return storage.SortDescription{}, errors.New("--key cannot be combined with a table")
		}
		desc := storage.SortDescription{Columns: o.Key}
		if len(o.Types) > 0 {
			if len(o.Types) != len(o.Key) {
				return storage.SortDescription{}, errors.Newf("%d types given for %d key columns", len(o.Types), len(o.Key))
			}
			dts, err := types.ParseDataTypes(o.Types)
			if err != nil {
				return storage.SortDescription{}, err
			}
			desc.Types = dts
		}
		return desc, nil
	}
	if len(o.Types) > 0 {
		return storage.SortDescription{}, errors.New("--types requires --key")
	}
	table, err := o.table.load()
	if err != nil {
		return storage.SortDescription{}, err
	}
	return table.Schema.SortDescription(), nil
}

func runExplain(rootOpts *RootOptions, opts *explainOptions, query string, w io.Writer) error {
	desc, err := opts.sortDescription()
	if err != nil {
		return err
	}
	info, err := storage.ParseQuery(query)
	if err != nil {
		return err
	}
	kc := storage.NewKeyCondition(info, desc)
	useless, err := kc.AlwaysUnknownOrTrue()
	if err != nil {
		return err
	}

	res := ExplainResult{Query: info.SQL, Key: desc.Columns, Condition: kc.String(), AlwaysUnknownOrTrue: useless}
	switch rootOpts.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		return writeYAML(w, res)
	default:
		_, err := fmt.Fprintf(w, "key\t%s\ncondition\t%s\nalways_unknown_or_true\t%t\n",
			strings.Join(res.Key, ", "), res.Condition, res.AlwaysUnknownOrTrue)
		return err
	}
}
