package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/harshithgowdakt/granulekey/internal/server"
	"github.com/harshithgowdakt/granulekey/internal/storage"
)

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &tableOptions{}
	cmd := &cobra.Command{
		Use:   "select <query>",
		Short: "Print the mark ranges each part must read for a query",
		Long: `Run partition and primary key analysis for a SELECT statement over the
parts of a table and print, per surviving part, the mark ranges that may
contain matching rows.`,
		Example: `  keycond select --fixture hits.yaml "SELECT count() FROM hits WHERE CounterID = 34"
  keycond select --index-dir ./idx --schema "$(cat hits.sql)" -f json "SELECT ..."`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.load()
			if err != nil {
				return err
			}
			return runSelect(cmd, rootOpts, table, args[0], cmd.OutOrStdout())
		},
	}
	opts.register(cmd.Flags())
	return cmd
}

func runSelect(cmd *cobra.Command, rootOpts *RootOptions, table *storage.Table, query string, w io.Writer) error {
	info, err := storage.ParseQuery(query)
	if err != nil {
		return err
	}
	selector := storage.NewSelector(rootOpts.settings, storage.WithLogger(rootOpts.logger))
	sels, counters, err := selector.FilterParts(cmd.Context(), info, table.Schema, table.Parts)
	if err != nil {
		return err
	}
	return server.FormatSelections(w, sels, counters, rootOpts.outputFormat())
}
