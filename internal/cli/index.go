package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harshithgowdakt/granulekey/internal/compression"
	"github.com/harshithgowdakt/granulekey/internal/storage"
)

type indexOptions struct {
	Fixture string
	Out     string
	Codec   string
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &indexOptions{}
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Write the primary index files of a YAML fixture",
		Long: `Write the primary index of every part of a YAML table fixture to
<out>/<part>/primary.cidx as compressed blocks. The result can be read back
with --index-dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Fixture == "" || opts.Out == "" {
				return errors.New("--fixture and --out are required")
			}
			codec, err := compression.CodecByName(opts.Codec)
			if err != nil {
				return err
			}
			table, err := storage.LoadTable(opts.Fixture)
			if err != nil {
				return err
			}
			if err := table.WriteIndexes(opts.Out, codec); err != nil {
				return err
			}
			rootOpts.logger.Debug("primary indexes written",
				zap.String("dir", opts.Out), zap.String("codec", opts.Codec), zap.Int("parts", len(table.Parts)))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d part indexes to %s\n", len(table.Parts), opts.Out)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.Fixture, "fixture", "", "YAML table fixture")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output directory")
	cmd.Flags().StringVar(&opts.Codec, "codec", "lz4", "compression codec (lz4|none)")
	return cmd
}
