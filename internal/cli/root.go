package cli

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/harshithgowdakt/granulekey/internal/config"
	"github.com/harshithgowdakt/granulekey/internal/logutil"
	"github.com/harshithgowdakt/granulekey/internal/server"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile             string
	LogLevel               string
	CoarseIndexGranularity int
	MinMarksForSeek        int
	Parallelism            int
	Format                 string // "tsv" | "csv" | "json" | "yaml"

	// Resolved in PersistentPreRunE.
	settings config.Settings
	logger   *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"tsv", "csv", "json", "yaml"}

// NewRootCommand creates the root command for the keycond CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{logger: zap.NewNop()}
	defaults := config.DefaultSettings()

	cmd := &cobra.Command{
		Use:   "keycond",
		Short: "keycond - primary key analysis for MergeTree tables",
		Long: `Compile WHERE/PREWHERE predicates into primary key conditions and
select the granules of MergeTree parts that may contain matching rows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.logger.Sync()
		},
	}

	// Global flags
	fs := cmd.PersistentFlags()
	fs.StringVarP(&opts.ConfigFile, "config", "c", "", "settings file (toml)")
	fs.StringVar(&opts.LogLevel, "log-level", defaults.LogLevel, "log level (debug|info|warn|error)")
	fs.IntVar(&opts.CoarseIndexGranularity, "coarse-index-granularity", defaults.CoarseIndexGranularity,
		"pieces a suspicious mark range is split into")
	fs.IntVar(&opts.MinMarksForSeek, "min-marks-for-seek", defaults.MinMarksForSeek,
		"largest gap of marks read through instead of seeking")
	fs.IntVar(&opts.Parallelism, "parallelism", defaults.Parallelism, "parts analyzed concurrently")
	fs.StringVarP(&opts.Format, "format", "f", "tsv", "output format (tsv|csv|json|yaml)")

	// Add subcommands
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// resolve loads the settings file, applies flags given on the command line
// on top of it and builds the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return errors.Newf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}

	settings := config.DefaultSettings()
	if o.ConfigFile != "" {
		var err error
		if settings, err = config.Load(o.ConfigFile); err != nil {
			return err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		settings.LogLevel = o.LogLevel
	}
	if flags.Changed("coarse-index-granularity") {
		settings.CoarseIndexGranularity = o.CoarseIndexGranularity
	}
	if flags.Changed("min-marks-for-seek") {
		settings.MinMarksForSeek = o.MinMarksForSeek
	}
	if flags.Changed("parallelism") {
		settings.Parallelism = o.Parallelism
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	logger, err := logutil.NewLogger(settings.LogLevel)
	if err != nil {
		return err
	}
	o.settings = settings
	o.logger = logger
	return nil
}

func (o *RootOptions) outputFormat() server.OutputFormat {
	if o.Format == "tsv" {
		return server.FormatTabSeparated
	}
	return server.ParseFormat(o.Format)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
