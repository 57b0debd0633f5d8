package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/harshithgowdakt/granulekey/internal/compression"
	"github.com/harshithgowdakt/granulekey/internal/storage"
	"github.com/harshithgowdakt/granulekey/internal/types"
)

type blockJSON struct {
	Offset           int    `json:"offset" yaml:"offset"`
	MethodByte       uint8  `json:"method_byte" yaml:"method_byte"`
	CompressedBytes  uint32 `json:"compressed_bytes_with_header" yaml:"compressed_bytes_with_header"`
	UncompressedSize uint32 `json:"uncompressed_bytes" yaml:"uncompressed_bytes"`
}

type markJSON struct {
	Mark int               `json:"mark" yaml:"mark"`
	Keys map[string]string `json:"keys" yaml:"keys"`
}

type partDumpJSON struct {
	Part         string       `json:"part" yaml:"part"`
	FileSize     int          `json:"file_size" yaml:"file_size"`
	Blocks       []blockJSON  `json:"blocks" yaml:"blocks"`
	KeyColumns   []string     `json:"key_columns" yaml:"key_columns"`
	KeyTypes     []string     `json:"key_types" yaml:"key_types"`
	HasFinalMark bool         `json:"has_final_mark" yaml:"has_final_mark"`
	Granules     int          `json:"granules" yaml:"granules"`
	Marks        []markJSON   `json:"marks" yaml:"marks"`
	MinMax       []minmaxJSON `json:"minmax_idx,omitempty" yaml:"minmax_idx,omitempty"`
}

type minmaxJSON struct {
	Column string `json:"column" yaml:"column"`
	Min    string `json:"min" yaml:"min"`
	Max    string `json:"max" yaml:"max"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	var partName string
	cmd := &cobra.Command{
		Use:   "dump <index-dir>",
		Short: "Dump the primary index files written by 'keycond index'",
		Long: `Print the compressed block layout and the decoded marks of the
primary index file of each part in a directory, or of a single part.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parts, err := partNames(args[0], partName)
			if err != nil {
				return err
			}
			out := make([]partDumpJSON, 0, len(parts))
			for _, name := range parts {
				d, err := dumpPart(filepath.Join(args[0], name))
				if err != nil {
					return errors.Wrapf(err, "part %s", name)
				}
				d.Part = name
				out = append(out, d)
			}
			return writeDump(cmd.OutOrStdout(), rootOpts.Format, out)
		},
	}
	cmd.Flags().StringVar(&partName, "part", "", "part directory name (e.g. 202402_2_2_0)")
	return cmd
}

func partNames(dir, only string) ([]string, error) {
	if only != "" {
		if _, err := storage.ParsePartInfo(only); err != nil {
			return nil, err
		}
		return []string{only}, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", dir)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := storage.ParsePartInfo(e.Name()); err == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func dumpPart(partDir string) (partDumpJSON, error) {
	path := filepath.Join(partDir, storage.PrimaryIndexFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return partDumpJSON{}, errors.Wrapf(err, "reading %s", path)
	}
	blocks, err := compression.ScanBlocks(data)
	if err != nil {
		return partDumpJSON{}, err
	}
	idx, err := storage.ReadPrimaryIndex(path)
	if err != nil {
		return partDumpJSON{}, err
	}

	d := partDumpJSON{
		FileSize:     len(data),
		KeyColumns:   idx.KeyColumns,
		HasFinalMark: idx.HasFinalMark,
		Granules:     idx.GranuleCount(),
	}
	for _, b := range blocks {
		d.Blocks = append(d.Blocks, blockJSON{
			Offset:           b.Offset,
			MethodByte:       b.Method,
			CompressedBytes:  b.CompressedSize,
			UncompressedSize: b.UncompressedSize,
		})
	}
	for _, dt := range idx.KeyTypes {
		d.KeyTypes = append(d.KeyTypes, dt.Name())
	}
	for i, mark := range idx.Marks {
		keys := make(map[string]string, len(mark))
		for j, v := range mark {
			keys[idx.KeyColumns[j]] = v.String()
		}
		d.Marks = append(d.Marks, markJSON{Mark: i, Keys: keys})
	}

	files, err := filepath.Glob(filepath.Join(partDir, storage.MinMaxFileName("*")))
	if err != nil {
		return partDumpJSON{}, errors.WithStack(err)
	}
	for _, f := range files {
		col := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(f), "minmax_"), ".idx")
		mm, err := storage.ReadMinMaxIndex(f, col, types.TypeUnknown)
		if err != nil {
			return partDumpJSON{}, err
		}
		d.MinMax = append(d.MinMax, minmaxJSON{Column: col, Min: mm.Min.String(), Max: mm.Max.String()})
	}
	return d, nil
}

func writeDump(w io.Writer, format string, parts []partDumpJSON) error {
	switch format {
	case "yaml":
		return writeYAML(w, parts)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(parts)
	}
	for _, p := range parts {
		fmt.Fprintf(w, "%s\t%d bytes\t%d blocks\t%d marks\t%d granules\n",
			p.Part, p.FileSize, len(p.Blocks), len(p.Marks), p.Granules)
	}
	return nil
}
