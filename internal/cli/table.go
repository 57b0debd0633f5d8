package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"

	"github.com/harshithgowdakt/granulekey/internal/storage"
)

// tableOptions selects where a command reads the table from: a YAML fixture,
// or a CREATE TABLE statement plus an optional directory of index files.
type tableOptions struct {
	Fixture  string
	IndexDir string
	Schema   string
}

func (o *tableOptions) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.Fixture, "fixture", "", "YAML table fixture")
	fs.StringVar(&o.IndexDir, "index-dir", "", "directory of part index files written by 'keycond index'")
	fs.StringVar(&o.Schema, "schema", "", "CREATE TABLE statement (required with --index-dir)")
}

func (o *tableOptions) given() bool {
	return o.Fixture != "" || o.IndexDir != "" || o.Schema != ""
}

func (o *tableOptions) load() (*storage.Table, error) {
	switch {
	case o.Fixture != "" && (o.IndexDir != "" || o.Schema != ""):
		return nil, errors.New("--fixture cannot be combined with --index-dir or --schema")
	case o.Fixture != "":
		return storage.LoadTable(o.Fixture)
	case o.Schema == "":
		return nil, errors.New("one of --fixture or --schema is required")
	}

	schema, err := storage.ParseTableSchema(o.Schema)
	if err != nil {
		return nil, err
	}
	if o.IndexDir == "" {
		return &storage.Table{Schema: schema}, nil
	}
	return storage.ReadIndexes(o.IndexDir, schema)
}
