package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/harshithgowdakt/granulekey/internal/compression"
	"github.com/harshithgowdakt/granulekey/internal/parser"
	"github.com/harshithgowdakt/granulekey/internal/types"
)

// Table is a schema together with the index metadata of its parts.
type Table struct {
	Schema *TableSchema
	Parts  []*Part
}

// tableFixture is the YAML form of a Table. Either schema (a CREATE TABLE
// statement) or key must be given.
type tableFixture struct {
	Schema      string          `yaml:"schema"`
	Key         []columnFixture `yaml:"key"`
	GranuleSize int             `yaml:"granule_size"`
	Parts       []partFixture   `yaml:"parts"`
}

type columnFixture struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// partFixture lists either the marks of the part or its sorted key rows, from
// which marks are sampled every granule_size rows.
type partFixture struct {
	Name      string                   `yaml:"name"`
	FinalMark bool                     `yaml:"final_mark"`
	Marks     [][]interface{}          `yaml:"marks"`
	Rows      [][]interface{}          `yaml:"rows"`
	MinMax    map[string][]interface{} `yaml:"minmax"`
}

// LoadTable reads a YAML table fixture.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return t, nil
}

// ParseTable decodes a YAML table fixture.
func ParseTable(data []byte) (*Table, error) {
	var fx tableFixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, errors.Wrap(err, "decoding fixture")
	}

	schema, err := fx.schema()
	if err != nil {
		return nil, err
	}
	schema.GranuleSize = fx.GranuleSize

	t := &Table{Schema: schema}
	for i := range fx.Parts {
		part, err := fx.Parts[i].build(schema)
		if err != nil {
			return nil, errors.Wrapf(err, "part %q", fx.Parts[i].Name)
		}
		t.Parts = append(t.Parts, part)
	}
	return t, nil
}

func (fx *tableFixture) schema() (*TableSchema, error) {
	if fx.Schema != "" {
		if len(fx.Key) > 0 {
			return nil, errors.New("fixture sets both schema and key")
		}
		return ParseTableSchema(fx.Schema)
	}
	if len(fx.Key) == 0 {
		return nil, errors.New("fixture needs a schema or a key")
	}
	s := &TableSchema{}
	for _, c := range fx.Key {
		expr, err := parser.ParseExpression(c.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", c.Name)
		}
		dt, err := types.ParseDataType(c.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", c.Name)
		}
		name := parser.ColumnName(expr)
		s.Columns = append(s.Columns, ColumnDef{Name: name, DataType: dt})
		s.PrimaryKey = append(s.PrimaryKey, name)
	}
	return s, nil
}

func (pf *partFixture) build(schema *TableSchema) (*Part, error) {
	info, err := ParsePartInfo(pf.Name)
	if err != nil {
		return nil, err
	}
	desc := schema.SortDescription()

	var idx *PrimaryIndex
	switch {
	case len(pf.Marks) > 0 && len(pf.Rows) > 0:
		return nil, errors.New("part sets both marks and rows")
	case len(pf.Rows) > 0:
		rows, err := convertTuples(pf.Rows, desc.Types)
		if err != nil {
			return nil, errors.Wrap(err, "rows")
		}
		idx, err = BuildPrimaryIndex(desc.Columns, desc.Types, rows, schema.EffectiveGranuleSize(), pf.FinalMark)
		if err != nil {
			return nil, err
		}
	default:
		marks, err := convertTuples(pf.Marks, desc.Types)
		if err != nil {
			return nil, errors.Wrap(err, "marks")
		}
		idx = &PrimaryIndex{
			KeyColumns:   desc.Columns,
			KeyTypes:     desc.Types,
			Marks:        marks,
			HasFinalMark: pf.FinalMark,
		}
		if err := idx.Validate(); err != nil {
			return nil, err
		}
	}

	part := &Part{Info: info, Index: idx}
	for _, col := range schema.PartitionColumns() {
		mm, ok, err := pf.minMax(col, schema, idx)
		if err != nil {
			return nil, errors.Wrapf(err, "minmax of %s", col.Name)
		}
		if ok {
			part.MinMax = append(part.MinMax, mm)
		}
	}
	return part, nil
}

// minMax takes the minmax index of a partition column from the fixture, or
// derives it from the key values when the column is part of the key.
func (pf *partFixture) minMax(col ColumnDef, schema *TableSchema, idx *PrimaryIndex) (MinMaxIndex, bool, error) {
	if bounds, ok := pf.MinMax[col.Name]; ok {
		if len(bounds) != 2 {
			return MinMaxIndex{}, false, errors.Newf("want [min, max], got %d values", len(bounds))
		}
		lo, err := convertValue(bounds[0], col.DataType)
		if err != nil {
			return MinMaxIndex{}, false, err
		}
		hi, err := convertValue(bounds[1], col.DataType)
		if err != nil {
			return MinMaxIndex{}, false, err
		}
		return MinMaxIndex{ColumnName: col.Name, DataType: col.DataType, Min: lo, Max: hi}, true, nil
	}

	keyIdx := -1
	for i, name := range schema.PrimaryKey {
		if name == col.Name {
			keyIdx = i
		}
	}
	if keyIdx < 0 || len(pf.Rows) == 0 {
		return MinMaxIndex{}, false, nil
	}
	values := make([]types.Field, 0, len(pf.Rows))
	for _, row := range pf.Rows {
		v, err := convertValue(row[keyIdx], col.DataType)
		if err != nil {
			return MinMaxIndex{}, false, err
		}
		values = append(values, v)
	}
	mm, ok := ComputeMinMax(col.Name, col.DataType, values)
	return mm, ok, nil
}

func convertTuples(tuples [][]interface{}, keyTypes []types.DataType) ([][]types.Field, error) {
	out := make([][]types.Field, len(tuples))
	for i, tuple := range tuples {
		if len(tuple) != len(keyTypes) {
			return nil, errors.Newf("tuple %d has %d values, want %d", i, len(tuple), len(keyTypes))
		}
		row := make([]types.Field, len(tuple))
		for k, v := range tuple {
			f, err := convertValue(v, keyTypes[k])
			if err != nil {
				return nil, errors.Wrapf(err, "tuple %d key %d", i, k)
			}
			row[k] = f
		}
		out[i] = row
	}
	return out, nil
}

// convertValue turns a decoded YAML scalar into a Field of type dt. The
// strings "-inf" and "+inf" stand for the infinite sentinels.
func convertValue(v interface{}, dt types.DataType) (types.Field, error) {
	switch x := v.(type) {
	case string:
		switch strings.ToLower(x) {
		case "-inf":
			return types.NegativeInfinity(), nil
		case "+inf", "inf":
			return types.PositiveInfinity(), nil
		}
	case time.Time:
		v = x.UTC().Format(types.DateTimeLayout)
	}
	f, ok := types.CoerceField(dt, types.FromValue(v))
	if !ok {
		return types.Field{}, errors.Newf("cannot use %v as %s", v, dt.Name())
	}
	return f, nil
}

// WriteIndexes stores the primary index of every part under
// dir/<part name>/primary.cidx.
func (t *Table) WriteIndexes(dir string, codec compression.Codec) error {
	for _, part := range t.Parts {
		partDir := filepath.Join(dir, part.Info.DirName())
		if err := os.MkdirAll(partDir, 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", partDir)
		}
		if err := WritePrimaryIndex(filepath.Join(partDir, PrimaryIndexFileName), part.Index, codec); err != nil {
			return err
		}
		for _, mm := range part.MinMax {
			if err := WriteMinMaxIndex(filepath.Join(partDir, MinMaxFileName(mm.ColumnName)), mm); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadIndexes loads the primary index of every part directory found in dir
// into a table with the given schema, together with the minmax indexes of the
// partition columns that were written.
func ReadIndexes(dir string, schema *TableSchema) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", dir)
	}
	t := &Table{Schema: schema}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := ParsePartInfo(e.Name())
		if err != nil {
			continue
		}
		partDir := filepath.Join(dir, e.Name())
		idx, err := ReadPrimaryIndex(filepath.Join(partDir, PrimaryIndexFileName))
		if err != nil {
			return nil, err
		}
		part := &Part{Info: info, Index: idx}
		for _, col := range schema.PartitionColumns() {
			path := filepath.Join(partDir, MinMaxFileName(col.Name))
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				continue
			}
			mm, err := ReadMinMaxIndex(path, col.Name, col.DataType)
			if err != nil {
				return nil, err
			}
			part.MinMax = append(part.MinMax, mm)
		}
		t.Parts = append(t.Parts, part)
	}
	return t, nil
}
