package storage

import (
	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/granulekey/internal/functions"
	"github.com/harshithgowdakt/granulekey/internal/parser"
	"github.com/harshithgowdakt/granulekey/internal/types"
)

// ColumnDef defines a column in a table schema.
type ColumnDef struct {
	Name     string
	DataType types.DataType
}

// TableSchema describes the columns and keys of a MergeTree table.
type TableSchema struct {
	Name    string
	Columns []ColumnDef
	// PrimaryKey holds the canonical names of the primary key expressions:
	// PRIMARY KEY when given, ORDER BY otherwise.
	PrimaryKey  []string
	PartitionBy string // canonical partition expression, or empty
	GranuleSize int    // rows per granule, default 8192
}

// ParseTableSchema parses a CREATE TABLE statement into a schema.
func ParseTableSchema(sql string) (*TableSchema, error) {
	stmt, err := parser.ParseCreateTable(sql)
	if err != nil {
		return nil, errors.Wrap(err, "parsing table schema")
	}
	return NewTableSchema(stmt)
}

// NewTableSchema builds a schema from a parsed CREATE TABLE.
func NewTableSchema(stmt *parser.CreateTableStmt) (*TableSchema, error) {
	s := &TableSchema{Name: stmt.TableName}
	for _, c := range stmt.Columns {
		dt, err := types.ParseDataType(c.TypeName)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", c.Name)
		}
		s.Columns = append(s.Columns, ColumnDef{Name: c.Name, DataType: dt})
	}

	key := stmt.OrderBy
	if stmt.PrimaryKey != nil {
		if len(stmt.PrimaryKey) > len(stmt.OrderBy) && len(stmt.OrderBy) > 0 {
			return nil, errors.New("primary key must be a prefix of the sorting key")
		}
		for i, e := range stmt.PrimaryKey {
			if i < len(stmt.OrderBy) && parser.ColumnName(e) != parser.ColumnName(stmt.OrderBy[i]) {
				return nil, errors.Newf("primary key must be a prefix of the sorting key: %s differs from %s",
					parser.ColumnName(e), parser.ColumnName(stmt.OrderBy[i]))
			}
		}
		key = stmt.PrimaryKey
	}
	for _, e := range key {
		s.PrimaryKey = append(s.PrimaryKey, parser.ColumnName(e))
	}
	if stmt.PartitionBy != nil {
		s.PartitionBy = parser.ColumnName(stmt.PartitionBy)
	}
	return s, nil
}

// GetColumnDef returns the ColumnDef for a column name.
func (s *TableSchema) GetColumnDef(name string) (ColumnDef, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// ColumnNames returns all column names in order.
func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// EffectiveGranuleSize returns the granule size, defaulting to 8192.
func (s *TableSchema) EffectiveGranuleSize() int {
	if s.GranuleSize <= 0 {
		return DefaultGranuleSize
	}
	return s.GranuleSize
}

// SortDescription returns the primary key expressions with their result
// types. Expressions whose type cannot be derived get TypeUnknown.
func (s *TableSchema) SortDescription() SortDescription {
	desc := SortDescription{
		Columns: s.PrimaryKey,
		Types:   make([]types.DataType, len(s.PrimaryKey)),
	}
	for i, name := range s.PrimaryKey {
		desc.Types[i] = types.TypeUnknown
		if expr, err := parser.ParseExpression(name); err == nil {
			desc.Types[i] = s.expressionType(expr)
		}
	}
	return desc
}

// PartitionColumns returns the columns referenced by the partition key with
// their types. Unknown columns are skipped.
func (s *TableSchema) PartitionColumns() []ColumnDef {
	if s.PartitionBy == "" {
		return nil
	}
	expr, err := parser.ParseExpression(s.PartitionBy)
	if err != nil {
		return nil
	}
	var cols []ColumnDef
	for _, name := range parser.ExtractColumnRefs(expr) {
		if def, ok := s.GetColumnDef(name); ok {
			cols = append(cols, def)
		}
	}
	return cols
}

// expressionType derives the type of a column or of a chain of single
// argument functions over a column. Columns may be named by expression.
func (s *TableSchema) expressionType(expr parser.Expression) types.DataType {
	if def, ok := s.GetColumnDef(parser.ColumnName(expr)); ok {
		return def.DataType
	}
	if _, ok := expr.(*parser.ColumnRef); ok {
		return types.TypeUnknown
	}
	name, args, ok := parser.AsFunction(expr)
	if !ok || len(args) != 1 {
		return types.TypeUnknown
	}
	fn, ok := functions.Default().TryGet(name)
	if !ok {
		return types.TypeUnknown
	}
	inner := s.expressionType(args[0])
	if inner == types.TypeUnknown {
		return inner
	}
	dt, err := fn.ReturnType([]types.DataType{inner})
	if err != nil {
		return types.TypeUnknown
	}
	return dt
}
