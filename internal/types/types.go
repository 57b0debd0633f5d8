package types

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// DataType represents a column data type.
type DataType uint8

const (
	TypeUInt8 DataType = iota
	TypeUInt16
	TypeUInt32
	TypeUInt64
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeDateTime // stored as uint32 unix timestamp
	TypeDate     // stored as uint16 days since epoch

	// TypeUnknown marks a type hint that could not be derived.
	TypeUnknown DataType = 0xFF
)

// TypeInfo holds metadata about a data type.
type TypeInfo struct {
	Type      DataType
	Name      string
	FixedSize int // bytes per value; 0 for variable-length (String)
}

var typeInfoList = []TypeInfo{
	{TypeUInt8, "UInt8", 1},
	{TypeUInt16, "UInt16", 2},
	{TypeUInt32, "UInt32", 4},
	{TypeUInt64, "UInt64", 8},
	{TypeInt8, "Int8", 1},
	{TypeInt16, "Int16", 2},
	{TypeInt32, "Int32", 4},
	{TypeInt64, "Int64", 8},
	{TypeFloat32, "Float32", 4},
	{TypeFloat64, "Float64", 8},
	{TypeString, "String", 0},
	{TypeDateTime, "DateTime", 4},
	{TypeDate, "Date", 2},
}

// TypeInfoMap maps DataType to its TypeInfo.
var TypeInfoMap map[DataType]TypeInfo

// typeNameMap maps lowercase type name to DataType for parsing.
var typeNameMap map[string]DataType

func init() {
	TypeInfoMap = make(map[DataType]TypeInfo, len(typeInfoList))
	typeNameMap = make(map[string]DataType, len(typeInfoList))
	for _, ti := range typeInfoList {
		TypeInfoMap[ti.Type] = ti
		typeNameMap[strings.ToLower(ti.Name)] = ti.Type
	}
}

// ParseDataType converts a type name string (case-insensitive) to DataType.
// LowCardinality(T) is accepted and resolves to T, since the wrapper does not
// change ordering.
func ParseDataType(name string) (DataType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(n, "lowcardinality(") && strings.HasSuffix(n, ")") {
		return ParseDataType(n[len("lowcardinality(") : len(n)-1])
	}
	dt, ok := typeNameMap[n]
	if !ok {
		return TypeUnknown, errors.Newf("unknown data type: %s", name)
	}
	return dt, nil
}

// ParseDataTypes parses a list of type names.
func ParseDataTypes(names []string) ([]DataType, error) {
	out := make([]DataType, len(names))
	for i, n := range names {
		dt, err := ParseDataType(n)
		if err != nil {
			return nil, err
		}
		out[i] = dt
	}
	return out, nil
}

// Name returns the string name of the DataType.
func (dt DataType) Name() string {
	if ti, ok := TypeInfoMap[dt]; ok {
		return ti.Name
	}
	return "Unknown"
}

func (dt DataType) String() string { return dt.Name() }

// FixedSize returns the byte size for fixed-size types, 0 for variable-length.
func (dt DataType) FixedSize() int {
	if ti, ok := TypeInfoMap[dt]; ok {
		return ti.FixedSize
	}
	return 0
}

// IsNumeric returns true for integer, float and date types.
func (dt DataType) IsNumeric() bool {
	switch dt {
	case TypeUInt8, TypeUInt16, TypeUInt32, TypeUInt64,
		TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeFloat32, TypeFloat64, TypeDateTime, TypeDate:
		return true
	}
	return false
}

// IsInteger returns true for integer types (not float).
func (dt DataType) IsInteger() bool {
	switch dt {
	case TypeUInt8, TypeUInt16, TypeUInt32, TypeUInt64,
		TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeDateTime, TypeDate:
		return true
	}
	return false
}

// IsUnsigned returns true for unsigned integer and date types.
func (dt DataType) IsUnsigned() bool {
	switch dt {
	case TypeUInt8, TypeUInt16, TypeUInt32, TypeUInt64, TypeDateTime, TypeDate:
		return true
	}
	return false
}

// IsDateOrDateTime returns true for Date and DateTime.
func (dt DataType) IsDateOrDateTime() bool {
	return dt == TypeDate || dt == TypeDateTime
}
