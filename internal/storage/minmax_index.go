package storage

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/granulekey/internal/types"
)

// MinMaxIndex stores the min and max values for a column within a part.
type MinMaxIndex struct {
	ColumnName string
	DataType   types.DataType
	Min        types.Field
	Max        types.Field
}

// ComputeMinMax computes the minmax index of a column from its values. NULLs
// are ignored; ok is false when no value remains.
func ComputeMinMax(name string, dt types.DataType, values []types.Field) (MinMaxIndex, bool) {
	idx := MinMaxIndex{ColumnName: name, DataType: dt}
	found := false
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		if !found {
			idx.Min, idx.Max, found = v, v, true
			continue
		}
		if types.AccurateLess(v, idx.Min) {
			idx.Min = v
		}
		if types.AccurateLess(idx.Max, v) {
			idx.Max = v
		}
	}
	return idx, found
}

// Range returns the closed range [Min, Max].
func (m MinMaxIndex) Range() Range {
	return NewRange(m.Min, true, m.Max, true)
}

// MinMaxFileName returns the name of the file holding the minmax index of a
// column inside a part directory.
func MinMaxFileName(column string) string { return "minmax_" + column + ".idx" }

// WriteMinMaxIndex writes the min-max index to a file.
func WriteMinMaxIndex(path string, idx MinMaxIndex) error {
	var buf bytes.Buffer
	encodeField(&buf, idx.Min)
	encodeField(&buf, idx.Max)
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "writing minmax index %s", path)
}

// ReadMinMaxIndex reads the min-max index from a file.
func ReadMinMaxIndex(path, column string, dt types.DataType) (MinMaxIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MinMaxIndex{}, errors.Wrapf(err, "reading minmax index %s", path)
	}
	r := bytes.NewReader(data)
	idx := MinMaxIndex{ColumnName: column, DataType: dt}
	if idx.Min, err = decodeField(r); err != nil {
		return MinMaxIndex{}, errors.Wrapf(err, "decoding min of %s", path)
	}
	if idx.Max, err = decodeField(r); err != nil {
		return MinMaxIndex{}, errors.Wrapf(err, "decoding max of %s", path)
	}
	if r.Len() != 0 {
		return MinMaxIndex{}, errors.Newf("minmax index %s has %d trailing bytes", path, r.Len())
	}
	return idx, nil
}
