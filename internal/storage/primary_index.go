package storage

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/granulekey/internal/compression"
	"github.com/harshithgowdakt/granulekey/internal/types"
)

// PrimaryIndexFileName is the conventional name of the persisted index.
const PrimaryIndexFileName = "primary.cidx"

var primaryIndexMagic = []byte("GKPK\x01")

// PrimaryIndex stores the sorting key tuple at each mark. Marks[i] is the key
// of the first row of granule i. When HasFinalMark is set, the last entry is
// the key of the last row of the part instead of the start of a granule.
type PrimaryIndex struct {
	KeyColumns   []string
	KeyTypes     []types.DataType
	Marks        [][]types.Field
	HasFinalMark bool
}

// MarkCount returns the number of stored marks, including the final one.
func (idx *PrimaryIndex) MarkCount() int { return len(idx.Marks) }

// GranuleCount returns the number of granules the index covers.
func (idx *PrimaryIndex) GranuleCount() int {
	if idx.HasFinalMark && len(idx.Marks) > 0 {
		return len(idx.Marks) - 1
	}
	return len(idx.Marks)
}

// SortDescription returns the key description used to build a KeyCondition
// for this index.
func (idx *PrimaryIndex) SortDescription() SortDescription {
	return SortDescription{Columns: idx.KeyColumns, Types: idx.KeyTypes}
}

// Validate checks that every mark has one value per key column and that
// marks are in non-decreasing key order.
func (idx *PrimaryIndex) Validate() error {
	if len(idx.KeyColumns) == 0 {
		return errors.New("primary index has no key columns")
	}
	if len(idx.KeyTypes) != 0 && len(idx.KeyTypes) != len(idx.KeyColumns) {
		return errors.Newf("primary index has %d key columns but %d types", len(idx.KeyColumns), len(idx.KeyTypes))
	}
	for i, mark := range idx.Marks {
		if len(mark) != len(idx.KeyColumns) {
			return errors.Newf("mark %d has %d values, want %d", i, len(mark), len(idx.KeyColumns))
		}
		if i > 0 && compareTuples(idx.Marks[i-1], mark) > 0 {
			return errors.Newf("mark %d is less than mark %d", i, i-1)
		}
	}
	return nil
}

func compareTuples(a, b []types.Field) int {
	for i := range min(len(a), len(b)) {
		if c := types.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// WritePrimaryIndex writes the index to path as a sequence of compressed
// blocks.
func WritePrimaryIndex(path string, idx *PrimaryIndex, codec compression.Codec) error {
	if err := idx.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.Write(primaryIndexMagic)
	writeVarUInt(&buf, uint64(len(idx.KeyColumns)))
	for i, name := range idx.KeyColumns {
		writeString(&buf, name)
		dt := types.TypeUnknown
		if i < len(idx.KeyTypes) {
			dt = idx.KeyTypes[i]
		}
		buf.WriteByte(byte(dt))
	}
	if idx.HasFinalMark {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	writeVarUInt(&buf, uint64(len(idx.Marks)))
	for _, mark := range idx.Marks {
		for _, v := range mark {
			encodeField(&buf, v)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating primary index %s", path)
	}
	if err := compression.WriteCompressed(f, codec, buf.Bytes()); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "writing primary index %s", path)
	}
	return errors.Wrapf(f.Close(), "closing primary index %s", path)
}

// ReadPrimaryIndex reads an index written by WritePrimaryIndex.
func ReadPrimaryIndex(path string) (*PrimaryIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading primary index %s", path)
	}
	raw, err := compression.ReadCompressed(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decompressing primary index %s", path)
	}
	idx, err := decodePrimaryIndex(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding primary index %s", path)
	}
	return idx, nil
}

func decodePrimaryIndex(raw []byte) (*PrimaryIndex, error) {
	if !bytes.HasPrefix(raw, primaryIndexMagic) {
		return nil, errors.New("bad magic")
	}
	r := bytes.NewReader(raw[len(primaryIndexMagic):])

	numKeys, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if numKeys == 0 {
		return nil, errors.New("primary index has no key columns")
	}
	if numKeys > uint64(r.Len()) {
		return nil, errors.Newf("key column count %d is too large", numKeys)
	}
	idx := &PrimaryIndex{
		KeyColumns: make([]string, numKeys),
		KeyTypes:   make([]types.DataType, numKeys),
	}
	for i := range idx.KeyColumns {
		if idx.KeyColumns[i], err = readString(r); err != nil {
			return nil, errors.Wrapf(err, "key column %d", i)
		}
		dt, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrapf(err, "key column %d type", i)
		}
		idx.KeyTypes[i] = types.DataType(dt)
	}

	final, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	idx.HasFinalMark = final == 1

	numMarks, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	// Every encoded field takes at least one byte.
	if numMarks > uint64(r.Len())/numKeys {
		return nil, errors.Newf("mark count %d is too large", numMarks)
	}
	idx.Marks = make([][]types.Field, numMarks)
	for m := range idx.Marks {
		mark := make([]types.Field, numKeys)
		for k := range mark {
			if mark[k], err = decodeField(r); err != nil {
				return nil, errors.Wrapf(err, "mark %d key %d", m, k)
			}
		}
		idx.Marks[m] = mark
	}
	if r.Len() != 0 {
		return nil, errors.Newf("%d trailing bytes", r.Len())
	}
	return idx, nil
}
