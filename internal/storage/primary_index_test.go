package storage

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harshithgowdakt/granulekey/internal/compression"
	"github.com/harshithgowdakt/granulekey/internal/types"
)

func sampleIndex() *PrimaryIndex {
	return &PrimaryIndex{
		KeyColumns: []string{"CounterID", "URL", "score"},
		KeyTypes:   []types.DataType{types.TypeInt64, types.TypeString, types.TypeFloat64},
		Marks: [][]types.Field{
			{types.NegativeInfinity(), types.NewString(""), types.NewFloat64(-1.5)},
			{i64(-7), types.NewString("http://a"), types.NewFloat64(0)},
			{i64(34), types.NewString("http://it's"), types.NewFloat64(2.25)},
			{types.NewUInt64(1 << 63), types.NewString("\xff"), types.PositiveInfinity()},
		},
		HasFinalMark: true,
	}
}

func TestPrimaryIndexFileRoundTrip(t *testing.T) {
	for _, codec := range []compression.Codec{&compression.LZ4Codec{}, &compression.NoneCodec{}} {
		path := filepath.Join(t.TempDir(), PrimaryIndexFileName)
		idx := sampleIndex()
		require.NoError(t, WritePrimaryIndex(path, idx, codec))

		got, err := ReadPrimaryIndex(path)
		require.NoError(t, err)
		require.Equal(t, idx, got)
		require.Equal(t, 4, got.MarkCount())
		require.Equal(t, 3, got.GranuleCount())
	}
}

func TestPrimaryIndexFileCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), PrimaryIndexFileName)
	require.NoError(t, WritePrimaryIndex(path, sampleIndex(), &compression.NoneCodec{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0x01
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = ReadPrimaryIndex(path)
	require.ErrorIs(t, err, compression.ErrChecksumMismatch)

	_, err = ReadPrimaryIndex(filepath.Join(t.TempDir(), "missing.cidx"))
	require.Error(t, err)
}

func TestDecodePrimaryIndexRejectsGarbage(t *testing.T) {
	_, err := decodePrimaryIndex([]byte("nope"))
	require.Error(t, err)

	// A header announcing more marks than the payload can hold.
	raw := append([]byte{}, primaryIndexMagic...)
	raw = append(raw, 1, 1, 'a', byte(types.TypeInt64), 0, 100)
	_, err = decodePrimaryIndex(raw)
	require.Error(t, err)

	header := func(numKeys uint64, numMarks uint64) []byte {
		raw := append([]byte{}, primaryIndexMagic...)
		raw = binary.AppendUvarint(raw, numKeys)
		for i := uint64(0); i < numKeys; i++ {
			raw = append(raw, 1, 'k', byte(types.TypeInt64))
		}
		raw = append(raw, 0)
		raw = binary.AppendUvarint(raw, numMarks)
		return append(raw, make([]byte, 16)...)
	}
	tests := []struct {
		name     string
		numKeys  uint64
		numMarks uint64
	}{
		{"no key columns", 0, 1 << 40},
		{"no key columns and no marks", 0, 0},
		{"mark count overflowing the size check", 2, 1<<63 + 1},
		{"mark count beyond the payload", 2, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodePrimaryIndex(header(tt.numKeys, tt.numMarks))
			require.Error(t, err)
		})
	}
}

func TestPrimaryIndexValidate(t *testing.T) {
	idx := &PrimaryIndex{
		KeyColumns: []string{"a", "b"},
		Marks:      [][]types.Field{tuple(1, 5), tuple(1, 3)},
	}
	require.ErrorContains(t, idx.Validate(), "mark 1 is less than mark 0")

	idx.Marks = [][]types.Field{tuple(1)}
	require.ErrorContains(t, idx.Validate(), "has 1 values")

	idx.Marks = [][]types.Field{tuple(1, 3), tuple(1, 3), tuple(2, 0)}
	require.NoError(t, idx.Validate())

	require.Error(t, (&PrimaryIndex{}).Validate())
}

func TestBuildPrimaryIndex(t *testing.T) {
	rows := make([][]types.Field, 10)
	for i := range rows {
		rows[i] = tuple(i / 3)
	}
	idx, err := BuildPrimaryIndex([]string{"a"}, []types.DataType{types.TypeInt64}, rows, 4, true)
	require.NoError(t, err)
	require.Equal(t, [][]types.Field{tuple(0), tuple(1), tuple(2), tuple(3)}, idx.Marks)
	require.Equal(t, 3, idx.GranuleCount())

	idx, err = BuildPrimaryIndex([]string{"a"}, nil, rows, 4, false)
	require.NoError(t, err)
	require.Equal(t, 3, idx.MarkCount())
	require.Equal(t, 3, idx.GranuleCount())

	require.Equal(t, []GranuleRange{{0, 4}, {4, 8}, {8, 10}}, SplitIntoGranules(10, 4))
	require.Len(t, SplitIntoGranules(DefaultGranuleSize+1, 0), 2)
}
