package storage

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/granulekey/internal/types"
)

// Field encoding: one kind byte followed by the payload.
//
//	Int64   zig-zag varint
//	UInt64  varint
//	Float64 8 bytes little-endian IEEE 754
//	String  VarUInt(length) + raw bytes
//	Null, -inf, +inf: no payload

func writeVarUInt(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeString(buf *bytes.Buffer, s string) {
	writeVarUInt(buf, uint64(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if n > uint64(r.Len()) {
		return "", errors.Newf("string length %d exceeds remaining %d bytes", n, r.Len())
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeField(buf *bytes.Buffer, f types.Field) {
	buf.WriteByte(byte(f.Kind()))
	switch f.Kind() {
	case types.KindInt64:
		var tmp [binary.MaxVarintLen64]byte
		n := binary.PutVarint(tmp[:], f.Int64())
		buf.Write(tmp[:n])
	case types.KindUInt64:
		writeVarUInt(buf, f.UInt64())
	case types.KindFloat64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(f.Float64()))
		buf.Write(tmp[:])
	case types.KindString:
		writeString(buf, f.Str())
	}
}

func decodeField(r *bytes.Reader) (types.Field, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return types.Field{}, err
	}
	switch types.FieldKind(kind) {
	case types.KindNull:
		return types.Null(), nil
	case types.KindInt64:
		v, err := binary.ReadVarint(r)
		return types.NewInt64(v), err
	case types.KindUInt64:
		v, err := binary.ReadUvarint(r)
		return types.NewUInt64(v), err
	case types.KindFloat64:
		var tmp [8]byte
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			return types.Field{}, err
		}
		return types.NewFloat64(math.Float64frombits(binary.LittleEndian.Uint64(tmp[:]))), nil
	case types.KindString:
		s, err := readString(r)
		return types.NewString(s), err
	case types.KindNegativeInfinity:
		return types.NegativeInfinity(), nil
	case types.KindPositiveInfinity:
		return types.PositiveInfinity(), nil
	}
	return types.Field{}, errors.Newf("unknown field kind %d", kind)
}
