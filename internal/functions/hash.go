package functions

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	farm "github.com/dgryski/go-farm"

	"github.com/harshithgowdakt/granulekey/internal/types"
)

// Hash functions scramble order, so they carry no monotonicity info and
// index analysis never transforms ranges through them.

func intHashArg(name string, v types.Field) (uint64, error) {
	switch v.Kind() {
	case types.KindInt64:
		return uint64(v.Int64()), nil
	case types.KindUInt64:
		return v.UInt64(), nil
	}
	return 0, errors.Wrapf(ErrUnsupportedType, "%s of %s", name, v)
}

func intHashReturnType(name string, args []types.DataType, ret types.DataType) (types.DataType, error) {
	dt, err := unaryArg(name, args)
	if err != nil {
		return types.TypeUnknown, err
	}
	if !dt.IsInteger() {
		return types.TypeUnknown, errors.Wrapf(ErrUnsupportedType, "%s of %s", name, dt)
	}
	return ret, nil
}

// IntHash32 is Thomas Wang's 64-to-32 bit integer hash.
func IntHash32(key uint64) uint32 {
	key = (^key) + (key << 18)
	key ^= (key >> 31) | (key << 33)
	key *= 21
	key ^= (key >> 11) | (key << 53)
	key += key << 6
	key ^= (key >> 22) | (key << 42)
	return uint32(key)
}

// IntHash64 is the MurmurHash3 64-bit finalizer.
func IntHash64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

type intHash32 struct{}

func (intHash32) Name() string              { return "intHash32" }
func (intHash32) HasMonotonicityInfo() bool { return false }
func (intHash32) Monotonicity(types.DataType, types.Field, types.Field) Monotonicity {
	return notMonotonic
}

func (intHash32) Apply(_ types.DataType, v types.Field) (types.DataType, types.Field, error) {
	k, err := intHashArg("intHash32", v)
	if err != nil {
		return types.TypeUnknown, types.Null(), err
	}
	return types.TypeUInt32, types.NewUInt64(uint64(IntHash32(k))), nil
}

func (intHash32) ReturnType(args []types.DataType) (types.DataType, error) {
	return intHashReturnType("intHash32", args, types.TypeUInt32)
}

type intHash64 struct{}

func (intHash64) Name() string              { return "intHash64" }
func (intHash64) HasMonotonicityInfo() bool { return false }
func (intHash64) Monotonicity(types.DataType, types.Field, types.Field) Monotonicity {
	return notMonotonic
}

func (intHash64) Apply(_ types.DataType, v types.Field) (types.DataType, types.Field, error) {
	k, err := intHashArg("intHash64", v)
	if err != nil {
		return types.TypeUnknown, types.Null(), err
	}
	return types.TypeUInt64, types.NewUInt64(IntHash64(k)), nil
}

func (intHash64) ReturnType(args []types.DataType) (types.DataType, error) {
	return intHashReturnType("intHash64", args, types.TypeUInt64)
}

// hashBytes returns the bytes a value is hashed over: the raw string, or
// the little-endian in-memory form of a number.
func hashBytes(v types.Field) ([]byte, error) {
	var buf [8]byte
	switch v.Kind() {
	case types.KindString:
		return []byte(v.Str()), nil
	case types.KindInt64:
		binary.LittleEndian.PutUint64(buf[:], uint64(v.Int64()))
	case types.KindUInt64:
		binary.LittleEndian.PutUint64(buf[:], v.UInt64())
	case types.KindFloat64:
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.Float64()))
	default:
		return nil, errors.Newf("cannot hash %s", v)
	}
	return buf[:], nil
}

type xxHash64 struct{}

func (xxHash64) Name() string              { return "xxHash64" }
func (xxHash64) HasMonotonicityInfo() bool { return false }
func (xxHash64) Monotonicity(types.DataType, types.Field, types.Field) Monotonicity {
	return notMonotonic
}

func (xxHash64) Apply(_ types.DataType, v types.Field) (types.DataType, types.Field, error) {
	b, err := hashBytes(v)
	if err != nil {
		return types.TypeUnknown, types.Null(), errors.Wrap(err, "xxHash64")
	}
	return types.TypeUInt64, types.NewUInt64(xxhash.Sum64(b)), nil
}

func (xxHash64) ReturnType(args []types.DataType) (types.DataType, error) {
	if len(args) == 0 {
		return types.TypeUnknown, errors.New("xxHash64 requires at least 1 argument")
	}
	return types.TypeUInt64, nil
}

type farmHash64 struct{}

func (farmHash64) Name() string              { return "farmHash64" }
func (farmHash64) HasMonotonicityInfo() bool { return false }
func (farmHash64) Monotonicity(types.DataType, types.Field, types.Field) Monotonicity {
	return notMonotonic
}

func (farmHash64) Apply(_ types.DataType, v types.Field) (types.DataType, types.Field, error) {
	b, err := hashBytes(v)
	if err != nil {
		return types.TypeUnknown, types.Null(), errors.Wrap(err, "farmHash64")
	}
	return types.TypeUInt64, types.NewUInt64(farm.Hash64(b)), nil
}

func (farmHash64) ReturnType(args []types.DataType) (types.DataType, error) {
	if len(args) == 0 {
		return types.TypeUnknown, errors.New("farmHash64 requires at least 1 argument")
	}
	return types.TypeUInt64, nil
}
