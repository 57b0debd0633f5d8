package types

import (
	"math"
	"strings"
)

// rank orders field kinds that cannot be compared by value.
func rank(k FieldKind) int {
	switch k {
	case KindNegativeInfinity:
		return 0
	case KindInt64, KindUInt64, KindFloat64:
		return 1
	case KindString:
		return 2
	case KindNull:
		return 3
	default:
		return 4
	}
}

// Compare returns -1, 0 or 1. Numeric variants are compared exactly against
// each other (no precision lost converting int64/uint64 to float64). NaN sorts
// after every number, strings compare bytewise.
func Compare(a, b Field) int {
	ra, rb := rank(a.kind), rank(b.kind)
	if ra != rb {
		return cmpOrdered(ra, rb)
	}
	switch ra {
	case 1:
		return compareNumeric(a, b)
	case 2:
		return strings.Compare(a.s, b.s)
	}
	return 0
}

// AccurateEquals reports whether a and b hold the same value.
func AccurateEquals(a, b Field) bool { return Compare(a, b) == 0 }

// AccurateLess reports whether a orders strictly before b.
func AccurateLess(a, b Field) bool { return Compare(a, b) < 0 }

func compareNumeric(a, b Field) int {
	switch a.kind {
	case KindInt64:
		switch b.kind {
		case KindInt64:
			return cmpOrdered(a.i, b.i)
		case KindUInt64:
			return cmpIntUint(a.i, b.u)
		default:
			return cmpIntFloat(a.i, b.f)
		}
	case KindUInt64:
		switch b.kind {
		case KindInt64:
			return -cmpIntUint(b.i, a.u)
		case KindUInt64:
			return cmpOrdered(a.u, b.u)
		default:
			return cmpUintFloat(a.u, b.f)
		}
	default:
		switch b.kind {
		case KindInt64:
			return -cmpIntFloat(b.i, a.f)
		case KindUInt64:
			return -cmpUintFloat(b.u, a.f)
		default:
			return cmpFloat(a.f, b.f)
		}
	}
}

func cmpIntUint(i int64, u uint64) int {
	if i < 0 {
		return -1
	}
	return cmpOrdered(uint64(i), u)
}

func cmpIntFloat(i int64, f float64) int {
	switch {
	case math.IsNaN(f):
		return -1
	case f >= 9223372036854775808.0:
		return -1
	case f < -9223372036854775808.0:
		return 1
	}
	t := math.Trunc(f)
	if c := cmpOrdered(i, int64(t)); c != 0 {
		return c
	}
	return -cmpOrdered(f-t, 0)
}

func cmpUintFloat(u uint64, f float64) int {
	switch {
	case math.IsNaN(f):
		return -1
	case f < 0:
		return 1
	case f >= 18446744073709551616.0:
		return -1
	}
	t := math.Trunc(f)
	if c := cmpOrdered(u, uint64(t)); c != 0 {
		return c
	}
	return -cmpOrdered(f-t, 0)
}

func cmpFloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	return cmpOrdered(a, b)
}

type ordered interface {
	~int | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64 | ~string
}

func cmpOrdered[T ordered](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
