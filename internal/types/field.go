package types

import (
	"math"
	"strconv"
	"strings"
)

// FieldKind tags the variant held by a Field.
type FieldKind uint8

const (
	KindNull FieldKind = iota
	KindInt64
	KindUInt64
	KindFloat64
	KindString
	KindNegativeInfinity
	KindPositiveInfinity
)

// Field is a single scalar value: a signed or unsigned integer, a float, a
// string or NULL. The two infinity kinds are sentinels that order below and
// above every other value; they let callers express open ends inside a key
// tuple.
type Field struct {
	kind FieldKind
	i    int64
	u    uint64
	f    float64
	s    string
}

func NewInt64(v int64) Field     { return Field{kind: KindInt64, i: v} }
func NewUInt64(v uint64) Field   { return Field{kind: KindUInt64, u: v} }
func NewFloat64(v float64) Field { return Field{kind: KindFloat64, f: v} }
func NewString(v string) Field   { return Field{kind: KindString, s: v} }
func Null() Field                { return Field{kind: KindNull} }
func NegativeInfinity() Field    { return Field{kind: KindNegativeInfinity} }
func PositiveInfinity() Field    { return Field{kind: KindPositiveInfinity} }

func (f Field) Kind() FieldKind { return f.kind }
func (f Field) IsNull() bool    { return f.kind == KindNull }
func (f Field) IsInfinite() bool {
	return f.kind == KindNegativeInfinity || f.kind == KindPositiveInfinity
}
func (f Field) IsNumeric() bool {
	return f.kind == KindInt64 || f.kind == KindUInt64 || f.kind == KindFloat64
}
func (f Field) IsString() bool { return f.kind == KindString }

// Int64 returns the signed payload; zero for other kinds.
func (f Field) Int64() int64 { return f.i }

// UInt64 returns the unsigned payload; zero for other kinds.
func (f Field) UInt64() uint64 { return f.u }

// Float64 returns the float payload; zero for other kinds.
func (f Field) Float64() float64 { return f.f }

// Str returns the string payload; empty for other kinds.
func (f Field) Str() string { return f.s }

// FieldVisitor dispatches on the variant held by a Field.
type FieldVisitor[T any] interface {
	VisitNull() T
	VisitInt64(v int64) T
	VisitUInt64(v uint64) T
	VisitFloat64(v float64) T
	VisitString(v string) T
	VisitNegativeInfinity() T
	VisitPositiveInfinity() T
}

// Visit applies v to f.
func Visit[T any](f Field, v FieldVisitor[T]) T {
	switch f.kind {
	case KindInt64:
		return v.VisitInt64(f.i)
	case KindUInt64:
		return v.VisitUInt64(f.u)
	case KindFloat64:
		return v.VisitFloat64(f.f)
	case KindString:
		return v.VisitString(f.s)
	case KindNegativeInfinity:
		return v.VisitNegativeInfinity()
	case KindPositiveInfinity:
		return v.VisitPositiveInfinity()
	default:
		return v.VisitNull()
	}
}

type toStringVisitor struct{}

func (toStringVisitor) VisitNull() string                { return "NULL" }
func (toStringVisitor) VisitInt64(v int64) string        { return strconv.FormatInt(v, 10) }
func (toStringVisitor) VisitUInt64(v uint64) string      { return strconv.FormatUint(v, 10) }
func (toStringVisitor) VisitFloat64(v float64) string    { return strconv.FormatFloat(v, 'g', -1, 64) }
func (toStringVisitor) VisitNegativeInfinity() string    { return "-inf" }
func (toStringVisitor) VisitPositiveInfinity() string    { return "+inf" }
func (toStringVisitor) VisitString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "\\'") + "'"
}

// String renders f the way it would appear as a SQL literal.
func (f Field) String() string {
	return Visit[string](f, toStringVisitor{})
}

type toFloatVisitor struct{}

func (toFloatVisitor) VisitNull() float64             { return math.NaN() }
func (toFloatVisitor) VisitInt64(v int64) float64     { return float64(v) }
func (toFloatVisitor) VisitUInt64(v uint64) float64   { return float64(v) }
func (toFloatVisitor) VisitFloat64(v float64) float64 { return v }
func (toFloatVisitor) VisitString(string) float64     { return math.NaN() }
func (toFloatVisitor) VisitNegativeInfinity() float64 { return math.Inf(-1) }
func (toFloatVisitor) VisitPositiveInfinity() float64 { return math.Inf(1) }

// ToFloat64 converts a numeric field to float64. Non-numeric fields yield NaN.
func ToFloat64(f Field) float64 {
	return Visit[float64](f, toFloatVisitor{})
}

// ToInt64 converts a numeric field to int64, truncating floats. ok is false
// when the value is not numeric or does not fit.
func ToInt64(f Field) (int64, bool) {
	switch f.kind {
	case KindInt64:
		return f.i, true
	case KindUInt64:
		if f.u > math.MaxInt64 {
			return 0, false
		}
		return int64(f.u), true
	case KindFloat64:
		if math.IsNaN(f.f) || f.f >= 9223372036854775808.0 || f.f < -9223372036854775808.0 {
			return 0, false
		}
		return int64(f.f), true
	}
	return 0, false
}

// FromValue converts a native Go value (as produced by the parser or by
// decoders) into a Field. Unsupported values become NULL.
func FromValue(v interface{}) Field {
	switch x := v.(type) {
	case nil:
		return Null()
	case Field:
		return x
	case int:
		return NewInt64(int64(x))
	case int8:
		return NewInt64(int64(x))
	case int16:
		return NewInt64(int64(x))
	case int32:
		return NewInt64(int64(x))
	case int64:
		return NewInt64(x)
	case uint:
		return NewUInt64(uint64(x))
	case uint8:
		return NewUInt64(uint64(x))
	case uint16:
		return NewUInt64(uint64(x))
	case uint32:
		return NewUInt64(uint64(x))
	case uint64:
		return NewUInt64(x)
	case float32:
		return NewFloat64(float64(x))
	case float64:
		return NewFloat64(x)
	case string:
		return NewString(x)
	case bool:
		if x {
			return NewUInt64(1)
		}
		return NewUInt64(0)
	default:
		return Null()
	}
}

// IsZero reports whether f is a numeric zero.
func (f Field) IsZero() bool {
	switch f.kind {
	case KindInt64:
		return f.i == 0
	case KindUInt64:
		return f.u == 0
	case KindFloat64:
		return f.f == 0
	}
	return false
}
