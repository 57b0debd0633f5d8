package functions

import (
	"math"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/granulekey/internal/types"
)

var zero = types.NewInt64(0)

type negate struct{}

func (negate) Name() string              { return "negate" }
func (negate) HasMonotonicityInfo() bool { return true }

func (negate) Monotonicity(dt types.DataType, _, _ types.Field) Monotonicity {
	if !dt.IsNumeric() {
		return notMonotonic
	}
	return decreasing
}

func (negate) Apply(dt types.DataType, v types.Field) (types.DataType, types.Field, error) {
	ret, err := negate{}.ReturnType([]types.DataType{dt})
	if err != nil {
		return types.TypeUnknown, types.Null(), err
	}
	switch v.Kind() {
	case types.KindInt64:
		if v.Int64() == math.MinInt64 {
			return ret, types.NewFloat64(-float64(v.Int64())), nil
		}
		return ret, types.NewInt64(-v.Int64()), nil
	case types.KindUInt64:
		if v.UInt64() > math.MaxInt64 {
			return ret, types.NewFloat64(-float64(v.UInt64())), nil
		}
		return ret, types.NewInt64(-int64(v.UInt64())), nil
	case types.KindFloat64:
		return ret, types.NewFloat64(-v.Float64()), nil
	}
	return types.TypeUnknown, types.Null(), errors.Newf("negate of %s", v)
}

func (negate) ReturnType(args []types.DataType) (types.DataType, error) {
	dt, err := unaryArg("negate", args)
	if err != nil {
		return types.TypeUnknown, err
	}
	switch {
	case dt == types.TypeFloat32 || dt == types.TypeFloat64:
		return dt, nil
	case dt.IsInteger():
		return types.TypeInt64, nil
	}
	return types.TypeUnknown, errors.Wrapf(ErrUnsupportedType, "negate of %s", dt)
}

// abs is monotonic on either side of zero.
type abs struct{}

func (abs) Name() string              { return "abs" }
func (abs) HasMonotonicityInfo() bool { return true }

func (abs) Monotonicity(dt types.DataType, left, right types.Field) Monotonicity {
	if !dt.IsNumeric() {
		return notMonotonic
	}
	if dt.IsUnsigned() || types.Compare(left, zero) >= 0 {
		return increasing
	}
	if types.Compare(right, zero) <= 0 {
		return decreasing
	}
	return notMonotonic
}

func (abs) Apply(dt types.DataType, v types.Field) (types.DataType, types.Field, error) {
	if !dt.IsNumeric() {
		return types.TypeUnknown, types.Null(), errors.Wrapf(ErrUnsupportedType, "abs of %s", dt)
	}
	switch v.Kind() {
	case types.KindInt64:
		if v.Int64() < 0 {
			return dt, types.NewUInt64(uint64(-(v.Int64() + 1)) + 1), nil
		}
		return dt, v, nil
	case types.KindUInt64:
		return dt, v, nil
	case types.KindFloat64:
		return dt, types.NewFloat64(math.Abs(v.Float64())), nil
	}
	return types.TypeUnknown, types.Null(), errors.Newf("abs of %s", v)
}

func (abs) ReturnType(args []types.DataType) (types.DataType, error) {
	dt, err := unaryArg("abs", args)
	if err != nil {
		return types.TypeUnknown, err
	}
	if !dt.IsNumeric() {
		return types.TypeUnknown, errors.Wrapf(ErrUnsupportedType, "abs of %s", dt)
	}
	return dt, nil
}

// toInt64 truncates floats, which keeps order, but wraps unsigned values
// above MaxInt64.
type toInt64 struct{}

func (toInt64) Name() string              { return "toInt64" }
func (toInt64) HasMonotonicityInfo() bool { return true }

func (toInt64) Monotonicity(dt types.DataType, left, right types.Field) Monotonicity {
	switch {
	case dt == types.TypeUInt64:
		if right.IsInfinite() || types.Compare(right, types.NewInt64(math.MaxInt64)) > 0 {
			return notMonotonic
		}
		return increasing
	case dt == types.TypeFloat32 || dt == types.TypeFloat64:
		if left.IsInfinite() || right.IsInfinite() {
			return notMonotonic
		}
		if _, ok := types.ToInt64(left); !ok {
			return notMonotonic
		}
		if _, ok := types.ToInt64(right); !ok {
			return notMonotonic
		}
		return increasing
	case dt.IsNumeric():
		return increasing
	}
	return notMonotonic
}

func (toInt64) Apply(dt types.DataType, v types.Field) (types.DataType, types.Field, error) {
	if v.Kind() == types.KindUInt64 {
		return types.TypeInt64, types.NewInt64(int64(v.UInt64())), nil
	}
	n, ok := types.ToInt64(v)
	if !ok {
		return types.TypeUnknown, types.Null(), errors.Newf("toInt64 of %s", v)
	}
	return types.TypeInt64, types.NewInt64(n), nil
}

func (toInt64) ReturnType(args []types.DataType) (types.DataType, error) {
	dt, err := unaryArg("toInt64", args)
	if err != nil {
		return types.TypeUnknown, err
	}
	if !dt.IsNumeric() {
		return types.TypeUnknown, errors.Wrapf(ErrUnsupportedType, "toInt64 of %s", dt)
	}
	return types.TypeInt64, nil
}

type toFloat64 struct{}

func (toFloat64) Name() string              { return "toFloat64" }
func (toFloat64) HasMonotonicityInfo() bool { return true }

func (toFloat64) Monotonicity(dt types.DataType, _, _ types.Field) Monotonicity {
	if !dt.IsNumeric() {
		return notMonotonic
	}
	return increasing
}

func (toFloat64) Apply(dt types.DataType, v types.Field) (types.DataType, types.Field, error) {
	if !v.IsNumeric() {
		return types.TypeUnknown, types.Null(), errors.Newf("toFloat64 of %s", v)
	}
	return types.TypeFloat64, types.NewFloat64(types.ToFloat64(v)), nil
}

func (toFloat64) ReturnType(args []types.DataType) (types.DataType, error) {
	dt, err := unaryArg("toFloat64", args)
	if err != nil {
		return types.TypeUnknown, err
	}
	if !dt.IsNumeric() {
		return types.TypeUnknown, errors.Wrapf(ErrUnsupportedType, "toFloat64 of %s", dt)
	}
	return types.TypeFloat64, nil
}

// toString preserves order only where the textual form sorts like the
// value: strings, and dates with their fixed-width layout.
type toString struct{}

func (toString) Name() string              { return "toString" }
func (toString) HasMonotonicityInfo() bool { return true }

func (toString) Monotonicity(dt types.DataType, _, _ types.Field) Monotonicity {
	switch dt {
	case types.TypeString, types.TypeDate, types.TypeDateTime:
		return increasing
	}
	return notMonotonic
}

func (toString) Apply(dt types.DataType, v types.Field) (types.DataType, types.Field, error) {
	switch {
	case v.IsString():
		return types.TypeString, v, nil
	case dt == types.TypeDate:
		t, err := toTime(dt, v)
		if err != nil {
			return types.TypeUnknown, types.Null(), err
		}
		return types.TypeString, types.NewString(t.Format(types.DateLayout)), nil
	case dt == types.TypeDateTime:
		t, err := toTime(dt, v)
		if err != nil {
			return types.TypeUnknown, types.Null(), err
		}
		return types.TypeString, types.NewString(t.Format(types.DateTimeLayout)), nil
	}
	switch v.Kind() {
	case types.KindInt64:
		return types.TypeString, types.NewString(strconv.FormatInt(v.Int64(), 10)), nil
	case types.KindUInt64:
		return types.TypeString, types.NewString(strconv.FormatUint(v.UInt64(), 10)), nil
	case types.KindFloat64:
		return types.TypeString, types.NewString(strconv.FormatFloat(v.Float64(), 'g', -1, 64)), nil
	}
	return types.TypeUnknown, types.Null(), errors.Newf("toString of %s", v)
}

func (toString) ReturnType(args []types.DataType) (types.DataType, error) {
	if _, err := unaryArg("toString", args); err != nil {
		return types.TypeUnknown, err
	}
	return types.TypeString, nil
}
