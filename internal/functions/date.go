package functions

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/granulekey/internal/types"
)

// toTime interprets v as a Date (days since epoch) or, for other integer
// types, as a unix timestamp in seconds.
func toTime(dt types.DataType, v types.Field) (time.Time, error) {
	if !dt.IsInteger() {
		return time.Time{}, errors.Wrapf(ErrUnsupportedType, "expected date or datetime, got %s", dt)
	}
	n, ok := types.ToInt64(v)
	if !ok {
		return time.Time{}, errors.Newf("expected numeric datetime, got %s", v)
	}
	if dt == types.TypeDate {
		n *= 86400
	}
	return time.Unix(n, 0).UTC(), nil
}

func dateArg(name string, args []types.DataType) error {
	dt, err := unaryArg(name, args)
	if err != nil {
		return err
	}
	if !dt.IsInteger() {
		return errors.Wrapf(ErrUnsupportedType, "%s of %s", name, dt)
	}
	return nil
}

// dateFunc covers date transforms that are non-decreasing over the whole
// time axis.
type dateFunc struct {
	name string
	ret  types.DataType
	fn   func(time.Time) uint64
}

func (f dateFunc) Name() string              { return f.name }
func (f dateFunc) HasMonotonicityInfo() bool { return true }

func (f dateFunc) Monotonicity(dt types.DataType, _, _ types.Field) Monotonicity {
	if !dt.IsInteger() {
		return notMonotonic
	}
	return increasing
}

func (f dateFunc) Apply(dt types.DataType, v types.Field) (types.DataType, types.Field, error) {
	t, err := toTime(dt, v)
	if err != nil {
		return types.TypeUnknown, types.Null(), errors.Wrap(err, f.name)
	}
	return f.ret, types.NewUInt64(f.fn(t)), nil
}

func (f dateFunc) ReturnType(args []types.DataType) (types.DataType, error) {
	if err := dateArg(f.name, args); err != nil {
		return types.TypeUnknown, err
	}
	return f.ret, nil
}

var (
	toYear = dateFunc{name: "toYear", ret: types.TypeUInt16, fn: func(t time.Time) uint64 {
		return uint64(t.Year())
	}}
	toYYYYMM = dateFunc{name: "toYYYYMM", ret: types.TypeUInt32, fn: func(t time.Time) uint64 {
		return uint64(t.Year()*100 + int(t.Month()))
	}}
	toYYYYMMDD = dateFunc{name: "toYYYYMMDD", ret: types.TypeUInt32, fn: func(t time.Time) uint64 {
		return uint64(t.Year()*10000 + int(t.Month())*100 + t.Day())
	}}
	toDate = dateFunc{name: "toDate", ret: types.TypeDate, fn: func(t time.Time) uint64 {
		return uint64(t.Unix() / 86400)
	}}
	toStartOfHour = dateFunc{name: "toStartOfHour", ret: types.TypeDateTime, fn: func(t time.Time) uint64 {
		return uint64(t.Truncate(time.Hour).Unix())
	}}
	toStartOfDay = dateFunc{name: "toStartOfDay", ret: types.TypeDateTime, fn: func(t time.Time) uint64 {
		return uint64(t.Truncate(24 * time.Hour).Unix())
	}}
)

// toMonth wraps around at year boundaries, so it is monotonic only while
// both ends of the interval fall into the same year.
type toMonth struct{}

func (toMonth) Name() string              { return "toMonth" }
func (toMonth) HasMonotonicityInfo() bool { return true }

func (toMonth) Monotonicity(dt types.DataType, left, right types.Field) Monotonicity {
	if left.IsInfinite() || right.IsInfinite() {
		return notMonotonic
	}
	l, err := toTime(dt, left)
	if err != nil {
		return notMonotonic
	}
	r, err := toTime(dt, right)
	if err != nil || l.Year() != r.Year() {
		return notMonotonic
	}
	return increasing
}

func (toMonth) Apply(dt types.DataType, v types.Field) (types.DataType, types.Field, error) {
	t, err := toTime(dt, v)
	if err != nil {
		return types.TypeUnknown, types.Null(), errors.Wrap(err, "toMonth")
	}
	return types.TypeUInt8, types.NewUInt64(uint64(t.Month())), nil
}

func (toMonth) ReturnType(args []types.DataType) (types.DataType, error) {
	if err := dateArg("toMonth", args); err != nil {
		return types.TypeUnknown, err
	}
	return types.TypeUInt8, nil
}
