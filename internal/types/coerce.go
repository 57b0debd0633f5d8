package types

import (
	"strconv"
	"time"
)

const (
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
)

// CoerceField converts a constant so that it can be compared against values
// of type dt. Numeric constants are kept as they are since comparisons across
// numeric variants are exact. Strings are parsed for numeric and date targets.
// ok is false when the constant can never be compared meaningfully (NULL, or a
// string that does not parse).
func CoerceField(dt DataType, f Field) (Field, bool) {
	if f.IsNull() {
		return f, false
	}
	if f.IsInfinite() || dt == TypeUnknown {
		return f, true
	}

	switch {
	case dt == TypeString:
		return f, f.IsString()
	case dt == TypeDateTime:
		if f.IsString() {
			return ParseDateTime(f.s)
		}
		return f, f.IsNumeric()
	case dt == TypeDate:
		if f.IsString() {
			return ParseDate(f.s)
		}
		return f, f.IsNumeric()
	case dt.IsNumeric():
		if f.IsString() {
			return parseNumber(f.s)
		}
		return f, f.IsNumeric()
	}
	return f, false
}

// ParseDateTime parses "YYYY-MM-DD hh:mm:ss" or "YYYY-MM-DD" (UTC) into a unix
// timestamp.
func ParseDateTime(s string) (Field, bool) {
	for _, layout := range []string{DateTimeLayout, DateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			if t.Unix() < 0 {
				return Null(), false
			}
			return NewUInt64(uint64(t.Unix())), true
		}
	}
	return Null(), false
}

// ParseDate parses "YYYY-MM-DD" into a day number since 1970-01-01.
func ParseDate(s string) (Field, bool) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil || t.Unix() < 0 {
		return Null(), false
	}
	return NewUInt64(uint64(t.Unix() / 86400)), true
}

func parseNumber(s string) (Field, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NewInt64(i), true
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return NewUInt64(u), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return NewFloat64(f), true
	}
	return Null(), false
}
