package storage

import (
	"github.com/harshithgowdakt/granulekey/internal/types"
)

// atomHandler fills out for a key comparison against value (range atoms) or
// set (set atoms). It returns false when the atom cannot be used.
type atomHandler func(out *rpnNode, value types.Field, set SetOracle) bool

var atomMap = map[string]atomHandler{
	"equals": func(out *rpnNode, value types.Field, _ SetOracle) bool {
		out.function = rpnFunctionInRange
		out.rangeValue = PointRange(value)
		return true
	},
	"notEquals": func(out *rpnNode, value types.Field, _ SetOracle) bool {
		out.function = rpnFunctionNotInRange
		out.rangeValue = PointRange(value)
		return true
	},
	"less": func(out *rpnNode, value types.Field, _ SetOracle) bool {
		out.function = rpnFunctionInRange
		out.rangeValue = CreateRightBounded(value, false)
		return true
	},
	"greater": func(out *rpnNode, value types.Field, _ SetOracle) bool {
		out.function = rpnFunctionInRange
		out.rangeValue = CreateLeftBounded(value, false)
		return true
	},
	"lessOrEquals": func(out *rpnNode, value types.Field, _ SetOracle) bool {
		out.function = rpnFunctionInRange
		out.rangeValue = CreateRightBounded(value, true)
		return true
	},
	"greaterOrEquals": func(out *rpnNode, value types.Field, _ SetOracle) bool {
		out.function = rpnFunctionInRange
		out.rangeValue = CreateLeftBounded(value, true)
		return true
	},
	"in": func(out *rpnNode, _ types.Field, set SetOracle) bool {
		if set == nil {
			return false
		}
		out.function = rpnFunctionInSet
		out.set = set
		return true
	},
	"notIn": func(out *rpnNode, _ types.Field, set SetOracle) bool {
		if set == nil {
			return false
		}
		out.function = rpnFunctionNotInSet
		out.set = set
		return true
	},
	"like": func(out *rpnNode, value types.Field, _ SetOracle) bool {
		if !value.IsString() {
			return false
		}
		prefix := extractFixedPrefixFromLikePattern(value.Str())
		if prefix == "" {
			return false
		}
		right := firstStringThatIsGreaterThanAllStringsWithPrefix(prefix)
		out.function = rpnFunctionInRange
		if right == "" {
			out.rangeValue = CreateLeftBounded(types.NewString(prefix), true)
		} else {
			out.rangeValue = NewRange(types.NewString(prefix), true, types.NewString(right), false)
		}
		return true
	},
}

// mirroredComparison maps a comparison to the one that holds with its
// operands swapped. Set and pattern atoms have no mirror.
var mirroredComparison = map[string]string{
	"equals":          "equals",
	"notEquals":       "notEquals",
	"less":            "greater",
	"greater":         "less",
	"lessOrEquals":    "greaterOrEquals",
	"greaterOrEquals": "lessOrEquals",
}

func isSetAtom(name string) bool {
	return name == "in" || name == "notIn"
}

// extractFixedPrefixFromLikePattern returns the literal text before the
// first unescaped wildcard. A backslash makes the following byte literal.
func extractFixedPrefixFromLikePattern(pattern string) string {
	prefix := make([]byte, 0, len(pattern))
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '%', '_':
			return string(prefix)
		case '\\':
			i++
			if i == len(pattern) {
				return string(prefix)
			}
			prefix = append(prefix, pattern[i])
		default:
			prefix = append(prefix, pattern[i])
		}
	}
	return string(prefix)
}

// firstStringThatIsGreaterThanAllStringsWithPrefix increments the last byte
// that is not 0xFF, dropping trailing 0xFF bytes. It returns "" when no such
// string exists.
func firstStringThatIsGreaterThanAllStringsWithPrefix(prefix string) string {
	res := []byte(prefix)
	for len(res) > 0 {
		last := len(res) - 1
		if res[last] < 0xFF {
			res[last]++
			return string(res)
		}
		res = res[:last]
	}
	return ""
}
