package storage

import (
	"strings"

	"github.com/harshithgowdakt/granulekey/internal/types"
)

// Range is an interval of key values. Either side may be unbounded; the
// inclusion flag of an unbounded side is ignored.
type Range struct {
	Left          types.Field
	Right         types.Field
	LeftIncluded  bool
	RightIncluded bool
	LeftBounded   bool
	RightBounded  bool
}

// Hyperrectangle is a multi-dimensional range, one Range per key column.
type Hyperrectangle []Range

// WholeRange returns (-inf, +inf).
func WholeRange() Range {
	return Range{}
}

// PointRange returns [v, v].
func PointRange(v types.Field) Range {
	return Range{
		Left: v, Right: v,
		LeftIncluded: true, RightIncluded: true,
		LeftBounded: true, RightBounded: true,
	}
}

// NewRange returns an interval bounded on both sides.
func NewRange(left types.Field, leftIncluded bool, right types.Field, rightIncluded bool) Range {
	return Range{
		Left: left, Right: right,
		LeftIncluded: leftIncluded, RightIncluded: rightIncluded,
		LeftBounded: true, RightBounded: true,
	}
}

// CreateLeftBounded returns [v, +inf) or (v, +inf).
func CreateLeftBounded(v types.Field, included bool) Range {
	return Range{Left: v, LeftIncluded: included, LeftBounded: true}
}

// CreateRightBounded returns (-inf, v] or (-inf, v).
func CreateRightBounded(v types.Field, included bool) Range {
	return Range{Right: v, RightIncluded: included, RightBounded: true}
}

// IsPoint reports whether the range holds exactly one value.
func (r Range) IsPoint() bool {
	return r.LeftBounded && r.RightBounded && r.LeftIncluded && r.RightIncluded &&
		types.AccurateEquals(r.Left, r.Right)
}

// Intersects reports whether r and other share at least one value.
func (r Range) Intersects(other Range) bool {
	// other lies to the left of r.
	if other.RightBounded && r.LeftBounded {
		c := types.Compare(other.Right, r.Left)
		if c < 0 || (c == 0 && (!r.LeftIncluded || !other.RightIncluded)) {
			return false
		}
	}
	// other lies to the right of r.
	if other.LeftBounded && r.RightBounded {
		c := types.Compare(r.Right, other.Left)
		if c < 0 || (c == 0 && (!r.RightIncluded || !other.LeftIncluded)) {
			return false
		}
	}
	return true
}

// Contains reports whether other is a subset of r.
func (r Range) Contains(other Range) bool {
	// other starts to the left of r.
	if r.LeftBounded {
		if !other.LeftBounded {
			return false
		}
		c := types.Compare(other.Left, r.Left)
		if c < 0 || (c == 0 && other.LeftIncluded && !r.LeftIncluded) {
			return false
		}
	}
	// other ends to the right of r.
	if r.RightBounded {
		if !other.RightBounded {
			return false
		}
		c := types.Compare(r.Right, other.Right)
		if c < 0 || (c == 0 && other.RightIncluded && !r.RightIncluded) {
			return false
		}
	}
	return true
}

// SwapLeftAndRight exchanges the endpoints together with their flags. It is
// applied after a monotonically decreasing transform.
func (r Range) SwapLeftAndRight() Range {
	r.Left, r.Right = r.Right, r.Left
	r.LeftIncluded, r.RightIncluded = r.RightIncluded, r.LeftIncluded
	r.LeftBounded, r.RightBounded = r.RightBounded, r.LeftBounded
	return r
}

// leftOrInf returns the left endpoint, or -inf when unbounded.
func (r Range) leftOrInf() types.Field {
	if !r.LeftBounded {
		return types.NegativeInfinity()
	}
	return r.Left
}

// rightOrInf returns the right endpoint, or +inf when unbounded.
func (r Range) rightOrInf() types.Field {
	if !r.RightBounded {
		return types.PositiveInfinity()
	}
	return r.Right
}

// withoutInfiniteBounds turns -inf on the left and +inf on the right into
// unbounded sides.
func (r Range) withoutInfiniteBounds() Range {
	if r.LeftBounded && r.Left.Kind() == types.KindNegativeInfinity {
		r.LeftBounded = false
		r.Left = types.Field{}
	}
	if r.RightBounded && r.Right.Kind() == types.KindPositiveInfinity {
		r.RightBounded = false
		r.Right = types.Field{}
	}
	return r
}

func (r Range) String() string {
	var sb strings.Builder
	if !r.LeftBounded {
		sb.WriteString("(-inf")
	} else {
		if r.LeftIncluded {
			sb.WriteByte('[')
		} else {
			sb.WriteByte('(')
		}
		sb.WriteString(r.Left.String())
	}
	sb.WriteString(", ")
	if !r.RightBounded {
		sb.WriteString("+inf)")
	} else {
		sb.WriteString(r.Right.String())
		if r.RightIncluded {
			sb.WriteByte(']')
		} else {
			sb.WriteByte(')')
		}
	}
	return sb.String()
}

func (h Hyperrectangle) String() string {
	parts := make([]string, len(h))
	for i, r := range h {
		parts[i] = r.String()
	}
	return strings.Join(parts, " x ")
}
