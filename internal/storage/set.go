package storage

import (
	"github.com/google/btree"

	"github.com/harshithgowdakt/granulekey/internal/types"
)

// SetOracle answers whether an IN set can match values from a key range.
// Implementations must be safe for concurrent reads.
type SetOracle interface {
	MayBeTrueInRange(r Range) BoolMask
}

// PreparedSets holds sets built by the caller, keyed by the canonical name
// of the IN right-hand side.
type PreparedSets map[string]SetOracle

// sizedSet is implemented by oracles that know their cardinality.
type sizedSet interface {
	Size() int
}

const orderedSetDegree = 16

// OrderedSet is a sorted set of key values.
type OrderedSet struct {
	tree *btree.BTreeG[types.Field]
}

// NewOrderedSet builds a set from values; duplicates collapse.
func NewOrderedSet(values []types.Field) *OrderedSet {
	tree := btree.NewG[types.Field](orderedSetDegree, types.AccurateLess)
	for _, v := range values {
		tree.ReplaceOrInsert(v)
	}
	return &OrderedSet{tree: tree}
}

// Size returns the number of distinct values.
func (s *OrderedSet) Size() int {
	return s.tree.Len()
}

// Values returns the elements in ascending order.
func (s *OrderedSet) Values() []types.Field {
	out := make([]types.Field, 0, s.tree.Len())
	s.tree.Ascend(func(v types.Field) bool {
		out = append(out, v)
		return true
	})
	return out
}

// MayBeTrueInRange reports {true, false} when r is a single value that is
// in the set, {true, true} when some element falls into r and {false, true}
// otherwise.
func (s *OrderedSet) MayBeTrueInRange(r Range) BoolMask {
	found := false
	visit := func(v types.Field) bool {
		if r.LeftBounded && !r.LeftIncluded && types.AccurateEquals(v, r.Left) {
			return true
		}
		if r.RightBounded {
			c := types.Compare(v, r.Right)
			if c > 0 || (c == 0 && !r.RightIncluded) {
				return false
			}
		}
		found = true
		return false
	}
	if r.LeftBounded {
		s.tree.AscendGreaterOrEqual(r.Left, visit)
	} else {
		s.tree.Ascend(visit)
	}

	if !found {
		return MaskAlwaysFalse
	}
	if r.IsPoint() {
		return MaskAlwaysTrue
	}
	return MaskMaybe
}
