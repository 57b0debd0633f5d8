package storage

import (
	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/granulekey/internal/functions"
	"github.com/harshithgowdakt/granulekey/internal/types"
)

// MayBeTrueInRange reports whether the condition can hold for some key tuple
// in [left, right], comparing the first usedKeySize key columns. dataTypes
// gives the key column types used by monotonic function checks; missing
// entries are unknown.
func (kc *KeyCondition) MayBeTrueInRange(usedKeySize int, left, right []types.Field, dataTypes []types.DataType) (bool, error) {
	if len(left) < usedKeySize || len(right) < usedKeySize {
		return false, errors.Newf("key tuples of size %d and %d are shorter than %d", len(left), len(right), usedKeySize)
	}
	return kc.mayBeTrueInRange(usedKeySize, left, right, true, dataTypes)
}

// MayBeTrueAfter reports whether the condition can hold for some key tuple
// at or after left.
func (kc *KeyCondition) MayBeTrueAfter(usedKeySize int, left []types.Field, dataTypes []types.DataType) (bool, error) {
	if len(left) < usedKeySize {
		return false, errors.Newf("key tuple of size %d is shorter than %d", len(left), usedKeySize)
	}
	return kc.mayBeTrueInRange(usedKeySize, left, nil, false, dataTypes)
}

func (kc *KeyCondition) mayBeTrueInRange(usedKeySize int, left, right []types.Field, rightBounded bool, dataTypes []types.DataType) (bool, error) {
	box := make(Hyperrectangle, usedKeySize)
	return forAnyBox(usedKeySize, left, right, true, rightBounded, box, 0, func(box Hyperrectangle) (bool, error) {
		mask, err := kc.CheckInHyperrectangle(box, dataTypes)
		if err != nil {
			return false, err
		}
		return mask.CanBeTrue, nil
	})
}

// CheckInHyperrectangle evaluates the compiled RPN condition against the given
// hyperrectangle (one Range per key column). Key columns beyond the end of
// box are treated as unbounded.
func (kc *KeyCondition) CheckInHyperrectangle(box Hyperrectangle, dataTypes []types.DataType) (BoolMask, error) {
	stack := make([]BoolMask, 0, len(kc.rpn))

	for i := range kc.rpn {
		node := &kc.rpn[i]
		switch node.function {
		case rpnFunctionUnknown:
			stack = append(stack, MaskMaybe)
		case rpnAlwaysTrue:
			stack = append(stack, MaskAlwaysTrue)
		case rpnAlwaysFalse:
			stack = append(stack, MaskAlwaysFalse)
		case rpnFunctionInRange, rpnFunctionNotInRange:
			keyRange := keyRangeOf(box, node.keyColumn)
			if len(node.monotonicChain) > 0 {
				transformed, ok := applyMonotonicChain(node.monotonicChain, keyRange, typeOf(dataTypes, node.keyColumn))
				if !ok {
					stack = append(stack, MaskMaybe)
					continue
				}
				keyRange = transformed
			}
			mask := BoolMask{
				CanBeTrue:  node.rangeValue.Intersects(keyRange),
				CanBeFalse: !node.rangeValue.Contains(keyRange),
			}
			if node.function == rpnFunctionNotInRange {
				mask = mask.Not()
			}
			stack = append(stack, mask)
		case rpnFunctionInSet, rpnFunctionNotInSet:
			if node.set == nil {
				return BoolMask{}, newLogicalError("set for IN is not created yet")
			}
			if len(node.monotonicChain) > 0 {
				stack = append(stack, MaskMaybe)
				continue
			}
			mask := node.set.MayBeTrueInRange(keyRangeOf(box, node.keyColumn))
			if node.function == rpnFunctionNotInSet {
				mask = mask.Not()
			}
			stack = append(stack, mask)
		case rpnFunctionNot, rpnFunctionAnd, rpnFunctionOr:
			var err error
			if stack, err = applyConnective(stack, node.function); err != nil {
				return BoolMask{}, err
			}
		default:
			return BoolMask{}, newLogicalError("unexpected function type %d in KeyCondition::RPNElement", node.function)
		}
	}

	if len(stack) != 1 {
		return BoolMask{}, newLogicalError("unexpected stack size %d in KeyCondition::checkInHyperrectangle", len(stack))
	}
	return stack[0], nil
}

func applyConnective(stack []BoolMask, fn rpnFunction) ([]BoolMask, error) {
	switch fn {
	case rpnFunctionNot:
		if len(stack) < 1 {
			return nil, newLogicalError("stack underflow on NOT")
		}
		stack[len(stack)-1] = stack[len(stack)-1].Not()
		return stack, nil
	case rpnFunctionAnd, rpnFunctionOr:
		if len(stack) < 2 {
			return nil, newLogicalError("stack underflow on binary connective")
		}
		b := stack[len(stack)-1]
		a := stack[len(stack)-2]
		stack = stack[:len(stack)-2]
		if fn == rpnFunctionAnd {
			return append(stack, a.And(b)), nil
		}
		return append(stack, a.Or(b)), nil
	}
	return nil, newLogicalError("unexpected connective %d", fn)
}

func keyRangeOf(box Hyperrectangle, keyColumn int) Range {
	if keyColumn < len(box) {
		return box[keyColumn]
	}
	return WholeRange()
}

func typeOf(dataTypes []types.DataType, keyColumn int) types.DataType {
	if keyColumn < len(dataTypes) {
		return dataTypes[keyColumn]
	}
	return types.TypeUnknown
}

// applyMonotonicChain maps a key range through the chain, innermost function
// first. ok is false when some function is not monotonic over the range or
// cannot be applied. Transformed endpoints are always included since a
// non-strict function can map an open end onto a value reached inside.
func applyMonotonicChain(chain []functions.Function, r Range, dt types.DataType) (Range, bool) {
	r = r.withoutInfiniteBounds()
	for _, fn := range chain {
		m := fn.Monotonicity(dt, r.leftOrInf(), r.rightOrInf())
		if !m.IsMonotonic {
			return Range{}, false
		}

		next, err := fn.ReturnType([]types.DataType{dt})
		if err != nil || next == types.TypeUnknown {
			return Range{}, false
		}
		if r.LeftBounded {
			t, v, err := fn.Apply(dt, r.Left)
			if err != nil || t == types.TypeUnknown {
				return Range{}, false
			}
			r.Left, r.LeftIncluded = v, true
		}
		if r.RightBounded {
			t, v, err := fn.Apply(dt, r.Right)
			if err != nil || t == types.TypeUnknown {
				return Range{}, false
			}
			r.Right, r.RightIncluded = v, true
		}
		dt = next

		if !m.IsPositive {
			r = r.SwapLeftAndRight()
		}
	}
	return r, true
}
