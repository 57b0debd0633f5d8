package storage

import (
	"github.com/harshithgowdakt/granulekey/internal/types"
)

// boxCallback is invoked per hyperrectangle; returning true stops the walk.
type boxCallback func(box Hyperrectangle) (bool, error)

// forAnyBox covers the set of key tuples between left and right (in
// lexicographic order) with hyperrectangles and calls cb on each until one
// returns true. Unbounded sides ignore the corresponding key slice. box must
// have keySize entries; entries at and after prefix are overwritten.
//
// For (x1, y1) .. (x2, y2) with x1 < x2 the pieces are
//
//	(x1 .. x2) x (-inf .. +inf)
//	[x1]       x [y1 .. +inf)
//	[x2]       x (-inf .. y2]
//
// and the same split recurses into the caps for longer keys.
func forAnyBox(
	keySize int,
	left, right []types.Field,
	leftBounded, rightBounded bool,
	box Hyperrectangle,
	prefix int,
	cb boxCallback,
) (bool, error) {
	if !leftBounded && !rightBounded {
		return cb(box)
	}

	if leftBounded && rightBounded {
		for prefix < keySize && types.AccurateEquals(left[prefix], right[prefix]) {
			box[prefix] = PointRange(left[prefix])
			prefix++
		}
	}

	if prefix == keySize {
		return cb(box)
	}

	if prefix+1 == keySize {
		switch {
		case leftBounded && rightBounded:
			box[prefix] = NewRange(left[prefix], true, right[prefix], true)
		case leftBounded:
			box[prefix] = CreateLeftBounded(left[prefix], true)
		default:
			box[prefix] = CreateRightBounded(right[prefix], true)
		}
		return cb(box)
	}

	switch {
	case leftBounded && rightBounded:
		box[prefix] = NewRange(left[prefix], false, right[prefix], false)
	case leftBounded:
		box[prefix] = CreateLeftBounded(left[prefix], false)
	default:
		box[prefix] = CreateRightBounded(right[prefix], false)
	}
	for i := prefix + 1; i < keySize; i++ {
		box[i] = WholeRange()
	}
	if found, err := cb(box); found || err != nil {
		return found, err
	}

	if leftBounded {
		box[prefix] = PointRange(left[prefix])
		if found, err := forAnyBox(keySize, left, right, true, false, box, prefix+1, cb); found || err != nil {
			return found, err
		}
	}

	if rightBounded {
		box[prefix] = PointRange(right[prefix])
		if found, err := forAnyBox(keySize, left, right, false, true, box, prefix+1, cb); found || err != nil {
			return found, err
		}
	}

	return false, nil
}
