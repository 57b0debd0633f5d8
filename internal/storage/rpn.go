package storage

import (
	"strconv"
	"strings"

	"github.com/harshithgowdakt/granulekey/internal/functions"
)

// RPN element types for KeyCondition evaluation.
type rpnFunction uint8

const (
	rpnFunctionUnknown    rpnFunction = iota // unknown condition, evaluates to MaskMaybe
	rpnFunctionInRange                       // key column value is in range
	rpnFunctionNotInRange                    // key column value is NOT in range
	rpnFunctionInSet                         // key column value is in set
	rpnFunctionNotInSet                      // key column value is NOT in set
	rpnFunctionAnd                           // logical AND of top two stack items
	rpnFunctionOr                            // logical OR of top two stack items
	rpnFunctionNot                           // logical NOT of top stack item
	rpnAlwaysTrue                            // constant true
	rpnAlwaysFalse                           // constant false
)

// rpnNode is a single element in the RPN (Reverse Polish Notation) program.
type rpnNode struct {
	function   rpnFunction
	keyColumn  int       // index into the sorting key (range and set leaves)
	rangeValue Range     // range leaves
	set        SetOracle // set leaves
	// monotonicChain lists the functions wrapping the key column, innermost
	// first.
	monotonicChain []functions.Function
}

func (n *rpnNode) isLeaf() bool {
	switch n.function {
	case rpnFunctionInRange, rpnFunctionNotInRange, rpnFunctionInSet, rpnFunctionNotInSet:
		return true
	}
	return false
}

func (n *rpnNode) writeWrappedColumn(sb *strings.Builder) {
	for i := len(n.monotonicChain) - 1; i >= 0; i-- {
		sb.WriteString(n.monotonicChain[i].Name())
		sb.WriteByte('(')
	}
	sb.WriteString("column ")
	sb.WriteString(strconv.Itoa(n.keyColumn))
	for range n.monotonicChain {
		sb.WriteByte(')')
	}
}

func (n *rpnNode) String() string {
	var sb strings.Builder
	switch n.function {
	case rpnFunctionInRange, rpnFunctionNotInRange:
		sb.WriteByte('(')
		n.writeWrappedColumn(&sb)
		if n.function == rpnFunctionNotInRange {
			sb.WriteString(" not")
		}
		sb.WriteString(" in ")
		sb.WriteString(n.rangeValue.String())
		sb.WriteByte(')')
	case rpnFunctionInSet, rpnFunctionNotInSet:
		sb.WriteByte('(')
		n.writeWrappedColumn(&sb)
		if n.function == rpnFunctionInSet {
			sb.WriteString(" in ")
		} else {
			sb.WriteString(" notIn ")
		}
		if sized, ok := n.set.(sizedSet); ok {
			sb.WriteString(strconv.Itoa(sized.Size()))
			sb.WriteString("-element set")
		} else {
			sb.WriteString("unknown size set")
		}
		sb.WriteByte(')')
	case rpnFunctionAnd:
		sb.WriteString("and")
	case rpnFunctionOr:
		sb.WriteString("or")
	case rpnFunctionNot:
		sb.WriteString("not")
	case rpnAlwaysTrue:
		sb.WriteString("true")
	case rpnAlwaysFalse:
		sb.WriteString("false")
	default:
		sb.WriteString("unknown")
	}
	return sb.String()
}
