package storage

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/granulekey/internal/functions"
	"github.com/harshithgowdakt/granulekey/internal/parser"
	"github.com/harshithgowdakt/granulekey/internal/types"
)

// Constant is a pre-evaluated constant expression.
type Constant struct {
	Type  types.DataType
	Value types.Field
}

// Constants maps canonical expression names to their values. Any subtree
// whose canonical name is present is treated as a literal.
type Constants map[string]Constant

// FunctionResolver looks up functions by name.
type FunctionResolver interface {
	TryGet(name string) (functions.Function, bool)
}

// SortDescription lists the sorting key expressions. Types is optional; when
// set, constants are converted to the key column type at build time.
type SortDescription struct {
	Columns []string
	Types   []types.DataType
}

// QueryInfo carries the parts of a query that index analysis reads.
type QueryInfo struct {
	Where        parser.Expression
	Prewhere     parser.Expression
	Constants    Constants
	PreparedSets PreparedSets
	// Functions defaults to functions.Default().
	Functions FunctionResolver
	// SQL is the normalized query text, for logs.
	SQL string
}

// KeyCondition compiles a WHERE/PREWHERE expression into an RPN program that
// can be evaluated against ranges of the sorting key. This matches
// ClickHouse's KeyCondition class used for primary-key pruning.
//
// After construction a KeyCondition is read-only and may be evaluated from
// many goroutines at once, except for AddCondition.
type KeyCondition struct {
	rpn        []rpnNode
	keyColumns map[string]int
	keyTypes   []types.DataType

	constants    Constants
	preparedSets PreparedSets
	functions    FunctionResolver
}

// NewKeyCondition builds the condition for a query over a table sorted by
// sortDesc. Parts of the predicate that cannot be used for the key compile to
// unknown atoms, so construction never fails.
func NewKeyCondition(query QueryInfo, sortDesc SortDescription) *KeyCondition {
	kc := &KeyCondition{
		keyColumns:   make(map[string]int, len(sortDesc.Columns)),
		keyTypes:     sortDesc.Types,
		constants:    query.Constants,
		preparedSets: query.PreparedSets,
		functions:    query.Functions,
	}
	if kc.functions == nil {
		kc.functions = functions.Default()
	}
	for i, col := range sortDesc.Columns {
		name := canonicalKeyName(col)
		if _, dup := kc.keyColumns[name]; !dup {
			kc.keyColumns[name] = i
		}
	}

	switch {
	case query.Where != nil && query.Prewhere != nil:
		kc.traverse(query.Where)
		kc.traverse(query.Prewhere)
		kc.rpn = append(kc.rpn, rpnNode{function: rpnFunctionAnd})
	case query.Where != nil:
		kc.traverse(query.Where)
	case query.Prewhere != nil:
		kc.traverse(query.Prewhere)
	default:
		kc.rpn = append(kc.rpn, rpnNode{function: rpnFunctionUnknown})
	}
	return kc
}

// ParseQuery parses a SELECT statement and returns its WHERE and PREWHERE
// predicates.
func ParseQuery(sql string) (QueryInfo, error) {
	sel, err := parser.ParseSelect(sql)
	if err != nil {
		return QueryInfo{}, errors.Wrap(err, "parsing query")
	}
	return QueryInfo{Where: sel.Where, Prewhere: sel.Prewhere, SQL: parser.SelectToSQL(sel)}, nil
}

// NewKeyConditionFromQuery parses a SELECT statement and builds the
// condition from its WHERE and PREWHERE clauses.
func NewKeyConditionFromQuery(sql string, constants Constants, sortDesc SortDescription) (*KeyCondition, error) {
	query, err := ParseQuery(sql)
	if err != nil {
		return nil, err
	}
	query.Constants = constants
	return NewKeyCondition(query, sortDesc), nil
}

// canonicalKeyName normalizes a sorting key expression so that "toYYYYMM(d)"
// and "toYYYYMM( d )" refer to the same column.
func canonicalKeyName(col string) string {
	expr, err := parser.ParseExpression(col)
	if err != nil {
		return strings.TrimSpace(col)
	}
	return parser.ColumnName(expr)
}

// traverse recursively walks the AST in post-order, building the RPN program.
func (kc *KeyCondition) traverse(expr parser.Expression) {
	if name, args, ok := parser.AsFunction(expr); ok {
		switch name {
		case "and", "or", "indexHint":
			if len(args) == 0 {
				break
			}
			connective := rpnFunctionAnd
			if name == "or" {
				connective = rpnFunctionOr
			}
			for _, arg := range args {
				kc.traverse(arg)
			}
			for i := 1; i < len(args); i++ {
				kc.rpn = append(kc.rpn, rpnNode{function: connective})
			}
			return
		case "not":
			if len(args) == 1 {
				kc.traverse(args[0])
				kc.rpn = append(kc.rpn, rpnNode{function: rpnFunctionNot})
				return
			}
		}
	}

	node := rpnNode{function: rpnFunctionUnknown}
	if !kc.atomFromAST(expr, &node) {
		node = rpnNode{function: rpnFunctionUnknown}
	}
	kc.rpn = append(kc.rpn, node)
}

// atomFromAST recognizes constants and key comparisons.
func (kc *KeyCondition) atomFromAST(expr parser.Expression, out *rpnNode) bool {
	if value, ok := kc.constantValue(expr); ok {
		switch {
		case value.IsNull() || value.IsZero():
			out.function = rpnAlwaysFalse
		case value.IsNumeric():
			out.function = rpnAlwaysTrue
		default:
			return false
		}
		return true
	}

	name, args, ok := parser.AsFunction(expr)
	if !ok || len(args) != 2 {
		return false
	}
	handler, ok := atomMap[name]
	if !ok {
		return false
	}

	keyArg, valueArg := args[0], args[1]
	keyColumn, chain, ok := kc.resolveKeyChain(keyArg)
	if !ok {
		// Constant on the left: a < x is x > a.
		keyArg, valueArg = args[1], args[0]
		keyColumn, chain, ok = kc.resolveKeyChain(keyArg)
		if !ok {
			return false
		}
		mirrored, has := mirroredComparison[name]
		if !has {
			return false
		}
		name = mirrored
		handler = atomMap[name]
	}

	for _, fn := range chain {
		if !fn.HasMonotonicityInfo() {
			return false
		}
	}
	targetType := kc.chainResultType(keyColumn, chain)

	out.keyColumn = keyColumn
	out.monotonicChain = chain

	if isSetAtom(name) {
		if len(chain) > 0 {
			return false
		}
		set, ok := kc.setFromAST(valueArg, targetType)
		if !ok {
			return false
		}
		return handler(out, types.Field{}, set)
	}

	value, ok := kc.constantValue(valueArg)
	if !ok || value.IsNull() {
		return false
	}
	if value, ok = types.CoerceField(targetType, value); !ok {
		return false
	}
	return handler(out, value, nil)
}

// constantValue returns the value of a literal or of a subtree found in the
// constants block.
func (kc *KeyCondition) constantValue(expr parser.Expression) (types.Field, bool) {
	if lit, ok := expr.(*parser.LiteralExpr); ok {
		return types.FromValue(lit.Value), true
	}
	if c, ok := kc.constants[parser.ColumnName(expr)]; ok {
		return c.Value, true
	}
	return kc.foldConstant(expr)
}

// foldConstant evaluates a unary function applied to a constant, such as
// xxHash64('abc') or intHash32(5).
func (kc *KeyCondition) foldConstant(expr parser.Expression) (types.Field, bool) {
	name, args, ok := parser.AsFunction(expr)
	if !ok || len(args) != 1 {
		return types.Field{}, false
	}
	fn, ok := kc.functions.TryGet(name)
	if !ok {
		return types.Field{}, false
	}
	arg, ok := kc.constantValue(args[0])
	if !ok || arg.IsNull() {
		return types.Field{}, false
	}
	_, v, err := fn.Apply(literalType(arg), arg)
	if err != nil {
		return types.Field{}, false
	}
	return v, true
}

// literalType is the type a bare literal is evaluated with.
func literalType(f types.Field) types.DataType {
	switch f.Kind() {
	case types.KindInt64:
		return types.TypeInt64
	case types.KindUInt64:
		return types.TypeUInt64
	case types.KindFloat64:
		return types.TypeFloat64
	case types.KindString:
		return types.TypeString
	}
	return types.TypeUnknown
}

// resolveKeyChain recognizes f_k(...f_1(key)...) and returns the key column
// index together with the chain, innermost function first.
func (kc *KeyCondition) resolveKeyChain(expr parser.Expression) (int, []functions.Function, bool) {
	if idx, ok := kc.keyColumns[parser.ColumnName(expr)]; ok {
		return idx, nil, true
	}
	name, args, ok := parser.AsFunction(expr)
	if !ok || len(args) != 1 {
		return 0, nil, false
	}
	fn, ok := kc.functions.TryGet(name)
	if !ok {
		return 0, nil, false
	}
	idx, chain, ok := kc.resolveKeyChain(args[0])
	if !ok {
		return 0, nil, false
	}
	return idx, append(chain, fn), true
}

// keyType returns the declared type of a key column, or TypeUnknown.
func (kc *KeyCondition) keyType(keyColumn int) types.DataType {
	if keyColumn < len(kc.keyTypes) {
		return kc.keyTypes[keyColumn]
	}
	return types.TypeUnknown
}

func (kc *KeyCondition) chainResultType(keyColumn int, chain []functions.Function) types.DataType {
	dt := kc.keyType(keyColumn)
	for _, fn := range chain {
		if dt == types.TypeUnknown {
			return dt
		}
		next, err := fn.ReturnType([]types.DataType{dt})
		if err != nil {
			return types.TypeUnknown
		}
		dt = next
	}
	return dt
}

// setFromAST resolves the right-hand side of IN: a prepared set, or a
// literal tuple of constants.
func (kc *KeyCondition) setFromAST(expr parser.Expression, dt types.DataType) (SetOracle, bool) {
	if set, ok := kc.preparedSets[parser.ColumnName(expr)]; ok {
		return set, set != nil
	}

	var items []parser.Expression
	switch e := expr.(type) {
	case *parser.TupleExpr:
		items = e.Items
	case *parser.FunctionCall:
		if e.Name != "tuple" {
			return nil, false
		}
		items = e.Args
	default:
		items = []parser.Expression{expr}
	}

	values := make([]types.Field, 0, len(items))
	for _, item := range items {
		v, ok := kc.constantValue(item)
		if !ok {
			return nil, false
		}
		// Elements that cannot be converted to the key type never match.
		if v, ok = types.CoerceField(dt, v); ok {
			values = append(values, v)
		}
	}
	return NewOrderedSet(values), true
}

// AddCondition conjoins "column in r" to the condition. It returns false if
// column is not part of the sorting key. It must not run concurrently with
// evaluation.
func (kc *KeyCondition) AddCondition(column string, r Range) bool {
	idx, ok := kc.keyColumns[canonicalKeyName(column)]
	if !ok {
		return false
	}
	kc.rpn = append(kc.rpn,
		rpnNode{function: rpnFunctionInRange, keyColumn: idx, rangeValue: r},
		rpnNode{function: rpnFunctionAnd},
	)
	return true
}

// MaxKeyColumn returns the largest key column index used by any atom.
// Callers need at most MaxKeyColumn()+1 key columns to evaluate.
func (kc *KeyCondition) MaxKeyColumn() int {
	res := 0
	for i := range kc.rpn {
		if kc.rpn[i].isLeaf() && kc.rpn[i].keyColumn > res {
			res = kc.rpn[i].keyColumn
		}
	}
	return res
}

// AlwaysUnknownOrTrue reports whether the condition can never prune
// anything: evaluated with every key atom as "maybe false", it still comes
// out possibly true.
func (kc *KeyCondition) AlwaysUnknownOrTrue() (bool, error) {
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
		case rpnFunctionInRange, rpnFunctionNotInRange, rpnFunctionInSet, rpnFunctionNotInSet:
			stack = append(stack, BoolMask{})
		case rpnFunctionNot, rpnFunctionAnd, rpnFunctionOr:
			var err error
			if stack, err = applyConnective(stack, node.function); err != nil {
				return false, err
			}
		default:
			return false, newLogicalError("unexpected function type in KeyCondition::RPNElement")
		}
	}
	if len(stack) != 1 {
		return false, newLogicalError("unexpected stack size %d in KeyCondition::alwaysUnknownOrTrue", len(stack))
	}
	return stack[0].CanBeTrue, nil
}

func (kc *KeyCondition) String() string {
	parts := make([]string, len(kc.rpn))
	for i := range kc.rpn {
		parts[i] = kc.rpn[i].String()
	}
	return strings.Join(parts, ", ")
}
