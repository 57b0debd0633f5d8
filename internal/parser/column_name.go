package parser

import (
	"strings"

	"github.com/harshithgowdakt/granulekey/internal/types"
)

// canonicalFunctionNames maps lowercase spellings of built-in operators to
// the names used in canonical column names.
var canonicalFunctionNames = map[string]string{
	"and":             "and",
	"or":              "or",
	"not":             "not",
	"in":              "in",
	"notin":           "notIn",
	"like":            "like",
	"notlike":         "notLike",
	"indexhint":       "indexHint",
	"equals":          "equals",
	"notequals":       "notEquals",
	"less":            "less",
	"greater":         "greater",
	"lessorequals":    "lessOrEquals",
	"greaterorequals": "greaterOrEquals",
	"tuple":           "tuple",
	"negate":          "negate",
	"plus":            "plus",
	"minus":           "minus",
	"multiply":        "multiply",
	"divide":          "divide",
}

// operatorFunctions maps binary operator symbols to function names.
var operatorFunctions = map[string]string{
	"AND": "and",
	"OR":  "or",
	"=":   "equals",
	"==":  "equals",
	"!=":  "notEquals",
	"<>":  "notEquals",
	"<":   "less",
	">":   "greater",
	"<=":  "lessOrEquals",
	">=":  "greaterOrEquals",
	"+":   "plus",
	"-":   "minus",
	"*":   "multiply",
	"/":   "divide",
}

// NormalizeFunctionName returns the canonical spelling of built-in operator
// functions and leaves every other name untouched.
func NormalizeFunctionName(name string) string {
	if n, ok := canonicalFunctionNames[strings.ToLower(name)]; ok {
		return n
	}
	return name
}

// AsFunction views expr as a function application. Binary and unary
// operators are reported under their function names (a = 1 is equals(a, 1),
// NOT x is not(x), -x is negate(x)). ok is false for leaves.
func AsFunction(expr Expression) (name string, args []Expression, ok bool) {
	switch e := expr.(type) {
	case *FunctionCall:
		return NormalizeFunctionName(e.Name), e.Args, true
	case *BinaryExpr:
		fn, known := operatorFunctions[strings.ToUpper(e.Op)]
		if !known {
			return "", nil, false
		}
		return fn, []Expression{e.Left, e.Right}, true
	case *UnaryExpr:
		switch strings.ToUpper(e.Op) {
		case "NOT":
			return "not", []Expression{e.Expr}, true
		case "-":
			return "negate", []Expression{e.Expr}, true
		}
	}
	return "", nil, false
}

// ColumnName returns the canonical name of an expression: stable and equal
// for equivalent expressions regardless of operator syntax, e.g.
// "intHash32(UserID)" or "equals(a, 5)".
func ColumnName(expr Expression) string {
	var sb strings.Builder
	writeColumnName(&sb, expr)
	return sb.String()
}

func writeColumnName(sb *strings.Builder, expr Expression) {
	switch e := expr.(type) {
	case nil:
		return
	case *ColumnRef:
		sb.WriteString(e.Name)
	case *LiteralExpr:
		sb.WriteString(types.FromValue(e.Value).String())
	case *TupleExpr:
		writeCall(sb, "tuple", e.Items)
	case *StarExpr:
		sb.WriteString("*")
	default:
		if name, args, ok := AsFunction(expr); ok {
			writeCall(sb, name, args)
			return
		}
		sb.WriteString(ExprToSQL(expr))
	}
}

func writeCall(sb *strings.Builder, name string, args []Expression) {
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeColumnName(sb, a)
	}
	sb.WriteByte(')')
}

// ExtractColumnRefs returns the distinct column names referenced by expr in
// order of first appearance.
func ExtractColumnRefs(expr Expression) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(Expression)
	walk = func(e Expression) {
		switch n := e.(type) {
		case *ColumnRef:
			if !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n.Name)
			}
		case *TupleExpr:
			for _, it := range n.Items {
				walk(it)
			}
		default:
			if _, args, ok := AsFunction(e); ok {
				for _, a := range args {
					walk(a)
				}
			}
		}
	}
	walk(expr)
	return out
}
