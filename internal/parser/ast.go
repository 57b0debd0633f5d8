package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Statement is the top-level AST node.
type Statement interface {
	statementNode()
}

// --- Statements ---

// CreateTableStmt represents CREATE TABLE. Only the parts that describe the
// sorting key are kept.
type CreateTableStmt struct {
	TableName   string
	IfNotExists bool
	Columns     []ColumnDefNode
	Engine      string       // "MergeTree", "AggregatingMergeTree", etc.
	OrderBy     []Expression // sorting key expressions
	PrimaryKey  []Expression // PRIMARY KEY, a prefix of OrderBy; nil when absent
	PartitionBy Expression   // partition expression, or nil if not specified
}

func (*CreateTableStmt) statementNode() {}

// ColumnDefNode defines a column in a CREATE TABLE.
type ColumnDefNode struct {
	Name     string
	TypeName string
}

// SelectStmt represents SELECT.
type SelectStmt struct {
	Columns  []SelectExpr
	From     string // table name
	Prewhere Expression
	Where    Expression
	GroupBy  []string
	OrderBy  []OrderByExpr
	Limit    *int64
}

func (*SelectStmt) statementNode() {}

// SelectExpr represents a single item in the SELECT list.
type SelectExpr struct {
	Expr  Expression
	Alias string // AS alias, or empty
}

// OrderByExpr represents a single ORDER BY item.
type OrderByExpr struct {
	Column string
	Desc   bool
}

// --- Expressions ---

// Expression is a node in an expression tree.
type Expression interface {
	exprNode()
}

// ColumnRef references a column by name.
type ColumnRef struct {
	Name string
}

func (*ColumnRef) exprNode() {}

// LiteralExpr is a literal value (int64, uint64, float64, string, or nil for NULL).
type LiteralExpr struct {
	Value interface{}
}

func (*LiteralExpr) exprNode() {}

// BinaryExpr is a binary operation.
type BinaryExpr struct {
	Op    string // +, -, *, /, =, !=, <, >, <=, >=, AND, OR
	Left  Expression
	Right Expression
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is a unary operation.
type UnaryExpr struct {
	Op   string // NOT, -
	Expr Expression
}

func (*UnaryExpr) exprNode() {}

// FunctionCall represents a function invocation. IN, NOT IN, LIKE and
// NOT LIKE are parsed into calls of in, notIn, like and notLike.
type FunctionCall struct {
	Name string
	Args []Expression
}

func (*FunctionCall) exprNode() {}

// TupleExpr is a parenthesized list, the right-hand side of IN.
type TupleExpr struct {
	Items []Expression
}

func (*TupleExpr) exprNode() {}

// StarExpr represents * in SELECT *.
type StarExpr struct{}

func (*StarExpr) exprNode() {}

// ExprToSQL converts an Expression AST back to its SQL text representation.
func ExprToSQL(expr Expression) string {
	if expr == nil {
		return ""
	}
	switch e := expr.(type) {
	case *ColumnRef:
		return e.Name
	case *LiteralExpr:
		return literalToSQL(e.Value)
	case *FunctionCall:
		switch e.Name {
		case "in", "notIn", "like", "notLike":
			if len(e.Args) == 2 {
				return ExprToSQL(e.Args[0]) + " " + sqlOperatorFor[e.Name] + " " + ExprToSQL(e.Args[1])
			}
		}
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = ExprToSQL(a)
		}
		return e.Name + "(" + strings.Join(args, ", ") + ")"
	case *TupleExpr:
		items := make([]string, len(e.Items))
		for i, a := range e.Items {
			items[i] = ExprToSQL(a)
		}
		return "(" + strings.Join(items, ", ") + ")"
	case *BinaryExpr:
		return ExprToSQL(e.Left) + " " + e.Op + " " + ExprToSQL(e.Right)
	case *UnaryExpr:
		if e.Op == "-" {
			return "-" + ExprToSQL(e.Expr)
		}
		return e.Op + " " + ExprToSQL(e.Expr)
	case *StarExpr:
		return "*"
	default:
		return "?"
	}
}

var sqlOperatorFor = map[string]string{
	"in":      "IN",
	"notIn":   "NOT IN",
	"like":    "LIKE",
	"notLike": "NOT LIKE",
}

func literalToSQL(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
