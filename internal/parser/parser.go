package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Parser is a recursive descent SQL parser.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser from a slice of tokens.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// Parse parses the token stream into a statement.
func (p *Parser) Parse() (Statement, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenCREATE:
		return p.parseCreateTable()
	case TokenSELECT:
		return p.parseSelect()
	default:
		return nil, p.errorf("unexpected token %q, expected a statement", tok.Literal)
	}
}

// ParseSQL is a convenience function: lex + parse a SQL string.
func ParseSQL(sql string) (Statement, error) {
	lexer := NewLexer(sql)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, err
	}
	parser := NewParser(tokens)
	return parser.Parse()
}

// ParseSelect parses a SELECT statement.
func ParseSelect(sql string) (*SelectStmt, error) {
	stmt, err := ParseSQL(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*SelectStmt)
	if !ok {
		return nil, errors.Newf("expected SELECT statement, got %T", stmt)
	}
	return sel, nil
}

// ParseCreateTable parses a CREATE TABLE statement.
func ParseCreateTable(sql string) (*CreateTableStmt, error) {
	stmt, err := ParseSQL(sql)
	if err != nil {
		return nil, err
	}
	ct, ok := stmt.(*CreateTableStmt)
	if !ok {
		return nil, errors.Newf("expected CREATE TABLE statement, got %T", stmt)
	}
	return ct, nil
}

// --- Token helpers ---

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(pos int) Token {
	if pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[pos]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.errorf("expected token type %d, got %q (%d)", tt, tok.Literal, tok.Type)
	}
	return tok, nil
}

func (p *Parser) expectKeyword(tt TokenType) error {
	_, err := p.expect(tt)
	return err
}

func (p *Parser) match(tt TokenType) bool {
	if p.peek().Type == tt {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	tok := p.peek()
	prefix := fmt.Sprintf("line %d col %d: ", tok.Line, tok.Col)
	return errors.Newf(prefix+format, args...)
}

// --- CREATE TABLE ---

func (p *Parser) parseCreateTable() (*CreateTableStmt, error) {
	if err := p.expectKeyword(TokenCREATE); err != nil {
		return nil, err
	}
	if err := p.expectKeyword(TokenTABLE); err != nil {
		return nil, err
	}

	stmt := &CreateTableStmt{}

	// IF NOT EXISTS
	if p.peek().Type == TokenIF {
		p.advance()
		if err := p.expectKeyword(TokenNOT); err != nil {
			return nil, err
		}
		if err := p.expectKeyword(TokenEXISTS); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}

	nameTok, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	stmt.TableName = nameTok.Literal

	// Column definitions: ( col1 Type1, col2 Type2, ... )
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	for {
		colName, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		typeName, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, ColumnDefNode{
			Name:     colName.Literal,
			TypeName: typeName,
		})
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	// ENGINE = MergeTree()
	if err := p.expectKeyword(TokenENGINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenEQ); err != nil {
		return nil, err
	}
	engineTok := p.advance()
	stmt.Engine = engineTok.Literal
	if p.match(TokenLParen) {
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
	}

	for {
		switch p.peek().Type {
		case TokenORDER:
			p.advance()
			if err := p.expectKeyword(TokenBY); err != nil {
				return nil, err
			}
			if stmt.OrderBy, err = p.parseKeyExprList(); err != nil {
				return nil, err
			}
		case TokenPRIMARY:
			p.advance()
			if err := p.expectKeyword(TokenKEY); err != nil {
				return nil, err
			}
			if stmt.PrimaryKey, err = p.parseKeyExprList(); err != nil {
				return nil, err
			}
		case TokenPARTITION:
			p.advance()
			if err := p.expectKeyword(TokenBY); err != nil {
				return nil, err
			}
			if stmt.PartitionBy, err = p.parseExpression(); err != nil {
				return nil, err
			}
		default:
			return stmt, nil
		}
	}
}

// parseTypeName reads a column type, including one level of wrapping such
// as LowCardinality(String).
func (p *Parser) parseTypeName() (string, error) {
	colType, err := p.expect(TokenIdentifier)
	if err != nil {
		return "", err
	}
	typeName := colType.Literal
	if p.match(TokenLParen) {
		inner, err := p.expect(TokenIdentifier)
		if err != nil {
			return "", err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return "", err
		}
		typeName += "(" + inner.Literal + ")"
	}
	return typeName, nil
}

// parseKeyExprList parses either (e1, e2, ...) or a single expression. An
// empty list and tuple() both mean "no key".
func (p *Parser) parseKeyExprList() ([]Expression, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	switch e := expr.(type) {
	case *TupleExpr:
		return e.Items, nil
	case *FunctionCall:
		if e.Name == "tuple" {
			return e.Args, nil
		}
	}
	return []Expression{expr}, nil
}

// --- SELECT ---

func (p *Parser) parseSelect() (*SelectStmt, error) {
	if err := p.expectKeyword(TokenSELECT); err != nil {
		return nil, err
	}

	stmt := &SelectStmt{}

	for {
		se, err := p.parseSelectExpr()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, se)
		if !p.match(TokenComma) {
			break
		}
	}

	if p.peek().Type == TokenFROM {
		p.advance()
		nameTok, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		stmt.From = nameTok.Literal
	}

	if p.peek().Type == TokenPREWHERE {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Prewhere = expr
	}

	if p.peek().Type == TokenWHERE {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Where = expr
	}

	if p.peek().Type == TokenGROUP {
		p.advance()
		if err := p.expectKeyword(TokenBY); err != nil {
			return nil, err
		}
		for {
			colTok, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			stmt.GroupBy = append(stmt.GroupBy, colTok.Literal)
			if !p.match(TokenComma) {
				break
			}
		}
	}

	if p.peek().Type == TokenORDER {
		p.advance()
		if err := p.expectKeyword(TokenBY); err != nil {
			return nil, err
		}
		for {
			colTok, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			desc := false
			if p.peek().Type == TokenDESC {
				p.advance()
				desc = true
			} else if p.peek().Type == TokenASC {
				p.advance()
			}
			stmt.OrderBy = append(stmt.OrderBy, OrderByExpr{Column: colTok.Literal, Desc: desc})
			if !p.match(TokenComma) {
				break
			}
		}
	}

	if p.peek().Type == TokenLIMIT {
		p.advance()
		numTok, err := p.expect(TokenNumber)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(numTok.Literal, 10, 64)
		if err != nil {
			return nil, errors.Newf("invalid LIMIT value: %s", numTok.Literal)
		}
		stmt.Limit = &n
	}

	if t := p.peek().Type; t != TokenEOF && t != TokenSemicolon {
		return nil, p.errorf("unexpected token %q after SELECT", p.peek().Literal)
	}
	return stmt, nil
}

func (p *Parser) parseSelectExpr() (SelectExpr, error) {
	if p.peek().Type == TokenStar {
		p.advance()
		return SelectExpr{Expr: &StarExpr{}}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return SelectExpr{}, err
	}

	var alias string
	if p.peek().Type == TokenAS {
		p.advance()
		aliasTok, err := p.expect(TokenIdentifier)
		if err != nil {
			return SelectExpr{}, err
		}
		alias = aliasTok.Literal
	} else if p.peek().Type == TokenIdentifier {
		// Alias without AS, only when followed by the end of the item.
		nextTok := p.peek()
		switch p.peekAt(p.pos + 1).Type {
		case TokenComma, TokenFROM, TokenEOF, TokenSemicolon, TokenPREWHERE,
			TokenWHERE, TokenGROUP, TokenORDER, TokenLIMIT:
			alias = nextTok.Literal
			p.advance()
		}
	}

	return SelectExpr{Expr: expr, Alias: alias}, nil
}

// --- Expression parsing (recursive descent with precedence) ---
// Precedence (lowest to highest): OR, AND, NOT, comparison, addition, multiplication, unary, primary

func (p *Parser) parseExpression() (Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenOR {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenAND {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expression, error) {
	if p.peek().Type == TokenNOT {
		p.advance()
		expr, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "NOT", Expr: expr}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}

	switch p.peek().Type {
	case TokenEQ, TokenNEQ, TokenLT, TokenGT, TokenLTE, TokenGTE:
		op := p.advance().Literal
		right, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: op, Left: left, Right: right}, nil
	case TokenIN:
		p.advance()
		return p.parseInRHS("in", left)
	case TokenLIKE:
		p.advance()
		return p.parseLikeRHS("like", left)
	case TokenBETWEEN:
		p.advance()
		return p.parseBetween(left)
	case TokenNOT:
		switch p.peekAt(p.pos + 1).Type {
		case TokenIN:
			p.pos += 2
			return p.parseInRHS("notIn", left)
		case TokenLIKE:
			p.pos += 2
			return p.parseLikeRHS("notLike", left)
		case TokenBETWEEN:
			p.pos += 2
			between, err := p.parseBetween(left)
			if err != nil {
				return nil, err
			}
			return &UnaryExpr{Op: "NOT", Expr: between}, nil
		}
	}
	return left, nil
}

func (p *Parser) parseInRHS(name string, left Expression) (Expression, error) {
	right, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	// x IN (1) parses the parentheses away; keep the set shape. Other
	// operands may name a prepared set.
	if lit, ok := right.(*LiteralExpr); ok {
		right = &TupleExpr{Items: []Expression{lit}}
	}
	return &FunctionCall{Name: name, Args: []Expression{left, right}}, nil
}

func (p *Parser) parseLikeRHS(name string, left Expression) (Expression, error) {
	right, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	return &FunctionCall{Name: name, Args: []Expression{left, right}}, nil
}

// parseBetween rewrites x BETWEEN a AND b into x >= a AND x <= b.
func (p *Parser) parseBetween(left Expression) (Expression, error) {
	low, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword(TokenAND); err != nil {
		return nil, err
	}
	high, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{
		Op:    "AND",
		Left:  &BinaryExpr{Op: ">=", Left: left, Right: low},
		Right: &BinaryExpr{Op: "<=", Left: left, Right: high},
	}, nil
}

func (p *Parser) parseAddSub() (Expression, error) {
	left, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenPlus || p.peek().Type == TokenMinus {
		op := p.advance().Literal
		right, err := p.parseMulDiv()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMulDiv() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenStar || p.peek().Type == TokenSlash {
		op := p.advance().Literal
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expression, error) {
	if p.peek().Type == TokenMinus {
		p.advance()
		expr, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "-", Expr: expr}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expression, error) {
	tok := p.peek()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		return parseNumberLiteral(tok.Literal)

	case TokenString:
		p.advance()
		return &LiteralExpr{Value: tok.Literal}, nil

	case TokenNULL:
		p.advance()
		return &LiteralExpr{Value: nil}, nil

	case TokenStar:
		p.advance()
		return &StarExpr{}, nil

	case TokenIdentifier:
		p.advance()
		if p.peek().Type == TokenLParen {
			return p.parseFunctionCall(tok.Literal)
		}
		return &ColumnRef{Name: tok.Literal}, nil

	case TokenAND, TokenOR:
		// and(...) and or(...) in function form take any number of arguments.
		if p.peekAt(p.pos+1).Type == TokenLParen {
			p.advance()
			return p.parseFunctionCall(tok.Literal)
		}
		return nil, p.errorf("unexpected token %q in expression", tok.Literal)

	case TokenLParen:
		p.advance()
		if p.match(TokenRParen) {
			return &TupleExpr{}, nil
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.peek().Type == TokenComma {
			items := []Expression{expr}
			for p.match(TokenComma) {
				item, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			expr = &TupleExpr{Items: items}
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, p.errorf("unexpected token %q in expression", tok.Literal)
	}
}

func parseNumberLiteral(lit string) (Expression, error) {
	if strings.Contains(lit, ".") {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, err
		}
		return &LiteralExpr{Value: f}, nil
	}
	if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return &LiteralExpr{Value: n}, nil
	}
	u, err := strconv.ParseUint(lit, 10, 64)
	if err != nil {
		return nil, err
	}
	return &LiteralExpr{Value: u}, nil
}

func (p *Parser) parseFunctionCall(name string) (Expression, error) {
	p.advance() // consume (

	var args []Expression
	if p.peek().Type != TokenRParen {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(TokenComma) {
				break
			}
		}
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return &FunctionCall{Name: NormalizeFunctionName(name), Args: args}, nil
}

// ParseExpression parses a standalone SQL expression string into an AST Expression.
func ParseExpression(sql string) (Expression, error) {
	lexer := NewLexer(sql)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens)
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != TokenEOF && p.peek().Type != TokenSemicolon {
		return nil, errors.Newf("unexpected token after expression: %q", p.peek().Literal)
	}
	return expr, nil
}
