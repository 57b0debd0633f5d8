package parser

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Literals
	TokenIdentifier TokenType = iota
	TokenNumber               // integer or float literal
	TokenString               // 'single-quoted string'

	// Keywords
	TokenSELECT
	TokenFROM
	TokenWHERE
	TokenPREWHERE
	TokenORDER
	TokenBY
	TokenLIMIT
	TokenGROUP
	TokenCREATE
	TokenTABLE
	TokenENGINE
	TokenPARTITION
	TokenPRIMARY
	TokenKEY
	TokenAS
	TokenAND
	TokenOR
	TokenNOT
	TokenIN
	TokenLIKE
	TokenBETWEEN
	TokenNULL
	TokenASC
	TokenDESC
	TokenIF
	TokenEXISTS

	// Operators and punctuation
	TokenLParen    // (
	TokenRParen    // )
	TokenComma     // ,
	TokenStar      // *
	TokenEQ        // = or ==
	TokenNEQ       // != or <>
	TokenLT        // <
	TokenGT        // >
	TokenLTE       // <=
	TokenGTE       // >=
	TokenPlus      // +
	TokenMinus     // -
	TokenSlash     // /
	TokenDot       // .
	TokenSemicolon // ;

	TokenEOF
)

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Col     int
}

var keywords = map[string]TokenType{
	"SELECT":    TokenSELECT,
	"FROM":      TokenFROM,
	"WHERE":     TokenWHERE,
	"PREWHERE":  TokenPREWHERE,
	"ORDER":     TokenORDER,
	"BY":        TokenBY,
	"LIMIT":     TokenLIMIT,
	"GROUP":     TokenGROUP,
	"CREATE":    TokenCREATE,
	"TABLE":     TokenTABLE,
	"ENGINE":    TokenENGINE,
	"PARTITION": TokenPARTITION,
	"PRIMARY":   TokenPRIMARY,
	"KEY":       TokenKEY,
	"AS":        TokenAS,
	"AND":       TokenAND,
	"OR":        TokenOR,
	"NOT":       TokenNOT,
	"IN":        TokenIN,
	"LIKE":      TokenLIKE,
	"BETWEEN":   TokenBETWEEN,
	"NULL":      TokenNULL,
	"ASC":       TokenASC,
	"DESC":      TokenDESC,
	"IF":        TokenIF,
	"EXISTS":    TokenEXISTS,
}

// LookupKeyword returns the keyword token type for an identifier, or TokenIdentifier.
func LookupKeyword(ident string) TokenType {
	// Case-insensitive lookup
	upper := toUpper(ident)
	if tt, ok := keywords[upper]; ok {
		return tt
	}
	return TokenIdentifier
}

func toUpper(s string) string {
	b := make([]byte, len(s))
	for i := range len(s) {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		} else {
			b[i] = c
		}
	}
	return string(b)
}
