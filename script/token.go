package script

import "fmt"

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	NEWLINE
	ILLEGAL

	// Literals & identifiers
	IDENT
	INT
	FLOAT
	STRING

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	LBRACE   // "{"
	RBRACE   // "}"
	COMMA    // ","
	COLON    // ":"
	DOT      // "."

	// Operators
	ASSIGN   // "="
	PLUS     // "+"
	MINUS    // "-"
	STAR     // "*"
	SLASH    // "/"
	DBLSLASH // "//"
	PERCENT  // "%"
	EQ       // "=="
	NEQ      // "!="
	LT       // "<"
	LTE      // "<="
	GT       // ">"
	GTE      // ">="

	// Keywords
	IMPORT
	RETURN
	AND
	OR
	NOT
	TRUE
	FALSE
	NONE
)

var keywords = map[string]TokenType{
	"import": IMPORT,
	"return": RETURN,
	"and":    AND,
	"or":     OR,
	"not":    NOT,
	"True":   TRUE,
	"False":  FALSE,
	"None":   NONE,
}

// Token is one lexical token with its source position.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int // 1-based
	Col    int // 1-based
}

func (t Token) String() string {
	if t.Type == EOF {
		return "end of input"
	}
	if t.Type == NEWLINE {
		return "newline"
	}
	return fmt.Sprintf("%q", t.Lexeme)
}
