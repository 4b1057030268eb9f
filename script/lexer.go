package script

import (
	"strings"

	"github.com/BaSui01/scriptflow/types"
)

// Lexer scans script source into tokens. The grammar is line-oriented:
// NEWLINE tokens separate statements, except inside brackets where line
// breaks are joined implicitly (as the surface language does). '#' starts
// a comment running to end of line.
type Lexer struct {
	src    string
	cur    int
	line   int
	col    int
	depth  int // bracket nesting; newlines inside brackets are skipped
	tokens []Token
}

// NewLexer creates a lexer over the given source text.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Scan tokenizes the whole source. The returned slice always ends with an
// EOF token. Fails with a SYNTAX fault on the first illegal character or
// unterminated string.
func (l *Lexer) Scan() ([]Token, error) {
	for !l.atEnd() {
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	// A trailing NEWLINE keeps the parser's statement loop uniform.
	if n := len(l.tokens); n > 0 && l.tokens[n-1].Type != NEWLINE {
		l.emit(NEWLINE, "")
	}
	l.emit(EOF, "")
	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	startLine, startCol := l.line, l.col
	c := l.advance()

	switch c {
	case ' ', '\t', '\r':
		return nil
	case '\n':
		if l.depth == 0 {
			// Collapse blank-line runs into a single NEWLINE.
			if n := len(l.tokens); n > 0 && l.tokens[n-1].Type != NEWLINE {
				l.add(NEWLINE, "", startLine, startCol)
			}
		}
		return nil
	case '#':
		for !l.atEnd() && l.peek() != '\n' {
			l.advance()
		}
		return nil
	case '(':
		l.depth++
		l.add(LPAREN, "(", startLine, startCol)
	case ')':
		l.depth--
		l.add(RPAREN, ")", startLine, startCol)
	case '[':
		l.depth++
		l.add(LBRACKET, "[", startLine, startCol)
	case ']':
		l.depth--
		l.add(RBRACKET, "]", startLine, startCol)
	case '{':
		l.depth++
		l.add(LBRACE, "{", startLine, startCol)
	case '}':
		l.depth--
		l.add(RBRACE, "}", startLine, startCol)
	case ',':
		l.add(COMMA, ",", startLine, startCol)
	case ':':
		l.add(COLON, ":", startLine, startCol)
	case '.':
		l.add(DOT, ".", startLine, startCol)
	case '+':
		l.add(PLUS, "+", startLine, startCol)
	case '-':
		l.add(MINUS, "-", startLine, startCol)
	case '*':
		l.add(STAR, "*", startLine, startCol)
	case '/':
		if l.match('/') {
			l.add(DBLSLASH, "//", startLine, startCol)
		} else {
			l.add(SLASH, "/", startLine, startCol)
		}
	case '%':
		l.add(PERCENT, "%", startLine, startCol)
	case '=':
		if l.match('=') {
			l.add(EQ, "==", startLine, startCol)
		} else {
			l.add(ASSIGN, "=", startLine, startCol)
		}
	case '!':
		if l.match('=') {
			l.add(NEQ, "!=", startLine, startCol)
		} else {
			return l.errorf(startLine, startCol, "unexpected character '!'")
		}
	case '<':
		if l.match('=') {
			l.add(LTE, "<=", startLine, startCol)
		} else {
			l.add(LT, "<", startLine, startCol)
		}
	case '>':
		if l.match('=') {
			l.add(GTE, ">=", startLine, startCol)
		} else {
			l.add(GT, ">", startLine, startCol)
		}
	case '"', '\'':
		return l.scanString(c, startLine, startCol)
	default:
		if isDigit(c) {
			l.scanNumber(startLine, startCol)
			return nil
		}
		if isIdentStart(c) {
			l.scanIdent(startLine, startCol)
			return nil
		}
		return l.errorf(startLine, startCol, "unexpected character %q", string(c))
	}
	return nil
}

func (l *Lexer) scanString(quote byte, line, col int) error {
	var b strings.Builder
	for !l.atEnd() {
		c := l.advance()
		switch c {
		case quote:
			l.add(STRING, b.String(), line, col)
			return nil
		case '\n':
			return l.errorf(line, col, "unterminated string literal")
		case '\\':
			if l.atEnd() {
				return l.errorf(line, col, "unterminated string literal")
			}
			switch e := l.advance(); e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(e)
			default:
				return l.errorf(l.line, l.col-2, "unknown escape '\\%s'", string(e))
			}
		default:
			b.WriteByte(c)
		}
	}
	return l.errorf(line, col, "unterminated string literal")
}

func (l *Lexer) scanNumber(line, col int) {
	start := l.cur - 1
	for !l.atEnd() && isDigit(l.peek()) {
		l.advance()
	}
	typ := INT
	if !l.atEnd() && l.peek() == '.' && l.cur+1 < len(l.src) && isDigit(l.src[l.cur+1]) {
		typ = FLOAT
		l.advance()
		for !l.atEnd() && isDigit(l.peek()) {
			l.advance()
		}
	}
	l.add(typ, l.src[start:l.cur], line, col)
}

func (l *Lexer) scanIdent(line, col int) {
	start := l.cur - 1
	for !l.atEnd() && isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := l.src[start:l.cur]
	if kw, ok := keywords[lexeme]; ok {
		l.add(kw, lexeme, line, col)
		return
	}
	l.add(IDENT, lexeme, line, col)
}

func (l *Lexer) atEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() byte { return l.src[l.cur] }

func (l *Lexer) advance() byte {
	c := l.src[l.cur]
	l.cur++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) match(want byte) bool {
	if l.atEnd() || l.src[l.cur] != want {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) add(typ TokenType, lexeme string, line, col int) {
	l.tokens = append(l.tokens, Token{Type: typ, Lexeme: lexeme, Line: line, Col: col})
}

func (l *Lexer) emit(typ TokenType, lexeme string) {
	l.add(typ, lexeme, l.line, l.col)
}

func (l *Lexer) errorf(line, col int, format string, args ...any) error {
	return types.NewErrorf(types.ErrSyntax, format, args...).WithPos(line, col)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
