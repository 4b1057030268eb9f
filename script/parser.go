// Package script turns raw script text into a syntax tree. It is the only
// component that can fail on malformed input text itself; every node it
// produces carries its source position so later stages can attribute
// faults accurately.
//
// The surface grammar is a flat, Python-flavored statement language:
//
//	import math
//	numbers = [1, 2, 3]
//	result = add(x=10, y=20)
//	return result
//
// There are no block statements; statements are separated by newlines and
// line breaks inside brackets are joined implicitly.
package script

import (
	"strconv"

	"github.com/BaSui01/scriptflow/types"
)

// Parse scans and parses source text into a Unit, or fails with a SYNTAX
// fault carrying the original diagnostic position. No side effects.
func Parse(src string) (*Unit, error) {
	tokens, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseUnit()
}

type parser struct {
	tokens []Token
	cur    int
}

func (p *parser) parseUnit() (*Unit, error) {
	unit := &Unit{}
	for !p.check(EOF) {
		if p.match(NEWLINE) {
			continue
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		unit.Body = append(unit.Body, stmt)
		if !p.check(EOF) {
			if _, err := p.expect(NEWLINE, "expected end of statement"); err != nil {
				return nil, err
			}
		}
	}
	return unit, nil
}

func (p *parser) parseStmt() (Stmt, error) {
	tok := p.peek()
	switch tok.Type {
	case IMPORT:
		p.advance()
		name, err := p.expect(IDENT, "expected module name after 'import'")
		if err != nil {
			return nil, err
		}
		return &ImportStmt{Module: name.Lexeme, P: pos(tok)}, nil

	case RETURN:
		p.advance()
		if p.check(NEWLINE) || p.check(EOF) {
			return &ReturnStmt{P: pos(tok)}, nil
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ReturnStmt{Value: value, P: pos(tok)}, nil

	case IDENT:
		// Lookahead for `name = expr`; a lone '=' after anything more
		// complex is a syntax error surfaced by parseExpr.
		if p.peekAt(1).Type == ASSIGN {
			name := p.advance()
			p.advance() // '='
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return &AssignStmt{Name: name.Lexeme, Value: value, P: pos(name)}, nil
		}
	}

	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{X: x, P: x.Pos()}, nil
}

// Precedence climbing: or < and < not < comparison < additive <
// multiplicative < unary < postfix.

func (p *parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.check(OR) {
		op := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "or", X: left, Y: right, P: pos(op)}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.check(AND) {
		op := p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "and", X: left, Y: right, P: pos(op)}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.check(NOT) {
		op := p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "not", X: x, P: pos(op)}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := p.matchAny(EQ, NEQ, LT, LTE, GT, GTE); ok {
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: op.Lexeme, X: left, Y: right, P: pos(op)}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchAny(PLUS, MINUS)
		if !ok {
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Lexeme, X: left, Y: right, P: pos(op)}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchAny(STAR, SLASH, DBLSLASH, PERCENT)
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Lexeme, X: left, Y: right, P: pos(op)}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if op, ok := p.matchAny(MINUS, PLUS); ok {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op.Type == PLUS {
			return x, nil
		}
		return &UnaryExpr{Op: "-", X: x, P: pos(op)}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(LPAREN):
			open := p.advance()
			call := &CallExpr{Fun: x, P: pos(open)}
			if err := p.parseArgs(call); err != nil {
				return nil, err
			}
			x = call
		case p.check(DOT):
			p.advance()
			name, err := p.expect(IDENT, "expected attribute name after '.'")
			if err != nil {
				return nil, err
			}
			x = &AttrExpr{X: x, Name: name.Lexeme, P: pos(name)}
		case p.check(LBRACKET):
			open := p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET, "expected ']' after index"); err != nil {
				return nil, err
			}
			x = &IndexExpr{X: x, Index: idx, P: pos(open)}
		default:
			return x, nil
		}
	}
}

// parseArgs parses a call argument list. Positional arguments must precede
// keyword arguments, matching the surface language's rule.
func (p *parser) parseArgs(call *CallExpr) error {
	if p.match(RPAREN) {
		return nil
	}
	for {
		if p.check(IDENT) && p.peekAt(1).Type == ASSIGN {
			name := p.advance()
			p.advance() // '='
			value, err := p.parseExpr()
			if err != nil {
				return err
			}
			call.Keywords = append(call.Keywords, KeywordArg{
				Name: name.Lexeme, Value: value, P: pos(name),
			})
		} else {
			if len(call.Keywords) > 0 {
				tok := p.peek()
				return p.errorAt(tok, "positional argument follows keyword argument")
			}
			arg, err := p.parseExpr()
			if err != nil {
				return err
			}
			call.Args = append(call.Args, arg)
		}
		if p.match(COMMA) {
			continue
		}
		_, err := p.expect(RPAREN, "expected ')' after arguments")
		return err
	}
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INT:
		p.advance()
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, p.errorAt(tok, "invalid integer literal %q", tok.Lexeme)
		}
		return &IntLit{Value: v, P: pos(tok)}, nil
	case FLOAT:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errorAt(tok, "invalid float literal %q", tok.Lexeme)
		}
		return &FloatLit{Value: v, P: pos(tok)}, nil
	case STRING:
		p.advance()
		return &StringLit{Value: tok.Lexeme, P: pos(tok)}, nil
	case TRUE:
		p.advance()
		return &BoolLit{Value: true, P: pos(tok)}, nil
	case FALSE:
		p.advance()
		return &BoolLit{Value: false, P: pos(tok)}, nil
	case NONE:
		p.advance()
		return &NoneLit{P: pos(tok)}, nil
	case IDENT:
		p.advance()
		return &Ident{Name: tok.Lexeme, P: pos(tok)}, nil
	case LPAREN:
		p.advance()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "expected ')'"); err != nil {
			return nil, err
		}
		return x, nil
	case LBRACKET:
		return p.parseList()
	case LBRACE:
		return p.parseDict()
	}
	return nil, p.errorAt(tok, "unexpected %s", tok)
}

func (p *parser) parseList() (Expr, error) {
	open := p.advance()
	lit := &ListLit{P: pos(open)}
	if p.match(RBRACKET) {
		return lit, nil
	}
	for {
		el, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit.Elems = append(lit.Elems, el)
		if p.match(COMMA) {
			if p.match(RBRACKET) { // trailing comma
				return lit, nil
			}
			continue
		}
		if _, err := p.expect(RBRACKET, "expected ']' after list elements"); err != nil {
			return nil, err
		}
		return lit, nil
	}
}

func (p *parser) parseDict() (Expr, error) {
	open := p.advance()
	lit := &DictLit{P: pos(open)}
	if p.match(RBRACE) {
		return lit, nil
	}
	for {
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON, "expected ':' after dict key"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit.Keys = append(lit.Keys, key)
		lit.Values = append(lit.Values, value)
		if p.match(COMMA) {
			if p.match(RBRACE) { // trailing comma
				return lit, nil
			}
			continue
		}
		if _, err := p.expect(RBRACE, "expected '}' after dict entries"); err != nil {
			return nil, err
		}
		return lit, nil
	}
}

// ------------------------------------------------------------------ helpers

func (p *parser) peek() Token { return p.tokens[p.cur] }

func (p *parser) peekAt(offset int) Token {
	i := p.cur + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *parser) advance() Token {
	tok := p.tokens[p.cur]
	if tok.Type != EOF {
		p.cur++
	}
	return tok
}

func (p *parser) check(typ TokenType) bool { return p.peek().Type == typ }

func (p *parser) match(typ TokenType) bool {
	if p.check(typ) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) matchAny(typs ...TokenType) (Token, bool) {
	for _, typ := range typs {
		if p.check(typ) {
			return p.advance(), true
		}
	}
	return Token{}, false
}

func (p *parser) expect(typ TokenType, msg string) (Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	tok := p.peek()
	return Token{}, p.errorAt(tok, "%s, got %s", msg, tok)
}

func (p *parser) errorAt(tok Token, format string, args ...any) error {
	return types.NewErrorf(types.ErrSyntax, format, args...).WithPos(tok.Line, tok.Col)
}

func pos(tok Token) Pos { return Pos{Line: tok.Line, Col: tok.Col} }
