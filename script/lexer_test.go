package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/scriptflow/types"
)

func scanTypes(t *testing.T, src string) []TokenType {
	t.Helper()
	tokens, err := NewLexer(src).Scan()
	require.NoError(t, err)
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestScanAssignment(t *testing.T) {
	got := scanTypes(t, "result = add(x=10, y=20)")
	want := []TokenType{
		IDENT, ASSIGN, IDENT, LPAREN,
		IDENT, ASSIGN, INT, COMMA,
		IDENT, ASSIGN, INT, RPAREN,
		NEWLINE, EOF,
	}
	assert.Equal(t, want, got)
}

func TestScanKeywordsAndOperators(t *testing.T) {
	got := scanTypes(t, "import math\nreturn 1 // 2 != 3.5")
	want := []TokenType{
		IMPORT, IDENT, NEWLINE,
		RETURN, INT, DBLSLASH, INT, NEQ, FLOAT,
		NEWLINE, EOF,
	}
	assert.Equal(t, want, got)
}

func TestScanStringEscapes(t *testing.T) {
	tokens, err := NewLexer(`s = "a\n\"b\""`).Scan()
	require.NoError(t, err)
	require.Equal(t, STRING, tokens[2].Type)
	assert.Equal(t, "a\n\"b\"", tokens[2].Lexeme)
}

func TestScanSingleQuotedString(t *testing.T) {
	tokens, err := NewLexer(`s = 'hi'`).Scan()
	require.NoError(t, err)
	assert.Equal(t, "hi", tokens[2].Lexeme)
}

func TestScanCommentsAndBlankLines(t *testing.T) {
	// Leading comment lines produce no tokens at all.
	got := scanTypes(t, "# only a comment\n\n\nx = 1  # trailing\n")
	want := []TokenType{IDENT, ASSIGN, INT, NEWLINE, EOF}
	assert.Equal(t, want, got)
}

func TestImplicitLineJoiningInsideBrackets(t *testing.T) {
	got := scanTypes(t, "xs = [1,\n  2,\n  3]")
	want := []TokenType{
		IDENT, ASSIGN, LBRACKET, INT, COMMA, INT, COMMA, INT, RBRACKET,
		NEWLINE, EOF,
	}
	assert.Equal(t, want, got)
}

func TestScanPositions(t *testing.T) {
	tokens, err := NewLexer("a = 1\nbb = 22").Scan()
	require.NoError(t, err)
	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 1, tokens[0].Col)
	// "bb" starts line 2, col 1; "22" at col 6.
	assert.Equal(t, 2, tokens[4].Line)
	assert.Equal(t, 1, tokens[4].Col)
	assert.Equal(t, 6, tokens[6].Col)
}

func TestScanUnterminatedString(t *testing.T) {
	_, err := NewLexer(`s = "oops`).Scan()
	require.Error(t, err)
	assert.Equal(t, types.ErrSyntax, types.GetErrorCode(err))
}

func TestScanIllegalCharacter(t *testing.T) {
	_, err := NewLexer("x = 1 ? 2").Scan()
	require.Error(t, err)
	assert.Equal(t, types.ErrSyntax, types.GetErrorCode(err))
}
