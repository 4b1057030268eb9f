package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/scriptflow/types"
)

func TestParseImportAndAssign(t *testing.T) {
	unit, err := Parse("import math\nresult = math.sqrt(16)")
	require.NoError(t, err)
	require.Len(t, unit.Body, 2)

	imp, ok := unit.Body[0].(*ImportStmt)
	require.True(t, ok)
	assert.Equal(t, "math", imp.Module)

	asg, ok := unit.Body[1].(*AssignStmt)
	require.True(t, ok)
	assert.Equal(t, "result", asg.Name)

	call, ok := asg.Value.(*CallExpr)
	require.True(t, ok)
	attr, ok := call.Fun.(*AttrExpr)
	require.True(t, ok)
	assert.Equal(t, "sqrt", attr.Name)
	require.Len(t, call.Args, 1)
}

func TestParseKeywordArguments(t *testing.T) {
	unit, err := Parse("result = add(x=10, y=20)")
	require.NoError(t, err)

	call := unit.Body[0].(*AssignStmt).Value.(*CallExpr)
	assert.Empty(t, call.Args)
	require.Len(t, call.Keywords, 2)
	assert.Equal(t, "x", call.Keywords[0].Name)
	assert.Equal(t, "y", call.Keywords[1].Name)
}

func TestParseMixedThenKeywordArguments(t *testing.T) {
	unit, err := Parse("r = f(1, b=2)")
	require.NoError(t, err)
	call := unit.Body[0].(*AssignStmt).Value.(*CallExpr)
	require.Len(t, call.Args, 1)
	require.Len(t, call.Keywords, 1)
}

func TestParsePositionalAfterKeywordRejected(t *testing.T) {
	_, err := Parse("r = f(a=1, 2)")
	require.Error(t, err)
	assert.Equal(t, types.ErrSyntax, types.GetErrorCode(err))
}

func TestParsePrecedence(t *testing.T) {
	unit, err := Parse("r = 1 + 2 * 3")
	require.NoError(t, err)

	add := unit.Body[0].(*AssignStmt).Value.(*BinaryExpr)
	assert.Equal(t, "+", add.Op)
	mul, ok := add.Y.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
}

func TestParseComparisonAndBool(t *testing.T) {
	unit, err := Parse("r = not a == 1 and b or False")
	require.NoError(t, err)
	or, ok := unit.Body[0].(*AssignStmt).Value.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "or", or.Op)
}

func TestParseNestedCalls(t *testing.T) {
	unit, err := Parse("r = f(g(h()))")
	require.NoError(t, err)

	calls := 0
	Inspect(unit.Body[0], func(n Node) bool {
		if _, ok := n.(*CallExpr); ok {
			calls++
		}
		return true
	})
	assert.Equal(t, 3, calls)
}

func TestParseListAndDict(t *testing.T) {
	unit, err := Parse(`data = {"name": "test", "value": 123}` + "\n" + `xs = [1, 2.5, "three",]`)
	require.NoError(t, err)

	dict := unit.Body[0].(*AssignStmt).Value.(*DictLit)
	require.Len(t, dict.Keys, 2)

	list := unit.Body[1].(*AssignStmt).Value.(*ListLit)
	require.Len(t, list.Elems, 3)
}

func TestParseSubscriptAndMethod(t *testing.T) {
	unit, err := Parse(`r = data["num"] + text.upper()`)
	require.NoError(t, err)
	bin := unit.Body[0].(*AssignStmt).Value.(*BinaryExpr)
	_, ok := bin.X.(*IndexExpr)
	assert.True(t, ok)
	call, ok := bin.Y.(*CallExpr)
	require.True(t, ok)
	_, ok = call.Fun.(*AttrExpr)
	assert.True(t, ok)
}

func TestParseBareReturn(t *testing.T) {
	unit, err := Parse("return")
	require.NoError(t, err)
	ret := unit.Body[0].(*ReturnStmt)
	assert.Nil(t, ret.Value)
}

func TestParseEmptySource(t *testing.T) {
	unit, err := Parse("# nothing here\n")
	require.NoError(t, err)
	assert.Empty(t, unit.Body)
}

func TestParseSyntaxErrorHasPosition(t *testing.T) {
	_, err := Parse("result = 2 + ")
	require.Error(t, err)

	fault, ok := err.(*types.Error)
	require.True(t, ok)
	assert.Equal(t, types.ErrSyntax, fault.Code)
	assert.Equal(t, 1, fault.Line)
	assert.Greater(t, fault.Column, 10)
}

func TestParseTwoStatementsOnOneLineRejected(t *testing.T) {
	_, err := Parse("a = 1 b = 2")
	require.Error(t, err)
	assert.Equal(t, types.ErrSyntax, types.GetErrorCode(err))
}
