package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/scriptflow/registry"
	"github.com/BaSui01/scriptflow/script"
	"github.com/BaSui01/scriptflow/types"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(
		[]string{"math"},
		[]string{"len", "sum"},
		[]registry.ToolSignature{
			{Name: "add", Parameters: []string{"a", "b"}, Async: true},
			{Name: "multiply", Parameters: []string{"a", "b"}, Async: true},
			{Name: "lookup", Parameters: []string{"key"}, Async: false},
		},
	)
	require.NoError(t, err)
	return reg
}

func apply(t *testing.T, src string) (*script.Unit, error) {
	t.Helper()
	unit, err := script.Parse(src)
	require.NoError(t, err)
	return Apply(unit, testRegistry(t))
}

func entryBody(t *testing.T, src string) []script.Stmt {
	t.Helper()
	out, err := apply(t, src)
	require.NoError(t, err)
	require.NotNil(t, out.Entry)
	return out.Entry.Body
}

func intValues(t *testing.T, args []script.Expr) []int64 {
	t.Helper()
	out := make([]int64, len(args))
	for i, a := range args {
		lit, ok := a.(*script.IntLit)
		require.True(t, ok, "argument %d is %T, not an int literal", i, a)
		out[i] = lit.Value
	}
	return out
}

func TestKeywordReorderFollowsSignature(t *testing.T) {
	body := entryBody(t, "result = add(b=2, a=1)")

	await, ok := body[0].(*script.AssignStmt).Value.(*script.AwaitExpr)
	require.True(t, ok)
	assert.Empty(t, await.Call.Keywords)
	assert.Equal(t, []int64{1, 2}, intValues(t, await.Call.Args))
}

func TestMixedPositionalAndKeyword(t *testing.T) {
	body := entryBody(t, "result = add(1, b=2)")
	await := body[0].(*script.AssignStmt).Value.(*script.AwaitExpr)
	assert.Equal(t, []int64{1, 2}, intValues(t, await.Call.Args))
}

func TestUnknownParameterFault(t *testing.T) {
	_, err := apply(t, "result = add(a=1, c=3)")
	require.Error(t, err)
	fault, ok := err.(*types.Error)
	require.True(t, ok)
	assert.Equal(t, types.ErrUnknownParameter, fault.Code)
	assert.Contains(t, fault.Message, "'c'")
	assert.Contains(t, fault.Message, "'add'")
}

func TestDuplicateParameterFault(t *testing.T) {
	_, err := apply(t, "result = add(1, a=2)")
	require.Error(t, err)
	assert.Equal(t, types.ErrUnknownParameter, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "duplicate")
}

func TestGapInParametersFault(t *testing.T) {
	_, err := apply(t, "result = add(b=2)")
	require.Error(t, err)
	assert.Equal(t, types.ErrUnknownParameter, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "'a'")
}

func TestTrailingHoleIsAllowed(t *testing.T) {
	body := entryBody(t, "result = add(a=1)")
	await := body[0].(*script.AssignStmt).Value.(*script.AwaitExpr)
	assert.Equal(t, []int64{1}, intValues(t, await.Call.Args))
}

func TestKeywordOnNonToolRejected(t *testing.T) {
	_, err := apply(t, "result = sum(xs=1)")
	require.Error(t, err)
	assert.Equal(t, types.ErrKeywordNotAllowed, types.GetErrorCode(err))

	_, err = apply(t, "import math\nresult = math.pow(x=2, y=3)")
	require.Error(t, err)
	assert.Equal(t, types.ErrKeywordNotAllowed, types.GetErrorCode(err))
}

func TestSuspensionInjection(t *testing.T) {
	body := entryBody(t, "a = add(1, 2)\nb = lookup(\"k\")\nc = len([1])\nresult = a")

	_, isAwait := body[0].(*script.AssignStmt).Value.(*script.AwaitExpr)
	assert.True(t, isAwait, "async tool call must be wrapped")

	_, isCall := body[1].(*script.AssignStmt).Value.(*script.CallExpr)
	assert.True(t, isCall, "sync tool call stays synchronous")

	_, isCall = body[2].(*script.AssignStmt).Value.(*script.CallExpr)
	assert.True(t, isCall, "builtin call stays synchronous")
}

func TestSuspensionInjectionIsNestedAware(t *testing.T) {
	body := entryBody(t, "result = add(multiply(2, 3), 4)")

	outer := body[0].(*script.AssignStmt).Value.(*script.AwaitExpr)
	inner, ok := outer.Call.Args[0].(*script.AwaitExpr)
	require.True(t, ok, "nested async tool call must be wrapped too")
	_, ok = inner.Call.Fun.(*script.Ident)
	assert.True(t, ok)
}

func TestImplicitResultInjection(t *testing.T) {
	body := entryBody(t, "result = 42")
	require.Len(t, body, 2)
	ret, ok := body[1].(*script.ReturnStmt)
	require.True(t, ok)
	id, ok := ret.Value.(*script.Ident)
	require.True(t, ok)
	assert.Equal(t, ResultName, id.Name)
}

func TestNoInjectionAfterExplicitReturn(t *testing.T) {
	body := entryBody(t, "result = 42\nreturn result * 2")
	assert.Len(t, body, 2)
}

func TestNoInjectionWithoutResultBinding(t *testing.T) {
	body := entryBody(t, "x = 10")
	assert.Len(t, body, 1)
}

func TestEntryWrapping(t *testing.T) {
	out, err := apply(t, "result = 1")
	require.NoError(t, err)
	require.NotNil(t, out.Entry)
	assert.Equal(t, EntryName, out.Entry.Name)
	assert.Empty(t, out.Body)
}

func TestEmptyScript(t *testing.T) {
	out, err := apply(t, "")
	require.NoError(t, err)
	require.NotNil(t, out.Entry)
	assert.Empty(t, out.Entry.Body)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	unit, err := script.Parse("result = add(b=2, a=1)")
	require.NoError(t, err)

	_, err = Apply(unit, testRegistry(t))
	require.NoError(t, err)

	// The source tree still carries its keyword arguments.
	call := unit.Body[0].(*script.AssignStmt).Value.(*script.CallExpr)
	assert.Len(t, call.Keywords, 2)
	assert.Empty(t, call.Args)
	assert.Len(t, unit.Body, 1)
}
