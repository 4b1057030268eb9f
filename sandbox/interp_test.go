package sandbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/scriptflow/registry"
	"github.com/BaSui01/scriptflow/script"
	"github.com/BaSui01/scriptflow/testutil"
	"github.com/BaSui01/scriptflow/testutil/fixtures"
	"github.com/BaSui01/scriptflow/transform"
	"github.com/BaSui01/scriptflow/types"
)

func runScript(t *testing.T, src string, runner registry.ToolRunner) (string, error) {
	t.Helper()
	reg, err := fixtures.StandardRegistry()
	require.NoError(t, err)

	unit, err := script.Parse(src)
	require.NoError(t, err)
	rewritten, err := transform.Apply(unit, reg)
	require.NoError(t, err)

	ex := NewExecutor(reg, runner, DefaultConfig(), zap.NewNop())
	prog, err := ex.Compile(rewritten)
	require.NoError(t, err)
	return ex.Execute(testutil.TestContext(t), prog)
}

func TestEvaluation(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"arithmetic", "result = (2 + 3) * 4", "20"},
		{"true division", "result = 7 / 2", "3.5"},
		{"floor division", "result = 7 // 2", "3"},
		{"floor division negative", "result = -7 // 2", "-4"},
		{"modulo sign of divisor", "result = -7 % 3", "2"},
		{"float stays float", "result = 2.0 * 2", "4.0"},
		{"string concat", `result = "foo" + "bar"`, "foobar"},
		{"string methods chain", `result = "  hi  ".strip().upper()`, "HI"},
		{"split and join", `result = "-".join("a b c".split())`, "a-b-c"},
		{"replace", `result = "aaa".replace("a", "b")`, "bbb"},
		{"list indexing", "xs = [1, 2, 3]\nresult = xs[0] + xs[-1]", "4"},
		{"list concat", "result = [1] + [2, 3]", "[1, 2, 3]"},
		{"dict lookup", `d = {"a": 1}` + "\n" + `result = d["a"]`, "1"},
		{"comparison", "result = 3 > 2", "True"},
		{"equality across int and float", "result = 1 == 1.0", "True"},
		{"and yields operand", "result = 1 and 2", "2"},
		{"or yields operand", "result = 0 or 42", "42"},
		{"not", "result = not []", "True"},
		{"none result is empty", "result = None", ""},
		{"no result binding is empty", "x = 1", ""},
		{"explicit return wins", "return 5\nresult = 10", "5"},
		{"len", `result = len("hello")`, "5"},
		{"sum", "result = sum([1, 2, 3])", "6"},
		{"min max", "result = min(3, 1, 2) + max([4, 5])", "6"},
		{"abs round", "result = abs(-2) + round(2.6)", "5"},
		{"str int float bool", `result = str(int("7") + int(float("1.9")))`, "8"},
		{"math module", "import math\nresult = math.floor(math.sqrt(16) + 0.5)", "4"},
		{"math constants", "import math\nresult = math.pi > 3.14 and math.e > 2.7", "True"},
		{"json roundtrip", "import json\n" + `result = json.loads(json.dumps({"a": 1}))["a"]`, "1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := runScript(t, tc.src, fixtures.ArithmeticRunner())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRuntimeFaults(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		message string
	}{
		{"division by zero", "result = 1 / 0", "division by zero"},
		{"index out of range", "xs = [1]\nresult = xs[5]", "list index out of range"},
		{"missing dict key", `d = {"a": 1}` + "\n" + `result = d["b"]`, "key 'b' not found"},
		{"bad attribute", `result = "x".reverse()`, "has no attribute 'reverse'"},
		{"not callable", "x = 1\nresult = x()", "not callable"},
		{"bad operands", `result = "a" - 1`, "unsupported operand type(s) for -"},
		{"len of number", "result = len(5)", "has no len()"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runScript(t, tc.src, fixtures.ArithmeticRunner())
			require.Error(t, err)
			assert.Equal(t, types.ErrRuntime, types.GetErrorCode(err))
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestAsyncToolCall(t *testing.T) {
	runner := fixtures.ArithmeticRunner()
	got, err := runScript(t, "result = add(x=10, y=20)", runner)
	require.NoError(t, err)
	assert.Equal(t, "30", got)

	calls := runner.CallsFor("add")
	require.Len(t, calls, 1)
	assert.Equal(t, []any{int64(10), int64(20)}, calls[0].Args)
}

func TestNestedToolCalls(t *testing.T) {
	got, err := runScript(t, "result = add(multiply(2, 3), 4)", fixtures.ArithmeticRunner())
	require.NoError(t, err)
	assert.Equal(t, "10", got)
}

func TestSyncToolCall(t *testing.T) {
	got, err := runScript(t, `result = lookup("answer")`, fixtures.ArithmeticRunner())
	require.NoError(t, err)
	assert.Equal(t, "value-of-answer", got)
}

func TestToolFailureIsRuntimeFault(t *testing.T) {
	runner := fixtures.ArithmeticRunner().WithError("add", errors.New("backend unavailable"))
	_, err := runScript(t, "result = add(1, 2)", runner)
	require.Error(t, err)
	assert.Equal(t, types.ErrRuntime, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "tool 'add' failed")
	assert.Contains(t, err.Error(), "backend unavailable")
}

func TestToolArityChecked(t *testing.T) {
	_, err := runScript(t, "result = add(1, 2, 3)", fixtures.ArithmeticRunner())
	require.Error(t, err)
	assert.Equal(t, types.ErrRuntime, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "takes 2 argument(s), got 3")
}
