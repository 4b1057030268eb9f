// Package fixtures provides canned capability surfaces for tests: a
// standard registry and a matching arithmetic tool runner.
package fixtures

import (
	"context"
	"fmt"

	"github.com/BaSui01/scriptflow/registry"
	"github.com/BaSui01/scriptflow/testutil/mocks"
)

// StandardRegistry mirrors the stock capability surface: the three
// allowed modules, the full builtin set, and two async arithmetic tools
// plus one sync lookup tool.
func StandardRegistry() (*registry.Registry, error) {
	return registry.New(
		[]string{"math", "json", "time"},
		[]string{"len", "sum", "min", "max", "abs", "round", "str", "int", "float", "bool"},
		[]registry.ToolSignature{
			{Name: "add", Parameters: []string{"x", "y"}, Async: true},
			{Name: "multiply", Parameters: []string{"x", "y"}, Async: true},
			{Name: "lookup", Parameters: []string{"key"}, Async: false},
		},
	)
}

// ArithmeticRunner scripts the StandardRegistry tools: add and multiply
// compute, lookup echoes its key. Integer inputs produce integer
// results so formatting stays faithful to the operands.
func ArithmeticRunner() *mocks.MockToolRunner {
	return mocks.NewMockToolRunner().
		WithFunc("add", binaryOp("add",
			func(a, b int64) int64 { return a + b },
			func(a, b float64) float64 { return a + b })).
		WithFunc("multiply", binaryOp("multiply",
			func(a, b int64) int64 { return a * b },
			func(a, b float64) float64 { return a * b })).
		WithFunc("lookup", func(_ context.Context, args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("lookup wants 1 argument, got %d", len(args))
			}
			return fmt.Sprintf("value-of-%v", args[0]), nil
		})
}

func binaryOp(name string, ints func(a, b int64) int64, floats func(a, b float64) float64) mocks.ToolFunc {
	return func(_ context.Context, args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s wants 2 arguments, got %d", name, len(args))
		}
		ai, aOK := args[0].(int64)
		bi, bOK := args[1].(int64)
		if aOK && bOK {
			return ints(ai, bi), nil
		}
		af, aOK := toFloat(args[0])
		bf, bOK := toFloat(args[1])
		if !aOK || !bOK {
			return nil, fmt.Errorf("%s wants numeric arguments", name)
		}
		return floats(af, bf), nil
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
