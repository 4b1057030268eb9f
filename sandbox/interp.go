package sandbox

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/trace"

	"github.com/BaSui01/scriptflow/registry"
	"github.com/BaSui01/scriptflow/script"
	"github.com/BaSui01/scriptflow/types"
)

// interp is the tree-walking evaluator for one run. It owns nothing
// shared: the environment is per-run and the registry is read-only.
type interp struct {
	ctx       context.Context
	env       *Environment
	runner    registry.ToolRunner
	tracer    trace.Tracer
	toolCalls int
}

// run drives the wrapped entry and returns the script's output value.
func (in *interp) run(entry *script.AsyncEntry) (any, error) {
	for _, s := range entry.Body {
		done, v, err := in.execStmt(s)
		if err != nil {
			return nil, err
		}
		if done {
			return v, nil
		}
	}
	return nil, nil
}

func (in *interp) execStmt(stmt script.Stmt) (done bool, value any, err error) {
	switch s := stmt.(type) {
	case *script.ImportStmt:
		if _, ok := in.env.Import(s.Module); !ok {
			return false, nil, in.fault(s.P, "module '%s' is not available", s.Module)
		}
		return false, nil, nil
	case *script.AssignStmt:
		v, err := in.evalExpr(s.Value)
		if err != nil {
			return false, nil, err
		}
		in.env.Bind(s.Name, v)
		return false, nil, nil
	case *script.ReturnStmt:
		if s.Value == nil {
			return true, nil, nil
		}
		v, err := in.evalExpr(s.Value)
		return true, v, err
	case *script.ExprStmt:
		_, err := in.evalExpr(s.X)
		return false, nil, err
	default:
		return false, nil, in.fault(stmt.Pos(), "unexpected statement")
	}
}

func (in *interp) evalExpr(e script.Expr) (any, error) {
	switch x := e.(type) {
	case *script.IntLit:
		return x.Value, nil
	case *script.FloatLit:
		return x.Value, nil
	case *script.StringLit:
		return x.Value, nil
	case *script.BoolLit:
		return x.Value, nil
	case *script.NoneLit:
		return nil, nil
	case *script.Ident:
		v, ok := in.env.Lookup(x.Name)
		if !ok {
			return nil, in.fault(x.P, "name '%s' is not defined", x.Name)
		}
		return v, nil
	case *script.AttrExpr:
		return in.evalAttr(x)
	case *script.IndexExpr:
		return in.evalIndex(x)
	case *script.CallExpr:
		return in.evalCall(x)
	case *script.AwaitExpr:
		return in.evalAwait(x)
	case *script.UnaryExpr:
		return in.evalUnary(x)
	case *script.BinaryExpr:
		return in.evalBinary(x)
	case *script.ListLit:
		items := make([]any, len(x.Elems))
		for i, el := range x.Elems {
			v, err := in.evalExpr(el)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil
	case *script.DictLit:
		out := make(map[string]any, len(x.Keys))
		for i := range x.Keys {
			k, err := in.evalExpr(x.Keys[i])
			if err != nil {
				return nil, err
			}
			key, ok := k.(string)
			if !ok {
				return nil, in.fault(x.Keys[i].Pos(), "dict key must be a string, not '%s'", typeName(k))
			}
			v, err := in.evalExpr(x.Values[i])
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil
	default:
		return nil, in.fault(e.Pos(), "unexpected expression")
	}
}

func (in *interp) evalAttr(x *script.AttrExpr) (any, error) {
	recv, err := in.evalExpr(x.X)
	if err != nil {
		return nil, err
	}
	if mod, ok := recv.(*Module); ok {
		attr, ok := mod.attrs[x.Name]
		if !ok {
			return nil, in.fault(x.P, "module '%s' has no attribute '%s'", mod.name, x.Name)
		}
		return attr, nil
	}
	if m, ok := methodFor(recv, x.Name); ok {
		return m, nil
	}
	return nil, in.fault(x.P, "'%s' object has no attribute '%s'", typeName(recv), x.Name)
}

func (in *interp) evalIndex(x *script.IndexExpr) (any, error) {
	recv, err := in.evalExpr(x.X)
	if err != nil {
		return nil, err
	}
	idx, err := in.evalExpr(x.Index)
	if err != nil {
		return nil, err
	}
	switch c := recv.(type) {
	case []any:
		i, ok := asInt(idx)
		if !ok {
			return nil, in.fault(x.P, "list index must be an integer, not '%s'", typeName(idx))
		}
		if i < 0 {
			i += int64(len(c))
		}
		if i < 0 || i >= int64(len(c)) {
			return nil, in.fault(x.P, "list index out of range")
		}
		return c[i], nil
	case string:
		i, ok := asInt(idx)
		if !ok {
			return nil, in.fault(x.P, "string index must be an integer, not '%s'", typeName(idx))
		}
		if i < 0 {
			i += int64(len(c))
		}
		if i < 0 || i >= int64(len(c)) {
			return nil, in.fault(x.P, "string index out of range")
		}
		return string(c[i]), nil
	case map[string]any:
		key, ok := idx.(string)
		if !ok {
			return nil, in.fault(x.P, "dict key must be a string, not '%s'", typeName(idx))
		}
		v, present := c[key]
		if !present {
			return nil, in.fault(x.P, "key '%s' not found", key)
		}
		return v, nil
	}
	return nil, in.fault(x.P, "'%s' object is not subscriptable", typeName(recv))
}

func (in *interp) evalCall(x *script.CallExpr) (any, error) {
	callee, err := in.evalExpr(x.Fun)
	if err != nil {
		return nil, err
	}
	args, err := in.evalArgs(x.Args)
	if err != nil {
		return nil, err
	}
	switch fn := callee.(type) {
	case builtinFunc:
		v, err := fn.fn(args)
		if err != nil {
			return nil, in.fault(x.P, "%v", err)
		}
		return v, nil
	case moduleFunc:
		v, err := fn.fn(args)
		if err != nil {
			return nil, in.fault(x.P, "%v", err)
		}
		return v, nil
	case boundMethod:
		v, err := fn.fn(fn.recv, args)
		if err != nil {
			return nil, in.fault(x.P, "%v", err)
		}
		return v, nil
	case toolValue:
		return in.invokeTool(fn, args, x.P)
	}
	return nil, in.fault(x.P, "'%s' object is not callable", typeName(callee))
}

// evalAwait is the suspension point injected for async tools: the tool
// runs on its own goroutine delivering into a one-shot handle, and the
// run parks on the handle until the result lands or the context is
// cancelled. Cancellation abandons the handle without resuming the run.
func (in *interp) evalAwait(x *script.AwaitExpr) (any, error) {
	callee, err := in.evalExpr(x.Call.Fun)
	if err != nil {
		return nil, err
	}
	tool, ok := callee.(toolValue)
	if !ok {
		return nil, in.fault(x.P, "'%s' object is not awaitable", typeName(callee))
	}
	args, err := in.evalArgs(x.Call.Args)
	if err != nil {
		return nil, err
	}
	if err := in.checkArity(tool, args, x.P); err != nil {
		return nil, err
	}

	ctx, span := in.tracer.Start(in.ctx, "tool."+tool.sig.Name)
	defer span.End()
	in.toolCalls++

	type outcome struct {
		value any
		err   error
	}
	handle := make(chan outcome, 1)
	go func() {
		v, invokeErr := in.runner.Invoke(ctx, tool.sig.Name, args)
		handle <- outcome{value: v, err: invokeErr}
	}()

	select {
	case out := <-handle:
		if out.err != nil {
			span.RecordError(out.err)
			return nil, types.NewErrorf(types.ErrRuntime, "tool '%s' failed: %v", tool.sig.Name, out.err).
				WithPos(x.P.Line, x.P.Col).WithCause(out.err)
		}
		return out.value, nil
	case <-in.ctx.Done():
		return nil, in.ctx.Err()
	}
}

// invokeTool runs a synchronous tool inline.
func (in *interp) invokeTool(tool toolValue, args []any, p script.Pos) (any, error) {
	if err := in.checkArity(tool, args, p); err != nil {
		return nil, err
	}
	ctx, span := in.tracer.Start(in.ctx, "tool."+tool.sig.Name)
	defer span.End()
	in.toolCalls++

	v, err := in.runner.Invoke(ctx, tool.sig.Name, args)
	if err != nil {
		span.RecordError(err)
		return nil, types.NewErrorf(types.ErrRuntime, "tool '%s' failed: %v", tool.sig.Name, err).
			WithPos(p.Line, p.Col).WithCause(err)
	}
	return v, nil
}

func (in *interp) checkArity(tool toolValue, args []any, p script.Pos) error {
	if len(args) > len(tool.sig.Parameters) {
		return in.fault(p, "tool '%s' takes %d argument(s), got %d",
			tool.sig.Name, len(tool.sig.Parameters), len(args))
	}
	return nil
}

func (in *interp) evalArgs(exprs []script.Expr) ([]any, error) {
	args := make([]any, len(exprs))
	for i, a := range exprs {
		v, err := in.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (in *interp) evalUnary(x *script.UnaryExpr) (any, error) {
	v, err := in.evalExpr(x.X)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "-":
		switch n := v.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		}
		return nil, in.fault(x.P, "bad operand type for unary -: '%s'", typeName(v))
	case "not":
		return !isTruthy(v), nil
	}
	return nil, in.fault(x.P, "unknown unary operator '%s'", x.Op)
}

func (in *interp) evalBinary(x *script.BinaryExpr) (any, error) {
	// and/or short-circuit and yield the deciding operand, not a bool.
	if x.Op == "and" || x.Op == "or" {
		left, err := in.evalExpr(x.X)
		if err != nil {
			return nil, err
		}
		if x.Op == "and" && !isTruthy(left) {
			return left, nil
		}
		if x.Op == "or" && isTruthy(left) {
			return left, nil
		}
		return in.evalExpr(x.Y)
	}

	left, err := in.evalExpr(x.X)
	if err != nil {
		return nil, err
	}
	right, err := in.evalExpr(x.Y)
	if err != nil {
		return nil, err
	}
	return in.applyBinary(x.Op, left, right, x.P)
}

func (in *interp) applyBinary(op string, a, b any, p script.Pos) (any, error) {
	switch op {
	case "==":
		return equals(a, b), nil
	case "!=":
		return !equals(a, b), nil
	}

	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			switch op {
			case "+":
				return as + bs, nil
			case "<":
				return as < bs, nil
			case "<=":
				return as <= bs, nil
			case ">":
				return as > bs, nil
			case ">=":
				return as >= bs, nil
			}
			return nil, in.typeFault(op, a, b, p)
		}
	}
	if al, aok := a.([]any); aok {
		if bl, bok := b.([]any); bok && op == "+" {
			out := make([]any, 0, len(al)+len(bl))
			out = append(out, al...)
			return append(out, bl...), nil
		}
	}

	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	if !aok || !bok {
		return nil, in.typeFault(op, a, b, p)
	}
	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	bothInt := aInt && bInt

	switch op {
	case "+":
		if bothInt {
			return ai + bi, nil
		}
		return af + bf, nil
	case "-":
		if bothInt {
			return ai - bi, nil
		}
		return af - bf, nil
	case "*":
		if bothInt {
			return ai * bi, nil
		}
		return af * bf, nil
	case "/":
		if bf == 0 {
			return nil, in.fault(p, "division by zero")
		}
		return af / bf, nil
	case "//":
		if bf == 0 {
			return nil, in.fault(p, "integer division by zero")
		}
		if bothInt {
			return int64(math.Floor(af / bf)), nil
		}
		return math.Floor(af / bf), nil
	case "%":
		if bf == 0 {
			return nil, in.fault(p, "modulo by zero")
		}
		if bothInt {
			// Result takes the sign of the divisor.
			r := ai % bi
			if (r < 0 && bi > 0) || (r > 0 && bi < 0) {
				r += bi
			}
			return r, nil
		}
		r := math.Mod(af, bf)
		if (r < 0 && bf > 0) || (r > 0 && bf < 0) {
			r += bf
		}
		return r, nil
	case "<":
		return af < bf, nil
	case "<=":
		return af <= bf, nil
	case ">":
		return af > bf, nil
	case ">=":
		return af >= bf, nil
	}
	return nil, in.fault(p, "unknown operator '%s'", op)
}

func (in *interp) typeFault(op string, a, b any, p script.Pos) error {
	return in.fault(p, "unsupported operand type(s) for %s: '%s' and '%s'",
		op, typeName(a), typeName(b))
}

func (in *interp) fault(p script.Pos, format string, args ...any) error {
	return types.NewErrorf(types.ErrRuntime, format, args...).WithPos(p.Line, p.Col)
}
