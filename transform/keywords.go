package transform

import (
	"github.com/BaSui01/scriptflow/registry"
	"github.com/BaSui01/scriptflow/script"
	"github.com/BaSui01/scriptflow/types"
)

// eliminateKeywords rewrites every registered tool call so that named
// arguments become positional arguments following the tool's declared
// parameter order: add(y=20, x=10) with signature (x, y) becomes
// add(10, 20). Positional arguments already present keep their slots.
//
// Keyword arguments on calls whose target is not a registered tool are
// rejected outright rather than silently passed through; the sandbox
// builtins and module functions take positional arguments only.
func eliminateKeywords(stmts []script.Stmt, reg *registry.Registry) ([]script.Stmt, error) {
	return rewriteStmts(stmts, func(e script.Expr) (script.Expr, error) {
		call, ok := e.(*script.CallExpr)
		if !ok || len(call.Keywords) == 0 {
			return e, nil
		}

		name, isNamed := calleeName(call)
		if !isNamed {
			return nil, keywordNotAllowed("call expression", call)
		}
		sig, isTool := reg.Tool(name)
		if !isTool {
			return nil, keywordNotAllowed("'"+name+"'", call)
		}

		slots := make([]script.Expr, len(sig.Parameters))
		if len(call.Args) > len(slots) {
			return nil, types.NewErrorf(types.ErrUnknownParameter,
				"tool '%s' takes %d arguments, got %d positional",
				name, len(slots), len(call.Args)).WithPos(call.P.Line, call.P.Col)
		}
		copy(slots, call.Args)

		for _, kw := range call.Keywords {
			idx := sig.ParamIndex(kw.Name)
			if idx < 0 {
				return nil, types.NewErrorf(types.ErrUnknownParameter,
					"unknown parameter '%s' for tool '%s'",
					kw.Name, name).WithPos(kw.P.Line, kw.P.Col)
			}
			if slots[idx] != nil {
				return nil, types.NewErrorf(types.ErrUnknownParameter,
					"duplicate argument for parameter '%s' of tool '%s'",
					kw.Name, name).WithPos(kw.P.Line, kw.P.Col)
			}
			slots[idx] = kw.Value
		}

		// The positional list must be gap-free: a hole means the caller
		// skipped a parameter that a later keyword did not cover.
		args := make([]script.Expr, 0, len(slots))
		for i, slot := range slots {
			if slot == nil {
				// Trailing holes are fine; the tool sees fewer arguments.
				for _, rest := range slots[i:] {
					if rest != nil {
						return nil, types.NewErrorf(types.ErrUnknownParameter,
							"no value for parameter '%s' of tool '%s'",
							sig.Parameters[i], name).WithPos(call.P.Line, call.P.Col)
					}
				}
				break
			}
			args = append(args, slot)
		}

		return &script.CallExpr{Fun: call.Fun, Args: args, P: call.P}, nil
	})
}

// calleeName extracts the bare identifier a call targets, if any. Tool
// calls are always bare names; attribute calls (math.sqrt, text.upper)
// can never be tools.
func calleeName(call *script.CallExpr) (string, bool) {
	id, ok := call.Fun.(*script.Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}

func keywordNotAllowed(target string, call *script.CallExpr) error {
	return types.NewErrorf(types.ErrKeywordNotAllowed,
		"keyword arguments are not supported for %s", target).
		WithPos(call.P.Line, call.P.Col)
}
