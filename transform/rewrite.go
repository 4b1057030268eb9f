package transform

import "github.com/BaSui01/scriptflow/script"

// rewriteExpr rebuilds an expression bottom-up: children are rewritten
// first, then f is applied to the rebuilt node. The input tree is never
// mutated; every composite node on a changed path is reallocated, so a
// failure mid-pass cannot leave a partially rewritten shared tree.
func rewriteExpr(e script.Expr, f func(script.Expr) (script.Expr, error)) (script.Expr, error) {
	switch x := e.(type) {
	case *script.AttrExpr:
		inner, err := rewriteExpr(x.X, f)
		if err != nil {
			return nil, err
		}
		return f(&script.AttrExpr{X: inner, Name: x.Name, P: x.P})

	case *script.IndexExpr:
		inner, err := rewriteExpr(x.X, f)
		if err != nil {
			return nil, err
		}
		idx, err := rewriteExpr(x.Index, f)
		if err != nil {
			return nil, err
		}
		return f(&script.IndexExpr{X: inner, Index: idx, P: x.P})

	case *script.CallExpr:
		fun, err := rewriteExpr(x.Fun, f)
		if err != nil {
			return nil, err
		}
		call := &script.CallExpr{Fun: fun, P: x.P}
		for _, a := range x.Args {
			na, err := rewriteExpr(a, f)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, na)
		}
		for _, k := range x.Keywords {
			nv, err := rewriteExpr(k.Value, f)
			if err != nil {
				return nil, err
			}
			call.Keywords = append(call.Keywords, script.KeywordArg{
				Name: k.Name, Value: nv, P: k.P,
			})
		}
		return f(call)

	case *script.AwaitExpr:
		inner, err := rewriteExpr(x.Call, f)
		if err != nil {
			return nil, err
		}
		call, ok := inner.(*script.CallExpr)
		if !ok {
			// f replaced the call; re-apply f to whatever it produced.
			return f(inner)
		}
		return f(&script.AwaitExpr{Call: call, P: x.P})

	case *script.UnaryExpr:
		inner, err := rewriteExpr(x.X, f)
		if err != nil {
			return nil, err
		}
		return f(&script.UnaryExpr{Op: x.Op, X: inner, P: x.P})

	case *script.BinaryExpr:
		left, err := rewriteExpr(x.X, f)
		if err != nil {
			return nil, err
		}
		right, err := rewriteExpr(x.Y, f)
		if err != nil {
			return nil, err
		}
		return f(&script.BinaryExpr{Op: x.Op, X: left, Y: right, P: x.P})

	case *script.ListLit:
		lit := &script.ListLit{P: x.P}
		for _, el := range x.Elems {
			ne, err := rewriteExpr(el, f)
			if err != nil {
				return nil, err
			}
			lit.Elems = append(lit.Elems, ne)
		}
		return f(lit)

	case *script.DictLit:
		lit := &script.DictLit{P: x.P}
		for i := range x.Keys {
			nk, err := rewriteExpr(x.Keys[i], f)
			if err != nil {
				return nil, err
			}
			nv, err := rewriteExpr(x.Values[i], f)
			if err != nil {
				return nil, err
			}
			lit.Keys = append(lit.Keys, nk)
			lit.Values = append(lit.Values, nv)
		}
		return f(lit)

	default:
		// Leaves: literals and identifiers.
		return f(e)
	}
}

// rewriteStmts applies an expression rewrite to every statement,
// producing a fresh statement list.
func rewriteStmts(stmts []script.Stmt, f func(script.Expr) (script.Expr, error)) ([]script.Stmt, error) {
	out := make([]script.Stmt, 0, len(stmts))
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *script.AssignStmt:
			value, err := rewriteExpr(s.Value, f)
			if err != nil {
				return nil, err
			}
			out = append(out, &script.AssignStmt{Name: s.Name, Value: value, P: s.P})
		case *script.ReturnStmt:
			if s.Value == nil {
				out = append(out, &script.ReturnStmt{P: s.P})
				continue
			}
			value, err := rewriteExpr(s.Value, f)
			if err != nil {
				return nil, err
			}
			out = append(out, &script.ReturnStmt{Value: value, P: s.P})
		case *script.ExprStmt:
			x, err := rewriteExpr(s.X, f)
			if err != nil {
				return nil, err
			}
			out = append(out, &script.ExprStmt{X: x, P: s.P})
		default:
			// Import statements carry no expressions.
			out = append(out, stmt)
		}
	}
	return out, nil
}
