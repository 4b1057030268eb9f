// Package transform rewrites a validated syntax tree into its executable
// form through four pure tree-to-tree passes in a fixed order:
//
//  1. keyword-argument elimination for registered tool calls,
//  2. suspension injection for async tool calls,
//  3. implicit-result injection,
//  4. entry-point wrapping.
//
// The order matters: suspension injection relies on tool calls already
// being positional, implicit-result injection must see the final call
// shapes, and wrapping always runs last so it encloses the fully
// rewritten body. Every pass allocates fresh nodes instead of mutating
// the input, so each stage is independently testable by comparing trees
// and a mid-pipeline failure cannot corrupt the caller's tree.
package transform

import (
	"github.com/BaSui01/scriptflow/registry"
	"github.com/BaSui01/scriptflow/script"
)

// EntryName is the fixed name of the anonymous asynchronous entry point
// every rewritten script is wrapped in.
const EntryName = "__main"

// ResultName is the variable whose final binding becomes the script's
// implicit output.
const ResultName = "result"

// Apply runs the whole pipeline over a validated unit and returns a new
// unit whose Entry holds the rewritten script. The input unit is left
// untouched.
func Apply(unit *script.Unit, reg *registry.Registry) (*script.Unit, error) {
	body, err := eliminateKeywords(unit.Body, reg)
	if err != nil {
		return nil, err
	}
	body, err = injectSuspensions(body, reg)
	if err != nil {
		return nil, err
	}
	body = injectImplicitResult(body)
	return wrapEntry(body), nil
}

// injectSuspensions wraps every call to an async-flagged tool in an
// AwaitExpr so the executor suspends at that site until the external
// result is available. Sync tool calls and ordinary calls stay
// synchronous.
func injectSuspensions(stmts []script.Stmt, reg *registry.Registry) ([]script.Stmt, error) {
	return rewriteStmts(stmts, func(e script.Expr) (script.Expr, error) {
		call, ok := e.(*script.CallExpr)
		if !ok {
			return e, nil
		}
		name, isNamed := calleeName(call)
		if !isNamed {
			return e, nil
		}
		if sig, isTool := reg.Tool(name); isTool && sig.Async {
			return &script.AwaitExpr{Call: call, P: call.P}, nil
		}
		return e, nil
	})
}

// injectImplicitResult appends `return result` when the script binds the
// result variable and does not already end in an explicit return. A
// script without a result binding is left alone; its output is empty on
// success.
func injectImplicitResult(stmts []script.Stmt) []script.Stmt {
	if len(stmts) == 0 {
		return stmts
	}
	if _, ends := stmts[len(stmts)-1].(*script.ReturnStmt); ends {
		return stmts
	}
	bindsResult := false
	var lastPos script.Pos
	for _, s := range stmts {
		if a, ok := s.(*script.AssignStmt); ok && a.Name == ResultName {
			bindsResult = true
		}
		lastPos = s.Pos()
	}
	if !bindsResult {
		return stmts
	}
	out := make([]script.Stmt, len(stmts), len(stmts)+1)
	copy(out, stmts)
	return append(out, &script.ReturnStmt{
		Value: &script.Ident{Name: ResultName, P: lastPos},
		P:     lastPos,
	})
}

// wrapEntry encloses the rewritten top-level statements in one anonymous
// asynchronous entry point so the executor can drive the whole unit with
// a single suspend/resume-capable invocation.
func wrapEntry(stmts []script.Stmt) *script.Unit {
	var p script.Pos
	if len(stmts) > 0 {
		p = stmts[0].Pos()
	}
	return &script.Unit{Entry: &script.AsyncEntry{Name: EntryName, Body: stmts, P: p}}
}
