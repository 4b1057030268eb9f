// Package validate rejects scripts that reference capabilities outside the
// registry or exceed the call budget, before any rewrite or execution
// occurs. Validation is a read-only pre-order, left-to-right traversal;
// the first violation encountered in that order is the one reported, so
// error messages are reproducible for a given script.
package validate

import (
	"github.com/BaSui01/scriptflow/registry"
	"github.com/BaSui01/scriptflow/script"
	"github.com/BaSui01/scriptflow/types"
)

// DefaultMaxCalls is the default call budget: the maximum number of
// call expressions permitted in one script.
const DefaultMaxCalls = 5

// Validator checks parsed trees against a capability registry.
type Validator struct {
	reg      *registry.Registry
	maxCalls int
}

// New creates a Validator. maxCalls <= 0 selects DefaultMaxCalls.
func New(reg *registry.Registry, maxCalls int) *Validator {
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}
	return &Validator{reg: reg, maxCalls: maxCalls}
}

// Check validates a parsed unit. It returns nil on success and a typed
// fault on the first violation: FORBIDDEN_MODULE for an import outside the
// allowed set, FORBIDDEN_NAME for a free identifier that resolves to
// neither a prior local binding, an allowed builtin, a known tool, nor an
// imported allowed module, and CALL_BUDGET_EXCEEDED when the number of
// call expressions in the whole tree strictly exceeds the budget.
//
// The walk never mutates the tree, so re-checking an unmodified unit
// yields the same verdict.
func (v *Validator) Check(unit *script.Unit) error {
	if err := v.checkNames(unit.Body); err != nil {
		return err
	}
	return v.checkCallBudget(unit.Body)
}

func (v *Validator) checkNames(stmts []script.Stmt) error {
	// Locals accumulate in statement order: an assignment makes its target
	// name resolvable for every later statement (and for the assignment's
	// own right-hand side only after it, matching the surface language).
	locals := map[string]struct{}{}
	imported := map[string]struct{}{}

	var fault error
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *script.ImportStmt:
			if !v.reg.AllowsModule(s.Module) {
				return types.NewErrorf(types.ErrForbiddenModule,
					"forbidden module: %s", s.Module).WithPos(s.P.Line, s.P.Col)
			}
			imported[s.Module] = struct{}{}
			continue
		case *script.AssignStmt:
			if err := v.checkExprNames(s.Value, locals, imported); err != nil {
				return err
			}
			locals[s.Name] = struct{}{}
			continue
		}
		script.Inspect(stmt, func(n script.Node) bool {
			if fault != nil {
				return false
			}
			if id, ok := n.(*script.Ident); ok {
				fault = v.resolve(id, locals, imported)
			}
			return fault == nil
		})
		if fault != nil {
			return fault
		}
	}
	return nil
}

func (v *Validator) checkExprNames(e script.Expr, locals, imported map[string]struct{}) error {
	var fault error
	script.Inspect(e, func(n script.Node) bool {
		if fault != nil {
			return false
		}
		if id, ok := n.(*script.Ident); ok {
			fault = v.resolve(id, locals, imported)
		}
		return fault == nil
	})
	return fault
}

// resolve checks one free identifier against the four legal sources of
// names inside the sandbox.
func (v *Validator) resolve(id *script.Ident, locals, imported map[string]struct{}) error {
	if _, ok := locals[id.Name]; ok {
		return nil
	}
	if _, ok := imported[id.Name]; ok {
		return nil
	}
	if v.reg.AllowsBuiltin(id.Name) {
		return nil
	}
	if _, ok := v.reg.Tool(id.Name); ok {
		return nil
	}
	return types.NewErrorf(types.ErrForbiddenName,
		"forbidden name: %s", id.Name).WithPos(id.P.Line, id.P.Col)
}

// checkCallBudget counts every call expression in the tree, nested or
// not, and fails when the total strictly exceeds the budget.
func (v *Validator) checkCallBudget(stmts []script.Stmt) error {
	count := 0
	script.InspectStmts(stmts, func(n script.Node) bool {
		if _, ok := n.(*script.CallExpr); ok {
			count++
		}
		return true
	})
	if count > v.maxCalls {
		return types.NewErrorf(types.ErrCallBudgetExceeded,
			"too many function calls: %d > %d", count, v.maxCalls)
	}
	return nil
}
