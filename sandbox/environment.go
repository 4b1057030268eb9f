package sandbox

import (
	"github.com/BaSui01/scriptflow/registry"
)

// Environment is the per-run global scope. It starts with exactly the
// registry's capability surface bound in: allowed builtins, registered
// tools, and nothing else. Imports and assignments add bindings as the
// script runs. Never shared between runs.
type Environment struct {
	reg     *registry.Registry
	globals map[string]any
	modules map[string]*Module
}

// NewEnvironment builds a fresh scope for one run.
func NewEnvironment(reg *registry.Registry) *Environment {
	env := &Environment{
		reg:     reg,
		globals: make(map[string]any),
		modules: knownModules(),
	}
	for _, name := range reg.Builtins() {
		if fn, ok := knownBuiltins[name]; ok {
			env.globals[name] = builtinFunc{name: name, fn: fn}
		}
	}
	for _, name := range reg.ToolNames() {
		sig, _ := reg.Tool(name)
		env.globals[name] = toolValue{sig: sig}
	}
	return env
}

// Lookup resolves a global binding.
func (e *Environment) Lookup(name string) (any, bool) {
	v, ok := e.globals[name]
	return v, ok
}

// Bind sets a global binding.
func (e *Environment) Bind(name string, value any) {
	e.globals[name] = value
}

// Import materializes an allowed module into the scope and returns it.
// The validator has already rejected disallowed imports; an allowed name
// with no module table is a capability misconfiguration reported by the
// caller as a runtime fault.
func (e *Environment) Import(name string) (*Module, bool) {
	if !e.reg.AllowsModule(name) {
		return nil, false
	}
	mod, ok := e.modules[name]
	if !ok {
		return nil, false
	}
	e.globals[name] = mod
	return mod, true
}
