// Package registry holds the immutable capability surface a sandboxed
// script is permitted to reference: allowed modules, allowed builtins, and
// the external tool signatures. A Registry is built once at startup and
// shared read-only across concurrent runs; it is never mutated afterwards,
// so no locking is required.
package registry

import (
	"context"
	"sort"

	"github.com/BaSui01/scriptflow/types"
)

// ToolSignature describes one registered external tool: its name, the
// declared parameter order (used to resolve keyword arguments to
// positions), and whether invoking it suspends the run.
type ToolSignature struct {
	Name       string
	Parameters []string
	Async      bool
}

// ParamIndex returns the position of a declared parameter, or -1 if the
// tool has no parameter with that name.
func (s ToolSignature) ParamIndex(name string) int {
	for i, p := range s.Parameters {
		if p == name {
			return i
		}
	}
	return -1
}

// ToolRunner invokes the real external tool implementations. It is the
// engine's only callback into the surrounding application: the executor
// calls Invoke with positional arguments already resolved by the
// transformer and waits for a single value or error.
type ToolRunner interface {
	Invoke(ctx context.Context, tool string, args []any) (any, error)
}

// ToolRunnerFunc adapts a function to the ToolRunner interface.
type ToolRunnerFunc func(ctx context.Context, tool string, args []any) (any, error)

// Invoke implements ToolRunner.
func (f ToolRunnerFunc) Invoke(ctx context.Context, tool string, args []any) (any, error) {
	return f(ctx, tool, args)
}

// Registry is the process-wide capability registry.
type Registry struct {
	modules  map[string]struct{}
	builtins map[string]struct{}
	tools    map[string]ToolSignature
}

// New builds a Registry from the allowed module names, allowed builtin
// names, and tool signatures. A tool name that also appears in the builtin
// set is rejected: the two namespaces must never shadow each other, or
// name resolution inside the sandbox would be ambiguous.
func New(modules, builtins []string, tools []ToolSignature) (*Registry, error) {
	r := &Registry{
		modules:  make(map[string]struct{}, len(modules)),
		builtins: make(map[string]struct{}, len(builtins)),
		tools:    make(map[string]ToolSignature, len(tools)),
	}
	for _, m := range modules {
		r.modules[m] = struct{}{}
	}
	for _, b := range builtins {
		r.builtins[b] = struct{}{}
	}
	for _, t := range tools {
		if _, clash := r.builtins[t.Name]; clash {
			return nil, types.NewErrorf(types.ErrCompile,
				"tool %q shadows an allowed builtin", t.Name)
		}
		r.tools[t.Name] = t
	}
	return r, nil
}

// AllowsModule reports whether scripts may import the named module.
func (r *Registry) AllowsModule(name string) bool {
	_, ok := r.modules[name]
	return ok
}

// AllowsBuiltin reports whether the named builtin is exposed to scripts.
func (r *Registry) AllowsBuiltin(name string) bool {
	_, ok := r.builtins[name]
	return ok
}

// Tool returns the signature of a registered tool.
func (r *Registry) Tool(name string) (ToolSignature, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Modules returns the allowed module names in sorted order.
func (r *Registry) Modules() []string {
	return sortedKeys(r.modules)
}

// Builtins returns the allowed builtin names in sorted order.
func (r *Registry) Builtins() []string {
	return sortedKeys(r.builtins)
}

// ToolNames returns the registered tool names in sorted order.
func (r *Registry) ToolNames() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
