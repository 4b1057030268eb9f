package sandbox

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/BaSui01/scriptflow/registry"
)

// Script values are plain Go values: nil, bool, int64, float64, string,
// []any, map[string]any, plus the callable kinds below. Tools may return
// any of these; anything else surfaces as a runtime fault at the point of
// use.

// builtinFunc is one sandbox builtin bound into the globals.
type builtinFunc struct {
	name string
	fn   func(args []any) (any, error)
}

// Module is an importable module object: a fixed attribute table of
// constants and functions.
type Module struct {
	name  string
	attrs map[string]any
}

// moduleFunc is a function attribute of a Module.
type moduleFunc struct {
	module string
	name   string
	fn     func(args []any) (any, error)
}

// toolValue is a registered external tool bound into the globals. Calling
// it goes through the run's ToolRunner.
type toolValue struct {
	sig registry.ToolSignature
}

// boundMethod is a method resolved off a receiver, e.g. text.upper.
type boundMethod struct {
	recv any
	name string
	fn   func(recv any, args []any) (any, error)
}

// Format renders the final script value as the result string. None maps
// to the empty string so scripts that produce nothing report success with
// an empty result.
func Format(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return Repr(v)
}

// Repr renders a value the way the script language spells it: True/False,
// None, single-quoted strings inside containers.
func Repr(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case string:
		return "'" + strings.ReplaceAll(x, "'", "\\'") + "'"
	case []any:
		parts := make([]string, len(x))
		for i, el := range x {
			parts[i] = Repr(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = Repr(k) + ": " + Repr(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case builtinFunc:
		return "<builtin " + x.name + ">"
	case *Module:
		return "<module " + x.name + ">"
	case moduleFunc:
		return "<function " + x.module + "." + x.name + ">"
	case toolValue:
		return "<tool " + x.sig.Name + ">"
	case boundMethod:
		return "<method " + x.name + ">"
	default:
		return fmt.Sprintf("%v", x)
	}
}

// formatFloat keeps a trailing ".0" on integral floats so 4.0 does not
// collapse into the integer spelling.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnI") {
		s += ".0"
	}
	return s
}

// typeName names a value's kind for fault messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "None"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	case builtinFunc, moduleFunc, toolValue, boundMethod:
		return "function"
	case *Module:
		return "module"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// isTruthy implements the script truth test: empty and zero values are
// false, everything else true.
func isTruthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

// asNumber widens a numeric value to float64.
func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// asInt reports a value that is an exact integer.
func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int64(x), true
		}
	}
	return 0, false
}

// equals implements the script's == over all value kinds. Numbers compare
// across int and float; containers compare element-wise.
func equals(a, b any) bool {
	if af, aok := asNumber(a); aok {
		if bf, bok := asNumber(b); bok {
			return af == bf
		}
		return false
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equals(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, present := y[k]
			if !present || !equals(v, w) {
				return false
			}
		}
		return true
	}
	return false
}
