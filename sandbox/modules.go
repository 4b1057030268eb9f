package sandbox

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// knownModules builds the module objects the sandbox can materialize on
// import. Construction is per call so runs never share attribute tables.
func knownModules() map[string]*Module {
	return map[string]*Module{
		"math": newModule("math", map[string]any{
			"pi":    math.Pi,
			"e":     math.E,
			"sqrt":  mathUnary("sqrt", math.Sqrt),
			"floor": mathToInt("floor", math.Floor),
			"ceil":  mathToInt("ceil", math.Ceil),
			"fabs":  mathUnary("fabs", math.Abs),
			"pow":   moduleFn("math", "pow", mathPow),
		}),
		"json": newModule("json", map[string]any{
			"dumps": moduleFn("json", "dumps", jsonDumps),
			"loads": moduleFn("json", "loads", jsonLoads),
		}),
		"time": newModule("time", map[string]any{
			"now":  moduleFn("time", "now", timeNow),
			"unix": moduleFn("time", "unix", timeUnix),
		}),
	}
}

func newModule(name string, attrs map[string]any) *Module {
	return &Module{name: name, attrs: attrs}
}

func moduleFn(module, name string, fn func(args []any) (any, error)) moduleFunc {
	return moduleFunc{module: module, name: name, fn: fn}
}

func mathUnary(name string, fn func(float64) float64) moduleFunc {
	return moduleFn("math", name, func(args []any) (any, error) {
		if err := wantArgs("math."+name, args, 1, 1); err != nil {
			return nil, err
		}
		f, ok := asNumber(args[0])
		if !ok {
			return nil, fmt.Errorf("math.%s() argument must be a number, not '%s'", name, typeName(args[0]))
		}
		out := fn(f)
		if math.IsNaN(out) {
			return nil, fmt.Errorf("math domain error")
		}
		return out, nil
	})
}

func mathToInt(name string, fn func(float64) float64) moduleFunc {
	return moduleFn("math", name, func(args []any) (any, error) {
		if err := wantArgs("math."+name, args, 1, 1); err != nil {
			return nil, err
		}
		f, ok := asNumber(args[0])
		if !ok {
			return nil, fmt.Errorf("math.%s() argument must be a number, not '%s'", name, typeName(args[0]))
		}
		return int64(fn(f)), nil
	})
}

func mathPow(args []any) (any, error) {
	if err := wantArgs("math.pow", args, 2, 2); err != nil {
		return nil, err
	}
	base, ok1 := asNumber(args[0])
	exp, ok2 := asNumber(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("math.pow() arguments must be numbers")
	}
	return math.Pow(base, exp), nil
}

func jsonDumps(args []any) (any, error) {
	if err := wantArgs("json.dumps", args, 1, 1); err != nil {
		return nil, err
	}
	buf, err := json.Marshal(args[0])
	if err != nil {
		return nil, fmt.Errorf("json.dumps() value is not serializable: %v", err)
	}
	return string(buf), nil
}

func jsonLoads(args []any) (any, error) {
	if err := wantArgs("json.loads", args, 1, 1); err != nil {
		return nil, err
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("json.loads() argument must be a string, not '%s'", typeName(args[0]))
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("json.loads() invalid JSON: %v", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("json.loads() trailing data after JSON value")
	}
	return normalizeJSON(raw), nil
}

// normalizeJSON converts decoded JSON into script values: json.Number
// becomes int64 when exact, float64 otherwise.
func normalizeJSON(v any) any {
	switch x := v.(type) {
	case json.Number:
		if !strings.ContainsAny(x.String(), ".eE") {
			if n, err := x.Int64(); err == nil {
				return n
			}
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i, el := range x {
			x[i] = normalizeJSON(el)
		}
		return x
	case map[string]any:
		for k, el := range x {
			x[k] = normalizeJSON(el)
		}
		return x
	}
	return v
}

func timeNow(args []any) (any, error) {
	if err := wantArgs("time.now", args, 0, 0); err != nil {
		return nil, err
	}
	return time.Now().UTC().Format(time.RFC3339), nil
}

func timeUnix(args []any) (any, error) {
	if err := wantArgs("time.unix", args, 0, 0); err != nil {
		return nil, err
	}
	return time.Now().Unix(), nil
}
