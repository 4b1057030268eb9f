package sandbox

import (
	"fmt"
	"strings"
)

// stringMethods are the attribute methods resolvable on string receivers.
var stringMethods = map[string]func(recv any, args []any) (any, error){
	"upper":   stringUpper,
	"lower":   stringLower,
	"strip":   stringStrip,
	"replace": stringReplace,
	"split":   stringSplit,
	"join":    stringJoin,
}

func methodFor(recv any, name string) (boundMethod, bool) {
	if _, ok := recv.(string); ok {
		if fn, ok := stringMethods[name]; ok {
			return boundMethod{recv: recv, name: name, fn: fn}, true
		}
	}
	return boundMethod{}, false
}

func stringUpper(recv any, args []any) (any, error) {
	if err := wantArgs("upper", args, 0, 0); err != nil {
		return nil, err
	}
	return strings.ToUpper(recv.(string)), nil
}

func stringLower(recv any, args []any) (any, error) {
	if err := wantArgs("lower", args, 0, 0); err != nil {
		return nil, err
	}
	return strings.ToLower(recv.(string)), nil
}

func stringStrip(recv any, args []any) (any, error) {
	if err := wantArgs("strip", args, 0, 1); err != nil {
		return nil, err
	}
	s := recv.(string)
	if len(args) == 0 {
		return strings.TrimSpace(s), nil
	}
	cutset, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("strip() argument must be a string, not '%s'", typeName(args[0]))
	}
	return strings.Trim(s, cutset), nil
}

func stringReplace(recv any, args []any) (any, error) {
	if err := wantArgs("replace", args, 2, 2); err != nil {
		return nil, err
	}
	old, ok1 := args[0].(string)
	repl, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("replace() arguments must be strings")
	}
	return strings.ReplaceAll(recv.(string), old, repl), nil
}

func stringSplit(recv any, args []any) (any, error) {
	if err := wantArgs("split", args, 0, 1); err != nil {
		return nil, err
	}
	s := recv.(string)
	var parts []string
	if len(args) == 0 {
		parts = strings.Fields(s)
	} else {
		sep, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("split() separator must be a string, not '%s'", typeName(args[0]))
		}
		if sep == "" {
			return nil, fmt.Errorf("split() separator must not be empty")
		}
		parts = strings.Split(s, sep)
	}
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out, nil
}

func stringJoin(recv any, args []any) (any, error) {
	if err := wantArgs("join", args, 1, 1); err != nil {
		return nil, err
	}
	items, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("join() argument must be a list, not '%s'", typeName(args[0]))
	}
	parts := make([]string, len(items))
	for i, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("join() list element %d is '%s', expected str", i, typeName(it))
		}
		parts[i] = s
	}
	return strings.Join(parts, recv.(string)), nil
}
