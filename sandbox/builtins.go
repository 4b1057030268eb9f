package sandbox

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// knownBuiltins is the full set of builtin implementations the sandbox can
// expose. The registry decides which of these a given run actually sees;
// an allowed builtin with no implementation here stays unbound and fails
// at call time.
var knownBuiltins = map[string]func(args []any) (any, error){
	"len":   builtinLen,
	"sum":   builtinSum,
	"min":   builtinMin,
	"max":   builtinMax,
	"abs":   builtinAbs,
	"round": builtinRound,
	"str":   builtinStr,
	"int":   builtinInt,
	"float": builtinFloat,
	"bool":  builtinBool,
}

func wantArgs(name string, args []any, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return fmt.Errorf("%s() takes %d argument(s), got %d", name, min, len(args))
		}
		return fmt.Errorf("%s() takes %d to %d arguments, got %d", name, min, max, len(args))
	}
	return nil
}

func builtinLen(args []any) (any, error) {
	if err := wantArgs("len", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case string:
		return int64(len(x)), nil
	case []any:
		return int64(len(x)), nil
	case map[string]any:
		return int64(len(x)), nil
	}
	return nil, fmt.Errorf("object of type '%s' has no len()", typeName(args[0]))
}

func builtinSum(args []any) (any, error) {
	if err := wantArgs("sum", args, 1, 1); err != nil {
		return nil, err
	}
	items, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("sum() argument must be a list, not '%s'", typeName(args[0]))
	}
	var total float64
	allInts := true
	for _, it := range items {
		f, isNum := asNumber(it)
		if !isNum {
			return nil, fmt.Errorf("sum() element must be a number, not '%s'", typeName(it))
		}
		if _, isInt := it.(int64); !isInt {
			allInts = false
		}
		total += f
	}
	if allInts {
		return int64(total), nil
	}
	return total, nil
}

func extremum(name string, args []any, better func(a, b float64) bool) (any, error) {
	items := args
	if len(args) == 1 {
		list, ok := args[0].([]any)
		if !ok {
			return nil, fmt.Errorf("%s() single argument must be a list, not '%s'", name, typeName(args[0]))
		}
		items = list
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s() arg is an empty sequence", name)
	}
	best := items[0]
	bestF, ok := asNumber(best)
	if !ok {
		return nil, fmt.Errorf("%s() element must be a number, not '%s'", name, typeName(best))
	}
	for _, it := range items[1:] {
		f, isNum := asNumber(it)
		if !isNum {
			return nil, fmt.Errorf("%s() element must be a number, not '%s'", name, typeName(it))
		}
		if better(f, bestF) {
			best, bestF = it, f
		}
	}
	return best, nil
}

func builtinMin(args []any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("min() expected at least 1 argument, got 0")
	}
	return extremum("min", args, func(a, b float64) bool { return a < b })
}

func builtinMax(args []any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("max() expected at least 1 argument, got 0")
	}
	return extremum("max", args, func(a, b float64) bool { return a > b })
}

func builtinAbs(args []any) (any, error) {
	if err := wantArgs("abs", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case int64:
		if x < 0 {
			return -x, nil
		}
		return x, nil
	case float64:
		return math.Abs(x), nil
	}
	return nil, fmt.Errorf("bad operand type for abs(): '%s'", typeName(args[0]))
}

func builtinRound(args []any) (any, error) {
	if err := wantArgs("round", args, 1, 2); err != nil {
		return nil, err
	}
	f, ok := asNumber(args[0])
	if !ok {
		return nil, fmt.Errorf("round() argument must be a number, not '%s'", typeName(args[0]))
	}
	if len(args) == 1 {
		return int64(math.RoundToEven(f)), nil
	}
	digits, ok := asInt(args[1])
	if !ok {
		return nil, fmt.Errorf("round() second argument must be an integer, not '%s'", typeName(args[1]))
	}
	scale := math.Pow(10, float64(digits))
	return math.RoundToEven(f*scale) / scale, nil
}

func builtinStr(args []any) (any, error) {
	if err := wantArgs("str", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return "", nil
	}
	if v, ok := args[0].(string); ok {
		return v, nil
	}
	return Repr(args[0]), nil
}

func builtinInt(args []any) (any, error) {
	if err := wantArgs("int", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return int64(0), nil
	}
	switch x := args[0].(type) {
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case int64:
		return x, nil
	case float64:
		return int64(math.Trunc(x)), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal for int(): %q", x)
		}
		return n, nil
	}
	return nil, fmt.Errorf("int() argument must be a number or string, not '%s'", typeName(args[0]))
}

func builtinFloat(args []any) (any, error) {
	if err := wantArgs("float", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return float64(0), nil
	}
	switch x := args[0].(type) {
	case bool:
		if x {
			return float64(1), nil
		}
		return float64(0), nil
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, fmt.Errorf("could not convert string to float: %q", x)
		}
		return f, nil
	}
	return nil, fmt.Errorf("float() argument must be a number or string, not '%s'", typeName(args[0]))
}

func builtinBool(args []any) (any, error) {
	if err := wantArgs("bool", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return false, nil
	}
	return isTruthy(args[0]), nil
}
