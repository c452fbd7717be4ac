package units

import (
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// sqrt complements the expr builtins (min, max, abs, round, floor, ceil).
var sqrt = expr.Function("sqrt", func(params ...any) (any, error) {
	if len(params) != 1 {
		return nil, fmt.Errorf("sqrt expects 1 argument, got %d", len(params))
	}
	v, ok := toFloat(params[0])
	if !ok {
		return nil, fmt.Errorf("sqrt expects a number, got %T", params[0])
	}
	return math.Sqrt(v), nil
})

// evaluate runs src with vars as its only names. The result must be a
// finite number.
func evaluate(src string, vars map[string]float64) (float64, error) {
	if strings.TrimSpace(src) == "" {
		return 0, fmt.Errorf("empty expression")
	}
	env := make(map[string]any, len(vars))
	for k, v := range vars {
		env[k] = v
	}
	program, err := compile(src, env)
	if err != nil {
		return 0, err
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return 0, err
	}
	v, ok := toFloat(out)
	if !ok {
		return 0, fmt.Errorf("result is %T, not a number", out)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("result is not finite")
	}
	return v, nil
}

func compile(src string, env map[string]any) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(env), sqrt)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
