package layout

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Number is a scalar of a layout document: a YAML number, or a string
// holding an expression over the document variables.
type Number string

// UnmarshalYAML accepts both numbers and expression strings.
func (n *Number) UnmarshalYAML(unmarshal func(any) error) error {
	var v any
	if err := unmarshal(&v); err != nil {
		return err
	}

	switch t := v.(type) {
	case string:
		*n = Number(t)
	case nil:
		*n = ""
	default:
		*n = Number(fmt.Sprint(t))
	}

	return nil
}

// Vector is a point or direction given as three numbers.
type Vector []Number

// Env holds the variables visible to expressions.
type Env map[string]any

//nolint:gochecknoglobals
var (
	builtinOnce sync.Once
	builtin     Env
)

// builtins returns a copy of the functions and constants available to every
// expression. Angles are in degrees, matching the ROT-DEFI cards.
func builtins() Env {
	builtinOnce.Do(func() {
		builtin = Env{
			"pi":    math.Pi,
			"sqrt":  math.Sqrt,
			"sin":   func(deg float64) float64 { return math.Sin(deg * math.Pi / 180) },
			"cos":   func(deg float64) float64 { return math.Cos(deg * math.Pi / 180) },
			"tan":   func(deg float64) float64 { return math.Tan(deg * math.Pi / 180) },
			"asin":  func(x float64) float64 { return math.Asin(x) * 180 / math.Pi },
			"acos":  func(x float64) float64 { return math.Acos(x) * 180 / math.Pi },
			"atan2": func(y, x float64) float64 { return math.Atan2(y, x) * 180 / math.Pi },
			"hypot": math.Hypot,
			"env":   os.Getenv,
		}
	})

	return maps.Clone(builtin)
}

// NewEnv returns an environment holding the built-in functions.
func NewEnv() Env { return builtins() }

// With returns a copy of e with name bound to v.
func (e Env) With(name string, v float64) Env {
	c := maps.Clone(e)
	c[name] = v

	return c
}

// Eval evaluates n in e. An empty number is zero.
func (e Env) Eval(n Number) (float64, error) {
	src := strings.TrimSpace(string(n))
	if src == "" {
		return 0, nil
	}

	if v, err := strconv.ParseFloat(src, 64); err == nil {
		return v, nil
	}

	program, err := expr.Compile(src, expr.Env(map[string]any(e)))
	if err != nil {
		return 0, ErrExpr.Wrap(err).With(slog.String("source", src))
	}

	out, err := vm.Run(program, map[string]any(e))
	if err != nil {
		return 0, ErrExpr.Wrap(err).With(slog.String("source", src))
	}

	v, ok := toFloat(out)
	if !ok {
		return 0, ErrExpr.With(slog.String("source", src)).
			Wrapf("expression yields %T, not a number", out)
	}

	return v, nil
}

// Vec evaluates the three components of v.
func (e Env) Vec(v Vector) ([3]float64, error) {
	var out [3]float64

	if len(v) != 0 && len(v) != 3 {
		return out, ErrLayout.Wrapf("vector needs 3 components, got %d", len(v))
	}

	for i, n := range v {
		x, err := e.Eval(n)
		if err != nil {
			return out, err
		}

		out[i] = x
	}

	return out, nil
}

// Int evaluates n and rounds it to the nearest integer.
func (e Env) Int(n Number) (int, error) {
	v, err := e.Eval(n)
	if err != nil {
		return 0, err
	}

	return int(math.Round(v)), nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case uint32:
		return float64(t), true
	default:
		return 0, false
	}
}
