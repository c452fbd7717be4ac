// Package units resolves the numeric expressions used throughout keyboard
// descriptions.
//
// Any numeric field may be written as a number or as an arithmetic
// expression over named units, for example "u-1" or "2 * cx + 0.5".
// A [Table] holds the named values; it is seeded with the built-in key
// pitch units and the $default_* values that back the key attribute
// defaults, then extended by the config's "units" and "variables"
// sections in declaration order.
package units

import (
	"maps"

	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/errors"
)

// Evaluator turns an expression into a number. context names the config
// field being evaluated and appears in error messages.
type Evaluator interface {
	Eval(context, expr string) (float64, error)
}

// Built-in unit names.
const (
	DefaultStagger  = "$default_stagger"
	DefaultSpread   = "$default_spread"
	DefaultSplay    = "$default_splay"
	DefaultHeight   = "$default_height"
	DefaultWidth    = "$default_width"
	DefaultPadding  = "$default_padding"
	DefaultAutobind = "$default_autobind"
)

var builtins = []struct {
	name string
	expr string
}{
	{"U", "19.05"},
	{"u", "19"},
	{"cx", "18"},
	{"cy", "17"},
	{DefaultStagger, "0"},
	{DefaultSpread, "u"},
	{DefaultSplay, "0"},
	{DefaultHeight, "u-1"},
	{DefaultWidth, "u-1"},
	{DefaultPadding, "u"},
	{DefaultAutobind, "10"},
}

// Table is a set of named values. The zero value is empty and usable.
type Table struct {
	vars map[string]float64
}

// Default returns a table holding only the built-in units.
func Default() *Table {
	t := &Table{vars: make(map[string]float64)}
	for _, b := range builtins {
		v, err := t.Eval("units."+b.name, b.expr)
		if err != nil {
			panic(err)
		}
		t.vars[b.name] = v
	}
	return t
}

// Parse builds the table for a keyboard description: built-ins first, then
// the "units" section, then "variables". Entries may refer to anything
// defined before them.
func Parse(cfg config.Value) (*Table, error) {
	t := Default()
	for _, section := range []string{"units", "variables"} {
		sec, ok := cfg.Get(section)
		if !ok || sec.IsNull() {
			continue
		}
		if !sec.IsMap() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%q must be a map, got %s", section, sec.Kind())
		}
		for _, e := range sec.Entries() {
			v, err := Number(t, e.Value, section+"."+e.Key)
			if err != nil {
				return nil, err
			}
			t.vars[e.Key] = v
		}
	}
	return t, nil
}

// Get returns a named value.
func (t *Table) Get(name string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	v, ok := t.vars[name]
	return v, ok
}

// Must returns a named value or 0.
func (t *Table) Must(name string) float64 {
	v, _ := t.Get(name)
	return v
}

// With returns a copy of the table with extra values set. The receiver is
// unchanged.
func (t *Table) With(extra map[string]float64) *Table {
	out := &Table{vars: make(map[string]float64, len(extra))}
	if t != nil {
		out.vars = maps.Clone(t.vars)
	}
	maps.Copy(out.vars, extra)
	return out
}

// Eval evaluates expr against the table.
func (t *Table) Eval(context, expr string) (float64, error) {
	var vars map[string]float64
	if t != nil {
		vars = t.vars
	}
	v, err := evaluate(expr, vars)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeEval, err, "evaluate %q for %s", expr, context)
	}
	return v, nil
}

var _ Evaluator = (*Table)(nil)
