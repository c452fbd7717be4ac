// Package config holds the order-preserving value tree that keyboard
// descriptions are parsed into.
//
// Declaration order matters throughout the layout engine: zones, columns,
// rows and outline parts are all processed in the order they were written.
// Go maps do not keep that order, so [Value] carries its own key list for
// map nodes.
//
// # Building values
//
//	v := config.MapOf(
//	    config.P("size", config.Seq(config.Number(18), config.Number(18))),
//	    config.P("corner", config.String("1")),
//	)
//	size, _ := v.GetPath("size.0")
//
// # Merging
//
// [Extend] deep-merges maps (keys are unioned, later levels win) and lets any
// non-map value replace whatever was below it. This is the override chain the
// layout engine uses for key attributes.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a [Value].
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSeq
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSeq:
		return "sequence"
	case KindMap:
		return "map"
	}
	return "unknown"
}

// Value is an immutable tagged union over the config data types.
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	seq  []Value
	keys []string
	m    map[string]Value
}

// Pair is a key/value entry used to build maps in order.
type Pair struct {
	Key   string
	Value Value
}

// P is shorthand for constructing a [Pair].
func P(key string, v Value) Pair { return Pair{Key: key, Value: v} }

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Seq(items ...Value) Value { return Value{kind: KindSeq, seq: items} }

func EmptyMap() Value { return Value{kind: KindMap, m: map[string]Value{}} }

// Numbers builds a sequence of numbers.
func Numbers(ns ...float64) Value {
	items := make([]Value, len(ns))
	for i, n := range ns {
		items[i] = Number(n)
	}
	return Seq(items...)
}

// MapOf builds a map value. Later duplicates replace earlier ones but keep
// the position of the first occurrence.
func MapOf(pairs ...Pair) Value {
	v := EmptyMap()
	for _, p := range pairs {
		if _, ok := v.m[p.Key]; !ok {
			v.keys = append(v.keys, p.Key)
		}
		v.m[p.Key] = p.Value
	}
	return v
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsMap() bool    { return v.kind == KindMap }
func (v Value) IsSeq() bool    { return v.kind == KindSeq }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsBool() bool   { return v.kind == KindBool }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Items returns the elements of a sequence, or nil.
func (v Value) Items() []Value {
	if v.kind != KindSeq {
		return nil
	}
	return v.seq
}

// Keys returns map keys in declaration order, or nil.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	return v.keys
}

// Len returns the number of elements of a sequence or map.
func (v Value) Len() int {
	switch v.kind {
	case KindSeq:
		return len(v.seq)
	case KindMap:
		return len(v.keys)
	}
	return 0
}

// Get looks up a map key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	e, ok := v.m[key]
	return e, ok
}

// Has reports whether a map value contains key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Entries returns map entries in declaration order.
func (v Value) Entries() []Pair {
	if v.kind != KindMap {
		return nil
	}
	out := make([]Pair, len(v.keys))
	for i, k := range v.keys {
		out[i] = Pair{Key: k, Value: v.m[k]}
	}
	return out
}

// With returns a copy of the map with key set to e. New keys are appended.
// Calling With on a non-map starts from an empty map.
func (v Value) With(key string, e Value) Value {
	out := EmptyMap()
	if v.kind == KindMap {
		out.keys = append(make([]string, 0, len(v.keys)+1), v.keys...)
		for k, x := range v.m {
			out.m[k] = x
		}
	}
	if _, ok := out.m[key]; !ok {
		out.keys = append(out.keys, key)
	}
	out.m[key] = e
	return out
}

// Without returns a copy of the map with the given keys removed.
func (v Value) Without(keys ...string) Value {
	if v.kind != KindMap {
		return v
	}
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	out := EmptyMap()
	for _, k := range v.keys {
		if drop[k] {
			continue
		}
		out.keys = append(out.keys, k)
		out.m[k] = v.m[k]
	}
	return out
}

// GetPath walks a dot-separated path. Numeric segments index sequences.
// An empty path returns v itself.
func (v Value) GetPath(path string) (Value, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch cur.kind {
		case KindMap:
			next, ok := cur.m[seg]
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindSeq:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur.seq) {
				return Value{}, false
			}
			cur = cur.seq[i]
		default:
			return Value{}, false
		}
	}
	return cur, true
}

// Extend deep-merges levels from lowest to highest precedence.
// Maps merge key by key; every other kind replaces what was below it.
// Null levels are skipped.
func Extend(levels ...Value) Value {
	var out Value
	for _, l := range levels {
		if l.IsNull() {
			continue
		}
		out = merge(out, l)
	}
	return out
}

func merge(base, over Value) Value {
	if base.kind != KindMap || over.kind != KindMap {
		return over
	}
	out := base
	for _, k := range over.keys {
		next := over.m[k]
		if prev, ok := base.m[k]; ok {
			next = merge(prev, next)
		}
		out = out.With(k, next)
	}
	return out
}

// Equal reports deep equality. Map key order is ignored.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindSeq:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.keys) != len(o.keys) {
			return false
		}
		for _, k := range v.keys {
			x, ok := o.m[k]
			if !ok || !v.m[k].Equal(x) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON encodes the value keeping map key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return fmt.Errorf("cannot encode non-finite number %v", v.n)
		}
		buf.WriteString(strconv.FormatFloat(v.n, 'g', -1, 64))
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindSeq:
		buf.WriteByte('[')
		for i, e := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			if err := v.m[k].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// String renders the value for error messages.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}
	return string(b)
}

// FromAny converts decoded Go data (as produced by encoding/json or a TOML
// decoder) into a Value. Plain Go maps carry no order, so their keys are
// sorted.
func FromAny(x any) (Value, error) {
	return fromAny(x, nil)
}

// keyOrder reports the declaration position of a key path, if known.
type keyOrder func(path []string) (int, bool)

func fromAny(x any, order keyOrder) (Value, error) {
	return convert(x, nil, order)
}

func convert(x any, path []string, order keyOrder) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(n), nil
	case string:
		return String(t), nil
	case fmt.Stringer:
		return String(t.String()), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, e := range t {
			v, err := convert(e, path, order)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Seq(items...), nil
	case []map[string]any:
		items := make([]Value, 0, len(t))
		for _, e := range t {
			v, err := convert(e, path, order)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Seq(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sortKeys(keys, path, order)
		out := EmptyMap()
		for _, k := range keys {
			v, err := convert(t[k], append(path[:len(path):len(path)], k), order)
			if err != nil {
				return Value{}, err
			}
			out.keys = append(out.keys, k)
			out.m[k] = v
		}
		return out, nil
	}
	return Value{}, fmt.Errorf("unsupported config value of type %T", x)
}

func sortKeys(keys []string, path []string, order keyOrder) {
	pos := func(k string) (int, bool) {
		if order == nil {
			return 0, false
		}
		return order(append(path[:len(path):len(path)], k))
	}
	sort.SliceStable(keys, func(i, j int) bool {
		pi, oki := pos(keys[i])
		pj, okj := pos(keys[j])
		switch {
		case oki && okj:
			return pi < pj
		case oki != okj:
			return oki
		}
		return keys[i] < keys[j]
	})
}
