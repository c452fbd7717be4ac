package units

import (
	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/errors"
)

// Number reads a numeric field written either as a number or as an
// expression string.
func Number(ev Evaluator, v config.Value, name string) (float64, error) {
	switch v.Kind() {
	case config.KindNumber:
		n, _ := v.AsNumber()
		return n, nil
	case config.KindString:
		s, _ := v.AsString()
		return ev.Eval(name, s)
	}
	return 0, errors.New(errors.ErrCodeInvalidNumber, "field %q should be a number, got %s", name, v.Kind())
}

// NumberField reads key from a map, falling back to def when the key is
// absent or null.
func NumberField(ev Evaluator, m config.Value, key string, def float64, name string) (float64, error) {
	v, ok := m.Get(key)
	if !ok || v.IsNull() {
		return def, nil
	}
	return Number(ev, v, name+"."+key)
}

// IsNumeric reports whether v reads as a number under ev. Strings count
// only when they evaluate cleanly, so a bare point name is not numeric.
func IsNumeric(ev Evaluator, v config.Value) bool {
	switch v.Kind() {
	case config.KindNumber:
		return true
	case config.KindString:
		s, _ := v.AsString()
		_, err := ev.Eval("", s)
		return err == nil
	}
	return false
}

// XY reads a coordinate pair. A scalar applies to both axes.
func XY(ev Evaluator, v config.Value, name string) ([2]float64, error) {
	var out [2]float64
	switch v.Kind() {
	case config.KindNumber, config.KindString:
		n, err := Number(ev, v, name)
		if err != nil {
			return out, err
		}
		return [2]float64{n, n}, nil
	case config.KindSeq:
		items := v.Items()
		if len(items) != 2 {
			return out, errors.New(errors.ErrCodeInvalidXY, "field %q should have exactly 2 elements, got %d", name, len(items))
		}
		for i, e := range items {
			n, err := Number(ev, e, name)
			if err != nil {
				return out, err
			}
			out[i] = n
		}
		return out, nil
	}
	return out, errors.New(errors.ErrCodeInvalidXY, "field %q should be a number or a pair, got %s", name, v.Kind())
}

// TRBL reads a top/right/bottom/left quadruple. A scalar applies to all
// sides, a pair is read as [horizontal, vertical]. Missing or null entries
// take def.
func TRBL(ev Evaluator, v config.Value, name string, def float64) ([4]float64, error) {
	read := func(e config.Value) (float64, error) {
		if e.IsNull() {
			return def, nil
		}
		return Number(ev, e, name)
	}
	switch v.Kind() {
	case config.KindNull, config.KindNumber, config.KindString:
		n, err := read(v)
		if err != nil {
			return [4]float64{}, err
		}
		return [4]float64{n, n, n, n}, nil
	case config.KindSeq:
		items := v.Items()
		vals := make([]float64, len(items))
		for i, e := range items {
			n, err := read(e)
			if err != nil {
				return [4]float64{}, err
			}
			vals[i] = n
		}
		switch len(vals) {
		case 2:
			return [4]float64{vals[1], vals[0], vals[1], vals[0]}, nil
		case 4:
			return [4]float64{vals[0], vals[1], vals[2], vals[3]}, nil
		}
		return [4]float64{}, errors.New(errors.ErrCodeInvalidTRBL, "field %q should have 2 or 4 elements, got %d", name, len(vals))
	}
	return [4]float64{}, errors.New(errors.ErrCodeInvalidTRBL, "field %q should be a number or a list, got %s", name, v.Kind())
}

// Bool reads a boolean field.
func Bool(v config.Value, name string) (bool, error) {
	b, ok := v.AsBool()
	if !ok {
		return false, errors.New(errors.ErrCodeInvalidBool, "field %q should be a boolean, got %s", name, v.Kind())
	}
	return b, nil
}

// String reads a string field.
func String(v config.Value, name string) (string, error) {
	s, ok := v.AsString()
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidString, "field %q should be a string, got %s", name, v.Kind())
	}
	return s, nil
}
