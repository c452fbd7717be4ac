package outline

import (
	"regexp"
	"strings"

	"github.com/matzehuels/keyplate/pkg/anchor"
	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
	"github.com/matzehuels/keyplate/pkg/points"
	"github.com/matzehuels/keyplate/pkg/units"
)

// placement is a frame a shape is generated in, with the bind reach of the
// key it came from.
type placement struct {
	geom.Point
	Bind [4]float64
}

// placements evaluates the where filter of a part and applies its adjust
// anchor to each result.
func (b *Builder) placements(p *part) ([]placement, error) {
	var out []placement
	where := p.where

	switch {
	case where.IsNull():
		out = []placement{{}}

	case where.IsBool():
		all, _ := where.AsBool()
		if all {
			for _, k := range b.points.Keys() {
				if matchesAsym(k, p.asym) {
					out = append(out, fromKey(k))
				}
			}
		}

	case isRegex(where):
		s, _ := where.AsString()
		re, err := regexp.Compile(s[1 : len(s)-1])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidString, err, "%s.where: invalid pattern %q", p.path, s)
		}
		for _, k := range b.points.Keys() {
			if matchesAsym(k, p.asym) && matchesKey(re, k) {
				out = append(out, fromKey(k))
			}
		}

	default:
		var sides []bool
		switch p.asym {
		case points.AsymSource:
			sides = []bool{false}
		case points.AsymClone:
			sides = []bool{true}
		default:
			sides = []bool{false, true}
		}
		for _, mirror := range sides {
			pt, err := anchor.Resolve(where, p.path+".where", b.points, geom.Point{}, mirror, b.ev)
			if err != nil {
				return nil, err
			}
			pl := placement{Point: pt}
			if k := b.refKey(where, mirror); k != nil {
				pl.Bind = k.EffectiveBind()
			}
			if len(out) > 0 && out[0].Point.Near(pt, geom.Eps) && out[0].Mirrored == pt.Mirrored {
				continue
			}
			out = append(out, pl)
		}
	}

	if p.adjust.IsNull() {
		return out, nil
	}
	for i := range out {
		adjusted, err := anchor.Resolve(p.adjust, p.path+".adjust", b.points, out[i].Point, out[i].Mirrored, b.ev)
		if err != nil {
			return nil, err
		}
		out[i].Point = adjusted
	}
	return out, nil
}

// refKey returns the key an anchor starts from, when it names one directly.
func (b *Builder) refKey(spec config.Value, mirror bool) *points.Key {
	for spec.IsMap() {
		ref, ok := spec.Get("ref")
		if !ok {
			return nil
		}
		spec = ref
	}
	name, ok := spec.AsString()
	if !ok {
		return nil
	}
	k, _ := b.points.Get(anchor.MirrorRef(name, mirror))
	return k
}

func fromKey(k *points.Key) placement {
	return placement{Point: k.Point, Bind: k.EffectiveBind()}
}

func matchesAsym(k *points.Key, asym points.Asym) bool {
	switch asym {
	case points.AsymSource:
		return !k.Mirrored
	case points.AsymClone:
		return k.Mirrored
	}
	return true
}

func matchesKey(re *regexp.Regexp, k *points.Key) bool {
	if re.MatchString(k.Name) {
		return true
	}
	for _, t := range k.Tags {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

func isRegex(v config.Value) bool {
	s, ok := v.AsString()
	return ok && len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/")
}

// Field helpers shared by the shape generators.

func stringField(v config.Value, key, path, def string) (string, error) {
	f, ok := v.Get(key)
	if !ok || f.IsNull() {
		return def, nil
	}
	return units.String(f, path+"."+key)
}

func boolField(v config.Value, key, path string, def bool) (bool, error) {
	f, ok := v.Get(key)
	if !ok || f.IsNull() {
		return def, nil
	}
	return units.Bool(f, path+"."+key)
}

func numberField(ev units.Evaluator, v config.Value, key, path string, def float64) (float64, error) {
	return units.NumberField(ev, v, key, def, path)
}
