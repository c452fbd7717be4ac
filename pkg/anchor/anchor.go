// Package anchor resolves anchor expressions: declarative, chainable
// descriptions of a position and orientation relative to other points.
//
// An anchor is written as one of
//
//	"name"                      // the named point
//	[step, step, ...]           // each step starts where the last one ended
//	{ref, aggregate, orient, shift, rotate, affect, resist}
//
// In the map form, ref or aggregate (never both) choose the base point,
// then orient, shift and rotate apply in that order, and affect limits which
// coordinates leave the anchor. A numeric orient or rotate turns the point
// by that many degrees; any other value is itself an anchor, and the point
// turns to face it.
package anchor

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
	"github.com/matzehuels/keyplate/pkg/units"
)

// MirrorPrefix marks the names of mirrored points.
const MirrorPrefix = "mirror_"

// Lookup finds placed points by name.
type Lookup interface {
	Point(name string) (geom.Point, bool)
}

// Points is a plain map implementation of [Lookup].
type Points map[string]geom.Point

// Point implements [Lookup].
func (p Points) Point(name string) (geom.Point, bool) {
	pt, ok := p[name]
	return pt, ok
}

var fields = map[string]bool{
	"ref": true, "aggregate": true, "orient": true, "shift": true,
	"rotate": true, "affect": true, "resist": true,
}

// MirrorRef toggles the mirror prefix of a reference when mirror is set.
func MirrorRef(ref string, mirror bool) string {
	if !mirror {
		return ref
	}
	if rest, ok := strings.CutPrefix(ref, MirrorPrefix); ok {
		return rest
	}
	return MirrorPrefix + ref
}

// Resolve evaluates spec starting from start. name locates the anchor in
// the config for error messages. With mirror set, every reference is read
// on the other side of the mirror axis.
func Resolve(spec config.Value, name string, points Lookup, start geom.Point, mirror bool, ev units.Evaluator) (geom.Point, error) {
	if points == nil {
		points = Points{}
	}
	r := &resolver{points: points, mirror: mirror, ev: ev}
	return r.resolve(spec, name, start)
}

type resolver struct {
	points Lookup
	mirror bool
	ev     units.Evaluator
}

func (r *resolver) resolve(spec config.Value, name string, start geom.Point) (geom.Point, error) {
	switch spec.Kind() {
	case config.KindNull:
		return start, nil
	case config.KindString:
		return r.resolve(config.MapOf(config.P("ref", spec)), name, start)
	case config.KindSeq:
		cur := start
		for i, step := range spec.Items() {
			var err error
			if cur, err = r.resolve(step, name+"["+strconv.Itoa(i+1)+"]", cur); err != nil {
				return geom.Point{}, err
			}
		}
		return cur, nil
	case config.KindMap:
	default:
		return geom.Point{}, errors.New(errors.ErrCodeInvalidAnchor, "anchor %q should be a string, list or map, got %s", name, spec.Kind())
	}

	for _, k := range spec.Keys() {
		if !fields[k] {
			return geom.Point{}, errors.New(errors.ErrCodeInvalidAnchor, "unexpected key %q in anchor %q", k, name)
		}
	}
	resist := false
	if v, ok := spec.Get("resist"); ok && !v.IsNull() {
		b, err := units.Bool(v, name+".resist")
		if err != nil {
			return geom.Point{}, err
		}
		resist = b
	}

	point := start
	ref, hasRef := spec.Get("ref")
	agg, hasAgg := spec.Get("aggregate")
	if hasRef && hasAgg {
		return geom.Point{}, errors.New(errors.ErrCodeInvalidAnchor, "fields \"ref\" and \"aggregate\" cannot appear together in anchor %q", name)
	}
	if hasRef {
		if s, ok := ref.AsString(); ok {
			target := MirrorRef(s, r.mirror)
			p, found := r.points.Point(target)
			if !found {
				return geom.Point{}, errors.New(errors.ErrCodeUnknownPointRef, "unknown point reference %q in anchor %q", target, name)
			}
			point = p
		} else {
			p, err := r.resolve(ref, name+".ref", start)
			if err != nil {
				return geom.Point{}, err
			}
			point = p
		}
	}
	if hasAgg {
		p, err := r.aggregate(agg, name+".aggregate", start)
		if err != nil {
			return geom.Point{}, err
		}
		point = p
	}

	if v, ok := spec.Get("orient"); ok {
		p, err := r.turn(v, name+".orient", start, point, resist, true)
		if err != nil {
			return geom.Point{}, err
		}
		point = p
	}
	if v, ok := spec.Get("shift"); ok {
		xy, err := units.XY(r.ev, v, name+".shift")
		if err != nil {
			return geom.Point{}, err
		}
		point = point.Shift(geom.V(xy[0], xy[1]), !resist, resist)
	}
	if v, ok := spec.Get("rotate"); ok {
		p, err := r.turn(v, name+".rotate", start, point, resist, false)
		if err != nil {
			return geom.Point{}, err
		}
		point = p
	}
	if v, ok := spec.Get("affect"); ok {
		p, err := affect(v, name+".affect", start, point)
		if err != nil {
			return geom.Point{}, err
		}
		point = p
	}
	return point, nil
}

// turn applies an orient or rotate value. Numbers turn the point, with
// resist making an orient absolute. Anything else is a target anchor the
// point turns to face.
func (r *resolver) turn(v config.Value, name string, start, point geom.Point, resist, absolute bool) (geom.Point, error) {
	if units.IsNumeric(r.ev, v) {
		angle, err := units.Number(r.ev, v, name)
		if err != nil {
			return geom.Point{}, err
		}
		if absolute && resist {
			point.R = angle
			return point, nil
		}
		return point.Turn(angle, resist), nil
	}
	target, err := r.resolve(v, name, start)
	if err != nil {
		return geom.Point{}, err
	}
	point.R = point.Angle(target)
	return point, nil
}

func (r *resolver) aggregate(v config.Value, name string, start geom.Point) (geom.Point, error) {
	if !v.IsMap() {
		return geom.Point{}, errors.New(errors.ErrCodeInvalidAnchor, "field %q should be a map, got %s", name, v.Kind())
	}
	for _, k := range v.Keys() {
		if k != "parts" && k != "method" {
			return geom.Point{}, errors.New(errors.ErrCodeInvalidAnchor, "unexpected key %q in %q", k, name)
		}
	}
	method := "average"
	if m, ok := v.Get("method"); ok && !m.IsNull() {
		s, err := units.String(m, name+".method")
		if err != nil {
			return geom.Point{}, err
		}
		method = s
	}
	raw, ok := v.Get("parts")
	if !ok || !raw.IsSeq() {
		return geom.Point{}, errors.New(errors.ErrCodeInvalidAnchor, "field %q should be a list", name+".parts")
	}
	parts := make([]geom.Point, 0, raw.Len())
	for i, item := range raw.Items() {
		p, err := r.resolve(item, name+".parts["+strconv.Itoa(i+1)+"]", start)
		if err != nil {
			return geom.Point{}, err
		}
		parts = append(parts, p)
	}

	switch method {
	case "average":
		return average(parts), nil
	case "intersect":
		if len(parts) != 2 {
			return geom.Point{}, errors.New(errors.ErrCodeInvalidAnchor, "intersect in %q needs exactly 2 parts, got %d", name, len(parts))
		}
		p, ok := intersect(parts[0], parts[1])
		if !ok {
			return geom.Point{}, errors.New(errors.ErrCodeInvalidAnchor, "the parts of %q do not intersect", name)
		}
		return p, nil
	}
	return geom.Point{}, errors.New(errors.ErrCodeInvalidAnchor, "unknown aggregate method %q in %q", method, name)
}

func average(parts []geom.Point) geom.Point {
	if len(parts) == 0 {
		return geom.Point{}
	}
	var out geom.Point
	for _, p := range parts {
		out.X += p.X
		out.Y += p.Y
		out.R += p.R
	}
	n := float64(len(parts))
	return geom.Point{X: out.X / n, Y: out.Y / n, R: out.R / n}
}

// intersect crosses the local Y axes of two points.
func intersect(a, b geom.Point) (geom.Point, bool) {
	da := geom.V(0, 1).Rotate(a.R)
	db := geom.V(0, 1).Rotate(b.R)
	det := da.Cross(db)
	if math.Abs(det) < 1e-10 {
		return geom.Point{}, false
	}
	t := b.Pos().Sub(a.Pos()).Cross(db) / det
	hit := a.Pos().Add(da.Scale(t))
	return geom.Point{X: hit.X, Y: hit.Y}, true
}

// affect copies only the listed coordinates of candidate onto start.
func affect(v config.Value, name string, start, candidate geom.Point) (geom.Point, error) {
	var keys []string
	switch v.Kind() {
	case config.KindString:
		s, _ := v.AsString()
		for _, c := range s {
			keys = append(keys, string(c))
		}
	case config.KindSeq:
		for i, item := range v.Items() {
			s, err := units.String(item, name+"["+strconv.Itoa(i+1)+"]")
			if err != nil {
				return geom.Point{}, err
			}
			keys = append(keys, s)
		}
	default:
		return geom.Point{}, errors.New(errors.ErrCodeInvalidAnchor, "field %q should be a string or a list, got %s", name, v.Kind())
	}
	out := start
	for _, k := range keys {
		switch k {
		case "x":
			out.X = candidate.X
		case "y":
			out.Y = candidate.Y
		case "r":
			out.R = candidate.R
		default:
			return geom.Point{}, errors.New(errors.ErrCodeInvalidAnchor, "field %q may only name x, y or r, got %q", name, k)
		}
	}
	return out, nil
}
