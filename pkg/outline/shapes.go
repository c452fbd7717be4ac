package outline

import (
	"math"
	"strconv"

	"github.com/matzehuels/keyplate/pkg/anchor"
	"github.com/matzehuels/keyplate/pkg/clip"
	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
	"github.com/matzehuels/keyplate/pkg/pathfit"
	"github.com/matzehuels/keyplate/pkg/points"
	"github.com/matzehuels/keyplate/pkg/units"
)

// generator produces a shape in the local frame of a placement.
type generator interface {
	local(pl placement) (geom.Region, error)
}

// bindable shapes report the box that binding quadrants grow from.
type bindable interface {
	bounds(local geom.Region) geom.BBox
}

func (b *Builder) generator(p *part) (generator, error) {
	switch p.kind {
	case kindRectangle:
		return b.newRectangle(p)
	case kindCircle:
		r, err := numberField(b.ev, p.spec, "radius", p.path, 0)
		if err != nil {
			return nil, err
		}
		if r <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidNumber, "%s.radius should be positive, got %g", p.path, r)
		}
		return circle{radius: r}, nil
	case kindPolygon:
		pts, err := seqField(p.spec, "points", p.path, 3)
		if err != nil {
			return nil, err
		}
		return &polygon{b: b, path: p.path, points: pts}, nil
	case kindHull:
		return b.newHull(p)
	case kindPath:
		segs, err := seqField(p.spec, "segments", p.path, 1)
		if err != nil {
			return nil, err
		}
		return &path{b: b, path: p.path, segments: segs}, nil
	case kindOutline:
		return reference{b: b, name: p.ref}, nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "%s: unsupported shape", p.path)
}

// rectangle is centered on its placement. The corner radius rounds and the
// bevel cuts the corners; both together give a rounded octagon.
type rectangle struct {
	w, h          float64
	corner, bevel float64
}

func (b *Builder) newRectangle(p *part) (*rectangle, error) {
	sizeSpec, ok := p.spec.Get("size")
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s.size is required", p.path)
	}
	size, err := units.XY(b.ev, sizeSpec, p.path+".size")
	if err != nil {
		return nil, err
	}
	ev := withVars(b.ev, map[string]float64{"sx": size[0], "sy": size[1]})
	r := &rectangle{w: size[0], h: size[1]}
	if r.corner, err = numberField(ev, p.spec, "corner", p.path, 0); err != nil {
		return nil, err
	}
	if r.bevel, err = numberField(ev, p.spec, "bevel", p.path, 0); err != nil {
		return nil, err
	}
	if r.corner < 0 || r.bevel < 0 {
		return nil, errors.New(errors.ErrCodeInvalidNumber, "%s: corner and bevel cannot be negative", p.path)
	}
	mod := 2 * (r.corner + r.bevel)
	if r.w-mod < 0 {
		return nil, errors.New(errors.ErrCodeInvalidNumber, "%s: rectangle is not wide enough for its corner and bevel (%g - 2 * %g - 2 * %g < 0)", p.path, r.w, r.corner, r.bevel)
	}
	if r.h-mod < 0 {
		return nil, errors.New(errors.ErrCodeInvalidNumber, "%s: rectangle is not tall enough for its corner and bevel (%g - 2 * %g - 2 * %g < 0)", p.path, r.h, r.corner, r.bevel)
	}
	return r, nil
}

func (r *rectangle) plain() bool { return r.corner == 0 && r.bevel == 0 }

// grow resizes a plain rectangle as if it had been scaled and then expanded
// with sharp or chamfered corners.
func (r *rectangle) grow(scale, d float64, j joints) {
	r.w = r.w*scale + 2*d
	r.h = r.h*scale + 2*d
	if j == jointBeveled && d > 0 {
		r.bevel = d
	}
}

func (r *rectangle) local(placement) (geom.Region, error) {
	x := r.w/2 - r.corner - r.bevel
	y := r.h/2 - r.corner - r.bevel
	b := r.bevel
	core := []geom.Vec{{X: -x, Y: -y}, {X: x, Y: -y}, {X: x, Y: y}, {X: -x, Y: y}}
	if b > 0 {
		core = []geom.Vec{
			{X: -x, Y: -y - b}, {X: x, Y: -y - b}, {X: x + b, Y: -y}, {X: x + b, Y: y},
			{X: x, Y: y + b}, {X: -x, Y: y + b}, {X: -x - b, Y: y}, {X: -x - b, Y: -y},
		}
	}
	return geom.Region{Pos: []geom.Polyline{roundCorners(core, r.corner)}}, nil
}

func (r *rectangle) bounds(geom.Region) geom.BBox {
	return geom.BBox{Min: geom.V(-r.w/2, -r.h/2), Max: geom.V(r.w/2, r.h/2)}
}

// roundCorners offsets a convex counter-clockwise polygon outward by c with
// round joins. Coincident vertices collapse, so a zero-size core becomes a
// circle and a flat one a stadium.
func roundCorners(core []geom.Vec, c float64) geom.Polyline {
	var pts []geom.Vec
	for _, p := range core {
		if len(pts) > 0 && pts[len(pts)-1].Near(p, 0) {
			continue
		}
		pts = append(pts, p)
	}
	if len(pts) > 1 && pts[0].Near(pts[len(pts)-1], 0) {
		pts = pts[:len(pts)-1]
	}
	if c == 0 {
		return geom.Ring(pts...)
	}
	if len(pts) == 1 {
		p := pts[0]
		return geom.Polyline{Closed: true, Vertices: []geom.Vertex{
			{X: p.X + c, Y: p.Y, Bulge: 1},
			{X: p.X - c, Y: p.Y, Bulge: 1},
		}}
	}

	n := len(pts)
	normals := make([]geom.Vec, n)
	for i := range pts {
		e := pts[(i+1)%n].Sub(pts[i]).Unit()
		normals[i] = geom.V(e.Y, -e.X)
	}
	var out geom.Polyline
	out.Closed = true
	for i, p := range pts {
		n1, n2 := normals[(i-1+n)%n], normals[i]
		turn := math.Abs(math.Atan2(n1.Cross(n2), n1.Dot(n2)))
		a := p.Add(n1.Scale(c))
		if turn < 1e-12 {
			out.Vertices = append(out.Vertices, geom.Vertex{X: a.X, Y: a.Y})
			continue
		}
		z := p.Add(n2.Scale(c))
		out.Vertices = append(out.Vertices,
			geom.Vertex{X: a.X, Y: a.Y, Bulge: math.Tan(turn / 4)},
			geom.Vertex{X: z.X, Y: z.Y},
		)
	}
	return out
}

type circle struct{ radius float64 }

func (c circle) local(placement) (geom.Region, error) {
	return geom.Region{Pos: []geom.Polyline{roundCorners([]geom.Vec{{}}, c.radius)}}, nil
}

func (c circle) bounds(geom.Region) geom.BBox {
	return geom.BBox{Min: geom.V(-c.radius, -c.radius), Max: geom.V(c.radius, c.radius)}
}

// polygon vertices are an anchor chain starting at the placement.
type polygon struct {
	b      *Builder
	path   string
	points []config.Value
}

func (g *polygon) local(pl placement) (geom.Region, error) {
	cur := pl.Point
	world := make([]geom.Vec, 0, len(g.points))
	for i, spec := range g.points {
		var err error
		name := g.path + ".points[" + strconv.Itoa(i+1) + "]"
		if cur, err = anchor.Resolve(spec, name, g.b.points, cur, pl.Mirrored, g.b.ev); err != nil {
			return geom.Region{}, err
		}
		world = append(world, cur.Pos())
	}
	ring := geom.Ring(toLocal(world, pl.Point)...)
	return clip.Normalize(geom.Region{Pos: []geom.Polyline{ring}}), nil
}

func (g *polygon) bounds(local geom.Region) geom.BBox { return local.BBox() }

// path chains line, arc, bezier and s-curve segments into one ring. Every
// point is an anchor resolved from the placement.
type path struct {
	b        *Builder
	path     string
	segments []config.Value
}

var segmentArity = map[string][]int{
	"line":    {2},
	"arc":     {3},
	"bezier":  {3, 4},
	"s_curve": {2},
}

func (g *path) local(pl placement) (geom.Region, error) {
	var prims []pathfit.Primitive
	for i, seg := range g.segments {
		name := g.path + ".segments[" + strconv.Itoa(i+1) + "]"
		if !seg.IsMap() {
			return geom.Region{}, errors.New(errors.ErrCodeInvalidInput, "%s should be a map, got %s", name, seg.Kind())
		}
		if err := expectFields(seg, name, []string{"type", "points"}); err != nil {
			return geom.Region{}, err
		}
		typ, err := stringField(seg, "type", name, "")
		if err != nil {
			return geom.Region{}, err
		}
		arity, ok := segmentArity[typ]
		if !ok {
			return geom.Region{}, errors.New(errors.ErrCodeUnsupported, "%s.type: unknown segment %q", name, typ)
		}
		specs, err := seqField(seg, "points", name, arity[0])
		if err != nil {
			return geom.Region{}, err
		}
		if len(specs) != arity[0] && (len(arity) == 1 || len(specs) != arity[1]) {
			return geom.Region{}, errors.New(errors.ErrCodeInvalidInput, "%s: %s takes %v points, got %d", name, typ, arity, len(specs))
		}
		pts := make([]geom.Vec, len(specs))
		for j, spec := range specs {
			p, err := anchor.Resolve(spec, name+".points["+strconv.Itoa(j+1)+"]", g.b.points, pl.Point, pl.Mirrored, g.b.ev)
			if err != nil {
				return geom.Region{}, err
			}
			pts[j] = toLocal([]geom.Vec{p.Pos()}, pl.Point)[0]
		}

		switch typ {
		case "line":
			prims = append(prims, pathfit.Line{A: pts[0], B: pts[1]})
		case "arc":
			arc, err := pathfit.Arc3(pts[0], pts[1], pts[2])
			if err != nil {
				return geom.Region{}, errors.Wrap(errors.GetCode(err), err, "%s", name)
			}
			prims = append(prims, arc)
		case "bezier":
			run, err := pathfit.Bezier(pts)
			if err != nil {
				return geom.Region{}, err
			}
			prims = append(prims, run...)
		case "s_curve":
			prims = append(prims, pathfit.SCurve(pts[0], pts[1])...)
		}
	}

	ring, err := pathfit.Fit(prims)
	if err != nil {
		return geom.Region{}, errors.Wrap(errors.GetCode(err), err, "%s", g.path)
	}
	return clip.Normalize(geom.Region{Pos: []geom.Polyline{ring}}), nil
}

// reference places a previously built outline.
type reference struct {
	b    *Builder
	name string
}

func (g reference) local(placement) (geom.Region, error) {
	return g.b.Build(g.name)
}

// bind grows a shape toward its neighbours: each quadrant whose sides have
// a non-zero reach is covered by a rectangle from the local origin to the
// shape's bounds extended by that reach.
func bind(base geom.Region, bbox geom.BBox, reach [4]float64) geom.Region {
	top := math.Max(bbox.Max.Y, 0) + reach[points.Top]
	right := math.Max(bbox.Max.X, 0) + reach[points.Right]
	bottom := math.Min(bbox.Min.Y, 0) - reach[points.Bottom]
	left := math.Min(bbox.Min.X, 0) - reach[points.Left]

	quads := []struct {
		on             bool
		x0, y0, x1, y1 float64
	}{
		{reach[points.Top] != 0 || reach[points.Right] != 0, 0, 0, right, top},
		{reach[points.Right] != 0 || reach[points.Bottom] != 0, 0, bottom, right, 0},
		{reach[points.Bottom] != 0 || reach[points.Left] != 0, left, bottom, 0, 0},
		{reach[points.Left] != 0 || reach[points.Top] != 0, left, 0, 0, top},
	}
	out := base
	for _, q := range quads {
		if !q.on || q.x1-q.x0 <= 0 || q.y1-q.y0 <= 0 {
			continue
		}
		out = clip.Add(out, geom.Region{Pos: []geom.Polyline{geom.Ring(
			geom.V(q.x0, q.y0), geom.V(q.x1, q.y0), geom.V(q.x1, q.y1), geom.V(q.x0, q.y1),
		)}})
	}
	return out
}

// toLocal maps world positions into the frame of p.
func toLocal(world []geom.Vec, p geom.Point) []geom.Vec {
	out := make([]geom.Vec, len(world))
	for i, v := range world {
		out[i] = v.Sub(p.Pos()).Rotate(-p.R)
	}
	return out
}

func seqField(v config.Value, key, path string, min int) ([]config.Value, error) {
	f, _ := v.Get(key)
	if !f.IsSeq() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s.%s should be a list, got %s", path, key, f.Kind())
	}
	if f.Len() < min {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s.%s needs at least %d entries, got %d", path, key, min, f.Len())
	}
	return f.Items(), nil
}

// withVars extends an evaluator with shape-local names such as the
// rectangle's sx and sy.
func withVars(ev units.Evaluator, vars map[string]float64) units.Evaluator {
	if t, ok := ev.(*units.Table); ok {
		return t.With(vars)
	}
	return ev
}
