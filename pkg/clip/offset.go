package clip

import (
	"math"

	"github.com/matzehuels/keyplate/pkg/geom"
)

// Join selects how Expand fills the gap that opens at a convex corner.
type Join int

const (
	// Round joins with an arc centred on the corner.
	Round Join = iota
	// Miter extends both sides until they meet.
	Miter
	// Bevel joins with a straight cut across the corner.
	Bevel
)

// miterLimit is the longest miter, in multiples of the offset distance,
// before a corner falls back to a bevel.
const miterLimit = 10

// Expand grows a region by d, or shrinks it when d is negative. Every ring
// moves to its right-hand side, which is outward for counter-clockwise
// positive rings and into the hole for clockwise holes. Lines stay lines
// and arcs become concentric arcs.
func Expand(r geom.Region, d float64, j Join) geom.Region {
	if d == 0 || isVoid(r) {
		return r.Clone()
	}
	r = Orient(r)
	var rings []geom.Polyline
	for _, pl := range append(append([]geom.Polyline(nil), r.Pos...), r.Neg...) {
		if v := snapRing(pl); v != nil {
			rings = append(rings, offsetRing(v, d, j))
		}
	}
	return Overlay([]Operand{{Rings: rings, Rule: Positive}}, func(in []bool) bool { return in[0] })
}

// Fillet rounds every convex corner of r with the given radius by shrinking
// and regrowing it. Features narrower than twice the radius disappear.
func Fillet(r geom.Region, radius float64) geom.Region {
	if radius == 0 {
		return r.Clone()
	}
	return Expand(Expand(r, -radius, Round), radius, Round)
}

// offsetRing returns the raw offset curve of a closed ring. The curve may
// cross itself; loops that face the wrong way end up with non-positive
// winding and are discarded by the overlay that follows.
func offsetRing(v []geom.Vertex, d float64, j Join) geom.Polyline {
	n := len(v)
	starts := make([]geom.Vec, n)
	ends := make([]geom.Vec, n)
	for i := range v {
		e := newEdge(v[i].Pos(), v[(i+1)%n].Pos(), v[i].Bulge)
		s, t := e.tangents()
		starts[i], ends[i] = s.Unit(), t.Unit()
	}

	out := make([]geom.Vertex, 0, 3*n)
	add := func(p geom.Vec, bulge float64) {
		out = append(out, geom.Vertex{X: p.X, Y: p.Y, Bulge: bulge})
	}
	for i, vx := range v {
		p := vx.Pos()
		t1, t2 := ends[(i-1+n)%n], starts[i]
		n1, n2 := rightNormal(t1), rightNormal(t2)
		a, b := p.Add(n1.Scale(d)), p.Add(n2.Scale(d))
		cross := t1.Cross(t2)
		turn := math.Atan2(cross, t1.Dot(t2))
		switch {
		case math.Abs(turn) < 1e-9:
			add(b, vx.Bulge)
		case cross*d > 0:
			switch c := n1.Dot(n2); {
			case j == Round:
				add(a, math.Tan(turn/4))
			case j == Miter && 1+c >= 2/(miterLimit*miterLimit):
				add(a, 0)
				add(p.Add(n1.Add(n2).Scale(d/(1+c))), 0)
			default:
				add(a, 0)
			}
			add(b, vx.Bulge)
		default:
			add(a, 0)
			add(p, 0)
			add(b, vx.Bulge)
		}
	}
	return geom.Polyline{Vertices: out, Closed: true}
}

func rightNormal(t geom.Vec) geom.Vec { return geom.Vec{X: t.Y, Y: -t.X} }
