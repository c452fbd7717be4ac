// Package clip implements boolean overlay and parallel offsetting of
// planar regions bounded by lines and circular arcs.
//
// Every operation snaps its input vertices to a fixed binary grid, splits
// all lines and arcs at their mutual intersections and keeps the pieces
// whose two sides disagree under the operation's inside test. The kept
// pieces are linked into rings with the filled side on the left, so results
// come back with counter-clockwise outer rings and clockwise holes. A split
// arc stays an arc: its pieces are shorter arcs of the same circle.
package clip

import (
	"math"
	"sort"

	"github.com/matzehuels/keyplate/pkg/geom"
)

const (
	gridScale    = 1 << 30
	touchTol     = 4.0 / gridScale
	nearTol      = 1e-7
	sampleOffset = 1e-7
	minRingArea  = 1e-10
)

// FillRule decides which winding numbers count as inside.
type FillRule int

const (
	// NonZero treats any non-zero winding as inside.
	NonZero FillRule = iota
	// Positive treats only positive winding as inside.
	Positive
)

// Operand is one input ring set of an overlay. Rings are read as closed.
type Operand struct {
	Rings []geom.Polyline
	Rule  FillRule
}

// Predicate combines the inside flags of every operand, in operand order,
// into the inside flag of the result.
type Predicate func(in []bool) bool

type gridKey struct{ x, y int64 }

func keyOf(v geom.Vec) gridKey {
	return gridKey{int64(math.Round(v.X * gridScale)), int64(math.Round(v.Y * gridScale))}
}

func snap(v geom.Vec) geom.Vec {
	return geom.Vec{X: math.Round(v.X*gridScale) / gridScale, Y: math.Round(v.Y*gridScale) / gridScale}
}

// snapRing snaps the vertices of a closed polyline to the overlay grid and
// drops zero-length segments. Rings that cannot enclose anything come back
// nil.
func snapRing(pl geom.Polyline) []geom.Vertex {
	out := make([]geom.Vertex, 0, len(pl.Vertices))
	for _, v := range pl.Vertices {
		p := snap(v.Pos())
		if len(out) > 0 && keyOf(out[len(out)-1].Pos()) == keyOf(p) {
			out[len(out)-1].Bulge = v.Bulge
			continue
		}
		out = append(out, geom.Vertex{X: p.X, Y: p.Y, Bulge: v.Bulge})
	}
	for len(out) > 1 && keyOf(out[0].Pos()) == keyOf(out[len(out)-1].Pos()) {
		out = out[:len(out)-1]
	}
	if len(out) < 2 || (len(out) == 2 && out[0].Bulge == 0 && out[1].Bulge == 0) {
		return nil
	}
	return out
}

// ring is a snapped closed ring prepared for point queries.
type ring struct {
	v    []geom.Vertex
	arcs []circle
	box  geom.BBox
}

type circle struct {
	c geom.Vec
	r float64
}

func newRing(v []geom.Vertex) ring {
	n := len(v)
	r := ring{v: v, arcs: make([]circle, n)}
	for i, a := range v {
		if a.Bulge == 0 {
			continue
		}
		c, rad, _, _ := geom.ArcGeometry(a.Pos(), v[(i+1)%n].Pos(), a.Bulge)
		r.arcs[i] = circle{c: c, r: rad}
	}
	r.box = geom.Polyline{Vertices: v, Closed: true}.BBox()
	return r
}

// winding counts how often the ring winds around p. The straight chords
// are counted first; each arc then adds the circular segment between its
// chord and itself, which it encloses counter-clockwise when its bulge is
// positive.
func (r ring) winding(p geom.Vec) int {
	w := 0
	n := len(r.v)
	for i := 0; i < n; i++ {
		a, b := r.v[i].Pos(), r.v[(i+1)%n].Pos()
		side := isLeft(a, b, p)
		if a.Y <= p.Y {
			if b.Y > p.Y && side > 0 {
				w++
			}
		} else if b.Y <= p.Y && side < 0 {
			w--
		}
		bulge := r.v[i].Bulge
		if bulge == 0 {
			continue
		}
		arc := r.arcs[i]
		if p.Dist(arc.c) >= arc.r {
			continue
		}
		switch {
		case bulge > 0 && side < 0:
			w++
		case bulge < 0 && side > 0:
			w--
		}
	}
	return w
}

func isLeft(a, b, p geom.Vec) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (p.X-a.X)*(b.Y-a.Y)
}

// ringSet is an operand prepared for point queries.
type ringSet struct {
	rings []ring
	rule  FillRule
}

func prepare(op Operand) ringSet {
	s := ringSet{rule: op.Rule}
	for _, pl := range op.Rings {
		if v := snapRing(pl); v != nil {
			s.rings = append(s.rings, newRing(v))
		}
	}
	return s
}

func (s ringSet) inside(p geom.Vec) bool {
	w := 0
	for _, r := range s.rings {
		b := r.box
		if p.Y < b.Min.Y || p.Y > b.Max.Y || p.X > b.Max.X {
			continue
		}
		w += r.winding(p)
	}
	if s.rule == Positive {
		return w > 0
	}
	return w != 0
}

// Overlay computes the region where keep holds, given the inside flags of
// each operand.
func Overlay(ops []Operand, keep Predicate) geom.Region {
	sets := make([]ringSet, len(ops))
	var segs []*segment
	for i, op := range ops {
		sets[i] = prepare(op)
		for _, r := range sets[i].rings {
			n := len(r.v)
			for j, v := range r.v {
				segs = append(segs, newSegment(v.Pos(), r.v[(j+1)%n].Pos(), v.Bulge))
			}
		}
	}
	split(segs)

	in := make([]bool, len(sets))
	classify := func(p geom.Vec) bool {
		for i, s := range sets {
			in[i] = s.inside(p)
		}
		return keep(in)
	}

	var edges []edge
	seen := make(map[pieceKey]bool)
	for _, s := range segs {
		for _, pc := range s.pieces() {
			id := pc.key()
			if seen[id] {
				continue
			}
			seen[id] = true

			mid, normal := pc.sample()
			left := classify(mid.Add(normal.Scale(sampleOffset)))
			right := classify(mid.Sub(normal.Scale(sampleOffset)))
			switch {
			case left == right:
			case left:
				edges = append(edges, newEdge(pc.a, pc.b, pc.bulge))
			default:
				edges = append(edges, newEdge(pc.b, pc.a, -pc.bulge))
			}
		}
	}
	return assemble(edges)
}

// split records every crossing, touching endpoint and overlap as a cut on
// the segments involved.
func split(segs []*segment) {
	order := make([]*segment, len(segs))
	copy(order, segs)
	sort.SliceStable(order, func(i, j int) bool { return order[i].box.Min.X < order[j].box.Min.X })
	for i, s := range order {
		for _, t := range order[i+1:] {
			if t.box.Min.X > s.box.Max.X+nearTol {
				break
			}
			if t.box.Min.Y > s.box.Max.Y+nearTol || t.box.Max.Y < s.box.Min.Y-nearTol {
				continue
			}
			intersect(s, t)
		}
	}
}

func intersect(s, t *segment) {
	for _, p := range [2]geom.Vec{t.a, t.b} {
		if s.onInterior(p) {
			s.cuts = append(s.cuts, p)
		}
	}
	for _, p := range [2]geom.Vec{s.a, s.b} {
		if t.onInterior(p) {
			t.cuts = append(t.cuts, p)
		}
	}
	for _, p := range crossings(s, t) {
		if !s.within(p) || !t.within(p) {
			continue
		}
		q := snap(p)
		k := keyOf(q)
		if k == keyOf(s.a) || k == keyOf(s.b) || k == keyOf(t.a) || k == keyOf(t.b) {
			continue
		}
		s.cuts = append(s.cuts, q)
		t.cuts = append(t.cuts, q)
	}
}

// crossings returns the candidate intersection points of the lines or
// circles that carry s and t.
func crossings(s, t *segment) []geom.Vec {
	switch {
	case s.bulge == 0 && t.bulge == 0:
		return lineLine(s.a, s.b, t.a, t.b)
	case s.bulge == 0:
		return lineCircle(s.a, s.b, t.c, t.r)
	case t.bulge == 0:
		return lineCircle(t.a, t.b, s.c, s.r)
	}
	return circleCircle(s.c, s.r, t.c, t.r)
}

func lineLine(a0, a1, b0, b1 geom.Vec) []geom.Vec {
	d1, d2 := a1.Sub(a0), b1.Sub(b0)
	den := d1.Cross(d2)
	if math.Abs(den) <= 1e-12*d1.Len()*d2.Len() {
		return nil
	}
	u := b0.Sub(a0).Cross(d2) / den
	return []geom.Vec{a0.Add(d1.Scale(u))}
}

func lineCircle(a, b, c geom.Vec, r float64) []geom.Vec {
	d := b.Sub(a)
	l := d.Len()
	if l == 0 {
		return nil
	}
	u := d.Scale(1 / l)
	f := c.Sub(a)
	off := f.Cross(u)
	h2 := r*r - off*off
	if h2 < 0 {
		if math.Abs(off)-r > touchTol {
			return nil
		}
		h2 = 0
	}
	foot := a.Add(u.Scale(f.Dot(u)))
	h := math.Sqrt(h2)
	if h <= touchTol {
		return []geom.Vec{foot}
	}
	return []geom.Vec{foot.Sub(u.Scale(h)), foot.Add(u.Scale(h))}
}

func circleCircle(c1 geom.Vec, r1 float64, c2 geom.Vec, r2 float64) []geom.Vec {
	d := c2.Sub(c1)
	dist := d.Len()
	if dist < nearTol && math.Abs(r1-r2) < nearTol {
		// Same circle: overlaps are cut where the arcs' ends fall.
		return nil
	}
	if dist == 0 || dist > r1+r2+touchTol || dist < math.Abs(r1-r2)-touchTol {
		return nil
	}
	u := d.Scale(1 / dist)
	a := (dist*dist + r1*r1 - r2*r2) / (2 * dist)
	base := c1.Add(u.Scale(a))
	h2 := r1*r1 - a*a
	if h2 <= touchTol*touchTol {
		return []geom.Vec{base}
	}
	h := math.Sqrt(h2)
	return []geom.Vec{base.Add(u.Perp().Scale(h)), base.Sub(u.Perp().Scale(h))}
}
