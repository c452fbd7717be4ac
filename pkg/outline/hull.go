package outline

import (
	"math"
	"sort"
	"strconv"

	"github.com/matzehuels/keyplate/pkg/anchor"
	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/geom"
)

const (
	defaultConcavity = 50
	// hullSampleStep is the longest gap between samples taken along a
	// key's silhouette when the hull is extended.
	hullSampleStep = 18
)

// hull wraps a set of anchors, or the silhouettes of the keys they name.
type hull struct {
	b         *Builder
	path      string
	points    []config.Value
	concavity float64
	extend    bool
}

func (b *Builder) newHull(p *part) (*hull, error) {
	pts, err := seqField(p.spec, "points", p.path, 1)
	if err != nil {
		return nil, err
	}
	h := &hull{b: b, path: p.path, points: pts}
	if h.concavity, err = numberField(b.ev, p.spec, "concavity", p.path, defaultConcavity); err != nil {
		return nil, err
	}
	if h.extend, err = boolField(p.spec, "extend", p.path, true); err != nil {
		return nil, err
	}
	return h, nil
}

func (g *hull) local(pl placement) (geom.Region, error) {
	var world []geom.Vec
	for i, spec := range g.points {
		name := g.path + ".points[" + strconv.Itoa(i+1) + "]"
		p, err := anchor.Resolve(spec, name, g.b.points, pl.Point, pl.Mirrored, g.b.ev)
		if err != nil {
			return geom.Region{}, err
		}
		k := g.b.refKey(spec, pl.Mirrored)
		if !g.extend || k == nil {
			world = append(world, p.Pos())
			continue
		}
		world = append(world, silhouette(p, k.Width, k.Height)...)
	}

	ring := concaveHull(toLocal(world, pl.Point), g.concavity)
	if len(ring) < 3 {
		return geom.Region{}, nil
	}
	return geom.Region{Pos: []geom.Polyline{geom.Ring(ring...)}}, nil
}

// silhouette samples the outline of a w×h key centered on p.
func silhouette(p geom.Point, w, h float64) []geom.Vec {
	corners := []geom.Vec{{X: -w / 2, Y: -h / 2}, {X: w / 2, Y: -h / 2}, {X: w / 2, Y: h / 2}, {X: -w / 2, Y: h / 2}}
	var out []geom.Vec
	for i, a := range corners {
		b := corners[(i+1)%4]
		n := int(math.Ceil(a.Dist(b) / hullSampleStep))
		if n < 1 {
			n = 1
		}
		for k := 0; k < n; k++ {
			out = append(out, p.Local(a.Lerp(b, float64(k)/float64(n))))
		}
	}
	return out
}

// concaveHull returns a counter-clockwise boundary around pts. It starts
// from the convex hull and repeatedly digs edges longer than concavity in
// toward the nearest enclosed point, as long as the dent keeps the ring
// simple and leaves no point outside.
func concaveHull(pts []geom.Vec, concavity float64) []geom.Vec {
	pts = uniquePoints(pts)
	if len(pts) < 3 {
		return pts
	}
	ring := convexHull(pts)
	if len(ring) < 3 {
		return ring
	}

	onRing := map[geom.Vec]bool{}
	for _, p := range ring {
		onRing[p] = true
	}
	var inner []geom.Vec
	for _, p := range pts {
		if !onRing[p] {
			inner = append(inner, p)
		}
	}

	for changed := true; changed && len(inner) > 0; {
		changed = false
		for i := 0; i < len(ring); i++ {
			a, b := ring[i], ring[(i+1)%len(ring)]
			edge := a.Dist(b)
			if edge <= concavity {
				continue
			}
			best, bestScore := -1, 0.0
			for j, p := range inner {
				ca := cosAngle(b.Sub(a), p.Sub(a))
				cb := cosAngle(a.Sub(b), p.Sub(b))
				if ca <= 0 || cb <= 0 || p.Dist(a) >= edge || p.Dist(b) >= edge {
					continue
				}
				score := math.Min(ca, cb)
				if best >= 0 && score <= bestScore {
					continue
				}
				if crossesRing(ring, a, p) || crossesRing(ring, p, b) || enclosesAny(inner, j, a, p, b) {
					continue
				}
				best, bestScore = j, score
			}
			if best < 0 {
				continue
			}
			p := inner[best]
			inner = append(inner[:best], inner[best+1:]...)
			ring = append(ring[:i+1], append([]geom.Vec{p}, ring[i+1:]...)...)
			changed = true
		}
	}
	return ring
}

// convexHull returns the convex hull counter-clockwise, without collinear
// points, using Andrew's monotone chain.
func convexHull(pts []geom.Vec) []geom.Vec {
	sorted := append([]geom.Vec(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})
	turn := func(o, a, b geom.Vec) float64 { return a.Sub(o).Cross(b.Sub(o)) }

	out := make([]geom.Vec, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(out) >= 2 && turn(out[len(out)-2], out[len(out)-1], p) <= 0 {
			out = out[:len(out)-1]
		}
		out = append(out, p)
	}
	lower := len(out) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(out) >= lower && turn(out[len(out)-2], out[len(out)-1], p) <= 0 {
			out = out[:len(out)-1]
		}
		out = append(out, p)
	}
	return out[:len(out)-1]
}

func uniquePoints(pts []geom.Vec) []geom.Vec {
	seen := map[geom.Vec]bool{}
	var out []geom.Vec
	for _, p := range pts {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func cosAngle(u, v geom.Vec) float64 {
	l := u.Len() * v.Len()
	if l == 0 {
		return -1
	}
	return u.Dot(v) / l
}

// crossesRing reports whether segment p-q properly crosses an edge of ring
// that does not share an endpoint with it.
func crossesRing(ring []geom.Vec, p, q geom.Vec) bool {
	for i, a := range ring {
		b := ring[(i+1)%len(ring)]
		if a == p || a == q || b == p || b == q {
			continue
		}
		d1 := q.Sub(p).Cross(a.Sub(p))
		d2 := q.Sub(p).Cross(b.Sub(p))
		d3 := b.Sub(a).Cross(p.Sub(a))
		d4 := b.Sub(a).Cross(q.Sub(a))
		if d1*d2 < 0 && d3*d4 < 0 {
			return true
		}
	}
	return false
}

// enclosesAny reports whether an inner point other than skip lies inside
// the triangle a, p, b that digging would cut away.
func enclosesAny(inner []geom.Vec, skip int, a, p, b geom.Vec) bool {
	for j, q := range inner {
		if j == skip {
			continue
		}
		d1 := p.Sub(a).Cross(q.Sub(a))
		d2 := b.Sub(p).Cross(q.Sub(p))
		d3 := a.Sub(b).Cross(q.Sub(b))
		neg := d1 < 0 || d2 < 0 || d3 < 0
		pos := d1 > 0 || d2 > 0 || d3 > 0
		if !(neg && pos) {
			return true
		}
	}
	return false
}
