package clip

import (
	"math"
	"sort"

	"github.com/matzehuels/keyplate/pkg/geom"
)

// segment is one line or arc of an overlay input. Arcs keep the circle
// they lie on so they can be cut without flattening.
type segment struct {
	a, b  geom.Vec
	bulge float64

	c     geom.Vec
	r     float64
	start float64 // radians
	sweep float64 // signed radians

	cuts []geom.Vec
	box  geom.BBox
}

func newSegment(a, b geom.Vec, bulge float64) *segment {
	s := &segment{a: a, b: b, bulge: bulge}
	if bulge == 0 {
		s.box = geom.EmptyBBox().Extend(a).Extend(b)
		return s
	}
	c, r, start, sweep := geom.ArcGeometry(a, b, bulge)
	s.c, s.r = c, r
	s.start, s.sweep = geom.Radians(start), geom.Radians(sweep)
	s.box = geom.Polyline{Vertices: []geom.Vertex{{X: a.X, Y: a.Y, Bulge: bulge}, {X: b.X, Y: b.Y}}}.BBox()
	return s
}

func (s *segment) length() float64 {
	if s.bulge == 0 {
		return s.a.Dist(s.b)
	}
	return s.r * math.Abs(s.sweep)
}

// param returns where p falls along the segment, 0 at a and 1 at b. For
// arcs, points off the swept range read as below 0 or above 1, whichever
// end is closer.
func (s *segment) param(p geom.Vec) float64 {
	if s.bulge == 0 {
		d := s.b.Sub(s.a)
		return p.Sub(s.a).Dot(d) / d.Dot(d)
	}
	q := p.Sub(s.c)
	delta := math.Atan2(q.Y, q.X) - s.start
	if s.sweep < 0 {
		delta = -delta
	}
	delta = math.Mod(delta, 2*math.Pi)
	if delta < 0 {
		delta += 2 * math.Pi
	}
	span := math.Abs(s.sweep)
	if delta > math.Pi+span/2 {
		delta -= 2 * math.Pi
	}
	return delta / span
}

// within reports whether p, known to lie on the carrier line or circle,
// falls strictly inside the segment.
func (s *segment) within(p geom.Vec) bool {
	l := s.length()
	if l == 0 {
		return false
	}
	t := s.param(p)
	eps := touchTol / l
	return t > eps && t < 1-eps
}

// onInterior reports whether p lies on the segment away from its ends.
func (s *segment) onInterior(p geom.Vec) bool {
	k := keyOf(p)
	if k == keyOf(s.a) || k == keyOf(s.b) {
		return false
	}
	if s.bulge == 0 {
		d := s.b.Sub(s.a)
		l2 := d.Dot(d)
		if l2 == 0 {
			return false
		}
		t := p.Sub(s.a).Dot(d) / l2
		if t <= 0 || t >= 1 {
			return false
		}
		return math.Abs(d.Cross(p.Sub(s.a)))/math.Sqrt(l2) <= touchTol
	}
	if math.Abs(p.Dist(s.c)-s.r) > nearTol {
		return false
	}
	t := s.param(p)
	return t > 0 && t < 1
}

// piece is a part of a segment between two consecutive cuts.
type piece struct {
	a, b  geom.Vec
	bulge float64
}

// pieces returns the sub-segments between consecutive cuts. Arc pieces
// take the bulge of the angle they span.
func (s *segment) pieces() []piece {
	type cut struct {
		p geom.Vec
		t float64
	}
	cuts := make([]cut, 0, len(s.cuts)+2)
	for _, p := range s.cuts {
		cuts = append(cuts, cut{p, math.Min(math.Max(s.param(p), 0), 1)})
	}
	sort.SliceStable(cuts, func(i, j int) bool { return cuts[i].t < cuts[j].t })
	cuts = append([]cut{{s.a, 0}}, cuts...)
	cuts = append(cuts, cut{s.b, 1})

	out := make([]piece, 0, len(cuts)-1)
	prev := cuts[0]
	for _, c := range cuts[1:] {
		if keyOf(c.p) == keyOf(prev.p) {
			continue
		}
		pc := piece{a: prev.p, b: c.p}
		if s.bulge != 0 {
			pc.bulge = math.Tan((c.t - prev.t) * s.sweep / 4)
		}
		out = append(out, pc)
		prev = c
	}
	return out
}

type pieceKey struct {
	a, b  gridKey
	bulge int64
}

// key identifies a piece regardless of its direction, so coincident
// boundaries from different operands are classified once.
func (pc piece) key() pieceKey {
	ka, kb := keyOf(pc.a), keyOf(pc.b)
	bulge := pc.bulge
	if kb.x < ka.x || (kb.x == ka.x && kb.y < ka.y) {
		ka, kb, bulge = kb, ka, -bulge
	}
	return pieceKey{a: ka, b: kb, bulge: int64(math.Round(bulge * 1e6))}
}

// sample returns the midpoint of the piece and the unit normal on its left
// there. At the middle of an arc the tangent is parallel to the chord.
func (pc piece) sample() (mid, normal geom.Vec) {
	chord := pc.b.Sub(pc.a)
	l := chord.Len()
	normal = chord.Scale(1 / l).Perp()
	mid = pc.a.Lerp(pc.b, 0.5).Sub(normal.Scale(pc.bulge * l / 2))
	return mid, normal
}
