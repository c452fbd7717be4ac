package pathfit

import (
	"math"

	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
)

// Arc3 returns the arc that starts at a, passes through m and ends at b.
func Arc3(a, m, b geom.Vec) (Arc, error) {
	center, radius, ok := circle3(a, m, b)
	if !ok {
		return Arc{}, errors.New(errors.ErrCodeArcCollinear,
			"arc points (%g, %g), (%g, %g), (%g, %g) are collinear", a.X, a.Y, m.X, m.Y, b.X, b.Y)
	}
	start := a.Sub(center).Angle()
	sweep := ccwSpan(start, b.Sub(center).Angle())
	if m.Sub(a).Cross(b.Sub(m)) < 0 {
		sweep -= 360
	}
	return Arc{Center: center, Radius: radius, Start: start, End: start + sweep}, nil
}

// circle3 returns the circle through three points.
func circle3(a, b, c geom.Vec) (geom.Vec, float64, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	scale := math.Max(a.Dist(b), math.Max(b.Dist(c), c.Dist(a)))
	if scale == 0 || math.Abs(d) <= 1e-12*scale*scale {
		return geom.Vec{}, 0, false
	}
	a2, b2, c2 := a.Dot(a), b.Dot(b), c.Dot(c)
	center := geom.Vec{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}
	return center, center.Dist(a), true
}

// ccwSpan returns the counter-clockwise angle from start to end in
// (0, 360].
func ccwSpan(start, end float64) float64 {
	s := math.Mod(end-start, 360)
	if s <= 0 {
		s += 360
	}
	return s
}

// SCurve joins from and to with two arcs of equal radius that leave and
// arrive horizontally and meet at the midpoint with a shared tangent.
// When the ends share a height, or sit on one vertical, the curve is a
// single line.
func SCurve(from, to geom.Vec) []Primitive {
	dx, dy := to.X-from.X, to.Y-from.Y
	if math.Abs(dy) <= Tolerance || math.Abs(dx) <= Tolerance {
		return []Primitive{Line{A: from, B: to}}
	}
	r := (dx*dx + dy*dy) / (4 * math.Abs(dy))
	mid := from.Lerp(to, 0.5)
	up := math.Copysign(r, dy)

	c1 := geom.Vec{X: from.X, Y: from.Y + up}
	c2 := geom.Vec{X: to.X, Y: to.Y - up}
	return []Primitive{shortArc(c1, r, from, mid), shortArc(c2, r, mid, to)}
}

// shortArc returns the arc around center from a to b that sweeps less than
// half a turn.
func shortArc(center geom.Vec, r float64, a, b geom.Vec) Arc {
	start := a.Sub(center).Angle()
	sweep := ccwSpan(start, b.Sub(center).Angle())
	if sweep > 180 {
		sweep -= 360
	}
	return Arc{Center: center, Radius: r, Start: start, End: start + sweep}
}
