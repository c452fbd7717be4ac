// Package pathfit chains line and arc primitives into closed bulge
// polylines.
//
// Primitives may be given in any direction: each one is matched against
// the end of the chain so far and reversed when its far end is the one
// that connects. Curves that are not circular (cubic and quadratic
// Béziers, S-curves) are first converted to runs of arcs and lines by
// [Bezier] and [SCurve].
package pathfit

import (
	"math"

	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
)

// Tolerance is the endpoint matching distance.
const Tolerance = 1e-6

// Primitive is a path piece with a start, an end and a curvature.
type Primitive interface {
	// Endpoints returns the start and end of the piece.
	Endpoints() (geom.Vec, geom.Vec)
	// Bulge returns tan(sweep/4) of the piece when walked from start to end.
	Bulge() float64
}

// Line is a straight segment.
type Line struct {
	A, B geom.Vec
}

func (l Line) Endpoints() (geom.Vec, geom.Vec) { return l.A, l.B }

func (Line) Bulge() float64 { return 0 }

// Arc is a circular arc from Start to End degrees around Center. End-Start
// is the signed sweep, positive for counter-clockwise.
type Arc struct {
	Center     geom.Vec
	Radius     float64
	Start, End float64
}

func (a Arc) Endpoints() (geom.Vec, geom.Vec) {
	return a.at(a.Start), a.at(a.End)
}

func (a Arc) Bulge() float64 {
	return math.Tan(geom.Radians(a.End-a.Start) / 4)
}

func (a Arc) at(deg float64) geom.Vec {
	s, c := geom.SinCos(deg)
	return geom.Vec{X: a.Center.X + a.Radius*c, Y: a.Center.Y + a.Radius*s}
}

// Fit chains primitives into one closed polyline.
func Fit(prims []Primitive) (geom.Polyline, error) {
	if len(prims) == 0 {
		return geom.Polyline{}, errors.New(errors.ErrCodeNotClosedChain, "path has no segments")
	}

	first, last := prims[0].Endpoints()
	bulge := prims[0].Bulge()
	if len(prims) > 1 {
		na, nb := prims[1].Endpoints()
		if !near(last, na) && !near(last, nb) && (near(first, na) || near(first, nb)) {
			first, last = last, first
			bulge = -bulge
		}
	}

	verts := []geom.Vertex{{X: first.X, Y: first.Y, Bulge: bulge}}
	cur := last
	for i, p := range prims[1:] {
		a, b := p.Endpoints()
		bulge := p.Bulge()
		switch {
		case near(a, cur):
		case near(b, cur):
			a, b = b, a
			bulge = -bulge
		default:
			return geom.Polyline{}, errors.New(errors.ErrCodeDisconnected,
				"segment %d starts at (%g, %g), chain is at (%g, %g)", i+1, a.X, a.Y, cur.X, cur.Y)
		}
		verts = append(verts, geom.Vertex{X: cur.X, Y: cur.Y, Bulge: bulge})
		cur = b
	}
	if !near(cur, first) {
		return geom.Polyline{}, errors.New(errors.ErrCodeNotClosedChain,
			"path ends at (%g, %g), not at its start (%g, %g)", cur.X, cur.Y, first.X, first.Y)
	}
	return geom.Polyline{Vertices: collapse(verts), Closed: true}, nil
}

// collapse drops vertices that coincide with the one before them. The
// zero-length segment they start carries no shape, so its bulge goes too.
func collapse(verts []geom.Vertex) []geom.Vertex {
	out := verts[:1]
	for _, v := range verts[1:] {
		if near(v.Pos(), out[len(out)-1].Pos()) {
			out[len(out)-1].Bulge = v.Bulge
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && near(out[len(out)-1].Pos(), out[0].Pos()) {
		out = out[:len(out)-1]
	}
	return out
}

func near(a, b geom.Vec) bool { return a.Dist(b) <= Tolerance }
