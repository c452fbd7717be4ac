package pathfit

import (
	"math"

	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
)

const (
	lengthSamples = 64
	checkSamples  = 8
	searchSteps   = 24
)

// cubic is a cubic Bézier curve.
type cubic [4]geom.Vec

func (c cubic) at(t float64) geom.Vec {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return geom.Vec{
		X: a*c[0].X + b*c[1].X + d*c[2].X + e*c[3].X,
		Y: a*c[0].Y + b*c[1].Y + d*c[2].Y + e*c[3].Y,
	}
}

func (c cubic) length() float64 {
	var l float64
	prev := c[0]
	for i := 1; i <= lengthSamples; i++ {
		p := c.at(float64(i) / lengthSamples)
		l += p.Dist(prev)
		prev = p
	}
	return l
}

// Bezier converts a quadratic (three control points) or cubic (four)
// Bézier curve into arcs and lines. Every piece stays within a hundredth of
// the curve's length of the true curve, and each piece is grown as far
// along the curve as that bound allows.
func Bezier(ctrl []geom.Vec) ([]Primitive, error) {
	var c cubic
	switch len(ctrl) {
	case 3:
		c = cubic{
			ctrl[0],
			ctrl[0].Lerp(ctrl[1], 2.0/3),
			ctrl[2].Lerp(ctrl[1], 2.0/3),
			ctrl[2],
		}
	case 4:
		c = cubic{ctrl[0], ctrl[1], ctrl[2], ctrl[3]}
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "bezier needs 3 or 4 control points, got %d", len(ctrl))
	}

	accuracy := c.length() / 100
	if accuracy <= Tolerance {
		return []Primitive{Line{A: c[0], B: c[3]}}, nil
	}

	var out []Primitive
	for t0 := 0.0; t0 < 1; {
		t1 := 1.0
		piece, ok := fitPiece(c, t0, t1, accuracy)
		if !ok {
			lo, hi := t0, 1.0
			for i := 0; i < searchSteps; i++ {
				mid := (lo + hi) / 2
				if p, ok := fitPiece(c, t0, mid, accuracy); ok {
					lo, piece = mid, p
				} else {
					hi = mid
				}
			}
			t1 = lo
			if t1 <= t0 {
				t1 = math.Min(1, t0+1.0/lengthSamples)
				piece, _ = fitPiece(c, t0, t1, math.Inf(1))
			}
		}
		out = append(out, piece)
		t0 = t1
	}
	return out, nil
}

// fitPiece approximates the curve between t0 and t1 by the arc through its
// ends and midpoint, or by a line when those are collinear, and reports
// whether the approximation holds within accuracy.
func fitPiece(c cubic, t0, t1, accuracy float64) (Primitive, bool) {
	a, m, b := c.at(t0), c.at((t0+t1)/2), c.at(t1)
	arc, err := Arc3(a, m, b)
	if err != nil {
		line := Line{A: a, B: b}
		d := b.Sub(a)
		l := d.Len()
		for k := 1; k < checkSamples; k++ {
			p := c.at(t0 + (t1-t0)*float64(k)/checkSamples)
			var dist float64
			if l == 0 {
				dist = p.Dist(a)
			} else {
				dist = math.Abs(d.Cross(p.Sub(a))) / l
			}
			if dist > accuracy {
				return line, false
			}
		}
		return line, true
	}
	for k := 1; k < checkSamples; k++ {
		p := c.at(t0 + (t1-t0)*float64(k)/checkSamples)
		if math.Abs(p.Dist(arc.Center)-arc.Radius) > accuracy {
			return arc, false
		}
	}
	return arc, true
}
