// Package geom provides the planar primitives shared by the layout engine
// and the outline builder: vectors, placed points, rotation frames, bulge
// polylines and regions.
//
// Angles are in degrees and positive angles turn counter-clockwise, with
// the Y axis pointing up.
package geom

import "math"

// Eps is the tolerance used for coincidence tests between endpoints.
const Eps = 1e-6

// Vec is a 2D vector or position.
type Vec struct {
	X, Y float64
}

// V is shorthand for constructing a [Vec].
func V(x, y float64) Vec { return Vec{X: x, Y: y} }

func (a Vec) Add(b Vec) Vec { return Vec{a.X + b.X, a.Y + b.Y} }

func (a Vec) Sub(b Vec) Vec { return Vec{a.X - b.X, a.Y - b.Y} }

func (a Vec) Scale(s float64) Vec { return Vec{a.X * s, a.Y * s} }

func (a Vec) Dot(b Vec) float64 { return a.X*b.X + a.Y*b.Y }

// Cross returns the z component of the 3D cross product.
func (a Vec) Cross(b Vec) float64 { return a.X*b.Y - a.Y*b.X }

func (a Vec) Len() float64 { return math.Hypot(a.X, a.Y) }

func (a Vec) Dist(b Vec) float64 { return a.Sub(b).Len() }

// Perp returns a rotated a quarter turn counter-clockwise.
func (a Vec) Perp() Vec { return Vec{-a.Y, a.X} }

// Unit returns a scaled to length 1, or the zero vector.
func (a Vec) Unit() Vec {
	l := a.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{a.X / l, a.Y / l}
}

// Lerp interpolates between a and b.
func (a Vec) Lerp(b Vec, t float64) Vec {
	return Vec{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// Near reports whether a and b are within eps of each other.
func (a Vec) Near(b Vec, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}

// Rotate turns a around the origin.
func (a Vec) Rotate(deg float64) Vec {
	if deg == 0 {
		return a
	}
	s, c := SinCos(deg)
	return Vec{a.X*c - a.Y*s, a.X*s + a.Y*c}
}

// RotateAround turns a around origin.
func (a Vec) RotateAround(deg float64, origin Vec) Vec {
	if deg == 0 {
		return a
	}
	return a.Sub(origin).Rotate(deg).Add(origin)
}

// Angle returns the direction of a in degrees, in (-180, 180].
func (a Vec) Angle() float64 {
	return math.Atan2(a.Y, a.X) * 180 / math.Pi
}

// SinCos returns the sine and cosine of an angle in degrees. Multiples of
// 90 degrees are exact.
func SinCos(deg float64) (float64, float64) {
	if q := deg / 90; q == math.Trunc(q) && math.Abs(q) < 1<<52 {
		switch ((int64(q) % 4) + 4) % 4 {
		case 0:
			return 0, 1
		case 1:
			return 1, 0
		case 2:
			return 0, -1
		case 3:
			return -1, 0
		}
	}
	return math.Sincos(deg * math.Pi / 180)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
