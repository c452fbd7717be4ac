package geom

import (
	"fmt"
	"math"
)

// Point is a placed position with an orientation. R is in degrees.
// Mirrored marks points produced by mirroring; shifts and rotations applied
// to them flip horizontally unless asked to resist.
type Point struct {
	X, Y     float64
	R        float64
	Mirrored bool
}

// Pos returns the position without the orientation.
func (p Point) Pos() Vec { return Vec{p.X, p.Y} }

// Shift moves the point. With relative set the offset is read in the
// point's local frame. Mirrored points flip the X offset unless resist.
func (p Point) Shift(d Vec, relative, resist bool) Point {
	if p.Mirrored && !resist {
		d.X = -d.X
	}
	if relative {
		d = d.Rotate(p.R)
	}
	p.X += d.X
	p.Y += d.Y
	return p
}

// Turn adds angle to the orientation only. Mirrored points turn the other
// way unless resist.
func (p Point) Turn(angle float64, resist bool) Point {
	if p.Mirrored && !resist {
		angle = -angle
	}
	p.R += angle
	return p
}

// Rotate turns both the position (around origin) and the orientation.
// Mirrored points turn the other way unless resist.
func (p Point) Rotate(angle float64, origin Vec, resist bool) Point {
	if p.Mirrored && !resist {
		angle = -angle
	}
	pos := p.Pos().RotateAround(angle, origin)
	p.X, p.Y = pos.X, pos.Y
	p.R += angle
	return p
}

// Mirror reflects the point across the vertical line x = axis. Applying it
// twice with the same axis returns the original point.
func (p Point) Mirror(axis float64) Point {
	p.X = 2*axis - p.X
	p.R = -p.R
	p.Mirrored = !p.Mirrored
	return p
}

// Angle returns the orientation that makes p's local up axis face other.
func (p Point) Angle(other Point) float64 {
	dx := other.X - p.X
	dy := other.Y - p.Y
	return -math.Atan2(dx, dy) * 180 / math.Pi
}

// Local maps a vector from the point's local frame to world coordinates.
func (p Point) Local(v Vec) Vec {
	return v.Rotate(p.R).Add(p.Pos())
}

// Near reports whether two points agree in position and orientation.
func (p Point) Near(o Point, eps float64) bool {
	return math.Abs(p.X-o.X) <= eps && math.Abs(p.Y-o.Y) <= eps && math.Abs(p.R-o.R) <= eps
}

func (p Point) String() string {
	m := ""
	if p.Mirrored {
		m = " mirrored"
	}
	return fmt.Sprintf("(%g, %g, %g°%s)", p.X, p.Y, p.R, m)
}
