package geom

import "math"

// FlattenTolerance is the maximum distance between an arc and the chords
// that replace it when curves are flattened.
const FlattenTolerance = 1e-3

// Vertex is a polyline corner. Bulge describes the segment leaving this
// vertex: tan(sweep/4), positive for counter-clockwise arcs, zero for a
// straight segment.
type Vertex struct {
	X, Y  float64
	Bulge float64
}

// Pos returns the vertex position.
func (v Vertex) Pos() Vec { return Vec{v.X, v.Y} }

// Polyline is a sequence of vertices joined by lines and arcs.
type Polyline struct {
	Vertices []Vertex
	Closed   bool
}

// Ring builds a closed straight-edged polyline.
func Ring(pts ...Vec) Polyline {
	vs := make([]Vertex, len(pts))
	for i, p := range pts {
		vs[i] = Vertex{X: p.X, Y: p.Y}
	}
	return Polyline{Vertices: vs, Closed: true}
}

// Clone returns a deep copy.
func (pl Polyline) Clone() Polyline {
	return Polyline{Vertices: append([]Vertex(nil), pl.Vertices...), Closed: pl.Closed}
}

// segments returns the number of segments, counting the closing one.
func (pl Polyline) segments() int {
	n := len(pl.Vertices)
	if n < 2 {
		return 0
	}
	if pl.Closed {
		return n
	}
	return n - 1
}

// Flatten converts arcs to chords within tol and returns the positions.
// For closed polylines the first point is not repeated at the end.
func (pl Polyline) Flatten(tol float64) []Vec {
	if len(pl.Vertices) == 0 {
		return nil
	}
	out := make([]Vec, 0, len(pl.Vertices))
	n := len(pl.Vertices)
	for i := 0; i < pl.segments(); i++ {
		a := pl.Vertices[i]
		b := pl.Vertices[(i+1)%n]
		out = append(out, a.Pos())
		if a.Bulge != 0 {
			out = append(out, arcPoints(a.Pos(), b.Pos(), a.Bulge, tol)...)
		}
	}
	if !pl.Closed {
		out = append(out, pl.Vertices[n-1].Pos())
	}
	return out
}

// ArcGeometry returns the center, radius, start angle and signed sweep
// (degrees) of the arc from a to b with the given bulge.
func ArcGeometry(a, b Vec, bulge float64) (center Vec, radius, start, sweep float64) {
	chord := b.Sub(a)
	c := chord.Len()
	mid := a.Lerp(b, 0.5)
	h := (c / 2) * (1 - bulge*bulge) / (2 * bulge)
	center = mid.Add(chord.Unit().Perp().Scale(h))
	radius = (c / 2) * (1 + bulge*bulge) / (2 * math.Abs(bulge))
	start = a.Sub(center).Angle()
	sweep = Degrees(4 * math.Atan(bulge))
	return center, radius, start, sweep
}

// arcPoints returns the interior points of a bulge arc, excluding both ends.
func arcPoints(a, b Vec, bulge, tol float64) []Vec {
	if a.Near(b, 0) {
		return nil
	}
	center, r, start, sweep := ArcGeometry(a, b, bulge)
	n := ArcSteps(r, math.Abs(sweep), tol)
	out := make([]Vec, 0, n-1)
	for k := 1; k < n; k++ {
		s, c := SinCos(start + sweep*float64(k)/float64(n))
		out = append(out, Vec{center.X + r*c, center.Y + r*s})
	}
	return out
}

// ArcSteps returns how many chords approximate an arc of the given radius
// and sweep (degrees) within tol.
func ArcSteps(radius, sweep, tol float64) int {
	if radius <= tol {
		return 1
	}
	step := 2 * math.Acos(1-tol/radius)
	n := int(math.Ceil(Radians(sweep) / step))
	if n < 1 {
		n = 1
	}
	return n
}

// SignedArea returns the area enclosed by a closed polyline, positive when
// counter-clockwise. Arc segments contribute their circular segment area.
func (pl Polyline) SignedArea() float64 {
	n := len(pl.Vertices)
	if n < 2 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		a := pl.Vertices[i]
		b := pl.Vertices[(i+1)%n]
		area += (a.X*b.Y - b.X*a.Y) / 2
		if a.Bulge != 0 {
			c := b.Pos().Dist(a.Pos())
			theta := 4 * math.Atan(a.Bulge)
			r := (c / 2) * (1 + a.Bulge*a.Bulge) / (2 * math.Abs(a.Bulge))
			area += math.Copysign(r*r*(math.Abs(theta)-math.Sin(math.Abs(theta)))/2, theta)
		}
	}
	return area
}

// Reverse returns the polyline traversed the other way. Arcs keep their
// shape: each bulge moves to the new segment start and flips sign.
func (pl Polyline) Reverse() Polyline {
	n := len(pl.Vertices)
	out := Polyline{Vertices: make([]Vertex, n), Closed: pl.Closed}
	for j := 0; j < n; j++ {
		v := pl.Vertices[n-1-j]
		// segment j runs from old n-1-j to old n-2-j, which was old segment n-2-j
		src := n - 2 - j
		if src < 0 {
			src += n
		}
		bulge := 0.0
		if pl.Closed || j < n-1 {
			bulge = -pl.Vertices[src].Bulge
		}
		out.Vertices[j] = Vertex{X: v.X, Y: v.Y, Bulge: bulge}
	}
	return out
}

// Map applies f to every vertex position. f must be a similarity that keeps
// orientation, otherwise bulges lose their meaning.
func (pl Polyline) Map(f func(Vec) Vec) Polyline {
	out := pl.Clone()
	for i, v := range out.Vertices {
		p := f(v.Pos())
		out.Vertices[i].X, out.Vertices[i].Y = p.X, p.Y
	}
	return out
}

// BBox returns the exact bounds, including arc bulges.
func (pl Polyline) BBox() BBox {
	b := EmptyBBox()
	n := len(pl.Vertices)
	for i, v := range pl.Vertices {
		b = b.Extend(v.Pos())
		if v.Bulge == 0 || (!pl.Closed && i == n-1) {
			continue
		}
		next := pl.Vertices[(i+1)%n]
		center, r, start, sweep := ArcGeometry(v.Pos(), next.Pos(), v.Bulge)
		lo, hi := start, start+sweep
		if sweep < 0 {
			lo, hi = hi, lo
		}
		for k := math.Ceil(lo / 90); k*90 <= hi; k++ {
			s, c := SinCos(k * 90)
			b = b.Extend(Vec{center.X + r*c, center.Y + r*s})
		}
	}
	return b
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min, Max Vec
}

// EmptyBBox returns a box that contains nothing.
func EmptyBBox() BBox {
	return BBox{
		Min: Vec{math.Inf(1), math.Inf(1)},
		Max: Vec{math.Inf(-1), math.Inf(-1)},
	}
}

// IsEmpty reports whether the box contains no points.
func (b BBox) IsEmpty() bool { return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y }

// Extend grows the box to include p.
func (b BBox) Extend(p Vec) BBox {
	return BBox{
		Min: Vec{math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y)},
		Max: Vec{math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y)},
	}
}

// Union returns the smallest box containing both.
func (b BBox) Union(o BBox) BBox {
	if o.IsEmpty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Width returns the horizontal extent.
func (b BBox) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the vertical extent.
func (b BBox) Height() float64 { return b.Max.Y - b.Min.Y }

// Near reports whether two boxes agree within eps.
func (b BBox) Near(o BBox, eps float64) bool {
	return b.Min.Near(o.Min, eps) && b.Max.Near(o.Max, eps)
}
