package geom

// Region is a filled planar area: the union of the Pos rings minus the
// union of the Neg rings. Finalized regions keep Pos rings counter-clockwise
// and Neg rings clockwise, with every ring simple and closed.
type Region struct {
	Pos []Polyline
	Neg []Polyline
}

// IsEmpty reports whether the region has no positive rings.
func (r Region) IsEmpty() bool { return len(r.Pos) == 0 }

// Clone returns a deep copy.
func (r Region) Clone() Region {
	out := Region{
		Pos: make([]Polyline, len(r.Pos)),
		Neg: make([]Polyline, len(r.Neg)),
	}
	for i, p := range r.Pos {
		out.Pos[i] = p.Clone()
	}
	for i, p := range r.Neg {
		out.Neg[i] = p.Clone()
	}
	return out
}

// Map applies an orientation-preserving similarity to every ring.
func (r Region) Map(f func(Vec) Vec) Region {
	out := Region{
		Pos: make([]Polyline, len(r.Pos)),
		Neg: make([]Polyline, len(r.Neg)),
	}
	for i, p := range r.Pos {
		out.Pos[i] = p.Map(f)
	}
	for i, p := range r.Neg {
		out.Neg[i] = p.Map(f)
	}
	return out
}

// Place maps a region from a point's local frame to world coordinates.
func (r Region) Place(p Point) Region {
	return r.Map(p.Local)
}

// Scale multiplies every coordinate by s around the origin. A negative
// factor is a half turn and keeps ring orientation.
func (r Region) Scale(s float64) Region {
	return r.Map(func(v Vec) Vec { return v.Scale(s) })
}

// BBox returns the bounds of the positive rings.
func (r Region) BBox() BBox {
	b := EmptyBBox()
	for _, p := range r.Pos {
		b = b.Union(p.BBox())
	}
	return b
}

// Area returns the filled area.
func (r Region) Area() float64 {
	var a float64
	for _, p := range r.Pos {
		a += p.SignedArea()
	}
	for _, p := range r.Neg {
		a += p.SignedArea()
	}
	return a
}
