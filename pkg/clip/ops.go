package clip

import "github.com/matzehuels/keyplate/pkg/geom"

// Region algebra. Each operand region contributes two ring sets, its
// positive rings and its holes, both read with the non-zero rule. The
// predicates below see them as [aPos, aNeg, bPos, bNeg].

// Add returns the union of a and b. Holes of a that b covers are filled,
// and holes of b are punched through the result.
func Add(a, b geom.Region) geom.Region {
	if isVoid(a) {
		return Normalize(b)
	}
	return binary(a, b, func(in []bool) bool {
		aP, aN, bP, bN := in[0], in[1], in[2], in[3]
		return (aP || bP) && !(aN && !bP) && !bN
	})
}

// Subtract removes b from a. Area inside b's holes is not removed.
func Subtract(a, b geom.Region) geom.Region {
	if isVoid(a) {
		return geom.Region{}
	}
	return binary(a, b, func(in []bool) bool {
		aP, aN, bP, bN := in[0], in[1], in[2], in[3]
		return aP && !aN && !(bP && !bN)
	})
}

// Intersect keeps the area covered by the positive rings of both operands
// and outside every hole of either.
func Intersect(a, b geom.Region) geom.Region {
	if isVoid(a) || isVoid(b) {
		return geom.Region{}
	}
	return binary(a, b, func(in []bool) bool {
		return in[0] && in[2] && !in[1] && !in[3]
	})
}

// Normalize resolves overlaps and self-intersections so that every ring is
// simple, positive rings run counter-clockwise and holes clockwise.
func Normalize(a geom.Region) geom.Region {
	a = Orient(a)
	return Overlay([]Operand{{Rings: a.Pos}, {Rings: a.Neg}}, func(in []bool) bool { return in[0] && !in[1] })
}

// Orient fixes ring directions without any overlay, keeping arcs intact.
func Orient(a geom.Region) geom.Region {
	out := a.Clone()
	for i, pl := range out.Pos {
		if pl.SignedArea() < 0 {
			out.Pos[i] = pl.Reverse()
		}
	}
	for i, pl := range out.Neg {
		if pl.SignedArea() > 0 {
			out.Neg[i] = pl.Reverse()
		}
	}
	return out
}

func binary(a, b geom.Region, keep Predicate) geom.Region {
	a, b = Orient(a), Orient(b)
	return Overlay([]Operand{
		{Rings: a.Pos},
		{Rings: a.Neg},
		{Rings: b.Pos},
		{Rings: b.Neg},
	}, keep)
}

func isVoid(r geom.Region) bool { return len(r.Pos) == 0 }
