// Package dxf reads and writes the small subset of DXF that keyboard outlines
// need, and compares drawings by geometry rather than by text.
//
// Only four entity types carry geometry here: LINE, CIRCLE, ARC and
// LWPOLYLINE. Anything else found in the ENTITIES section is kept as an
// [Unsupported] entry so callers can decide whether it matters.
//
// Two drawings are compared by normalizing both:
//
//	a, _ := dxf.Parse(fileA)
//	b, _ := dxf.Parse(fileB)
//	na, _ := dxf.Normalize(a, dxf.DefaultOptions())
//	nb, _ := dxf.Normalize(b, dxf.DefaultOptions())
//	if m := dxf.Compare(na, nb); m != nil {
//	    fmt.Println(m)
//	}
//
// Normalization quantizes every coordinate, orders line endpoints, picks a
// canonical start and direction for each polyline and sorts the entities,
// so declaration order, polyline start vertex and winding do not matter.
package dxf

import (
	"github.com/matzehuels/keyplate/pkg/geom"
)

// Entity is one drawing entity of a parsed document.
type Entity interface {
	// Type returns the DXF entity name, such as "LINE".
	Type() string
}

// Line is a straight segment.
type Line struct {
	A, B geom.Vec
}

// Circle is a full circle.
type Circle struct {
	Center geom.Vec
	Radius float64
}

// Arc is a counter-clockwise circular arc between two angles in degrees.
type Arc struct {
	Center     geom.Vec
	Radius     float64
	Start, End float64
}

// LWPolyline is a lightweight polyline with per-vertex bulges.
type LWPolyline struct {
	geom.Polyline
}

// Unsupported is an entity this package does not interpret.
type Unsupported struct {
	Kind string
}

func (Line) Type() string          { return "LINE" }
func (Circle) Type() string        { return "CIRCLE" }
func (Arc) Type() string           { return "ARC" }
func (LWPolyline) Type() string    { return "LWPOLYLINE" }
func (u Unsupported) Type() string { return u.Kind }

// Document is the ENTITIES section of a drawing, in file order.
type Document struct {
	Entities []Entity
}

// Unsupported returns the distinct kinds of uninterpreted entities, in order
// of first appearance.
func (d *Document) Unsupported() []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range d.Entities {
		u, ok := e.(Unsupported)
		if !ok || seen[u.Kind] {
			continue
		}
		seen[u.Kind] = true
		out = append(out, u.Kind)
	}
	return out
}

// FromRegion converts an outline region into a document with one closed
// LWPOLYLINE per ring. Outer rings come first, then holes.
func FromRegion(r geom.Region) *Document {
	doc := &Document{}
	for _, rings := range [][]geom.Polyline{r.Pos, r.Neg} {
		for _, pl := range rings {
			c := pl.Clone()
			c.Closed = true
			doc.Entities = append(doc.Entities, LWPolyline{Polyline: c})
		}
	}
	return doc
}
