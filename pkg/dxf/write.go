package dxf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
)

// Write serializes a document as a minimal R2000 drawing in millimeters:
// a HEADER, an empty TABLES section and the entities on layer 0.
func Write(w io.Writer, doc *Document) error {
	dw := &writer{w: bufio.NewWriter(w)}
	dw.header()
	dw.section("ENTITIES")
	for _, e := range doc.Entities {
		switch e := e.(type) {
		case Line:
			dw.entity("LINE")
			dw.vec(10, e.A)
			dw.vec(11, e.B)
		case Circle:
			dw.entity("CIRCLE")
			dw.vec(10, e.Center)
			dw.num(40, e.Radius)
		case Arc:
			dw.entity("ARC")
			dw.vec(10, e.Center)
			dw.num(40, e.Radius)
			dw.num(50, e.Start)
			dw.num(51, e.End)
		case LWPolyline:
			dw.entity("LWPOLYLINE")
			dw.pair(100, "AcDbPolyline")
			dw.pair(90, strconv.Itoa(len(e.Vertices)))
			flags := 0
			if e.Closed {
				flags = 1
			}
			dw.pair(70, strconv.Itoa(flags))
			for _, v := range e.Vertices {
				dw.vec(10, v.Pos())
				if v.Bulge != 0 {
					dw.num(42, v.Bulge)
				}
			}
		default:
			return errors.New(errors.ErrCodeUnsupported, "cannot write %s entities", e.Type())
		}
	}
	dw.pair(0, "ENDSEC")
	dw.pair(0, "EOF")
	return dw.flush()
}

// WriteNormalized serializes canonical shapes back to coordinates by
// multiplying each quantized value by its step.
func WriteNormalized(w io.Writer, n *Normalized) error {
	return Write(w, n.Document())
}

// Document converts canonical shapes back into entities. Unsupported
// shapes have no geometry and are dropped.
func (n *Normalized) Document() *Document {
	lin := func(q int64) float64 { return float64(q) * n.LinearEps }
	ang := func(q int64) float64 { return float64(q) * n.AngleEps }
	doc := &Document{}
	for _, s := range n.Shapes {
		q := s.Q
		switch s.Kind {
		case KindLine:
			doc.Entities = append(doc.Entities, Line{
				A: geom.V(lin(q[0]), lin(q[1])),
				B: geom.V(lin(q[2]), lin(q[3])),
			})
		case KindCircle:
			doc.Entities = append(doc.Entities, Circle{Center: geom.V(lin(q[0]), lin(q[1])), Radius: lin(q[2])})
		case KindArc:
			doc.Entities = append(doc.Entities, Arc{
				Center: geom.V(lin(q[0]), lin(q[1])),
				Radius: lin(q[2]),
				Start:  ang(q[3]),
				End:    ang(q[4]),
			})
		case KindPolyline:
			pl := geom.Polyline{Closed: s.Closed}
			for i := 0; i+2 < len(q); i += 3 {
				pl.Vertices = append(pl.Vertices, geom.Vertex{X: lin(q[i]), Y: lin(q[i+1]), Bulge: lin(q[i+2])})
			}
			doc.Entities = append(doc.Entities, LWPolyline{Polyline: pl})
		}
	}
	return doc
}

type writer struct {
	w   *bufio.Writer
	err error
}

func (dw *writer) pair(code int, value string) {
	if dw.err != nil {
		return
	}
	_, dw.err = fmt.Fprintf(dw.w, "%d\n%s\n", code, value)
}

func (dw *writer) num(code int, v float64) {
	dw.pair(code, strconv.FormatFloat(v, 'f', -1, 64))
}

func (dw *writer) vec(code int, v geom.Vec) {
	dw.num(code, v.X)
	dw.num(code+10, v.Y)
}

func (dw *writer) section(name string) {
	dw.pair(0, "SECTION")
	dw.pair(2, name)
}

func (dw *writer) entity(kind string) {
	dw.pair(0, kind)
	dw.pair(8, "0")
}

func (dw *writer) header() {
	dw.section("HEADER")
	dw.pair(9, "$ACADVER")
	dw.pair(1, "AC1015")
	dw.pair(9, "$INSUNITS")
	dw.pair(70, "4")
	dw.pair(0, "ENDSEC")
	dw.section("TABLES")
	dw.pair(0, "ENDSEC")
}

func (dw *writer) flush() error {
	if dw.err != nil {
		return errors.Wrap(errors.ErrCodeInternal, dw.err, "write dxf")
	}
	if err := dw.w.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write dxf")
	}
	return nil
}
