package dxf

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
)

// drawing wraps entity groups in a minimal ENTITIES section.
func drawing(entities ...string) string {
	var b strings.Builder
	b.WriteString("0\nSECTION\n2\nENTITIES\n")
	for _, e := range entities {
		b.WriteString(e)
	}
	b.WriteString("0\nENDSEC\n0\nEOF\n")
	return b.String()
}

func line(x1, y1, x2, y2 float64) string {
	return fmt.Sprintf("0\nLINE\n8\n0\n10\n%g\n20\n%g\n11\n%g\n21\n%g\n", x1, y1, x2, y2)
}

func lwpolyline(closed bool, verts ...geom.Vertex) string {
	flags := 0
	if closed {
		flags = 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "0\nLWPOLYLINE\n90\n%d\n70\n%d\n", len(verts), flags)
	for _, v := range verts {
		fmt.Fprintf(&b, "10\n%g\n20\n%g\n", v.X, v.Y)
		if v.Bulge != 0 {
			fmt.Fprintf(&b, "42\n%g\n", v.Bulge)
		}
	}
	return b.String()
}

func normalize(t *testing.T, src string, opts Options) *Normalized {
	t.Helper()
	doc, err := ParseBytes([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	n, err := Normalize(doc, opts)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	return n
}

func TestParse(t *testing.T) {
	src := "0\nSECTION\n2\nHEADER\n9\n$ACADVER\n1\nAC1015\n0\nENDSEC\n" + drawing(
		line(0, 0, 1, 2),
		"0\nCIRCLE\n10\n1\n20\n1\n40\n0.5\n",
		"0\nARC\n10\n0\n20\n0\n40\n2\n50\n0\n51\n90\n",
		lwpolyline(true, geom.Vertex{X: 0, Y: 0, Bulge: 1}, geom.Vertex{X: 2, Y: 0}),
		"0\nPOLYLINE\n8\n0\n0\nVERTEX\n10\n0\n20\n0\n0\nVERTEX\n10\n1\n20\n1\n0\nSEQEND\n8\n0\n",
		"0\nTEXT\n1\nhello\n",
	)
	doc, err := ParseBytes([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []Entity{
		Line{A: geom.V(0, 0), B: geom.V(1, 2)},
		Circle{Center: geom.V(1, 1), Radius: 0.5},
		Arc{Center: geom.V(0, 0), Radius: 2, Start: 0, End: 90},
		LWPolyline{Polyline: geom.Polyline{
			Vertices: []geom.Vertex{{X: 0, Y: 0, Bulge: 1}, {X: 2, Y: 0}},
			Closed:   true,
		}},
		Unsupported{Kind: "POLYLINE"},
		Unsupported{Kind: "TEXT"},
	}
	if diff := cmp.Diff(want, doc.Entities); diff != "" {
		t.Errorf("entities mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"POLYLINE", "TEXT"}, doc.Unsupported()); diff != "" {
		t.Errorf("Unsupported() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_CRLF(t *testing.T) {
	src := strings.ReplaceAll(drawing(line(0, 0, 1, 0)), "\n", "\r\n")
	doc, err := ParseBytes([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Entities) != 1 {
		t.Errorf("got %d entities, want 1", len(doc.Entities))
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want errors.Code
	}{
		{"odd lines", "0\nSECTION\n2\n", errors.ErrCodeOddNumberOfLines},
		{"bad group code", "x\nSECTION\n", errors.ErrCodeInvalidGroupCode},
		{"no entities", "0\nSECTION\n2\nHEADER\n0\nENDSEC\n0\nEOF\n", errors.ErrCodeMissingEntitiesSection},
		{"two entities sections", drawing() + drawing(), errors.ErrCodeMissingEntitiesSection},
		{"no endsec", "0\nSECTION\n2\nENTITIES\n" + line(0, 0, 1, 1), errors.ErrCodeUnexpectedEOF},
		{"no seqend", "0\nSECTION\n2\nENTITIES\n0\nPOLYLINE\n0\nVERTEX\n10\n0\n20\n0\n", errors.ErrCodeUnexpectedEOF},
		{"line without end", drawing("0\nLINE\n10\n0\n20\n0\n11\n1\n"), errors.ErrCodeMissingRequiredGroup},
		{"circle without radius", drawing("0\nCIRCLE\n10\n0\n20\n0\n"), errors.ErrCodeMissingRequiredGroup},
		{"bad float", drawing("0\nCIRCLE\n10\nabc\n20\n0\n40\n1\n"), errors.ErrCodeInvalidFloat},
		{"vertex without y", drawing("0\nLWPOLYLINE\n10\n0\n10\n1\n20\n1\n"), errors.ErrCodeMissingRequiredGroup},
		{"empty polyline", drawing("0\nLWPOLYLINE\n70\n1\n"), errors.ErrCodeMissingRequiredGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.src))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestNormalize_LineDirection(t *testing.T) {
	a := normalize(t, drawing(line(0, 0, 1, 0)), DefaultOptions())
	b := normalize(t, drawing(line(1, 0, 0, 0)), DefaultOptions())
	if m := Compare(a, b); m != nil {
		t.Errorf("reversed line differs: %v", m)
	}
	want := []Shape{{Kind: KindLine, Q: []int64{0, 0, 1000, 0}}}
	if diff := cmp.Diff(want, a.Shapes); diff != "" {
		t.Errorf("shapes mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_Invariance(t *testing.T) {
	square := []geom.Vertex{{X: 0, Y: 0}, {X: 10, Y: 0, Bulge: 0.5}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	rotated := []geom.Vertex{square[2], square[3], square[0], square[1]}
	reversed := geom.Polyline{Vertices: square, Closed: true}.Reverse().Vertices

	base := normalize(t, drawing(
		line(0, 0, 5, 5),
		lwpolyline(true, square...),
		"0\nCIRCLE\n10\n1\n20\n2\n40\n3\n",
	), DefaultOptions())

	tests := []struct {
		name string
		src  string
	}{
		{"reordered", drawing(
			"0\nCIRCLE\n10\n1\n20\n2\n40\n3\n",
			lwpolyline(true, square...),
			line(5, 5, 0, 0),
		)},
		{"polyline start", drawing(
			line(0, 0, 5, 5),
			lwpolyline(true, rotated...),
			"0\nCIRCLE\n10\n1\n20\n2\n40\n3\n",
		)},
		{"polyline direction", drawing(
			lwpolyline(true, reversed...),
			line(0, 0, 5, 5),
			"0\nCIRCLE\n10\n1\n20\n2\n40\n3\n",
		)},
		{"below quantum", drawing(
			line(0.0001, 0, 5, 5.0004),
			lwpolyline(true, square...),
			"0\nCIRCLE\n10\n1\n20\n2\n40\n3.0002\n",
		)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m := Compare(base, normalize(t, tt.src, DefaultOptions())); m != nil {
				t.Errorf("Compare() = %v, want equal", m)
			}
		})
	}
}

func TestNormalize_OpenPolyline(t *testing.T) {
	fwd := normalize(t, drawing(lwpolyline(false,
		geom.Vertex{X: 0, Y: 0, Bulge: 1}, geom.Vertex{X: 2, Y: 0}, geom.Vertex{X: 2, Y: 2, Bulge: 0.7},
	)), DefaultOptions())
	back := normalize(t, drawing(lwpolyline(false,
		geom.Vertex{X: 2, Y: 2}, geom.Vertex{X: 2, Y: 0, Bulge: -1}, geom.Vertex{X: 0, Y: 0},
	)), DefaultOptions())
	if m := Compare(fwd, back); m != nil {
		t.Errorf("reversed open polyline differs: %v", m)
	}

	rotated := normalize(t, drawing(lwpolyline(false,
		geom.Vertex{X: 2, Y: 0}, geom.Vertex{X: 2, Y: 2}, geom.Vertex{X: 0, Y: 0, Bulge: 1},
	)), DefaultOptions())
	if Compare(fwd, rotated) == nil {
		t.Error("open polylines with different ends compare equal")
	}
}

func TestNormalize_Angles(t *testing.T) {
	a := normalize(t, drawing("0\nARC\n10\n0\n20\n0\n40\n1\n50\n-90\n51\n360\n"), DefaultOptions())
	b := normalize(t, drawing("0\nARC\n10\n0\n20\n0\n40\n1\n50\n270\n51\n0\n"), DefaultOptions())
	if m := Compare(a, b); m != nil {
		t.Errorf("equivalent angles differ: %v", m)
	}
	c := normalize(t, drawing("0\nARC\n10\n0\n20\n0\n40\n1\n50\n0\n51\n359.9999\n"), DefaultOptions())
	if got := c.Shapes[0].Q[4]; got != 0 {
		t.Errorf("end angle rounding to a full turn = %d, want 0", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	src := drawing(
		line(3, 4, -1.2345, 0.5),
		"0\nARC\n10\n1.5\n20\n-2\n40\n0.75\n50\n-45\n51\n200.5\n",
		lwpolyline(true, geom.Vertex{X: 1, Y: 1, Bulge: -0.3}, geom.Vertex{X: 0, Y: 4}, geom.Vertex{X: -3, Y: 1}),
	)
	opts := Options{LinearEps: 1e-3, AngleEps: 1e-2}
	first := normalize(t, src, opts)

	var buf bytes.Buffer
	if err := WriteNormalized(&buf, first); err != nil {
		t.Fatalf("WriteNormalized() error = %v", err)
	}
	second := normalize(t, buf.String(), opts)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("normalize is not idempotent (-first +second):\n%s", diff)
	}
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
		want errors.Code
	}{
		{"zero linear eps", drawing(line(0, 0, 1, 1)), Options{LinearEps: 0, AngleEps: 1}, errors.ErrCodeInvalidEpsilon},
		{"nan angle eps", drawing(line(0, 0, 1, 1)), Options{LinearEps: 1, AngleEps: math.NaN()}, errors.ErrCodeInvalidEpsilon},
		{"unsupported", drawing("0\nTEXT\n1\nx\n"), DefaultOptions(), errors.ErrCodeUnsupportedEntities},
		{"non finite", drawing("0\nCIRCLE\n10\nNaN\n20\n0\n40\n1\n"), DefaultOptions(), errors.ErrCodeNonFinite},
		{"out of range", drawing("0\nCIRCLE\n10\n1e300\n20\n0\n40\n1\n"), DefaultOptions(), errors.ErrCodeQuantizeOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseBytes([]byte(tt.src))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if _, err := Normalize(doc, tt.opts); !errors.Is(err, tt.want) {
				t.Errorf("Normalize() error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestNormalize_AllowUnsupported(t *testing.T) {
	opts := DefaultOptions()
	opts.AllowUnsupported = true
	a := normalize(t, drawing("0\nTEXT\n1\nx\n", line(0, 0, 1, 1)), opts)
	b := normalize(t, drawing(line(0, 0, 1, 1)), opts)

	m := Compare(a, b)
	if m == nil {
		t.Fatal("Compare() = nil, want a mismatch for the extra TEXT entity")
	}
	if m.Index != 1 || m.Left == nil || m.Left.Name != "TEXT" || m.Right != nil {
		t.Errorf("Compare() = %v, want TEXT at index 1 on the left only", m)
	}
}

func TestCompare_FirstMismatch(t *testing.T) {
	a := normalize(t, drawing(line(0, 0, 1, 0), line(0, 0, 2, 0), line(0, 0, 3, 0)), DefaultOptions())
	b := normalize(t, drawing(line(0, 0, 1, 0), line(0, 0, 2.5, 0), line(0, 0, 3, 0)), DefaultOptions())
	m := Compare(a, b)
	if m == nil {
		t.Fatal("Compare() = nil, want mismatch")
	}
	if m.Index != 1 {
		t.Errorf("Index = %d, want 1", m.Index)
	}
	if !strings.Contains(m.String(), "shape 1 differs") {
		t.Errorf("String() = %q", m.String())
	}
}

func TestFromRegion(t *testing.T) {
	outer := geom.Ring(geom.V(0, 0), geom.V(10, 0), geom.V(10, 10), geom.V(0, 10))
	hole := geom.Ring(geom.V(2, 2), geom.V(2, 4), geom.V(4, 4), geom.V(4, 2))
	doc := FromRegion(geom.Region{Pos: []geom.Polyline{outer}, Neg: []geom.Polyline{hole}})

	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	parsed, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(doc.Entities, parsed.Entities); diff != "" {
		t.Errorf("round trip mismatch (-wrote +read):\n%s", diff)
	}
	m, err := Equivalent(doc, parsed, DefaultOptions())
	if err != nil {
		t.Fatalf("Equivalent() error = %v", err)
	}
	if m != nil {
		t.Errorf("Equivalent() = %v", m)
	}
}

func ExampleCompare() {
	a, _ := ParseBytes([]byte(drawing(line(0, 0, 1, 0))))
	b, _ := ParseBytes([]byte(drawing(line(1, 0, 0, 0))))
	m, _ := Equivalent(a, b, DefaultOptions())
	fmt.Println(m == nil)
	// Output: true
}
