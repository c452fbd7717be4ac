package dxf

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/keyplate/pkg/errors"
)

// Default quantization steps.
const (
	DefaultLinearEps = 1e-3
	DefaultAngleEps  = 1e-3
)

// maxQuantum bounds |value/eps| so quantized values and their negations
// stay exact in an int64.
const maxQuantum = 1 << 62

// Options control normalization.
type Options struct {
	LinearEps        float64 // Step for coordinates, radii and bulges
	AngleEps         float64 // Step for arc angles, in degrees
	AllowUnsupported bool    // Keep uninterpreted entities instead of failing
}

// DefaultOptions returns the default normalization options.
func DefaultOptions() Options {
	return Options{LinearEps: DefaultLinearEps, AngleEps: DefaultAngleEps}
}

// Validate checks that both steps are finite and positive.
func (o Options) Validate() error {
	if err := errors.ValidateEpsilon("linear eps", o.LinearEps); err != nil {
		return err
	}
	return errors.ValidateEpsilon("angle eps", o.AngleEps)
}

// Kind orders shape kinds in a normalized drawing.
type Kind int

const (
	KindLine Kind = iota
	KindCircle
	KindArc
	KindPolyline
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "LINE"
	case KindCircle:
		return "CIRCLE"
	case KindArc:
		return "ARC"
	case KindPolyline:
		return "LWPOLYLINE"
	}
	return "UNSUPPORTED"
}

// Shape is a quantized entity in canonical form. Q holds the quantized
// values by kind:
//
//	Line:     x1 y1 x2 y2, with (x1, y1) the smaller endpoint
//	Circle:   cx cy r
//	Arc:      cx cy r start end, angles reduced to [0, 360)
//	Polyline: x y bulge per vertex, from the canonical start and direction
//
// Name is set only for unsupported entities.
type Shape struct {
	Kind   Kind
	Q      []int64
	Closed bool
	Name   string
}

// Compare orders shapes by kind, closedness, values and name.
func (s Shape) Compare(o Shape) int {
	if c := cmp.Compare(s.Kind, o.Kind); c != 0 {
		return c
	}
	if s.Closed != o.Closed {
		if !s.Closed {
			return -1
		}
		return 1
	}
	if c := slices.Compare(s.Q, o.Q); c != 0 {
		return c
	}
	return strings.Compare(s.Name, o.Name)
}

// Equal reports whether two shapes are identical.
func (s Shape) Equal(o Shape) bool { return s.Compare(o) == 0 }

func (s Shape) String() string {
	if s.Kind == KindUnsupported {
		return s.Name
	}
	var b strings.Builder
	b.WriteString(s.Kind.String())
	if s.Closed {
		b.WriteString(" closed")
	}
	for _, q := range s.Q {
		fmt.Fprintf(&b, " %d", q)
	}
	return b.String()
}

// Normalized is a sorted list of canonical shapes with the steps used to
// quantize them.
type Normalized struct {
	LinearEps float64
	AngleEps  float64
	Shapes    []Shape
}

// Normalize quantizes and canonicalizes a document.
func Normalize(doc *Document, opts Options) (*Normalized, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !opts.AllowUnsupported {
		if kinds := doc.Unsupported(); len(kinds) > 0 {
			return nil, errors.New(errors.ErrCodeUnsupportedEntities, "unsupported entities: %s", strings.Join(kinds, ", "))
		}
	}

	q := quantizer{linear: opts.LinearEps, angle: opts.AngleEps}
	out := &Normalized{LinearEps: opts.LinearEps, AngleEps: opts.AngleEps}
	for i, e := range doc.Entities {
		s, err := q.shape(e)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "entity %d (%s)", i+1, e.Type())
		}
		out.Shapes = append(out.Shapes, s)
	}
	slices.SortStableFunc(out.Shapes, Shape.Compare)
	return out, nil
}

type quantizer struct {
	linear, angle float64
}

func quantize(v, eps float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New(errors.ErrCodeNonFinite, "value %v is not finite", v)
	}
	r := math.Round(v / eps)
	if math.Abs(r) > maxQuantum {
		return 0, errors.New(errors.ErrCodeQuantizeOutOfRange, "value %v is out of range for step %v", v, eps)
	}
	return int64(r), nil
}

func (q quantizer) lin(vs ...float64) ([]int64, error) {
	out := make([]int64, len(vs))
	for i, v := range vs {
		n, err := quantize(v, q.linear)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// deg quantizes an angle reduced to [0, 360). A value that rounds up to a
// full turn wraps to zero.
func (q quantizer) deg(a float64) (int64, error) {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0, errors.New(errors.ErrCodeNonFinite, "angle %v is not finite", a)
	}
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	n, err := quantize(a, q.angle)
	if err != nil {
		return 0, err
	}
	if turn := int64(math.Round(360 / q.angle)); n >= turn {
		n -= turn
	}
	return n, nil
}

func (q quantizer) shape(e Entity) (Shape, error) {
	switch e := e.(type) {
	case Line:
		v, err := q.lin(e.A.X, e.A.Y, e.B.X, e.B.Y)
		if err != nil {
			return Shape{}, err
		}
		if slices.Compare(v[2:], v[:2]) < 0 {
			v = []int64{v[2], v[3], v[0], v[1]}
		}
		return Shape{Kind: KindLine, Q: v}, nil

	case Circle:
		v, err := q.lin(e.Center.X, e.Center.Y, e.Radius)
		if err != nil {
			return Shape{}, err
		}
		return Shape{Kind: KindCircle, Q: v}, nil

	case Arc:
		v, err := q.lin(e.Center.X, e.Center.Y, e.Radius)
		if err != nil {
			return Shape{}, err
		}
		for _, a := range []float64{e.Start, e.End} {
			n, err := q.deg(a)
			if err != nil {
				return Shape{}, err
			}
			v = append(v, n)
		}
		return Shape{Kind: KindArc, Q: v}, nil

	case LWPolyline:
		verts := make([][3]int64, len(e.Vertices))
		for i, vx := range e.Vertices {
			bulge := vx.Bulge
			if !e.Closed && i == len(e.Vertices)-1 {
				bulge = 0
			}
			v, err := q.lin(vx.X, vx.Y, bulge)
			if err != nil {
				return Shape{}, err
			}
			verts[i] = [3]int64{v[0], v[1], v[2]}
		}
		return Shape{Kind: KindPolyline, Q: canonicalPolyline(verts, e.Closed), Closed: e.Closed}, nil

	case Unsupported:
		return Shape{Kind: KindUnsupported, Name: e.Kind}, nil
	}
	return Shape{}, errors.New(errors.ErrCodeInternal, "unknown entity %T", e)
}

// canonicalPolyline returns the lexicographically smallest flattening of
// the vertex list over every start vertex and both directions of a closed
// ring. Open polylines only choose a direction, since their ends are fixed.
// Reversing negates each bulge and moves it to the other end of its
// segment.
func canonicalPolyline(verts [][3]int64, closed bool) []int64 {
	n := len(verts)
	rev := make([][3]int64, n)
	for j := range rev {
		src := n - 1 - j
		var bulge int64
		switch {
		case j < n-1:
			bulge = -verts[src-1][2]
		case closed:
			bulge = -verts[n-1][2]
		}
		rev[j] = [3]int64{verts[src][0], verts[src][1], bulge}
	}

	var best []int64
	try := func(seq [][3]int64, start int) {
		flat := make([]int64, 0, 3*n)
		for k := range n {
			v := seq[(start+k)%n]
			flat = append(flat, v[0], v[1], v[2])
		}
		if best == nil || slices.Compare(flat, best) < 0 {
			best = flat
		}
	}
	starts := 1
	if closed {
		starts = n
	}
	for _, seq := range [][][3]int64{verts, rev} {
		for s := range starts {
			try(seq, s)
		}
	}
	return best
}

// Mismatch describes the first difference between two normalized drawings.
// Left or Right is nil when that side ran out of shapes.
type Mismatch struct {
	Index       int
	Left, Right *Shape
}

func (m *Mismatch) String() string {
	side := func(s *Shape) string {
		if s == nil {
			return "<none>"
		}
		return s.String()
	}
	return fmt.Sprintf("shape %d differs: %s != %s", m.Index, side(m.Left), side(m.Right))
}

// Compare returns nil when both drawings hold the same shapes, or the first
// position where they differ.
func Compare(a, b *Normalized) *Mismatch {
	n := min(len(a.Shapes), len(b.Shapes))
	for i := range n {
		if !a.Shapes[i].Equal(b.Shapes[i]) {
			return &Mismatch{Index: i, Left: &a.Shapes[i], Right: &b.Shapes[i]}
		}
	}
	switch {
	case len(a.Shapes) > n:
		return &Mismatch{Index: n, Left: &a.Shapes[n]}
	case len(b.Shapes) > n:
		return &Mismatch{Index: n, Right: &b.Shapes[n]}
	}
	return nil
}

// Equivalent normalizes both documents with opts and compares them.
func Equivalent(a, b *Document, opts Options) (*Mismatch, error) {
	na, err := Normalize(a, opts)
	if err != nil {
		return nil, err
	}
	nb, err := Normalize(b, opts)
	if err != nil {
		return nil, err
	}
	return Compare(na, nb), nil
}
