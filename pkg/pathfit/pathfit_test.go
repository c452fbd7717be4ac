package pathfit

import (
	"math"
	"testing"

	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
)

func TestFit_Square(t *testing.T) {
	prims := []Primitive{
		Line{A: geom.V(0, 0), B: geom.V(10, 0)},
		Line{A: geom.V(10, 10), B: geom.V(10, 0)}, // reversed
		Line{A: geom.V(10, 10), B: geom.V(0, 10)},
		Line{A: geom.V(0, 10), B: geom.V(0, 0)},
	}
	pl, err := Fit(prims)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if !pl.Closed || len(pl.Vertices) != 4 {
		t.Fatalf("Fit() = %d vertices (closed=%v), want 4 closed", len(pl.Vertices), pl.Closed)
	}
	if a := pl.SignedArea(); math.Abs(a-100) > 1e-9 {
		t.Errorf("SignedArea() = %v, want 100", a)
	}
}

func TestFit_ReversesFirstPrimitive(t *testing.T) {
	prims := []Primitive{
		Line{A: geom.V(10, 0), B: geom.V(0, 0)},
		Line{A: geom.V(10, 0), B: geom.V(5, 5)},
		Line{A: geom.V(5, 5), B: geom.V(0, 0)},
	}
	pl, err := Fit(prims)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if got := pl.Vertices[0].Pos(); !got.Near(geom.V(0, 0), 0) {
		t.Errorf("first vertex = %v, want (0, 0)", got)
	}
}

func TestFit_ArcBulge(t *testing.T) {
	arc := Arc{Center: geom.V(0, 0), Radius: 1, Start: 0, End: 180}
	prims := []Primitive{arc, Line{A: geom.V(-1, 0), B: geom.V(1, 0)}}
	pl, err := Fit(prims)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if b := pl.Vertices[0].Bulge; math.Abs(b-1) > 1e-12 {
		t.Errorf("arc bulge = %v, want 1", b)
	}
	if a := pl.SignedArea(); math.Abs(a-math.Pi/2) > 1e-9 {
		t.Errorf("SignedArea() = %v, want pi/2", a)
	}

	// walking the same chain backwards flips the bulge
	pl, err = Fit([]Primitive{Line{A: geom.V(1, 0), B: geom.V(-1, 0)}, arc})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if b := pl.Vertices[1].Bulge; math.Abs(b+1) > 1e-12 {
		t.Errorf("reversed arc bulge = %v, want -1", b)
	}
}

func TestFit_Errors(t *testing.T) {
	tests := []struct {
		name  string
		prims []Primitive
		code  errors.Code
	}{
		{"empty", nil, errors.ErrCodeNotClosedChain},
		{
			"disconnected",
			[]Primitive{
				Line{A: geom.V(0, 0), B: geom.V(1, 0)},
				Line{A: geom.V(5, 5), B: geom.V(6, 6)},
			},
			errors.ErrCodeDisconnected,
		},
		{
			"open",
			[]Primitive{
				Line{A: geom.V(0, 0), B: geom.V(1, 0)},
				Line{A: geom.V(1, 0), B: geom.V(1, 1)},
			},
			errors.ErrCodeNotClosedChain,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(tt.prims)
			if !errors.Is(err, tt.code) {
				t.Errorf("Fit() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestFit_CollapsesDuplicates(t *testing.T) {
	prims := []Primitive{
		Line{A: geom.V(0, 0), B: geom.V(4, 0)},
		Line{A: geom.V(4, 0), B: geom.V(4, 0)},
		Line{A: geom.V(4, 0), B: geom.V(0, 3)},
		Line{A: geom.V(0, 3), B: geom.V(0, 0)},
	}
	pl, err := Fit(prims)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if n := len(pl.Vertices); n != 3 {
		t.Errorf("len(Vertices) = %d, want 3", n)
	}
}

func TestArc3(t *testing.T) {
	tests := []struct {
		name      string
		a, m, b   geom.Vec
		center    geom.Vec
		radius    float64
		sweepSign float64
	}{
		{"ccw half", geom.V(1, 0), geom.V(0, 1), geom.V(-1, 0), geom.V(0, 0), 1, 1},
		{"cw half", geom.V(-1, 0), geom.V(0, 1), geom.V(1, 0), geom.V(0, 0), 1, -1},
		{"ccw major", geom.V(0, -2), geom.V(2, 0), geom.V(-2, 0), geom.V(0, 0), 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arc, err := Arc3(tt.a, tt.m, tt.b)
			if err != nil {
				t.Fatalf("Arc3() error = %v", err)
			}
			if !arc.Center.Near(tt.center, 1e-12) || math.Abs(arc.Radius-tt.radius) > 1e-12 {
				t.Errorf("Arc3() circle = %v r=%v, want %v r=%v", arc.Center, arc.Radius, tt.center, tt.radius)
			}
			if math.Signbit(arc.End-arc.Start) != math.Signbit(tt.sweepSign) {
				t.Errorf("sweep = %v, want sign %v", arc.End-arc.Start, tt.sweepSign)
			}
			a, b := arc.Endpoints()
			if !a.Near(tt.a, 1e-12) || !b.Near(tt.b, 1e-12) {
				t.Errorf("Endpoints() = %v, %v, want %v, %v", a, b, tt.a, tt.b)
			}
		})
	}

	if _, err := Arc3(geom.V(0, 0), geom.V(1, 1), geom.V(2, 2)); !errors.Is(err, errors.ErrCodeArcCollinear) {
		t.Errorf("Arc3(collinear) error = %v, want %s", err, errors.ErrCodeArcCollinear)
	}
}

func TestArc3_MajorSweep(t *testing.T) {
	arc, err := Arc3(geom.V(0, -2), geom.V(2, 0), geom.V(-2, 0))
	if err != nil {
		t.Fatal(err)
	}
	if sweep := arc.End - arc.Start; math.Abs(sweep-270) > 1e-9 {
		t.Errorf("sweep = %v, want 270", sweep)
	}
}

func TestSCurve(t *testing.T) {
	from, to := geom.V(0, 0), geom.V(20, 10)
	prims := SCurve(from, to)
	if len(prims) != 2 {
		t.Fatalf("SCurve() = %d primitives, want 2", len(prims))
	}
	a, m := prims[0].Endpoints()
	m2, b := prims[1].Endpoints()
	if !a.Near(from, 1e-9) || !b.Near(to, 1e-9) || !m.Near(m2, 1e-9) || !m.Near(geom.V(10, 5), 1e-9) {
		t.Errorf("SCurve() ends = %v %v %v %v", a, m, m2, b)
	}
	b1, b2 := prims[0].Bulge(), prims[1].Bulge()
	if math.Abs(b1+b2) > 1e-12 || b1 == 0 {
		t.Errorf("bulges = %v, %v, want mirrored", b1, b2)
	}
	if flat := SCurve(geom.V(0, 0), geom.V(5, 0)); len(flat) != 1 {
		t.Errorf("level SCurve() = %d primitives, want 1 line", len(flat))
	}
}

func TestBezier(t *testing.T) {
	ctrl := []geom.Vec{geom.V(0, 0), geom.V(0, 10), geom.V(20, 10), geom.V(20, 0)}
	prims, err := Bezier(ctrl)
	if err != nil {
		t.Fatalf("Bezier() error = %v", err)
	}
	if len(prims) == 0 {
		t.Fatal("Bezier() returned no primitives")
	}
	c := cubic{ctrl[0], ctrl[1], ctrl[2], ctrl[3]}
	accuracy := c.length() / 100

	start, _ := prims[0].Endpoints()
	_, end := prims[len(prims)-1].Endpoints()
	if !start.Near(ctrl[0], 1e-9) || !end.Near(ctrl[3], 1e-9) {
		t.Errorf("Bezier() spans %v..%v", start, end)
	}
	for i := 1; i < len(prims); i++ {
		_, prevEnd := prims[i-1].Endpoints()
		a, _ := prims[i].Endpoints()
		if !a.Near(prevEnd, Tolerance) {
			t.Errorf("piece %d starts at %v, previous ends at %v", i, a, prevEnd)
		}
	}
	for k := 0; k <= 100; k++ {
		p := c.at(float64(k) / 100)
		best := math.Inf(1)
		for _, pr := range prims {
			best = math.Min(best, distance(pr, p))
		}
		if best > 2*accuracy {
			t.Errorf("curve point %v is %v from the fit", p, best)
		}
	}

	closed := append(prims, Line{A: ctrl[3], B: ctrl[0]})
	if _, err := Fit(closed); err != nil {
		t.Errorf("Fit(bezier + line) error = %v", err)
	}
}

func TestBezier_Quadratic(t *testing.T) {
	prims, err := Bezier([]geom.Vec{geom.V(0, 0), geom.V(5, 5), geom.V(10, 0)})
	if err != nil {
		t.Fatalf("Bezier() error = %v", err)
	}
	_, end := prims[len(prims)-1].Endpoints()
	if !end.Near(geom.V(10, 0), 1e-9) {
		t.Errorf("end = %v, want (10, 0)", end)
	}
	if _, err := Bezier([]geom.Vec{geom.V(0, 0), geom.V(1, 1)}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Bezier(2 points) error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

// distance returns the distance from p to the nearest point of a primitive.
func distance(pr Primitive, p geom.Vec) float64 {
	switch v := pr.(type) {
	case Line:
		d := v.B.Sub(v.A)
		t := 0.0
		if l2 := d.Dot(d); l2 > 0 {
			t = math.Max(0, math.Min(1, p.Sub(v.A).Dot(d)/l2))
		}
		return p.Dist(v.A.Add(d.Scale(t)))
	case Arc:
		return math.Abs(p.Dist(v.Center) - v.Radius)
	}
	return math.Inf(1)
}
