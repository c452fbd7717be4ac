package geom

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPoint_MirrorInvolution(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		axis float64
	}{
		{"origin", Point{}, 0},
		{"rotated", Point{X: 5, Y: 3, R: 10}, 0},
		{"offset axis", Point{X: -12.5, Y: 40, R: -33}, 17.25},
		{"already mirrored", Point{X: 1, Y: 2, R: 3, Mirrored: true}, -4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := tt.p.Mirror(tt.axis)
			if once.Mirrored == tt.p.Mirrored {
				t.Errorf("Mirror() kept Mirrored = %v", once.Mirrored)
			}
			twice := once.Mirror(tt.axis)
			if !twice.Near(tt.p, 1e-9) || twice.Mirrored != tt.p.Mirrored {
				t.Errorf("Mirror(Mirror(p)) = %v, want %v", twice, tt.p)
			}
		})
	}
}

func TestPoint_MirrorAcrossYAxis(t *testing.T) {
	got := Point{X: 5, Y: 3, R: 10}.Mirror(0)
	want := Point{X: -5, Y: 3, R: -10, Mirrored: true}
	if got != want {
		t.Errorf("Mirror(0) = %v, want %v", got, want)
	}
}

func TestPoint_ShiftMirrored(t *testing.T) {
	p := Point{R: 90, Mirrored: true}
	tests := []struct {
		name     string
		relative bool
		resist   bool
		want     Vec
	}{
		{"absolute", false, false, V(-1, 2)},
		{"absolute resist", false, true, V(1, 2)},
		{"relative", true, false, V(-2, -1)},
		{"relative resist", true, true, V(-2, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Shift(V(1, 2), tt.relative, tt.resist).Pos()
			if !got.Near(tt.want, 1e-12) {
				t.Errorf("Shift() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPoint_Angle(t *testing.T) {
	tests := []struct {
		name   string
		target Point
		want   float64
	}{
		{"up", Point{Y: 1}, 0},
		{"right", Point{X: 1}, -90},
		{"left", Point{X: -1}, 90},
		{"down", Point{Y: -1}, -180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Point{}).Angle(tt.target); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Angle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrames_ComposeMatchesSequential(t *testing.T) {
	var fs Frames
	fs = fs.Push(15, V(10, 0))
	fs = fs.Push(-40, V(3, 7))
	fs = fs.Push(90, V(-2, 5))

	composed := fs.Compose()
	for _, p := range []Point{{}, {X: 19, Y: 4, R: 7}, {X: -3, Y: -30, R: -120}} {
		seq := fs.Apply(p)
		one := composed.ApplyPoint(p)
		if !seq.Near(one, 1e-9) {
			t.Errorf("Apply(%v) = %v, Compose().ApplyPoint = %v", p, seq, one)
		}
	}
}

func TestFrames_PushFoldsOrigin(t *testing.T) {
	var fs Frames
	fs = fs.Push(90, V(0, 0))
	fs = fs.Push(10, V(1, 0))
	if got := fs[1].Origin; !got.Near(V(0, 1), 1e-12) {
		t.Errorf("second origin = %v, want (0, 1)", got)
	}
}

func TestTransform_After(t *testing.T) {
	a := RotationAround(30, V(1, 2))
	b := Transform{Angle: -75, Offset: V(4, -1)}
	v := V(3, 3)
	want := a.Apply(b.Apply(v))
	if got := a.After(b).Apply(v); !got.Near(want, 1e-12) {
		t.Errorf("After().Apply = %v, want %v", got, want)
	}
}

func unitCircle() Polyline {
	return Polyline{
		Vertices: []Vertex{{X: 1, Y: 0, Bulge: 1}, {X: -1, Y: 0, Bulge: 1}},
		Closed:   true,
	}
}

func TestPolyline_SignedArea(t *testing.T) {
	square := Ring(V(-1, -1), V(1, -1), V(1, 1), V(-1, 1))
	tests := []struct {
		name string
		pl   Polyline
		want float64
	}{
		{"ccw square", square, 4},
		{"cw square", square.Reverse(), -4},
		{"circle", unitCircle(), math.Pi},
		{"cw circle", unitCircle().Reverse(), -math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pl.SignedArea(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("SignedArea() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolyline_ReverseTwice(t *testing.T) {
	pl := Polyline{
		Vertices: []Vertex{{X: 0, Y: 0, Bulge: 0.3}, {X: 4, Y: 0}, {X: 4, Y: 3, Bulge: -0.2}},
		Closed:   true,
	}
	if diff := cmp.Diff(pl, pl.Reverse().Reverse()); diff != "" {
		t.Errorf("Reverse().Reverse() mismatch (-want +got):\n%s", diff)
	}

	open := pl.Clone()
	open.Closed = false
	open.Vertices[2].Bulge = 0
	rev := open.Reverse()
	if last := rev.Vertices[len(rev.Vertices)-1]; last.Bulge != 0 {
		t.Errorf("open reverse left bulge %v on the last vertex", last.Bulge)
	}
	if diff := cmp.Diff(open, rev.Reverse()); diff != "" {
		t.Errorf("open Reverse().Reverse() mismatch (-want +got):\n%s", diff)
	}
}

func TestPolyline_BBoxIncludesArcs(t *testing.T) {
	want := BBox{Min: V(-1, -1), Max: V(1, 1)}
	if got := unitCircle().BBox(); !got.Near(want, 1e-12) {
		t.Errorf("BBox() = %v, want %v", got, want)
	}
}

func TestPolyline_FlattenStaysOnArc(t *testing.T) {
	pts := unitCircle().Flatten(FlattenTolerance)
	if len(pts) < 8 {
		t.Fatalf("Flatten() gave %d points", len(pts))
	}
	for _, p := range pts {
		if d := p.Len(); math.Abs(d-1) > 1e-9 {
			t.Errorf("flattened point %v at radius %v", p, d)
		}
	}
}

func TestRegion_ScaleAndBBox(t *testing.T) {
	r := Region{Pos: []Polyline{Ring(V(0, 0), V(2, 0), V(2, 1), V(0, 1))}}
	got := r.Scale(3).BBox()
	want := BBox{Min: V(0, 0), Max: V(6, 3)}
	if !got.Near(want, 1e-12) {
		t.Errorf("Scale(3).BBox() = %v, want %v", got, want)
	}
	if a := r.Scale(-1).Area(); math.Abs(a-2) > 1e-12 {
		t.Errorf("Scale(-1).Area() = %v, want 2", a)
	}
}
