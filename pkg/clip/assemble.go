package clip

import (
	"math"

	"github.com/matzehuels/keyplate/pkg/geom"
)

// edge is a kept boundary piece, directed with the filled side on its left.
type edge struct {
	a, b   geom.Vec
	bulge  float64
	ka, kb gridKey
	used   bool
}

func newEdge(a, b geom.Vec, bulge float64) edge {
	return edge{a: a, b: b, bulge: bulge, ka: keyOf(a), kb: keyOf(b)}
}

// tangents returns the direction of travel at both ends of the edge.
func (e *edge) tangents() (start, end geom.Vec) {
	chord := e.b.Sub(e.a)
	if e.bulge == 0 {
		return chord, chord
	}
	half := geom.Degrees(2 * math.Atan(e.bulge))
	return chord.Rotate(-half), chord.Rotate(half)
}

// assemble links directed edges into rings and sorts them by orientation.
func assemble(edges []edge) geom.Region {
	out := make(map[gridKey][]int, len(edges))
	for i, e := range edges {
		out[e.ka] = append(out[e.ka], i)
	}

	var region geom.Region
	for i := range edges {
		if edges[i].used {
			continue
		}
		loop, ok := walk(edges, out, i)
		if !ok {
			continue
		}
		for _, l := range splitRepeated(loop) {
			l = simplify(l)
			if len(l) < 2 {
				continue
			}
			pl := toPolyline(l)
			switch area := pl.SignedArea(); {
			case area > minRingArea:
				region.Pos = append(region.Pos, pl)
			case area < -minRingArea:
				region.Neg = append(region.Neg, pl)
			}
		}
	}
	return region
}

// walk follows edges from edges[first] until it returns to the start vertex.
// At every junction it takes the sharpest left turn, which keeps rings that
// only touch at a vertex apart.
func walk(edges []edge, out map[gridKey][]int, first int) ([]edge, bool) {
	start := edges[first].ka
	var loop []edge
	cur := first
	for {
		e := &edges[cur]
		e.used = true
		loop = append(loop, *e)
		if e.kb == start {
			return loop, true
		}
		next := -1
		best := math.Inf(-1)
		_, din := e.tangents()
		for _, j := range out[e.kb] {
			if edges[j].used {
				continue
			}
			dout, _ := edges[j].tangents()
			turn := math.Atan2(din.Cross(dout), din.Dot(dout))
			if turn > best {
				best, next = turn, j
			}
		}
		if next < 0 {
			return nil, false
		}
		cur = next
	}
}

// splitRepeated cuts a loop that passes a vertex twice into simple loops.
func splitRepeated(loop []edge) [][]edge {
	var out [][]edge
	stack := make([]edge, 0, len(loop))
	pos := make(map[gridKey]int, len(loop))
	for _, e := range loop {
		if i, ok := pos[e.ka]; ok {
			out = append(out, append([]edge(nil), stack[i:]...))
			for _, f := range stack[i:] {
				delete(pos, f.ka)
			}
			stack = stack[:i]
		}
		pos[e.ka] = len(stack)
		stack = append(stack, e)
	}
	return append(out, stack)
}

// simplify joins neighbouring lines that run along one line, including
// zero-width spikes, and neighbouring arcs of one circle.
func simplify(loop []edge) []edge {
	for changed := true; changed && len(loop) > 1; {
		changed = false
		for i := 0; i < len(loop) && len(loop) > 1; i++ {
			j := (i + 1) % len(loop)
			m, ok := join(loop[i], loop[j], len(loop))
			if !ok {
				continue
			}
			changed = true
			if m.ka == m.kb {
				loop = removeEdges(loop, i, j)
				i--
				continue
			}
			if j == 0 {
				loop[0] = m
				loop = loop[:len(loop)-1]
				continue
			}
			loop[i] = m
			loop = append(loop[:j], loop[j+1:]...)
			i--
		}
	}
	return loop
}

func removeEdges(loop []edge, i, j int) []edge {
	out := loop[:0:0]
	for k, e := range loop {
		if k != i && k != j {
			out = append(out, e)
		}
	}
	return out
}

// join merges e followed by f into one edge when both are lines on one line
// or both are arcs of one circle turning the same way.
func join(e, f edge, n int) (edge, bool) {
	switch {
	case e.bulge == 0 && f.bulge == 0:
		d1, d2 := e.b.Sub(e.a), f.b.Sub(f.a)
		if math.Abs(d1.Cross(d2)) > 1e-9*d1.Len()*d2.Len() {
			return edge{}, false
		}
		return newEdge(e.a, f.b, 0), true
	case e.bulge == 0 || f.bulge == 0 || (e.bulge > 0) != (f.bulge > 0) || n <= 2:
		return edge{}, false
	}
	c1, r1, _, s1 := geom.ArcGeometry(e.a, e.b, e.bulge)
	c2, r2, _, s2 := geom.ArcGeometry(f.a, f.b, f.bulge)
	if !c1.Near(c2, nearTol) || math.Abs(r1-r2) > nearTol {
		return edge{}, false
	}
	sweep := geom.Radians(s1 + s2)
	if math.Abs(sweep) >= 1.5*math.Pi {
		return edge{}, false
	}
	return newEdge(e.a, f.b, math.Tan(sweep/4)), true
}

func toPolyline(loop []edge) geom.Polyline {
	pl := geom.Polyline{Closed: true, Vertices: make([]geom.Vertex, len(loop))}
	for i, e := range loop {
		pl.Vertices[i] = geom.Vertex{X: e.a.X, Y: e.a.Y, Bulge: e.bulge}
	}
	return pl
}
