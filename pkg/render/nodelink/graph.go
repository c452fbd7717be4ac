package nodelink

import "slices"

// Source lists outlines and the outlines each one refers to.
// [outline.Builder] satisfies it.
type Source interface {
	Names() []string
	Dependencies(name string) ([]string, error)
}

// Node is one outline in the graph.
type Node struct {
	ID string
	// Missing marks a referenced outline that is not declared.
	Missing bool
	Meta    map[string]any
}

// Edge points from an outline to an outline it uses.
type Edge struct {
	From, To string
}

// Graph is the outline dependency graph. Nodes keep declaration order,
// undeclared references follow in first-seen order.
type Graph struct {
	nodes []*Node
	index map[string]*Node
	edges []Edge
}

// FromSource collects the dependency graph of every outline in src.
func FromSource(src Source) (*Graph, error) {
	g := &Graph{index: map[string]*Node{}}
	names := src.Names()
	for _, name := range names {
		g.add(name, false)
	}
	for _, name := range names {
		deps, err := src.Dependencies(name)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			if g.index[d] == nil {
				g.add(d, true)
			}
			g.edges = append(g.edges, Edge{From: name, To: d})
		}
	}
	return g, nil
}

func (g *Graph) add(id string, missing bool) {
	n := &Node{ID: id, Missing: missing}
	g.nodes = append(g.nodes, n)
	g.index[id] = n
}

// Nodes returns the nodes in graph order.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// Edges returns the references in part order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// SetMeta attaches a label entry to a node; unknown ids are ignored.
func (g *Graph) SetMeta(id, key string, value any) {
	n, ok := g.index[id]
	if !ok {
		return
	}
	if n.Meta == nil {
		n.Meta = map[string]any{}
	}
	n.Meta[key] = value
}

// Roots returns the outlines no other outline refers to.
func (g *Graph) Roots() []string {
	used := map[string]bool{}
	for _, e := range g.edges {
		used[e.To] = true
	}
	var out []string
	for _, n := range g.nodes {
		if !used[n.ID] {
			out = append(out, n.ID)
		}
	}
	return out
}
